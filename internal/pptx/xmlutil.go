package pptx

import (
	"fmt"
	"strings"

	"github.com/antchfx/xmlquery"
)

// Elements are matched by local name so that any prefix binding works
// (p:sldId, sldId, or a vendor prefix bound to the same namespace).

func parseXML(s string) (*xmlquery.Node, error) {
	return xmlquery.Parse(strings.NewReader(s))
}

func descendants(n *xmlquery.Node, local string) []*xmlquery.Node {
	return xmlquery.Find(n, fmt.Sprintf(".//*[local-name()='%s']", local))
}

func firstDescendant(n *xmlquery.Node, local string) *xmlquery.Node {
	return xmlquery.FindOne(n, fmt.Sprintf(".//*[local-name()='%s']", local))
}

// child follows a path of direct children, each matched by local name.
func child(n *xmlquery.Node, path ...string) *xmlquery.Node {
	cur := n
	for _, local := range path {
		if cur == nil {
			return nil
		}
		var next *xmlquery.Node
		for c := cur.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == xmlquery.ElementNode && c.Data == local {
				next = c
				break
			}
		}
		cur = next
	}
	return cur
}

// ancestor returns the nearest enclosing element whose local name is one of names.
func ancestor(n *xmlquery.Node, names ...string) *xmlquery.Node {
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Type != xmlquery.ElementNode {
			continue
		}
		for _, name := range names {
			if p.Data == name {
				return p
			}
		}
	}
	return nil
}

// attr reads an attribute by local name, preferring a namespace-qualified
// attribute (r:id) over an unqualified one (id).
func attr(n *xmlquery.Node, local string) (string, bool) {
	if n == nil {
		return "", false
	}
	for _, a := range n.Attr {
		if a.Name.Local == local && a.Name.Space != "" && a.Name.Space != "xmlns" {
			return a.Value, true
		}
	}
	for _, a := range n.Attr {
		if a.Name.Local == local && a.Name.Space == "" {
			return a.Value, true
		}
	}
	return "", false
}
