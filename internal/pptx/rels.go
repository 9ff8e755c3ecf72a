package pptx

import (
	"errors"
	"fmt"
	"path"
	"strings"
)

const (
	presentationPart = "ppt/presentation.xml"
	presentationRels = "ppt/_rels/presentation.xml.rels"
)

// SlideRef is one resolved entry of the presentation's slide list.
type SlideRef struct {
	// Number is the 1-based manifest position, gaps included.
	Number int
	RelID  string
	Path   string
}

// ParseRelationships maps relationship ids to package paths for every
// relationship of the presentation whose type mentions "slide".
// A package without a relationships part yields an empty map.
func ParseRelationships(a *Archive) (map[string]string, error) {
	rels := make(map[string]string)
	text, err := a.ReadText(presentationRels)
	if errors.Is(err, ErrEntryNotFound) {
		return rels, nil
	}
	if err != nil {
		return nil, err
	}
	doc, err := parseXML(text)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", presentationRels, err)
	}
	for _, rel := range descendants(doc, "Relationship") {
		typ, _ := attr(rel, "Type")
		if !strings.Contains(typ, "slide") {
			continue
		}
		if mode, _ := attr(rel, "TargetMode"); strings.EqualFold(mode, "External") {
			continue
		}
		id, _ := attr(rel, "Id")
		target, _ := attr(rel, "Target")
		if id == "" || target == "" {
			continue
		}
		rels[id] = resolveTarget(presentationPart, target)
	}
	return rels, nil
}

// ParseSlideOrder returns the relationship ids of the slide list in declared order.
func ParseSlideOrder(a *Archive) ([]string, error) {
	text, err := a.ReadText(presentationPart)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPackageStructure, err)
	}
	doc, err := parseXML(text)
	if err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", ErrInvalidPackageStructure, presentationPart, err)
	}
	var ids []string
	for _, n := range descendants(doc, "sldId") {
		id, _ := attr(n, "id")
		ids = append(ids, id)
	}
	return ids, nil
}

// Resolve combines the slide order with the relationship map. Positions whose
// id has no relationship are skipped without error.
func Resolve(a *Archive) ([]SlideRef, error) {
	order, err := ParseSlideOrder(a)
	if err != nil {
		return nil, err
	}
	rels, err := ParseRelationships(a)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPackageStructure, err)
	}
	refs := make([]SlideRef, 0, len(order))
	for i, id := range order {
		target, ok := rels[id]
		if !ok {
			continue
		}
		refs = append(refs, SlideRef{Number: i + 1, RelID: id, Path: target})
	}
	return refs, nil
}

// resolveTarget turns a relationship target into a package path. Relative
// targets are relative to the source part's directory.
func resolveTarget(source, target string) string {
	target = strings.ReplaceAll(target, "\\", "/")
	if strings.HasPrefix(target, "/") {
		return path.Clean(strings.TrimPrefix(target, "/"))
	}
	return path.Clean(path.Join(path.Dir(source), target))
}
