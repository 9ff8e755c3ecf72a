package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	genai "google.golang.org/genai"
)

// ErrNotConfigured is returned by a Gemini value built without a client.
var ErrNotConfigured = errors.New("gemini not configured")

// noText is what the model is told to answer for an image without text.
const noText = "NO_TEXT"

const transcribePrompt = `Transcribe all readable text on this presentation slide.
Keep reading order: title first, then body top to bottom, left to right.
Return plain text only, one line per text block, no commentary, no markdown.
If the slide has no readable text, return exactly ` + noText + `.`

type Gemini struct {
	client *genai.Client
	model  string
}

func NewGemini(ctx context.Context, apiKey, model string) (*Gemini, error) {
	if apiKey == "" {
		return nil, errors.New("missing GOOGLE_API_KEY")
	}
	if model == "" {
		model = "gemini-2.5-flash"
	}
	c, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apiKey})
	if err != nil {
		return nil, err
	}
	return &Gemini{client: c, model: model}, nil
}

// RecoverText sends the image inline and returns the transcript joined into
// one line, the way slide text is stored elsewhere.
func (g *Gemini) RecoverText(ctx context.Context, mime string, data []byte) (string, error) {
	if g == nil || g.client == nil {
		return "", ErrNotConfigured
	}
	if len(data) == 0 {
		return "", nil
	}
	prompt := &genai.Content{
		Role: genai.RoleUser,
		Parts: []*genai.Part{
			{Text: transcribePrompt},
			{InlineData: &genai.Blob{MIMEType: mime, Data: data}},
		},
	}
	res, err := g.client.Models.GenerateContent(ctx, g.model, []*genai.Content{prompt}, nil)
	if err != nil {
		return "", fmt.Errorf("gemini API call failed: %w", err)
	}
	return cleanTranscript(res.Text()), nil
}

func cleanTranscript(s string) string {
	s = stripCodeFences(s)
	if strings.EqualFold(strings.TrimSpace(s), noText) {
		return ""
	}
	return strings.Join(strings.Fields(s), " ")
}

func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		if nl := strings.Index(s, "\n"); nl != -1 {
			s = s[nl+1:]
		} else {
			s = strings.TrimPrefix(s, "```")
		}
	}
	if strings.HasSuffix(s, "```") {
		s = strings.TrimSuffix(s, "```")
		s = strings.TrimSpace(s)
	}
	return s
}
