package ai

import "context"

// Enhancer recovers information the package itself does not carry.
type Enhancer interface {
	// RecoverText transcribes the visible text of a slide image. An empty
	// result means the image shows no readable text.
	RecoverText(ctx context.Context, mime string, data []byte) (string, error)
}

type Noop struct{}

func (Noop) RecoverText(ctx context.Context, mime string, data []byte) (string, error) {
	return "", nil
}
