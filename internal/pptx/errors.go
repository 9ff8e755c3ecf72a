package pptx

import "errors"

var (
	// ErrInvalidPackage is returned when the input bytes are not a ZIP container.
	ErrInvalidPackage = errors.New("pptx: not a valid package archive")
	// ErrInvalidPackageStructure is returned when the presentation part is missing or unreadable.
	ErrInvalidPackageStructure = errors.New("pptx: presentation part missing or unreadable")
	// ErrSlideSkipped marks a per-slide failure. The slide is dropped, extraction goes on.
	ErrSlideSkipped = errors.New("pptx: slide skipped")

	ErrEntryNotFound = errors.New("pptx: entry not found")
	ErrClosed        = errors.New("pptx: archive closed")
)
