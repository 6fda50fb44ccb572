package view

import "github.com/okian/frbviewer/internal/domain/model"

// Lightbox steps through a snapshot of the gallery that was on screen when
// it opened. Navigation clamps at both ends.
type Lightbox struct {
	Images []model.ImageRef
	Index  int
}

// Open copies gallery and positions at index. It fails on an empty gallery or
// an index out of range.
func Open(gallery []model.ImageRef, index int) (*Lightbox, error) {
	if index < 0 || index >= len(gallery) {
		return nil, ErrIndexOutOfRange
	}
	images := make([]model.ImageRef, len(gallery))
	copy(images, gallery)
	return &Lightbox{Images: images, Index: index}, nil
}

// Current returns the image being shown.
func (l *Lightbox) Current() model.ImageRef {
	return l.Images[l.Index]
}

// Prev moves back one image, stopping at the first.
func (l *Lightbox) Prev() {
	if l.Index > 0 {
		l.Index--
	}
}

// Next moves forward one image, stopping at the last.
func (l *Lightbox) Next() {
	if l.Index < len(l.Images)-1 {
		l.Index++
	}
}
