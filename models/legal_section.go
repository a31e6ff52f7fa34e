package models

import "strings"

// LegalSection is one titled block of the legal reference corpus.
// Text holds the whole block, title line included.
type LegalSection struct {
	Position int    `json:"position"`
	Title    string `json:"title"`
	Text     string `json:"text"`
}

// NewLegalSection builds a section from a trimmed corpus block.
func NewLegalSection(position int, text string) LegalSection {
	title := text
	if idx := strings.Index(text, "\n"); idx != -1 {
		title = text[:idx]
	}
	return LegalSection{
		Position: position,
		Title:    strings.TrimSpace(title),
		Text:     text,
	}
}
