package service

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"trafficsafe-backend/models"

	"golang.org/x/text/unicode/norm"
)

const (
	// sectionMarker opens the header line of every corpus section
	sectionMarker = "==="

	titleMatchBonus    = 3
	bodyMatchScore     = 1
	maxContextSections = 5
	defaultSections    = 3
)

// LegalCorpusIndex scores corpus sections against the keywords of a query.
// It is immutable once built and safe for concurrent use.
type LegalCorpusIndex struct {
	sections []models.LegalSection
	lowered  []string // lowercased section text
	titles   []string // lowercased first line
}

// LegalContext is the result of a corpus lookup
type LegalContext struct {
	Context  string
	TopScore int
	Sections []models.LegalSection
}

// SplitLegalSections splits raw corpus text at every newline that is directly
// followed by the section marker. Blocks are trimmed; empty ones are dropped.
func SplitLegalSections(raw string) []models.LegalSection {
	parts := strings.Split(raw, "\n"+sectionMarker)
	sections := make([]models.LegalSection, 0, len(parts))
	for i, part := range parts {
		if i > 0 {
			part = sectionMarker + part
		}
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		sections = append(sections, models.NewLegalSection(len(sections), part))
	}
	return sections
}

// BuildLegalCorpusIndex splits raw corpus text and indexes the sections
func BuildLegalCorpusIndex(raw string) *LegalCorpusIndex {
	return NewLegalCorpusIndex(SplitLegalSections(raw))
}

// NewLegalCorpusIndex indexes sections that were already split, in corpus order
func NewLegalCorpusIndex(sections []models.LegalSection) *LegalCorpusIndex {
	idx := &LegalCorpusIndex{
		sections: make([]models.LegalSection, len(sections)),
		lowered:  make([]string, len(sections)),
		titles:   make([]string, len(sections)),
	}
	copy(idx.sections, sections)
	for i, s := range idx.sections {
		lower := strings.ToLower(normalizeText(s.Text))
		idx.lowered[i] = lower
		if nl := strings.Index(lower, "\n"); nl != -1 {
			idx.titles[i] = lower[:nl]
		} else {
			idx.titles[i] = lower
		}
	}
	return idx
}

// Len returns the number of indexed sections
func (idx *LegalCorpusIndex) Len() int {
	return len(idx.sections)
}

// Sections returns a copy of the indexed sections in corpus order
func (idx *LegalCorpusIndex) Sections() []models.LegalSection {
	out := make([]models.LegalSection, len(idx.sections))
	copy(out, idx.sections)
	return out
}

// ExtractKeywords lowercases a query and splits it on whitespace and ,?.!
// Tokens of a single character are discarded.
func ExtractKeywords(query string) []string {
	fields := strings.FieldsFunc(strings.ToLower(normalizeText(query)), func(r rune) bool {
		switch r {
		case ',', '?', '.', '!':
			return true
		}
		return unicode.IsSpace(r)
	})
	keywords := make([]string, 0, len(fields))
	for _, f := range fields {
		if utf8.RuneCountInString(f) > 1 {
			keywords = append(keywords, f)
		}
	}
	return keywords
}

// Query returns the most relevant sections for query. A keyword found
// anywhere in a section scores 1, and 3 more when it is also in the title
// line. Up to five sections with a positive score are returned, best first,
// ties kept in corpus order. Without any match the first three sections are
// returned with a zero top score.
func (idx *LegalCorpusIndex) Query(query string) LegalContext {
	keywords := ExtractKeywords(query)
	if len(keywords) == 0 {
		return idx.leading()
	}

	type scored struct {
		pos   int
		score int
	}
	ranked := make([]scored, len(idx.sections))
	for i := range idx.sections {
		score := 0
		for _, word := range keywords {
			if strings.Contains(idx.lowered[i], word) {
				score += bodyMatchScore
			}
			if strings.Contains(idx.titles[i], word) {
				score += titleMatchBonus
			}
		}
		ranked[i] = scored{pos: i, score: score}
	}

	sort.SliceStable(ranked, func(a, b int) bool {
		return ranked[a].score > ranked[b].score
	})

	var picked []models.LegalSection
	for _, r := range ranked {
		if r.score <= 0 || len(picked) == maxContextSections {
			break
		}
		picked = append(picked, idx.sections[r.pos])
	}
	if len(picked) == 0 {
		return idx.leading()
	}

	return LegalContext{
		Context:  joinSections(picked),
		TopScore: ranked[0].score,
		Sections: picked,
	}
}

func (idx *LegalCorpusIndex) leading() LegalContext {
	n := defaultSections
	if n > len(idx.sections) {
		n = len(idx.sections)
	}
	picked := make([]models.LegalSection, n)
	copy(picked, idx.sections[:n])
	return LegalContext{
		Context:  joinSections(picked),
		TopScore: 0,
		Sections: picked,
	}
}

// normalizeText puts text in NFC form so precomposed and combining-mark
// spellings of Vietnamese letters compare equal
func normalizeText(s string) string {
	return norm.NFC.String(s)
}

// LoadCorpusFile reads and indexes a corpus file
func LoadCorpusFile(path string) (*LegalCorpusIndex, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read corpus file: %w", err)
	}
	return BuildLegalCorpusIndex(string(raw)), nil
}

func joinSections(sections []models.LegalSection) string {
	texts := make([]string, len(sections))
	for i, s := range sections {
		texts[i] = s.Text
	}
	return strings.Join(texts, "\n\n")
}
