package parse

import (
	"fmt"
	"strings"
)

// MissingSectionError reports a required section header absent from the text.
type MissingSectionError struct {
	Section string
}

func (e *MissingSectionError) Error() string {
	return fmt.Sprintf("parse: missing section %q", e.Section)
}

// Section declares one expected header within a structured reply.
type Section struct {
	Header   string
	Required bool
}

// SectionParser splits free text on literal markdown headers. A header like
// "### Evaluation Score" also matches its bolded variant
// "### **Evaluation Score**".
type SectionParser struct {
	sections []Section
}

// NewSectionParser builds a parser for the given ordered sections.
func NewSectionParser(sections ...Section) *SectionParser {
	return &SectionParser{sections: sections}
}

// boldVariant rewrites "### Title" as "### **Title**". Headers without a
// hash prefix are returned unchanged.
func boldVariant(header string) string {
	hashes, title, ok := strings.Cut(header, " ")
	if !ok || strings.Trim(hashes, "#") != "" {
		return header
	}
	return hashes + " **" + title + "**"
}

// cut finds header (or its bolded variant) in text and returns the text that
// follows it.
func cut(text, header string) (string, bool) {
	if _, after, ok := strings.Cut(text, header); ok {
		return after, true
	}
	if bold := boldVariant(header); bold != header {
		if _, after, ok := strings.Cut(text, bold); ok {
			return after, true
		}
	}
	return "", false
}

// Parse extracts each declared section's body: the text between its header
// and the next declared header that appears. Required sections that are
// absent yield MissingSectionError; optional absent sections are simply
// omitted from the result.
func (p *SectionParser) Parse(text string) (map[string]string, error) {
	out := make(map[string]string, len(p.sections))

	for i, sec := range p.sections {
		after, ok := cut(text, sec.Header)
		if !ok {
			if sec.Required {
				return nil, &MissingSectionError{Section: sec.Header}
			}
			continue
		}

		body := after
		for _, next := range p.sections[i+1:] {
			if idx := headerIndex(body, next.Header); idx >= 0 {
				body = body[:idx]
				break
			}
		}
		out[sec.Header] = strings.TrimSpace(body)
	}

	return out, nil
}

func headerIndex(text, header string) int {
	if idx := strings.Index(text, header); idx >= 0 {
		return idx
	}
	if bold := boldVariant(header); bold != header {
		return strings.Index(text, bold)
	}
	return -1
}
