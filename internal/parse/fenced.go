// Package parse extracts structured payloads from model output: fenced
// json/yaml blocks optionally wrapped in prose, and markdown-header-delimited
// sections.
package parse

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"gopkg.in/yaml.v3"
)

// fencedBlock returns the contents of the first ```tag fenced block, or the
// whole trimmed text when no such block exists.
func fencedBlock(text, tag string) string {
	marker := "```" + tag
	idx := strings.Index(text, marker)
	if idx < 0 {
		return strings.TrimSpace(text)
	}
	rest := text[idx+len(marker):]
	if end := strings.LastIndex(rest, "```"); end >= 0 {
		rest = rest[:end]
	}
	return strings.TrimSpace(rest)
}

// JSONBlock parses the first ```json block (or the entire text) into v.
func JSONBlock(text string, v any) error {
	payload := fencedBlock(text, "json")
	if err := json.Unmarshal([]byte(payload), v); err != nil {
		return fmt.Errorf("parse: json block: %w", err)
	}
	return nil
}

// YAMLBlock parses the first ```yaml block (or the entire text) into v.
func YAMLBlock(text string, v any) error {
	payload := fencedBlock(text, "yaml")
	if err := yaml.Unmarshal([]byte(payload), v); err != nil {
		return fmt.Errorf("parse: yaml block: %w", err)
	}
	return nil
}

// Decode maps a loosely-typed parsed value (from JSONBlock/YAMLBlock into
// any) onto a typed struct, matching fields by their json tags.
func Decode(in, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName: "json",
		Result:  out,
	})
	if err != nil {
		return fmt.Errorf("parse: decode: %w", err)
	}
	if err := dec.Decode(in); err != nil {
		return fmt.Errorf("parse: decode: %w", err)
	}
	return nil
}
