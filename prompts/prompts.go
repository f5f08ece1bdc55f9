// Package prompts embeds the default prompt templates for the synthesis and
// evaluation pipelines.
package prompts

import "embed"

//go:embed synthesis/*.yaml evaluation/*.yaml
var FS embed.FS
