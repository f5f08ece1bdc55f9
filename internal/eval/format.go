package eval

import (
	"fmt"
	"strings"

	"github.com/kairos-eval/prefbench/internal/synthesis"
)

// FormatInteractionLog renders prior interactions as the markdown transcript
// shown to candidate models.
func FormatInteractionLog(priors []synthesis.PriorInteraction) string {
	var b strings.Builder
	for i, interaction := range priors {
		fmt.Fprintf(&b, "### Session %d\n\n", i+1)
		for _, message := range interaction.Dialogue {
			role := "AI Assistant"
			if message.Role == "user" {
				role = "User"
			}
			fmt.Fprintf(&b, "#### %s\n\n%s\n\n", role, message.Content)
		}
		b.WriteString("---\n\n")
	}
	return strings.TrimSpace(b.String())
}
