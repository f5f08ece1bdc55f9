package synthesis

import (
	"context"
	"fmt"
	"strings"

	"github.com/kairos-eval/prefbench/internal/llm"
	"github.com/kairos-eval/prefbench/internal/parse"
	"github.com/kairos-eval/prefbench/internal/persona"
	"github.com/kairos-eval/prefbench/internal/prompt"
	"github.com/kairos-eval/prefbench/prompts"
)

// DefaultResponseModel answers as the assistant inside simulated dialogues.
// A mid-sized open model keeps the simulated responses imperfect enough for
// the user simulator to have something to push back on.
const DefaultResponseModel = "meta-llama/Meta-Llama-3.1-8B-Instruct-Turbo"

const userTurnRetries = 3

const (
	secEvaluation = "#### Evaluation of AI Assistant's Response"
	secScore      = "#### Evaluation Score"
	secStatus     = "#### Continue or End?"
	secChecklist  = "#### Selected Checklist Items"
	secThinking   = "#### Thinking"
	secMessage    = "#### Your Message"
)

var userTurnParser = parse.NewSectionParser(
	parse.Section{Header: secEvaluation},
	parse.Section{Header: secScore},
	parse.Section{Header: secStatus, Required: true},
	parse.Section{Header: secChecklist, Required: true},
	parse.Section{Header: secThinking},
	parse.Section{Header: secMessage, Required: true},
)

// parseUserTurn extracts the outgoing message and the end flag from a user
// simulator reply.
func parseUserTurn(output string) (message string, end bool, err error) {
	sections, err := userTurnParser.Parse(output)
	if err != nil {
		return "", false, err
	}
	return sections[secMessage], sections[secStatus] == "END", nil
}

// initialUserTurn seeds the user simulator's transcript with a well-formed
// first reply carrying the session's opening request, so the model has a
// concrete example of the expected format before its first real turn.
func initialUserTurn(request string) llm.Message {
	return llm.Message{
		Role: "assistant",
		Content: fmt.Sprintf("%s\n\nN/A\n\n%s\n\nN/A\n\n%s\n\nCONTINUE\n\n%s\n\nN/A\n\n%s\n\nN/A\n\n%s\n\n%s",
			secEvaluation, secScore, secStatus, secChecklist, secThinking, secMessage, request),
	}
}

// Simulator rolls out one multi-turn dialogue per session: a persona-bound
// user simulator judging replies against a hidden checklist, against a plain
// assistant answering its requests.
type Simulator struct {
	gen           llm.Generator
	userModel     string
	responseModel string
}

func NewSimulator(gen llm.Generator, userModel, responseModel string) *Simulator {
	if responseModel == "" {
		responseModel = DefaultResponseModel
	}
	return &Simulator{gen: gen, userModel: userModel, responseModel: responseModel}
}

func numberedChecklist(items []string) string {
	var lines []string
	for i, item := range items {
		lines = append(lines, fmt.Sprintf("%d. %s", i+1, item))
	}
	return strings.Join(lines, "\n")
}

// userTurn sends the assistant's last message to the user simulator and
// parses the structured reply, retrying with a transcript rollback when the
// reply does not follow the expected format.
func (s *Simulator) userTurn(ctx context.Context, sim *prompt.ChatGenerator, aiMessage string) (string, bool, error) {
	var lastErr error
	var lastOut string
	for try := 0; try < userTurnRetries; try++ {
		cp := sim.Checkpoint()
		out, err := sim.Send(ctx, aiMessage)
		if err != nil {
			return "", false, err
		}
		message, end, err := parseUserTurn(out)
		if err == nil {
			return message, end, nil
		}
		lastErr, lastOut = err, out
		if rbErr := sim.Rollback(cp); rbErr != nil {
			return "", false, rbErr
		}
	}
	return "", false, fmt.Errorf("user simulator reply unparseable after %d retries: %w\n\nOutput: %s", userTurnRetries, lastErr, lastOut)
}

// Simulate runs the dialogue for one session. The session's request opens
// the conversation; the user simulator decides each following user turn and
// when to stop. With maxTurns == 0 the interaction is just the opening
// request.
func (s *Simulator) Simulate(ctx context.Context, p persona.Persona, session Session, maxTurns int) (Interaction, error) {
	request := session.RequestWithFactor
	if session.Resource != nil {
		request = strings.ReplaceAll(request, "[resource]", *session.Resource)
	}
	request = strings.TrimSpace(request)

	userTmpl, err := prompt.Load(prompts.FS, "synthesis/user_simulator.yaml")
	if err != nil {
		return Interaction{}, err
	}
	initial := initialUserTurn(request)
	userSim, err := prompt.NewChatGenerator(s.gen, s.userModel, userTmpl, map[string]any{
		"user_profile":   p.Description,
		"context_factor": session.ContextFactor,
		"preference":     session.Preference,
		"checklist":      numberedChecklist(session.Checklist),
	}, &initial, llm.Options{Temperature: 0.3, MaxTokens: 8192})
	if err != nil {
		return Interaction{}, err
	}

	assistantTmpl, err := prompt.Load(prompts.FS, "synthesis/assistant_simulator.yaml")
	if err != nil {
		return Interaction{}, err
	}
	assistant, err := prompt.NewChatGenerator(s.gen, s.responseModel, assistantTmpl, nil, nil, llm.Options{Temperature: 0.7, MaxTokens: 2048})
	if err != nil {
		return Interaction{}, err
	}

	userMessage := request
	aiMessage := ""
	complete := false
	for turn := 0; turn < maxTurns; turn++ {
		if turn != 0 {
			userMessage, complete, err = s.userTurn(ctx, userSim, aiMessage)
			if err != nil {
				return Interaction{}, fmt.Errorf("session %d: %w", session.ID, err)
			}
		}
		if complete {
			break
		}
		aiMessage, err = assistant.Send(ctx, userMessage)
		if err != nil {
			return Interaction{}, fmt.Errorf("session %d: %w", session.ID, err)
		}
	}

	chat, err := invertRoles(userSim.History())
	if err != nil {
		return Interaction{}, fmt.Errorf("session %d: %w", session.ID, err)
	}
	if !complete {
		chat = append(chat, llm.Message{Role: "assistant", Content: aiMessage})
	}

	return Interaction{
		SessionID:   session.ID,
		Preference:  session.Preference,
		Checklist:   session.Checklist,
		Chat:        chat,
		IsSatisfied: complete,
	}, nil
}

// invertRoles turns the user simulator's transcript into the dialogue as the
// evaluated assistant would see it: simulator replies become user turns with
// only their outgoing message kept, and incoming assistant messages keep
// their text.
func invertRoles(history []llm.Message) ([]llm.Message, error) {
	out := make([]llm.Message, 0, len(history))
	for _, msg := range history {
		if msg.Role == "assistant" {
			content, _, err := parseUserTurn(msg.Content)
			if err != nil {
				return nil, err
			}
			out = append(out, llm.Message{Role: "user", Content: content})
		} else {
			out = append(out, llm.Message{Role: "assistant", Content: msg.Content})
		}
	}
	return out, nil
}
