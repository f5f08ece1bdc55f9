package synthesis

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/kairos-eval/prefbench/internal/llm"
	"github.com/kairos-eval/prefbench/internal/parse"
	"github.com/kairos-eval/prefbench/internal/persona"
)

func userReply(status, message string) string {
	return "#### Evaluation of AI Assistant's Response\n\nIt was fine.\n\n" +
		"#### Evaluation Score\n\n6\n\n" +
		"#### Continue or End?\n\n" + status + "\n\n" +
		"#### Selected Checklist Items\n\n1, 2\n\n" +
		"#### Thinking\n\nStill missing detail.\n\n" +
		"#### Your Message\n\n" + message
}

func TestParseUserTurn(t *testing.T) {
	message, end, err := parseUserTurn(userReply("CONTINUE", "Could you add sources?"))
	require.NoError(t, err)
	require.False(t, end)
	require.Equal(t, "Could you add sources?", message)

	message, end, err = parseUserTurn(userReply("END", "Thanks, that works."))
	require.NoError(t, err)
	require.True(t, end)
	require.Equal(t, "Thanks, that works.", message)
}

func TestParseUserTurnMissingSection(t *testing.T) {
	_, _, err := parseUserTurn("#### Your Message\n\nhello")
	var missing *parse.MissingSectionError
	require.ErrorAs(t, err, &missing)
	require.Equal(t, "#### Continue or End?", missing.Section)
}

func testSession() Session {
	return Session{
		ID:                3,
		ContextFactor:     "Archival research",
		Preference:        "cite primary sources",
		RequestWithFactor: "Help me outline a paper on [resource].",
		Resource:          strPtr("17th century trade maps"),
		Checklist:         []string{"cites primary sources", "notes archive locations"},
	}
}

func strPtr(s string) *string { return &s }

func TestSimulateConversation(t *testing.T) {
	mock := llm.NewMock(
		"Here is an outline.",                          // assistant, turn 0
		userReply("CONTINUE", "Please cite archives."), // user, turn 1
		"Outline with archive citations.",              // assistant, turn 1
		userReply("END", "That covers it."),            // user, turn 2
	)
	sim := NewSimulator(mock, "user-model", "")

	interaction, err := sim.Simulate(context.Background(), persona.Persona{Description: "a historian"}, testSession(), 4)
	require.NoError(t, err)
	require.Equal(t, 4, mock.Calls())

	require.Equal(t, 3, interaction.SessionID)
	require.True(t, interaction.IsSatisfied)
	require.Equal(t, "cite primary sources", interaction.Preference)

	chat := interaction.Chat
	require.Len(t, chat, 5)
	require.Equal(t, "user", chat[0].Role)
	require.Equal(t, "Help me outline a paper on 17th century trade maps.", chat[0].Content)
	require.Equal(t, llm.Message{Role: "assistant", Content: "Here is an outline."}, chat[1])
	require.Equal(t, llm.Message{Role: "user", Content: "Please cite archives."}, chat[2])
	require.Equal(t, llm.Message{Role: "assistant", Content: "Outline with archive citations."}, chat[3])
	require.Equal(t, llm.Message{Role: "user", Content: "That covers it."}, chat[4])
}

func TestSimulateUnfinishedKeepsLastReply(t *testing.T) {
	mock := llm.NewMock("Draft outline.")
	sim := NewSimulator(mock, "user-model", "")

	interaction, err := sim.Simulate(context.Background(), persona.Persona{Description: "a historian"}, testSession(), 1)
	require.NoError(t, err)
	require.False(t, interaction.IsSatisfied)

	chat := interaction.Chat
	require.Len(t, chat, 2)
	require.Equal(t, "user", chat[0].Role)
	require.Equal(t, llm.Message{Role: "assistant", Content: "Draft outline."}, chat[1])
}

func TestSimulateZeroTurns(t *testing.T) {
	mock := llm.NewMock()
	sim := NewSimulator(mock, "user-model", "")

	interaction, err := sim.Simulate(context.Background(), persona.Persona{Description: "a historian"}, testSession(), 0)
	require.NoError(t, err)
	require.Zero(t, mock.Calls())
	require.False(t, interaction.IsSatisfied)

	chat := interaction.Chat
	require.Len(t, chat, 2)
	require.Equal(t, "Help me outline a paper on 17th century trade maps.", chat[0].Content)
	require.Equal(t, "assistant", chat[1].Role)
	require.Empty(t, chat[1].Content)
}

func TestSimulateRetriesMalformedUserReply(t *testing.T) {
	mock := llm.NewMock(
		"First answer.",
		"no sections at all",
		userReply("END", "Good enough."),
	)
	sim := NewSimulator(mock, "user-model", "")

	interaction, err := sim.Simulate(context.Background(), persona.Persona{Description: "a historian"}, testSession(), 3)
	require.NoError(t, err)
	require.True(t, interaction.IsSatisfied)
	require.Equal(t, 3, mock.Calls())

	// The malformed turn is rolled back, so the transcript ends with the
	// parsed retry and the dialogue stays paired.
	chat := interaction.Chat
	require.Equal(t, llm.Message{Role: "user", Content: "Good enough."}, chat[len(chat)-1])
}

func TestSimulateGivesUpAfterRetries(t *testing.T) {
	mock := llm.NewMock("First answer.", "bad", "still bad", "worse")
	sim := NewSimulator(mock, "user-model", "")

	_, err := sim.Simulate(context.Background(), persona.Persona{Description: "a historian"}, testSession(), 3)
	require.ErrorContains(t, err, "unparseable after 3 retries")
}
