package llm

import (
	"context"
	"fmt"
	"sync"
)

// Mock is a scripted Generator for tests. Replies are returned in order; an
// exhausted script fails the call so tests catch unexpected extra calls.
type Mock struct {
	mu      sync.Mutex
	replies []string
	errs    map[int]error // call index -> forced error
	calls   int

	// LastSystem and LastPrompt capture the most recent call for assertions.
	LastSystem string
	LastPrompt string
	Histories  [][]Message
}

// NewMock creates a Mock that returns the given replies in order.
func NewMock(replies ...string) *Mock {
	return &Mock{replies: replies}
}

// FailAt forces the call with the given zero-based index to return err.
func (m *Mock) FailAt(i int, err error) *Mock {
	if m.errs == nil {
		m.errs = map[int]error{}
	}
	m.errs[i] = err
	return m
}

// Calls returns how many generation calls were made.
func (m *Mock) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

func (m *Mock) next(system, prompt string, history []Message) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := m.calls
	m.calls++
	m.LastSystem = system
	m.LastPrompt = prompt
	if history != nil {
		cp := make([]Message, len(history))
		copy(cp, history)
		m.Histories = append(m.Histories, cp)
	}

	if err, ok := m.errs[idx]; ok {
		return "", err
	}
	if idx >= len(m.replies) {
		return "", fmt.Errorf("llm: mock exhausted after %d replies", len(m.replies))
	}
	return m.replies[idx], nil
}

func (m *Mock) Generate(_ context.Context, _, system, prompt string, _ Options) (string, error) {
	return m.next(system, prompt, nil)
}

func (m *Mock) GenerateChat(_ context.Context, _, system string, messages []Message, _ Options) (string, error) {
	return m.next(system, "", messages)
}
