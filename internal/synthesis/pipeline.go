package synthesis

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sort"

	"github.com/kairos-eval/prefbench/internal/llm"
	"github.com/kairos-eval/prefbench/internal/persona"
	"github.com/kairos-eval/prefbench/internal/store"
)

// Config carries the knobs of one synthesis run.
type Config struct {
	Model         string
	ResponseModel string
	NFactors      int
	NSessions     int
	MaxTurns      int
	OutputDir     string
}

// Synthesizer drives the three-phase artifact pipeline for single personas.
// Each phase persists its output immediately, so a rerun picks up exactly
// where the previous run stopped.
type Synthesizer struct {
	cfg        Config
	factors    *FactorsGenerator
	sessions   *SessionsGenerator
	decomposer *Decomposer
	simulator  *Simulator
}

func NewSynthesizer(gen llm.Generator, cfg Config, rng *rand.Rand) (*Synthesizer, error) {
	factors, err := NewFactorsGenerator(gen, cfg.Model)
	if err != nil {
		return nil, err
	}
	sessions, err := NewSessionsGenerator(gen, cfg.Model, rng)
	if err != nil {
		return nil, err
	}
	decomposer, err := NewDecomposer(gen, cfg.Model)
	if err != nil {
		return nil, err
	}
	return &Synthesizer{
		cfg:        cfg,
		factors:    factors,
		sessions:   sessions,
		decomposer: decomposer,
		simulator:  NewSimulator(gen, cfg.Model, cfg.ResponseModel),
	}, nil
}

// Run synthesizes the full artifact tree for one persona. A validation
// failure abandons the persona without error: the caller moves on to the
// next one and a rerun regenerates from the failed phase.
func (s *Synthesizer) Run(ctx context.Context, p persona.Persona) error {
	occupation := store.SanitizeOccupation(p.Occupation)
	log := slog.With("persona", p.ID, "occupation", occupation)
	path := store.PersonaDataPath(s.cfg.OutputDir, p.ID, p.Occupation)

	var data PersonaData
	if _, err := store.Load(path, &data); err != nil {
		return err
	}

	if data.ContextFactors == nil {
		log.Info("generating context factors")
		factors, err := s.factors.Generate(ctx, p, s.cfg.NFactors)
		if err != nil {
			log.Error("context factor generation failed", "error", err)
			return nil
		}
		if ok, reason := ValidateContextFactors(factors); !ok {
			log.Error("context factors rejected", "reason", reason)
			return nil
		}
		data.ContextFactors = factors
		if err := store.Save(path, data); err != nil {
			return err
		}
		log.Info("context factors saved", "count", len(factors))
	}

	if data.Sessions == nil {
		log.Info("generating interaction sessions")
		sessions, err := s.sessions.Generate(ctx, p, data.ContextFactors, s.cfg.NSessions)
		if err != nil {
			log.Error("session generation failed", "error", err)
			return nil
		}
		if ok, reason := ValidateSessions(sessions, data.ContextFactors, s.cfg.NSessions); !ok {
			log.Error("sessions rejected", "reason", reason)
			return nil
		}
		if err := s.decomposer.DecomposeSessions(ctx, sessions); err != nil {
			log.Error("preference decomposition failed", "error", err)
			return nil
		}
		data.Sessions = sessions
		if err := store.Save(path, data); err != nil {
			return err
		}
		log.Info("sessions saved", "count", len(sessions))
	}

	if len(data.Interactions) != len(data.Sessions) {
		log.Info("generating interactions")
		done := map[int]bool{}
		for _, interaction := range data.Interactions {
			done[interaction.SessionID] = true
		}

		for i, session := range data.Sessions {
			if done[session.ID] {
				continue
			}
			maxTurns := s.cfg.MaxTurns
			if i == len(data.Sessions)-1 {
				// The final session is the held-out request: no dialogue.
				maxTurns = 0
			}

			log.Info("simulating interaction", "session", session.ID, "progress", fmt.Sprintf("%d/%d", i+1, len(data.Sessions)))
			interaction, err := s.simulator.Simulate(ctx, p, session, maxTurns)
			if err != nil {
				log.Error("interaction simulation failed", "session", session.ID, "error", err)
				continue
			}

			data.Interactions = append(data.Interactions, interaction)
			sort.Slice(data.Interactions, func(a, b int) bool {
				return data.Interactions[a].SessionID < data.Interactions[b].SessionID
			})
			if err := store.Save(path, data); err != nil {
				return err
			}
		}

		if len(data.Interactions) == len(data.Sessions) {
			log.Info("all interactions generated")
		} else {
			log.Warn("incomplete interactions", "done", len(data.Interactions), "want", len(data.Sessions))
		}
	}

	return nil
}
