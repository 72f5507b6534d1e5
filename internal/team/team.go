// Package team implements the turn-bounded conversation driver for incident
// workflows. A Team owns the transcript for one run: participants see a copy
// of the history on their turn and never hold a reference to the live
// sequence.
package team

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// Message is one transcript entry.
type Message struct {
	Speaker   string `json:"speaker"`
	Content   string `json:"content"`
	TurnIndex int    `json:"turn_index"`
}

// Tool is a named, typed capability a participant exposes to the driver.
type Tool struct {
	Name        string
	Description string
	Call        func(ctx context.Context, args map[string]any) (any, error)
}

// Participant produces the next transcript message and exposes callable
// tools. Rule-based and model-backed implementations are interchangeable.
type Participant interface {
	Name() string
	NextMessage(ctx context.Context, transcript []Message) (Message, error)
	Tools() []Tool
}

// TerminationReason records which condition ended a conversation.
type TerminationReason string

const (
	TerminationMaxMessages TerminationReason = "max_messages"
	TerminationTextMatch   TerminationReason = "text_match"
	TerminationMaxTurns    TerminationReason = "max_turns"
)

// Defaults applied when Config fields are unset.
const (
	DefaultMaxMessages      = 20
	DefaultMaxTurns         = 10
	DefaultTerminationToken = "TERMINATE"
)

// Config bounds one conversation run.
type Config struct {
	MaxMessages      int
	MaxTurns         int
	TerminationToken string
	TurnTimeout      time.Duration
}

func (c Config) withDefaults() Config {
	if c.MaxMessages <= 0 {
		c.MaxMessages = DefaultMaxMessages
	}
	if c.MaxTurns <= 0 {
		c.MaxTurns = DefaultMaxTurns
	}
	if c.TerminationToken == "" {
		c.TerminationToken = DefaultTerminationToken
	}
	return c
}

// Result is the outcome of a conversation that reached a terminal state.
type Result struct {
	Transcript []Message
	Reason     TerminationReason
}

// ParticipantError wraps a failed turn; it is terminal for the run.
type ParticipantError struct {
	Participant string
	Err         error
}

func (e *ParticipantError) Error() string {
	return fmt.Sprintf("participant %s: %v", e.Participant, e.Err)
}

func (e *ParticipantError) Unwrap() error { return e.Err }

// Team drives round-robin turn-taking over its participants until a
// termination condition is met or a turn fails.
type Team struct {
	cfg          Config
	participants []Participant
	logger       *slog.Logger
}

// New constructs a Team. At least one participant is required to run.
func New(logger *slog.Logger, cfg Config, participants ...Participant) *Team {
	if logger == nil {
		logger = slog.Default()
	}
	return &Team{
		cfg:          cfg.withDefaults(),
		participants: participants,
		logger:       logger,
	}
}

// Run executes the conversation starting from the initial message.
// Termination conditions are evaluated after every appended message, in
// order: message count, sentinel token, turn count; the first match wins.
// Any participant error or cancellation ends the run immediately.
func (t *Team) Run(ctx context.Context, initial Message) (Result, error) {
	if len(t.participants) == 0 {
		return Result{}, fmt.Errorf("no participants configured")
	}

	initial.TurnIndex = 0
	transcript := []Message{initial}
	turn := 0

	for {
		if reason, done := t.terminated(transcript, turn); done {
			t.logger.Debug("conversation terminated",
				slog.String("reason", string(reason)),
				slog.Int("messages", len(transcript)),
				slog.Int("turns", turn),
			)
			return Result{Transcript: transcript, Reason: reason}, nil
		}

		if err := ctx.Err(); err != nil {
			return Result{}, err
		}

		speaker := t.participants[turn%len(t.participants)]

		turnCtx := ctx
		cancel := context.CancelFunc(func() {})
		if t.cfg.TurnTimeout > 0 {
			turnCtx, cancel = context.WithTimeout(ctx, t.cfg.TurnTimeout)
		}
		msg, err := speaker.NextMessage(turnCtx, append([]Message(nil), transcript...))
		cancel()
		if err != nil {
			return Result{}, &ParticipantError{Participant: speaker.Name(), Err: err}
		}

		if msg.Speaker == "" {
			msg.Speaker = speaker.Name()
		}
		msg.TurnIndex = turn + 1
		transcript = append(transcript, msg)
		turn++
	}
}

func (t *Team) terminated(transcript []Message, turnsTaken int) (TerminationReason, bool) {
	if len(transcript) >= t.cfg.MaxMessages {
		return TerminationMaxMessages, true
	}
	if len(transcript) > 0 && strings.Contains(transcript[len(transcript)-1].Content, t.cfg.TerminationToken) {
		return TerminationTextMatch, true
	}
	if turnsTaken >= t.cfg.MaxTurns {
		return TerminationMaxTurns, true
	}
	return "", false
}
