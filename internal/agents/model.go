package agents

import (
	"context"
	"log/slog"

	"github.com/opsmesh/sre-agent/internal/team"
)

// ModelBackend produces the next utterance for a model-backed participant
// given the conversation so far.
type ModelBackend interface {
	Complete(ctx context.Context, transcript []team.Message) (string, error)
}

// ModelAgent is a participant whose turns are delegated to a ModelBackend.
// It lets a language model stand in for either rule-based agent without the
// driver caring which kind it is talking to.
type ModelAgent struct {
	name    string
	logger  *slog.Logger
	backend ModelBackend
	tools   []team.Tool
}

func NewModelAgent(logger *slog.Logger, name string, backend ModelBackend, tools ...team.Tool) *ModelAgent {
	if logger == nil {
		logger = slog.Default()
	}
	return &ModelAgent{name: name, logger: logger, backend: backend, tools: tools}
}

// Name implements team.Participant.
func (a *ModelAgent) Name() string { return a.name }

// Tools implements team.Participant.
func (a *ModelAgent) Tools() []team.Tool { return a.tools }

// NextMessage implements team.Participant.
func (a *ModelAgent) NextMessage(ctx context.Context, transcript []team.Message) (team.Message, error) {
	content, err := a.backend.Complete(ctx, transcript)
	if err != nil {
		return team.Message{}, err
	}
	return team.Message{Content: content}, nil
}
