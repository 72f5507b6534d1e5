package team

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

type scriptedParticipant struct {
	name     string
	messages []string
	calls    int
	err      error
}

func (p *scriptedParticipant) Name() string { return p.name }

func (p *scriptedParticipant) NextMessage(ctx context.Context, transcript []Message) (Message, error) {
	if p.err != nil {
		return Message{}, p.err
	}
	content := "nothing further"
	if p.calls < len(p.messages) {
		content = p.messages[p.calls]
	}
	p.calls++
	return Message{Content: content}, nil
}

func (p *scriptedParticipant) Tools() []Tool { return nil }

func TestRunTerminatesOnSentinel(t *testing.T) {
	p := &scriptedParticipant{
		name:     "agent",
		messages: []string{"looking into it", "analysis complete, TERMINATE", "should never be spoken"},
	}
	tm := New(nil, Config{}, p)

	result, err := tm.Run(context.Background(), Message{Speaker: "incident", Content: "pod down"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Reason != TerminationTextMatch {
		t.Fatalf("expected text_match, got %s", result.Reason)
	}
	if len(result.Transcript) != 3 {
		t.Fatalf("no messages may follow the sentinel, got %d", len(result.Transcript))
	}
	last := result.Transcript[len(result.Transcript)-1]
	if last.Content != "analysis complete, TERMINATE" {
		t.Fatalf("unexpected final message: %q", last.Content)
	}
}

func TestRunTerminatesOnMaxMessages(t *testing.T) {
	p := &scriptedParticipant{name: "agent"}
	tm := New(nil, Config{MaxMessages: 5, MaxTurns: 100}, p)

	result, err := tm.Run(context.Background(), Message{Speaker: "incident", Content: "pod down"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Reason != TerminationMaxMessages {
		t.Fatalf("expected max_messages, got %s", result.Reason)
	}
	if len(result.Transcript) != 5 {
		t.Fatalf("expected exactly 5 messages, got %d", len(result.Transcript))
	}
}

func TestRunTerminatesOnMaxTurns(t *testing.T) {
	p := &scriptedParticipant{name: "agent"}
	tm := New(nil, Config{MaxTurns: 3}, p)

	result, err := tm.Run(context.Background(), Message{Speaker: "incident", Content: "pod down"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Reason != TerminationMaxTurns {
		t.Fatalf("expected max_turns, got %s", result.Reason)
	}
	// Initial message plus one message per turn.
	if len(result.Transcript) != 4 {
		t.Fatalf("expected 4 messages, got %d", len(result.Transcript))
	}
}

func TestRunRoundRobinAndTurnIndexes(t *testing.T) {
	a := &scriptedParticipant{name: "analysis"}
	b := &scriptedParticipant{name: "recommendation"}
	tm := New(nil, Config{MaxTurns: 4}, a, b)

	result, err := tm.Run(context.Background(), Message{Speaker: "incident", Content: "pod down"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantSpeakers := []string{"incident", "analysis", "recommendation", "analysis", "recommendation"}
	if len(result.Transcript) != len(wantSpeakers) {
		t.Fatalf("expected %d messages, got %d", len(wantSpeakers), len(result.Transcript))
	}
	for i, msg := range result.Transcript {
		if msg.Speaker != wantSpeakers[i] {
			t.Fatalf("message %d spoken by %s, want %s", i, msg.Speaker, wantSpeakers[i])
		}
		if msg.TurnIndex != i {
			t.Fatalf("message %d has turn index %d", i, msg.TurnIndex)
		}
	}
}

func TestRunParticipantFailure(t *testing.T) {
	boom := fmt.Errorf("backend unavailable")
	p := &scriptedParticipant{name: "agent", err: boom}
	tm := New(nil, Config{}, p)

	_, err := tm.Run(context.Background(), Message{Speaker: "incident", Content: "pod down"})
	if err == nil {
		t.Fatal("expected a participant error")
	}
	var perr *ParticipantError
	if !errors.As(err, &perr) || perr.Participant != "agent" {
		t.Fatalf("expected ParticipantError for agent, got %v", err)
	}
	if !errors.Is(err, boom) {
		t.Fatalf("expected wrapped cause, got %v", err)
	}
}

func TestRunCancellation(t *testing.T) {
	p := &scriptedParticipant{name: "agent"}
	tm := New(nil, Config{}, p)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := tm.Run(ctx, Message{Speaker: "incident", Content: "pod down"})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation error, got %v", err)
	}
}

func TestRunSentinelInInitialMessage(t *testing.T) {
	p := &scriptedParticipant{name: "agent"}
	tm := New(nil, Config{}, p)

	result, err := tm.Run(context.Background(), Message{Speaker: "incident", Content: "nothing to do, TERMINATE"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Reason != TerminationTextMatch || len(result.Transcript) != 1 {
		t.Fatalf("expected immediate termination, got %+v", result)
	}
	if p.calls != 0 {
		t.Fatalf("no participant should have spoken, got %d calls", p.calls)
	}
}
