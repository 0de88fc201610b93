package agent

import (
	"context"
	"io"
	"strings"
	"testing"

	"ingestbot/internal/domain"
)

func TestCheckpointer_LoadUnknownThreadIsEmpty(t *testing.T) {
	c := NewCheckpointer()
	if msgs := c.Load("nope"); len(msgs) != 0 {
		t.Fatalf("expected empty history, got %d messages", len(msgs))
	}
}

func TestCheckpointer_SaveAndLoadRoundTrip(t *testing.T) {
	c := NewCheckpointer()
	c.Save("t-1", []domain.Message{
		{Role: domain.RoleUser, Content: "hi"},
		{Role: domain.RoleAssistant, Content: "hello"},
	})

	msgs := c.Load("t-1")
	if len(msgs) != 2 || msgs[1].Content != "hello" {
		t.Fatalf("round trip failed: %+v", msgs)
	}
	if c.Len("t-2") != 0 {
		t.Fatal("threads must be isolated")
	}
}

func TestCheckpointer_LoadReturnsCopy(t *testing.T) {
	c := NewCheckpointer()
	c.Save("t-1", []domain.Message{{Role: domain.RoleUser, Content: "original"}})

	msgs := c.Load("t-1")
	msgs[0].Content = "mutated"

	if c.Load("t-1")[0].Content != "original" {
		t.Fatal("Load must return a copy of the stored history")
	}
}

func TestCheckpointer_ShorterSaveRejected(t *testing.T) {
	c := NewCheckpointer()
	c.Save("t-1", []domain.Message{
		{Role: domain.RoleUser, Content: "one"},
		{Role: domain.RoleAssistant, Content: "two"},
	})
	c.Save("t-1", []domain.Message{{Role: domain.RoleUser, Content: "one"}})

	if c.Len("t-1") != 2 {
		t.Fatalf("history must never shrink, got %d messages", c.Len("t-1"))
	}
}

func TestIsQuitSentinel(t *testing.T) {
	for _, line := range []string{"quit", "exit", "q", "QUIT", " Exit ", "Q"} {
		if !IsQuitSentinel(line) {
			t.Fatalf("%q should be a quit sentinel", line)
		}
	}
	for _, line := range []string{"quite", "quit please", "", "qq"} {
		if IsQuitSentinel(line) {
			t.Fatalf("%q should not be a quit sentinel", line)
		}
	}
}

func TestScriptedInput_ReplayThenEOF(t *testing.T) {
	in := NewScriptedInput("first", "second")
	ctx := context.Background()

	for _, want := range []string{"first", "second"} {
		got, err := in.ReadInput(ctx)
		if err != nil || got != want {
			t.Fatalf("expected %q, got %q (err %v)", want, got, err)
		}
	}
	if _, err := in.ReadInput(ctx); err != io.EOF {
		t.Fatalf("expected io.EOF after exhaustion, got %v", err)
	}
}

func TestReaderInput_ReadsLinesAndSignalsEOF(t *testing.T) {
	in := NewReaderInput(strings.NewReader("hello\nworld\n"), io.Discard, "> ")
	ctx := context.Background()

	for _, want := range []string{"hello", "world"} {
		got, err := in.ReadInput(ctx)
		if err != nil || got != want {
			t.Fatalf("expected %q, got %q (err %v)", want, got, err)
		}
	}
	if _, err := in.ReadInput(ctx); err != io.EOF {
		t.Fatalf("expected io.EOF at end of input, got %v", err)
	}
}
