package rewrite

import (
	"context"
	"errors"
	"iter"
	"strings"
	"testing"
)

func chunks(parts ...string) source {
	return func(ctx context.Context, prompt string) iter.Seq2[string, error] {
		return func(yield func(string, error) bool) {
			for _, p := range parts {
				if !yield(p, nil) {
					return
				}
			}
		}
	}
}

func TestParseAction(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    Action
		wantErr bool
	}{
		{in: "grammar", want: ActionGrammar},
		{in: "Friendly", want: ActionFriendly},
		{in: " formal ", want: ActionFormal},
		{in: "shout", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseAction(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidAction) {
					t.Errorf("got %v, want ErrInvalidAction", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPrompt(t *testing.T) {
	t.Parallel()

	for _, action := range []Action{ActionGrammar, ActionFriendly, ActionFormal} {
		prompt, err := Prompt(action, "Hi {ClientName}")
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", action, err)
		}
		if !strings.HasSuffix(prompt, "\nEmail:\n---\nHi {ClientName}") {
			t.Errorf("%s: prompt does not end with the email: %q", action, prompt)
		}
		if !strings.Contains(prompt, "placeholders") {
			t.Errorf("%s: prompt does not mention placeholders", action)
		}
	}
}

func TestRunDeliversChunksInOrder(t *testing.T) {
	t.Parallel()

	var got []string
	err := run(context.Background(), chunks("Dear ", "", "{Name}", ",\n"), ActionFormal, "hey {Name}", func(c string) error {
		got = append(got, c)
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := []string{"Dear ", "{Name}", ",\n"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestRunConsumerStops(t *testing.T) {
	t.Parallel()

	errClosed := errors.New("client went away")
	calls := 0
	err := run(context.Background(), chunks("a", "b", "c"), ActionGrammar, "text", func(string) error {
		calls++
		return errClosed
	})
	if !errors.Is(err, errClosed) {
		t.Errorf("got %v, want %v", err, errClosed)
	}
	if errors.Is(err, ErrUnavailable) {
		t.Error("consumer error must not be reported as ErrUnavailable")
	}
	if calls != 1 {
		t.Errorf("calls: got %d, want 1", calls)
	}
}

func TestRunUpstreamFailure(t *testing.T) {
	t.Parallel()

	failing := func(ctx context.Context, prompt string) iter.Seq2[string, error] {
		return func(yield func(string, error) bool) {
			if !yield("partial", nil) {
				return
			}
			yield("", errors.New("503 overloaded"))
		}
	}

	var got string
	err := run(context.Background(), failing, ActionFriendly, "text", func(c string) error {
		got += c
		return nil
	})
	if !errors.Is(err, ErrUnavailable) {
		t.Errorf("got %v, want ErrUnavailable", err)
	}
	if got != "partial" {
		t.Errorf("got %q, want %q", got, "partial")
	}
}

func TestRunCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := run(ctx, chunks(), ActionGrammar, "text", func(string) error { return nil })
	if !errors.Is(err, context.Canceled) {
		t.Errorf("got %v, want context.Canceled", err)
	}
}

func TestRunValidation(t *testing.T) {
	t.Parallel()

	noop := func(string) error { return nil }
	if err := run(context.Background(), chunks("x"), "shout", "text", noop); !errors.Is(err, ErrInvalidAction) {
		t.Errorf("invalid action: got %v, want ErrInvalidAction", err)
	}
	if err := run(context.Background(), chunks("x"), ActionGrammar, "  \n", noop); !errors.Is(err, ErrEmptyText) {
		t.Errorf("empty text: got %v, want ErrEmptyText", err)
	}
}

type fakeRewriter struct {
	parts []string
}

func (f *fakeRewriter) Stream(ctx context.Context, action Action, text string, fn ChunkFunc) error {
	return run(ctx, chunks(f.parts...), action, text, fn)
}

func TestTransform(t *testing.T) {
	t.Parallel()

	got, err := Transform(context.Background(), &fakeRewriter{parts: []string{"Hello ", "{Name}", "."}}, ActionGrammar, "helo {Name}")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "Hello {Name}." {
		t.Errorf("got %q, want %q", got, "Hello {Name}.")
	}
}

func TestNewBackendsRequireKey(t *testing.T) {
	t.Parallel()

	if _, err := NewGemini(context.Background(), ""); !errors.Is(err, ErrInvalidAPIKey) {
		t.Errorf("Gemini: got %v, want ErrInvalidAPIKey", err)
	}
	if _, err := NewOpenAI(""); !errors.Is(err, ErrInvalidAPIKey) {
		t.Errorf("OpenAI: got %v, want ErrInvalidAPIKey", err)
	}
}

func TestNewOpenAIModel(t *testing.T) {
	t.Parallel()

	o, err := NewOpenAI("sk-test", WithOpenAIModel("gpt-4.1"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if o.model != "gpt-4.1" {
		t.Errorf("model: got %q, want %q", o.model, "gpt-4.1")
	}

	o, err = NewOpenAI("sk-test", WithOpenAIModel(""))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if o.model != DefaultOpenAIModel {
		t.Errorf("model: got %q, want %q", o.model, DefaultOpenAIModel)
	}
}
