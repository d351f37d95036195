package cmd

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/heinsupport/hein-assist/internal"
)

func TestShowCommand(t *testing.T) {
	env := newCmdEnv(t)
	env.seedSessions(t, 3)

	tests := []struct {
		name     string
		args     []string
		wantErr  error
		contains []string
		excludes []string
	}{
		{
			name:     "full id",
			args:     []string{"show", "session-2"},
			contains: []string{"Question 2", "Answer 2", "[1/2]", "[2/2]"},
		},
		{
			name:     "limit",
			args:     []string{"show", "session-2", "--limit", "1"},
			contains: []string{"Question 2", "1 more message(s)"},
			excludes: []string{"Answer 2"},
		},
		{
			name:     "since",
			args:     []string{"show", "session-1", "--since", fixtureStart.Add(time.Second).Format(time.RFC3339)},
			contains: []string{"Answer 1", "[1/1]"},
		},
		{
			name:     "render markdown",
			args:     []string{"show", "session-3", "--render"},
			contains: []string{"Answer 3"},
		},
		{
			name:    "unknown session",
			args:    []string{"show", "nope"},
			wantErr: internal.ErrSessionNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stdout, _, err := env.run(t, "", tt.args...)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("show failed: %v", err)
			}
			for _, want := range tt.contains {
				if !strings.Contains(stdout, want) {
					t.Errorf("output missing %q:\n%s", want, stdout)
				}
			}
			for _, unwanted := range tt.excludes {
				if strings.Contains(stdout, unwanted) {
					t.Errorf("output should not contain %q:\n%s", unwanted, stdout)
				}
			}
		})
	}
}

func TestShowCommand_AmbiguousPrefix(t *testing.T) {
	env := newCmdEnv(t)
	env.seedSessions(t, 2)

	_, _, err := env.run(t, "", "show", "session-")
	if err == nil || !strings.Contains(err.Error(), "ambiguous") {
		t.Errorf("expected an ambiguity error, got %v", err)
	}
}

func TestShowCommand_RequiresID(t *testing.T) {
	newCmdEnv(t)
	if _, _, err := executeCommand(t, "", "show"); err == nil {
		t.Error("show without a session ID should fail")
	}
}

func TestDisplayMessage(t *testing.T) {
	tests := []struct {
		name string
		msg  internal.Message
		want []string
	}{
		{
			name: "user message",
			msg:  internal.Message{Role: internal.RoleUser, Content: "Oven E3 error code", Timestamp: fixtureStart},
			want: []string{"You", "[1/2]", "Oven E3 error code"},
		},
		{
			name: "assistant message",
			msg:  internal.Message{Role: internal.RoleAssistant, Content: "Check the door sensor."},
			want: []string{"HEIN", "Check the door sensor."},
		},
		{
			name: "empty content",
			msg:  internal.Message{Role: internal.RoleAssistant},
			want: []string{"(empty message)"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			displayMessage(&buf, 1, tt.msg, 2, nil)
			for _, want := range tt.want {
				if !strings.Contains(buf.String(), want) {
					t.Errorf("output missing %q:\n%s", want, buf.String())
				}
			}
		})
	}
}

func TestWrapText(t *testing.T) {
	long := strings.Repeat("word ", 30)
	for _, line := range strings.Split(wrapText(long, 20), "\n") {
		if len(line) > 20 {
			t.Errorf("line exceeds width: %q", line)
		}
	}
	if got := wrapText("short\nlines", 20); got != "short\nlines" {
		t.Errorf("wrapText changed short text: %q", got)
	}
}
