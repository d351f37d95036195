package cmd

import (
	"errors"
	"strings"
	"testing"

	"github.com/heinsupport/hein-assist/internal"
)

func TestDeleteCommand(t *testing.T) {
	env := newCmdEnv(t)
	env.seedSessions(t, 3)

	stdout, _, err := env.run(t, "", "delete", "session-2")
	if err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if !strings.Contains(stdout, `Deleted conversation "Question 2"`) {
		t.Errorf("unexpected output:\n%s", stdout)
	}

	stdout, _, err = env.run(t, "", "list")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if strings.Contains(stdout, "Question 2") {
		t.Errorf("deleted conversation still listed:\n%s", stdout)
	}
	if !strings.Contains(stdout, "Found 2 conversation(s)") {
		t.Errorf("expected two remaining conversations:\n%s", stdout)
	}
}

func TestDeleteCommand_UnknownSession(t *testing.T) {
	env := newCmdEnv(t)
	env.seedSessions(t, 1)

	_, _, err := env.run(t, "", "delete", "missing")
	if !errors.Is(err, internal.ErrSessionNotFound) {
		t.Errorf("error = %v, want ErrSessionNotFound", err)
	}
}
