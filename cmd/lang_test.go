package cmd

import (
	"errors"
	"strings"
	"testing"

	"github.com/heinsupport/hein-assist/internal"
	"github.com/heinsupport/hein-assist/testutil"
)

func TestLangCommand(t *testing.T) {
	env := newCmdEnv(t)

	stdout, _, err := env.run(t, "", "lang")
	if err != nil {
		t.Fatalf("lang failed: %v", err)
	}
	if !strings.HasPrefix(stdout, "EN") {
		t.Errorf("default language = %q", stdout)
	}

	if _, _, err := env.run(t, "", "lang", "de"); err != nil {
		t.Fatalf("lang de failed: %v", err)
	}

	// the saved preference wins over --lang
	stdout, _, err = env.run(t, "", "lang", "--lang", "FR")
	if err != nil {
		t.Fatalf("lang failed: %v", err)
	}
	if !strings.HasPrefix(stdout, "DE") {
		t.Errorf("saved language = %q", stdout)
	}
}

func TestLangCommand_Unsupported(t *testing.T) {
	env := newCmdEnv(t)

	_, _, err := env.run(t, "", "lang", "es")
	if !errors.Is(err, internal.ErrUnsupportedLanguage) {
		t.Errorf("error = %v, want ErrUnsupportedLanguage", err)
	}
}

func TestLangCommand_ForwardedToAssistant(t *testing.T) {
	env := newCmdEnv(t)
	srv := testutil.NewWorkflowServer(t)

	if _, _, err := env.run(t, "", "lang", "NL"); err != nil {
		t.Fatalf("lang failed: %v", err)
	}
	if _, _, err := env.run(t, "", "send", "--endpoint", srv.URL, "hallo"); err != nil {
		t.Fatalf("send failed: %v", err)
	}

	reqs := srv.Requests()
	if len(reqs) != 1 || reqs[0].Language != "NL" {
		t.Errorf("requests = %+v", reqs)
	}
}
