package cmd

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/heinsupport/hein-assist/testutil"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

var heinEnvKeys = []string{
	"HEIN_ENDPOINT", "HEIN_LANGUAGE", "HEIN_LOG_LEVEL",
	"HEIN_STORAGE_DRIVER", "HEIN_STORAGE_PATH", "HEIN_REDIS_URL",
	"HEIN_PROBE_METHOD", "HEIN_PROBE_INTERVAL", "HEIN_PROBE_TIMEOUT", "HEIN_DISPATCH_TIMEOUT",
	"HEIN_ADMIN_USER", "HEIN_ADMIN_PASSWORD_HASH", "HEIN_ADMIN_PASSWORD",
}

// cmdEnv isolates a command test: home, config and data directories live
// under a temp dir and every run uses the same sqlite store
type cmdEnv struct {
	home   string
	dbPath string
}

func newCmdEnv(t *testing.T) *cmdEnv {
	t.Helper()
	home := testutil.CreateTempDir(t)
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, "config"))
	t.Setenv("XDG_DATA_HOME", filepath.Join(home, "data"))
	t.Setenv("APPDATA", filepath.Join(home, "config"))
	t.Setenv("LOCALAPPDATA", filepath.Join(home, "data"))
	for _, key := range heinEnvKeys {
		// Setenv registers the restore; the variable must be unset, not empty
		t.Setenv(key, "")
		_ = os.Unsetenv(key)
	}
	return &cmdEnv{
		home:   home,
		dbPath: filepath.Join(home, "data", "hein.db"),
	}
}

// run executes rootCmd with args against the test store
func (e *cmdEnv) run(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	return executeCommand(t, stdin, append(args, "--storage", e.dbPath)...)
}

func executeCommand(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	resetFlags(rootCmd)

	var stdout, stderr bytes.Buffer
	rootCmd.SetArgs(args)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetOut(&stdout)
	rootCmd.SetErr(&stderr)

	err := rootCmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

// resetFlags restores every flag of cmd and its children to its default;
// cobra keeps parsed values between Execute calls
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, child := range cmd.Commands() {
		resetFlags(child)
	}
}

// sessionFromStderr extracts the id printed by send
func sessionFromStderr(t *testing.T, stderr string) string {
	t.Helper()
	for _, line := range strings.Split(stderr, "\n") {
		if id, ok := strings.CutPrefix(line, "session "); ok {
			return strings.TrimSpace(id)
		}
	}
	t.Fatalf("no session id in stderr: %q", stderr)
	return ""
}

func writeTestFile(t *testing.T, path, content string) {
	t.Helper()
	testutil.WriteFile(t, filepath.Dir(path), filepath.Base(path), []byte(content))
}
