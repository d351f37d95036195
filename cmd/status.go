package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/heinsupport/hein-assist/internal"
	"github.com/spf13/cobra"
)

var (
	statusDetails bool
	statusWatch   bool
	statusFor     time.Duration
)

var (
	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39"))

	sectionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("62")).
			Bold(true).
			Underline(true)
)

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check configuration, storage and the assistant endpoint",
	Long: `Check the health of hein-assist by verifying:
  • Configuration loading
  • Durable storage access
  • Conversation and manual counts
  • Reachability of the assistant endpoint

Use --watch to keep probing and print every change in connectivity.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		ctx := commandContext(cmd)

		fmt.Fprintln(out, sectionStyle.Render("🔍 HEIN Assistant Status"))
		fmt.Fprintln(out)

		// Step 1: Load configuration and storage
		fmt.Fprintln(out, infoStyle.Render("Step 1: Loading configuration and storage..."))
		app, cfg, err := openApp(ctx)
		if err != nil {
			fmt.Fprintln(out, errorStyle.Render("❌ Failed to open storage:"), err)
			return err
		}
		defer closeApp(app)
		fmt.Fprintln(out, successStyle.Render("✅ Storage opened"))
		if statusDetails {
			fmt.Fprintf(out, "   Driver: %s\n", cfg.Storage.Driver)
			if cfg.Storage.Path != "" {
				fmt.Fprintf(out, "   Location: %s\n", cfg.Storage.Path)
			}
			fmt.Fprintf(out, "   Language: %s\n", app.State().Language)
		}
		fmt.Fprintln(out)

		// Step 2: Saved data
		fmt.Fprintln(out, infoStyle.Render("Step 2: Loading saved data..."))
		sessions := app.Sessions().Sessions()
		docs := app.Documents().List()
		fmt.Fprintln(out, successStyle.Render(fmt.Sprintf("✅ %d conversation(s), %d manual(s)", len(sessions), len(docs))))
		fmt.Fprintln(out)

		// Step 3: Assistant endpoint
		fmt.Fprintln(out, infoStyle.Render("Step 3: Probing the assistant endpoint..."))
		monitor := app.Monitor()
		if monitor == nil {
			fmt.Fprintln(out, warningStyle.Render("⚠️  No endpoint configured"))
			fmt.Fprintln(out, "   Set endpoint in config.yaml, HEIN_ENDPOINT or --endpoint")
			return internal.ErrNoEndpoint
		}
		if statusDetails {
			fmt.Fprintf(out, "   Endpoint: %s\n", cfg.Endpoint)
			fmt.Fprintf(out, "   Probe: %s every %s (timeout %s)\n", cfg.Connectivity.Method, cfg.Connectivity.Interval, cfg.Connectivity.Timeout)
		}

		if statusWatch {
			return watchConnectivity(ctx, out, monitor)
		}

		status := monitor.CheckNow(ctx)
		fmt.Fprintln(out, internal.StatusBadge(status))
		fmt.Fprintln(out)

		if status != internal.StatusConnected {
			fmt.Fprintln(out, errorStyle.Render("❌ Assistant unreachable"))
			return fmt.Errorf("assistant endpoint %s is unreachable", cfg.Endpoint)
		}
		fmt.Fprintln(out, successStyle.Render("✅ Status check passed!"))
		return nil
	},
}

// watchConnectivity starts the monitor and prints each status change until
// interrupted or --for elapses
func watchConnectivity(ctx context.Context, out io.Writer, monitor *internal.ConnectivityMonitor) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()
	if statusFor > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, statusFor)
		defer cancel()
	}

	changes := make(chan struct{}, 1)
	unsubscribe := monitor.Subscribe(func(internal.ConnectionStatus) {
		select {
		case changes <- struct{}{}:
		default:
		}
	})
	defer unsubscribe()

	last := monitor.Status()
	fmt.Fprintf(out, "%s %s\n", timestampStyle.Render(time.Now().Format("15:04:05")), internal.StatusBadge(last))

	monitor.Start(ctx)
	defer monitor.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-changes:
			// listeners may fire out of order; print the committed state
			current := monitor.Status()
			if current == last {
				continue
			}
			last = current
			fmt.Fprintf(out, "%s %s\n", timestampStyle.Render(time.Now().Format("15:04:05")), internal.StatusBadge(current))
		}
	}
}

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().BoolVarP(&statusDetails, "details", "d", false, "Show detailed diagnostic information")
	statusCmd.Flags().BoolVarP(&statusWatch, "watch", "w", false, "Keep probing and print connectivity changes")
	statusCmd.Flags().DurationVar(&statusFor, "for", 0, "Stop watching after this long (default: until interrupted)")
}
