package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/fatih/color"
	"github.com/heinsupport/hein-assist/internal"
	"github.com/spf13/cobra"
)

var chatPlain bool

const chatHelp = `  /new               start a new conversation
  /history           list past conversations
  /open <id>         continue a past conversation
  /delete <id>       delete a conversation
  /lang [code]       show or change the language (EN, FR, DE, NL)
  /status            probe the assistant endpoint now
  /admin <password>  sign in as administrator
  /manuals           list uploaded manuals
  /upload <file>     upload a PDF manual (admin)
  /quit              leave the chat`

var (
	promptColor    = color.New(color.FgCyan, color.Bold)
	assistantColor = color.New(color.FgMagenta, color.Bold)
	failureColor   = color.New(color.FgRed)
	noticeColor    = color.New(color.FgHiBlack)
)

// chatCmd represents the interactive chat command
var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Start an interactive chat with the assistant",
	Long: `Start an interactive troubleshooting chat.

Type a question and press enter. Lines starting with / are commands:
` + chatHelp,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithCancel(commandContext(cmd))
		defer cancel()

		app, cfg, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer closeApp(app)

		out := &syncWriter{w: cmd.OutOrStdout()}
		session := &chatSession{app: app, cfg: cfg, out: out}
		if !chatPlain {
			if session.renderer, err = newMarkdownRenderer(); err != nil {
				return err
			}
		}

		if monitor := app.Monitor(); monitor != nil {
			unsubscribe := monitor.Subscribe(func(status internal.ConnectionStatus) {
				fmt.Fprintf(out, "\n%s\n", internal.StatusBadge(status))
			})
			defer unsubscribe()
			monitor.Start(ctx)
		}

		session.banner()
		return session.run(ctx, cmd.InOrStdin())
	},
}

// syncWriter serializes writes from the REPL and the monitor callbacks
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

// chatSession is one REPL run
type chatSession struct {
	app      *internal.App
	cfg      *internal.Config
	out      io.Writer
	renderer *glamour.TermRenderer
}

var errQuit = errors.New("quit")

func (c *chatSession) banner() {
	fmt.Fprintln(c.out, headerStyle.Render("💬 HEIN Troubleshooting Assistant"))
	status := c.app.Connectivity()
	if c.app.Monitor() == nil {
		status = internal.StatusDisconnected
	}
	fmt.Fprintf(c.out, "%s  %s\n", internal.StatusBadge(status), dateStyle.Render("language "+string(c.app.State().Language)))
	if c.app.Monitor() == nil {
		internal.PrintWarning(c.out, "No endpoint configured; questions cannot be sent")
	}
	noticeColor.Fprintln(c.out, "Type a question, /help for commands, /quit to leave.")
	fmt.Fprintln(c.out)
}

// run reads one line at a time; the next prompt is shown only after the
// previous turn has finished
func (c *chatSession) run(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)

	for {
		promptColor.Fprint(c.out, "you> ")
		if !scanner.Scan() {
			fmt.Fprintln(c.out)
			return scanner.Err()
		}
		if ctx.Err() != nil {
			return nil
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var err error
		if strings.HasPrefix(line, "/") {
			err = c.command(ctx, line)
		} else {
			err = c.send(ctx, line)
		}
		if errors.Is(err, errQuit) {
			return nil
		}
		if err != nil {
			internal.PrintError(c.out, err.Error())
		}
	}
}

func (c *chatSession) send(ctx context.Context, text string) error {
	var outcome internal.Outcome
	err := internal.ShowProgress(ctx, "HEIN is typing...", func() error {
		var sendErr error
		outcome, sendErr = c.app.Send(ctx, text)
		return sendErr
	})
	if err != nil {
		return err
	}

	if outcome.Created {
		noticeColor.Fprintf(c.out, "New conversation %s\n", outcome.Session.ID)
	}
	assistantColor.Fprint(c.out, "HEIN> ")
	switch {
	case outcome.Failed:
		failureColor.Fprintln(c.out, outcome.Reply.Content)
	case c.renderer != nil:
		rendered, err := c.renderer.Render(outcome.Reply.Content)
		if err != nil {
			fmt.Fprintln(c.out, outcome.Reply.Content)
			break
		}
		fmt.Fprint(c.out, "\n"+rendered)
	default:
		fmt.Fprintln(c.out, outcome.Reply.Content)
	}
	if outcome.StoreErr != nil {
		internal.PrintWarning(c.out, "This conversation could not be saved and will be lost on exit")
	}
	return nil
}

func (c *chatSession) command(ctx context.Context, line string) error {
	fields := strings.Fields(line)
	name, args := fields[0], fields[1:]

	switch name {
	case "/quit", "/exit", "/q":
		return errQuit

	case "/help", "/?":
		fmt.Fprintln(c.out, chatHelp)
		return nil

	case "/new":
		c.app.StartNewChat()
		internal.PrintInfo(c.out, "Started a new conversation")
		return nil

	case "/history":
		displaySessions(c.out, internal.Summarize(c.app.Sessions().Sessions()), time.Now())
		return nil

	case "/open":
		if len(args) != 1 {
			return errors.New("usage: /open <session-id>")
		}
		session, err := resolveSession(c.app, args[0])
		if err != nil {
			return err
		}
		if err := c.app.SelectSession(session.ID); err != nil {
			return err
		}
		internal.PrintInfo(c.out, fmt.Sprintf("Continuing %q", session.Title))
		start := 0
		if len(session.Messages) > 4 {
			start = len(session.Messages) - 4
		}
		for i := start; i < len(session.Messages); i++ {
			displayMessage(c.out, i+1, session.Messages[i], len(session.Messages), c.renderer)
		}
		return nil

	case "/delete":
		if len(args) != 1 {
			return errors.New("usage: /delete <session-id>")
		}
		session, err := resolveSession(c.app, args[0])
		if err != nil {
			return err
		}
		if _, err := c.app.DeleteSession(ctx, session.ID); err != nil {
			internal.PrintWarning(c.out, fmt.Sprintf("Deleted, but not saved: %v", err))
			return nil
		}
		internal.PrintSuccess(c.out, fmt.Sprintf("Deleted %q", session.Title))
		return nil

	case "/lang":
		if len(args) == 0 {
			fmt.Fprintln(c.out, c.app.State().Language)
			return nil
		}
		lang, err := internal.ParseLanguage(args[0])
		if err != nil {
			return err
		}
		if err := c.app.SetLanguage(ctx, lang); err != nil {
			internal.PrintWarning(c.out, fmt.Sprintf("Language changed for this run only: %v", err))
			return nil
		}
		internal.PrintSuccess(c.out, fmt.Sprintf("Language set to %s", lang))
		return nil

	case "/status":
		monitor := c.app.Monitor()
		if monitor == nil {
			return internal.ErrNoEndpoint
		}
		fmt.Fprintln(c.out, internal.StatusBadge(monitor.CheckNow(ctx)))
		return nil

	case "/admin":
		if len(args) == 0 || len(args) > 2 {
			return errors.New("usage: /admin <password> [user]")
		}
		user := c.cfg.Admin.Username
		if len(args) == 2 {
			user = args[1]
		}
		if err := c.app.AuthorizeAdmin(user, args[0]); err != nil {
			return fmt.Errorf("admin sign-in failed: %w", err)
		}
		internal.PrintSuccess(c.out, "Signed in as administrator")
		return nil

	case "/manuals":
		displayManuals(c.out, c.app.Documents().List())
		return nil

	case "/upload":
		// file names may contain spaces
		path := strings.TrimSpace(strings.TrimPrefix(line, name))
		if path == "" {
			return errors.New("usage: /upload <file.pdf>")
		}
		if !c.app.AdminAuthorized() {
			return internal.ErrAdminRequired
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read manual: %w", err)
		}
		doc, err := c.app.UploadDocument(ctx, internal.Upload{FileName: path, Data: data})
		if err != nil && doc.ID == "" {
			return err
		}
		if err != nil {
			internal.PrintWarning(c.out, fmt.Sprintf("Manual added but not saved: %v", err))
		}
		internal.PrintSuccess(c.out, fmt.Sprintf("Uploaded %q", doc.Name))
		return nil

	default:
		return fmt.Errorf("unknown command %s (try /help)", name)
	}
}

func init() {
	rootCmd.AddCommand(chatCmd)
	chatCmd.Flags().BoolVar(&chatPlain, "plain", false, "Print replies as plain text instead of rendered Markdown")
}
