package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/heinsupport/hein-assist/internal"
	"github.com/spf13/cobra"
)

var (
	adminUser       string
	adminPassword   string
	uploadType      string
	manualOutput    string
	manualOverwrite bool
)

// manualsCmd groups the reference manual commands
var manualsCmd = &cobra.Command{
	Use:     "manuals",
	Aliases: []string{"manual", "docs"},
	Short:   "Manage the reference manuals",
	Long: `List, upload, delete and retrieve the PDF manuals the assistant works from.

Uploading and deleting require administrator credentials, given with
--admin-user/--admin-password or the HEIN_ADMIN_PASSWORD environment variable.`,
}

var manualsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List uploaded manuals",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		app, _, err := openApp(commandContext(cmd))
		if err != nil {
			return err
		}
		defer closeApp(app)

		displayManuals(cmd.OutOrStdout(), app.Documents().List())
		return nil
	},
}

var manualsUploadCmd = &cobra.Command{
	Use:   "upload <file.pdf>",
	Short: "Upload a PDF manual (admin)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := commandContext(cmd)
		app, cfg, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer closeApp(app)

		if err := authorizeAdmin(app, cfg); err != nil {
			return err
		}

		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to read manual: %w", err)
		}

		doc, err := app.UploadDocument(ctx, internal.Upload{
			FileName:    args[0],
			ContentType: uploadType,
			Data:        data,
		})
		if err != nil && doc.ID == "" {
			return err
		}
		if err != nil {
			internal.PrintWarning(cmd.ErrOrStderr(), fmt.Sprintf("Manual added but not saved: %v", err))
		}
		internal.PrintSuccess(cmd.OutOrStdout(), fmt.Sprintf("Uploaded %q (%s, %s)", doc.Name, doc.ID, internal.FormatSize(len(data))))
		return err
	},
}

var manualsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a manual (admin)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := commandContext(cmd)
		app, cfg, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer closeApp(app)

		if err := authorizeAdmin(app, cfg); err != nil {
			return err
		}

		doc, err := resolveManual(app, args[0])
		if err != nil {
			return err
		}
		if err := app.DeleteDocument(ctx, doc.ID); err != nil {
			return fmt.Errorf("failed to delete manual: %w", err)
		}
		internal.PrintSuccess(cmd.OutOrStdout(), fmt.Sprintf("Deleted manual %q", doc.Name))
		return nil
	},
}

var manualsSaveCmd = &cobra.Command{
	Use:   "save <id>",
	Short: "Save a manual to a local file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app, _, err := openApp(commandContext(cmd))
		if err != nil {
			return err
		}
		defer closeApp(app)

		doc, err := resolveManual(app, args[0])
		if err != nil {
			return err
		}
		_, data, err := internal.DecodeDataURL(doc.Payload)
		if err != nil {
			return fmt.Errorf("stored manual %s is unreadable: %w", doc.ID, err)
		}

		path := manualOutput
		if path == "" {
			path = doc.Name + ".pdf"
		}
		if !manualOverwrite {
			if _, err := os.Stat(path); err == nil {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
		}
		if dir := filepath.Dir(path); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}
		if err := os.WriteFile(path, data, 0644); err != nil {
			return fmt.Errorf("failed to write manual: %w", err)
		}
		internal.PrintSuccess(cmd.OutOrStdout(), fmt.Sprintf("Saved %q to %s", doc.Name, path))
		return nil
	},
}

// authorizeAdmin unlocks manual management for this process
func authorizeAdmin(app *internal.App, cfg *internal.Config) error {
	user := adminUser
	if user == "" {
		user = cfg.Admin.Username
	}
	password := adminPassword
	if password == "" {
		password = os.Getenv("HEIN_ADMIN_PASSWORD")
	}
	if password == "" {
		return errors.New("administrator password required (--admin-password or HEIN_ADMIN_PASSWORD)")
	}
	if err := app.AuthorizeAdmin(user, password); err != nil {
		return fmt.Errorf("admin sign-in failed: %w", err)
	}
	return nil
}

// resolveManual finds a manual by id, id prefix or exact name
func resolveManual(app *internal.App, ref string) (internal.Document, error) {
	if doc, ok := app.Documents().Get(ref); ok {
		return doc, nil
	}
	var matches []internal.Document
	for _, doc := range app.Documents().List() {
		if strings.HasPrefix(doc.ID, ref) || doc.Name == ref {
			matches = append(matches, doc)
		}
	}
	switch len(matches) {
	case 0:
		return internal.Document{}, fmt.Errorf("manual not found: %s (use 'hein-assist manuals list')", ref)
	case 1:
		return matches[0], nil
	default:
		return internal.Document{}, fmt.Errorf("manual %q is ambiguous", ref)
	}
}

func displayManuals(out io.Writer, docs []internal.Document) {
	if len(docs) == 0 {
		fmt.Fprintln(out, headerStyle.Render("📚 No manuals uploaded"))
		return
	}

	fmt.Fprintln(out, headerStyle.Render(fmt.Sprintf("📚 %d manual(s)", len(docs))))
	fmt.Fprintln(out)

	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	_, _ = fmt.Fprintln(w, titleStyle.Render("ID")+"\t"+titleStyle.Render("Name")+"\t"+titleStyle.Render("Uploaded")+"\t"+titleStyle.Render("Size")+"\t")
	_, _ = fmt.Fprintln(w, strings.Repeat("─", 80))
	for _, doc := range docs {
		size := "?"
		if _, data, err := internal.DecodeDataURL(doc.Payload); err == nil {
			size = internal.FormatSize(len(data))
		}
		shortID := doc.ID
		if len(shortID) > 8 {
			shortID = shortID[:8]
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t\n",
			idStyle.Render(shortID),
			doc.Name,
			dateStyle.Render(doc.UploadDate),
			countStyle.Render(size),
		)
	}
	_ = w.Flush()
}

func init() {
	rootCmd.AddCommand(manualsCmd)
	manualsCmd.AddCommand(manualsListCmd, manualsUploadCmd, manualsDeleteCmd, manualsSaveCmd)

	manualsCmd.PersistentFlags().StringVar(&adminUser, "admin-user", "", "Administrator user name (default: admin.username, hein_admin)")
	manualsCmd.PersistentFlags().StringVar(&adminPassword, "admin-password", "", "Administrator password")
	manualsUploadCmd.Flags().StringVar(&uploadType, "type", "", "Declared MIME type (detected from content when empty)")
	manualsSaveCmd.Flags().StringVarP(&manualOutput, "out", "o", "", "Output file (default: <name>.pdf)")
	manualsSaveCmd.Flags().BoolVar(&manualOverwrite, "force", false, "Overwrite an existing file")
}
