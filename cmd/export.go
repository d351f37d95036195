package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/heinsupport/hein-assist/internal"
	"github.com/heinsupport/hein-assist/internal/export"
	"github.com/spf13/cobra"
)

var (
	format    string
	outputDir string
	sessionID string
)

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export conversations to file",
	Long: `Export conversations to various formats (jsonl, md, yaml, json).

You can export all conversations or a specific one by ID.
Use 'hein-assist list' to see available session IDs.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		// Create exporter first so a bad format fails before storage is touched
		exporter, err := export.NewExporter(format)
		if err != nil {
			return err
		}

		ctx := commandContext(cmd)
		app, _, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer closeApp(app)

		sessions := app.Sessions().Sessions()
		if sessionID != "" {
			session, err := resolveSession(app, sessionID)
			if err != nil {
				return err
			}
			sessions = []internal.Session{session}
		}

		if len(sessions) == 0 {
			internal.PrintInfo(cmd.OutOrStdout(), "No conversations to export")
			return nil
		}

		if err := os.MkdirAll(outputDir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}

		exported := 0
		err = internal.ShowProgress(ctx, fmt.Sprintf("Exporting %d conversation(s) to %s", len(sessions), outputDir), func() error {
			used := make(map[string]bool, len(sessions))
			for i := range sessions {
				session := &sessions[i]
				path := filepath.Join(outputDir, uniqueFilename(session, exporter.Extension(), used))
				if err := writeExport(exporter, session, path); err != nil {
					internal.LogError("Failed to export session %s: %v", session.ID, err)
					continue
				}
				exported++
			}
			return nil
		})
		if err != nil {
			return err
		}
		if exported < len(sessions) {
			return &internal.ExportError{Format: format, Path: outputDir, Err: fmt.Errorf("%d of %d conversation(s) failed", len(sessions)-exported, len(sessions))}
		}

		internal.PrintSuccess(cmd.OutOrStdout(), fmt.Sprintf("Export complete: %d conversation(s) exported to %s", exported, outputDir))
		return nil
	},
}

// uniqueFilename returns the timestamped export name, suffixed with the
// short session id when another session in this run already took it
func uniqueFilename(session *internal.Session, ext string, used map[string]bool) string {
	name := export.Filename(session, ext)
	if used[name] {
		shortID := session.ID
		if len(shortID) > 8 {
			shortID = shortID[:8]
		}
		name = strings.TrimSuffix(name, "."+ext) + "_" + shortID + "." + ext
	}
	used[name] = true
	return name
}

func writeExport(exporter export.Exporter, session *internal.Session, path string) error {
	file, err := os.Create(path)
	if err != nil {
		return &internal.ExportError{Format: exporter.Extension(), Path: path, Err: err}
	}
	if err := exporter.Export(session, file); err != nil {
		_ = file.Close()
		return err
	}
	if err := file.Close(); err != nil {
		return &internal.ExportError{Format: exporter.Extension(), Path: path, Err: err}
	}
	return nil
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVarP(&format, "format", "f", "jsonl", "Export format (jsonl, md, yaml, json)")
	exportCmd.Flags().StringVarP(&outputDir, "out", "o", "./exports", "Output directory")
	exportCmd.Flags().StringVar(&sessionID, "session-id", "", "Export a specific conversation by ID")
}
