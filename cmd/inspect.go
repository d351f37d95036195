package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/heinsupport/hein-assist/internal"
	"github.com/spf13/cobra"
)

var (
	inspectFormat     string
	inspectSampleRows int
)

// namespaceReport summarizes one namespace of the durable store
type namespaceReport struct {
	Namespace string         `json:"namespace"`
	Records   int            `json:"records"`
	Bytes     int            `json:"bytes"`
	Invalid   int            `json:"invalid"`
	Samples   []recordSample `json:"samples,omitempty"`
}

type recordSample struct {
	Key   string `json:"key"`
	Size  int    `json:"size"`
	Valid bool   `json:"valid"`
	Value string `json:"value"`
}

// inspectCmd represents the inspect command
var inspectCmd = &cobra.Command{
	Use:   "inspect [namespace...]",
	Short: "Inspect the durable store",
	Long: `Inspect the raw records of the durable store.

This command provides detailed information about:
  • Record counts and sizes per namespace
  • Records that are not valid JSON (ignored on load)
  • Sample keys and values

Namespaces: sessions, manuals, preferences (default: all).

Examples:
  hein-assist inspect                               # All namespaces
  hein-assist inspect sessions --sample 5           # Five sample sessions
  hein-assist inspect --format json                 # Machine-readable report`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if inspectFormat != "text" && inspectFormat != "json" {
			return fmt.Errorf("invalid --format %q: use text or json", inspectFormat)
		}

		cfg, paths, err := loadConfig()
		if err != nil {
			return err
		}
		store, err := openStore(cfg, paths)
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()

		namespaces := args
		if len(namespaces) == 0 {
			namespaces = []string{internal.NamespaceSessions, internal.NamespaceManuals, internal.NamespacePreferences}
		}

		ctx := commandContext(cmd)
		reports := make([]namespaceReport, 0, len(namespaces))
		for _, ns := range namespaces {
			records, err := store.List(ctx, ns)
			if err != nil {
				return &internal.StorageError{Namespace: ns, Op: "list", Err: err}
			}
			sort.Slice(records, func(i, j int) bool { return records[i].Key < records[j].Key })

			report := namespaceReport{Namespace: ns, Records: len(records)}
			for _, rec := range records {
				valid := json.Valid(rec.Value)
				report.Bytes += len(rec.Value)
				if !valid {
					report.Invalid++
				}
				if len(report.Samples) < inspectSampleRows {
					report.Samples = append(report.Samples, recordSample{
						Key:   rec.Key,
						Size:  len(rec.Value),
						Valid: valid,
						Value: previewValue(rec.Value, 80),
					})
				}
			}
			reports = append(reports, report)
		}

		out := cmd.OutOrStdout()
		if inspectFormat == "json" {
			enc := json.NewEncoder(out)
			enc.SetIndent("", "  ")
			return enc.Encode(reports)
		}

		fmt.Fprintf(out, "📋 Store: %s\n\n", cfg.Storage.Driver)
		for _, report := range reports {
			printNamespaceReport(out, report)
		}
		return nil
	},
}

func printNamespaceReport(out io.Writer, report namespaceReport) {
	fmt.Fprintln(out, sectionStyle.Render(report.Namespace))
	fmt.Fprintf(out, "  Records: %d (%s)\n", report.Records, internal.FormatSize(report.Bytes))
	if report.Invalid > 0 {
		fmt.Fprintln(out, warningStyle.Render(fmt.Sprintf("  ⚠️  %d record(s) are not valid JSON and are ignored on load", report.Invalid)))
	}
	for _, s := range report.Samples {
		marker := "✓"
		if !s.Valid {
			marker = "✗"
		}
		fmt.Fprintf(out, "  %s %s %s\n", marker, idStyle.Render(s.Key), dateStyle.Render(s.Value))
	}
	fmt.Fprintln(out)
}

// previewValue renders a record for display, truncated to limit runes.
// Data URL payloads are elided.
func previewValue(value []byte, limit int) string {
	s := string(value)
	if !utf8.ValidString(s) {
		return fmt.Sprintf("<%d bytes of binary data>", len(value))
	}
	if i := strings.Index(s, ";base64,"); i >= 0 {
		end := strings.IndexByte(s[i:], '"')
		if end < 0 {
			end = len(s) - i
		}
		s = s[:i] + ";base64,…" + s[i+end:]
	}
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit-3]) + "..."
}

func init() {
	rootCmd.AddCommand(inspectCmd)
	inspectCmd.Flags().StringVar(&inspectFormat, "format", "text", "Output format (text, json)")
	inspectCmd.Flags().IntVar(&inspectSampleRows, "sample", 3, "Number of sample records per namespace")
}
