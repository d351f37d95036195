package export

import (
	"errors"
	"testing"

	"github.com/heinsupport/hein-assist/internal"
)

func TestNewExporter(t *testing.T) {
	tests := []struct {
		name     string
		format   string
		wantType string
		wantExt  string
		wantErr  bool
	}{
		{
			name:     "jsonl format",
			format:   "jsonl",
			wantType: "JSONLExporter",
			wantExt:  "jsonl",
		},
		{
			name:     "markdown format",
			format:   "md",
			wantType: "MarkdownExporter",
			wantExt:  "md",
		},
		{
			name:     "markdown format long",
			format:   "markdown",
			wantType: "MarkdownExporter",
			wantExt:  "md",
		},
		{
			name:     "yaml format",
			format:   "yaml",
			wantType: "YAMLExporter",
			wantExt:  "yaml",
		},
		{
			name:     "yml alias",
			format:   "YML",
			wantType: "YAMLExporter",
			wantExt:  "yaml",
		},
		{
			name:     "json format",
			format:   "json",
			wantType: "JSONExporter",
			wantExt:  "json",
		},
		{
			name:    "unsupported format",
			format:  "xml",
			wantErr: true,
		},
		{
			name:    "empty format",
			format:  "",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exporter, err := NewExporter(tt.format)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewExporter() error = %v, wantErr %v", err, tt.wantErr)
				return
			}

			if tt.wantErr {
				var exportErr *internal.ExportError
				if !errors.As(err, &exportErr) {
					t.Errorf("NewExporter() error = %T, want *internal.ExportError", err)
				}
				if exporter != nil {
					t.Errorf("NewExporter() returned exporter %T, want nil", exporter)
				}
				return
			}

			if got := exporter.Extension(); got != tt.wantExt {
				t.Errorf("Exporter.Extension() = %v, want %v", got, tt.wantExt)
			}

			switch tt.wantType {
			case "JSONLExporter":
				if _, ok := exporter.(*JSONLExporter); !ok {
					t.Errorf("Expected JSONLExporter, got %T", exporter)
				}
			case "MarkdownExporter":
				if _, ok := exporter.(*MarkdownExporter); !ok {
					t.Errorf("Expected MarkdownExporter, got %T", exporter)
				}
			case "YAMLExporter":
				if _, ok := exporter.(*YAMLExporter); !ok {
					t.Errorf("Expected YAMLExporter, got %T", exporter)
				}
			case "JSONExporter":
				if _, ok := exporter.(*JSONExporter); !ok {
					t.Errorf("Expected JSONExporter, got %T", exporter)
				}
			}
		})
	}
}
