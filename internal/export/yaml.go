package export

import (
	"io"

	"github.com/heinsupport/hein-assist/internal"
	"gopkg.in/yaml.v3"
)

// YAMLExporter writes the same transcript as JSONExporter in YAML
type YAMLExporter struct{}

func (e *YAMLExporter) Export(session *internal.Session, w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)

	if err := enc.Encode(newTranscript(session)); err != nil {
		_ = enc.Close()
		return &internal.ExportError{Format: "yaml", Path: session.ID, Err: err}
	}
	return enc.Close()
}

func (e *YAMLExporter) Extension() string {
	return "yaml"
}
