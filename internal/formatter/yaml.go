package formatter

import (
	"io"

	"gopkg.in/yaml.v3"

	"github.com/fieldtrace/fieldtrace/internal/schema"
)

// YAMLFormatter writes the schema as a YAML document.
type YAMLFormatter struct {
	writer io.Writer
}

func NewYAMLFormatter(w io.Writer) *YAMLFormatter {
	return &YAMLFormatter{writer: w}
}

func (f *YAMLFormatter) Format(s *schema.Schema) error {
	enc := yaml.NewEncoder(f.writer)
	enc.SetIndent(2)
	if err := enc.Encode(s); err != nil {
		return err
	}
	return enc.Close()
}
