package formatter

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tordrt/erdcanvas/internal/schema"
)

// DefaultBaseName is used when the schema has no name
const DefaultBaseName = "schema"

// MultiFileFormatter writes one export file per format into a directory,
// named after the schema.
type MultiFileFormatter struct {
	OutputDir string
	Formats   []string
	// Now stamps the SQL header.
	Now func() time.Time
}

// NewMultiFileFormatter creates a new multi-file formatter
func NewMultiFileFormatter(outputDir string, formats ...string) *MultiFileFormatter {
	if len(formats) == 0 {
		formats = []string{FormatSQL, FormatJSON}
	}
	return &MultiFileFormatter{
		OutputDir: outputDir,
		Formats:   formats,
		Now:       time.Now,
	}
}

// FileName returns "<schemaName or schema><ext>" for the given format
func FileName(s *schema.Schema, format string) string {
	base := strings.TrimSpace(s.Name)
	if base == "" {
		base = DefaultBaseName
	}
	base = strings.NewReplacer("/", "_", "\\", "_").Replace(base)
	return base + Extension(format)
}

// Format writes every configured format
func (f *MultiFileFormatter) Format(s *schema.Schema) error {
	_, err := f.Write(s)
	return err
}

// Write is Format returning the created file paths
func (f *MultiFileFormatter) Write(s *schema.Schema) ([]string, error) {
	// Create output directory if it doesn't exist
	if err := os.MkdirAll(f.OutputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	var written []string
	for _, format := range f.Formats {
		path := filepath.Join(f.OutputDir, FileName(s, format))
		if err := f.writeFile(path, format, s); err != nil {
			return written, fmt.Errorf("failed to write %s: %w", path, err)
		}
		written = append(written, path)
	}
	return written, nil
}

func (f *MultiFileFormatter) writeFile(path, format string, s *schema.Schema) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() { _ = file.Close() }()

	formatter, err := New(format, file)
	if err != nil {
		return err
	}
	if sqlFormatter, ok := formatter.(*SQLFormatter); ok && f.Now != nil {
		sqlFormatter.Now = f.Now
	}
	if err := formatter.Format(s); err != nil {
		return err
	}
	return file.Sync()
}
