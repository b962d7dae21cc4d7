package formatter

import (
	"fmt"
	"io"

	"github.com/tordrt/erdcanvas/internal/schema"
)

// Output formats
const (
	FormatSQL      = "sql"
	FormatJSON     = "json"
	FormatText     = "text"
	FormatMarkdown = "markdown"
)

// Formatter writes a schema in one output format
type Formatter interface {
	Format(s *schema.Schema) error
}

// New returns the formatter for format writing to w
func New(format string, w io.Writer) (Formatter, error) {
	switch format {
	case FormatSQL:
		return NewSQLFormatter(w), nil
	case FormatJSON:
		return NewJSONFormatter(w), nil
	case FormatText:
		return NewTextFormatter(w), nil
	case FormatMarkdown:
		return NewMarkdownFormatter(w), nil
	default:
		return nil, fmt.Errorf("invalid format: %s (must be 'sql', 'json', 'text' or 'markdown')", format)
	}
}

// Extension returns the file extension used for format
func Extension(format string) string {
	switch format {
	case FormatSQL:
		return ".sql"
	case FormatJSON:
		return ".json"
	case FormatMarkdown:
		return ".md"
	default:
		return ".txt"
	}
}

// constraintList renders a column's tags the way the SQL export does, minus
// the primary key which is shown separately.
func constraintList(col schema.Column) []string {
	var parts []string
	wroteDefault := false
	for _, c := range col.Constraints {
		switch c {
		case schema.PrimaryKey:
			continue
		case schema.Default:
			if col.DefaultValue != nil {
				parts = append(parts, "DEFAULT "+col.DefaultValue.String())
				wroteDefault = true
			}
		default:
			parts = append(parts, string(c))
		}
	}
	if col.DefaultValue != nil && !wroteDefault && !col.HasConstraint(schema.DefaultCurrentTimestamp) {
		parts = append(parts, "DEFAULT "+col.DefaultValue.String())
	}
	return parts
}
