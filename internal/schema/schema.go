// Package schema holds the declarative mapping from flattened API records to
// warehouse columns.
package schema

import (
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Type is the declared column type after casting.
type Type string

const (
	TypeString Type = "string"
	TypeFloat  Type = "float"
)

// Transform is applied to a float column after parsing.
type Transform string

const (
	TransformNone Transform = ""
	// TransformMinorToMajor divides by 100 (cents to dollars).
	TransformMinorToMajor Transform = "minor_to_major"
)

// DefaultStringWidth is used for VARCHAR columns without an explicit width.
const DefaultStringWidth = 256

// Column maps one flattened source key to one output column.
type Column struct {
	Name      string    `yaml:"name"`
	Source    string    `yaml:"source"`
	Type      Type      `yaml:"type"`
	Transform Transform `yaml:"transform"`
	Width     int       `yaml:"width"`
	Timestamp bool      `yaml:"timestamp"`
}

// Table is a full extract/load mapping for one API resource.
type Table struct {
	Name            string   `yaml:"name"`
	Endpoint        string   `yaml:"endpoint"`
	ObjectURI       string   `yaml:"object_uri"`
	StagingTable    string   `yaml:"staging_table"`
	TargetTable     string   `yaml:"target_table"`
	TimestampFormat string   `yaml:"timestamp_format"`
	Columns         []Column `yaml:"columns"`
}

// ValidationError describes one problem with a mapping document.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

//go:embed ramp_bills.yaml
var rampBillsYAML []byte

// RampBills returns the built-in mapping for the Ramp bills endpoint.
func RampBills() *Table {
	t, err := Parse(rampBillsYAML)
	if err != nil {
		panic(fmt.Sprintf("schema: embedded ramp_bills.yaml is invalid: %v", err))
	}
	return t
}

// Load reads a mapping document from disk.
func Load(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return Parse(data)
}

// Parse decodes, defaults and validates a YAML mapping document.
func Parse(data []byte) (*Table, error) {
	var t Table
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	t.setDefaults()

	if errs := t.Validate(); len(errs) > 0 {
		return nil, fmt.Errorf("validation errors: %v", errs)
	}
	return &t, nil
}

func (t *Table) setDefaults() {
	if t.TimestampFormat == "" {
		t.TimestampFormat = "YYYY-MM-DD HH24:MI:SS"
	}
	for i := range t.Columns {
		c := &t.Columns[i]
		if c.Source == "" {
			c.Source = c.Name
		}
		if c.Type == "" {
			c.Type = TypeString
		}
		if c.Type == TypeString && c.Width == 0 {
			c.Width = DefaultStringWidth
		}
	}
}

// Validate reports every problem found in the mapping.
func (t *Table) Validate() []ValidationError {
	var errs []ValidationError

	if t.Name == "" {
		errs = append(errs, ValidationError{"name", "is required"})
	}
	if t.StagingTable == "" {
		errs = append(errs, ValidationError{"staging_table", "is required"})
	}
	if t.TargetTable == "" {
		errs = append(errs, ValidationError{"target_table", "is required"})
	}
	if t.StagingTable != "" && t.StagingTable == t.TargetTable {
		errs = append(errs, ValidationError{"staging_table", "must differ from target_table"})
	}
	if len(t.Columns) == 0 {
		errs = append(errs, ValidationError{"columns", "at least one column is required"})
	}

	seen := make(map[string]bool, len(t.Columns))
	for i, c := range t.Columns {
		field := fmt.Sprintf("columns[%d]", i)
		if c.Name == "" {
			errs = append(errs, ValidationError{field + ".name", "is required"})
			continue
		}
		if !isIdentifier(c.Name) {
			errs = append(errs, ValidationError{field + ".name", fmt.Sprintf("%q is not a valid identifier", c.Name)})
		}
		if seen[c.Name] {
			errs = append(errs, ValidationError{field + ".name", fmt.Sprintf("duplicate column %q", c.Name)})
		}
		seen[c.Name] = true

		switch c.Type {
		case TypeString, TypeFloat:
		default:
			errs = append(errs, ValidationError{field + ".type", fmt.Sprintf("unknown type %q", c.Type)})
		}
		switch c.Transform {
		case TransformNone:
		case TransformMinorToMajor:
			if c.Type != TypeFloat {
				errs = append(errs, ValidationError{field + ".transform", "minor_to_major requires a float column"})
			}
		default:
			errs = append(errs, ValidationError{field + ".transform", fmt.Sprintf("unknown transform %q", c.Transform)})
		}
		if c.Timestamp && c.Type != TypeString {
			errs = append(errs, ValidationError{field + ".timestamp", "timestamp columns must be strings"})
		}
	}

	return errs
}

// ColumnNames lists the output column names in declared order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

func isIdentifier(s string) bool {
	for i, r := range s {
		switch {
		case r == '_', r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9' && i > 0:
		default:
			return false
		}
	}
	return strings.TrimSpace(s) != ""
}
