// Package warehouse renders and runs the staging-table load sequence.
package warehouse

import (
	"fmt"
	"strings"

	"github.com/dvloznov/ramp-bills/internal/schema"
)

// Dialect renders the five load statements for one warehouse engine.
type Dialect interface {
	Name() string
	CreateStaging(t *schema.Table) string
	CopyFromFile(t *schema.Table, uri string) string
	TruncateTarget(t *schema.Table) string
	InsertFromStaging(t *schema.Table) string
	DropStaging(t *schema.Table) string
}

// Redshift renders Amazon Redshift SQL. COPY reads Parquet from S3 with the
// given IAM role.
type Redshift struct {
	IAMRole string
}

func (Redshift) Name() string { return "redshift" }

func (Redshift) CreateStaging(t *schema.Table) string {
	cols := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		cols[i] = fmt.Sprintf("    %s %s", c.Name, redshiftType(c))
	}
	return fmt.Sprintf("CREATE TABLE %s (\n%s\n);", t.StagingTable, strings.Join(cols, ",\n"))
}

func redshiftType(c schema.Column) string {
	if c.Type == schema.TypeFloat {
		return "DOUBLE PRECISION"
	}
	width := c.Width
	if width <= 0 {
		width = schema.DefaultStringWidth
	}
	return fmt.Sprintf("VARCHAR(%d)", width)
}

func (r Redshift) CopyFromFile(t *schema.Table, uri string) string {
	return fmt.Sprintf("COPY %s FROM %s IAM_ROLE %s FORMAT AS PARQUET;",
		t.StagingTable, quoteLiteral(uri), quoteLiteral(r.IAMRole))
}

func (Redshift) TruncateTarget(t *schema.Table) string {
	return fmt.Sprintf("TRUNCATE TABLE %s;", t.TargetTable)
}

func (Redshift) InsertFromStaging(t *schema.Table) string {
	return insertSelect(t, t.TargetTable, t.StagingTable, func(col string) string {
		return fmt.Sprintf("TO_TIMESTAMP(%s, %s)", col, quoteLiteral(t.TimestampFormat))
	})
}

func (Redshift) DropStaging(t *schema.Table) string {
	return fmt.Sprintf("DROP TABLE %s;", t.StagingTable)
}

// BigQuery renders GoogleSQL. Table names are qualified with ProjectID when
// set, and the Parquet file is loaded from GCS with LOAD DATA.
type BigQuery struct {
	ProjectID string
}

func (BigQuery) Name() string { return "bigquery" }

func (b BigQuery) table(name string) string {
	if b.ProjectID == "" {
		return "`" + name + "`"
	}
	return "`" + b.ProjectID + "." + name + "`"
}

func (b BigQuery) CreateStaging(t *schema.Table) string {
	cols := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		typ := "STRING"
		if c.Type == schema.TypeFloat {
			typ = "FLOAT64"
		}
		cols[i] = fmt.Sprintf("    %s %s", c.Name, typ)
	}
	return fmt.Sprintf("CREATE TABLE %s (\n%s\n);", b.table(t.StagingTable), strings.Join(cols, ",\n"))
}

func (b BigQuery) CopyFromFile(t *schema.Table, uri string) string {
	return fmt.Sprintf("LOAD DATA INTO %s FROM FILES (format = 'PARQUET', uris = [%s]);",
		b.table(t.StagingTable), quoteLiteral(uri))
}

func (b BigQuery) TruncateTarget(t *schema.Table) string {
	return fmt.Sprintf("TRUNCATE TABLE %s;", b.table(t.TargetTable))
}

func (b BigQuery) InsertFromStaging(t *schema.Table) string {
	format := quoteLiteral(strftimeFormat(t.TimestampFormat))
	return insertSelect(t, b.table(t.TargetTable), b.table(t.StagingTable), func(col string) string {
		return fmt.Sprintf("PARSE_TIMESTAMP(%s, %s)", format, col)
	})
}

func (b BigQuery) DropStaging(t *schema.Table) string {
	return fmt.Sprintf("DROP TABLE %s;", b.table(t.StagingTable))
}

// strftimeFormat converts a Redshift datetime pattern to the strftime form
// BigQuery expects, e.g. YYYY-MM-DD HH24:MI:SS → %Y-%m-%d %H:%M:%S.
func strftimeFormat(pattern string) string {
	return strings.NewReplacer(
		"YYYY", "%Y",
		"HH24", "%H",
		"MM", "%m",
		"DD", "%d",
		"MI", "%M",
		"SS", "%S",
	).Replace(pattern)
}

// insertSelect passes every column through except timestamp columns, which
// go through parse.
func insertSelect(t *schema.Table, target, staging string, parse func(col string) string) string {
	exprs := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		if c.Timestamp {
			exprs[i] = "    " + parse(c.Name)
			continue
		}
		exprs[i] = "    " + c.Name
	}
	return fmt.Sprintf("INSERT INTO %s\nSELECT\n%s\nFROM %s;", target, strings.Join(exprs, ",\n"), staging)
}

func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
