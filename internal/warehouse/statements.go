package warehouse

import (
	"github.com/dvloznov/ramp-bills/internal/schema"
)

// StatementKind names a position in the load sequence.
type StatementKind string

const (
	CreateStaging StatementKind = "create_staging"
	CopyStaging   StatementKind = "copy_staging"
	TruncateTable StatementKind = "truncate_target"
	InsertTarget  StatementKind = "insert_target"
	DropStaging   StatementKind = "drop_staging"
)

// Statement is one rendered SQL statement.
type Statement struct {
	Kind StatementKind
	SQL  string
}

// Plan renders the full load sequence in execution order.
func Plan(d Dialect, t *schema.Table, uri string) []Statement {
	return []Statement{
		{Kind: CreateStaging, SQL: d.CreateStaging(t)},
		{Kind: CopyStaging, SQL: d.CopyFromFile(t, uri)},
		{Kind: TruncateTable, SQL: d.TruncateTarget(t)},
		{Kind: InsertTarget, SQL: d.InsertFromStaging(t)},
		{Kind: DropStaging, SQL: d.DropStaging(t)},
	}
}
