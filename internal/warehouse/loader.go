package warehouse

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/dvloznov/ramp-bills/internal/domain"
	apperrors "github.com/dvloznov/ramp-bills/internal/errors"
	"github.com/dvloznov/ramp-bills/internal/logger"
	"github.com/dvloznov/ramp-bills/internal/schema"
)

// Executor runs statements on one exclusively owned warehouse connection.
// Each Exec commits on its own.
type Executor interface {
	Exec(ctx context.Context, sql string) error
	Close(ctx context.Context) error
}

// Opener opens the connection for one run.
type Opener func(ctx context.Context) (Executor, error)

// Result is the outcome of one statement.
type Result struct {
	Statement
	Err      error
	Duration time.Duration
	Cleanup  bool
}

// Report lists every statement attempted, in order.
type Report struct {
	Results []Result
}

// Failed returns the results that errored.
func (r *Report) Failed() []Result {
	var out []Result
	for _, res := range r.Results {
		if res.Err != nil {
			out = append(out, res)
		}
	}
	return out
}

// Loader drives the staging load sequence against the target table.
type Loader struct {
	Open    Opener
	Dialect Dialect
	Table   *schema.Table
	Policy  domain.FailurePolicy
}

// Load opens one connection, runs the plan for the object at uri and always
// closes the connection.
//
// With ContinueOnError every statement is attempted and failures are only
// logged and reported; a failed CREATE or COPY will cascade into the
// statements after it. With AbortOnError the first failure stops the
// sequence, and if the staging table was created a best-effort DROP runs.
func (l *Loader) Load(ctx context.Context, uri string) (*Report, error) {
	log := logger.FromContext(ctx).With().
		Str("dialect", l.Dialect.Name()).
		Str("target", l.Table.TargetTable).
		Logger()

	conn, err := l.Open(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Error connecting to warehouse")
		return nil, apperrors.WrapError(err, apperrors.ErrConnectionFailed, "open "+l.Dialect.Name())
	}
	defer func() {
		if cerr := conn.Close(ctx); cerr != nil {
			log.Warn().Err(cerr).Msg("Closing warehouse connection failed")
		}
	}()

	report := &Report{}
	stagingCreated := false

	for _, stmt := range Plan(l.Dialect, l.Table, uri) {
		res := l.exec(ctx, log, conn, stmt, false)
		report.Results = append(report.Results, res)

		if res.Err == nil {
			if stmt.Kind == CreateStaging {
				stagingCreated = true
			}
			continue
		}

		if l.Policy == domain.AbortOnError {
			if stagingCreated && stmt.Kind != DropStaging {
				drop := Statement{Kind: DropStaging, SQL: l.Dialect.DropStaging(l.Table)}
				report.Results = append(report.Results, l.exec(ctx, log, conn, drop, true))
			}
			return report, apperrors.WrapError(res.Err, apperrors.ErrSQLStatementFailed, string(stmt.Kind))
		}
	}

	if failed := report.Failed(); len(failed) > 0 {
		log.Warn().Int("failed_statements", len(failed)).Msg("Load finished with failed statements; target table may be partially applied")
	} else {
		log.Info().Msg("Load sequence completed")
	}
	return report, nil
}

func (l *Loader) exec(ctx context.Context, log zerolog.Logger, conn Executor, stmt Statement, cleanup bool) Result {
	start := time.Now()
	err := conn.Exec(ctx, stmt.SQL)
	res := Result{Statement: stmt, Err: err, Duration: time.Since(start), Cleanup: cleanup}

	if err != nil {
		log.Error().
			Err(err).
			Str("statement", string(stmt.Kind)).
			Bool("cleanup", cleanup).
			Str("sql", stmt.SQL).
			Msg("Error executing SQL statement")
		return res
	}

	log.Info().
		Str("statement", string(stmt.Kind)).
		Dur("duration", res.Duration).
		Str("sql", stmt.SQL).
		Msg("SQL statement executed successfully")
	return res
}
