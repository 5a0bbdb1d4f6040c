package bigquery

import (
	"context"
	"fmt"

	"cloud.google.com/go/bigquery"
	"google.golang.org/api/option"

	"github.com/dvloznov/ramp-bills/internal/config"
	"github.com/dvloznov/ramp-bills/internal/warehouse"
)

// Runner is the subset of the BigQuery client the executor needs.
type Runner interface {
	Run(ctx context.Context, sql string) (*bigquery.JobStatus, error)
	Close() error
}

// Executor runs load statements as BigQuery query jobs.
type Executor struct {
	runner Runner
}

// NewExecutor wraps an existing runner.
func NewExecutor(r Runner) *Executor {
	return &Executor{runner: r}
}

// Exec runs one statement and waits for its job to finish.
func (e *Executor) Exec(ctx context.Context, sql string) error {
	status, err := e.runner.Run(ctx, sql)
	if err != nil {
		return err
	}
	if err := status.Err(); err != nil {
		return fmt.Errorf("Exec: job error: %w", err)
	}
	return nil
}

// Close closes the underlying BigQuery client.
func (e *Executor) Close(context.Context) error {
	if e.runner != nil {
		return e.runner.Close()
	}
	return nil
}

// clientRunner adapts *bigquery.Client to Runner.
type clientRunner struct {
	client *bigquery.Client
}

func (c clientRunner) Run(ctx context.Context, sql string) (*bigquery.JobStatus, error) {
	q := c.client.Query(sql)

	job, err := q.Run(ctx)
	if err != nil {
		return nil, fmt.Errorf("Run: run query: %w", err)
	}

	status, err := job.Wait(ctx)
	if err != nil {
		return nil, fmt.Errorf("Run: wait for job: %w", err)
	}
	return status, nil
}

func (c clientRunner) Close() error {
	return c.client.Close()
}

// Opener returns a warehouse.Opener that creates one BigQuery client per run.
func Opener(cfg config.BigQuery) warehouse.Opener {
	return func(ctx context.Context) (warehouse.Executor, error) {
		var opts []option.ClientOption
		if cfg.CredentialsFile != "" {
			opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
		}

		client, err := bigquery.NewClient(ctx, cfg.ProjectID, opts...)
		if err != nil {
			return nil, fmt.Errorf("Opener: creating client: %w", err)
		}
		return NewExecutor(clientRunner{client: client}), nil
	}
}
