package pipeline

import (
	"context"
	"fmt"

	"github.com/dvloznov/ramp-bills/internal/domain"
	"github.com/dvloznov/ramp-bills/internal/logger"
	"github.com/dvloznov/ramp-bills/internal/warehouse"
)

// Step is a single stage of a load run.
type Step interface {
	Name() string
	Execute(ctx context.Context, state *RunState) error
}

// RunState holds the shared state across all steps of one run.
type RunState struct {
	Records   []domain.Record
	Table     *domain.BillTable
	Parquet   []byte
	ObjectURI string
	Report    *warehouse.Report
}

// Pipeline executes a sequence of steps in order.
type Pipeline struct {
	steps []Step
}

// NewPipeline creates a new pipeline with the given steps.
func NewPipeline(steps ...Step) *Pipeline {
	return &Pipeline{steps: steps}
}

// Execute runs all steps sequentially and stops at the first failure.
func (p *Pipeline) Execute(ctx context.Context, state *RunState) error {
	log := logger.FromContext(ctx)

	for i, step := range p.steps {
		log.Debug().Int("step", i+1).Str("name", step.Name()).Msg("Running pipeline step")
		if err := step.Execute(ctx, state); err != nil {
			return fmt.Errorf("pipeline step %d (%s) failed: %w", i+1, step.Name(), err)
		}
	}
	return nil
}
