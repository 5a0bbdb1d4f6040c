package pipeline

import (
	"bytes"
	"context"
	"fmt"

	"github.com/dvloznov/ramp-bills/internal/columnar"
	"github.com/dvloznov/ramp-bills/internal/domain"
	apperrors "github.com/dvloznov/ramp-bills/internal/errors"
	"github.com/dvloznov/ramp-bills/internal/logger"
	"github.com/dvloznov/ramp-bills/internal/objectstore"
	"github.com/dvloznov/ramp-bills/internal/ramp"
	"github.com/dvloznov/ramp-bills/internal/schema"
	"github.com/dvloznov/ramp-bills/internal/warehouse"
)

// DefaultPreviewRows is how many rows SummaryStep logs.
const DefaultPreviewRows = 5

// FetchBillsStep retrieves every page of bills.
type FetchBillsStep struct {
	Client   *ramp.Client
	Endpoint string
	Policy   domain.FailurePolicy
}

func (s *FetchBillsStep) Name() string { return "fetch" }

func (s *FetchBillsStep) Execute(ctx context.Context, state *RunState) error {
	records, err := ramp.FetchAll(ctx, s.Client, s.Endpoint, s.Policy)
	if err != nil {
		return err
	}
	// Loading nothing would truncate the target and leave it empty.
	if len(records) == 0 {
		return apperrors.WrapError(nil, apperrors.ErrEmptyDataset, "no bills fetched from "+s.Endpoint)
	}
	state.Records = records
	return nil
}

// ShapeBillsStep turns raw records into the typed table.
type ShapeBillsStep struct {
	Table *schema.Table
}

func (s *ShapeBillsStep) Name() string { return "shape" }

func (s *ShapeBillsStep) Execute(ctx context.Context, state *RunState) error {
	tbl, err := ShapeBills(state.Records, s.Table)
	if err != nil {
		return err
	}
	state.Table = tbl
	return nil
}

// SummaryStep logs the row count and a preview of the shaped table.
type SummaryStep struct {
	PreviewRows int
}

func (s *SummaryStep) Name() string { return "summary" }

func (s *SummaryStep) Execute(ctx context.Context, state *RunState) error {
	if state.Table == nil {
		return nil
	}
	n := s.PreviewRows
	if n <= 0 {
		n = DefaultPreviewRows
	}
	log := logger.FromContext(ctx)
	log.Info().
		Int("rows", len(state.Table.Rows)).
		Int("columns", len(state.Table.Columns)).
		Msg("Shaped bills table\n" + state.Table.Preview(n))
	return nil
}

// WriteParquetStep encodes the table as a parquet file in memory.
type WriteParquetStep struct{}

func (s *WriteParquetStep) Name() string { return "write_parquet" }

func (s *WriteParquetStep) Execute(ctx context.Context, state *RunState) error {
	data, err := columnar.Encode(state.Table)
	if err != nil {
		return fmt.Errorf("WriteParquetStep: %w", err)
	}
	state.Parquet = data
	log := logger.FromContext(ctx)
	log.Info().Int("bytes", len(data)).Msg("Encoded parquet file")
	return nil
}

// PublishStep overwrites the object at URI with the encoded file.
type PublishStep struct {
	Publisher objectstore.Publisher
	URI       string
}

func (s *PublishStep) Name() string { return "publish" }

func (s *PublishStep) Execute(ctx context.Context, state *RunState) error {
	if err := s.Publisher.Publish(ctx, s.URI, bytes.NewReader(state.Parquet)); err != nil {
		return apperrors.WrapError(err, apperrors.ErrPublishFailed, s.URI)
	}
	state.ObjectURI = s.URI
	log := logger.FromContext(ctx)
	log.Info().Str("uri", s.URI).Msg("Published parquet file")
	return nil
}

// LoadWarehouseStep runs the staging load sequence for the published object.
type LoadWarehouseStep struct {
	Loader *warehouse.Loader
}

func (s *LoadWarehouseStep) Name() string { return "load" }

func (s *LoadWarehouseStep) Execute(ctx context.Context, state *RunState) error {
	report, err := s.Loader.Load(ctx, state.ObjectURI)
	state.Report = report
	return err
}

// Options configures NewBillsLoadPipeline.
type Options struct {
	Client      *ramp.Client
	Endpoint    string
	FetchPolicy domain.FailurePolicy
	Table       *schema.Table
	Publisher   objectstore.Publisher
	ObjectURI   string
	// Loader may be nil, in which case the run stops after publishing.
	Loader      *warehouse.Loader
	PreviewRows int
}

// NewBillsLoadPipeline creates the standard fetch → shape → publish → load
// pipeline.
func NewBillsLoadPipeline(o Options) *Pipeline {
	steps := []Step{
		&FetchBillsStep{Client: o.Client, Endpoint: o.Endpoint, Policy: o.FetchPolicy},
		&ShapeBillsStep{Table: o.Table},
		&SummaryStep{PreviewRows: o.PreviewRows},
		&WriteParquetStep{},
		&PublishStep{Publisher: o.Publisher, URI: o.ObjectURI},
	}
	if o.Loader != nil {
		steps = append(steps, &LoadWarehouseStep{Loader: o.Loader})
	}
	return NewPipeline(steps...)
}
