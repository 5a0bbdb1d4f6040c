// Package columnar serialises a BillTable to Parquet.
package columnar

import (
	"bytes"
	"fmt"
	"io"

	"github.com/apache/arrow/go/v15/arrow"
	"github.com/apache/arrow/go/v15/arrow/array"
	"github.com/apache/arrow/go/v15/arrow/memory"
	"github.com/apache/arrow/go/v15/parquet"
	"github.com/apache/arrow/go/v15/parquet/compress"
	"github.com/apache/arrow/go/v15/parquet/pqarrow"

	"github.com/dvloznov/ramp-bills/internal/domain"
	"github.com/dvloznov/ramp-bills/internal/schema"
)

// ArrowSchema maps declared columns onto nullable Arrow fields: strings to
// UTF8, floats to FLOAT64.
func ArrowSchema(columns []schema.Column) *arrow.Schema {
	fields := make([]arrow.Field, len(columns))
	for i, c := range columns {
		fields[i] = arrow.Field{Name: c.Name, Type: arrowType(c.Type), Nullable: true}
	}
	return arrow.NewSchema(fields, nil)
}

func arrowType(t schema.Type) arrow.DataType {
	if t == schema.TypeFloat {
		return arrow.PrimitiveTypes.Float64
	}
	return arrow.BinaryTypes.String
}

// WriteParquet writes the whole table as a single snappy-compressed row group.
func WriteParquet(w io.Writer, tbl *domain.BillTable) error {
	sc := ArrowSchema(tbl.Columns)

	rec, err := buildRecord(sc, tbl)
	if err != nil {
		return err
	}
	defer rec.Release()

	props := parquet.NewWriterProperties(parquet.WithCompression(compress.Codecs.Snappy))
	fw, err := pqarrow.NewFileWriter(sc, w, props, pqarrow.DefaultWriterProps())
	if err != nil {
		return fmt.Errorf("create parquet writer: %w", err)
	}

	if err := fw.Write(rec); err != nil {
		fw.Close()
		return fmt.Errorf("write parquet record: %w", err)
	}
	if err := fw.Close(); err != nil {
		return fmt.Errorf("finalize parquet file: %w", err)
	}
	return nil
}

// Encode returns the table as Parquet bytes.
func Encode(tbl *domain.BillTable) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteParquet(&buf, tbl); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func buildRecord(sc *arrow.Schema, tbl *domain.BillTable) (arrow.Record, error) {
	b := array.NewRecordBuilder(memory.DefaultAllocator, sc)
	defer b.Release()

	for i, row := range tbl.Rows {
		if len(row) != len(tbl.Columns) {
			return nil, fmt.Errorf("row %d has %d cells, want %d", i, len(row), len(tbl.Columns))
		}
		for j, cell := range row {
			if err := appendCell(b.Field(j), cell); err != nil {
				return nil, fmt.Errorf("row %d column %s: %w", i, tbl.Columns[j].Name, err)
			}
		}
	}

	return b.NewRecord(), nil
}

func appendCell(fb array.Builder, cell any) error {
	if cell == nil {
		fb.AppendNull()
		return nil
	}
	switch bld := fb.(type) {
	case *array.StringBuilder:
		s, ok := cell.(string)
		if !ok {
			return fmt.Errorf("want string, got %T", cell)
		}
		bld.Append(s)
	case *array.Float64Builder:
		f, ok := cell.(float64)
		if !ok {
			return fmt.Errorf("want float64, got %T", cell)
		}
		bld.Append(f)
	default:
		return fmt.Errorf("unsupported builder %T", fb)
	}
	return nil
}
