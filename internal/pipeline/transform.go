package pipeline

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/dvloznov/ramp-bills/internal/domain"
	apperrors "github.com/dvloznov/ramp-bills/internal/errors"
	"github.com/dvloznov/ramp-bills/internal/schema"
)

// FlattenSeparator joins nested keys, so {"amount":{"amount":5}} becomes
// amount_amount.
const FlattenSeparator = "_"

// CastError reports a cell that could not be converted to its column type.
type CastError struct {
	Row    int
	Column string
	Value  any
	Err    error
}

func (e *CastError) Error() string {
	return fmt.Sprintf("row %d column %s: cannot cast %T %v: %v", e.Row, e.Column, e.Value, e.Value, e.Err)
}

func (e *CastError) Unwrap() error {
	return e.Err
}

// FlattenRecord turns nested objects into a single level map keyed by
// underscore-joined paths. Arrays and scalars are leaves. A null object stays
// a nil leaf under its own key; an empty object contributes no keys.
func FlattenRecord(r domain.Record) map[string]any {
	out := make(map[string]any, len(r))
	flattenInto(out, "", r)
	return out
}

func flattenInto(out map[string]any, prefix string, m map[string]any) {
	for k, v := range m {
		key := k
		if prefix != "" {
			key = prefix + FlattenSeparator + k
		}
		if nested, ok := v.(map[string]any); ok {
			flattenInto(out, key, nested)
			continue
		}
		out[key] = v
	}
}

// ShapeBills flattens, projects, transforms and casts records into a table
// whose columns are exactly those declared in the mapping. Row order follows
// record order. The first cast failure aborts shaping.
func ShapeBills(records []domain.Record, table *schema.Table) (*domain.BillTable, error) {
	out := &domain.BillTable{
		Columns: append([]schema.Column(nil), table.Columns...),
		Rows:    make([][]any, 0, len(records)),
	}

	for i, rec := range records {
		flat := FlattenRecord(rec)
		row := make([]any, len(table.Columns))
		for j, col := range table.Columns {
			v, err := castCell(flat[col.Source], col)
			if err != nil {
				return nil, apperrors.WrapError(
					&CastError{Row: i, Column: col.Name, Value: flat[col.Source], Err: err},
					apperrors.ErrCastFailed,
					"shape "+table.Name,
				)
			}
			row[j] = v
		}
		out.Rows = append(out.Rows, row)
	}

	return out, nil
}

func castCell(v any, col schema.Column) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch col.Type {
	case schema.TypeFloat:
		f, err := toFloat64(v)
		if err != nil {
			return nil, err
		}
		if col.Transform == schema.TransformMinorToMajor {
			f = f / 100
		}
		return f, nil
	default:
		return toString(v)
	}
}

func toFloat64(v any) (float64, error) {
	switch val := v.(type) {
	case json.Number:
		return strconv.ParseFloat(val.String(), 64)
	case float64:
		return val, nil
	case float32:
		return float64(val), nil
	case int:
		return float64(val), nil
	case int64:
		return float64(val), nil
	case string:
		return strconv.ParseFloat(strings.TrimSpace(val), 64)
	default:
		return 0, fmt.Errorf("want number, got %T", v)
	}
}

func toString(v any) (string, error) {
	switch val := v.(type) {
	case string:
		return val, nil
	case json.Number:
		return val.String(), nil
	case bool:
		return strconv.FormatBool(val), nil
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), nil
	case int:
		return strconv.Itoa(val), nil
	case int64:
		return strconv.FormatInt(val, 10), nil
	default:
		b, err := json.Marshal(val)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
}
