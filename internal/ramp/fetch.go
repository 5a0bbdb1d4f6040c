package ramp

import (
	"context"

	"github.com/dvloznov/ramp-bills/internal/domain"
	apperrors "github.com/dvloznov/ramp-bills/internal/errors"
	"github.com/dvloznov/ramp-bills/internal/logger"
)

// FetchAll concatenates the data arrays of every page reachable from
// startURL, in visit order.
//
// With ContinueOnError a failed page ends the walk and the records gathered
// so far are returned without an error. The result is then silently short;
// the warning log is the only signal. A failed first page is always an
// error, since there is nothing to continue with (an expired token looks
// like this). AbortOnError returns any failure and no records.
func FetchAll(ctx context.Context, client *Client, startURL string, policy domain.FailurePolicy) ([]domain.Record, error) {
	log := logger.FromContext(ctx)

	pager, err := NewPager(client, startURL)
	if err != nil {
		return nil, apperrors.WrapError(err, apperrors.ErrHTTPRequestFailed, "start pagination")
	}

	var all []domain.Record
	for {
		page, err := pager.Next(ctx)
		if page != nil {
			all = append(all, page.Data...)
			log.Info().
				Str("url", page.URL).
				Int("records", len(page.Data)).
				Msg("Successfully fetched page")
		}
		if err != nil {
			ev := log.Error().Err(err).Int("pages_fetched", pager.Visited()).Int("records_so_far", len(all))
			var serr *StatusError
			if apperrors.As(err, &serr) {
				ev = ev.Str("url", serr.URL).Int("status", serr.StatusCode).Str("body", serr.Body)
			}
			ev.Msg("Failed to fetch page")

			if policy == domain.AbortOnError {
				return nil, apperrors.WrapError(err, apperrors.ErrHTTPRequestFailed, "fetch bills")
			}
			if pager.Visited() == 0 {
				return nil, apperrors.WrapError(err, apperrors.ErrHTTPRequestFailed, "first page")
			}
			log.Warn().Int("records", len(all)).Msg("Pagination stopped early; continuing with a truncated dataset")
			return all, nil
		}
		if page == nil {
			break
		}
	}

	log.Info().Int("pages", pager.Visited()).Int("records", len(all)).Msg("Fetched all pages")
	return all, nil
}
