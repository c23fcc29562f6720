package ingest

import (
	"context"
	"fmt"

	"github.com/nerrad567/influxlog/internal/appender"
)

// Deliverer accepts one event at a time. *appender.Appender satisfies it.
type Deliverer interface {
	Deliver(ctx context.Context, ev appender.Event)
}

// Dispatcher decodes payloads and hands every record to a Deliverer in
// payload order.
//
// Thread Safety:
//   - Dispatch is safe for concurrent use; it holds no state of its own.
type Dispatcher struct {
	target Deliverer
	errors appender.ErrorHandler
}

// NewDispatcher creates a Dispatcher. A nil error handler discards reports.
func NewDispatcher(target Deliverer, errs appender.ErrorHandler) *Dispatcher {
	if errs == nil {
		errs = appender.ErrorHandlerFunc(func(string) {})
	}
	return &Dispatcher{target: target, errors: errs}
}

// Dispatch decodes payload and delivers each record. source names the
// origin (topic or subject) in error reports.
//
// Returns:
//   - int: Number of records delivered
//   - error: ErrInvalidPayload when nothing could be decoded
func (d *Dispatcher) Dispatch(ctx context.Context, source string, payload []byte) (int, error) {
	records, err := appender.DecodeRecords(payload)
	if err != nil {
		err = fmt.Errorf("%w from %s: %w", ErrInvalidPayload, source, err)
		d.errors.Report(fmt.Sprintf("Error decoding log records from %s: %v", source, err))
		return 0, err
	}

	for _, rec := range records {
		d.target.Deliver(ctx, rec)
	}
	return len(records), nil
}
