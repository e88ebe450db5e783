package operations

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

var ErrReportNotFound = errors.New("report not found")

// Report records one execution of an operation: what ran, with which input, what it produced
// and how long it took over how many attempts.
type Report[IN, OUT any] struct {
	ID        string        `json:"id"`
	Def       Definition    `json:"definition"`
	Input     IN            `json:"input"`
	Output    OUT           `json:"output"`
	StartedAt time.Time     `json:"startedAt"`
	Duration  time.Duration `json:"duration"`
	Attempts  uint          `json:"attempts"`
	Err       *ReportError  `json:"error,omitempty"`
}

// NewReport creates a report of an execution that started at startedAt and ends now.
func NewReport[IN, OUT any](
	def Definition, input IN, output OUT, startedAt time.Time, attempts uint, err error,
) Report[IN, OUT] {
	r := Report[IN, OUT]{
		ID:        uuid.New().String(),
		Def:       def,
		Input:     input,
		Output:    output,
		StartedAt: startedAt,
		Duration:  time.Since(startedAt),
		Attempts:  attempts,
	}
	if err != nil {
		r.Err = &ReportError{Message: err.Error()}
	}

	return r
}

// Failed reports whether the execution ended with an error.
func (r Report[IN, OUT]) Failed() bool {
	return r.Err != nil
}

// ToGenericReport erases the input and output types.
func (r Report[IN, OUT]) ToGenericReport() Report[any, any] {
	return Report[any, any]{
		ID:        r.ID,
		Def:       r.Def,
		Input:     r.Input,
		Output:    r.Output,
		StartedAt: r.StartedAt,
		Duration:  r.Duration,
		Attempts:  r.Attempts,
		Err:       r.Err,
	}
}

// ReportError is the JSON form of the error an operation failed with.
type ReportError struct {
	Message string `json:"message"`
}

// Error implements the error interface.
func (o ReportError) Error() string {
	return o.Message
}

// Reporter stores the reports of a combination.
type Reporter interface {
	AddReport(report Report[any, any]) error
	GetReport(id string) (Report[any, any], error)
	GetReports() ([]Report[any, any], error)
}

// MemoryReporter keeps reports in memory in the order they were added. It is safe for concurrent
// use.
type MemoryReporter struct {
	mu      sync.RWMutex
	reports []Report[any, any]
}

// NewMemoryReporter creates an empty MemoryReporter.
func NewMemoryReporter() *MemoryReporter {
	return &MemoryReporter{}
}

// AddReport appends report.
func (e *MemoryReporter) AddReport(report Report[any, any]) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.reports = append(e.reports, report)

	return nil
}

// GetReports returns every report in insertion order.
func (e *MemoryReporter) GetReports() ([]Report[any, any], error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	reports := make([]Report[any, any], len(e.reports))
	copy(reports, e.reports)

	return reports, nil
}

// GetReport returns the report with id, or ErrReportNotFound.
func (e *MemoryReporter) GetReport(id string) (Report[any, any], error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	for _, report := range e.reports {
		if report.ID == id {
			return report, nil
		}
	}

	return Report[any, any]{}, fmt.Errorf("report %s: %w", id, ErrReportNotFound)
}

// ByOperation returns the reports of the operation with operationID in insertion order.
func (e *MemoryReporter) ByOperation(operationID string) []Report[any, any] {
	e.mu.RLock()
	defer e.mu.RUnlock()

	var out []Report[any, any]
	for _, report := range e.reports {
		if report.Def.ID == operationID {
			out = append(out, report)
		}
	}

	return out
}
