package app

import "time"

// Operation tracks the CLI command being run. Its ID tags every log line of
// the run and its status is logged when the app closes.
type Operation struct {
	ID     string
	Name   string
	Status string // "success" or "error"
	Err    error
}

// NewOperation creates an operation named after the CLI command
// (e.g. "Feed", "Status"), identified by its UTC start time.
func NewOperation(name string, started time.Time) *Operation {
	return &Operation{
		ID:     started.UTC().Format("20060102T150405Z"),
		Name:   name,
		Status: "success",
	}
}

// Record marks the operation failed when err is non-nil and returns err.
// The first failure is kept.
func (op *Operation) Record(err error) error {
	if err != nil && op.Err == nil {
		op.Status = "error"
		op.Err = err
	}
	return err
}

// Failed reports whether any step of the operation failed.
func (op *Operation) Failed() bool {
	return op.Err != nil
}
