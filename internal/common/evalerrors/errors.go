// Package evalerrors contains the error types shared across the evaluation
// engine. Callers branch on these types rather than on error strings.
package evalerrors

import (
	"errors"
	"fmt"

	"github.com/hashicorp/go-multierror"
)

// ErrNotFound indicates that a resource of some Type with some Value as its
// identifier does not exist.
type ErrNotFound struct {
	Type  string
	Value string
	// Optional extra detail.
	Message string
}

func (err *ErrNotFound) Error() string {
	if err.Message == "" {
		return fmt.Sprintf("%s with identifier %s does not exist", err.Type, err.Value)
	}
	return fmt.Sprintf("%s with identifier %s does not exist; %s", err.Type, err.Value, err.Message)
}

// IsNotFound unwraps err looking for an ErrNotFound.
func IsNotFound(err error) bool {
	var notFound *ErrNotFound
	return errors.As(err, &notFound)
}

// ErrInvalidArgument indicates that a provided value is invalid, e.g. if it
// is out of range or has the wrong shape.
type ErrInvalidArgument struct {
	// Name of the field referred to.
	Name string
	// The invalid value.
	Value interface{}
	// Why the value is invalid.
	Message string
}

func (err *ErrInvalidArgument) Error() string {
	return fmt.Sprintf("value %v of field %s is invalid; %s", err.Value, err.Name, err.Message)
}

// ErrCapacityExceeded indicates that a bounded resource is exhausted, e.g.
// that the subscriber connection registry is full.
type ErrCapacityExceeded struct {
	Type  string
	Limit int
	// Optional extra detail.
	Message string
}

func (err *ErrCapacityExceeded) Error() string {
	if err.Message == "" {
		return fmt.Sprintf("%s capacity of %d exceeded", err.Type, err.Limit)
	}
	return fmt.Sprintf("%s capacity of %d exceeded; %s", err.Type, err.Limit, err.Message)
}

// JobFailedError ties the failure of one job to its name so batch-level
// aggregate errors can enumerate which jobs failed.
type JobFailedError struct {
	JobName string
	Err     error
}

func (err *JobFailedError) Error() string {
	return fmt.Sprintf("job %s failed: %s", err.JobName, err.Err)
}

func (err *JobFailedError) Unwrap() error {
	return err.Err
}

// FailedJobNames extracts the names of all failed jobs recorded in err,
// which may be a multierror aggregate. Returns nil if err is nil or carries
// no JobFailedError.
func FailedJobNames(err error) []string {
	if err == nil {
		return nil
	}
	var names []string
	var agg *multierror.Error
	if errors.As(err, &agg) {
		for _, wrapped := range agg.Errors {
			var jobErr *JobFailedError
			if errors.As(wrapped, &jobErr) {
				names = append(names, jobErr.JobName)
			}
		}
		return names
	}
	var jobErr *JobFailedError
	if errors.As(err, &jobErr) {
		names = append(names, jobErr.JobName)
	}
	return names
}
