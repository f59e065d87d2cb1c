package build

import (
	"errors"
	"fmt"
	"time"
)

// StepResult captures the outcome of building one target.
type StepResult struct {
	Target   Target
	Status   string // "success", "failed"
	Image    string // tag the image was built under
	Duration time.Duration
	Error    error
}

// BuildError is returned when the engine reports a failed build.
type BuildError struct {
	Tag string
	Err error
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("build %s failed: %v", e.Tag, e.Err)
}

func (e *BuildError) Unwrap() error { return e.Err }

// IsBuildError reports whether err is or wraps a *BuildError.
func IsBuildError(err error) bool {
	var be *BuildError
	return errors.As(err, &be)
}

func failed(result *StepResult, start time.Time, err error) (*StepResult, error) {
	result.Status = "failed"
	result.Duration = time.Since(start)
	result.Error = &BuildError{Tag: result.Target.Tag, Err: err}
	return result, result.Error
}

func succeeded(result *StepResult, start time.Time) (*StepResult, error) {
	result.Status = "success"
	result.Duration = time.Since(start)
	result.Image = result.Target.Tag
	return result, nil
}
