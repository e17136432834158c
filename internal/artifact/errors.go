package artifact

import "fmt"

type Stage string

const (
	StageValue  Stage = "value"
	StageDecode Stage = "decode"
	StageUTF8   Stage = "utf8"
	StageJSON   Stage = "json"
	StageWrite  Stage = "write"
)

// FieldError is raised when a single artifact could not be decoded or
// written. It never escapes the Persister, and is only reported via
// the Report and the log.
type FieldError struct {
	Field string
	Stage Stage
	Err   error
}

func (err *FieldError) Error() string {
	return fmt.Sprintf("artifact %s failed at %s stage: %v", err.Field, err.Stage, err.Err)
}

func (err *FieldError) Unwrap() error { return err.Err }

func newFieldError(field string, stage Stage, err error) *FieldError {
	return &FieldError{Field: field, Stage: stage, Err: err}
}
