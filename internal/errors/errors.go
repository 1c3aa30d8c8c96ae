package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
)

// Kind classifies a pipeline failure
type Kind string

const (
	KindMissingFile   Kind = "missing_file"
	KindMissingColumn Kind = "missing_column"
	KindMalformedRow  Kind = "malformed_row"
	KindWriteFailed   Kind = "write_failed"
	KindConfigInvalid Kind = "config_invalid"
)

// PipelineError is a fatal, user-visible failure at the file boundary.
// Degenerate data never produces one.
type PipelineError struct {
	Kind    Kind   `json:"kind"`
	Step    string `json:"step,omitempty"`
	Path    string `json:"path,omitempty"`
	Row     int    `json:"row,omitempty"` // 1-based line in the source file
	Column  string `json:"column,omitempty"`
	Message string `json:"message"`
	Cause   error  `json:"-"`
}

// Error implements the error interface
func (e *PipelineError) Error() string {
	if e == nil {
		return "unknown pipeline error"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "[%s]", e.Kind)
	if e.Step != "" {
		fmt.Fprintf(&b, " %s:", e.Step)
	}
	b.WriteString(" ")
	b.WriteString(e.Message)
	if e.Path != "" {
		fmt.Fprintf(&b, " (file %s", e.Path)
		if e.Row > 0 {
			fmt.Fprintf(&b, ", line %d", e.Row)
		}
		if e.Column != "" {
			fmt.Fprintf(&b, ", column %s", e.Column)
		}
		b.WriteString(")")
	}
	if e.Cause != nil {
		fmt.Fprintf(&b, ": %v", e.Cause)
	}
	return b.String()
}

// Unwrap returns the underlying error
func (e *PipelineError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// Is matches another PipelineError of the same kind
func (e *PipelineError) Is(target error) bool {
	t, ok := target.(*PipelineError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Message == ""
}

// Sentinels for errors.Is checks by kind
var (
	ErrMissingFile   = &PipelineError{Kind: KindMissingFile}
	ErrMissingColumn = &PipelineError{Kind: KindMissingColumn}
	ErrMalformedRow  = &PipelineError{Kind: KindMalformedRow}
	ErrWriteFailed   = &PipelineError{Kind: KindWriteFailed}
	ErrConfigInvalid = &PipelineError{Kind: KindConfigInvalid}
)

// NewMissingFileError creates an error for an input file that cannot be opened
func NewMissingFileError(path string, cause error) *PipelineError {
	return &PipelineError{
		Kind:    KindMissingFile,
		Step:    "load",
		Path:    path,
		Message: "input file not found",
		Cause:   cause,
	}
}

// NewMissingColumnError creates an error listing every absent required column
func NewMissingColumnError(path string, columns []string) *PipelineError {
	return &PipelineError{
		Kind:    KindMissingColumn,
		Step:    "load",
		Path:    path,
		Column:  strings.Join(columns, ","),
		Message: fmt.Sprintf("missing required columns: %s", strings.Join(columns, ", ")),
	}
}

// NewMalformedRowError creates an error for a row that cannot be parsed
func NewMalformedRowError(path string, row int, column string, cause error) *PipelineError {
	return &PipelineError{
		Kind:    KindMalformedRow,
		Step:    "load",
		Path:    path,
		Row:     row,
		Column:  column,
		Message: "malformed row",
		Cause:   cause,
	}
}

// NewWriteError creates an error for a failed output write
func NewWriteError(step, path string, cause error) *PipelineError {
	return &PipelineError{
		Kind:    KindWriteFailed,
		Step:    step,
		Path:    path,
		Message: "failed to write output",
		Cause:   cause,
	}
}

// NewConfigError creates a configuration validation error
func NewConfigError(message string, cause error) *PipelineError {
	return &PipelineError{
		Kind:    KindConfigInvalid,
		Step:    "config",
		Message: message,
		Cause:   cause,
	}
}

// IsKind reports whether err wraps a PipelineError of the given kind
func IsKind(err error, kind Kind) bool {
	var pe *PipelineError
	if stderrors.As(err, &pe) {
		return pe.Kind == kind
	}
	return false
}

// KindOf returns the kind of the first PipelineError in err's chain
func KindOf(err error) (Kind, bool) {
	var pe *PipelineError
	if stderrors.As(err, &pe) {
		return pe.Kind, true
	}
	return "", false
}
