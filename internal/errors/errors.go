package errors

import (
	"errors"
	"fmt"
	"io/fs"
	"syscall"
)

// ErrorType categorises application errors.
type ErrorType string

const (
	ErrorTypeParsing    ErrorType = "PARSING"
	ErrorTypeFilename   ErrorType = "FILENAME"
	ErrorTypeStorage    ErrorType = "STORAGE"
	ErrorTypeConfig     ErrorType = "CONFIG"
	ErrorTypeNotFound   ErrorType = "NOT_FOUND"
	ErrorTypePermission ErrorType = "PERMISSION"
	ErrorTypeInternal   ErrorType = "INTERNAL"
)

// Sentinel errors shared across packages.
var (
	ErrFilenamePattern = errors.New("file name does not match class/week pattern")
	ErrNoSheet         = errors.New("workbook has no worksheet")
	ErrInvalidConfig   = errors.New("invalid configuration")
	ErrWeekNotFound    = errors.New("week not found")
)

// AppError is a typed error carrying optional context for logs.
type AppError struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// WithContext adds a key-value pair and returns the same error.
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// NewAppError creates a new application error
func NewAppError(errType ErrorType, message string, cause error) *AppError {
	return &AppError{Type: errType, Message: message, Cause: cause}
}

// NewStorageError wraps a summary workbook failure.
func NewStorageError(path string, cause error) *AppError {
	return NewAppError(ErrorTypeStorage, "summary store failed", cause).WithContext("path", path)
}

// NewConfigError wraps a configuration failure around ErrInvalidConfig.
func NewConfigError(message string, cause error) *AppError {
	if cause == nil {
		cause = ErrInvalidConfig
	} else {
		cause = fmt.Errorf("%w: %w", ErrInvalidConfig, cause)
	}
	return NewAppError(ErrorTypeConfig, message, cause)
}

// IsType reports whether err is an AppError of the given type.
func IsType(err error, errType ErrorType) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Type == errType
}

// Stage names the pipeline step where a file failed.
type Stage string

const (
	StageDiscover Stage = "discover"
	StageParse    Stage = "parse"
	StageAnalyze  Stage = "analyze"
	StageWrite    Stage = "write"
	StageIngest   Stage = "ingest"
)

// ProcessingError reports a failure for one input file.
type ProcessingError struct {
	Stage Stage
	File  string
	Cause error
}

// NewProcessingError wraps cause with the failing stage and file.
func NewProcessingError(stage Stage, file string, cause error) *ProcessingError {
	return &ProcessingError{Stage: stage, File: file, Cause: cause}
}

func (e *ProcessingError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Stage, e.File, e.Cause)
}

func (e *ProcessingError) Unwrap() error {
	return e.Cause
}

// IsTransient reports whether the failure is likely to clear on its own,
// such as a file still being written or locked by the spreadsheet editor.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, fs.ErrNotExist) ||
		errors.Is(err, fs.ErrPermission) ||
		errors.Is(err, syscall.EBUSY) ||
		errors.Is(err, syscall.EAGAIN)
}
