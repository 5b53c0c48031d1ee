package store

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrConflict          = errors.New("conflict")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrNoFields          = errors.New("no valid fields provided for update")
	ErrValidation        = errors.New("validation failed")
	ErrCommitFailed      = errors.New("transaction failed to record")
)

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError collects every rejected field of one request.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Add(field, message string) {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
}

func (e *ValidationError) Addf(field, format string, args ...any) {
	e.Add(field, fmt.Sprintf(format, args...))
}

// OrNil returns nil when nothing was collected.
func (e *ValidationError) OrNil() error {
	if e == nil || len(e.Fields) == 0 {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return ErrValidation.Error()
	}
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		if f.Field == "" {
			parts = append(parts, f.Message)
			continue
		}
		parts = append(parts, f.Field+": "+f.Message)
	}
	return ErrValidation.Error() + ": " + strings.Join(parts, "; ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

type CommitStep string

const (
	StepBegin             CommitStep = "begin"
	StepInsertTransaction CommitStep = "insert_transaction"
	StepAdjustStock       CommitStep = "adjust_stock"
	StepInsertLineItem    CommitStep = "insert_line_item"
	StepEncodeReceipt     CommitStep = "encode_receipt"
	StepInsertReceipt     CommitStep = "insert_receipt"
	StepCommit            CommitStep = "commit"
)

// CommitError reports the step at which a transaction commit was rolled back.
type CommitError struct {
	Step CommitStep
	Err  error
}

func (e *CommitError) Error() string {
	return fmt.Sprintf("%s at %s: %v", ErrCommitFailed.Error(), e.Step, e.Err)
}

func (e *CommitError) Unwrap() error { return e.Err }

func (e *CommitError) Is(target error) bool {
	return target == ErrCommitFailed
}

// StorageError wraps a driver failure outside of a commit.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }
