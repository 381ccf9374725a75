package errors

import (
	"errors"
	"fmt"
)

// ElementNotFoundError is returned when a named or numbered asset does not exist.
type ElementNotFoundError struct {
	Element string
}

func NewElementNotFoundError(element any) *ElementNotFoundError {
	return &ElementNotFoundError{Element: fmt.Sprint(element)}
}

func (e *ElementNotFoundError) Error() string {
	return fmt.Sprintf("Element '%s' not found.", e.Element)
}

func IsElementNotFoundError(err error) bool {
	var e *ElementNotFoundError
	return errors.As(err, &e)
}

// InvalidFormatError is returned for malformed payloads.
type InvalidFormatError struct {
	Reason string
}

func NewInvalidFormatError(format string, args ...any) *InvalidFormatError {
	return &InvalidFormatError{Reason: fmt.Sprintf(format, args...)}
}

func (e *InvalidFormatError) Error() string {
	return fmt.Sprintf("invalid format: %s", e.Reason)
}

// WrongMessageTypeError is returned when a message kind does not match the decoder.
type WrongMessageTypeError struct {
	Expected string
	Got      string
}

func NewWrongMessageTypeError(expected, got string) *WrongMessageTypeError {
	return &WrongMessageTypeError{Expected: expected, Got: got}
}

func (e *WrongMessageTypeError) Error() string {
	return fmt.Sprintf("wrong message type: expected %q, got %q", e.Expected, e.Got)
}

func IsWrongMessageTypeError(err error) bool {
	var e *WrongMessageTypeError
	return errors.As(err, &e)
}

// IsInvalidFormatError reports malformed input, wrong message kinds included.
func IsInvalidFormatError(err error) bool {
	var e *InvalidFormatError
	return errors.As(err, &e) || IsWrongMessageTypeError(err)
}

// ConflictError is returned when a uniqueness rule rejects a write.
type ConflictError struct {
	Element string
	Err     error
}

func NewConflictError(element string, err error) *ConflictError {
	return &ConflictError{Element: element, Err: err}
}

func (e *ConflictError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("element '%s' already exists or was modified concurrently: %v", e.Element, e.Err)
	}
	return fmt.Sprintf("element '%s' already exists or was modified concurrently", e.Element)
}

func (e *ConflictError) Unwrap() error {
	return e.Err
}

func IsConflictError(err error) bool {
	var e *ConflictError
	return errors.As(err, &e)
}

// CycleDetectedError is returned when a hierarchy or power walk does not terminate.
type CycleDetectedError struct {
	AssetID int64
	Steps   int
}

func NewCycleDetectedError(assetID int64, steps int) *CycleDetectedError {
	return &CycleDetectedError{AssetID: assetID, Steps: steps}
}

func (e *CycleDetectedError) Error() string {
	return fmt.Sprintf("cycle detected while walking from asset %d: no root after %d steps", e.AssetID, e.Steps)
}

func IsCycleDetectedError(err error) bool {
	var e *CycleDetectedError
	return errors.As(err, &e)
}

// InternalError wraps storage and transport failures.
type InternalError struct {
	Op  string
	Err error
}

func NewInternalError(op string, err error) *InternalError {
	return &InternalError{Op: op, Err: err}
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("internal error during %s: %v", e.Op, e.Err)
}

func (e *InternalError) Unwrap() error {
	return e.Err
}

func IsInternalError(err error) bool {
	var e *InternalError
	return errors.As(err, &e)
}
