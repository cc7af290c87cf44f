// Package dberr the error kinds returned by the storage engine
package dberr

import (
	"errors"
	"fmt"
)

var (
	ErrDuplicateKey     = errors.New("duplicate key")
	ErrNotFound         = errors.New("record not found")
	ErrUnknownReference = errors.New("unknown reference")
	ErrRecordTooLarge   = errors.New("record too large for slot")
	ErrDecode           = errors.New("decode error")
	ErrIO               = errors.New("io error")
	ErrValidation       = errors.New("validation error")
)

// DecodeError corrupt framing at Offset.
//
// errors.Is(err, ErrDecode) holds for every DecodeError.
type DecodeError struct {
	Offset int64
	Reason string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode error at offset %d: %s", e.Offset, e.Reason)
}

func (e *DecodeError) Unwrap() error { return ErrDecode }

// Decode returns a DecodeError
func Decode(offset int64, format string, args ...any) error {
	return &DecodeError{Offset: offset, Reason: fmt.Sprintf(format, args...)}
}

// IO wraps a file system error, keeps both ErrIO and the cause matchable
func IO(op, path string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %s %s: %w", ErrIO, op, path, err)
}

// Validation returns an error matching ErrValidation
func Validation(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// Kind the taxonomy name of err, "" for nil
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrDuplicateKey):
		return "DuplicateKey"
	case errors.Is(err, ErrNotFound):
		return "NotFound"
	case errors.Is(err, ErrUnknownReference):
		return "UnknownReference"
	case errors.Is(err, ErrRecordTooLarge):
		return "RecordTooLarge"
	case errors.Is(err, ErrDecode):
		return "DecodeError"
	case errors.Is(err, ErrIO):
		return "IOError"
	case errors.Is(err, ErrValidation):
		return "ValidationError"
	}
	return "Error"
}
