package ofs

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrFieldAlreadyExists is returned when adding a field under a key
	// that already holds a live field.
	ErrFieldAlreadyExists = errors.New("field already exists")

	// ErrFieldDoesNotExist is returned when borrowing or removing a field
	// that was never added, or has already been removed.
	ErrFieldDoesNotExist = errors.New("field does not exist")

	// ErrFieldTypeMismatch is returned when the caller's type argument
	// does not exactly match the stored type. This indicates a wrong
	// generic instantiation at the call site, not data corruption.
	ErrFieldTypeMismatch = errors.New("field type mismatch")

	// ErrNotEmpty is returned by DestroyEmpty on a collection that still
	// holds entries.
	ErrNotEmpty = errors.New("collection not empty")

	// ErrInvalidUpgrade is returned when a version change capability does
	// not match the container, has already been consumed, or the new
	// version does not progress past the captured one.
	ErrInvalidUpgrade = errors.New("invalid version upgrade")

	// ErrStoreClosed is returned by Store.BeginTx after Close.
	ErrStoreClosed = errors.New("store closed")
)

type DataError struct {
	Data []byte
	Err  error
	Msg  string
}

func dataErrf(data []byte, err error, format string, args ...any) error {
	return &DataError{data, err, fmt.Sprintf(format, args...)}
}

func (e *DataError) Unwrap() error {
	return e.Err
}

func (e *DataError) Error() string {
	const prefixLen = 64
	const suffixLen = 32
	n := len(e.Data)
	if n <= prefixLen+suffixLen {
		if e.Err != nil {
			return fmt.Sprintf("%s: %v: (%d) %x", e.Msg, e.Err, n, e.Data)
		} else {
			return fmt.Sprintf("%s: (%d) %x", e.Msg, n, e.Data)
		}
	} else {
		p, s := e.Data[:prefixLen], e.Data[n-suffixLen:]
		if e.Err != nil {
			return fmt.Sprintf("%s: %v: (%d) %x...%x", e.Msg, e.Err, n, p, s)
		} else {
			return fmt.Sprintf("%s: (%d) %x...%x", e.Msg, n, p, s)
		}
	}
}

// FieldError wraps a field operation failure with the parent address and
// key it happened under.
type FieldError struct {
	Parent Addr
	Key    any
	Msg    string
	Err    error
}

func fieldErrf(parent Addr, key any, err error, format string, args ...any) error {
	return &FieldError{parent, key, fmt.Sprintf(format, args...), err}
}

func fieldErr(parent Addr, key any, err error) error {
	return &FieldError{parent, key, "", err}
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

func (e *FieldError) Error() string {
	var buf strings.Builder
	buf.WriteString(e.Parent.Short())
	buf.WriteByte('/')
	fmt.Fprintf(&buf, "%v", e.Key)
	if e.Msg != "" {
		buf.WriteString(": ")
		buf.WriteString(e.Msg)
		if e.Err != nil {
			buf.WriteString(": ")
			buf.WriteString(e.Err.Error())
		}
	} else if e.Err != nil {
		buf.WriteString(": ")
		buf.WriteString(e.Err.Error())
	}
	return buf.String()
}

// ContainerError wraps a container-level failure (bad metadata, destroy
// on a non-empty collection, upgrade protocol violations).
type ContainerError struct {
	Handle Addr
	Kind   string
	Msg    string
	Err    error
}

func containerErrf(handle Addr, kind string, err error, format string, args ...any) error {
	return &ContainerError{handle, kind, fmt.Sprintf(format, args...), err}
}

func (e *ContainerError) Unwrap() error {
	return e.Err
}

func (e *ContainerError) Error() string {
	var buf strings.Builder
	buf.WriteString(e.Kind)
	buf.WriteByte('(')
	buf.WriteString(e.Handle.Short())
	buf.WriteByte(')')
	if e.Msg != "" {
		buf.WriteString(": ")
		buf.WriteString(e.Msg)
		if e.Err != nil {
			buf.WriteString(": ")
			buf.WriteString(e.Err.Error())
		}
	} else if e.Err != nil {
		buf.WriteString(": ")
		buf.WriteString(e.Err.Error())
	}
	return buf.String()
}
