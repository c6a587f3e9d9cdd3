package env

import (
	"errors"
	"io/fs"
	"syscall"
)

// Code is the stable integer form of a query error as stored in event logs.
type Code int32

const (
	CodeOK         Code = 0
	CodeNotExist   Code = 1
	CodePermission Code = 2
	CodeIsDir      Code = 3
	CodeOther      Code = 255
)

// errOther stands in for errors that have no portable code.
var errOther = errors.New("environment query failed")

// CodeOf maps err to its log code.
func CodeOf(err error) Code {
	switch {
	case err == nil:
		return CodeOK
	case errors.Is(err, fs.ErrNotExist):
		return CodeNotExist
	case errors.Is(err, fs.ErrPermission):
		return CodePermission
	case errors.Is(err, syscall.EISDIR):
		return CodeIsDir
	default:
		return CodeOther
	}
}

// ErrorFor rebuilds an error for a recorded code so that errors.Is keeps
// working for callers during replay. CodeOK yields nil.
func ErrorFor(code Code, op, path string) error {
	var err error
	switch code {
	case CodeOK:
		return nil
	case CodeNotExist:
		err = fs.ErrNotExist
	case CodePermission:
		err = fs.ErrPermission
	case CodeIsDir:
		err = syscall.EISDIR
	default:
		err = errOther
	}
	return &fs.PathError{Op: op, Path: path, Err: err}
}
