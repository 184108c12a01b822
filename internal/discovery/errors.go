package discovery

import (
	"errors"
	"fmt"
	"os"
	"syscall"
)

// BindKind classifies why the endpoint could not bind.
type BindKind int

const (
	BindOther BindKind = iota
	BindInUse
	BindPermission
)

func (k BindKind) String() string {
	switch k {
	case BindInUse:
		return "in use"
	case BindPermission:
		return "permission denied"
	default:
		return "other"
	}
}

// BindError is returned by Start when the listener cannot be created.
type BindError struct {
	Kind BindKind
	Port uint16
	Err  error
}

func (e *BindError) Error() string {
	return fmt.Sprintf("failed to bind to port %d (%s): %v", e.Port, e.Kind, e.Err)
}

func (e *BindError) Unwrap() error { return e.Err }

func newBindError(port uint16, err error) *BindError {
	kind := BindOther
	switch {
	case errors.Is(err, syscall.EADDRINUSE):
		kind = BindInUse
	case errors.Is(err, os.ErrPermission):
		kind = BindPermission
	}
	return &BindError{Kind: kind, Port: port, Err: err}
}
