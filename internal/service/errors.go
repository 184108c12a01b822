package service

import "errors"

// Sentinel errors for service operations.
var (
	ErrServerNotFound   = errors.New("server not found")
	ErrInstanceNotFound = errors.New("instance not found")
	ErrInvalidInput     = errors.New("invalid input")
	ErrPathRequired     = errors.New("a config path is required for this client")
	// ErrRestoreNotImplemented is the fixed answer of RestoreBackup.
	ErrRestoreNotImplemented = errors.New("Restore not yet implemented")
)
