package internal

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyMessage            = errors.New("message is empty")
	ErrSessionNotFound         = errors.New("session not found")
	ErrUnsupportedDocumentType = errors.New("only PDF files are allowed")
	ErrEmptyDocument           = errors.New("document is empty")
	ErrInvalidCredentials      = errors.New("invalid credentials")
	ErrAdminRequired           = errors.New("administrator sign-in required")
	ErrAdminNotConfigured      = errors.New("administrator credentials are not configured")
	ErrUnsupportedLanguage     = errors.New("unsupported language")
	ErrNoEndpoint              = errors.New("no assistant endpoint configured")
)

// IsValidationError reports whether err is a local rejection that happened
// before any state was mutated or any request was sent.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrEmptyMessage) ||
		errors.Is(err, ErrUnsupportedDocumentType) ||
		errors.Is(err, ErrEmptyDocument) ||
		errors.Is(err, ErrUnsupportedLanguage)
}

// StorageError represents a failure of the durable store
type StorageError struct {
	Namespace string
	Key       string
	Op        string // "open", "read", "write", "delete", "list"
	Err       error
}

func (e *StorageError) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("storage error: %s %s: %v", e.Op, e.Namespace, e.Err)
	}
	return fmt.Sprintf("storage error: %s %s/%s: %v", e.Op, e.Namespace, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// ParseError represents errors parsing data
type ParseError struct {
	Source string // "workflow", "document", "config"
	Key    string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error [%s] %s: %v", e.Source, e.Key, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// DispatchError represents a failed call to the assistant workflow
type DispatchError struct {
	Status int // HTTP status, 0 when no response was received
	Err    error
}

func (e *DispatchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("workflow error: status %d: %v", e.Status, e.Err)
	}
	return fmt.Sprintf("workflow error: %v", e.Err)
}

func (e *DispatchError) Unwrap() error {
	return e.Err
}

// ExportError represents errors during export
type ExportError struct {
	Format string
	Path   string
	Err    error
}

func (e *ExportError) Error() string {
	return fmt.Sprintf("export error [%s] %s: %v", e.Format, e.Path, e.Err)
}

func (e *ExportError) Unwrap() error {
	return e.Err
}
