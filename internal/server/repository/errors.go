// Package repository holds what the document backends share.
package repository

import "errors"

// Document names known to every backend.
const (
	AccountsDocument = "accounts"
	SessionsDocument = "sessions"
)

// ErrDocumentNotFound is returned when a document has never been written.
var ErrDocumentNotFound = errors.New("document not found")

// ErrUnknownDocument is returned for a document name the backend has no slot for.
var ErrUnknownDocument = errors.New("unknown document")
