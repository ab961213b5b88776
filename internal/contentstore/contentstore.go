// Package contentstore defines the collaborator surface the publish
// pipeline consumes from the external content-management datastore,
// plus an HTTP client for a remote content API. The store itself is
// not part of this system.
package contentstore

import (
	"context"
	"errors"
)

// ErrRemote is wrapped around any failure reported by the remote
// content store. All such failures are transient from the worker's
// point of view and count against the task retry budget.
var ErrRemote = errors.New("content store error")

// Document is the record handed to the content store for insertion.
type Document struct {
	Title   string            `json:"title"`
	Body    string            `json:"body"`
	Excerpt string            `json:"excerpt,omitempty"`
	Status  string            `json:"status"`
	Type    string            `json:"type"`
	Author  string            `json:"author,omitempty"`
	Meta    map[string]string `json:"meta,omitempty"`
}

// DocumentRef identifies a stored document and its addressable URLs.
type DocumentRef struct {
	ID        string `json:"id"`
	PublicURL string `json:"public_url"`
	EditURL   string `json:"edit_url"`
}

// ContentStore is the capability surface consumed by the task worker.
type ContentStore interface {
	// InsertDocument persists a document and returns its reference.
	InsertDocument(ctx context.Context, doc Document) (*DocumentRef, error)

	// AttachMedia stores raw media bytes and returns the media ID.
	// The filename hint carries the inferred extension.
	AttachMedia(ctx context.Context, data []byte, filenameHint string) (string, error)

	// SetPrimaryImage marks a media attachment as the document's
	// primary image.
	SetPrimaryImage(ctx context.Context, docID, mediaID string) error

	// EnsureTaxonomyTerms creates-or-reuses category terms by exact
	// name match and returns their IDs in input order.
	EnsureTaxonomyTerms(ctx context.Context, names []string) ([]string, error)

	// SetTags applies tag names to a document, creating missing tags.
	SetTags(ctx context.Context, docID string, names []string) error

	// SetCategories assigns category term IDs to a document.
	SetCategories(ctx context.Context, docID string, ids []string) error
}
