package store

import (
	"context"
	"errors"
)

// ErrNotFound is returned for documents the store does not hold. Document
// creation and deletion belong to the surrounding CRUD system; this layer
// only reads and updates existing content.
var ErrNotFound = errors.New("document not found")

// DocumentStore loads and saves full document content by id.
type DocumentStore interface {
	Load(ctx context.Context, id string) (string, error)
	// Save replaces the content of an existing document. It returns
	// ErrNotFound if the document was deleted out from under the editor.
	Save(ctx context.Context, id string, content string) error
}
