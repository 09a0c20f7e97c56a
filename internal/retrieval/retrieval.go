// Package retrieval is the boundary to the external semantic index. The
// tutoring layer treats retrieval as an opaque collaborator: it asks for
// passages relevant to a query and merges whatever comes back into the
// prompt context.
package retrieval

import (
	"context"

	"github.com/rajyashhh/quill-bot/internal/types"
)

// Query scopes a retrieval request to a document and, optionally, a page
// range. Chapter-scoped queries pass the chapter's page boundaries so the
// index does not surface passages from elsewhere in the book.
type Query struct {
	DocumentID string
	Text       string
	StartPage  int // 0 = unbounded
	EndPage    int // 0 = unbounded
	Limit      int
}

// Retriever fetches relevant passages for a query. Implementations live
// outside this module; retrieval failures degrade the prompt rather than
// failing the interaction.
type Retriever interface {
	Retrieve(ctx context.Context, q Query) ([]types.Passage, error)
}
