package casestore

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// SearchResult answers "does process N exist?".
type SearchResult struct {
	ProcessNumber string `json:"process_number"`
	Identifier    string `json:"identifier"`
	Exists        bool   `json:"exists"`
}

// Page selects a window of a document listing. Limit 0 means no limit.
type Page struct {
	Limit  int `json:"limit,omitempty"`
	Offset int `json:"offset,omitempty"`
}

type DocumentList struct {
	ProcessNumber string     `json:"process_number"`
	Identifier    string     `json:"identifier"`
	DocumentType  string     `json:"document_type,omitempty"`
	Documents     []Document `json:"documents"`
	Total         int        `json:"total_number_of_documents"`
	Offset        int        `json:"offset,omitempty"`
}

// Lookup implements the three process lookup operations. Each call resolves
// the case again; nothing is cached between calls.
type Lookup struct {
	reader CaseReader
}

func NewLookup(reader CaseReader) (*Lookup, error) {
	if reader == nil {
		return nil, errors.New("case reader is required")
	}
	return &Lookup{reader: reader}, nil
}

// SearchProcess never fails for a missing case; it reports Exists=false.
func (l *Lookup) SearchProcess(ctx context.Context, processNumber string) (SearchResult, error) {
	n, err := ParseNumber(processNumber)
	if err != nil {
		return SearchResult{}, err
	}

	out := SearchResult{
		ProcessNumber: n.String(),
		Identifier:    n.FolderName(),
	}
	if _, err := l.reader.Resolve(ctx, n); err != nil {
		if errors.Is(err, ErrCaseNotFound) {
			return out, nil
		}
		return SearchResult{}, err
	}
	out.Exists = true
	return out, nil
}

// GetDocumentList returns ErrCaseNotFound for a missing case and an empty
// list for a case without documents.
func (l *Lookup) GetDocumentList(ctx context.Context, processNumber string, page Page) (DocumentList, error) {
	if page.Limit < 0 || page.Offset < 0 {
		return DocumentList{}, fmt.Errorf("%w: limit and offset must be >= 0", ErrInputFormat)
	}

	c, docs, err := l.load(ctx, processNumber)
	if err != nil {
		return DocumentList{}, err
	}

	return DocumentList{
		ProcessNumber: c.Number.String(),
		Identifier:    c.ID,
		Documents:     paginate(docs, page),
		Total:         len(docs),
		Offset:        page.Offset,
	}, nil
}

// GetDocumentsByType filters the full listing with MatchType, keeping order.
// No match is an empty list, not an error.
func (l *Lookup) GetDocumentsByType(ctx context.Context, processNumber string, documentType string) (DocumentList, error) {
	want := strings.TrimSpace(documentType)
	if want == "" {
		return DocumentList{}, fmt.Errorf("%w: document type is empty", ErrInputFormat)
	}

	c, docs, err := l.load(ctx, processNumber)
	if err != nil {
		return DocumentList{}, err
	}

	matched := make([]Document, 0, len(docs))
	for _, d := range docs {
		if MatchType(d.Type, want) {
			matched = append(matched, d)
		}
	}

	return DocumentList{
		ProcessNumber: c.Number.String(),
		Identifier:    c.ID,
		DocumentType:  want,
		Documents:     matched,
		Total:         len(matched),
	}, nil
}

func (l *Lookup) load(ctx context.Context, processNumber string) (Case, []Document, error) {
	n, err := ParseNumber(processNumber)
	if err != nil {
		return Case{}, nil, err
	}
	c, err := l.reader.Resolve(ctx, n)
	if err != nil {
		return Case{}, nil, err
	}
	docs, err := l.reader.ListDocuments(ctx, c)
	if err != nil {
		return Case{}, nil, err
	}
	if docs == nil {
		docs = []Document{}
	}
	return c, docs, nil
}

func paginate(docs []Document, page Page) []Document {
	if page.Offset >= len(docs) {
		return []Document{}
	}
	end := len(docs)
	if page.Limit > 0 && page.Limit < end-page.Offset {
		end = page.Offset + page.Limit
	}
	return docs[page.Offset:end]
}
