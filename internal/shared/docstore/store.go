package docstore

import (
	"context"
	"encoding/json"
	"regexp"
	"time"

	apperrors "github.com/reshetovitsme/askanon/internal/shared/errors"
	"github.com/samber/oops"
)

// Document is a schemaless record stored in a named collection
type Document struct {
	ID        string         `json:"id"`
	CreatedAt *time.Time     `json:"createdAt,omitempty"`
	Fields    map[string]any `json:"fields"`
}

// String returns the field as a string, or "" when it is missing or not a string
func (d *Document) String(field string) string {
	if d == nil || d.Fields == nil {
		return ""
	}
	s, _ := d.Fields[field].(string)
	return s
}

// Filter matches documents whose field equals Value
type Filter struct {
	Field string
	Value string
}

// Query narrows a List call
type Query struct {
	Filters []Filter
	// OrderByCreatedAt sorts by the server timestamp and drops documents that have none
	OrderByCreatedAt bool
	Descending       bool
	Limit            int
}

// Where appends an equality filter
func (q Query) Where(field, value string) Query {
	q.Filters = append(q.Filters, Filter{Field: field, Value: value})
	return q
}

// OrderByCreated orders results by createdAt
func (q Query) OrderByCreated(descending bool) Query {
	q.OrderByCreatedAt = true
	q.Descending = descending
	return q
}

// Store defines the document database used by every module
type Store interface {
	Add(ctx context.Context, collection string, doc *Document) (string, error)
	Set(ctx context.Context, collection string, doc *Document) error
	Get(ctx context.Context, collection, id string) (*Document, error)
	Delete(ctx context.Context, collection, id string) error
	List(ctx context.Context, collection string, q Query) ([]*Document, error)
	Move(ctx context.Context, from, to, id string) error
	Close() error
}

var fieldName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

func validateName(kind, name string) error {
	if !fieldName.MatchString(name) {
		return oops.With(kind, name).Wrap(apperrors.ErrInvalidField)
	}
	return nil
}

func validateQuery(collection string, q Query) error {
	if err := validateName("collection", collection); err != nil {
		return err
	}
	for _, f := range q.Filters {
		if err := validateName("field", f.Field); err != nil {
			return err
		}
	}
	return nil
}

// validateDocument checks a document before it is written
func validateDocument(collection string, doc *Document) error {
	if err := validateName("collection", collection); err != nil {
		return err
	}
	if doc.ID == "" {
		return oops.With("collection", collection).Wrap(apperrors.ErrMissingDocumentID)
	}
	for name := range doc.Fields {
		if err := validateName("field", name); err != nil {
			return err
		}
	}
	return nil
}

func encodeFields(doc *Document) ([]byte, error) {
	fields := doc.Fields
	if fields == nil {
		fields = map[string]any{}
	}
	data, err := json.Marshal(fields)
	if err != nil {
		return nil, oops.With("document_id", doc.ID, "context", "failed to marshal fields").Wrap(err)
	}
	return data, nil
}

func decodeFields(id string, data []byte) (map[string]any, error) {
	fields := map[string]any{}
	if len(data) == 0 {
		return fields, nil
	}
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, oops.With("document_id", id, "context", "failed to unmarshal fields").Wrap(err)
	}
	return fields, nil
}
