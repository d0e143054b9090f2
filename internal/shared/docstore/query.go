package docstore

import (
	"sort"

	"github.com/samber/lo"
)

// applyQuery evaluates q in memory for backends without a query engine
func applyQuery(docs []*Document, q Query) []*Document {
	result := lo.Filter(docs, func(doc *Document, _ int) bool {
		if q.OrderByCreatedAt && doc.CreatedAt == nil {
			return false
		}
		return lo.EveryBy(q.Filters, func(f Filter) bool {
			return doc.String(f.Field) == f.Value
		})
	})

	sort.SliceStable(result, func(i, j int) bool {
		a, b := result[i], result[j]
		if q.OrderByCreatedAt && !a.CreatedAt.Equal(*b.CreatedAt) {
			if q.Descending {
				return a.CreatedAt.After(*b.CreatedAt)
			}
			return a.CreatedAt.Before(*b.CreatedAt)
		}
		return a.ID < b.ID
	})

	if q.Limit > 0 && len(result) > q.Limit {
		result = result[:q.Limit]
	}
	return result
}

// OldestFirst sorts docs by createdAt ascending; documents without a timestamp go last
func OldestFirst(docs []*Document) []*Document {
	sort.SliceStable(docs, func(i, j int) bool {
		a, b := docs[i].CreatedAt, docs[j].CreatedAt
		switch {
		case a == nil && b == nil:
			return docs[i].ID < docs[j].ID
		case a == nil:
			return false
		case b == nil:
			return true
		case a.Equal(*b):
			return docs[i].ID < docs[j].ID
		default:
			return a.Before(*b)
		}
	})
	return docs
}
