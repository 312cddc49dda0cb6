// Package content holds the pieces notices and events share: paging, id
// parsing, author summaries and the attachment edit plan.
package content

import (
	"context"
	"math"

	"NoticeBoard/internal/attachment"
	"NoticeBoard/internal/identity"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	DefaultLimit = 10
	MaxLimit     = 100
)

// Paging is a 1-based page request.
type Paging struct {
	Page  int
	Limit int
}

// Normalize applies defaults and caps the page size.
func (p Paging) Normalize() Paging {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = DefaultLimit
	}
	if p.Limit > MaxLimit {
		p.Limit = MaxLimit
	}
	return p
}

func (p Paging) Skip() int64 { return int64(p.Page-1) * int64(p.Limit) }

// TotalPages is the number of pages needed for total items.
func (p Paging) TotalPages(total int64) int {
	return int(math.Ceil(float64(total) / float64(p.Limit)))
}

// ParseID parses a hex object id. Malformed ids are reported as notFound so
// callers cannot tell them apart from unknown ones.
func ParseID(s string, notFound error) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(s)
	if err != nil {
		return primitive.NilObjectID, notFound
	}
	return id, nil
}

// Authors loads the summaries of ids. Missing identities are left out of the
// map; their content renders with a null author.
func Authors(ctx context.Context, users identity.Store, ids []primitive.ObjectID) (map[primitive.ObjectID]*identity.Summary, error) {
	found, err := users.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make(map[primitive.ObjectID]*identity.Summary, len(found))
	for id, u := range found {
		out[id] = identity.SummaryOf(u)
	}
	return out, nil
}

// Plan is the attachment change set of an edit.
type Plan struct {
	Next    []attachment.Attachment
	Removed []attachment.Attachment
}

// PlanEdit decides the attachment list after an edit. Nothing changes unless
// the request named a keep list or uploaded files; then only the kept
// attachments survive and added ones follow them.
func PlanEdit(existing []attachment.Attachment, up Upload, added []attachment.Attachment) Plan {
	if !up.KeepSet && len(up.Files) == 0 {
		if existing == nil {
			existing = []attachment.Attachment{}
		}
		return Plan{Next: existing}
	}
	kept, removed := attachment.Reconcile(existing, up.Keep)
	next := make([]attachment.Attachment, 0, len(kept)+len(added))
	next = append(next, kept...)
	next = append(next, added...)
	return Plan{Next: next, Removed: removed}
}
