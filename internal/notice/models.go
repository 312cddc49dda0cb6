package notice

import (
	"time"

	"NoticeBoard/internal/attachment"
	"NoticeBoard/internal/content"
	"NoticeBoard/internal/identity"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Type string

const (
	TypeGeneral  Type = "general"
	TypeAcademic Type = "academic"
	TypeEvent    Type = "event"
)

type Notice struct {
	ID          primitive.ObjectID      `bson:"_id,omitempty" json:"_id"`
	Title       string                  `bson:"title" json:"title"`
	Content     string                  `bson:"content" json:"content"`
	Type        Type                    `bson:"type" json:"type"`
	Department  string                  `bson:"department" json:"department"`
	AuthorID    primitive.ObjectID      `bson:"author" json:"-"`
	Attachments []attachment.Attachment `bson:"attachments" json:"attachments"`
	CreatedAt   time.Time               `bson:"created_at" json:"createdAt"`
	UpdatedAt   time.Time               `bson:"updated_at" json:"updatedAt"`
}

// View is a notice with its author resolved.
type View struct {
	Notice
	Author *identity.Summary `json:"author"`
}

// Input is the editable part of a notice, bound from JSON or a multipart form.
type Input struct {
	Title      string `json:"title" form:"title" validate:"required"`
	Content    string `json:"content" form:"content" validate:"required"`
	Type       Type   `json:"type" form:"type" validate:"required,oneof=general academic event"`
	Department string `json:"department" form:"department" validate:"required,department"`

	KeepAttachments []string `json:"keepAttachments" form:"-"`
}

type Filter struct {
	Type Type
	content.Paging
}

type Page struct {
	Notices     []View `json:"notices"`
	TotalPages  int    `json:"totalPages"`
	CurrentPage int    `json:"currentPage"`
}
