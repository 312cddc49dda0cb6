package event

import (
	"time"

	"NoticeBoard/internal/attachment"
	"NoticeBoard/internal/content"
	"NoticeBoard/internal/identity"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Type string

const (
	TypeAcademic Type = "academic"
	TypeCultural Type = "cultural"
	TypeSports   Type = "sports"
	TypeOther    Type = "other"
)

type Event struct {
	ID          primitive.ObjectID      `bson:"_id,omitempty" json:"_id"`
	Title       string                  `bson:"title" json:"title"`
	Description string                  `bson:"description" json:"description"`
	Date        time.Time               `bson:"date" json:"date"`
	StartTime   string                  `bson:"start_time" json:"startTime"`
	EndTime     string                  `bson:"end_time" json:"endTime"`
	Location    string                  `bson:"location" json:"location"`
	Type        Type                    `bson:"type" json:"type"`
	Department  string                  `bson:"department" json:"department"`
	OrganizerID primitive.ObjectID      `bson:"organizer" json:"-"`
	Attachments []attachment.Attachment `bson:"attachments" json:"attachments"`
	CreatedAt   time.Time               `bson:"created_at" json:"createdAt"`
	UpdatedAt   time.Time               `bson:"updated_at" json:"updatedAt"`
}

type View struct {
	Event
	Organizer *identity.Summary `json:"organizer"`
}

// Input is the editable part of an event. Date is a calendar date or an
// RFC 3339 timestamp; times are 24-hour HH:MM.
type Input struct {
	Title       string `json:"title" form:"title" validate:"required"`
	Description string `json:"description" form:"description" validate:"required"`
	Date        string `json:"date" form:"date" validate:"required,isodate"`
	StartTime   string `json:"startTime" form:"startTime" validate:"required,datetime=15:04"`
	EndTime     string `json:"endTime" form:"endTime" validate:"required,datetime=15:04"`
	Location    string `json:"location" form:"location" validate:"required"`
	Type        Type   `json:"type" form:"type" validate:"omitempty,oneof=academic cultural sports other"`
	Department  string `json:"department" form:"department" validate:"required,department"`

	KeepAttachments []string `json:"keepAttachments" form:"-"`
}

// Filter selects events by type and by an inclusive date range. Either bound
// may be left open.
type Filter struct {
	Type      Type
	StartDate *time.Time
	EndDate   *time.Time
	content.Paging
}

type Page struct {
	Events      []View `json:"events"`
	TotalPages  int    `json:"totalPages"`
	CurrentPage int    `json:"currentPage"`
}
