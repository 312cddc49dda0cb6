package verification

import (
	"time"

	"NoticeBoard/internal/identity"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Request is a faculty member's entry in the admin approval queue.
type Request struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	FacultyID primitive.ObjectID `bson:"faculty" json:"-"`
	Notes     string             `bson:"notes" json:"notes"`
	Status    Status             `bson:"status" json:"status"`
	CreatedAt time.Time          `bson:"created_at" json:"createdAt"`
}

// FacultyView is the faculty snapshot shown next to a pending request.
type FacultyView struct {
	ID              string `json:"_id"`
	FullName        string `json:"fullName"`
	Email           string `json:"email"`
	Division        string `json:"division"`
	Post            string `json:"post"`
	IsVerified      bool   `json:"isVerified"`
	IsEmailVerified bool   `json:"isEmailVerified"`
}

// RequestView is a request joined with its faculty member.
type RequestView struct {
	Request
	Faculty *FacultyView `json:"faculty"`
}

func facultyView(f *identity.Faculty) *FacultyView {
	return &FacultyView{
		ID:              f.ID.Hex(),
		FullName:        f.FullName,
		Email:           f.Email,
		Division:        f.Division,
		Post:            f.Post,
		IsVerified:      f.IsVerified,
		IsEmailVerified: f.IsEmailVerified,
	}
}
