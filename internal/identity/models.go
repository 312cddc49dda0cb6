package identity

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role is the discriminator stored on every user document.
type Role string

const (
	RoleStudent Role = "student"
	RoleFaculty Role = "faculty"
)

// Account is the envelope shared by every identity variant.
type Account struct {
	ID                          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Email                       string             `bson:"email" json:"email"`
	PasswordHash                string             `bson:"password_hash" json:"-"`
	IsEmailVerified             bool               `bson:"is_email_verified" json:"isEmailVerified"`
	IsAdmin                     bool               `bson:"is_admin" json:"isAdmin"`
	EmailVerificationOTP        string             `bson:"email_verification_otp,omitempty" json:"-"`
	EmailVerificationOTPExpires *time.Time         `bson:"email_verification_otp_expires,omitempty" json:"-"`
	PasswordResetOTP            string             `bson:"password_reset_otp,omitempty" json:"-"`
	PasswordResetOTPExpires     *time.Time         `bson:"password_reset_otp_expires,omitempty" json:"-"`
	CreatedAt                   time.Time          `bson:"created_at" json:"createdAt"`
	UpdatedAt                   time.Time          `bson:"updated_at" json:"updatedAt"`
}

// Identity is implemented by *Student and *Faculty only.
type Identity interface {
	Base() *Account
	Role() Role
	DisplayName() string
	clone() Identity
}

type Student struct {
	Account         `bson:",inline"`
	FirstName       string `bson:"first_name" json:"firstName"`
	LastName        string `bson:"last_name" json:"lastName"`
	Branch          string `bson:"branch" json:"branch"`
	YearOfAdmission int    `bson:"year_of_admission" json:"yearOfAdmission"`
}

func (s *Student) Base() *Account { return &s.Account }
func (s *Student) Role() Role     { return RoleStudent }
func (s *Student) DisplayName() string {
	return strings.TrimSpace(s.FirstName + " " + s.LastName)
}
func (s *Student) clone() Identity { c := *s; c.Account = s.Account.clone(); return &c }

type Faculty struct {
	Account    `bson:",inline"`
	FullName   string `bson:"full_name" json:"fullName"`
	Division   string `bson:"division" json:"division"`
	Post       string `bson:"post" json:"post"`
	IsVerified bool   `bson:"is_verified" json:"isVerified"`
}

func (f *Faculty) Base() *Account      { return &f.Account }
func (f *Faculty) Role() Role          { return RoleFaculty }
func (f *Faculty) DisplayName() string { return f.FullName }
func (f *Faculty) clone() Identity     { c := *f; c.Account = f.Account.clone(); return &c }

func (a Account) clone() Account {
	if a.EmailVerificationOTPExpires != nil {
		t := *a.EmailVerificationOTPExpires
		a.EmailVerificationOTPExpires = &t
	}
	if a.PasswordResetOTPExpires != nil {
		t := *a.PasswordResetOTPExpires
		a.PasswordResetOTPExpires = &t
	}
	return a
}

// Clone returns a deep copy of u so stores can hand out values callers may mutate.
func Clone(u Identity) Identity {
	if u == nil {
		return nil
	}
	return u.clone()
}

// NormalizeEmail lower-cases and trims an address before it is stored or looked up.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Profile is the public snapshot of an identity returned by the API.
type Profile struct {
	ID              string    `json:"id"`
	Email           string    `json:"email"`
	Role            Role      `json:"role"`
	IsAdmin         bool      `json:"isAdmin"`
	IsEmailVerified bool      `json:"isEmailVerified"`
	CreatedAt       time.Time `json:"createdAt"`

	FirstName       string `json:"firstName,omitempty"`
	LastName        string `json:"lastName,omitempty"`
	Branch          string `json:"branch,omitempty"`
	YearOfAdmission int    `json:"yearOfAdmission,omitempty"`

	FullName   string `json:"fullName,omitempty"`
	Division   string `json:"division,omitempty"`
	Post       string `json:"post,omitempty"`
	IsVerified *bool  `json:"isVerified,omitempty"`
}

func ProfileOf(u Identity) Profile {
	a := u.Base()
	p := Profile{
		ID:              a.ID.Hex(),
		Email:           a.Email,
		Role:            u.Role(),
		IsAdmin:         a.IsAdmin,
		IsEmailVerified: a.IsEmailVerified,
		CreatedAt:       a.CreatedAt,
	}
	switch v := u.(type) {
	case *Student:
		p.FirstName = v.FirstName
		p.LastName = v.LastName
		p.Branch = v.Branch
		p.YearOfAdmission = v.YearOfAdmission
	case *Faculty:
		p.FullName = v.FullName
		p.Division = v.Division
		p.Post = v.Post
		verified := v.IsVerified
		p.IsVerified = &verified
	}
	return p
}

// Summary is the author/organizer view embedded in notices and events.
type Summary struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Division string `json:"division,omitempty"`
	Post     string `json:"post,omitempty"`
}

func SummaryOf(u Identity) *Summary {
	if u == nil {
		return nil
	}
	s := &Summary{ID: u.Base().ID.Hex(), Name: u.DisplayName()}
	switch v := u.(type) {
	case *Faculty:
		s.Division = v.Division
		s.Post = v.Post
	case *Student:
		s.Division = v.Branch
	}
	return s
}
