package identity

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestEligible(t *testing.T) {
	student := &Student{Account: Account{IsEmailVerified: true}}
	assert.NoError(t, Eligible(student))

	student.IsEmailVerified = false
	assert.True(t, errors.Is(Eligible(student), ErrEmailNotVerified))

	faculty := &Faculty{Account: Account{IsEmailVerified: true}}
	assert.True(t, errors.Is(Eligible(faculty), ErrPendingApproval))

	faculty.IsVerified = true
	assert.NoError(t, Eligible(faculty))

	faculty.IsEmailVerified = false
	assert.True(t, errors.Is(Eligible(faculty), ErrEmailNotVerified))
}

func TestPasswordHash(t *testing.T) {
	hash, err := HashPassword("s3cret!")
	require.NoError(t, err)
	assert.NotEqual(t, "s3cret!", hash)
	assert.True(t, CheckPasswordHash("s3cret!", hash))
	assert.False(t, CheckPasswordHash("S3cret!", hash))
}

func TestDocumentRoundTripKeepsVariant(t *testing.T) {
	expires := time.Now().Add(time.Minute).UTC().Truncate(time.Millisecond)
	in := &Faculty{
		Account: Account{
			ID:                          primitive.NewObjectID(),
			Email:                       "prof@cusat.ac.in",
			EmailVerificationOTP:        "123456",
			EmailVerificationOTPExpires: &expires,
		},
		FullName: "Anita Rao",
		Division: "Library",
		Post:     "Librarian",
	}
	doc, err := toDocument(in)
	require.NoError(t, err)
	b, err := bson.Marshal(doc)
	require.NoError(t, err)
	raw := bson.Raw(b)

	assert.Equal(t, "faculty", raw.Lookup("role").StringValue())

	out, err := decode(raw)
	require.NoError(t, err)
	f, ok := out.(*Faculty)
	require.True(t, ok)
	assert.Equal(t, in.FullName, f.FullName)
	assert.Equal(t, in.ID, f.ID)
	require.NotNil(t, f.EmailVerificationOTPExpires)
	assert.True(t, expires.Equal(*f.EmailVerificationOTPExpires))
}

func TestCloneIsDeep(t *testing.T) {
	expires := time.Now()
	s := &Student{Account: Account{PasswordResetOTPExpires: &expires}, FirstName: "Ravi"}
	c := Clone(s).(*Student)
	c.FirstName = "Other"
	*c.PasswordResetOTPExpires = expires.Add(time.Hour)

	assert.Equal(t, "Ravi", s.FirstName)
	assert.True(t, expires.Equal(*s.PasswordResetOTPExpires))
}

func TestProfileHidesSecrets(t *testing.T) {
	f := &Faculty{
		Account:  Account{ID: primitive.NewObjectID(), Email: "a@cusat.ac.in", PasswordHash: "hash", EmailVerificationOTP: "111111"},
		FullName: "A B",
		Division: "Physics",
		Post:     "Professor",
	}
	p := ProfileOf(f)
	assert.Equal(t, RoleFaculty, p.Role)
	require.NotNil(t, p.IsVerified)
	assert.False(t, *p.IsVerified)
	assert.Equal(t, "Physics", SummaryOf(f).Division)
}

func TestDepartments(t *testing.T) {
	assert.True(t, IsBranch("Civil"))
	assert.False(t, IsBranch("Library"))
	assert.True(t, IsDivision("Library"))
	assert.False(t, IsDivision(AllDepartments))
	assert.True(t, IsAudience(AllDepartments))
}
