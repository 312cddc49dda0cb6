package validation

import (
	"testing"
	"time"

	"NoticeBoard/internal/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Title      string `json:"title" validate:"required"`
	Type       string `json:"type" validate:"oneof=general academic event"`
	Department string `json:"department" validate:"required,department"`
	Start      string `json:"startTime" validate:"datetime=15:04"`
	Date       string `json:"date" validate:"isodate"`
	Year       int    `json:"yearOfAdmission" validate:"admissionyear"`
}

func TestStructListsEveryField(t *testing.T) {
	v := New()
	v.now = func() time.Time { return time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC) }

	err := v.Struct(sample{Type: "party", Department: "Astrology", Start: "25:00", Date: "yesterday", Year: 2025})
	require.Error(t, err)

	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperr.KindValidation, appErr.Kind)

	got := map[string]string{}
	for _, f := range appErr.Fields {
		got[f.Field] = f.Message
	}
	assert.Equal(t, "title is required", got["title"])
	assert.Contains(t, got, "type")
	assert.Equal(t, "Invalid department", got["department"])
	assert.Equal(t, "Valid startTime is required", got["startTime"])
	assert.Equal(t, "Invalid date format", got["date"])
	assert.Equal(t, "Invalid year of admission", got["yearOfAdmission"])
}

func TestStructValid(t *testing.T) {
	v := New()
	err := v.Struct(sample{
		Title:      "Exam schedule",
		Type:       "academic",
		Department: "All Departments",
		Start:      "09:30",
		Date:       "2024-05-01T10:00:00Z",
		Year:       2021,
	})
	assert.NoError(t, err)
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-03-15")
	require.NoError(t, err)
	assert.Equal(t, 15, d.Day())

	_, err = ParseDate("15/03/2024")
	assert.Error(t, err)
}
