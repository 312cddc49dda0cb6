package event_test

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"NoticeBoard/internal/access"
	"NoticeBoard/internal/apperr"
	"NoticeBoard/internal/attachment/attachmenttest"
	"NoticeBoard/internal/content"
	"NoticeBoard/internal/event"
	"NoticeBoard/internal/identity"
	"NoticeBoard/internal/identity/identitytest"
	"NoticeBoard/internal/validation"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type memRepo struct {
	mu     sync.Mutex
	events map[primitive.ObjectID]event.Event
}

func (r *memRepo) Create(_ context.Context, e *event.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	e.ID = primitive.NewObjectID()
	e.CreatedAt = time.Now()
	r.events[e.ID] = *e
	return nil
}

func (r *memRepo) FindByID(_ context.Context, id primitive.ObjectID) (*event.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.events[id]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

func (r *memRepo) List(_ context.Context, f event.Filter) ([]*event.Event, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var all []*event.Event
	for _, e := range r.events {
		if f.Type != "" && e.Type != f.Type {
			continue
		}
		if f.StartDate != nil && e.Date.Before(*f.StartDate) {
			continue
		}
		if f.EndDate != nil && e.Date.After(*f.EndDate) {
			continue
		}
		e := e
		all = append(all, &e)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Date.Before(all[j].Date) })
	p := f.Paging.Normalize()
	start := min(int(p.Skip()), len(all))
	end := min(start+p.Limit, len(all))
	return all[start:end], int64(len(all)), nil
}

func (r *memRepo) Update(_ context.Context, e *event.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events[e.ID] = *e
	return nil
}

func (r *memRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.events[id]; !ok {
		return event.ErrNotFound
	}
	delete(r.events, id)
	return nil
}

type fixture struct {
	service *event.Service
	files   *attachmenttest.Store
	echo    *echo.Echo

	organizer, student access.Actor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := zap.NewNop()
	policy, err := access.NewPolicy()
	require.NoError(t, err)
	users := identitytest.NewStore()
	f := &fixture{files: attachmenttest.NewStore()}
	f.service = event.NewService(&memRepo{events: map[primitive.ObjectID]event.Event{}}, users, f.files, policy, validation.New(), logger)

	fac := users.Put(&identity.Faculty{
		Account:  identity.Account{Email: "ravi@cusat.ac.in", IsEmailVerified: true},
		FullName: "Dr. Ravi", Division: "Student Affairs", Post: "Dean", IsVerified: true,
	})
	f.organizer = access.Actor{ID: fac.Base().ID, Role: identity.RoleFaculty}
	stu := users.Put(&identity.Student{Account: identity.Account{Email: "asha@cusat.ac.in", IsEmailVerified: true}})
	f.student = access.Actor{ID: stu.Base().ID, Role: identity.RoleStudent}

	h := event.NewEventHandler(f.service)
	f.echo = echo.New()
	f.echo.Validator = validation.New()
	f.echo.HTTPErrorHandler = apperr.NewHTTPErrorHandler(logger)
	asOrganizer := func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.SetRequest(c.Request().WithContext(access.NewContext(c.Request().Context(), f.organizer)))
			return next(c)
		}
	}
	f.echo.GET("/api/events", h.List)
	f.echo.GET("/api/events/:id", h.Get)
	f.echo.POST("/api/events", h.Create, asOrganizer)
	f.echo.DELETE("/api/events/:id", h.Delete, asOrganizer)
	return f
}

func input(title, date string) event.Input {
	return event.Input{
		Title: title, Description: "d", Date: date, StartTime: "09:30", EndTime: "11:00",
		Location: "Seminar Hall", Type: event.TypeCultural, Department: identity.AllDepartments,
	}
}

func TestCreateValidatesDatesAndTimes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	in := input("Fest", "2024-13-40")
	in.StartTime = "25:00"
	in.Type = "party"
	_, err := f.service.Create(ctx, f.organizer, in, content.Upload{})
	require.Error(t, err)
	var appErr *apperr.Error
	require.ErrorAs(t, err, &appErr)
	fields := map[string]string{}
	for _, fe := range appErr.Fields {
		fields[fe.Field] = fe.Message
	}
	assert.Equal(t, "Invalid date format", fields["date"])
	assert.Equal(t, "Valid startTime is required", fields["startTime"])
	assert.Contains(t, fields["type"], "Invalid type")

	in = input("Fest", "2024-03-01")
	in.Type = ""
	v, err := f.service.Create(ctx, f.organizer, in, content.Upload{})
	require.NoError(t, err)
	assert.Equal(t, event.TypeAcademic, v.Type)
	assert.True(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC).Equal(v.Date))
	require.NotNil(t, v.Organizer)
	assert.Equal(t, "Student Affairs", v.Organizer.Division)
}

func TestStudentCannotCreateOrDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.service.Create(ctx, f.student, input("x", "2024-03-01"), content.Upload{})
	assert.ErrorIs(t, err, access.ErrForbidden)

	v, err := f.service.Create(ctx, f.organizer, input("x", "2024-03-01"), content.Upload{})
	require.NoError(t, err)
	assert.ErrorIs(t, f.service.Delete(ctx, f.student, v.ID.Hex()), access.ErrForbidden)

	in := input("renamed", "2024-03-02")
	_, err = f.service.Update(ctx, f.student, v.ID.Hex(), in, content.Upload{})
	assert.ErrorIs(t, err, access.ErrForbidden)
	updated, err := f.service.Update(ctx, f.organizer, v.ID.Hex(), in, content.Upload{})
	require.NoError(t, err)
	assert.Equal(t, "renamed", updated.Title)
}

func TestListByDateRange(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for _, d := range []string{"2024-05-20", "2024-05-01", "2024-06-15", "2024-04-30"} {
		_, err := f.service.Create(ctx, f.organizer, input("on "+d, d), content.Upload{})
		require.NoError(t, err)
	}

	rec := httptest.NewRecorder()
	f.echo.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/events?startDate=2024-05-01&endDate=2024-05-31", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var page event.Page
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	require.Len(t, page.Events, 2)
	assert.Equal(t, "on 2024-05-01", page.Events[0].Title)
	assert.Equal(t, "on 2024-05-20", page.Events[1].Title)
	assert.Equal(t, 1, page.TotalPages)

	rec = httptest.NewRecorder()
	f.echo.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/events?endDate=2024-05-01", nil))
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.Len(t, page.Events, 2)

	rec = httptest.NewRecorder()
	f.echo.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/events?startDate=soon", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateFromJSONAndDelete(t *testing.T) {
	f := newFixture(t)
	body := `{"title":"Sports day","description":"d","date":"2024-08-01T00:00:00Z","startTime":"08:00",` +
		`"endTime":"17:00","location":"Ground","type":"sports","department":"All Departments"}`
	req := httptest.NewRequest(http.MethodPost, "/api/events", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	f.echo.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var v event.View
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v))
	assert.Equal(t, event.TypeSports, v.Type)
	assert.Empty(t, v.Attachments)

	rec = httptest.NewRecorder()
	f.echo.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/events/"+v.ID.Hex(), nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	f.echo.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/events/"+v.ID.Hex(), nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func uploadOf(t *testing.T, names ...string) content.Upload {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, name := range names {
		part, err := w.CreateFormFile(content.FilesField, name)
		require.NoError(t, err)
		_, err = part.Write([]byte("data"))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	form, err := multipart.NewReader(&buf, w.Boundary()).ReadForm(1 << 20)
	require.NoError(t, err)
	return content.Upload{Files: form.File[content.FilesField]}
}

func TestAttachmentsFollowEventLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	v, err := f.service.Create(ctx, f.organizer, input("Fest", "2024-03-01"), uploadOf(t, "keep.pdf", "drop.pdf"))
	require.NoError(t, err)
	require.Len(t, v.Attachments, 2)
	assert.Equal(t, 2, f.files.Len())
	keep, drop := v.Attachments[0], v.Attachments[1]
	require.Equal(t, "keep.pdf", keep.Filename)

	assert.ErrorIs(t, f.service.Delete(ctx, f.student, v.ID.Hex()), access.ErrForbidden)
	assert.Equal(t, 2, f.files.Len())

	unchanged, err := f.service.Update(ctx, f.organizer, v.ID.Hex(), input("Fest 2024", "2024-03-01"), content.Upload{})
	require.NoError(t, err)
	assert.Len(t, unchanged.Attachments, 2)
	assert.Equal(t, 2, f.files.Len())

	up := uploadOf(t, "new.pdf")
	up.Keep, up.KeepSet = []string{keep.ID.Hex()}, true
	updated, err := f.service.Update(ctx, f.organizer, v.ID.Hex(), input("Fest 2024", "2024-03-01"), up)
	require.NoError(t, err)
	require.Len(t, updated.Attachments, 2)
	assert.Equal(t, "keep.pdf", updated.Attachments[0].Filename)
	assert.Equal(t, "new.pdf", updated.Attachments[1].Filename)
	assert.True(t, f.files.Has(keep.StoredName))
	assert.False(t, f.files.Has(drop.StoredName))
	assert.Equal(t, 2, f.files.Len())

	cleared, err := f.service.Update(ctx, f.organizer, v.ID.Hex(), input("Fest 2024", "2024-03-01"),
		content.Upload{KeepSet: true})
	require.NoError(t, err)
	assert.Empty(t, cleared.Attachments)
	assert.Equal(t, 0, f.files.Len())

	_, err = f.service.Update(ctx, f.organizer, v.ID.Hex(), input("Fest 2024", "2024-03-01"), uploadOf(t, "poster.png"))
	require.NoError(t, err)
	assert.Equal(t, 1, f.files.Len())
	require.NoError(t, f.service.Delete(ctx, f.organizer, v.ID.Hex()))
	assert.Equal(t, 0, f.files.Len())
}

func TestAdminDeleteRemovesEventAttachments(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	v, err := f.service.Create(ctx, f.organizer, input("Fest", "2024-03-01"), uploadOf(t, "a.pdf", "b.pdf"))
	require.NoError(t, err)
	require.Equal(t, 2, f.files.Len())

	admin := access.Actor{ID: primitive.NewObjectID(), Role: identity.RoleStudent, IsAdmin: true}
	require.NoError(t, f.service.Delete(ctx, admin, v.ID.Hex()))
	assert.Equal(t, 0, f.files.Len())

	_, err = f.service.Get(ctx, v.ID.Hex())
	assert.ErrorIs(t, err, event.ErrNotFound)
}
