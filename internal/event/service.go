package event

import (
	"context"
	"fmt"
	"strings"

	"NoticeBoard/internal/access"
	"NoticeBoard/internal/apperr"
	"NoticeBoard/internal/attachment"
	"NoticeBoard/internal/content"
	"NoticeBoard/internal/identity"
	"NoticeBoard/internal/validation"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

var ErrNotFound = apperr.NotFound("Event not found")

type Service struct {
	repo     Repository
	users    identity.Store
	files    attachment.Store
	policy   *access.Policy
	validate *validation.Validator
	logger   *zap.Logger
}

func NewService(repo Repository, users identity.Store, files attachment.Store, policy *access.Policy, validate *validation.Validator, logger *zap.Logger) *Service {
	return &Service{repo: repo, users: users, files: files, policy: policy, validate: validate, logger: logger}
}

func (s *Service) List(ctx context.Context, f Filter) (*Page, error) {
	f.Paging = f.Paging.Normalize()
	events, total, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("listing events: %w", err)
	}
	views, err := s.views(ctx, events...)
	if err != nil {
		return nil, err
	}
	return &Page{Events: views, TotalPages: f.Paging.TotalPages(total), CurrentPage: f.Page}, nil
}

func (s *Service) views(ctx context.Context, events ...*Event) ([]View, error) {
	ids := make([]primitive.ObjectID, 0, len(events))
	for _, e := range events {
		ids = append(ids, e.OrganizerID)
	}
	organizers, err := content.Authors(ctx, s.users, ids)
	if err != nil {
		return nil, fmt.Errorf("loading organizers: %w", err)
	}
	views := make([]View, 0, len(events))
	for _, e := range events {
		views = append(views, View{Event: *e, Organizer: organizers[e.OrganizerID]})
	}
	return views, nil
}

func (s *Service) view(ctx context.Context, e *Event) (*View, error) {
	views, err := s.views(ctx, e)
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

func (s *Service) load(ctx context.Context, id string) (*Event, error) {
	oid, err := content.ParseID(id, ErrNotFound)
	if err != nil {
		return nil, err
	}
	e, err := s.repo.FindByID(ctx, oid)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, ErrNotFound
	}
	return e, nil
}

func (s *Service) Get(ctx context.Context, id string) (*View, error) {
	e, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, e)
}

// apply validates in and copies it onto e.
func (s *Service) apply(e *Event, in Input) error {
	if err := s.validate.Struct(in); err != nil {
		return err
	}
	date, err := validation.ParseDate(in.Date)
	if err != nil {
		return apperr.Validation("Validation failed", apperr.FieldError{Field: "date", Message: "Invalid date format"})
	}
	if in.Type == "" {
		in.Type = TypeAcademic
	}
	e.Title = strings.TrimSpace(in.Title)
	e.Description = in.Description
	e.Date = date.UTC()
	e.StartTime = in.StartTime
	e.EndTime = in.EndTime
	e.Location = strings.TrimSpace(in.Location)
	e.Type = in.Type
	e.Department = in.Department
	return nil
}

func (s *Service) Create(ctx context.Context, actor access.Actor, in Input, up content.Upload) (*View, error) {
	if err := s.policy.Decide(actor, access.ResourceEvent, access.ActionCreate, primitive.NilObjectID); err != nil {
		return nil, err
	}
	e := &Event{OrganizerID: actor.ID}
	if err := s.apply(e, in); err != nil {
		return nil, err
	}
	saved, err := attachment.SaveUploads(ctx, s.files, up.Files, s.logger)
	if err != nil {
		return nil, err
	}
	e.Attachments = saved
	if err := s.repo.Create(ctx, e); err != nil {
		attachment.DeleteAll(ctx, s.files, saved, s.logger)
		return nil, fmt.Errorf("creating event: %w", err)
	}
	s.logger.Info("event created", zap.String("event", e.ID.Hex()), zap.String("organizer", actor.ID.Hex()))
	return s.view(ctx, e)
}

func (s *Service) Update(ctx context.Context, actor access.Actor, id string, in Input, up content.Upload) (*View, error) {
	e, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.policy.Decide(actor, access.ResourceEvent, access.ActionUpdate, e.OrganizerID); err != nil {
		return nil, err
	}
	if err := s.apply(e, in); err != nil {
		return nil, err
	}
	if in.KeepAttachments != nil && !up.KeepSet {
		up.Keep, up.KeepSet = in.KeepAttachments, true
	}
	added, err := attachment.SaveUploads(ctx, s.files, up.Files, s.logger)
	if err != nil {
		return nil, err
	}
	plan := content.PlanEdit(e.Attachments, up, added)
	e.Attachments = plan.Next
	if err := s.repo.Update(ctx, e); err != nil {
		attachment.DeleteAll(ctx, s.files, added, s.logger)
		return nil, fmt.Errorf("updating event: %w", err)
	}
	attachment.DeleteAll(ctx, s.files, plan.Removed, s.logger)
	return s.view(ctx, e)
}

func (s *Service) Delete(ctx context.Context, actor access.Actor, id string) error {
	e, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := s.policy.Decide(actor, access.ResourceEvent, access.ActionDelete, e.OrganizerID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, e.ID); err != nil {
		return fmt.Errorf("deleting event: %w", err)
	}
	attachment.DeleteAll(ctx, s.files, e.Attachments, s.logger)
	s.logger.Info("event deleted", zap.String("event", e.ID.Hex()), zap.String("by", actor.ID.Hex()))
	return nil
}
