package notice

import (
	"context"
	"fmt"

	"NoticeBoard/internal/access"
	"NoticeBoard/internal/apperr"
	"NoticeBoard/internal/attachment"
	"NoticeBoard/internal/content"
	"NoticeBoard/internal/identity"
	"NoticeBoard/internal/validation"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

var ErrNotFound = apperr.NotFound("Notice not found")

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
	notices, total, err := s.repo.List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("listing notices: %w", err)
	}
	views, err := s.views(ctx, notices...)
	if err != nil {
		return nil, err
	}
	return &Page{Notices: views, TotalPages: f.Paging.TotalPages(total), CurrentPage: f.Page}, nil
}

func (s *Service) views(ctx context.Context, notices ...*Notice) ([]View, error) {
	ids := make([]primitive.ObjectID, 0, len(notices))
	for _, n := range notices {
		ids = append(ids, n.AuthorID)
	}
	authors, err := content.Authors(ctx, s.users, ids)
	if err != nil {
		return nil, fmt.Errorf("loading authors: %w", err)
	}
	views := make([]View, 0, len(notices))
	for _, n := range notices {
		views = append(views, View{Notice: *n, Author: authors[n.AuthorID]})
	}
	return views, nil
}

func (s *Service) view(ctx context.Context, n *Notice) (*View, error) {
	views, err := s.views(ctx, n)
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

func (s *Service) load(ctx context.Context, id string) (*Notice, error) {
	oid, err := content.ParseID(id, ErrNotFound)
	if err != nil {
		return nil, err
	}
	n, err := s.repo.FindByID(ctx, oid)
	if err != nil {
		return nil, err
	}
	if n == nil {
		return nil, ErrNotFound
	}
	return n, nil
}

func (s *Service) Get(ctx context.Context, id string) (*View, error) {
	n, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, n)
}

func (s *Service) Create(ctx context.Context, actor access.Actor, in Input, up content.Upload) (*View, error) {
	if err := s.policy.Decide(actor, access.ResourceNotice, access.ActionCreate, primitive.NilObjectID); err != nil {
		return nil, err
	}
	if err := s.validate.Struct(in); err != nil {
		return nil, err
	}
	saved, err := attachment.SaveUploads(ctx, s.files, up.Files, s.logger)
	if err != nil {
		return nil, err
	}

	n := &Notice{
		Title:       in.Title,
		Content:     in.Content,
		Type:        in.Type,
		Department:  in.Department,
		AuthorID:    actor.ID,
		Attachments: saved,
	}
	if err := s.repo.Create(ctx, n); err != nil {
		attachment.DeleteAll(ctx, s.files, saved, s.logger)
		return nil, fmt.Errorf("creating notice: %w", err)
	}
	s.logger.Info("notice created", zap.String("notice", n.ID.Hex()), zap.String("author", actor.ID.Hex()))
	return s.view(ctx, n)
}

func (s *Service) Update(ctx context.Context, actor access.Actor, id string, in Input, up content.Upload) (*View, error) {
	n, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.policy.Decide(actor, access.ResourceNotice, access.ActionUpdate, n.AuthorID); err != nil {
		return nil, err
	}
	if err := s.validate.Struct(in); err != nil {
		return nil, err
	}
	if in.KeepAttachments != nil && !up.KeepSet {
		up.Keep, up.KeepSet = in.KeepAttachments, true
	}
	added, err := attachment.SaveUploads(ctx, s.files, up.Files, s.logger)
	if err != nil {
		return nil, err
	}
	plan := content.PlanEdit(n.Attachments, up, added)

	n.Title = in.Title
	n.Content = in.Content
	n.Type = in.Type
	n.Department = in.Department
	n.Attachments = plan.Next
	if err := s.repo.Update(ctx, n); err != nil {
		attachment.DeleteAll(ctx, s.files, added, s.logger)
		return nil, fmt.Errorf("updating notice: %w", err)
	}
	attachment.DeleteAll(ctx, s.files, plan.Removed, s.logger)
	return s.view(ctx, n)
}

func (s *Service) Delete(ctx context.Context, actor access.Actor, id string) error {
	n, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := s.policy.Decide(actor, access.ResourceNotice, access.ActionDelete, n.AuthorID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, n.ID); err != nil {
		return fmt.Errorf("deleting notice: %w", err)
	}
	attachment.DeleteAll(ctx, s.files, n.Attachments, s.logger)
	s.logger.Info("notice deleted", zap.String("notice", n.ID.Hex()), zap.String("by", actor.ID.Hex()))
	return nil
}
