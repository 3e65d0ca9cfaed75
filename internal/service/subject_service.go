package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/physical-edu/physical-backend/internal/model"
	"github.com/physical-edu/physical-backend/internal/repository"
	"github.com/rs/zerolog"
)

type SubjectService struct {
	subjects SubjectStore
	log      zerolog.Logger
}

func NewSubjectService(subjects SubjectStore, log zerolog.Logger) *SubjectService {
	return &SubjectService{
		subjects: subjects,
		log:      log.With().Str("component", "subject_service").Logger(),
	}
}

func (s *SubjectService) GetAll(ctx context.Context) ([]model.Subject, error) {
	return s.subjects.GetAll(ctx)
}

func (s *SubjectService) GetByID(ctx context.Context, id uuid.UUID) (*model.Subject, error) {
	sub, err := s.subjects.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrSubjectNotFound
	}
	return sub, err
}

func (s *SubjectService) Create(ctx context.Context, req *model.SubjectRequest) (*model.Subject, error) {
	sub, err := fromRequest(req)
	if err != nil {
		return nil, err
	}
	if err := s.subjects.Create(ctx, sub); err != nil {
		return nil, fmt.Errorf("create subject: %w", err)
	}
	s.log.Info().Str("subject_id", sub.ID.String()).Str("name", sub.Name).Msg("Subject created")
	return sub, nil
}

func (s *SubjectService) Update(ctx context.Context, id uuid.UUID, req *model.SubjectRequest) (*model.Subject, error) {
	sub, err := fromRequest(req)
	if err != nil {
		return nil, err
	}
	sub.ID = id
	if err := s.subjects.Update(ctx, sub); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSubjectNotFound
		}
		return nil, fmt.Errorf("update subject: %w", err)
	}
	s.log.Info().Str("subject_id", id.String()).Msg("Subject updated")
	return sub, nil
}

func (s *SubjectService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.subjects.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrSubjectNotFound
		}
		return fmt.Errorf("delete subject: %w", err)
	}
	s.log.Info().Str("subject_id", id.String()).Msg("Subject deleted")
	return nil
}

func fromRequest(req *model.SubjectRequest) (*model.Subject, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, &model.ValidationError{Field: "name", Message: "name is required"}
	}
	tags := make([]string, 0, len(req.Tags))
	for _, t := range req.Tags {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return &model.Subject{Name: name, Tags: tags}, nil
}
