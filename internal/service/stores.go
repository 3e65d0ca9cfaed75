package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/physical-edu/physical-backend/internal/model"
)

// UserStore is the persistence contract for accounts. GetByID never returns
// the password hash; GetByEmail always does.
type UserStore interface {
	Create(ctx context.Context, u *model.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error
	UpdateEmail(ctx context.Context, id uuid.UUID, email string) error
	ListTeacherRequests(ctx context.Context) ([]model.User, error)
	ApproveTeacher(ctx context.Context, id, adminID uuid.UUID) (*model.User, error)
}

// QuestionStore is the persistence contract for questions.
type QuestionStore interface {
	Create(ctx context.Context, q *model.Question) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.Question, error)
	Update(ctx context.Context, q *model.Question) (*model.Question, error)
	Delete(ctx context.Context, id uuid.UUID) (*model.Question, error)
	Approve(ctx context.Context, id, approverID uuid.UUID) (*model.Question, error)
	UpdateSolutionSteps(ctx context.Context, id uuid.UUID, steps []model.Answer) (*model.Question, error)
	ListByStatus(ctx context.Context, approved bool) ([]model.Question, error)
	ListBySubject(ctx context.Context, subjectID uuid.UUID) ([]model.Question, error)
	ListByTag(ctx context.Context, tag string) ([]model.Question, error)
	NextInSubject(ctx context.Context, q *model.Question) (*model.Question, error)
}

// SubjectStore is the persistence contract for subjects.
type SubjectStore interface {
	Create(ctx context.Context, s *model.Subject) error
	GetAll(ctx context.Context) ([]model.Subject, error)
	GetByID(ctx context.Context, id uuid.UUID) (*model.Subject, error)
	Update(ctx context.Context, s *model.Subject) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// Review feed event types.
const (
	EventQuestionPending  = "question.pending"
	EventQuestionApproved = "question.approved"
	EventQuestionDeleted  = "question.deleted"
	EventTeacherRequested = "teacher.requested"
	EventTeacherApproved  = "teacher.approved"
)

// Notifier publishes review events to connected reviewers.
type Notifier interface {
	Notify(event string, data any)
}

type nopNotifier struct{}

func (nopNotifier) Notify(string, any) {}

func notifierOrNop(n Notifier) Notifier {
	if n == nil {
		return nopNotifier{}
	}
	return n
}
