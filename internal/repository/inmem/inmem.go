// Package inmem holds mutex-guarded in-process repositories with the same
// contracts as the Postgres ones. They back STORAGE_DRIVER=memory and the
// workflow tests.
package inmem

import (
	"context"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/physical-edu/physical-backend/internal/model"
	"github.com/physical-edu/physical-backend/internal/repository"
)

// now is swapped by tests that need distinct creation times.
var now = time.Now

// ─── Users ─────────────────────────────────────────────────────────────

type UserRepository struct {
	mu    sync.RWMutex
	users map[uuid.UUID]model.User
}

func NewUserRepository() *UserRepository {
	return &UserRepository{users: make(map[uuid.UUID]model.User)}
}

func (r *UserRepository) Create(_ context.Context, u *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return repository.ErrDuplicate
		}
	}
	u.ID = uuid.New()
	u.CreatedAt = now()
	r.users[u.ID] = cloneUser(*u)
	return nil
}

func (r *UserRepository) GetByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := cloneUser(u)
	out.PasswordHash = ""
	return &out, nil
}

func (r *UserRepository) GetByEmail(_ context.Context, email string) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if u.Email == email {
			out := cloneUser(u)
			return &out, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *UserRepository) UpdatePassword(_ context.Context, id uuid.UUID, hash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.PasswordHash = hash
	r.users[id] = u
	return nil
}

func (r *UserRepository) UpdateEmail(_ context.Context, id uuid.UUID, email string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	for otherID, other := range r.users {
		if otherID != id && strings.EqualFold(other.Email, email) {
			return repository.ErrDuplicate
		}
	}
	u.Email = email
	r.users[id] = u
	return nil
}

func (r *UserRepository) ListTeacherRequests(_ context.Context) ([]model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []model.User{}
	for _, u := range r.users {
		if u.HasPendingTeacherRequest() {
			c := cloneUser(u)
			c.PasswordHash = ""
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *UserRepository) ApproveTeacher(_ context.Context, id, adminID uuid.UUID) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	approver := adminID
	u.Role = model.RoleTeacher
	u.ApprovedBy = &approver
	u.RequestedRole = nil
	r.users[id] = u

	out := cloneUser(u)
	out.PasswordHash = ""
	return &out, nil
}

func cloneUser(u model.User) model.User {
	if u.RequestedRole != nil {
		role := *u.RequestedRole
		u.RequestedRole = &role
	}
	if u.ApprovedBy != nil {
		id := *u.ApprovedBy
		u.ApprovedBy = &id
	}
	return u
}

// ─── Questions ─────────────────────────────────────────────────────────

type QuestionRepository struct {
	mu        sync.RWMutex
	questions map[uuid.UUID]model.Question
}

func NewQuestionRepository() *QuestionRepository {
	return &QuestionRepository{questions: make(map[uuid.UUID]model.Question)}
}

func (r *QuestionRepository) Create(_ context.Context, q *model.Question) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	q.ID = uuid.New()
	q.CreatedAt = now()
	q.UpdatedAt = q.CreatedAt
	r.questions[q.ID] = cloneQuestion(*q)
	return nil
}

func (r *QuestionRepository) GetByID(_ context.Context, id uuid.UUID) (*model.Question, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	q, ok := r.questions[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	out := cloneQuestion(q)
	return &out, nil
}

func (r *QuestionRepository) Update(_ context.Context, q *model.Question) (*model.Question, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.questions[q.ID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	stored.Title = q.Title
	stored.Content = q.Content
	stored.Hints = q.Hints
	stored.Tags = q.Tags
	stored.Solution = q.Solution
	stored.CorrectAnswers = q.CorrectAnswers
	stored.SolutionSteps = q.SolutionSteps
	stored.Subject = q.Subject
	stored.SubjectID = q.SubjectID
	stored.UpdatedAt = now()
	stored = cloneQuestion(stored)
	r.questions[q.ID] = stored

	out := cloneQuestion(stored)
	return &out, nil
}

func (r *QuestionRepository) Delete(_ context.Context, id uuid.UUID) (*model.Question, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	q, ok := r.questions[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	delete(r.questions, id)
	return &q, nil
}

func (r *QuestionRepository) Approve(_ context.Context, id, approverID uuid.UUID) (*model.Question, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	q, ok := r.questions[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	approver := approverID
	q.Status = true
	q.ApprovedBy = &approver
	q.UpdatedAt = now()
	r.questions[id] = q

	out := cloneQuestion(q)
	return &out, nil
}

func (r *QuestionRepository) UpdateSolutionSteps(_ context.Context, id uuid.UUID, steps []model.Answer) (*model.Question, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	q, ok := r.questions[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	q.SolutionSteps = slices.Clone(steps)
	q.UpdatedAt = now()
	r.questions[id] = q

	out := cloneQuestion(q)
	return &out, nil
}

func (r *QuestionRepository) ListByStatus(_ context.Context, approved bool) ([]model.Question, error) {
	out := r.filter(func(q model.Question) bool { return q.Status == approved })
	sort.SliceStable(out, func(i, j int) bool { return later(out[i], out[j]) })
	return out, nil
}

func (r *QuestionRepository) ListBySubject(_ context.Context, subjectID uuid.UUID) ([]model.Question, error) {
	out := r.filter(func(q model.Question) bool { return q.Status && q.SubjectID == subjectID })
	sort.SliceStable(out, func(i, j int) bool { return earlier(out[i], out[j]) })
	return out, nil
}

func (r *QuestionRepository) ListByTag(_ context.Context, tag string) ([]model.Question, error) {
	out := r.filter(func(q model.Question) bool { return q.Status && slices.Contains(q.Tags, tag) })
	sort.SliceStable(out, func(i, j int) bool { return later(out[i], out[j]) })
	return out, nil
}

func (r *QuestionRepository) NextInSubject(ctx context.Context, current *model.Question) (*model.Question, error) {
	siblings, _ := r.ListBySubject(ctx, current.SubjectID)

	var first *model.Question
	for i := range siblings {
		q := &siblings[i]
		if q.ID == current.ID {
			continue
		}
		if first == nil {
			first = q
		}
		if earlier(*current, *q) {
			return q, nil
		}
	}
	if first == nil {
		return nil, repository.ErrNotFound
	}
	return first, nil
}

func (r *QuestionRepository) filter(keep func(model.Question) bool) []model.Question {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []model.Question{}
	for _, q := range r.questions {
		if keep(q) {
			out = append(out, cloneQuestion(q))
		}
	}
	return out
}

// earlier orders by (created_at, id) ascending.
func earlier(a, b model.Question) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.ID.String() < b.ID.String()
}

func later(a, b model.Question) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.After(b.CreatedAt)
	}
	return a.ID.String() < b.ID.String()
}

func cloneQuestion(q model.Question) model.Question {
	q.Hints = slices.Clone(q.Hints)
	q.Tags = slices.Clone(q.Tags)
	q.CorrectAnswers = slices.Clone(q.CorrectAnswers)
	q.SolutionSteps = slices.Clone(q.SolutionSteps)
	return q
}

// ─── Subjects ──────────────────────────────────────────────────────────

type SubjectRepository struct {
	mu       sync.RWMutex
	subjects map[uuid.UUID]model.Subject
}

func NewSubjectRepository() *SubjectRepository {
	return &SubjectRepository{subjects: make(map[uuid.UUID]model.Subject)}
}

func (r *SubjectRepository) Create(_ context.Context, s *model.Subject) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s.ID = uuid.New()
	s.CreatedAt = now()
	s.UpdatedAt = s.CreatedAt
	if s.Tags == nil {
		s.Tags = []string{}
	}
	stored := *s
	stored.Tags = slices.Clone(s.Tags)
	r.subjects[s.ID] = stored
	return nil
}

func (r *SubjectRepository) GetAll(_ context.Context) ([]model.Subject, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]model.Subject, 0, len(r.subjects))
	for _, s := range r.subjects {
		s.Tags = slices.Clone(s.Tags)
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *SubjectRepository) GetByID(_ context.Context, id uuid.UUID) (*model.Subject, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.subjects[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	s.Tags = slices.Clone(s.Tags)
	return &s, nil
}

func (r *SubjectRepository) Update(_ context.Context, s *model.Subject) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.subjects[s.ID]
	if !ok {
		return repository.ErrNotFound
	}
	stored.Name = s.Name
	stored.Tags = slices.Clone(s.Tags)
	if stored.Tags == nil {
		stored.Tags = []string{}
	}
	stored.UpdatedAt = now()
	r.subjects[s.ID] = stored

	s.Tags = slices.Clone(stored.Tags)
	s.CreatedAt = stored.CreatedAt
	s.UpdatedAt = stored.UpdatedAt
	return nil
}

func (r *SubjectRepository) Delete(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.subjects[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.subjects, id)
	return nil
}
