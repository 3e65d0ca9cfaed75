package inmem

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/physical-edu/physical-backend/internal/model"
	"github.com/physical-edu/physical-backend/internal/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tick(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	n := 0
	now = func() time.Time {
		n++
		return base.Add(time.Duration(n) * time.Minute)
	}
	t.Cleanup(func() { now = time.Now })
}

func TestUserRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository()

	teacher := model.RoleTeacher
	u := &model.User{Email: "ada@example.com", PasswordHash: "h", Role: model.RoleStudent, RequestedRole: &teacher}
	require.NoError(t, repo.Create(ctx, u))
	assert.NotEqual(t, uuid.Nil, u.ID)

	err := repo.Create(ctx, &model.User{Email: "ADA@example.com"})
	assert.ErrorIs(t, err, repository.ErrDuplicate)

	byID, err := repo.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Empty(t, byID.PasswordHash)

	byEmail, err := repo.GetByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, "h", byEmail.PasswordHash)

	pending, err := repo.ListTeacherRequests(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)

	admin := uuid.New()
	approved, err := repo.ApproveTeacher(ctx, u.ID, admin)
	require.NoError(t, err)
	assert.Equal(t, model.RoleTeacher, approved.Role)
	assert.Nil(t, approved.RequestedRole)
	require.NotNil(t, approved.ApprovedBy)
	assert.Equal(t, admin, *approved.ApprovedBy)

	pending, err = repo.ListTeacherRequests(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)

	_, err = repo.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestQuestionRepositoryListsAndNext(t *testing.T) {
	tick(t)
	ctx := context.Background()
	repo := NewQuestionRepository()
	subject := uuid.New()

	mk := func(status bool, tags ...string) *model.Question {
		q := &model.Question{Title: "q", SubjectID: subject, Status: status, Tags: tags}
		require.NoError(t, repo.Create(ctx, q))
		return q
	}
	a := mk(true, "kinematics")
	b := mk(false)
	c := mk(true, "kinematics", "energy")
	d := mk(true)

	pending, err := repo.ListByStatus(ctx, false)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, b.ID, pending[0].ID)

	bySubject, err := repo.ListBySubject(ctx, subject)
	require.NoError(t, err)
	require.Len(t, bySubject, 3)
	assert.Equal(t, []uuid.UUID{a.ID, c.ID, d.ID}, []uuid.UUID{bySubject[0].ID, bySubject[1].ID, bySubject[2].ID})

	tagged, err := repo.ListByTag(ctx, "kinematics")
	require.NoError(t, err)
	assert.Len(t, tagged, 2)

	next, err := repo.NextInSubject(ctx, a)
	require.NoError(t, err)
	assert.Equal(t, c.ID, next.ID)

	next, err = repo.NextInSubject(ctx, d)
	require.NoError(t, err)
	assert.Equal(t, a.ID, next.ID, "wraps to the first question")

	alone := &model.Question{SubjectID: uuid.New(), Status: true}
	require.NoError(t, repo.Create(ctx, alone))
	_, err = repo.NextInSubject(ctx, alone)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestQuestionRepositoryReturnsCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewQuestionRepository()

	q := &model.Question{Tags: []string{"a"}}
	require.NoError(t, repo.Create(ctx, q))
	q.Tags[0] = "mutated"

	got, err := repo.GetByID(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, got.Tags)

	deleted, err := repo.Delete(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, q.ID, deleted.ID)
	_, err = repo.Delete(ctx, q.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
