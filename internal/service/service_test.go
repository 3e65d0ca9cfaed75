package service

import (
	"context"
	"errors"
	"io"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/physical-edu/physical-backend/internal/cache"
	"github.com/physical-edu/physical-backend/internal/config"
	"github.com/physical-edu/physical-backend/internal/mail"
	"github.com/physical-edu/physical-backend/internal/model"
	"github.com/physical-edu/physical-backend/internal/repository/inmem"
	"github.com/physical-edu/physical-backend/internal/storage"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const cdn = "https://cdn.test/"

// fakeBlobs hosts everything under cdn. Deleting an id listed in fail errors.
type fakeBlobs struct {
	mu      sync.Mutex
	deleted []string
	fail    map[string]bool
}

func (b *fakeBlobs) Upload(_ context.Context, folder, name, _ string, _ io.Reader) (storage.Object, error) {
	id := folder + "/" + name
	return storage.Object{URL: cdn + id, ID: id}, nil
}

func (b *fakeBlobs) Delete(_ context.Context, id string) error {
	if b.fail[id] {
		return errors.New("blob store unavailable")
	}
	b.mu.Lock()
	b.deleted = append(b.deleted, id)
	b.mu.Unlock()
	return nil
}

func (b *fakeBlobs) Hosts(rawURL string) bool { return strings.HasPrefix(rawURL, cdn) }

func (b *fakeBlobs) IDFromURL(rawURL string) (string, bool) {
	if !b.Hosts(rawURL) {
		return "", false
	}
	return strings.TrimPrefix(rawURL, cdn), true
}

type recordedEvent struct {
	name string
	data any
}

type recorder struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (r *recorder) Notify(event string, data any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, recordedEvent{event, data})
}

func (r *recorder) names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.name
	}
	return out
}

type fixture struct {
	cfg       *config.Config
	users     *inmem.UserRepository
	questions *inmem.QuestionRepository
	cache     *cache.Memory
	blobs     *fakeBlobs
	mailer    *mail.Console
	events    *recorder

	auth     *AuthService
	userSvc  *UserService
	question *QuestionService

	admin, teacher, student *model.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	log := zerolog.Nop()
	f := &fixture{
		cfg: &config.Config{
			JWTSecret:        "test-secret",
			JWTExpiry:        time.Hour,
			ResetTokenExpiry: 15 * time.Minute,
			BcryptCost:       bcrypt.MinCost,
			FrontendBaseURL:  "https://app.test",
			AppName:          "Physical",
		},
		users:     inmem.NewUserRepository(),
		questions: inmem.NewQuestionRepository(),
		cache:     cache.NewMemory(time.Hour),
		blobs:     &fakeBlobs{fail: map[string]bool{}},
		mailer:    mail.NewConsole("Physical", "no-reply@test.com", log),
		events:    &recorder{},
	}
	f.auth = NewAuthService(f.cfg, f.users, f.cache, log)
	f.userSvc = NewUserService(f.cfg, f.users, f.auth, f.cache, f.mailer, f.events, log)
	f.question = NewQuestionService(f.questions, f.users, f.blobs, f.cache, f.events, log)

	f.admin = f.seedUser(t, "admin@test.com", model.RoleAdmin)
	f.teacher = f.seedUser(t, "teacher@test.com", model.RoleTeacher)
	f.student = f.seedUser(t, "student@test.com", model.RoleStudent)
	return f
}

func (f *fixture) seedUser(t *testing.T, email string, role model.Role) *model.User {
	t.Helper()
	hash, err := f.auth.HashPassword("secret1")
	require.NoError(t, err)
	u := &model.User{FirstName: "F", LastName: "L", Email: email, PasswordHash: hash, Role: role}
	require.NoError(t, f.users.Create(context.Background(), u))
	u.PasswordHash = ""
	return u
}

func questionRequest(subjectID uuid.UUID) *model.CreateQuestionRequest {
	return &model.CreateQuestionRequest{
		Title:          "Free fall",
		Subject:        "Kinematics",
		SubjectID:      subjectID.String(),
		Solution:       "v = g t",
		Hints:          []string{"g is about 9.8", "t = 2"},
		Tags:           []string{"motion"},
		Content:        &model.Content{Text: "How fast after 2 s?"},
		CorrectAnswers: []model.Answer{{Type: model.AnswerText, Text: "42", Order: 9}},
	}
}

// ─── Questions ─────────────────────────────────────────────────────────

func TestCreateQuestionStatusFollowsAuthorRole(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	subject := uuid.New()

	pending, err := f.question.Create(ctx, f.student, questionRequest(subject))
	require.NoError(t, err)
	assert.False(t, pending.Status)
	require.NotNil(t, pending.StudentID)
	assert.Equal(t, f.student.ID, *pending.StudentID)
	assert.Nil(t, pending.ApprovedBy)
	assert.Equal(t, 1, pending.CorrectAnswers[0].Order)

	for _, author := range []*model.User{f.teacher, f.admin} {
		q, err := f.question.Create(ctx, author, questionRequest(subject))
		require.NoError(t, err)
		assert.True(t, q.Status, "role %s", author.Role)
		require.NotNil(t, q.ApprovedBy)
		assert.Equal(t, author.ID, *q.ApprovedBy)
		assert.Equal(t, author.ID, *q.TeacherID)
	}

	assert.Equal(t, []string{EventQuestionPending}, f.events.names())
}

func TestCreateQuestionRejectsInvalidContent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	req := questionRequest(uuid.New())
	req.Content = &model.Content{}
	_, err := f.question.Create(ctx, f.student, req)
	var ve *model.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "content", ve.Field)

	req = questionRequest(uuid.New())
	req.Content = &model.Content{Text: "x", Image: "https://elsewhere.test/a.png"}
	_, err = f.question.Create(ctx, f.student, req)
	require.ErrorAs(t, err, &ve)

	req = questionRequest(uuid.New())
	req.CorrectAnswers = nil
	_, err = f.question.Create(ctx, f.student, req)
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "correct_answers", ve.Field)
}

func TestCreateDropsStaleAggregate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	subject := uuid.New()

	_, err := f.question.Create(ctx, f.teacher, questionRequest(subject))
	require.NoError(t, err)
	list, err := f.question.ListApproved(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)

	_, err = f.question.Create(ctx, f.admin, questionRequest(subject))
	require.NoError(t, err)
	list, err = f.question.ListApproved(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestApproveQuestion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	q, err := f.question.Create(ctx, f.student, questionRequest(uuid.New()))
	require.NoError(t, err)

	// Warm every cache entry the approval has to fix.
	_, err = f.question.Get(ctx, q.ID)
	require.NoError(t, err)
	pending, err := f.question.ListUnapproved(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	_, err = f.question.ListApproved(ctx)
	require.ErrorIs(t, err, ErrNoQuestions)

	req := &model.ApproveQuestionRequest{QuestionID: q.ID.String(), AdminID: f.teacher.ID.String()}
	approved, err := f.question.Approve(ctx, req)
	require.NoError(t, err)
	assert.True(t, approved.Status)
	assert.Equal(t, f.teacher.ID, *approved.ApprovedBy)

	got, err := f.question.Get(ctx, q.ID)
	require.NoError(t, err)
	assert.True(t, got.Status)

	_, err = f.question.ListUnapproved(ctx)
	assert.ErrorIs(t, err, ErrNoQuestions)
	list, err := f.question.ListApproved(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	// Approving again is a no-op success.
	again, err := f.question.Approve(ctx, req)
	require.NoError(t, err)
	assert.True(t, again.Status)
}

func TestApproveQuestionErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	q, err := f.question.Create(ctx, f.student, questionRequest(uuid.New()))
	require.NoError(t, err)

	_, err = f.question.Approve(ctx, &model.ApproveQuestionRequest{QuestionID: q.ID.String(), AdminID: f.student.ID.String()})
	assert.ErrorIs(t, err, ErrNotApprover)

	_, err = f.question.Approve(ctx, &model.ApproveQuestionRequest{QuestionID: q.ID.String(), AdminID: uuid.NewString()})
	assert.ErrorIs(t, err, ErrNotApprover)

	_, err = f.question.Approve(ctx, &model.ApproveQuestionRequest{QuestionID: uuid.NewString(), AdminID: f.admin.ID.String()})
	assert.ErrorIs(t, err, ErrQuestionNotFound)

	_, err = f.question.Approve(ctx, &model.ApproveQuestionRequest{QuestionID: "nope", AdminID: f.admin.ID.String()})
	assert.ErrorIs(t, err, ErrQuestionNotFound)

	var ve *model.ValidationError
	_, err = f.question.Approve(ctx, &model.ApproveQuestionRequest{QuestionID: q.ID.String(), AdminID: "nope"})
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "adminId", ve.Field)

	got, err := f.question.Get(ctx, q.ID)
	require.NoError(t, err)
	assert.False(t, got.Status)
}

func TestDeleteRemovesImagesBestEffort(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	req := questionRequest(uuid.New())
	req.Content = &model.Content{Text: "see figure", Image: cdn + "approved/question/c.png"}
	req.CorrectAnswers = []model.Answer{
		{Type: model.AnswerImage, Image: cdn + "approved/solution/a.png"},
		{Type: model.AnswerText, Text: "42"},
	}
	req.SolutionSteps = []model.Answer{{Type: model.AnswerTextAndImage, Text: "step", Image: cdn + "approved/detailed/s.png"}}
	q, err := f.question.Create(ctx, f.teacher, req)
	require.NoError(t, err)
	_, err = f.question.Get(ctx, q.ID)
	require.NoError(t, err)

	f.blobs.fail["approved/solution/a.png"] = true

	deleted, err := f.question.Delete(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, q.ID, deleted.ID)
	assert.ElementsMatch(t, []string{"approved/question/c.png", "approved/detailed/s.png"}, f.blobs.deleted)

	_, err = f.question.Get(ctx, q.ID)
	assert.ErrorIs(t, err, ErrQuestionNotFound)
	_, err = f.question.Delete(ctx, q.ID)
	assert.ErrorIs(t, err, ErrQuestionNotFound)
	assert.Contains(t, f.events.names(), EventQuestionDeleted)
}

func TestEditRefreshesCache(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	q, err := f.question.Create(ctx, f.student, questionRequest(uuid.New()))
	require.NoError(t, err)
	_, err = f.question.Get(ctx, q.ID)
	require.NoError(t, err)

	title := "Free fall, revisited"
	edit := &model.EditQuestionRequest{
		Title:          &title,
		Content:        &model.Content{Text: "How fast after 3 s?"},
		CorrectAnswers: []model.Answer{{Type: model.AnswerText, Text: "29.4"}},
	}
	edited, err := f.question.Edit(ctx, q.ID, edit)
	require.NoError(t, err)
	assert.Equal(t, title, edited.Title)
	assert.False(t, edited.Status)

	got, err := f.question.Get(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, title, got.Title)
	assert.Equal(t, "29.4", got.CorrectAnswers[0].Text)
	assert.Equal(t, q.Hints, got.Hints)

	// Edit mode requires both parts of a text+image answer.
	edit.CorrectAnswers = []model.Answer{{Type: model.AnswerTextAndImage, Text: "29.4"}}
	_, err = f.question.Edit(ctx, q.ID, edit)
	var ve *model.ValidationError
	require.ErrorAs(t, err, &ve)

	edit.CorrectAnswers = []model.Answer{{Type: model.AnswerText, Text: "1"}}
	_, err = f.question.Edit(ctx, uuid.New(), edit)
	assert.ErrorIs(t, err, ErrQuestionNotFound)
}

func TestReplaceSolutionSteps(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	q, err := f.question.Create(ctx, f.teacher, questionRequest(uuid.New()))
	require.NoError(t, err)

	steps, err := f.question.ReplaceSolutionSteps(ctx, q.ID, []model.Answer{
		{Type: model.AnswerText, Text: "write v = g t", Order: 5},
		{Type: model.AnswerText, Text: "substitute", Order: 5},
	})
	require.NoError(t, err)
	require.Len(t, steps, 2)
	assert.Equal(t, 2, steps[1].Order)

	sol, err := f.question.Solution(ctx, q.ID)
	require.NoError(t, err)
	assert.Len(t, sol.SolutionSteps, 2)

	_, err = f.question.ReplaceSolutionSteps(ctx, q.ID, nil)
	var ve *model.ValidationError
	assert.ErrorAs(t, err, &ve)
}

func TestTestAnswer(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	req := questionRequest(uuid.New())
	req.CorrectAnswers = []model.Answer{
		{Type: model.AnswerImage, Image: cdn + "x.png"},
		{Type: model.AnswerTextAndImage, Text: "Forty Two"},
		{Type: model.AnswerText, Text: "42"},
	}
	q, err := f.question.Create(ctx, f.teacher, req)
	require.NoError(t, err)

	cases := map[string]bool{
		" 42 ":      true,
		"forty two": true,
		"41":        false,
		"x.png":     false,
	}
	for answer, want := range cases {
		got, err := f.question.TestAnswer(ctx, q.ID, answer)
		require.NoError(t, err)
		assert.Equal(t, want, got, "answer %q", answer)
	}

	_, err = f.question.TestAnswer(ctx, q.ID, "   ")
	assert.ErrorIs(t, err, ErrAnswerRequired)
}

func TestHint(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	q, err := f.question.Create(ctx, f.teacher, questionRequest(uuid.New()))
	require.NoError(t, err)

	hint, err := f.question.Hint(ctx, q.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, "t = 2", hint)

	_, err = f.question.Hint(ctx, q.ID, 2)
	assert.ErrorIs(t, err, ErrHintOutOfRange)
	_, err = f.question.Hint(ctx, q.ID, -1)
	assert.ErrorIs(t, err, ErrHintOutOfRange)
}

func TestNextAndListings(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	subject := uuid.New()

	first, err := f.question.Create(ctx, f.teacher, questionRequest(subject))
	require.NoError(t, err)
	_, err = f.question.Create(ctx, f.student, questionRequest(subject))
	require.NoError(t, err)
	_, err = f.question.Create(ctx, f.teacher, questionRequest(uuid.New()))
	require.NoError(t, err)

	_, err = f.question.Next(ctx, first.ID)
	assert.ErrorIs(t, err, ErrNoMoreQuestions, "pending and other-subject questions are skipped")

	second, err := f.question.Create(ctx, f.admin, questionRequest(subject))
	require.NoError(t, err)

	next, err := f.question.Next(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, second.ID, next.ID)
	next, err = f.question.Next(ctx, second.ID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, next.ID, "wraps around")

	bySubject, err := f.question.ListBySubject(ctx, subject)
	require.NoError(t, err)
	assert.Len(t, bySubject, 2)

	byTag, err := f.question.ListByTag(ctx, "motion")
	require.NoError(t, err)
	assert.Len(t, byTag, 3, "tags span subjects")
	byTag, err = f.question.ListByTag(ctx, "Motion")
	require.NoError(t, err)
	assert.Empty(t, byTag)
}

func TestPrewarmCaches(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	q, err := f.question.Create(ctx, f.teacher, questionRequest(uuid.New()))
	require.NoError(t, err)
	f.cache.Flush()

	require.NoError(t, f.question.PrewarmCaches(ctx))

	var cached model.Question
	ok, err := f.cache.Get(ctx, config.CacheKey.QuestionKey(q.ID.String()), &cached)
	require.NoError(t, err)
	assert.True(t, ok)

	var list []model.Question
	ok, err = f.cache.Get(ctx, config.CacheKey.ApprovedQuestions, &list)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Len(t, list, 1)

	ok, err = f.cache.Get(ctx, config.CacheKey.UnapprovedQuestions, &list)
	require.NoError(t, err)
	assert.False(t, ok)
}

// ─── Users ─────────────────────────────────────────────────────────────

func TestSignupAndTeacherApproval(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.userSvc.Signup(ctx, &model.SignupRequest{
		FirstName: "Ada", LastName: "L", Email: " Ada@Example.com ", Password: "secret1", RequestedRole: "teacher",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, res.Token)
	assert.Equal(t, model.RoleStudent, res.User.Role)
	assert.Equal(t, "ada@example.com", res.User.Email)
	assert.Empty(t, res.User.PasswordHash)
	assert.Contains(t, f.events.names(), EventTeacherRequested)

	_, err = f.userSvc.Signup(ctx, &model.SignupRequest{FirstName: "A", LastName: "B", Email: "ada@example.com", Password: "secret1"})
	assert.ErrorIs(t, err, ErrUserExists)

	requests, err := f.userSvc.TeacherRequests(ctx)
	require.NoError(t, err)
	require.Len(t, requests, 1)

	// Resolve once so the id entry is cached with the student role.
	u, err := f.auth.Authenticate(ctx, res.Token)
	require.NoError(t, err)
	assert.Equal(t, model.RoleStudent, u.Role)

	promoted, err := f.userSvc.ApproveTeacher(ctx, f.admin, res.User.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RoleTeacher, promoted.Role)
	assert.Nil(t, promoted.RequestedRole)
	assert.Equal(t, f.admin.ID, *promoted.ApprovedBy)

	u, err = f.auth.Authenticate(ctx, res.Token)
	require.NoError(t, err)
	assert.Equal(t, model.RoleTeacher, u.Role)

	requests, err = f.userSvc.TeacherRequests(ctx)
	require.NoError(t, err)
	assert.Empty(t, requests)

	_, err = f.userSvc.ApproveTeacher(ctx, f.admin, uuid.New())
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestSignupIgnoresOtherRequestedRoles(t *testing.T) {
	f := newFixture(t)
	res, err := f.userSvc.Signup(context.Background(), &model.SignupRequest{
		FirstName: "Eve", LastName: "X", Email: "eve@test.com", Password: "secret1", RequestedRole: "admin",
	})
	require.NoError(t, err)
	assert.Equal(t, model.RoleStudent, res.User.Role)
	assert.Nil(t, res.User.RequestedRole)
}

func TestSignin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	res, err := f.userSvc.Signin(ctx, &model.SigninRequest{Email: "TEACHER@test.com", Password: "secret1"})
	require.NoError(t, err)
	assert.Equal(t, f.teacher.ID, res.User.ID)
	assert.Empty(t, res.User.PasswordHash)

	_, err = f.userSvc.Signin(ctx, &model.SigninRequest{Email: "teacher@test.com", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = f.userSvc.Signin(ctx, &model.SigninRequest{Email: "nobody@test.com", Password: "secret1"})
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestChangePassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	err := f.userSvc.ChangePassword(ctx, &model.ChangePasswordRequest{Email: "student@test.com", OldPassword: "bad", NewPassword: "secret2"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	require.NoError(t, f.userSvc.ChangePassword(ctx, &model.ChangePasswordRequest{
		Email: "student@test.com", OldPassword: "secret1", NewPassword: "secret2",
	}))

	_, err = f.userSvc.Signin(ctx, &model.SigninRequest{Email: "student@test.com", Password: "secret1"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = f.userSvc.Signin(ctx, &model.SigninRequest{Email: "student@test.com", Password: "secret2"})
	assert.NoError(t, err)
}

func TestChangeEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// Prime the email cache under the old key.
	_, err := f.userSvc.Signin(ctx, &model.SigninRequest{Email: "student@test.com", Password: "secret1"})
	require.NoError(t, err)

	_, err = f.userSvc.ChangeEmail(ctx, f.teacher, &model.ChangeEmailRequest{OldEmail: "student@test.com", NewEmail: "s2@test.com"})
	assert.ErrorIs(t, err, ErrPermissionDenied)

	updated, err := f.userSvc.ChangeEmail(ctx, f.student, &model.ChangeEmailRequest{OldEmail: "student@test.com", NewEmail: "S2@test.com"})
	require.NoError(t, err)
	assert.Equal(t, "s2@test.com", updated.Email)

	_, err = f.userSvc.Signin(ctx, &model.SigninRequest{Email: "student@test.com", Password: "secret1"})
	assert.ErrorIs(t, err, ErrUserNotFound)
	_, err = f.userSvc.Signin(ctx, &model.SigninRequest{Email: "s2@test.com", Password: "secret1"})
	assert.NoError(t, err)

	// Admins may change anyone's email, but not onto a taken one.
	_, err = f.userSvc.ChangeEmail(ctx, f.admin, &model.ChangeEmailRequest{OldEmail: "s2@test.com", NewEmail: "teacher@test.com"})
	assert.ErrorIs(t, err, ErrUserExists)
}

func TestRecoverAndResetPassword(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.userSvc.RecoverPassword(ctx, "student@test.com"))
	sent := f.mailer.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "student@test.com", sent[0].To)
	assert.Contains(t, sent[0].Subject, "Physical")

	token := resetTokenFrom(t, sent[0].TextContent)

	_, err := f.auth.ValidateToken(token)
	assert.ErrorIs(t, err, ErrTokenInvalid, "reset tokens are not access tokens")

	require.NoError(t, f.userSvc.ResetPassword(ctx, &model.ResetPasswordRequest{Token: token, NewPassword: "secret9"}))
	_, err = f.userSvc.Signin(ctx, &model.SigninRequest{Email: "student@test.com", Password: "secret9"})
	assert.NoError(t, err)

	err = f.userSvc.ResetPassword(ctx, &model.ResetPasswordRequest{Token: token, NewPassword: "secret8"})
	assert.ErrorIs(t, err, ErrResetTokenInvalid)

	err = f.userSvc.ResetPassword(ctx, &model.ResetPasswordRequest{Token: "garbage", NewPassword: "secret8"})
	assert.ErrorIs(t, err, ErrResetTokenInvalid)

	assert.ErrorIs(t, f.userSvc.RecoverPassword(ctx, "nobody@test.com"), ErrUserNotFound)
}

func resetTokenFrom(t *testing.T, body string) string {
	t.Helper()
	i := strings.Index(body, "token=")
	require.GreaterOrEqual(t, i, 0)
	raw := strings.Fields(body[i+len("token="):])[0]
	token, err := url.QueryUnescape(raw)
	require.NoError(t, err)
	return token
}

// ─── Auth ──────────────────────────────────────────────────────────────

func TestAuthenticate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	token, err := f.auth.GenerateToken(f.student)
	require.NoError(t, err)
	u, err := f.auth.Authenticate(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, f.student.ID, u.ID)
	assert.Empty(t, u.PasswordHash)

	_, err = f.auth.Authenticate(ctx, "not-a-jwt")
	assert.ErrorIs(t, err, ErrTokenInvalid)

	ghost, err := f.auth.GenerateToken(&model.User{ID: uuid.New(), Role: model.RoleStudent})
	require.NoError(t, err)
	_, err = f.auth.Authenticate(ctx, ghost)
	assert.ErrorIs(t, err, ErrUserNotFound)

	expiredCfg := *f.cfg
	expiredCfg.JWTExpiry = -time.Minute
	expiredAuth := NewAuthService(&expiredCfg, f.users, f.cache, zerolog.Nop())
	expired, err := expiredAuth.GenerateToken(f.student)
	require.NoError(t, err)
	_, err = f.auth.Authenticate(ctx, expired)
	assert.ErrorIs(t, err, ErrTokenExpired)

	otherCfg := *f.cfg
	otherCfg.JWTSecret = "other"
	forged, err := NewAuthService(&otherCfg, f.users, f.cache, zerolog.Nop()).GenerateToken(f.student)
	require.NoError(t, err)
	_, err = f.auth.Authenticate(ctx, forged)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

// ─── Subjects ──────────────────────────────────────────────────────────

func TestSubjectCRUD(t *testing.T) {
	svc := NewSubjectService(inmem.NewSubjectRepository(), zerolog.Nop())
	ctx := context.Background()

	_, err := svc.Create(ctx, &model.SubjectRequest{Name: "   "})
	var ve *model.ValidationError
	require.ErrorAs(t, err, &ve)

	sub, err := svc.Create(ctx, &model.SubjectRequest{Name: " Optics ", Tags: []string{"light", " "}})
	require.NoError(t, err)
	assert.Equal(t, "Optics", sub.Name)
	assert.Equal(t, []string{"light"}, sub.Tags)

	updated, err := svc.Update(ctx, sub.ID, &model.SubjectRequest{Name: "Wave optics"})
	require.NoError(t, err)
	assert.Equal(t, "Wave optics", updated.Name)

	all, err := svc.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	require.NoError(t, svc.Delete(ctx, sub.ID))
	_, err = svc.GetByID(ctx, sub.ID)
	assert.ErrorIs(t, err, ErrSubjectNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, sub.ID), ErrSubjectNotFound)
	_, err = svc.Update(ctx, sub.ID, &model.SubjectRequest{Name: "x"})
	assert.ErrorIs(t, err, ErrSubjectNotFound)
}
