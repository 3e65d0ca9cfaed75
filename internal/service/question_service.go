package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/physical-edu/physical-backend/internal/cache"
	"github.com/physical-edu/physical-backend/internal/config"
	"github.com/physical-edu/physical-backend/internal/model"
	"github.com/physical-edu/physical-backend/internal/repository"
	"github.com/physical-edu/physical-backend/internal/storage"
	"github.com/rs/zerolog"
)

// Solution is the full worked answer of a question.
type Solution struct {
	Solution       string         `json:"solution"`
	SolutionSteps  []model.Answer `json:"solution_steps"`
	CorrectAnswers []model.Answer `json:"correct_answers"`
}

// QuestionService runs the authoring and review workflow for questions.
//
// Cache contract: every mutation overwrites or deletes the single-question
// entry it touches and drops the aggregate lists that could hold the old
// value. Approval regenerates the pending list eagerly.
type QuestionService struct {
	questions QuestionStore
	users     UserStore
	blobs     storage.BlobStore
	cache     cache.Store
	notifier  Notifier
	log       zerolog.Logger
}

// NewQuestionService creates a new QuestionService.
func NewQuestionService(
	questions QuestionStore,
	users UserStore,
	blobs storage.BlobStore,
	store cache.Store,
	notifier Notifier,
	log zerolog.Logger,
) *QuestionService {
	return &QuestionService{
		questions: questions,
		users:     users,
		blobs:     blobs,
		cache:     store,
		notifier:  notifierOrNop(notifier),
		log:       log.With().Str("component", "question_service").Logger(),
	}
}

// ─── Authoring ─────────────────────────────────────────────────────────

// Create stores a new question. Questions by admins and teachers are
// approved on creation with the author as approver; student questions
// start pending.
func (s *QuestionService) Create(ctx context.Context, author *model.User, req *model.CreateQuestionRequest) (*model.Question, error) {
	if err := req.Content.Validate(s.blobs.Hosts); err != nil {
		return nil, err
	}
	if err := model.ValidateCorrectAnswers(req.CorrectAnswers, model.ValidateCreate, s.blobs.Hosts); err != nil {
		return nil, err
	}
	if err := model.ValidateAnswers(req.SolutionSteps, model.ValidateCreate, s.blobs.Hosts, "solution_steps"); err != nil {
		return nil, err
	}
	subjectID, err := uuid.Parse(req.SubjectID)
	if err != nil {
		return nil, &model.ValidationError{Field: "subject_id", Message: "invalid subject ID format"}
	}

	q := &model.Question{
		Title:          strings.TrimSpace(req.Title),
		Content:        *req.Content,
		Hints:          req.Hints,
		Tags:           req.Tags,
		Solution:       req.Solution,
		CorrectAnswers: model.Renumber(req.CorrectAnswers),
		SolutionSteps:  model.Renumber(req.SolutionSteps),
		Subject:        req.Subject,
		SubjectID:      subjectID,
		MediaURL:       req.MediaURL,
	}
	authorID := author.ID
	if author.Role.IsApprovalTier() {
		q.Status = true
		q.TeacherID = &authorID
		q.ApprovedBy = &authorID
	} else {
		q.StudentID = &authorID
	}

	if err := s.questions.Create(ctx, q); err != nil {
		s.log.Error().Err(err).Msg("Failed to create question")
		return nil, fmt.Errorf("create question: %w", err)
	}

	cacheSet(ctx, s.cache, s.log, config.CacheKey.QuestionKey(q.ID.String()), q)
	cacheDelete(ctx, s.cache, s.log, aggregateKey(q.Status))

	s.log.Info().
		Str("question_id", q.ID.String()).
		Str("author_id", author.ID.String()).
		Bool("approved", q.Status).
		Msg("Question created")
	if !q.Status {
		s.notifier.Notify(EventQuestionPending, q)
	}
	return q, nil
}

// Edit rewrites a question's content under the strict edit rules. Approval
// status is never changed by an edit.
func (s *QuestionService) Edit(ctx context.Context, id uuid.UUID, req *model.EditQuestionRequest) (*model.Question, error) {
	if err := req.Content.Validate(s.blobs.Hosts); err != nil {
		return nil, err
	}
	if err := model.ValidateCorrectAnswers(req.CorrectAnswers, model.ValidateEdit, s.blobs.Hosts); err != nil {
		return nil, err
	}
	if req.SolutionSteps != nil {
		if err := model.ValidateAnswers(*req.SolutionSteps, model.ValidateEdit, s.blobs.Hosts, "solution_steps"); err != nil {
			return nil, err
		}
	}

	q, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	q.Content = *req.Content
	q.CorrectAnswers = model.Renumber(req.CorrectAnswers)
	if req.SolutionSteps != nil {
		q.SolutionSteps = model.Renumber(*req.SolutionSteps)
	}
	if req.Title != nil {
		q.Title = strings.TrimSpace(*req.Title)
	}
	if req.Subject != nil {
		q.Subject = *req.Subject
	}
	if req.SubjectID != nil {
		subjectID, err := uuid.Parse(*req.SubjectID)
		if err != nil {
			return nil, &model.ValidationError{Field: "subject_id", Message: "invalid subject ID format"}
		}
		q.SubjectID = subjectID
	}
	if req.Solution != nil {
		q.Solution = *req.Solution
	}
	if req.Hints != nil {
		q.Hints = *req.Hints
	}
	if req.Tags != nil {
		q.Tags = *req.Tags
	}

	updated, err := s.questions.Update(ctx, q)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrQuestionNotFound
	}
	if err != nil {
		s.log.Error().Err(err).Str("question_id", id.String()).Msg("Failed to update question")
		return nil, fmt.Errorf("update question: %w", err)
	}

	s.refresh(ctx, updated)
	s.log.Info().Str("question_id", id.String()).Msg("Question updated")
	return updated, nil
}

// ReplaceSolutionSteps swaps the solution steps of a question.
func (s *QuestionService) ReplaceSolutionSteps(ctx context.Context, id uuid.UUID, steps []model.Answer) ([]model.Answer, error) {
	if len(steps) == 0 {
		return nil, &model.ValidationError{Field: "solution_steps", Message: "solution steps must be a non-empty array"}
	}
	if err := model.ValidateAnswers(steps, model.ValidateEdit, s.blobs.Hosts, "solution_steps"); err != nil {
		return nil, err
	}

	updated, err := s.questions.UpdateSolutionSteps(ctx, id, model.Renumber(steps))
	if errors.Is(err, repository.ErrNotFound) {
		s.log.Warn().Str("question_id", id.String()).Msg("Solution steps for unknown question")
		return nil, ErrQuestionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update solution steps: %w", err)
	}

	s.refresh(ctx, updated)
	s.log.Info().Str("question_id", id.String()).Int("steps", len(updated.SolutionSteps)).Msg("Solution steps updated")
	return updated.SolutionSteps, nil
}

// ─── Review ────────────────────────────────────────────────────────────

// Approve marks a pending question approved. The approver is re-read from
// the store and must currently be an admin or teacher. Approving an
// approved question succeeds and leaves it approved.
func (s *QuestionService) Approve(ctx context.Context, req *model.ApproveQuestionRequest) (*model.Question, error) {
	approverID, err := uuid.Parse(req.AdminID)
	if err != nil {
		return nil, &model.ValidationError{Field: "adminId", Message: "invalid admin ID format"}
	}
	approver, err := s.users.GetByID(ctx, approverID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("load approver: %w", err)
	}
	if approver == nil || !approver.Role.CanApprove() {
		s.log.Warn().Str("approver_id", approverID.String()).Msg("Approval rejected, approver lacks role")
		return nil, ErrNotApprover
	}

	// A malformed id cannot name a stored question.
	questionID, err := uuid.Parse(req.QuestionID)
	if err != nil {
		s.log.Warn().Str("question_id", req.QuestionID).Msg("Approval for unknown question")
		return nil, ErrQuestionNotFound
	}

	q, err := s.questions.Approve(ctx, questionID, approverID)
	if errors.Is(err, repository.ErrNotFound) {
		s.log.Warn().Str("question_id", questionID.String()).Msg("Approval for unknown question")
		return nil, ErrQuestionNotFound
	}
	if err != nil {
		s.log.Error().Err(err).Str("question_id", questionID.String()).Msg("Failed to approve question")
		return nil, fmt.Errorf("approve question: %w", err)
	}

	cacheSet(ctx, s.cache, s.log, config.CacheKey.QuestionKey(q.ID.String()), q)
	pending, err := s.questions.ListByStatus(ctx, false)
	if err != nil {
		s.log.Warn().Err(err).Msg("Could not regenerate pending list, dropping it")
		cacheDelete(ctx, s.cache, s.log, config.CacheKey.UnapprovedQuestions)
	} else {
		cacheSet(ctx, s.cache, s.log, config.CacheKey.UnapprovedQuestions, pending)
	}
	cacheDelete(ctx, s.cache, s.log, config.CacheKey.ApprovedQuestions)

	s.log.Info().
		Str("question_id", q.ID.String()).
		Str("approved_by", approverID.String()).
		Msg("Question approved")
	s.notifier.Notify(EventQuestionApproved, q)
	return q, nil
}

// Delete removes a question and then, best effort, every hosted image it
// referenced. Image failures are logged and never fail the request.
func (s *QuestionService) Delete(ctx context.Context, id uuid.UUID) (*model.Question, error) {
	q, err := s.questions.Delete(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		s.log.Warn().Str("question_id", id.String()).Msg("Delete for unknown question")
		return nil, ErrQuestionNotFound
	}
	if err != nil {
		s.log.Error().Err(err).Str("question_id", id.String()).Msg("Failed to delete question")
		return nil, fmt.Errorf("delete question: %w", err)
	}

	for _, url := range q.Images() {
		if !s.blobs.Hosts(url) {
			continue
		}
		blobID, ok := s.blobs.IDFromURL(url)
		if !ok {
			s.log.Warn().Str("url", url).Msg("Could not extract image id, skipping")
			continue
		}
		if err := s.blobs.Delete(ctx, blobID); err != nil {
			s.log.Error().Err(err).Str("image_id", blobID).Msg("Failed to delete image")
			continue
		}
		s.log.Info().Str("image_id", blobID).Msg("Image deleted")
	}

	cacheDelete(ctx, s.cache, s.log,
		config.CacheKey.QuestionKey(id.String()),
		config.CacheKey.UnapprovedQuestions,
		config.CacheKey.ApprovedQuestions,
	)

	s.log.Info().Str("question_id", id.String()).Msg("Question deleted")
	s.notifier.Notify(EventQuestionDeleted, map[string]string{"id": id.String()})
	return q, nil
}

// ─── Reading ───────────────────────────────────────────────────────────

// Get returns a question, reading through the cache.
func (s *QuestionService) Get(ctx context.Context, id uuid.UUID) (*model.Question, error) {
	key := config.CacheKey.QuestionKey(id.String())

	var cached model.Question
	if cacheGet(ctx, s.cache, s.log, key, &cached) {
		return &cached, nil
	}

	q, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	cacheSet(ctx, s.cache, s.log, key, q)
	return q, nil
}

// ListUnapproved returns every pending question.
func (s *QuestionService) ListUnapproved(ctx context.Context) ([]model.Question, error) {
	return s.listByStatus(ctx, false)
}

// ListApproved returns every approved question.
func (s *QuestionService) ListApproved(ctx context.Context) ([]model.Question, error) {
	return s.listByStatus(ctx, true)
}

// ListBySubject returns the approved questions of a subject.
func (s *QuestionService) ListBySubject(ctx context.Context, subjectID uuid.UUID) ([]model.Question, error) {
	return s.questions.ListBySubject(ctx, subjectID)
}

// ListByTag returns the approved questions carrying tag. Matching is exact
// and case sensitive.
func (s *QuestionService) ListByTag(ctx context.Context, tag string) ([]model.Question, error) {
	return s.questions.ListByTag(ctx, tag)
}

// Hint returns the hint at index.
func (s *QuestionService) Hint(ctx context.Context, id uuid.UUID, index int) (string, error) {
	q, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}
	if index < 0 || index >= len(q.Hints) {
		return "", ErrHintOutOfRange
	}
	return q.Hints[index], nil
}

// Solution returns the worked solution of a question.
func (s *QuestionService) Solution(ctx context.Context, id uuid.UUID) (*Solution, error) {
	q, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	sol := &Solution{
		Solution:       q.Solution,
		SolutionSteps:  q.SolutionSteps,
		CorrectAnswers: q.CorrectAnswers,
	}
	if sol.SolutionSteps == nil {
		sol.SolutionSteps = []model.Answer{}
	}
	if sol.CorrectAnswers == nil {
		sol.CorrectAnswers = []model.Answer{}
	}
	return sol, nil
}

// TestAnswer checks a submitted answer against the text-bearing correct
// answers, ignoring case and surrounding whitespace.
func (s *QuestionService) TestAnswer(ctx context.Context, id uuid.UUID, answer string) (bool, error) {
	q, err := s.Get(ctx, id)
	if err != nil {
		return false, err
	}

	normalized := strings.ToLower(strings.TrimSpace(answer))
	if normalized == "" {
		return false, ErrAnswerRequired
	}
	for _, a := range q.CorrectAnswers {
		if a.Type.HasText() && a.Text != "" && strings.ToLower(strings.TrimSpace(a.Text)) == normalized {
			return true, nil
		}
	}
	return false, nil
}

// Next returns the approved question after id in the same subject.
func (s *QuestionService) Next(ctx context.Context, id uuid.UUID) (*model.Question, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	next, err := s.questions.NextInSubject(ctx, current)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNoMoreQuestions
	}
	if err != nil {
		return nil, fmt.Errorf("next question: %w", err)
	}
	return next, nil
}

// PrewarmCaches loads both aggregate lists and the approved questions into
// the cache before traffic is accepted. Failures are logged and skipped.
func (s *QuestionService) PrewarmCaches(ctx context.Context) error {
	warmed := 0
	for _, approved := range []bool{false, true} {
		questions, err := s.questions.ListByStatus(ctx, approved)
		if err != nil {
			return fmt.Errorf("list questions: %w", err)
		}
		if len(questions) == 0 {
			continue
		}
		cacheSet(ctx, s.cache, s.log, aggregateKey(approved), questions)
		if !approved {
			continue
		}
		for i := range questions {
			cacheSet(ctx, s.cache, s.log, config.CacheKey.QuestionKey(questions[i].ID.String()), &questions[i])
			warmed++
		}
	}

	s.log.Info().Int("warmed", warmed).Msg("Prewarming complete")
	return nil
}

// ─── Internal helpers ──────────────────────────────────────────────────

func (s *QuestionService) load(ctx context.Context, id uuid.UUID) (*model.Question, error) {
	q, err := s.questions.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		s.log.Warn().Str("question_id", id.String()).Msg("Question not found")
		return nil, ErrQuestionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load question: %w", err)
	}
	return q, nil
}

func (s *QuestionService) listByStatus(ctx context.Context, approved bool) ([]model.Question, error) {
	key := aggregateKey(approved)

	var questions []model.Question
	if !cacheGet(ctx, s.cache, s.log, key, &questions) {
		var err error
		questions, err = s.questions.ListByStatus(ctx, approved)
		if err != nil {
			return nil, fmt.Errorf("list questions: %w", err)
		}
		if len(questions) > 0 {
			cacheSet(ctx, s.cache, s.log, key, questions)
		}
	}
	if len(questions) == 0 {
		return nil, ErrNoQuestions
	}
	return questions, nil
}

// refresh overwrites the single entry and drops both aggregate lists.
func (s *QuestionService) refresh(ctx context.Context, q *model.Question) {
	cacheSet(ctx, s.cache, s.log, config.CacheKey.QuestionKey(q.ID.String()), q)
	cacheDelete(ctx, s.cache, s.log, config.CacheKey.UnapprovedQuestions, config.CacheKey.ApprovedQuestions)
}

func aggregateKey(approved bool) string {
	if approved {
		return config.CacheKey.ApprovedQuestions
	}
	return config.CacheKey.UnapprovedQuestions
}
