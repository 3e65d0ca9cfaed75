package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/physical-edu/physical-backend/internal/model"
)

// QuestionRepository handles question data access. Content, answers and steps
// are stored as JSONB documents.
type QuestionRepository struct {
	pool *pgxpool.Pool
}

// NewQuestionRepository creates a new QuestionRepository.
func NewQuestionRepository(pool *pgxpool.Pool) *QuestionRepository {
	return &QuestionRepository{pool: pool}
}

const questionColumns = `id, title, content, hints, tags, solution, correct_answers, solution_steps,
	status, subject, subject_id, teacher_id, student_id, approved_by, media_url, created_at, updated_at`

func scanQuestion(row pgx.Row) (*model.Question, error) {
	var q model.Question
	err := row.Scan(
		&q.ID, &q.Title, &q.Content, &q.Hints, &q.Tags, &q.Solution, &q.CorrectAnswers, &q.SolutionSteps,
		&q.Status, &q.Subject, &q.SubjectID, &q.TeacherID, &q.StudentID, &q.ApprovedBy, &q.MediaURL,
		&q.CreatedAt, &q.UpdatedAt,
	)
	if err != nil {
		return nil, mapErr(err)
	}
	return &q, nil
}

func (r *QuestionRepository) list(ctx context.Context, sql string, args ...any) ([]model.Question, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	questions := []model.Question{}
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		questions = append(questions, *q)
	}
	return questions, rows.Err()
}

// Create inserts a new question.
func (r *QuestionRepository) Create(ctx context.Context, q *model.Question) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO questions (title, content, hints, tags, solution, correct_answers, solution_steps,
		                        status, subject, subject_id, teacher_id, student_id, approved_by, media_url)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		 RETURNING id, created_at, updated_at`,
		q.Title, q.Content, orEmpty(q.Hints), orEmpty(q.Tags), q.Solution,
		orEmpty(q.CorrectAnswers), orEmpty(q.SolutionSteps),
		q.Status, q.Subject, q.SubjectID, q.TeacherID, q.StudentID, q.ApprovedBy, q.MediaURL,
	).Scan(&q.ID, &q.CreatedAt, &q.UpdatedAt)
	return mapErr(err)
}

// GetByID returns a single question.
func (r *QuestionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Question, error) {
	return scanQuestion(r.pool.QueryRow(ctx,
		`SELECT `+questionColumns+` FROM questions WHERE id = $1`, id))
}

// Update writes the editable fields and returns the stored row. Status and
// authorship are not touched.
func (r *QuestionRepository) Update(ctx context.Context, q *model.Question) (*model.Question, error) {
	return scanQuestion(r.pool.QueryRow(ctx,
		`UPDATE questions SET title = $2, content = $3, hints = $4, tags = $5, solution = $6,
		        correct_answers = $7, solution_steps = $8, subject = $9, subject_id = $10,
		        updated_at = NOW()
		 WHERE id = $1
		 RETURNING `+questionColumns,
		q.ID, q.Title, q.Content, orEmpty(q.Hints), orEmpty(q.Tags), q.Solution,
		orEmpty(q.CorrectAnswers), orEmpty(q.SolutionSteps), q.Subject, q.SubjectID,
	))
}

// Delete removes a question and returns the deleted row.
func (r *QuestionRepository) Delete(ctx context.Context, id uuid.UUID) (*model.Question, error) {
	return scanQuestion(r.pool.QueryRow(ctx,
		`DELETE FROM questions WHERE id = $1 RETURNING `+questionColumns, id))
}

// Approve marks a question approved by approverID. Approving an approved
// question only refreshes approved_by.
func (r *QuestionRepository) Approve(ctx context.Context, id, approverID uuid.UUID) (*model.Question, error) {
	return scanQuestion(r.pool.QueryRow(ctx,
		`UPDATE questions SET status = TRUE, approved_by = $2, updated_at = NOW()
		 WHERE id = $1
		 RETURNING `+questionColumns, id, approverID))
}

// UpdateSolutionSteps replaces the solution steps.
func (r *QuestionRepository) UpdateSolutionSteps(ctx context.Context, id uuid.UUID, steps []model.Answer) (*model.Question, error) {
	return scanQuestion(r.pool.QueryRow(ctx,
		`UPDATE questions SET solution_steps = $2, updated_at = NOW()
		 WHERE id = $1
		 RETURNING `+questionColumns, id, orEmpty(steps)))
}

// ListByStatus returns questions with the given approval status, newest first.
func (r *QuestionRepository) ListByStatus(ctx context.Context, approved bool) ([]model.Question, error) {
	return r.list(ctx,
		`SELECT `+questionColumns+` FROM questions WHERE status = $1 ORDER BY created_at DESC, id`, approved)
}

// ListBySubject returns the approved questions of a subject in creation order.
func (r *QuestionRepository) ListBySubject(ctx context.Context, subjectID uuid.UUID) ([]model.Question, error) {
	return r.list(ctx,
		`SELECT `+questionColumns+` FROM questions
		 WHERE subject_id = $1 AND status = TRUE
		 ORDER BY created_at, id`, subjectID)
}

// ListByTag returns the approved questions carrying tag.
func (r *QuestionRepository) ListByTag(ctx context.Context, tag string) ([]model.Question, error) {
	return r.list(ctx,
		`SELECT `+questionColumns+` FROM questions
		 WHERE $1 = ANY(tags) AND status = TRUE
		 ORDER BY created_at DESC, id`, tag)
}

// NextInSubject returns the approved question that follows q in its subject,
// wrapping to the first. It returns ErrNotFound when q is the only one.
func (r *QuestionRepository) NextInSubject(ctx context.Context, q *model.Question) (*model.Question, error) {
	return scanQuestion(r.pool.QueryRow(ctx,
		`SELECT `+questionColumns+` FROM questions
		 WHERE subject_id = $1 AND status = TRUE AND id <> $2
		 ORDER BY (created_at, id) > ($3, $2) DESC, created_at, id
		 LIMIT 1`, q.SubjectID, q.ID, q.CreatedAt))
}
