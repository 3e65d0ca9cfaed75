package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/physical-edu/physical-backend/internal/model"
)

type SubjectRepository struct {
	pool *pgxpool.Pool
}

func NewSubjectRepository(pool *pgxpool.Pool) *SubjectRepository {
	return &SubjectRepository{pool: pool}
}

func (r *SubjectRepository) Create(ctx context.Context, s *model.Subject) error {
	s.Tags = orEmpty(s.Tags)
	return mapErr(r.pool.QueryRow(ctx,
		`INSERT INTO subjects (name, tags) VALUES ($1, $2) RETURNING id, created_at, updated_at`,
		s.Name, s.Tags).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt))
}

func (r *SubjectRepository) GetAll(ctx context.Context) ([]model.Subject, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, name, tags, created_at, updated_at FROM subjects ORDER BY name ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	subjects := []model.Subject{}
	for rows.Next() {
		var s model.Subject
		if err := rows.Scan(&s.ID, &s.Name, &s.Tags, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		subjects = append(subjects, s)
	}
	return subjects, rows.Err()
}

func (r *SubjectRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Subject, error) {
	var s model.Subject
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, tags, created_at, updated_at FROM subjects WHERE id = $1`, id,
	).Scan(&s.ID, &s.Name, &s.Tags, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	return &s, nil
}

func (r *SubjectRepository) Update(ctx context.Context, s *model.Subject) error {
	s.Tags = orEmpty(s.Tags)
	return mapErr(r.pool.QueryRow(ctx,
		`UPDATE subjects SET name = $1, tags = $2, updated_at = NOW() WHERE id = $3
		 RETURNING created_at, updated_at`,
		s.Name, s.Tags, s.ID).Scan(&s.CreatedAt, &s.UpdatedAt))
}

func (r *SubjectRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM subjects WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
