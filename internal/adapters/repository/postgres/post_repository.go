package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/schoolvote/election/internal/core/domain"
	"github.com/schoolvote/election/internal/core/ports"
)

type postRepository struct {
	db *sql.DB
}

func NewPostRepository(db *sql.DB) ports.PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.ElectionPost, error) {
	post := &domain.ElectionPost{}
	var opensAt, closesAt sql.NullTime
	err := r.db.QueryRowContext(ctx, `
		SELECT id, title, description, active, opens_at, closes_at, created_at
		FROM election_posts WHERE id = $1
	`, id).Scan(&post.ID, &post.Title, &post.Description, &post.Active, &opensAt, &closesAt, &post.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrPostNotFound
		}
		return nil, fmt.Errorf("failed to fetch post: %w", err)
	}
	if opensAt.Valid {
		post.OpensAt = &opensAt.Time
	}
	if closesAt.Valid {
		post.ClosesAt = &closesAt.Time
	}

	candidates, err := r.candidatesByPost(ctx, post.ID)
	if err != nil {
		return nil, err
	}
	post.Candidates = candidates
	return post, nil
}

func (r *postRepository) GetCandidate(ctx context.Context, id uuid.UUID) (*domain.Candidate, error) {
	c := &domain.Candidate{}
	err := r.db.QueryRowContext(ctx, `
		SELECT id, post_id, name, active, created_at FROM candidates WHERE id = $1
	`, id).Scan(&c.ID, &c.PostID, &c.Name, &c.Active, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrCandidateNotFound
		}
		return nil, fmt.Errorf("failed to fetch candidate: %w", err)
	}
	return c, nil
}

func (r *postRepository) List(ctx context.Context) ([]*domain.ElectionPost, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, title, description, active, opens_at, closes_at, created_at
		FROM election_posts ORDER BY created_at
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	defer rows.Close()

	var posts []*domain.ElectionPost
	for rows.Next() {
		post := &domain.ElectionPost{}
		var opensAt, closesAt sql.NullTime
		if err := rows.Scan(&post.ID, &post.Title, &post.Description, &post.Active, &opensAt, &closesAt, &post.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan post: %w", err)
		}
		if opensAt.Valid {
			post.OpensAt = &opensAt.Time
		}
		if closesAt.Valid {
			post.ClosesAt = &closesAt.Time
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating posts: %w", err)
	}

	for _, post := range posts {
		candidates, err := r.candidatesByPost(ctx, post.ID)
		if err != nil {
			return nil, err
		}
		post.Candidates = candidates
	}
	return posts, nil
}

func (r *postRepository) candidatesByPost(ctx context.Context, postID uuid.UUID) ([]domain.Candidate, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, post_id, name, active, created_at FROM candidates WHERE post_id = $1 ORDER BY created_at
	`, postID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch candidates: %w", err)
	}
	defer rows.Close()

	var candidates []domain.Candidate
	for rows.Next() {
		var c domain.Candidate
		if err := rows.Scan(&c.ID, &c.PostID, &c.Name, &c.Active, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan candidate: %w", err)
		}
		candidates = append(candidates, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating candidates: %w", err)
	}
	return candidates, nil
}
