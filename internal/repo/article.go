package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/pkordes/itinerary-planner/internal/domain"
)

// ArticleRepo stores published itinerary snapshots.
type ArticleRepo interface {
	Create(ctx context.Context, a domain.Article) (domain.Article, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.Article, error)
	// ListPaged returns articles newest first with the total count.
	ListPaged(ctx context.Context, p domain.PaginationParams) ([]domain.Article, int64, error)
	// Delete removes an article written by authorID.
	Delete(ctx context.Context, authorID string, id uuid.UUID) error
}

type pgArticleRepo struct {
	db db
}

// NewArticleRepo constructs an ArticleRepo backed by the provided db connection.
func NewArticleRepo(db db) ArticleRepo {
	return &pgArticleRepo{db: db}
}

const articleColumns = `id, trip_id, author_id, title, body, snapshot, created_at`

func (r *pgArticleRepo) Create(ctx context.Context, a domain.Article) (domain.Article, error) {
	snapshot, err := json.Marshal(a.Snapshot)
	if err != nil {
		return domain.Article{}, fmt.Errorf("repo.ArticleRepo.Create: encode snapshot: %w", err)
	}

	const q = `
		INSERT INTO articles (trip_id, author_id, title, body, snapshot)
		VALUES (@trip_id, @author_id, @title, @body, @snapshot::jsonb)
		RETURNING ` + articleColumns

	result, err := scanArticle(r.db.QueryRow(ctx, q, pgx.NamedArgs{
		"trip_id":   a.TripID,
		"author_id": a.AuthorID,
		"title":     a.Title,
		"body":      a.Body,
		"snapshot":  string(snapshot),
	}))
	if err != nil {
		return domain.Article{}, fmt.Errorf("repo.ArticleRepo.Create: %w", err)
	}
	return result, nil
}

func (r *pgArticleRepo) GetByID(ctx context.Context, id uuid.UUID) (domain.Article, error) {
	const q = `SELECT ` + articleColumns + ` FROM articles WHERE id = @id`

	result, err := scanArticle(r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id}))
	if err != nil {
		return domain.Article{}, fmt.Errorf("repo.ArticleRepo.GetByID: %w", err)
	}
	return result, nil
}

func (r *pgArticleRepo) ListPaged(ctx context.Context, p domain.PaginationParams) ([]domain.Article, int64, error) {
	var total int64
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM articles`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("repo.ArticleRepo.ListPaged: count: %w", err)
	}

	const q = `
		SELECT ` + articleColumns + `
		FROM articles
		ORDER BY created_at DESC
		LIMIT @limit OFFSET @offset`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"limit": p.Limit, "offset": p.Offset()})
	if err != nil {
		return nil, 0, fmt.Errorf("repo.ArticleRepo.ListPaged: %w", err)
	}
	defer rows.Close()

	articles := []domain.Article{}
	for rows.Next() {
		a, err := scanArticle(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("repo.ArticleRepo.ListPaged: scan: %w", err)
		}
		articles = append(articles, a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("repo.ArticleRepo.ListPaged: rows: %w", err)
	}
	return articles, total, nil
}

func (r *pgArticleRepo) Delete(ctx context.Context, authorID string, id uuid.UUID) error {
	const q = `DELETE FROM articles WHERE id = @id AND author_id = @author_id`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{"id": id, "author_id": authorID})
	if err != nil {
		return fmt.Errorf("repo.ArticleRepo.Delete: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("repo.ArticleRepo.Delete: %w", domain.ErrArticleNotFound)
	}
	return nil
}

func scanArticle(s scanner) (domain.Article, error) {
	var (
		a        domain.Article
		id       pgtype.UUID
		tripID   pgtype.UUID
		snapshot []byte
	)
	err := s.Scan(&id, &tripID, &a.AuthorID, &a.Title, &a.Body, &snapshot, &a.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Article{}, domain.ErrArticleNotFound
		}
		return domain.Article{}, err
	}
	if err := json.Unmarshal(snapshot, &a.Snapshot); err != nil {
		return domain.Article{}, fmt.Errorf("decode snapshot: %w", err)
	}
	a.ID = uuid.UUID(id.Bytes)
	a.TripID = uuid.UUID(tripID.Bytes)
	return a, nil
}
