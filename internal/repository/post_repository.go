package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/contentflow/contentflow-api/internal/models"
	"github.com/contentflow/contentflow-api/internal/transfer"
	"github.com/google/uuid"
)

// Result wraps the rows returned by a write so callers can tell "matched
// nothing" apart from an error.
type Result[T any] struct {
	Rows []T
}

func (r Result[T]) First() (T, bool) {
	var zero T
	if len(r.Rows) == 0 {
		return zero, false
	}
	return r.Rows[0], true
}

// PostPatch maps column names to new values. A nil value sets the column to NULL.
type PostPatch map[string]any

var patchableColumns = map[string]struct{}{
	"title":              {},
	"content_text":       {},
	"social_network":     {},
	"content_type":       {},
	"media_url":          {},
	"media_storage_path": {},
	"status":             {},
	"scheduled_at":       {},
}

const postColumns = `id, organization_id, author_user_id, title, content_text, social_network, content_type,
	media_url, media_storage_path, status, scheduled_at, created_at, updated_at, deleted_at`

type PostRepository interface {
	Create(ctx context.Context, post *models.Post) (*models.Post, error)
	GetByID(ctx context.Context, id, orgID uuid.UUID) (*models.Post, error)
	List(ctx context.Context, filter transfer.PostFilter) ([]*models.Post, error)
	Update(ctx context.Context, id, orgID uuid.UUID, patch PostPatch) (Result[*models.Post], error)
	SoftDelete(ctx context.Context, id, orgID uuid.UUID, at time.Time) (Result[*models.Post], error)
}

type postRepository struct {
	db *sql.DB
}

func NewPostRepository(db *sql.DB) PostRepository {
	return &postRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(row rowScanner) (*models.Post, error) {
	var post models.Post
	err := row.Scan(&post.ID, &post.OrganizationID, &post.AuthorUserID, &post.Title, &post.ContentText,
		&post.SocialNetwork, &post.ContentType, &post.MediaURL, &post.MediaStoragePath, &post.Status,
		&post.ScheduledAt, &post.CreatedAt, &post.UpdatedAt, &post.DeletedAt)
	if err != nil {
		return nil, err
	}
	post.ContentTypeDisplay = models.ContentTypeDisplayName(post.ContentType)
	return &post, nil
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) (*models.Post, error) {
	query := `
		INSERT INTO posts (id, organization_id, author_user_id, title, content_text, social_network, content_type, status, scheduled_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING ` + postColumns

	row := r.db.QueryRowContext(ctx, query, post.ID, post.OrganizationID, post.AuthorUserID, post.Title,
		post.ContentText, post.SocialNetwork, post.ContentType, post.Status, post.ScheduledAt)

	created, err := scanPost(row)
	if err != nil {
		slog.Error(err.Error())
		return nil, err
	}

	return created, nil
}

// GetByID only sees posts of orgID that are not soft-deleted. A missing post
// yields nil, nil.
func (r *postRepository) GetByID(ctx context.Context, id, orgID uuid.UUID) (*models.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts WHERE id = $1 AND organization_id = $2 AND deleted_at IS NULL`

	post, err := scanPost(r.db.QueryRowContext(ctx, query, id, orgID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		slog.Error(err.Error())
		return nil, err
	}

	return post, nil
}

func (r *postRepository) List(ctx context.Context, filter transfer.PostFilter) ([]*models.Post, error) {
	query, args := buildPostListQuery(filter)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		slog.Error(err.Error())
		return nil, err
	}
	defer rows.Close()

	posts := make([]*models.Post, 0)
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			slog.Error(err.Error())
			return nil, err
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		slog.Error(err.Error())
		return nil, err
	}

	return posts, nil
}

func (r *postRepository) Update(ctx context.Context, id, orgID uuid.UUID, patch PostPatch) (Result[*models.Post], error) {
	query, args, err := buildPostUpdateQuery(id, orgID, patch)
	if err != nil {
		return Result[*models.Post]{}, err
	}

	return r.queryPosts(ctx, query, args...)
}

func (r *postRepository) SoftDelete(ctx context.Context, id, orgID uuid.UUID, at time.Time) (Result[*models.Post], error) {
	query := `
		UPDATE posts
		SET status = $1, deleted_at = $2, updated_at = $2
		WHERE id = $3 AND organization_id = $4 AND deleted_at IS NULL
		RETURNING ` + postColumns

	return r.queryPosts(ctx, query, models.PostStatusDeleted, at, id, orgID)
}

func (r *postRepository) queryPosts(ctx context.Context, query string, args ...any) (Result[*models.Post], error) {
	var res Result[*models.Post]

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		slog.Error(err.Error())
		return res, err
	}
	defer rows.Close()

	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			slog.Error(err.Error())
			return res, err
		}
		res.Rows = append(res.Rows, post)
	}
	if err := rows.Err(); err != nil {
		slog.Error(err.Error())
		return res, err
	}

	return res, nil
}

func buildPostUpdateQuery(id, orgID uuid.UUID, patch PostPatch) (string, []any, error) {
	if len(patch) == 0 {
		return "", nil, fmt.Errorf("empty post patch")
	}

	columns := make([]string, 0, len(patch))
	for col := range patch {
		if _, ok := patchableColumns[col]; !ok {
			return "", nil, fmt.Errorf("column %q cannot be updated", col)
		}
		columns = append(columns, col)
	}
	sort.Strings(columns)

	sets := make([]string, 0, len(columns)+1)
	args := make([]any, 0, len(columns)+2)
	for i, col := range columns {
		sets = append(sets, fmt.Sprintf("%s = $%d", col, i+1))
		args = append(args, patch[col])
	}
	sets = append(sets, "updated_at = now()")
	args = append(args, id, orgID)

	query := fmt.Sprintf(`UPDATE posts SET %s WHERE id = $%d AND organization_id = $%d AND deleted_at IS NULL RETURNING %s`,
		strings.Join(sets, ", "), len(columns)+1, len(columns)+2, postColumns)

	return query, args, nil
}

func buildPostListQuery(f transfer.PostFilter) (string, []any) {
	conds := []string{"organization_id = $1"}
	args := []any{f.OrganizationID}

	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	switch f.Deleted {
	case transfer.DeletedFilterDeleted:
		conds = append(conds, "deleted_at IS NOT NULL")
	case transfer.DeletedFilterAll:
	default:
		conds = append(conds, "deleted_at IS NULL")
	}

	if f.Status != "" {
		add("status = $%d", f.Status)
	}
	if f.SocialNetwork != "" {
		add("social_network = $%d", f.SocialNetwork)
	}
	if f.ContentType != "" {
		add("content_type = $%d", f.ContentType)
	}
	if f.DateFrom != nil {
		add("created_at >= $%d", *f.DateFrom)
	}
	if f.DateTo != nil {
		add("created_at <= $%d", *f.DateTo)
	}

	args = append(args, f.Limit, f.Offset)
	query := fmt.Sprintf(`SELECT %s FROM posts WHERE %s ORDER BY created_at DESC LIMIT $%d OFFSET $%d`,
		postColumns, strings.Join(conds, " AND "), len(args)-1, len(args))

	return query, args
}
