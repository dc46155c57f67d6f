package repository

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/contentflow/contentflow-api/internal/models"
	"github.com/google/uuid"
)

// ProfilePatch maps column names to new values. A nil value sets the column to NULL.
type ProfilePatch map[string]any

var profilePatchableColumns = map[string]struct{}{
	"full_name":  {},
	"avatar_url": {},
	"timezone":   {},
}

const profileColumns = `id, full_name, avatar_url, timezone, created_at, updated_at`

type ProfileRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Profile, bool, error)
	Update(ctx context.Context, id uuid.UUID, patch ProfilePatch) (Result[*models.Profile], error)
}

type profileRepository struct {
	db *sql.DB
}

func NewProfileRepository(db *sql.DB) ProfileRepository {
	return &profileRepository{db: db}
}

func scanProfile(row rowScanner) (*models.Profile, error) {
	var p models.Profile
	var timezone sql.NullString
	err := row.Scan(&p.ID, &p.FullName, &p.AvatarURL, &timezone, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.Timezone = timezone.String
	return &p, nil
}

func (r *profileRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Profile, bool, error) {
	query := `SELECT ` + profileColumns + ` FROM profiles WHERE id = $1`

	profile, err := scanProfile(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, false, nil
		}
		slog.Error(err.Error())
		return nil, false, err
	}

	return profile, true, nil
}

func (r *profileRepository) Update(ctx context.Context, id uuid.UUID, patch ProfilePatch) (Result[*models.Profile], error) {
	query, args, err := buildProfileUpdateQuery(id, patch)
	if err != nil {
		return Result[*models.Profile]{}, err
	}

	profile, err := scanProfile(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if err == sql.ErrNoRows {
			return Result[*models.Profile]{}, nil
		}
		slog.Error(err.Error())
		return Result[*models.Profile]{}, err
	}

	return Result[*models.Profile]{Rows: []*models.Profile{profile}}, nil
}

func buildProfileUpdateQuery(id uuid.UUID, patch ProfilePatch) (string, []any, error) {
	if len(patch) == 0 {
		return "", nil, fmt.Errorf("empty profile patch")
	}

	columns := make([]string, 0, len(patch))
	for col := range patch {
		if _, ok := profilePatchableColumns[col]; !ok {
			return "", nil, fmt.Errorf("column %q cannot be updated", col)
		}
		columns = append(columns, col)
	}
	sort.Strings(columns)

	sets := make([]string, 0, len(columns)+1)
	args := make([]any, 0, len(columns)+1)
	for i, col := range columns {
		sets = append(sets, fmt.Sprintf("%s = $%d", col, i+1))
		args = append(args, patch[col])
	}
	sets = append(sets, "updated_at = now()")
	args = append(args, id)

	query := fmt.Sprintf(`UPDATE profiles SET %s WHERE id = $%d RETURNING %s`,
		strings.Join(sets, ", "), len(columns)+1, profileColumns)

	return query, args, nil
}
