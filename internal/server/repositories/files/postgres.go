package files

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/fileshare/internal/common"
	"github.com/dmitrijs2005/fileshare/internal/dbx"
	"github.com/dmitrijs2005/fileshare/internal/server/models"
)

// PostgresRepository implements file metadata storage over a dbx.DBTX
// (*sql.DB or *sql.Tx). Tags and categories are stored as jsonb arrays.
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const fileColumns = `id, owner, name, password, length, upload_date, is_private, description, tags, categories`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFile(row rowScanner) (*models.File, error) {
	var item models.File
	var password sql.NullString
	var tags, categories []byte

	if err := row.Scan(&item.ID, &item.Owner, &item.Name, &password, &item.Length,
		&item.UploadDate, &item.IsPrivate, &item.Description, &tags, &categories); err != nil {
		return nil, err
	}

	item.Password = password.String

	if err := json.Unmarshal(tags, &item.Tags); err != nil {
		return nil, fmt.Errorf("decoding tags: %w", err)
	}
	if err := json.Unmarshal(categories, &item.Categories); err != nil {
		return nil, fmt.Errorf("decoding categories: %w", err)
	}

	return &item, nil
}

func (r *PostgresRepository) queryFiles(ctx context.Context, query string, args ...any) ([]*models.File, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to select files: %w", err)
	}
	defer rows.Close()

	var result []*models.File
	for rows.Next() {
		item, err := scanFile(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (r *PostgresRepository) queryFile(ctx context.Context, query string, args ...any) (*models.File, error) {
	item, err := scanFile(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("failed to select file: %w", err)
	}
	return item, nil
}

// Save upserts a file record by id. The whole incoming record replaces the
// stored one; there is no field-level merge.
func (r *PostgresRepository) Save(ctx context.Context, file *models.File) error {
	tags, err := json.Marshal(nonNil(file.Tags))
	if err != nil {
		return fmt.Errorf("encoding tags: %w", err)
	}
	categories, err := json.Marshal(nonNil(file.Categories))
	if err != nil {
		return fmt.Errorf("encoding categories: %w", err)
	}

	var password sql.NullString
	if file.Password != "" {
		password = sql.NullString{String: file.Password, Valid: true}
	}

	query := `
		INSERT INTO files (id, owner, name, password, length, upload_date, is_private, description, tags, categories)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id)
		DO UPDATE SET
			owner = EXCLUDED.owner,
			name = EXCLUDED.name,
			password = EXCLUDED.password,
			length = EXCLUDED.length,
			upload_date = EXCLUDED.upload_date,
			is_private = EXCLUDED.is_private,
			description = EXCLUDED.description,
			tags = EXCLUDED.tags,
			categories = EXCLUDED.categories;
	`
	res, err := r.db.ExecContext(ctx, query,
		file.ID, file.Owner, file.Name, password, file.Length, file.UploadDate,
		file.IsPrivate, file.Description, tags, categories)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n != 1 {
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
	return nil
}

// Delete removes the record with the given id. Exactly one row must be
// affected; deleting a missing record returns common.ErrNotFound.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM files WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}

// FindByID returns the record with the given id.
func (r *PostgresRepository) FindByID(ctx context.Context, id string) (*models.File, error) {
	return r.queryFile(ctx, `SELECT `+fileColumns+` FROM files WHERE id=$1`, id)
}

// FindAllByOwner returns all records belonging to owner.
func (r *PostgresRepository) FindAllByOwner(ctx context.Context, owner string) ([]*models.File, error) {
	return r.queryFiles(ctx, `SELECT `+fileColumns+` FROM files WHERE owner=$1 ORDER BY upload_date`, owner)
}

// CountByOwner returns the number of records belonging to owner.
func (r *PostgresRepository) CountByOwner(ctx context.Context, owner string) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM files WHERE owner=$1`, owner).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count files: %w", err)
	}
	return n, nil
}

// FindByNameAndOwner returns the record with the given display name for owner.
func (r *PostgresRepository) FindByNameAndOwner(ctx context.Context, name, owner string) (*models.File, error) {
	return r.queryFile(ctx, `SELECT `+fileColumns+` FROM files WHERE name=$1 AND owner=$2`, name, owner)
}

// FindAllByName returns all records with the given display name, regardless
// of owner.
func (r *PostgresRepository) FindAllByName(ctx context.Context, name string) ([]*models.File, error) {
	return r.queryFiles(ctx, `SELECT `+fileColumns+` FROM files WHERE name=$1 ORDER BY upload_date`, name)
}

// FindByCategories returns records assigned to at least one of the given
// categories.
func (r *PostgresRepository) FindByCategories(ctx context.Context, categories []string) ([]*models.File, error) {
	query := `SELECT ` + fileColumns + ` FROM files
		WHERE EXISTS (SELECT 1 FROM jsonb_array_elements_text(categories) AS c(v) WHERE c.v = ANY($1))
		ORDER BY upload_date`
	return r.queryFiles(ctx, query, categories)
}

// FindByTagsContaining returns records carrying at least one of the given tags.
func (r *PostgresRepository) FindByTagsContaining(ctx context.Context, tags []string) ([]*models.File, error) {
	query := `SELECT ` + fileColumns + ` FROM files
		WHERE EXISTS (SELECT 1 FROM jsonb_array_elements_text(tags) AS t(v) WHERE t.v = ANY($1))
		ORDER BY upload_date`
	return r.queryFiles(ctx, query, tags)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
