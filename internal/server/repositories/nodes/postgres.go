package nodes

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/cloudrive/internal/common"
	"github.com/dmitrijs2005/cloudrive/internal/dbx"
	"github.com/dmitrijs2005/cloudrive/internal/server/models"
)

const nodeColumns = `id, owner_id, parent_id, name, kind, size, content_ref, seq, created_at, updated_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type scanner interface {
	Scan(dest ...any) error
}

func scanNode(row scanner) (*models.Node, error) {
	n := &models.Node{}
	err := row.Scan(&n.ID, &n.OwnerID, &n.ParentID, &n.Name, &n.Kind, &n.Size,
		&n.ContentRef, &n.Seq, &n.CreatedAt, &n.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return n, nil
}

func (r *PostgresRepository) Create(ctx context.Context, node *models.Node) (*models.Node, error) {
	query :=
		`INSERT INTO nodes (id, owner_id, parent_id, name, kind, size, content_ref)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING seq, created_at, updated_at
		 `

	err := r.db.QueryRowContext(ctx, query,
		node.ID, node.OwnerID, node.ParentID, node.Name, string(node.Kind), node.Size, node.ContentRef,
	).Scan(&node.Seq, &node.CreatedAt, &node.UpdatedAt)

	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return node, nil
}

func (r *PostgresRepository) Get(ctx context.Context, id string) (*models.Node, error) {
	query := `SELECT ` + nodeColumns + ` FROM nodes WHERE id = $1`

	n, err := scanNode(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) ListChildren(ctx context.Context, ownerID string, parentID *string) ([]*models.Node, error) {
	query := `SELECT ` + nodeColumns + ` FROM nodes
		 WHERE owner_id = $1 AND parent_id IS NOT DISTINCT FROM $2
		 ORDER BY created_at, seq`

	rows, err := r.db.QueryContext(ctx, query, ownerID, parentID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]*models.Node, 0)
	for rows.Next() {
		n, err := scanNode(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) Rename(ctx context.Context, id string, name string) error {
	query := `UPDATE nodes SET name = $2, updated_at = now() WHERE id = $1`
	return r.execOne(ctx, query, id, name)
}

func (r *PostgresRepository) Move(ctx context.Context, id string, parentID *string) error {
	query := `UPDATE nodes SET parent_id = $2, updated_at = now() WHERE id = $1`
	return r.execOne(ctx, query, id, parentID)
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM nodes WHERE id = $1`
	return r.execOne(ctx, query, id)
}

func (r *PostgresRepository) ContentRefExists(ctx context.Context, ref string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM nodes WHERE content_ref = $1)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, ref).Scan(&exists); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return exists, nil
}

// execOne runs a statement that must touch exactly one row.
func (r *PostgresRepository) execOne(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
