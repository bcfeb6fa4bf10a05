package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	log "github.com/sirupsen/logrus"
)

// Repository keeps each user's store list under a string key.
type Repository interface {
	Load(ctx context.Context, userKey string) ([]StoreRef, error)
	// Save replaces the whole list.
	Save(ctx context.Context, userKey string, refs []StoreRef) error
}

type RepositoryImpl struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *RepositoryImpl {
	return &RepositoryImpl{db: db}
}

func (r *RepositoryImpl) Load(ctx context.Context, userKey string) ([]StoreRef, error) {
	query := `SELECT store_id, display_name, created_at FROM user_store WHERE user_key = $1 ORDER BY position`
	rows, err := r.db.Query(ctx, query, userKey)
	if err != nil {
		err := fmt.Errorf("could not query stores: %w", err)
		log.Error(err)
		return nil, err
	}
	defer rows.Close()

	refs := make([]StoreRef, 0)
	for rows.Next() {
		var ref StoreRef
		if err := rows.Scan(&ref.StoreId, &ref.DisplayName, &ref.CreatedAt); err != nil {
			log.Errorf("failed to scan store: %v", err)
			return nil, err
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}

func (r *RepositoryImpl) Save(ctx context.Context, userKey string, refs []StoreRef) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM user_store WHERE user_key = $1`, userKey); err != nil {
		err := fmt.Errorf("could not clear stores: %w", err)
		log.Error(err)
		return err
	}

	query := `INSERT INTO user_store (user_key, store_id, display_name, created_at, position) VALUES ($1, $2, $3, $4, $5)`
	for position, ref := range refs {
		if _, err := tx.Exec(ctx, query, userKey, ref.StoreId, ref.DisplayName, ref.CreatedAt, position); err != nil {
			err := fmt.Errorf("could not insert store %s: %w", ref.StoreId, err)
			log.Error(err)
			return err
		}
	}
	return tx.Commit(ctx)
}
