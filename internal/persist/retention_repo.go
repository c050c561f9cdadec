package persist

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"golang.org/x/crypto/blake2b"
)

// RetentionRepo stores one retention payload per world in Postgres.
// Each payload carries a blake2b digest so a damaged row reads as an error
// instead of decoding into the wrong regions.
type RetentionRepo struct {
	db *DB
}

func NewRetentionRepo(db *DB) *RetentionRepo {
	return &RetentionRepo{db: db}
}

// Read returns nil, nil when no row exists for world.
func (r *RetentionRepo) Read(ctx context.Context, world string) ([]byte, error) {
	var payload, digest []byte
	err := r.db.Pool.QueryRow(ctx,
		`SELECT payload, digest FROM retention_state WHERE world_id = $1`, world,
	).Scan(&payload, &digest)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("select retention_state: %w", err)
	}
	if sum := blake2b.Sum256(payload); !bytes.Equal(sum[:], digest) {
		return nil, fmt.Errorf("retention_state %s: %w", world, ErrDigestMismatch)
	}
	return payload, nil
}

func (r *RetentionRepo) Write(ctx context.Context, world string, data []byte) error {
	sum := blake2b.Sum256(data)
	_, err := r.db.Pool.Exec(ctx,
		`INSERT INTO retention_state (world_id, payload, digest, updated_at)
		 VALUES ($1, $2, $3, now())
		 ON CONFLICT (world_id) DO UPDATE
		 SET payload = EXCLUDED.payload, digest = EXCLUDED.digest, updated_at = now()`,
		world, data, sum[:],
	)
	if err != nil {
		return fmt.Errorf("upsert retention_state: %w", err)
	}
	return nil
}

func (r *RetentionRepo) Delete(ctx context.Context, world string) error {
	if _, err := r.db.Pool.Exec(ctx,
		`DELETE FROM retention_state WHERE world_id = $1`, world,
	); err != nil {
		return fmt.Errorf("delete retention_state: %w", err)
	}
	return nil
}
