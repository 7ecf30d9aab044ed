package registry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/filestreamhq/filestream/internal/db"
)

// Service provides registry operations over the files table. All operations
// are single statements; the store's per-row atomicity is the only
// concurrency primitive relied upon.
type Service struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewService creates the registry service.
func NewService(log *slog.Logger, pool *pgxpool.Pool) *Service {
	return &Service{
		pool:   pool,
		logger: log.With(slog.String("service", "registry")),
	}
}

const putQuery = `
INSERT INTO files (stable_id, delivery_token, display_name, mime_type, size_bytes, caption, owner_id)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (stable_id) DO UPDATE SET
    delivery_token = EXCLUDED.delivery_token,
    display_name   = EXCLUDED.display_name,
    mime_type      = EXCLUDED.mime_type,
    size_bytes     = EXCLUDED.size_bytes,
    caption        = EXCLUDED.caption,
    owner_id       = EXCLUDED.owner_id,
    updated_at     = now()
`

// Put registers an upload. Re-registering the same stable ID overwrites the
// delivery token and descriptive metadata instead of duplicating the record.
// Returns the stable ID the public link is derived from.
func (s *Service) Put(ctx context.Context, params PutParams) (string, error) {
	stableID := strings.TrimSpace(params.StableID)
	if stableID == "" {
		return "", fmt.Errorf("stable ID is required")
	}
	if strings.TrimSpace(params.DeliveryToken) == "" {
		return "", fmt.Errorf("delivery token is required")
	}

	_, err := s.pool.Exec(ctx, putQuery,
		stableID,
		params.DeliveryToken,
		db.TextFromString(params.DisplayName),
		db.TextFromString(params.MIMEType),
		db.Int8FromInt64(params.SizeBytes),
		db.TextFromString(params.Caption),
		params.OwnerID,
	)
	if err != nil {
		return "", fmt.Errorf("%w: put %s: %v", ErrStoreUnavailable, stableID, err)
	}
	return stableID, nil
}

const getQuery = `
SELECT stable_id, delivery_token, display_name, mime_type, size_bytes, caption, owner_id, created_at, updated_at
FROM files
WHERE stable_id = $1
`

// Get returns the record for the given stable ID, or ErrNotFound.
func (s *Service) Get(ctx context.Context, stableID string) (FileRecord, error) {
	var (
		record      FileRecord
		displayName pgtype.Text
		mimeType    pgtype.Text
		sizeBytes   pgtype.Int8
		caption     pgtype.Text
		createdAt   pgtype.Timestamptz
		updatedAt   pgtype.Timestamptz
	)
	err := s.pool.QueryRow(ctx, getQuery, stableID).Scan(
		&record.StableID,
		&record.DeliveryToken,
		&displayName,
		&mimeType,
		&sizeBytes,
		&caption,
		&record.OwnerID,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return FileRecord{}, fmt.Errorf("%w: %s", ErrNotFound, stableID)
		}
		return FileRecord{}, fmt.Errorf("%w: get %s: %v", ErrStoreUnavailable, stableID, err)
	}

	record.DisplayName = db.TextToString(displayName)
	if record.DisplayName == "" {
		record.DisplayName = DefaultDisplayName
	}
	record.MIMEType = db.TextToString(mimeType)
	if record.MIMEType == "" {
		record.MIMEType = DefaultMIMEType
	}
	record.SizeBytes = db.Int8ToInt64(sizeBytes)
	record.Caption = db.TextToString(caption)
	record.CreatedAt = db.TimeFromPg(createdAt)
	record.UpdatedAt = db.TimeFromPg(updatedAt)
	return record, nil
}

// DeleteByOwner removes every record owned by ownerID and returns the count
// removed. Zero is a valid outcome, not an error.
func (s *Service) DeleteByOwner(ctx context.Context, ownerID int64) (int64, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM files WHERE owner_id = $1`, ownerID)
	if err != nil {
		return 0, fmt.Errorf("%w: delete owner %d: %v", ErrStoreUnavailable, ownerID, err)
	}
	removed := tag.RowsAffected()
	if removed > 0 {
		s.logger.Info("owner records removed", slog.Int64("owner_id", ownerID), slog.Int64("count", removed))
	}
	return removed, nil
}

// Owners returns the distinct owner IDs present in the store.
func (s *Service) Owners(ctx context.Context) ([]int64, error) {
	rows, err := s.pool.Query(ctx, `SELECT DISTINCT owner_id FROM files ORDER BY owner_id`)
	if err != nil {
		return nil, fmt.Errorf("%w: list owners: %v", ErrStoreUnavailable, err)
	}
	defer rows.Close()

	var owners []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("%w: scan owner: %v", ErrStoreUnavailable, err)
		}
		owners = append(owners, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: list owners: %v", ErrStoreUnavailable, err)
	}
	return owners, nil
}
