package sqlite

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cloud.google.com/go/civil"
	"github.com/fwojciec/pageflow"
	"github.com/google/uuid"
)

var _ pageflow.ResourceService = (*ResourceService)(nil)

// ResourceService implements pageflow.ResourceService using SQLite.
// Every write appends, so repeated runs build up a history per URL.
type ResourceService struct {
	db *DB
}

// NewResourceService creates a new ResourceService.
func NewResourceService(db *DB) *ResourceService {
	return &ResourceService{db: db}
}

// WriteResources stores resources in a single transaction.
func (s *ResourceService) WriteResources(ctx context.Context, resources []pageflow.Resource) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO resources (id, url, title, description, timestamp, content_hash, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	createdAt := time.Now().UTC().Format(timeFormat)
	for _, r := range resources {
		if _, err := stmt.ExecContext(ctx,
			uuid.New().String(), r.URL, r.Title, r.Description, r.Timestamp.String(),
			hashContent(r.Title, r.Description), createdAt,
		); err != nil {
			return fmt.Errorf("insert %s: %w", r.URL, err)
		}
	}

	return tx.Commit()
}

// FindResources retrieves stored resources, most recent first.
func (s *ResourceService) FindResources(ctx context.Context, filter pageflow.ResourceFilter) ([]*pageflow.StoredResource, error) {
	var query strings.Builder
	var args []any

	query.WriteString("SELECT id, url, title, description, timestamp, content_hash, created_at FROM resources WHERE 1=1")

	if filter.URL != nil {
		query.WriteString(" AND url = ?")
		args = append(args, *filter.URL)
	}

	query.WriteString(" ORDER BY created_at DESC, rowid DESC")
	appendPagination(&query, &args, filter.Limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	resources := []*pageflow.StoredResource{}
	for rows.Next() {
		var r pageflow.StoredResource
		var timestamp, createdAt string

		if err := rows.Scan(&r.ID, &r.URL, &r.Title, &r.Description, &timestamp,
			&r.ContentHash, &createdAt); err != nil {
			return nil, err
		}

		if r.Timestamp, err = civil.ParseDate(timestamp); err != nil {
			return nil, fmt.Errorf("failed to parse timestamp: %w", err)
		}
		if r.CreatedAt, err = parseRFC3339(createdAt, "created_at"); err != nil {
			return nil, err
		}

		resources = append(resources, &r)
	}

	return resources, rows.Err()
}
