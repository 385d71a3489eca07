package permission

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/arkwith7/abekm/internal/domain"
	"github.com/arkwith7/abekm/internal/domain/container"
)

// maxDepth bounds ancestor walks so a parent cycle cannot loop forever.
const maxDepth = 32

// querier is the consumer interface for the permission database (ISP).
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Repo reads container grants and metadata from the permission database.
type Repo struct {
	db querier
}

// New creates a permission repository.
func New(db querier) *Repo {
	return &Repo{db: db}
}

const accessibleQuery = `
SELECT c.id, c.name, COALESCE(c.parent_id, '')
FROM container_grants g
JOIN containers c ON c.id = g.container_id
WHERE g.user_id = ?
ORDER BY c.id`

// AccessibleContainers returns every container the user holds a grant on.
func (r *Repo) AccessibleContainers(ctx context.Context, userID string) ([]container.Container, error) {
	rows, err := r.db.QueryContext(ctx, accessibleQuery, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: accessible containers: %v", domain.ErrPermissionStore, err)
	}
	defer func() { _ = rows.Close() }()

	var out []container.Container
	for rows.Next() {
		var id, name, parentID string
		if err := rows.Scan(&id, &name, &parentID); err != nil {
			return nil, fmt.Errorf("%w: scan container: %v", domain.ErrPermissionStore, err)
		}
		c, err := container.New(id, name, parentID, nil)
		if err != nil {
			continue
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate containers: %v", domain.ErrPermissionStore, err)
	}
	return out, nil
}

// ContainersByID loads containers with their ancestor paths in one round-trip.
// Ids that do not exist are absent from the result.
func (r *Repo) ContainersByID(ctx context.Context, ids []string) (map[string]container.Container, error) {
	if len(ids) == 0 {
		return map[string]container.Container{}, nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	query := fmt.Sprintf(`
WITH RECURSIVE chain(leaf_id, id, name, parent_id, depth) AS (
	SELECT c.id, c.id, c.name, c.parent_id, 0
	FROM containers c
	WHERE c.id IN (%s)
	UNION ALL
	SELECT chain.leaf_id, p.id, p.name, p.parent_id, chain.depth + 1
	FROM containers p
	JOIN chain ON p.id = chain.parent_id
	WHERE chain.depth < ?
)
SELECT leaf_id, name, COALESCE(parent_id, ''), depth
FROM chain
ORDER BY leaf_id, depth DESC`, placeholders)

	args := make([]any, 0, len(ids)+1)
	for _, id := range ids {
		args = append(args, id)
	}
	args = append(args, maxDepth)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: containers by id: %v", domain.ErrPermissionStore, err)
	}
	defer func() { _ = rows.Close() }()

	type leaf struct {
		name     string
		parentID string
		path     []string
	}
	leaves := make(map[string]*leaf, len(ids))
	for rows.Next() {
		var leafID, name, parentID string
		var depth int
		if err := rows.Scan(&leafID, &name, &parentID, &depth); err != nil {
			return nil, fmt.Errorf("%w: scan chain: %v", domain.ErrPermissionStore, err)
		}
		l, ok := leaves[leafID]
		if !ok {
			l = &leaf{}
			leaves[leafID] = l
		}
		// rows arrive root first, so the leaf itself comes last
		l.path = append(l.path, name)
		if depth == 0 {
			l.name = name
			l.parentID = parentID
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate chain: %v", domain.ErrPermissionStore, err)
	}

	out := make(map[string]container.Container, len(leaves))
	for id, l := range leaves {
		c, err := container.New(id, l.name, l.parentID, l.path)
		if err != nil {
			continue
		}
		out[id] = c
	}
	return out, nil
}
