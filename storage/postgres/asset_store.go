package postgres

import (
	"context"
	"errors"
	"fmt"

	"fleet-svc/app/domains"

	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

func wrapConflict(err error, what string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%s: %w", what, domains.ErrConflict)
	}
	return err
}

// ListGroups returns all asset groups ordered by name
func (s *Store) ListGroups(ctx context.Context) ([]domains.AssetGroup, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, display_name, description, color, icon FROM asset_groups ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var groups []domains.AssetGroup
	for rows.Next() {
		var g domains.AssetGroup
		if err := rows.Scan(&g.ID, &g.Name, &g.DisplayName, &g.Description, &g.Color, &g.Icon); err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

// CreateGroup inserts an asset group; duplicate names surface as ErrConflict
func (s *Store) CreateGroup(ctx context.Context, group domains.AssetGroup) (int64, error) {
	var id int64
	err := s.pool.QueryRow(ctx, `
		INSERT INTO asset_groups (name, display_name, description, color, icon)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, group.Name, group.DisplayName, group.Description, group.Color, group.Icon).Scan(&id)
	if err != nil {
		return 0, wrapConflict(err, "duplicate group name")
	}
	return id, nil
}

// DeleteGroup removes a group; its agent mappings follow via FK cascade
func (s *Store) DeleteGroup(ctx context.Context, id int64) (bool, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM asset_groups WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// ListTags returns all asset tags ordered by name
func (s *Store) ListTags(ctx context.Context) ([]domains.AssetTag, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, display_name, color, category FROM asset_tags ORDER BY name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tags []domains.AssetTag
	for rows.Next() {
		var t domains.AssetTag
		if err := rows.Scan(&t.ID, &t.Name, &t.DisplayName, &t.Color, &t.Category); err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	return tags, rows.Err()
}

// CreateTag inserts an asset tag; duplicate names surface as ErrConflict
func (s *Store) CreateTag(ctx context.Context, tag domains.AssetTag) (int64, error) {
	var id int64
	err := s.pool.QueryRow(ctx, `
		INSERT INTO asset_tags (name, display_name, color, category)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`, tag.Name, tag.DisplayName, tag.Color, tag.Category).Scan(&id)
	if err != nil {
		return 0, wrapConflict(err, "duplicate tag name")
	}
	return id, nil
}

// DeleteTag removes a tag; its agent mappings follow via FK cascade
func (s *Store) DeleteTag(ctx context.Context, id int64) (bool, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM asset_tags WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

// AssignGroup maps an agent onto a group; assigning twice is a no-op
func (s *Store) AssignGroup(ctx context.Context, agentID string, groupID int64) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO agent_group_map (agent_id, group_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`, agentID, groupID)
	return err
}

// UnassignGroup removes an agent from a group
func (s *Store) UnassignGroup(ctx context.Context, agentID string, groupID int64) error {
	_, err := s.pool.Exec(ctx,
		`DELETE FROM agent_group_map WHERE agent_id = $1 AND group_id = $2`, agentID, groupID)
	return err
}

// AssignTag attaches a tag to an agent; assigning twice is a no-op
func (s *Store) AssignTag(ctx context.Context, agentID string, tagID int64) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO agent_tag_map (agent_id, tag_id)
		VALUES ($1, $2)
		ON CONFLICT DO NOTHING
	`, agentID, tagID)
	return err
}

// UnassignTag detaches a tag from an agent
func (s *Store) UnassignTag(ctx context.Context, agentID string, tagID int64) error {
	_, err := s.pool.Exec(ctx,
		`DELETE FROM agent_tag_map WHERE agent_id = $1 AND tag_id = $2`, agentID, tagID)
	return err
}
