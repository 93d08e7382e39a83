package services

import (
	"context"
	"fmt"

	"fleet-svc/app/clients"
	"fleet-svc/app/domains"
)

// AssetService manages agent groups and tags
type AssetService struct {
	storage clients.StorageAdapter
}

// NewAssetService creates a new asset service
func NewAssetService(storage clients.StorageAdapter) *AssetService {
	return &AssetService{storage: storage}
}

// ListGroups returns all asset groups
func (s *AssetService) ListGroups(ctx context.Context) ([]domains.AssetGroup, error) {
	return s.storage.ListGroups(ctx)
}

// CreateGroup creates an asset group; group names are unique
func (s *AssetService) CreateGroup(ctx context.Context, group domains.AssetGroup) (int64, error) {
	if group.Name == "" {
		return 0, fmt.Errorf("%w: name is required", domains.ErrValidation)
	}
	if group.DisplayName == "" {
		group.DisplayName = group.Name
	}
	return s.storage.CreateGroup(ctx, group)
}

// DeleteGroup removes a group and its agent mappings; agents survive
func (s *AssetService) DeleteGroup(ctx context.Context, id int64) error {
	matched, err := s.storage.DeleteGroup(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete group %d: %w", id, err)
	}
	if !matched {
		return fmt.Errorf("group %d: %w", id, domains.ErrNotFound)
	}
	return nil
}

// ListTags returns all asset tags
func (s *AssetService) ListTags(ctx context.Context) ([]domains.AssetTag, error) {
	return s.storage.ListTags(ctx)
}

// CreateTag creates an asset tag; tag names are unique
func (s *AssetService) CreateTag(ctx context.Context, tag domains.AssetTag) (int64, error) {
	if tag.Name == "" {
		return 0, fmt.Errorf("%w: name is required", domains.ErrValidation)
	}
	if tag.DisplayName == "" {
		tag.DisplayName = tag.Name
	}
	return s.storage.CreateTag(ctx, tag)
}

// DeleteTag removes a tag and its agent mappings; agents survive
func (s *AssetService) DeleteTag(ctx context.Context, id int64) error {
	matched, err := s.storage.DeleteTag(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete tag %d: %w", id, err)
	}
	if !matched {
		return fmt.Errorf("tag %d: %w", id, domains.ErrNotFound)
	}
	return nil
}

// EnsureTag finds or creates a tag by name and returns its id. Used when
// agents self-report tags at registration.
func (s *AssetService) EnsureTag(ctx context.Context, name string) (int64, error) {
	id, err := s.storage.CreateTag(ctx, domains.AssetTag{Name: name, DisplayName: name})
	if err == nil {
		return id, nil
	}
	tags, listErr := s.storage.ListTags(ctx)
	if listErr != nil {
		return 0, listErr
	}
	for _, tag := range tags {
		if tag.Name == name {
			return tag.ID, nil
		}
	}
	return 0, err
}

// AssignGroup maps an agent onto a group
func (s *AssetService) AssignGroup(ctx context.Context, agentID string, groupID int64) error {
	return s.storage.AssignGroup(ctx, agentID, groupID)
}

// UnassignGroup removes an agent from a group
func (s *AssetService) UnassignGroup(ctx context.Context, agentID string, groupID int64) error {
	return s.storage.UnassignGroup(ctx, agentID, groupID)
}

// AssignTag attaches a tag to an agent
func (s *AssetService) AssignTag(ctx context.Context, agentID string, tagID int64) error {
	return s.storage.AssignTag(ctx, agentID, tagID)
}

// UnassignTag detaches a tag from an agent
func (s *AssetService) UnassignTag(ctx context.Context, agentID string, tagID int64) error {
	return s.storage.UnassignTag(ctx, agentID, tagID)
}
