package memory

import (
	"context"
	"strings"
	"sync"
	"time"

	assets "pipeline-dashboard/internal/assets/domain"
)

// AssetRepository is an in-memory asset repository.
type AssetRepository struct {
	mu   sync.RWMutex
	data map[string]*assets.Asset
}

// NewAssetRepository constructs a repository.
func NewAssetRepository() *AssetRepository {
	return &AssetRepository{data: make(map[string]*assets.Asset)}
}

// Get loads an asset by id.
func (r *AssetRepository) Get(ctx context.Context, id string) (*assets.Asset, error) {
	_ = ctx
	r.mu.RLock()
	asset := r.data[id]
	r.mu.RUnlock()
	return asset.Clone(), nil
}

// FindByName loads the active asset with the given name, ignoring case.
func (r *AssetRepository) FindByName(ctx context.Context, name string) (*assets.Asset, error) {
	_ = ctx
	name = strings.TrimSpace(name)
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, asset := range r.data {
		if asset.IsActive && strings.EqualFold(strings.TrimSpace(asset.Name), name) {
			return asset.Clone(), nil
		}
	}
	return nil, nil
}

// List returns the filtered page and the total match count.
func (r *AssetRepository) List(ctx context.Context, filter assets.ListFilter) ([]assets.Asset, int, error) {
	_ = ctx
	filter, err := filter.Normalize()
	if err != nil {
		return nil, 0, err
	}
	r.mu.RLock()
	matched := make([]assets.Asset, 0, len(r.data))
	for _, asset := range r.data {
		if filter.Matches(asset) {
			matched = append(matched, *asset)
		}
	}
	r.mu.RUnlock()

	assets.SortAssets(matched, filter)
	return assets.Page(matched, filter), len(matched), nil
}

// Save stores a copy of the asset, overwriting any existing one.
func (r *AssetRepository) Save(ctx context.Context, asset *assets.Asset) error {
	_ = ctx
	if err := asset.Validate(); err != nil {
		return err
	}
	copy := asset.Clone()
	r.mu.Lock()
	r.data[asset.ID] = copy
	r.mu.Unlock()
	return nil
}

// Deactivate marks an asset inactive.
func (r *AssetRepository) Deactivate(ctx context.Context, id, by string, at time.Time) error {
	_ = ctx
	r.mu.Lock()
	defer r.mu.Unlock()
	asset := r.data[id]
	if asset == nil {
		return assets.ErrNotFound
	}
	asset.IsActive = false
	asset.UpdatedAt = at
	asset.UpdatedBy = by
	return nil
}

// Len returns the number of stored assets, inactive included.
func (r *AssetRepository) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.data)
}
