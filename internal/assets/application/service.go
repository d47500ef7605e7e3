package application

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	assets "pipeline-dashboard/internal/assets/domain"
	"pipeline-dashboard/internal/audit"
	"pipeline-dashboard/internal/observability/logging"
	"pipeline-dashboard/internal/observability/metrics"
)

// Service coordinates asset edits, listing and recalculation.
type Service struct {
	repo   assets.Repository
	audit  audit.Logger
	logger *logging.Logger
	now    func() time.Time
	newID  func() string
}

// Option configures the service.
type Option func(*Service)

// WithAudit records mutations to an audit log.
func WithAudit(logger audit.Logger) Option {
	return func(s *Service) { s.audit = logger }
}

// WithLogger sets the service logger.
func WithLogger(logger *logging.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithClock overrides the clock used for status and timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator overrides asset id generation.
func WithIDGenerator(newID func() string) Option {
	return func(s *Service) {
		if newID != nil {
			s.newID = newID
		}
	}
}

// NewService constructs an asset service.
func NewService(repo assets.Repository, opts ...Option) (*Service, error) {
	if repo == nil {
		return nil, errors.New("asset service: nil repository")
	}
	s := &Service{
		repo:  repo,
		now:   func() time.Time { return time.Now().UTC() },
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Now returns the service clock reading.
func (s *Service) Now() time.Time { return s.now() }

// Get loads an active asset.
func (s *Service) Get(ctx context.Context, id string) (*assets.Asset, error) {
	if strings.TrimSpace(id) == "" {
		return nil, assets.ErrEmptyID
	}
	asset, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if asset == nil || !asset.IsActive {
		return nil, assets.ErrNotFound
	}
	return asset, nil
}

// FindByName returns the active asset with the given name, or nil.
func (s *Service) FindByName(ctx context.Context, name string) (*assets.Asset, error) {
	asset, err := s.repo.FindByName(ctx, name)
	if err != nil || asset == nil || !asset.IsActive {
		return nil, err
	}
	return asset, nil
}

// Create validates, scores and stores a new asset.
func (s *Service) Create(ctx context.Context, fields map[string]any, actor string) (*assets.Asset, error) {
	asset := &assets.Asset{}
	if err := asset.Apply(fields); err != nil {
		return nil, err
	}
	if err := ValidateAsset(asset); err != nil {
		return nil, err
	}
	now := s.now()
	asset.ID = s.newID()
	asset.IsActive = true
	asset.CreatedAt = now
	if err := s.store(ctx, asset, actor, now); err != nil {
		return nil, err
	}
	s.record(ctx, audit.ActionAssetCreate, asset.ID, actor, fields)
	metrics.IncAssetMutation("create")
	return asset, nil
}

// Replace overwrites every editable field of an asset.
func (s *Service) Replace(ctx context.Context, id string, fields map[string]any, actor string) (*assets.Asset, error) {
	return s.update(ctx, id, fields, actor, true)
}

// Patch overwrites only the given fields of an asset.
func (s *Service) Patch(ctx context.Context, id string, fields map[string]any, actor string) (*assets.Asset, error) {
	return s.update(ctx, id, fields, actor, false)
}

func (s *Service) update(ctx context.Context, id string, fields map[string]any, actor string, replace bool) (*assets.Asset, error) {
	asset, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if replace {
		asset.ResetEditable()
	}
	if err := asset.Apply(fields); err != nil {
		return nil, err
	}
	if err := ValidateAsset(asset); err != nil {
		return nil, err
	}
	if err := s.store(ctx, asset, actor, s.now()); err != nil {
		return nil, err
	}
	s.record(ctx, audit.ActionAssetUpdate, asset.ID, actor, fields)
	metrics.IncAssetMutation("update")
	return asset, nil
}

// Delete soft-deletes an asset.
func (s *Service) Delete(ctx context.Context, id, actor string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Deactivate(ctx, id, actor, s.now()); err != nil {
		return err
	}
	s.record(ctx, audit.ActionAssetDelete, id, actor, nil)
	metrics.IncAssetMutation("delete")
	return nil
}

// Upsert merges fields into the active asset with the same name, or creates
// one. Only the given fields overwrite stored values.
func (s *Service) Upsert(ctx context.Context, fields map[string]any, actor string) (*assets.Asset, bool, error) {
	named := &assets.Asset{}
	if err := named.Apply(map[string]any{"name": fields["name"]}); err != nil {
		return nil, false, err
	}
	if strings.TrimSpace(named.Name) == "" {
		return nil, false, assets.ErrEmptyName
	}
	existing, err := s.repo.FindByName(ctx, named.Name)
	if err != nil {
		return nil, false, err
	}
	now := s.now()
	created := existing == nil || !existing.IsActive
	asset := existing
	if created {
		asset = &assets.Asset{ID: s.newID(), IsActive: true, CreatedAt: now}
	}
	if err := asset.Apply(fields); err != nil {
		return nil, false, err
	}
	if err := s.store(ctx, asset, actor, now); err != nil {
		return nil, false, err
	}
	if created {
		metrics.IncAssetMutation("import_create")
	} else {
		metrics.IncAssetMutation("import_update")
	}
	return asset, created, nil
}

// ListResult is one page of assets.
type ListResult struct {
	Items  []assets.Asset `json:"items"`
	Total  int            `json:"total"`
	Limit  int            `json:"limit"`
	Offset int            `json:"offset"`
}

// List returns a filtered, sorted page of assets.
func (s *Service) List(ctx context.Context, filter assets.ListFilter) (ListResult, error) {
	normalized, err := filter.Normalize()
	if err != nil {
		return ListResult{}, err
	}
	items, total, err := s.repo.List(ctx, normalized)
	if err != nil {
		return ListResult{}, err
	}
	if items == nil {
		items = []assets.Asset{}
	}
	return ListResult{Items: items, Total: total, Limit: normalized.Limit, Offset: normalized.Offset}, nil
}

// All returns every asset matching filter, ignoring paging.
func (s *Service) All(ctx context.Context, filter assets.ListFilter) ([]assets.Asset, error) {
	filter.Limit = assets.MaxListLimit
	filter.Offset = 0
	var out []assets.Asset
	for {
		page, err := s.List(ctx, filter)
		if err != nil {
			return nil, err
		}
		out = append(out, page.Items...)
		if len(page.Items) < filter.Limit || len(out) >= page.Total {
			return out, nil
		}
		filter.Offset += len(page.Items)
	}
}

// Stats summarizes active assets.
func (s *Service) Stats(ctx context.Context) (assets.Stats, error) {
	list, err := s.All(ctx, assets.ListFilter{})
	if err != nil {
		return assets.Stats{}, err
	}
	return assets.Summarize(list), nil
}

func (s *Service) store(ctx context.Context, asset *assets.Asset, actor string, now time.Time) error {
	asset.Recompute(now)
	asset.UpdatedAt = now
	asset.UpdatedBy = actor
	if asset.CreatedAt.IsZero() {
		asset.CreatedAt = now
	}
	if err := s.repo.Save(ctx, asset); err != nil {
		return err
	}
	metrics.IncRating(string(asset.OverallRating))
	return nil
}

func (s *Service) record(ctx context.Context, action, resourceID, actor string, payload any) {
	if s.audit == nil {
		return
	}
	entry := audit.Entry{
		Actor:        actor,
		Action:       action,
		ResourceType: "asset",
		ResourceID:   resourceID,
	}
	if payload != nil {
		entry.Metadata = audit.Metadata(payload)
	}
	if err := s.audit.Log(ctx, entry); err != nil {
		s.logger.Warn("audit log failed", "action", action, "asset_id", resourceID, "error", err)
	}
}
