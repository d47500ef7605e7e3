package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	assets "pipeline-dashboard/internal/assets/domain"
)

const defaultAssetsTable = "assets"

// AssetRepository is a Postgres implementation for assets.
type AssetRepository struct {
	db      DBTX
	table   string
	columns []column
}

// column binds a table column to an asset field.
type column struct {
	name string
	dest func(*assets.Asset) any
	arg  func(*assets.Asset) any
}

// NewAssetRepository constructs a repository.
func NewAssetRepository(db DBTX, opts ...AssetOption) *AssetRepository {
	repo := &AssetRepository{db: db, table: defaultAssetsTable, columns: assetColumns()}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

// AssetOption configures the repository.
type AssetOption func(*AssetRepository)

// WithAssetTable overrides the default table name.
func WithAssetTable(table string) AssetOption {
	return func(repo *AssetRepository) {
		if table != "" {
			repo.table = table
		}
	}
}

func assetColumns() []column {
	cols := []column{{
		name: "id",
		dest: func(a *assets.Asset) any { return &a.ID },
		arg:  func(a *assets.Asset) any { return a.ID },
	}}
	for _, f := range assets.Fields() {
		var sample assets.Asset
		if f.Dest(&sample) == nil {
			continue
		}
		cols = append(cols, column{
			name: f.Name,
			dest: f.Dest,
			arg:  f.Value,
		})
	}
	cols = append(cols,
		column{
			name: "overall_rating",
			dest: func(a *assets.Asset) any { return (*string)(&a.OverallRating) },
			arg:  func(a *assets.Asset) any { return string(a.OverallRating) },
		},
		column{
			name: "status",
			dest: func(a *assets.Asset) any { return (*string)(&a.Status) },
			arg:  func(a *assets.Asset) any { return string(a.Status) },
		},
		column{
			name: "has_na",
			dest: func(a *assets.Asset) any { return &a.HasNA },
			arg:  func(a *assets.Asset) any { return a.HasNA },
		},
		column{
			name: "is_active",
			dest: func(a *assets.Asset) any { return &a.IsActive },
			arg:  func(a *assets.Asset) any { return a.IsActive },
		},
		column{
			name: "created_at",
			dest: func(a *assets.Asset) any { return &a.CreatedAt },
			arg:  func(a *assets.Asset) any { return a.CreatedAt },
		},
		column{
			name: "updated_at",
			dest: func(a *assets.Asset) any { return &a.UpdatedAt },
			arg:  func(a *assets.Asset) any { return a.UpdatedAt },
		},
		column{
			name: "updated_by",
			dest: func(a *assets.Asset) any { return &a.UpdatedBy },
			arg:  func(a *assets.Asset) any { return a.UpdatedBy },
		},
	)
	return cols
}

func (r *AssetRepository) selectList() string {
	names := make([]string, len(r.columns))
	for i, c := range r.columns {
		names[i] = c.name
	}
	return strings.Join(names, ", ")
}

func (r *AssetRepository) scan(row interface{ Scan(...any) error }) (*assets.Asset, error) {
	var asset assets.Asset
	dests := make([]any, len(r.columns))
	for i, c := range r.columns {
		dests[i] = c.dest(&asset)
	}
	if err := row.Scan(dests...); err != nil {
		return nil, err
	}
	asset.CreatedAt = asset.CreatedAt.UTC()
	asset.UpdatedAt = asset.UpdatedAt.UTC()
	return &asset, nil
}

// Get loads an asset by id.
func (r *AssetRepository) Get(ctx context.Context, id string) (*assets.Asset, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("asset repo: nil db")
	}
	if id == "" {
		return nil, errors.New("asset repo: empty id")
	}
	query := fmt.Sprintf(`
SELECT %s
FROM %s
WHERE id = $1
LIMIT 1`, r.selectList(), r.table)

	asset, err := r.scan(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return asset, nil
}

// FindByName loads the active asset with the given name, ignoring case.
func (r *AssetRepository) FindByName(ctx context.Context, name string) (*assets.Asset, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("asset repo: nil db")
	}
	query := fmt.Sprintf(`
SELECT %s
FROM %s
WHERE lower(btrim(name)) = lower(btrim($1)) AND is_active
ORDER BY updated_at DESC
LIMIT 1`, r.selectList(), r.table)

	asset, err := r.scan(r.db.QueryRowContext(ctx, query, name))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return asset, nil
}

// List returns the filtered page and the total match count.
func (r *AssetRepository) List(ctx context.Context, filter assets.ListFilter) ([]assets.Asset, int, error) {
	if r == nil || r.db == nil {
		return nil, 0, errors.New("asset repo: nil db")
	}
	filter, err := filter.Normalize()
	if err != nil {
		return nil, 0, err
	}
	where, args := buildWhere(filter)

	var total int
	countQuery := fmt.Sprintf(`SELECT COUNT(*) FROM %s%s`, r.table, where)
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	direction := "ASC"
	if filter.Descending {
		direction = "DESC"
	}
	orderBy := filter.SortBy
	if _, ok := textSortColumns[orderBy]; ok {
		orderBy = "lower(" + orderBy + ")"
	}
	args = append(args, filter.Limit, filter.Offset)
	query := fmt.Sprintf(`
SELECT %s
FROM %s%s
ORDER BY %s %s NULLS LAST, id
LIMIT $%d OFFSET $%d`, r.selectList(), r.table, where, orderBy, direction, len(args)-1, len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	items := make([]assets.Asset, 0, filter.Limit)
	for rows.Next() {
		asset, err := r.scan(rows)
		if err != nil {
			return nil, 0, err
		}
		items = append(items, *asset)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

var textSortColumns = map[string]struct{}{"name": {}, "iso": {}, "owner": {}}

func buildWhere(filter assets.ListFilter) (string, []any) {
	var clauses []string
	var args []any
	add := func(clause string, value any) {
		args = append(args, value)
		clauses = append(clauses, fmt.Sprintf(clause, len(args)))
	}
	if !filter.IncludeInactive {
		clauses = append(clauses, "is_active")
	}
	if filter.ISO != "" {
		add("lower(iso) = lower($%d)", filter.ISO)
	}
	if filter.Status != "" {
		add("lower(status) = lower($%d)", filter.Status)
	}
	if filter.Rating != "" {
		add("lower(overall_rating) = lower($%d)", filter.Rating)
	}
	if filter.Owner != "" {
		add("owner ILIKE $%d", "%"+filter.Owner+"%")
	}
	if filter.Tech != "" {
		add("tech ILIKE $%d", "%"+filter.Tech+"%")
	}
	if filter.Query != "" {
		args = append(args, "%"+filter.Query+"%")
		n := len(args)
		clauses = append(clauses, fmt.Sprintf("(name ILIKE $%d OR codename ILIKE $%d OR owner ILIKE $%d OR location ILIKE $%d)", n, n, n, n))
	}
	if len(clauses) == 0 {
		return "", args
	}
	return "\nWHERE " + strings.Join(clauses, " AND "), args
}

// Save upserts an asset.
func (r *AssetRepository) Save(ctx context.Context, asset *assets.Asset) error {
	if r == nil || r.db == nil {
		return errors.New("asset repo: nil db")
	}
	if asset == nil {
		return errors.New("asset repo: nil asset")
	}
	if err := asset.Validate(); err != nil {
		return err
	}
	now := time.Now().UTC()
	if asset.CreatedAt.IsZero() {
		asset.CreatedAt = now
	}
	if asset.UpdatedAt.IsZero() {
		asset.UpdatedAt = now
	}

	names := make([]string, len(r.columns))
	placeholders := make([]string, len(r.columns))
	updates := make([]string, 0, len(r.columns))
	args := make([]any, len(r.columns))
	for i, c := range r.columns {
		names[i] = c.name
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = c.arg(asset)
		if c.name != "id" && c.name != "created_at" {
			updates = append(updates, fmt.Sprintf("%s = EXCLUDED.%s", c.name, c.name))
		}
	}
	query := fmt.Sprintf(`
INSERT INTO %s (
	%s
) VALUES (
	%s
)
ON CONFLICT (id)
DO UPDATE SET
	%s`, r.table, strings.Join(names, ",\n\t"), strings.Join(placeholders, ", "), strings.Join(updates, ",\n\t"))

	_, err := r.db.ExecContext(ctx, query, args...)
	return err
}

// Deactivate marks an asset inactive.
func (r *AssetRepository) Deactivate(ctx context.Context, id, by string, at time.Time) error {
	if r == nil || r.db == nil {
		return errors.New("asset repo: nil db")
	}
	query := fmt.Sprintf(`
UPDATE %s
SET is_active = FALSE, updated_at = $2, updated_by = $3
WHERE id = $1`, r.table)
	result, err := r.db.ExecContext(ctx, query, id, at.UTC(), by)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return assets.ErrNotFound
	}
	return nil
}
