package assets

import (
	"context"
	"time"
)

// Repository manages asset persistence. Get and FindByName return nil, nil
// when nothing matches.
type Repository interface {
	Get(ctx context.Context, id string) (*Asset, error)
	FindByName(ctx context.Context, name string) (*Asset, error)
	List(ctx context.Context, filter ListFilter) ([]Asset, int, error)
	Save(ctx context.Context, asset *Asset) error
	Deactivate(ctx context.Context, id, by string, at time.Time) error
}
