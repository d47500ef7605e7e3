package assets

import "errors"

var (
	// ErrNotFound indicates the asset does not exist or is inactive.
	ErrNotFound = errors.New("assets: not found")
	// ErrNilAsset indicates a nil asset.
	ErrNilAsset = errors.New("assets: nil asset")
	// ErrEmptyID indicates an empty asset id.
	ErrEmptyID = errors.New("assets: empty id")
	// ErrEmptyName indicates an empty asset name.
	ErrEmptyName = errors.New("assets: empty name")
	// ErrUnknownField indicates a field name outside the canonical table.
	ErrUnknownField = errors.New("assets: unknown field")
	// ErrReadOnlyField indicates an attempt to set a derived field.
	ErrReadOnlyField = errors.New("assets: read-only field")
)
