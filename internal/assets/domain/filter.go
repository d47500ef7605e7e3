package assets

import (
	"errors"
	"sort"
	"strings"
)

const (
	DefaultListLimit = 100
	MaxListLimit     = 1000
)

// ErrInvalidSort indicates a sort column outside the whitelist.
var ErrInvalidSort = errors.New("assets: invalid sort")

// SortColumns are the columns a listing may be ordered by.
var SortColumns = map[string]struct{}{
	"name":                {},
	"iso":                 {},
	"owner":               {},
	"capacity_mw":         {},
	"thermal_score":       {},
	"redevelopment_score": {},
	"overall_score":       {},
	"created_at":          {},
	"updated_at":          {},
}

// ListFilter narrows and orders an asset listing.
type ListFilter struct {
	ISO             string
	Status          string
	Rating          string
	Owner           string
	Tech            string
	Query           string
	IncludeInactive bool
	Limit           int
	Offset          int
	SortBy          string
	Descending      bool
}

// Normalize applies defaults and rejects unknown sort columns.
func (f ListFilter) Normalize() (ListFilter, error) {
	if f.SortBy == "" {
		f.SortBy = "name"
	}
	if _, ok := SortColumns[f.SortBy]; !ok {
		return f, ErrInvalidSort
	}
	if f.Limit <= 0 {
		f.Limit = DefaultListLimit
	}
	if f.Limit > MaxListLimit {
		f.Limit = MaxListLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f, nil
}

// Matches reports whether an asset passes the filter.
func (f ListFilter) Matches(a *Asset) bool {
	if !f.IncludeInactive && !a.IsActive {
		return false
	}
	if f.ISO != "" && !strings.EqualFold(a.ISO, f.ISO) {
		return false
	}
	if f.Status != "" && !strings.EqualFold(string(a.Status), f.Status) {
		return false
	}
	if f.Rating != "" && !strings.EqualFold(string(a.OverallRating), f.Rating) {
		return false
	}
	if f.Owner != "" && !containsFold(a.Owner, f.Owner) {
		return false
	}
	if f.Tech != "" && !containsFold(a.Tech, f.Tech) {
		return false
	}
	if f.Query != "" {
		q := f.Query
		if !containsFold(a.Name, q) && !containsFold(a.Codename, q) &&
			!containsFold(a.Owner, q) && !containsFold(a.Location, q) {
			return false
		}
	}
	return true
}

// SortAssets orders assets by the filter's sort column. Missing numbers sort last.
func SortAssets(list []Asset, f ListFilter) {
	field, found := FieldByName(f.SortBy)
	sort.SliceStable(list, func(i, j int) bool {
		a, b := &list[i], &list[j]
		var less, greater bool
		switch {
		case f.SortBy == "created_at":
			less, greater = a.CreatedAt.Before(b.CreatedAt), b.CreatedAt.Before(a.CreatedAt)
		case f.SortBy == "updated_at":
			less, greater = a.UpdatedAt.Before(b.UpdatedAt), b.UpdatedAt.Before(a.UpdatedAt)
		case found && field.IsNumeric():
			sa, _ := field.Score(a)
			sb, _ := field.Score(b)
			va, oka := sa.Get()
			vb, okb := sb.Get()
			if oka != okb {
				return oka
			}
			less, greater = va < vb, vb < va
		default:
			ta := strings.ToLower(field.Display(a))
			tb := strings.ToLower(field.Display(b))
			less, greater = ta < tb, tb < ta
		}
		if f.Descending {
			return greater
		}
		return less
	})
}

// Page applies offset and limit to a sorted listing.
func Page(list []Asset, f ListFilter) []Asset {
	if f.Offset >= len(list) {
		return []Asset{}
	}
	end := f.Offset + f.Limit
	if end > len(list) {
		end = len(list)
	}
	return list[f.Offset:end]
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}
