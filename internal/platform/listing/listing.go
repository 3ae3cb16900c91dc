// Package listing carries paging, sorting and search parameters from the HTTP edge to repositories.
package listing

import "context"

// Params are shared by every list query.
type Params struct {
	Q      string
	Sort   string
	Limit  int
	Offset int
}

// Collect pages through fetch in pages of size rows, starting at base.Offset,
// until a page comes back short. It returns every row the query matches.
func Collect[T any](ctx context.Context, base Params, size int, fetch func(context.Context, Params) ([]T, error)) ([]T, error) {
	if size <= 0 {
		size = 1
	}
	params := base
	params.Limit = size
	var out []T
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		page, err := fetch(ctx, params)
		if err != nil {
			return nil, err
		}
		out = append(out, page...)
		if len(page) < size {
			return out, nil
		}
		params.Offset += size
	}
}
