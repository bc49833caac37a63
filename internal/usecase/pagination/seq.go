// Package pagination turns keyset-paged repository reads into lazy sequences.
package pagination

import (
	"context"
	"iter"

	"github.com/LavaJover/shvark-escrow-service/internal/domain"
)

const DefaultPageSize = 100

// FetchFunc reads up to limit rows strictly after the cursor.
type FetchFunc[T any] func(ctx context.Context, after *domain.Cursor, limit int) ([]T, error)

// Seq returns a finite sequence over every row after start. Pages are fetched on
// demand; ranging over the sequence again starts over from start. A fetch error is
// yielded once and ends the sequence.
func Seq[T any](
	ctx context.Context,
	pageSize int,
	start *domain.Cursor,
	fetch FetchFunc[T],
	cursorOf func(T) domain.Cursor,
) iter.Seq2[T, error] {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return func(yield func(T, error) bool) {
		var zero T
		after := start
		for {
			if err := ctx.Err(); err != nil {
				yield(zero, err)
				return
			}
			rows, err := fetch(ctx, after, pageSize)
			if err != nil {
				yield(zero, err)
				return
			}
			for _, row := range rows {
				if !yield(row, nil) {
					return
				}
			}
			if len(rows) < pageSize {
				return
			}
			next := cursorOf(rows[len(rows)-1])
			after = &next
		}
	}
}

// Take collects up to n rows and reports whether more rows follow.
func Take[T any](seq iter.Seq2[T, error], n int) ([]T, bool, error) {
	out := make([]T, 0, n)
	more := false
	for row, err := range seq {
		if err != nil {
			return out, false, err
		}
		if len(out) == n {
			more = true
			break
		}
		out = append(out, row)
	}
	return out, more, nil
}
