package domain

import "time"

// Cursor is a keyset position in a (createdAt desc, id desc) listing.
type Cursor struct {
	CreatedAt time.Time `json:"created_at"`
	ID        string    `json:"id"`
}

// Admits reports whether a row at (createdAt, id) sorts strictly after the cursor
// in a descending listing.
func (c Cursor) Admits(createdAt time.Time, id string) bool {
	if createdAt.Equal(c.CreatedAt) {
		return id < c.ID
	}
	return createdAt.Before(c.CreatedAt)
}
