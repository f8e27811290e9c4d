package repository

import "context"

// Store is the full persistence layer of the BFF
type Store interface {
	Item
	Lookup
	User
	Ping(ctx context.Context) error
}
