package task

import "context"

// Repository loads and saves the whole task collection at once.
type Repository interface {
	// Load returns the stored collection. found is false when nothing has
	// been stored yet. A stored value that cannot be decoded yields an
	// error wrapping ErrSnapshotUnreadable.
	Load(ctx context.Context) (tasks []*Task, found bool, err error)
	SaveAll(ctx context.Context, tasks []*Task) error
}
