// internal/domain/enrollment/repository.go
package enrollment

import "context"

// NotifiedRepository is the durable set of class IDs that already had a
// notification attempt. It is the only state that outlives a cycle.
type NotifiedRepository interface {
	// Contains reports whether classID was already recorded.
	Contains(ctx context.Context, classID string) (bool, error)
	// Add records classID. Adding an existing ID is a no-op. The write is
	// durable once Add returns without error.
	Add(ctx context.Context, classID string) error
}
