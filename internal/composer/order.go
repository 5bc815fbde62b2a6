package composer

import (
	"fmt"
	"slices"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SessionState tracks a session or meal through save.
type SessionState string

const (
	StateNew       SessionState = "new"       // not yet stored, no id
	StatePersisted SessionState = "persisted" // stored with a real id
)

func stateOf(id primitive.ObjectID) SessionState {
	if id.IsZero() {
		return StateNew
	}
	return StatePersisted
}

// moveItem relocates items[from] to position to, shifting the others.
func moveItem[T any](items []T, from, to int) ([]T, error) {
	if from < 0 || from >= len(items) || to < 0 || to >= len(items) {
		return items, invalid(fmt.Errorf("%w: move %d -> %d of %d", ErrItemOutOfRange, from, to, len(items)))
	}
	item := items[from]
	items = slices.Delete(items, from, from+1)
	return slices.Insert(items, to, item), nil
}

func checkIndex(index, n int) error {
	if index < 0 || index >= n {
		return invalid(fmt.Errorf("%w: %d of %d", ErrItemOutOfRange, index, n))
	}
	return nil
}

// staleIDs returns the persisted ids that are no longer kept in memory.
func staleIDs(persisted, kept []primitive.ObjectID) []primitive.ObjectID {
	var stale []primitive.ObjectID
	for _, id := range persisted {
		if !slices.Contains(kept, id) {
			stale = append(stale, id)
		}
	}
	return stale
}
