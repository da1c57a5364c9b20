package relay

import (
	"sort"

	"github.com/samber/lo"

	"chat-relay/internal/store"
)

// BuildWindow produces the history slice delivered to a joining connection.
// Rooms holding at most limit messages get everything in store order. Larger
// rooms get exactly the limit most recent messages, ordered oldest to newest.
// The sort is stable so tied timestamps cannot flap in and out of the window.
// The input slice is never mutated.
func BuildWindow(msgs []store.Message, limit int) []store.Message {
	if limit < 0 {
		limit = 0
	}
	if len(msgs) <= limit {
		return msgs
	}

	sorted := make([]store.Message, len(msgs))
	copy(sorted, msgs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CreatedAt.After(sorted[j].CreatedAt)
	})
	return lo.Reverse(sorted[:limit])
}
