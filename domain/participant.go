// Package domain contains core concepts of the chat room.
// This file defines Participant entities and related invariants.
package domain

import "time"

// Participant is an active member of the room.
// Name is the unique key. LastActivity is rewritten on join and on every
// heartbeat; a participant idle beyond the configured timeout is evicted.
type Participant struct {
	Name         string
	LastActivity time.Time
}
