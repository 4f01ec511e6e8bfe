// Package domain contains core concepts of the chat room.
// This file defines Message records and related rules.
// No runtime, network, or storage logic should be added here.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// Broadcast is the reserved recipient meaning "visible to everyone".
const Broadcast = "Todos"

// Fixed notices appended by the room itself on join and eviction.
const (
	JoinedNotice = "entra na sala..."
	LeftNotice   = "sai da sala..."
)

// TimeLayout is the display format of a message timestamp.
const TimeLayout = "15:04:05"

// Kind classifies a message record.
type Kind string

const (
	KindStatus    Kind = "status"
	KindBroadcast Kind = "broadcast"
	KindDirect    Kind = "direct"
)

// Message is one record of the room log.
// ID and From never change after creation; To, Text, Kind and the display
// Time may be rewritten by the author through an edit.
type Message struct {
	ID        uuid.UUID
	From      string
	To        string
	Text      string
	Kind      Kind
	Time      string    // display only
	CreatedAt time.Time // ordering key, immutable
}
