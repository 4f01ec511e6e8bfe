package domain

// VisibleTo reports whether viewer may see m.
// Status and broadcast messages are public. A direct message is confined
// to its sender and its recipient, unless addressed to Broadcast.
func VisibleTo(m Message, viewer string) bool {
	if m.Kind != KindDirect {
		return true
	}
	return m.To == viewer || m.From == viewer || m.To == Broadcast
}
