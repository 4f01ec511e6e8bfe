package domain

// CanMutate reports whether requester may edit or delete m.
// Only the original author owns a message.
func CanMutate(m Message, requester string) bool {
	return requester == m.From
}
