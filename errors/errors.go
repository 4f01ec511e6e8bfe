package errors

import "fmt"

var (
	ErrNameRequired       = fmt.Errorf("participant name is required")
	ErrNameTaken          = fmt.Errorf("participant name already taken")
	ErrUnknownParticipant = fmt.Errorf("unknown participant")
	ErrMessageNotFound    = fmt.Errorf("message not found")
	ErrNotMessageOwner    = fmt.Errorf("requester does not own this message")
	ErrInvalidMessage     = fmt.Errorf("invalid message payload")
	ErrWorkerPanic        = fmt.Errorf("worker panic")
)
