package services

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/samber/lo"

	"batepapo/domain"
	apperr "batepapo/errors"
	"batepapo/moderation"
	"batepapo/repositories"
	"batepapo/sanitize"
)

var validate = validator.New()

// Clock supplies the current time. Injected so tests control activity
// timestamps and eviction timing.
type Clock func() time.Time

// MessageRequest is a send or edit payload after sanitization.
type MessageRequest struct {
	To   string      `validate:"required"`
	Text string      `validate:"required"`
	Kind domain.Kind `validate:"required,oneof=broadcast direct"`
}

type IChatService interface {
	Join(rawName string) error
	Heartbeat(rawName string) error
	Participants() ([]domain.Participant, error)
	Send(rawFrom, rawTo, rawText, rawKind string) (domain.Message, error)
	ListFor(rawViewer string, limit *int) ([]domain.Message, error)
	Edit(id uuid.UUID, rawRequester, rawTo, rawText, rawKind string) error
	Delete(id uuid.UUID, rawRequester string) error
}

// ChatService owns the presence lifecycle and message visibility rules.
// Every externally supplied string is sanitized here, before it reaches
// the directory or the log.
type ChatService struct {
	log          *slog.Logger
	participants repositories.IParticipantRepository
	messages     repositories.IMessageRepository
	moderator    moderation.Moderator
	now          Clock
}

func NewChatService(
	log *slog.Logger,
	participants repositories.IParticipantRepository,
	messages repositories.IMessageRepository,
	moderator moderation.Moderator,
	now Clock,
) *ChatService {
	return &ChatService{
		log:          log,
		participants: participants,
		messages:     messages,
		moderator:    moderator,
		now:          now,
	}
}

// Join registers a new participant and appends the "joined" status notice.
// The name must be unique among active participants; the repository
// serializes the check-and-insert.
func (s *ChatService) Join(rawName string) error {
	name := sanitize.Clean(rawName)
	if name == "" {
		return apperr.ErrNameRequired
	}

	now := s.now()
	if err := s.participants.Join(name, now); err != nil {
		return err
	}

	if _, err := s.messages.Append(s.statusMessage(name, domain.JoinedNotice, now)); err != nil {
		return fmt.Errorf("append join notice: %w", err)
	}
	s.log.Info("Participant joined", "name", name)
	return nil
}

// Heartbeat refreshes LastActivity for an active participant.
func (s *ChatService) Heartbeat(rawName string) error {
	name := sanitize.Clean(rawName)
	if name == "" {
		return apperr.ErrUnknownParticipant
	}
	return s.participants.Heartbeat(name, s.now())
}

// Participants returns a snapshot of the directory.
func (s *ChatService) Participants() ([]domain.Participant, error) {
	return s.participants.List()
}

// Send appends a broadcast or direct message from an active participant.
func (s *ChatService) Send(rawFrom, rawTo, rawText, rawKind string) (domain.Message, error) {
	from := sanitize.Clean(rawFrom)
	request, err := s.cleanRequest(rawTo, rawText, rawKind)
	if err != nil {
		return domain.Message{}, err
	}
	if err = s.requireActive(from); err != nil {
		return domain.Message{}, err
	}

	now := s.now()
	message, err := s.messages.Append(domain.Message{
		From:      from,
		To:        request.To,
		Text:      s.moderator.Censor(request.Text),
		Kind:      request.Kind,
		Time:      now.Format(domain.TimeLayout),
		CreatedAt: now,
	})
	if err != nil {
		return domain.Message{}, err
	}
	s.log.Debug("Message appended", "id", message.ID, "from", from, "kind", message.Kind)
	return message, nil
}

// ListFor returns the messages visible to viewer, in insertion order.
// The visibility filter runs first; the limit then keeps only the tail.
// A zero limit yields an empty result, a nil limit yields everything.
func (s *ChatService) ListFor(rawViewer string, limit *int) ([]domain.Message, error) {
	viewer := sanitize.Clean(rawViewer)
	messages, err := s.messages.ListAll()
	if err != nil {
		return nil, err
	}

	visible := lo.Filter(messages, func(m domain.Message, _ int) bool {
		return domain.VisibleTo(m, viewer)
	})

	if limit == nil || *limit >= len(visible) {
		return visible, nil
	}
	if *limit <= 0 {
		return []domain.Message{}, nil
	}
	return visible[len(visible)-*limit:], nil
}

// Edit rewrites the mutable fields of a message. The requester must be an
// active participant and the original author; the display time is
// re-stamped while the log position is preserved.
func (s *ChatService) Edit(id uuid.UUID, rawRequester, rawTo, rawText, rawKind string) error {
	requester := sanitize.Clean(rawRequester)
	request, err := s.cleanRequest(rawTo, rawText, rawKind)
	if err != nil {
		return err
	}
	if err = s.requireActive(requester); err != nil {
		return err
	}

	message, err := s.messages.Get(id)
	if err != nil {
		return err
	}
	if !domain.CanMutate(message, requester) {
		return apperr.ErrNotMessageOwner
	}

	return s.messages.Update(id, repositories.MessagePatch{
		To:   request.To,
		Text: s.moderator.Censor(request.Text),
		Kind: request.Kind,
		Time: s.now().Format(domain.TimeLayout),
	})
}

// Delete removes a message. Only the original author may do so.
func (s *ChatService) Delete(id uuid.UUID, rawRequester string) error {
	requester := sanitize.Clean(rawRequester)

	message, err := s.messages.Get(id)
	if err != nil {
		return err
	}
	if !domain.CanMutate(message, requester) {
		return apperr.ErrNotMessageOwner
	}
	return s.messages.Remove(id)
}

func (s *ChatService) statusMessage(name, notice string, now time.Time) domain.Message {
	return domain.Message{
		From:      name,
		To:        domain.Broadcast,
		Text:      notice,
		Kind:      domain.KindStatus,
		Time:      now.Format(domain.TimeLayout),
		CreatedAt: now,
	}
}

// cleanRequest sanitizes a send/edit payload and validates it the same way
// for both operations.
func (s *ChatService) cleanRequest(rawTo, rawText, rawKind string) (MessageRequest, error) {
	request := MessageRequest{
		To:   sanitize.Clean(rawTo),
		Text: sanitize.Clean(rawText),
		Kind: domain.Kind(sanitize.Clean(rawKind)),
	}
	if err := validate.Struct(request); err != nil {
		return MessageRequest{}, fmt.Errorf("%w: %s", apperr.ErrInvalidMessage, err)
	}
	return request, nil
}

// requireActive rejects senders and editors that are not in the directory.
func (s *ChatService) requireActive(name string) error {
	if name == "" {
		return apperr.ErrUnknownParticipant
	}
	active, err := s.participants.IsActive(name)
	if err != nil {
		return err
	}
	if !active {
		return apperr.ErrUnknownParticipant
	}
	return nil
}
