//go:generate go run go.uber.org/mock/mockgen -source=message.go -destination=../mocks/mock_message_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"

	"batepapo/domain"
	apperr "batepapo/errors"
)

const (
	messagePrefix   = "msg:"
	messageIDPrefix = "msgid:"
)

type IMessageRepository interface {
	Append(message domain.Message) (domain.Message, error)
	Get(id uuid.UUID) (domain.Message, error)
	Update(id uuid.UUID, patch MessagePatch) error
	Remove(id uuid.UUID) error
	ListAll() ([]domain.Message, error)
}

// MessagePatch carries the mutable fields of a message.
// From, ID and CreatedAt are immutable and cannot appear here.
type MessagePatch struct {
	To   string
	Text string
	Kind domain.Kind
	Time string
}

type MessageRepository struct {
	db *badger.DB
}

func NewMessageRepository(db *badger.DB) MessageRepository {
	return MessageRepository{db: db}
}

// messageRecord is the on-disk shape of a log entry.
type messageRecord struct {
	ID        string `json:"id"`
	From      string `json:"from"`
	To        string `json:"to"`
	Text      string `json:"text"`
	Kind      string `json:"kind"`
	Time      string `json:"time"`
	CreatedAt int64  `json:"createdAt"` // unix nanoseconds
}

// messageKey formats the primary key as "msg:{timestamp_padded}:{uuid}".
// The 19-digit zero padding makes lexicographic order equal insertion
// order; the UUID disambiguates two messages created at the same
// nanosecond. The key never changes after creation, so edits rewrite a
// record in place without reordering the log.
func messageKey(message domain.Message) []byte {
	return []byte(fmt.Sprintf("%s%019d:%s", messagePrefix, message.CreatedAt.UnixNano(), message.ID))
}

// Append assigns an identifier and stores the message together with a
// "msgid:{uuid}" index entry used for by-id lookups.
func (r MessageRepository) Append(message domain.Message) (domain.Message, error) {
	if message.ID == uuid.Nil {
		message.ID = uuid.New()
	}
	data, err := json.Marshal(fromMessage(message))
	if err != nil {
		return domain.Message{}, fmt.Errorf("marshal failed: %w", err)
	}

	key := messageKey(message)
	err = r.db.Update(func(txn *badger.Txn) error {
		if err := txn.Set(key, data); err != nil {
			return err
		}
		return txn.Set([]byte(messageIDPrefix+message.ID.String()), key)
	})
	if err != nil {
		return domain.Message{}, err
	}
	return message, nil
}

// Get retrieves a message by identifier through the index entry.
func (r MessageRepository) Get(id uuid.UUID) (domain.Message, error) {
	var record messageRecord
	err := r.db.View(func(txn *badger.Txn) error {
		key, err := resolveKey(txn, id)
		if err != nil {
			return err
		}
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &record)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return domain.Message{}, apperr.ErrMessageNotFound
	}
	if err != nil {
		return domain.Message{}, err
	}
	return toMessage(record)
}

// Update replaces the mutable fields of an existing record. The record
// keeps its key, so its position in the log is preserved.
func (r MessageRepository) Update(id uuid.UUID, patch MessagePatch) error {
	err := r.db.Update(func(txn *badger.Txn) error {
		key, err := resolveKey(txn, id)
		if err != nil {
			return err
		}
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		var record messageRecord
		if err = item.Value(func(val []byte) error {
			return json.Unmarshal(val, &record)
		}); err != nil {
			return err
		}

		record.To = patch.To
		record.Text = patch.Text
		record.Kind = string(patch.Kind)
		record.Time = patch.Time

		data, err := json.Marshal(record)
		if err != nil {
			return fmt.Errorf("marshal failed: %w", err)
		}
		return txn.Set(key, data)
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return apperr.ErrMessageNotFound
	}
	return err
}

// Remove deletes a record and its index entry.
func (r MessageRepository) Remove(id uuid.UUID) error {
	err := r.db.Update(func(txn *badger.Txn) error {
		key, err := resolveKey(txn, id)
		if err != nil {
			return err
		}
		if err = txn.Delete(key); err != nil {
			return err
		}
		return txn.Delete([]byte(messageIDPrefix + id.String()))
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return apperr.ErrMessageNotFound
	}
	return err
}

// ListAll returns every message in insertion order, which the padded
// timestamp in the key gives for free.
func (r MessageRepository) ListAll() ([]domain.Message, error) {
	var records []messageRecord
	err := r.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(messagePrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var record messageRecord
				if err := json.Unmarshal(val, &record); err != nil {
					return err
				}
				records = append(records, record)
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	messages := make([]domain.Message, 0, len(records))
	for _, record := range records {
		message, err := toMessage(record)
		if err != nil {
			return nil, err
		}
		messages = append(messages, message)
	}
	return messages, nil
}

func resolveKey(txn *badger.Txn, id uuid.UUID) ([]byte, error) {
	item, err := txn.Get([]byte(messageIDPrefix + id.String()))
	if err != nil {
		return nil, err
	}
	return item.ValueCopy(nil)
}

func fromMessage(message domain.Message) messageRecord {
	return messageRecord{
		ID:        message.ID.String(),
		From:      message.From,
		To:        message.To,
		Text:      message.Text,
		Kind:      string(message.Kind),
		Time:      message.Time,
		CreatedAt: message.CreatedAt.UnixNano(),
	}
}

func toMessage(record messageRecord) (domain.Message, error) {
	parsedID, err := uuid.Parse(record.ID)
	if err != nil {
		return domain.Message{}, err
	}
	return domain.Message{
		ID:        parsedID,
		From:      record.From,
		To:        record.To,
		Text:      record.Text,
		Kind:      domain.Kind(record.Kind),
		Time:      record.Time,
		CreatedAt: time.Unix(0, record.CreatedAt).UTC(),
	}, nil
}
