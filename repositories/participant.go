//go:generate go run go.uber.org/mock/mockgen -source=participant.go -destination=../mocks/mock_participant_repository.go -package=mocks
package repositories

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"

	"batepapo/domain"
	apperr "batepapo/errors"
)

const userPrefix = "user:"

type IParticipantRepository interface {
	Join(name string, now time.Time) error
	Heartbeat(name string, now time.Time) error
	List() ([]domain.Participant, error)
	IsActive(name string) (bool, error)
	Remove(name string) error
}

type ParticipantRepository struct {
	db *badger.DB
}

func NewParticipantRepository(db *badger.DB) ParticipantRepository {
	return ParticipantRepository{db: db}
}

// participantRecord is the on-disk shape of a directory entry.
type participantRecord struct {
	Name         string `json:"name"`
	LastActivity int64  `json:"lastActivity"` // unix nanoseconds
}

// Join inserts the participant under "user:{name}".
// The existence check and the insert run inside a single Update
// transaction, so two concurrent joins with the same name cannot both
// succeed. Badger reports the overlap as ErrConflict on one of them;
// that transaction is retried and then observes the taken name.
func (r ParticipantRepository) Join(name string, now time.Time) error {
	data, err := json.Marshal(participantRecord{Name: name, LastActivity: now.UnixNano()})
	if err != nil {
		return fmt.Errorf("marshal failed: %w", err)
	}

	key := []byte(userPrefix + name)
	for {
		err = r.db.Update(func(txn *badger.Txn) error {
			if _, err := txn.Get(key); err == nil {
				return apperr.ErrNameTaken
			} else if !errors.Is(err, badger.ErrKeyNotFound) {
				return err
			}
			return txn.Set(key, data)
		})
		if errors.Is(err, badger.ErrConflict) {
			continue
		}
		return err
	}
}

// Heartbeat rewrites LastActivity for an existing participant.
// Last writer wins: an overlapping sweep may still remove the entry, in
// which case the caller has to re-join.
func (r ParticipantRepository) Heartbeat(name string, now time.Time) error {
	data, err := json.Marshal(participantRecord{Name: name, LastActivity: now.UnixNano()})
	if err != nil {
		return fmt.Errorf("marshal failed: %w", err)
	}

	key := []byte(userPrefix + name)
	for {
		err = r.db.Update(func(txn *badger.Txn) error {
			if _, err := txn.Get(key); errors.Is(err, badger.ErrKeyNotFound) {
				return apperr.ErrUnknownParticipant
			} else if err != nil {
				return err
			}
			return txn.Set(key, data)
		})
		if errors.Is(err, badger.ErrConflict) {
			continue
		}
		return err
	}
}

// List returns a snapshot of every active participant.
func (r ParticipantRepository) List() ([]domain.Participant, error) {
	var participants []domain.Participant
	err := r.db.View(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(userPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var record participantRecord
				if err := json.Unmarshal(val, &record); err != nil {
					return err
				}
				participants = append(participants, toParticipant(record))
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	return participants, err
}

// IsActive reports whether a participant with that exact name exists.
func (r ParticipantRepository) IsActive(name string) (bool, error) {
	err := r.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get([]byte(userPrefix + name))
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Remove deletes a participant. Deleting an absent name is not an error,
// which keeps eviction idempotent under overlapping sweeps.
func (r ParticipantRepository) Remove(name string) error {
	return r.db.Update(func(txn *badger.Txn) error {
		return txn.Delete([]byte(userPrefix + name))
	})
}

func toParticipant(record participantRecord) domain.Participant {
	return domain.Participant{
		Name:         record.Name,
		LastActivity: time.Unix(0, record.LastActivity).UTC(),
	}
}
