package psk

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const (
	keyPrefix  = "psk:"
	peerPrefix = "peer:"
)

type badgerEntry struct {
	Identity string `json:"identity"`
	Key      []byte `json:"psk"`
	Peer     string `json:"peer,omitempty"`
}

// BadgerStore is a Store backed by a badger database
type BadgerStore struct {
	db   *badger.DB
	stop chan struct{}
	wg   sync.WaitGroup
}

// NewBadgerStore opens (or creates) the badger database at path
func NewBadgerStore(path string) (*BadgerStore, error) {
	db, err := badger.Open(badger.DefaultOptions(path).WithLogger(log.StandardLogger()))
	if err != nil {
		return nil, errors.Wrap(err, "psk: opening badger database failed")
	}
	store := &BadgerStore{
		db:   db,
		stop: make(chan struct{}),
	}
	store.wg.Add(1)
	go store.collectGarbage()
	return store, nil
}

func (s *BadgerStore) collectGarbage() {
	defer s.wg.Done()
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			for s.db.RunValueLogGC(0.7) == nil {
			}
		}
	}
}

// Close stops the garbage collection and closes the database
func (s *BadgerStore) Close() error {
	close(s.stop)
	s.wg.Wait()
	return s.db.Close()
}

func (s *BadgerStore) read(txn *badger.Txn, key string, target any) error {
	item, err := txn.Get([]byte(key))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrNotFound
		}
		return errors.WithStack(err)
	}
	return item.Value(
		func(val []byte) error {
			return json.Unmarshal(val, target)
		},
	)
}

func write(txn *badger.Txn, key string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return errors.WithStack(err)
	}
	return txn.Set([]byte(key), data)
}

// KeyFor implements the Store interface
func (s *BadgerStore) KeyFor(identity string) ([]byte, error) {
	var e badgerEntry
	err := s.db.View(
		func(txn *badger.Txn) error {
			return s.read(txn, keyPrefix+identity, &e)
		},
	)
	if err != nil {
		return nil, err
	}
	return e.Key, nil
}

// Set implements the Store interface; an existing peer binding is kept
func (s *BadgerStore) Set(identity string, key []byte) error {
	return s.db.Update(
		func(txn *badger.Txn) error {
			var e badgerEntry
			if err := s.read(txn, keyPrefix+identity, &e); err != nil && !errors.Is(err, ErrNotFound) {
				return err
			}
			e.Identity = identity
			e.Key = key
			return write(txn, keyPrefix+identity, e)
		},
	)
}

// Bind implements the Store interface
func (s *BadgerStore) Bind(peer, identity string, key []byte) error {
	peer = NormalizePeer(peer)
	return s.db.Update(
		func(txn *badger.Txn) error {
			if err := write(
				txn, keyPrefix+identity, badgerEntry{
					Identity: identity,
					Key:      key,
					Peer:     peer,
				},
			); err != nil {
				return err
			}
			return write(txn, peerPrefix+peer, identity)
		},
	)
}

// Delete implements the Store interface; a peer binding of the identity is
// removed as well
func (s *BadgerStore) Delete(identity string) error {
	return s.db.Update(
		func(txn *badger.Txn) error {
			var e badgerEntry
			err := s.read(txn, keyPrefix+identity, &e)
			if errors.Is(err, ErrNotFound) {
				return nil
			}
			if err != nil {
				return err
			}
			if e.Peer != "" {
				if err = txn.Delete([]byte(peerPrefix + e.Peer)); err != nil {
					return errors.WithStack(err)
				}
			}
			return errors.WithStack(txn.Delete([]byte(keyPrefix + identity)))
		},
	)
}

// IdentityFor implements the Store interface
func (s *BadgerStore) IdentityFor(peer string) (string, error) {
	var id string
	err := s.db.View(
		func(txn *badger.Txn) error {
			return s.read(txn, peerPrefix+NormalizePeer(peer), &id)
		},
	)
	return id, err
}
