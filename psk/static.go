package psk

import (
	"sync"
)

// StaticEntry is a pre-shared key given in the configuration
type StaticEntry struct {
	Identity string `yaml:"identity"`
	Key      string `yaml:"key"`
	Peer     string `yaml:"peer"`
}

// Static is a read-only Store built from configuration
type Static struct {
	keys  map[string][]byte
	peers map[string]string
	once  sync.Once
}

// NewStatic creates a Static store from the passed entries. Later entries
// override earlier ones with the same identity.
func NewStatic(entries []StaticEntry) *Static {
	s := &Static{}
	s.init()
	for _, e := range entries {
		s.keys[e.Identity] = []byte(e.Key)
		if e.Peer != "" {
			s.peers[NormalizePeer(e.Peer)] = e.Identity
		}
	}
	return s
}

func (s *Static) init() {
	s.once.Do(
		func() {
			s.keys = make(map[string][]byte)
			s.peers = make(map[string]string)
		},
	)
}

// KeyFor implements the Store interface
func (s *Static) KeyFor(identity string) ([]byte, error) {
	s.init()
	k, ok := s.keys[identity]
	if !ok {
		return nil, ErrNotFound
	}
	return k, nil
}

// IdentityFor implements the Store interface
func (s *Static) IdentityFor(peer string) (string, error) {
	s.init()
	id, ok := s.peers[NormalizePeer(peer)]
	if !ok {
		return "", ErrNotFound
	}
	return id, nil
}

// Set returns ErrUnsupported
func (*Static) Set(string, []byte) error {
	return ErrUnsupported
}

// Delete returns ErrUnsupported
func (*Static) Delete(string) error {
	return ErrUnsupported
}

// Bind returns ErrUnsupported
func (*Static) Bind(string, string, []byte) error {
	return ErrUnsupported
}
