// Package psk provides the stores for the pre-shared keys the SAM shares
// with resource servers and CAMs.
package psk

import (
	"github.com/pkg/errors"

	"github.com/dcaf-go/dcaf/wire"
)

var (
	// ErrNotFound is returned if no key or identity is stored for a lookup
	ErrNotFound = errors.New("psk: not found")
	// ErrUnsupported is returned by read-only stores for mutating operations
	ErrUnsupported = errors.New("psk: operation not supported by this store")
)

// Store holds pre-shared keys by identity and maps peers to identities
type Store interface {
	// KeyFor returns the key stored for identity or ErrNotFound
	KeyFor(identity string) ([]byte, error)
	// Set stores key for identity, replacing a previous key
	Set(identity string, key []byte) error
	// Delete removes the key of identity; deleting an absent identity is
	// not an error
	Delete(identity string) error
	// Bind stores key for identity and binds the identity to peer
	Bind(peer, identity string, key []byte) error
	// IdentityFor returns the identity bound to peer or ErrNotFound
	IdentityFor(peer string) (string, error)
}

// NormalizePeer reduces a peer address to the host it is bound by. Clients
// connect from ephemeral ports, so bindings never include the port.
func NormalizePeer(peer string) string {
	return wire.HostOfPeer(peer)
}

// IsUnsupported checks if err signals a read-only store
func IsUnsupported(err error) bool {
	return errors.Is(err, ErrUnsupported)
}
