package psk

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePeer(t *testing.T) {
	assert.Equal(t, "10.0.0.1", NormalizePeer("10.0.0.1:5684"))
	assert.Equal(t, "10.0.0.1", NormalizePeer("10.0.0.1"))
	assert.Equal(t, "[::1]", NormalizePeer("[::1]:40000"))
	assert.Equal(t, "cam.example.org", NormalizePeer("cam.example.org:443"))
}

func TestStatic(t *testing.T) {
	s := NewStatic(
		[]StaticEntry{
			{Identity: "rs1", Key: "secret"},
			{Identity: "cam", Key: "other", Peer: "10.0.0.2:5684"},
		},
	)
	k, err := s.KeyFor("rs1")
	require.NoError(t, err)
	assert.Equal(t, []byte("secret"), k)

	_, err = s.KeyFor("missing")
	assert.True(t, errors.Is(err, ErrNotFound))

	id, err := s.IdentityFor("10.0.0.2:41000")
	require.NoError(t, err)
	assert.Equal(t, "cam", id)

	assert.True(t, IsUnsupported(s.Set("x", nil)))
	assert.True(t, IsUnsupported(s.Delete("rs1")))
	assert.True(t, IsUnsupported(s.Bind("p", "x", nil)))

	var zero Static
	_, err = zero.KeyFor("rs1")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestBadgerStore(t *testing.T) {
	s, err := NewBadgerStore(t.TempDir())
	require.NoError(t, err)
	defer func() { require.NoError(t, s.Close()) }()

	_, err = s.KeyFor("rs1")
	assert.True(t, errors.Is(err, ErrNotFound))

	require.NoError(t, s.Set("rs1", []byte("secret")))
	k, err := s.KeyFor("rs1")
	require.NoError(t, err)
	assert.Equal(t, []byte("secret"), k)

	require.NoError(t, s.Set("rs1", []byte("rotated")))
	k, err = s.KeyFor("rs1")
	require.NoError(t, err)
	assert.Equal(t, []byte("rotated"), k)

	require.NoError(t, s.Bind("10.0.0.2:5684", "cam", []byte("camkey")))
	id, err := s.IdentityFor("10.0.0.2:40001")
	require.NoError(t, err)
	assert.Equal(t, "cam", id)

	require.NoError(t, s.Delete("cam"))
	_, err = s.IdentityFor("10.0.0.2")
	assert.True(t, errors.Is(err, ErrNotFound))
	_, err = s.KeyFor("cam")
	assert.True(t, errors.Is(err, ErrNotFound))

	assert.NoError(t, s.Delete("never-stored"))
}
