package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	r, err := Parse("1.4.2")
	require.NoError(t, err)
	assert.Equal(t, Release{Major: 1, Minor: 4, Fix: 2}, r)
	assert.Equal(t, "1.4.2", r.String())

	r, err = Parse("v0.9.0-pr3")
	require.NoError(t, err)
	assert.Equal(t, Release{Minor: 9, Pre: 3}, r)
	assert.Equal(t, "0.9.0-pr3", r.String())

	for _, bad := range []string{"", "1.2", "1.x.0", "1.2.3-rc"} {
		_, err = Parse(bad)
		assert.Error(t, err, bad)
	}
}

func TestUserAgent(t *testing.T) {
	assert.Equal(t, "dcaf-sam/"+VERSION, UserAgent("sam"))
}
