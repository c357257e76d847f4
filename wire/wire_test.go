package wire

import (
	"bytes"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dcaf-go/dcaf/methods"
)

func TestRegistryIsBidirectional(t *testing.T) {
	for tag := TagSAM; tag <= TagUH; tag++ {
		name, ok := TagName(tag)
		require.True(t, ok)
		back, ok := TagFor(name)
		require.True(t, ok)
		assert.Equal(t, tag, back)
	}
	_, ok := TagName(42)
	assert.False(t, ok)
	assert.Equal(t, "UH", TagUH.String())
}

func TestNewAuthorization(t *testing.T) {
	a := NewAuthorization("coap://[2001:DB8::dcaf:1234]/update", methods.GET|methods.POST)
	assert.Equal(t, "[2001:DB8::dcaf:1234]", a.Host)
	assert.Equal(t, "/update", a.ResourcePath)

	b := NewAuthorization("coaps://server.example:5684/temp", methods.GET)
	assert.Equal(t, "server.example", b.Host)
	assert.Equal(t, "/temp", b.ResourcePath)
}

func TestHostOfPeer(t *testing.T) {
	assert.Equal(t, "127.0.0.1", HostOfPeer("127.0.0.1:5684"))
	assert.Equal(t, "127.0.0.1", HostOfPeer("127.0.0.1"))
	assert.Equal(t, "[::1]", HostOfPeer("[::1]:8000"))
	assert.Equal(t, "[::1]", HostOfPeer("::1"))
}

func TestAuthorizationIsEncodedAsArray(t *testing.T) {
	a := NewAuthorization("coap://h/x", methods.PUT)
	data, err := Marshal(a)
	require.NoError(t, err)
	// array(2), text(10) "coap://h/x", unsigned(4)
	assert.Equal(t, append(append([]byte{0x82, 0x6a}, []byte("coap://h/x")...), 0x04), data)

	var back Authorization
	require.NoError(t, Unmarshal(data, &back))
	assert.Equal(t, a, back)
}

func TestAuthorizationRejectsWrongShape(t *testing.T) {
	for name, v := range map[string]any{
		"three elements": []any{"coap://h/x", 1, 2},
		"swapped types":  []any{1, "coap://h/x"},
		"not an array":   map[int]int{1: 1},
	} {
		t.Run(
			name, func(t *testing.T) {
				data, err := Marshal(v)
				require.NoError(t, err)
				var a Authorization
				err = Unmarshal(data, &a)
				assert.True(t, errors.Is(err, ErrMalformed))
			},
		)
	}
}

func testFace() Face {
	return NewFace(
		[]Authorization{NewAuthorization("coap://h/update", methods.GET)}, 1000, 60, "HMAC_SHA_256", "",
		time.Now(),
	)
}

func TestFaceEncodingIsDeterministic(t *testing.T) {
	f := testFace()
	first, err := f.Bytes()
	require.NoError(t, err)
	second, err := f.Bytes()
	require.NoError(t, err)
	assert.True(t, bytes.Equal(first, second))
	// map(4) with key 1 first, the optional key 15 is omitted
	assert.Equal(t, []byte{0xa4, 0x01, 0x81, 0x82}, first[:4])

	f.UpdateHash = "abc"
	withHash, err := f.Bytes()
	require.NoError(t, err)
	assert.Equal(t, byte(0xa5), withHash[0])
}

func TestNewFaceDefaultsTimestamp(t *testing.T) {
	now := time.Unix(5000, 0)
	f := NewFace(nil, 0, 60, "HMAC_SHA_256", "", now)
	assert.Equal(t, int64(5000), f.Timestamp)
	f = NewFace(nil, -3, 60, "HMAC_SHA_256", "", now)
	assert.Equal(t, int64(5000), f.Timestamp)
}

func TestFaceExpiry(t *testing.T) {
	f := testFace()
	assert.False(t, f.Expired(time.Unix(1059, 0)))
	assert.False(t, f.Expired(time.Unix(1060, 0)))
	assert.True(t, f.Expired(time.Unix(1061, 0)))
	assert.Equal(t, time.Unix(1060, 0), f.ExpiresAt())
}

func TestTicketGrantMessageRoundtripAndStrip(t *testing.T) {
	msg := TicketGrantMessage{
		ID:       "c0ffee",
		Face:     testFace(),
		Verifier: Verifier{1, 2, 3},
		Cam:      "127.0.0.1",
		Server:   "h",
	}
	data, err := Marshal(msg)
	require.NoError(t, err)
	back, err := DecodeTicketGrant(data)
	require.NoError(t, err)
	assert.Equal(t, msg, *back)

	stripped, err := Marshal(msg.Stripped())
	require.NoError(t, err)
	assert.False(t, bytes.Contains(stripped, []byte("cam")))
	assert.False(t, bytes.Contains(stripped, []byte("server")))
}

func TestDecodeTicketRequest(t *testing.T) {
	req := AccessRequest{
		SAM:              "https://sam.example/authorize",
		SAI:              []Authorization{NewAuthorization("coap://h/update", methods.GET|methods.PUT)},
		Timestamp:        77,
		UpdateAttributes: "e30=",
		Signature:        "c2ln",
	}
	data, err := Marshal(req.TicketRequest())
	require.NoError(t, err)
	trm, err := DecodeTicketRequest(data)
	require.NoError(t, err)
	assert.Equal(t, req.TicketRequest(), *trm)
	assert.True(t, trm.IsUpdateRequest())

	_, err = DecodeTicketRequest([]byte{0xff})
	assert.True(t, errors.Is(err, ErrMalformed))
	_, err = DecodeTicketRequest(nil)
	assert.True(t, errors.Is(err, ErrMalformed))

	empty, err := Marshal(TicketRequestMessage{SAM: "x"})
	require.NoError(t, err)
	_, err = DecodeTicketRequest(empty)
	assert.True(t, errors.Is(err, ErrMalformed))
}

func TestPretty(t *testing.T) {
	data, err := testFace().Bytes()
	require.NoError(t, err)
	out, err := Pretty(data)
	require.NoError(t, err)
	assert.Contains(t, out, `"SAI"`)
	assert.Contains(t, out, `"G": "HMAC_SHA_256"`)

	diag, err := Diagnose(data)
	require.NoError(t, err)
	assert.Contains(t, diag, `"HMAC_SHA_256"`)
}
