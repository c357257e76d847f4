package wire

import (
	"net"
	"net/url"
	"strings"

	"github.com/fxamacker/cbor/v2"
	"github.com/pkg/errors"

	"github.com/dcaf-go/dcaf/methods"
)

// Authorization is a single scoped authorization, i.e. a resource uri
// together with the methods allowed on it.
// Host and ResourcePath are derived from URI on construction.
type Authorization struct {
	URI          string       `json:"uri"`
	Host         string       `json:"host"`
	ResourcePath string       `json:"path"`
	Methods      methods.Mask `json:"methods"`
}

// NewAuthorization creates a new Authorization for the passed uri.
// If the uri cannot be parsed the Authorization keeps the raw uri with an
// empty host and path, so that it never matches any rule.
func NewAuthorization(uri string, m methods.Mask) Authorization {
	a := Authorization{
		URI:     uri,
		Methods: m,
	}
	u, err := url.Parse(uri)
	if err != nil {
		return a
	}
	a.URI = u.String()
	a.Host = hostOf(u)
	a.ResourcePath = u.Path
	return a
}

// hostOf returns the host of u without a port; IPv6 literals keep their
// brackets, as hosts are stored that way in the catalog
func hostOf(u *url.URL) string {
	h := u.Hostname()
	if strings.Contains(h, ":") {
		return "[" + h + "]"
	}
	return h
}

// HostOfPeer normalizes a peer address (host or host:port) to the host
// notation used by authorizations
func HostOfPeer(addr string) string {
	host := addr
	if h, _, err := net.SplitHostPort(addr); err == nil {
		host = h
	}
	host = strings.TrimSuffix(strings.TrimPrefix(host, "["), "]")
	if strings.Contains(host, ":") {
		return "[" + host + "]"
	}
	return host
}

// MarshalCBOR implements the cbor.Marshaler interface.
// An Authorization is encoded as the two element array [uri, methods].
func (a Authorization) MarshalCBOR() ([]byte, error) {
	return encMode.Marshal([]any{a.URI, uint8(a.Methods)})
}

// UnmarshalCBOR implements the cbor.Unmarshaler interface
func (a *Authorization) UnmarshalCBOR(data []byte) error {
	var parts []cbor.RawMessage
	if err := decMode.Unmarshal(data, &parts); err != nil {
		return errors.Wrap(ErrMalformed, "authorization is not an array")
	}
	if len(parts) != 2 {
		return errors.Wrapf(ErrMalformed, "authorization has %d elements, expected 2", len(parts))
	}
	var uri string
	if err := decMode.Unmarshal(parts[0], &uri); err != nil {
		return errors.Wrap(ErrMalformed, "authorization uri is not a string")
	}
	var m uint64
	if err := decMode.Unmarshal(parts[1], &m); err != nil {
		return errors.Wrap(ErrMalformed, "authorization methods are not an unsigned integer")
	}
	if m > 0xff {
		return errors.Wrapf(ErrMalformed, "authorization methods %d out of range", m)
	}
	*a = NewAuthorization(uri, methods.Mask(m))
	return nil
}

// String implements the fmt.Stringer interface
func (a Authorization) String() string {
	return "[" + a.URI + ": " + a.Methods.String() + "]"
}
