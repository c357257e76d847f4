package update

import (
	"encoding/json"
	"strconv"

	"github.com/pkg/errors"
)

// Kind is the type of an update attribute
type Kind string

// Known attribute kinds
const (
	KindGPIOIn      Kind = "gpio_in"
	KindGPIOOut     Kind = "gpio_out"
	KindRemoteIn    Kind = "coap in"
	KindRemoteOut   Kind = "coap out"
	kindUnsupported Kind = ""
)

// IsGPIO checks if attributes of this kind address a GPIO pin
func (k Kind) IsGPIO() bool {
	return k == KindGPIOIn || k == KindGPIOOut
}

// IsRemoteCall checks if attributes of this kind describe a remote call
func (k Kind) IsRemoteCall() bool {
	return k == KindRemoteIn || k == KindRemoteOut
}

// Attribute is a single update attribute. It is either a GPIO attribute
// carrying Pin and Port or a remote call attribute carrying Method and URL;
// the fields of the other variant are always zero, so attributes can be
// compared with ==.
type Attribute struct {
	Type   Kind
	Pin    int
	Port   int
	Method string
	URL    string
}

// GPIO creates a new GPIO Attribute
func GPIO(kind Kind, pin, port int) Attribute {
	return Attribute{
		Type: kind,
		Pin:  pin,
		Port: port,
	}
}

// RemoteCall creates a new remote call Attribute
func RemoteCall(kind Kind, method, url string) Attribute {
	return Attribute{
		Type:   kind,
		Method: method,
		URL:    url,
	}
}

// IsGPIO checks if the attribute is a GPIO attribute
func (a Attribute) IsGPIO() bool {
	return a.Type.IsGPIO()
}

type jsonAttribute struct {
	Type   Kind            `json:"type"`
	Pin    json.RawMessage `json:"pin,omitempty"`
	Port   json.RawMessage `json:"port,omitempty"`
	Method string          `json:"method,omitempty"`
	URL    string          `json:"url,omitempty"`
}

// MarshalJSON implements the json.Marshaler interface
func (a Attribute) MarshalJSON() ([]byte, error) {
	if a.IsGPIO() {
		return json.Marshal(
			struct {
				Type Kind `json:"type"`
				Pin  int  `json:"pin"`
				Port int  `json:"port"`
			}{a.Type, a.Pin, a.Port},
		)
	}
	return json.Marshal(
		struct {
			Type   Kind   `json:"type"`
			Method string `json:"method"`
			URL    string `json:"url"`
		}{a.Type, a.Method, a.URL},
	)
}

// UnmarshalJSON implements the json.Unmarshaler interface.
// Pin and port are accepted both as numbers and as numeric strings.
func (a *Attribute) UnmarshalJSON(data []byte) error {
	var raw jsonAttribute
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch {
	case raw.Type.IsGPIO():
		pin, err := flexInt(raw.Pin)
		if err != nil {
			return errors.Wrap(err, "invalid pin")
		}
		port, err := flexInt(raw.Port)
		if err != nil {
			return errors.Wrap(err, "invalid port")
		}
		*a = GPIO(raw.Type, pin, port)
	case raw.Type.IsRemoteCall():
		*a = RemoteCall(raw.Type, raw.Method, raw.URL)
	default:
		*a = Attribute{Type: kindUnsupported}
	}
	return nil
}

func flexInt(raw json.RawMessage) (int, error) {
	if len(raw) == 0 {
		return 0, errors.New("missing value")
	}
	var i int
	if err := json.Unmarshal(raw, &i); err == nil {
		return i, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, err
	}
	return strconv.Atoi(s)
}

// Known returns the attributes of a list that have a known kind
func Known(attrs []Attribute) []Attribute {
	out := make([]Attribute, 0, len(attrs))
	for _, a := range attrs {
		if a.Type != kindUnsupported {
			out = append(out, a)
		}
	}
	return out
}
