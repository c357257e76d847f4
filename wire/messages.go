package wire

import (
	"time"

	"github.com/pkg/errors"
)

// Face is the body of a ticket; its encoding is the input of the ticket's MAC
type Face struct {
	SAI        []Authorization `cbor:"1,keyasint" json:"sai"`
	Timestamp  int64           `cbor:"5,keyasint" json:"ts"`
	Lifetime   int64           `cbor:"6,keyasint" json:"lifetime"`
	MacMethod  string          `cbor:"7,keyasint" json:"mac_method"`
	UpdateHash string          `cbor:"15,keyasint,omitempty" json:"update_hash,omitempty"`
}

// NewFace creates a new Face; a non-positive timestamp is replaced by now
func NewFace(sai []Authorization, ts, lifetime int64, macMethod, updateHash string, now time.Time) Face {
	if ts <= 0 {
		ts = now.Unix()
	}
	return Face{
		SAI:        sai,
		Timestamp:  ts,
		Lifetime:   lifetime,
		MacMethod:  macMethod,
		UpdateHash: updateHash,
	}
}

// Bytes returns the canonical encoding of the Face
func (f Face) Bytes() ([]byte, error) {
	return Marshal(f)
}

// ExpiresAt returns the time after which the ticket is no longer valid
func (f Face) ExpiresAt() time.Time {
	return time.Unix(f.Timestamp+f.Lifetime, 0)
}

// Expired checks if the ticket is expired at the given time, i.e. more than
// Lifetime seconds have passed since Timestamp
func (f Face) Expired(now time.Time) bool {
	return now.Unix()-f.Timestamp > f.Lifetime
}

// Verifier is the MAC of a Face
type Verifier []byte

// AccessRequest is sent from a client to its CAM
type AccessRequest struct {
	SAM              string          `cbor:"0,keyasint"`
	SAI              []Authorization `cbor:"1,keyasint"`
	Timestamp        int64           `cbor:"5,keyasint,omitempty"`
	UpdateAttributes string          `cbor:"13,keyasint,omitempty"`
	Signature        string          `cbor:"14,keyasint,omitempty"`
}

// TicketRequest converts the AccessRequest into the TicketRequestMessage the
// CAM forwards to the SAM
func (r AccessRequest) TicketRequest() TicketRequestMessage {
	return TicketRequestMessage(r)
}

// TicketRequestMessage is sent from a CAM to the SAM
type TicketRequestMessage struct {
	SAM              string          `cbor:"0,keyasint"`
	SAI              []Authorization `cbor:"1,keyasint"`
	Timestamp        int64           `cbor:"5,keyasint,omitempty"`
	UpdateAttributes string          `cbor:"13,keyasint,omitempty"`
	Signature        string          `cbor:"14,keyasint,omitempty"`
}

// IsUpdateRequest checks if the request carries an update attribute bundle
// together with its signature
func (r TicketRequestMessage) IsUpdateRequest() bool {
	return r.UpdateAttributes != "" && r.Signature != ""
}

// TicketGrantMessage is the ticket sent from the SAM over the CAM to the
// client. Cam and Server are only set in the persisted form of the ticket.
type TicketGrantMessage struct {
	ID       string   `cbor:"id"`
	Face     Face     `cbor:"8,keyasint"`
	Verifier Verifier `cbor:"9,keyasint"`
	Cam      string   `cbor:"cam,omitempty"`
	Server   string   `cbor:"server,omitempty"`
}

// Stripped returns a copy of the message without the internal bookkeeping
// fields
func (t TicketGrantMessage) Stripped() TicketGrantMessage {
	t.Cam = ""
	t.Server = ""
	return t
}

// DecodeAccessRequest decodes a CBOR encoded AccessRequest
func DecodeAccessRequest(data []byte) (*AccessRequest, error) {
	var r AccessRequest
	if err := Unmarshal(data, &r); err != nil {
		return nil, err
	}
	if len(r.SAI) == 0 {
		return nil, errors.Wrap(ErrMalformed, "access request without authorizations")
	}
	if r.SAM == "" {
		return nil, errors.Wrap(ErrMalformed, "access request without sam")
	}
	return &r, nil
}

// DecodeTicketRequest decodes a CBOR encoded TicketRequestMessage
func DecodeTicketRequest(data []byte) (*TicketRequestMessage, error) {
	var r TicketRequestMessage
	if err := Unmarshal(data, &r); err != nil {
		return nil, err
	}
	if len(r.SAI) == 0 {
		return nil, errors.Wrap(ErrMalformed, "ticket request without authorizations")
	}
	return &r, nil
}

// DecodeTicketGrant decodes a CBOR encoded TicketGrantMessage
func DecodeTicketGrant(data []byte) (*TicketGrantMessage, error) {
	var t TicketGrantMessage
	if err := Unmarshal(data, &t); err != nil {
		return nil, err
	}
	if t.ID == "" || len(t.Verifier) == 0 || len(t.Face.SAI) == 0 {
		return nil, errors.Wrap(ErrMalformed, "incomplete ticket")
	}
	return &t, nil
}
