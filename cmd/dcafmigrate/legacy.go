package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/dcaf-go/dcaf/methods"
	"github.com/dcaf-go/dcaf/storage/model"
	"github.com/dcaf-go/dcaf/update"
	"github.com/dcaf-go/dcaf/wire"
)

// The files of a legacy data directory
const (
	legacyCamsFile        = "cams.json"
	legacyServersFile     = "serverInfo.json"
	legacyRulesFile       = "accessRules.json"
	legacyTicketsFile     = "tickets.json"
	legacyRevocationsFile = "revocations.json"
	legacyKeysFile        = "keys.json"
)

// legacyDir reads the json files a legacy SAM kept its data in
type legacyDir string

// readObjects reads a legacy file. The file is either empty, holds a single
// object, or holds an array of objects. A missing file yields no objects.
func readObjects(filepath string) ([]json.RawMessage, error) {
	data, err := os.ReadFile(filepath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, errors.WithStack(err)
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil, nil
	}
	if data[0] != '[' {
		return []json.RawMessage{data}, nil
	}
	var objects []json.RawMessage
	if err = json.Unmarshal(data, &objects); err != nil {
		return nil, errors.Wrapf(err, "could not parse %s", filepath)
	}
	return objects, nil
}

func readLegacy[T any](dir legacyDir, name string) ([]T, error) {
	objects, err := readObjects(path.Join(string(dir), name))
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, len(objects))
	for _, o := range objects {
		var v T
		if err = json.Unmarshal(o, &v); err != nil {
			return nil, errors.Wrapf(err, "could not parse entry of %s", name)
		}
		out = append(out, v)
	}
	return out, nil
}

// unixSeconds converts legacy times that were stored in milliseconds
func unixSeconds(t int64) int64 {
	if t > 1e11 {
		return t / 1000
	}
	return t
}

// namedKeys renames numeric protocol keys to their registry names, so that
// both encodings of legacy tickets can be read
func namedKeys(data []byte) ([]byte, error) {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	for k, v := range m {
		n, err := strconv.ParseUint(k, 10, 8)
		if err != nil {
			continue
		}
		if name, ok := wire.TagName(wire.Tag(n)); ok {
			delete(m, k)
			m[name] = v
		}
	}
	return json.Marshal(m)
}

// legacyPeer normalizes a legacy peer identifier, which may be written in
// the "/host:port" form of a socket address
func legacyPeer(id string) string {
	return wire.HostOfPeer(strings.TrimPrefix(id, "/"))
}

type legacyCam struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (c legacyCam) model() model.CamInfo {
	return model.CamInfo{
		Identifier: legacyPeer(c.ID),
		Name:       c.Name,
	}
}

type legacyResource struct {
	URL     string `json:"url"`
	Methods uint8  `json:"methods"`
}

type legacyServer struct {
	Host         string           `json:"host"`
	PreSharedKey string           `json:"preSharedKey"`
	SeqNumber    int              `json:"seqNumber"`
	Resources    []legacyResource `json:"resources"`
}

func (s legacyServer) model() model.ServerInfo {
	info := model.ServerInfo{
		Host:           s.Host,
		PreSharedKey:   s.PreSharedKey,
		SequenceNumber: s.SeqNumber,
	}
	for _, r := range s.Resources {
		info.Resources = append(
			info.Resources, model.Resource{
				Path:    r.URL,
				Methods: methods.Mask(r.Methods),
			},
		)
	}
	return info
}

type legacyServerRule struct {
	ServerInfo       legacyServer       `json:"serverInfo"`
	Resource         string             `json:"resource"`
	Methods          uint8              `json:"methods"`
	UpdateAttributes []update.Attribute `json:"updateAttributes"`
}

type legacyRule struct {
	ID            string             `json:"id"`
	CamIdentifier string             `json:"camIdentifier"`
	AccessRules   []legacyServerRule `json:"accessRules"`
	Expiration    int64              `json:"expiration"`
}

func (r legacyRule) model() model.AccessRule {
	rule := model.AccessRule{
		ID:             r.ID,
		CamIdentifier:  legacyPeer(r.CamIdentifier),
		ExpirationTime: unixSeconds(r.Expiration),
	}
	for _, s := range r.AccessRules {
		rule.AddRule(
			model.ServerAccessRule{
				ServerHost:       s.ServerInfo.Host,
				Resource:         s.Resource,
				Methods:          methods.Mask(s.Methods),
				UpdateAttributes: s.UpdateAttributes,
			},
		)
	}
	return rule
}

type legacyFace struct {
	SAI        []wire.Authorization `json:"SAI"`
	Timestamp  int64                `json:"TS"`
	Lifetime   int64                `json:"L"`
	MacMethod  string               `json:"G"`
	UpdateHash string               `json:"UH"`
}

// UnmarshalJSON implements the json.Unmarshaler interface
func (f *legacyFace) UnmarshalJSON(data []byte) error {
	data, err := namedKeys(data)
	if err != nil {
		return err
	}
	type plain legacyFace
	var p struct {
		plain
		SAI [][2]json.RawMessage `json:"SAI"`
	}
	if err = json.Unmarshal(data, &p); err != nil {
		return err
	}
	*f = legacyFace(p.plain)
	f.SAI = nil
	for _, a := range p.SAI {
		var uri string
		var m uint8
		if err = json.Unmarshal(a[0], &uri); err != nil {
			return errors.Wrap(err, "authorization uri")
		}
		if err = json.Unmarshal(a[1], &m); err != nil {
			return errors.Wrap(err, "authorization methods")
		}
		f.SAI = append(f.SAI, wire.NewAuthorization(uri, methods.Mask(m)))
	}
	return nil
}

type legacyTicket struct {
	ID       string     `json:"id"`
	Face     legacyFace `json:"F"`
	Verifier []byte     `json:"V"`
	Cam      string     `json:"cam"`
	Server   string     `json:"server"`
}

// UnmarshalJSON implements the json.Unmarshaler interface
func (t *legacyTicket) UnmarshalJSON(data []byte) error {
	data, err := namedKeys(data)
	if err != nil {
		return err
	}
	type plain legacyTicket
	var p plain
	if err = json.Unmarshal(data, &p); err != nil {
		return err
	}
	*t = legacyTicket(p)
	return nil
}

func (t legacyTicket) model() model.Ticket {
	return model.Ticket{
		ID:            t.ID,
		CamIdentifier: legacyPeer(t.Cam),
		ServerHost:    t.Server,
		Face: wire.Face{
			SAI:        t.Face.SAI,
			Timestamp:  t.Face.Timestamp,
			Lifetime:   t.Face.Lifetime,
			MacMethod:  t.Face.MacMethod,
			UpdateHash: t.Face.UpdateHash,
		},
		Verifier: t.Verifier,
	}
}

type legacyRevocation struct {
	Ticket       legacyTicket `json:"ticket"`
	DeliveryTime int64        `json:"deliveryTime"`
}

func (r legacyRevocation) model() model.RevocationTicket {
	t := r.Ticket.model()
	return model.RevocationTicket{
		TicketID:     t.ID,
		ServerHost:   t.ServerHost,
		Ticket:       t,
		DeliveryTime: unixSeconds(r.DeliveryTime),
	}
}

type legacyKeyEntry struct {
	Identity    string `json:"identity"`
	PSK         string `json:"psk"`
	PeerAddress *struct {
		Host string `json:"host"`
	} `json:"peerAddress"`
}

// readLegacyKeys reads the keys.json file of a legacy SAM
func readLegacyKeys(dir legacyDir) ([]legacyKeyEntry, error) {
	objects, err := readObjects(path.Join(string(dir), legacyKeysFile))
	if err != nil || len(objects) == 0 {
		return nil, err
	}
	var file struct {
		Keys []legacyKeyEntry `json:"keys"`
	}
	if err = json.Unmarshal(objects[0], &file); err != nil {
		return nil, errors.Wrapf(err, "could not parse %s", legacyKeysFile)
	}
	return file.Keys, nil
}
