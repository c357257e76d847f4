package model

import (
	"github.com/dcaf-go/dcaf/methods"
)

// Resource is a resource path hosted by a server together with the methods
// the server supports on it
type Resource struct {
	Path    string       `json:"path" msgpack:"path"`
	Methods methods.Mask `json:"methods" msgpack:"methods"`
}

// ServerInfo describes a resource server and the key shared with it
type ServerInfo struct {
	CreatedAt int `json:"created_at" msgpack:"-"`
	UpdatedAt int `json:"updated_at" msgpack:"-"`

	Host           string     `gorm:"primaryKey" json:"host" msgpack:"host"`
	PreSharedKey   string     `json:"pre_shared_key" msgpack:"-"`
	SequenceNumber int        `json:"sequence_number" msgpack:"seq"`
	Resources      []Resource `gorm:"serializer:json" json:"resources" msgpack:"resources"`
}

// Resource returns the declared resource with the passed path
func (s ServerInfo) Resource(path string) (Resource, bool) {
	for _, r := range s.Resources {
		if r.Path == path {
			return r, true
		}
	}
	return Resource{}, false
}

// ServerStore abstracts CRUD for ServerInfo
type ServerStore interface {
	List() ([]ServerInfo, error)
	// Get returns a NotFoundError if there is no server with this host
	Get(host string) (*ServerInfo, error)
	// Create returns an AlreadyExistsError if the host is taken
	Create(server ServerInfo) error
	// Upsert creates or replaces the server
	Upsert(server ServerInfo) error
	Delete(host string) error
}
