package model

import (
	"time"

	"github.com/dcaf-go/dcaf/methods"
	"github.com/dcaf-go/dcaf/update"
)

// ServerAccessRule grants methods on one resource of one server. If
// UpdateAttributes is not empty, the rule is only applied to requests with a
// verified attribute bundle whose attributes are all contained in it.
type ServerAccessRule struct {
	ServerHost       string             `json:"server"`
	Resource         string             `json:"resource"`
	Methods          methods.Mask       `json:"methods"`
	UpdateAttributes []update.Attribute `json:"update_attributes,omitempty"`
}

// Gated checks if the rule requires update attributes
func (r ServerAccessRule) Gated() bool {
	return len(r.UpdateAttributes) > 0
}

func (r ServerAccessRule) sameTarget(o ServerAccessRule) bool {
	return r.ServerHost == o.ServerHost && r.Resource == o.Resource && r.Methods == o.Methods
}

// AccessRule is the set of ServerAccessRules granted to one CAM
type AccessRule struct {
	CreatedAt int `json:"created_at"`
	UpdatedAt int `json:"updated_at"`

	ID                string             `gorm:"primaryKey" json:"id"`
	CamIdentifier     string             `gorm:"index" json:"cam"`
	ServerAccessRules []ServerAccessRule `gorm:"serializer:json" json:"rules"`
	// ExpirationTime is in unix seconds; 0 means the rule never expires
	ExpirationTime int64 `json:"expiration,omitempty"`
}

// AddRule adds a ServerAccessRule unless a rule for the same server,
// resource, and methods is already present. It reports whether the rule was
// added.
func (r *AccessRule) AddRule(rule ServerAccessRule) bool {
	for _, existing := range r.ServerAccessRules {
		if existing.sameTarget(rule) {
			return false
		}
	}
	r.ServerAccessRules = append(r.ServerAccessRules, rule)
	return true
}

// Expired checks if the rule has an expiration time that lies before now
func (r AccessRule) Expired(now time.Time) bool {
	return r.ExpirationTime != 0 && now.Unix() > r.ExpirationTime
}

// ReferencesServer checks if one of the ServerAccessRules is for host
func (r AccessRule) ReferencesServer(host string) bool {
	for _, s := range r.ServerAccessRules {
		if s.ServerHost == host {
			return true
		}
	}
	return false
}

// AccessRuleStore abstracts CRUD for AccessRules
type AccessRuleStore interface {
	List() ([]AccessRule, error)
	ListByCam(cam string) ([]AccessRule, error)
	// Get returns a NotFoundError if there is no rule with this id
	Get(id string) (*AccessRule, error)
	// Create returns an AlreadyExistsError if the id is taken
	Create(rule AccessRule) error
	// Upsert creates or replaces the rule
	Upsert(rule AccessRule) error
	Delete(id string) error
	DeleteByCam(cam string) error
}
