package model

// CamInfo describes a client authorization manager known to the SAM
type CamInfo struct {
	CreatedAt int `json:"created_at"`
	UpdatedAt int `json:"updated_at"`

	// Identifier is the identity under which the CAM connects, usually its
	// host
	Identifier string `gorm:"primaryKey" json:"id"`
	Name       string `json:"name"`
}

// CamStore abstracts CRUD for CamInfo
type CamStore interface {
	List() ([]CamInfo, error)
	// Get returns a NotFoundError if there is no CAM with this identifier
	Get(id string) (*CamInfo, error)
	// Create returns an AlreadyExistsError if the identifier is taken
	Create(cam CamInfo) error
	// Update returns a NotFoundError if the identifier is absent
	Update(cam CamInfo) error
	// Upsert creates or replaces the CAM
	Upsert(cam CamInfo) error
	Delete(id string) error
}
