package model

// PSKEntry is a pre-shared key stored under an identity, optionally bound to
// the peer address that uses it
type PSKEntry struct {
	CreatedAt int `json:"created_at"`
	UpdatedAt int `json:"updated_at"`

	Identity string `gorm:"primaryKey" json:"identity"`
	Key      []byte `json:"-"`
	Peer     string `gorm:"index" json:"peer,omitempty"`
}
