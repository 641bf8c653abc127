// Package commerce is the stand-in integration with an online store platform.
// Connecting and importing are simulated: the platform answers after a delay
// and the store data comes from an embedded sample set.
package commerce

import (
	"errors"
	"time"
)

var (
	ErrNotConnected     = errors.New("no store connected")
	ErrAlreadyConnected = errors.New("a store is already connected")
	ErrImportInProgress = errors.New("an import is already running")
	ErrInvalidShopURL   = errors.New("invalid shop url")
)

type StoreConnection struct {
	ID          string     `json:"id"`
	ShopURL     string     `json:"shop_url"`
	AccessToken string     `json:"-"`
	LastSync    *time.Time `json:"last_sync,omitempty"`
	ConnectedAt time.Time  `json:"connected_at"`
}

type SalesPoint struct {
	Month string  `json:"month" yaml:"month"`
	Sales float64 `json:"sales" yaml:"sales"`
}

type ProductShare struct {
	Name  string  `json:"name" yaml:"name"`
	Value float64 `json:"value" yaml:"value"`
}

// Dataset is what one import brings in.
type Dataset struct {
	Sales    []SalesPoint   `yaml:"sales"`
	Products []ProductShare `yaml:"products"`
}

type Status struct {
	Connected    bool             `json:"connected"`
	Store        *StoreConnection `json:"store,omitempty"`
	Importing    bool             `json:"importing"`
	LastImported *time.Time       `json:"last_imported,omitempty"`
}

type EventType string

const (
	EventConnected      EventType = "connected"
	EventImportStarted  EventType = "import.started"
	EventImportFinished EventType = "import.completed"
	EventImportFailed   EventType = "import.failed"
)

// Event is published on the user's channel whenever the connection changes.
type Event struct {
	Type     EventType  `json:"type"`
	UserID   string     `json:"user_id"`
	At       time.Time  `json:"at"`
	LastSync *time.Time `json:"last_sync,omitempty"`
	Error    string     `json:"error,omitempty"`
}
