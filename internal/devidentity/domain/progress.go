package domain

import (
	"encoding/json"
	"time"
)

// Progress is a user's opaque per-course state.
type Progress struct {
	UserID    string
	Course    string
	Data      json.RawMessage
	UpdatedAt time.Time
}
