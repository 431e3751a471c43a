package notification

import (
	"encoding/json"
	"strings"
	"time"
)

// ScopeAll marks a record as displayable on every page.
const ScopeAll = "all"

// Presentation subtypes understood by the rendering layer.
const (
	SubTypePopup  = "popup"
	SubTypeHeader = "header"
)

// Record is one on-site notification as delivered by the remote source.
// CommID is the unique store key; CDID groups records belonging to the
// same campaign. Design is opaque to the lifecycle logic and travels
// untouched to the rendering layer.
type Record struct {
	CommID           string          `json:"commId"`
	CDID             string          `json:"CDID"`
	ExpiresAt        time.Time       `json:"expiresAt"`
	DisplayUnlimited bool            `json:"displayUnlimited"`
	DisplayLimit     *int            `json:"displayLimit,omitempty"`
	DisplayCount     int             `json:"displayCount"`
	DisplayIn        string          `json:"displayIn,omitempty"`
	SubType          string          `json:"subType,omitempty"`
	Design           json.RawMessage `json:"design,omitempty"`
}

// Expired reports whether the record's expiry lies before now.
func (r *Record) Expired(now time.Time) bool {
	return r.ExpiresAt.Before(now)
}

// Exhausted reports whether the record has used up its display budget.
// Records without a configured limit never exhaust.
func (r *Record) Exhausted() bool {
	if r.DisplayUnlimited || r.DisplayLimit == nil {
		return false
	}

	return r.DisplayCount >= *r.DisplayLimit
}

// InScope reports whether the record may be shown on the given page URL.
func (r *Record) InScope(currentURL string) bool {
	if r.DisplayIn == "" || r.DisplayIn == ScopeAll {
		return true
	}

	return strings.Contains(currentURL, r.DisplayIn)
}
