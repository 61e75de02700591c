package entities

import (
	"encoding/json"
	"strings"

	"royalwager/domain/wagererr"
)

// WagerStatus represents the lifecycle state of a wager
type WagerStatus string

const (
	WagerStatusPending   WagerStatus = "PENDING"
	WagerStatusActive    WagerStatus = "ACTIVE"
	WagerStatusCompleted WagerStatus = "COMPLETED"
	WagerStatusDisputed  WagerStatus = "DISPUTED"
	WagerStatusCancelled WagerStatus = "CANCELLED"
)

// AllWagerStatuses lists every known status
var AllWagerStatuses = []WagerStatus{
	WagerStatusPending,
	WagerStatusActive,
	WagerStatusCompleted,
	WagerStatusDisputed,
	WagerStatusCancelled,
}

// ParseWagerStatus converts a raw value into a WagerStatus, rejecting anything unknown
func ParseWagerStatus(raw string) (WagerStatus, error) {
	s := WagerStatus(strings.ToUpper(strings.TrimSpace(raw)))
	if !s.IsValid() {
		return "", wagererr.New(wagererr.CodeUnknownStatus, "unknown wager status %q", raw)
	}
	return s, nil
}

// IsValid reports whether s is one of the known statuses
func (s WagerStatus) IsValid() bool {
	for _, known := range AllWagerStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transition may leave this status
func (s WagerStatus) IsTerminal() bool {
	return s == WagerStatusCompleted || s == WagerStatusCancelled
}

// IsOutstanding reports whether a wager in this status holds its parties' outstanding slot
func (s WagerStatus) IsOutstanding() bool {
	return s == WagerStatusPending || s == WagerStatusActive
}

func (s WagerStatus) String() string {
	return string(s)
}

// UnmarshalJSON rejects unknown statuses at the wire boundary
func (s *WagerStatus) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := ParseWagerStatus(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
