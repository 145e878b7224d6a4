package delivery

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"time"

	"github.com/angelmondragon/restaurant-storefront/pkg/i18n"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// NearestBranch is the branch the backend chose to dispatch from.
type NearestBranch struct {
	ID     string `json:"id"`
	NameAR string `json:"name_ar,omitempty"`
	NameEN string `json:"name_en,omitempty"`
}

// Result is the priced delivery for one address/branch pair.
type Result struct {
	Fee           decimal.Decimal `json:"fee"`
	DistanceKM    float64         `json:"distance_km"`
	NearestBranch *NearestBranch  `json:"nearest_branch,omitempty"`
}

// State is the last committed resolution of a session. Exactly one of
// Result and ErrorKey is set once a resolution has run.
type State struct {
	Generation  int64     `json:"generation"`
	Fingerprint string    `json:"fingerprint"`
	AddressID   string    `json:"address_id,omitempty"`
	Result      *Result   `json:"result,omitempty"`
	ErrorKey    i18n.Key  `json:"error_key,omitempty"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// HasError reports whether the resolution ended in a user-facing error.
func (s *State) HasError() bool {
	return s != nil && s.ErrorKey != ""
}

// FreshFor reports whether the state was computed from the inputs that hash to fingerprint.
func (s *State) FreshFor(fingerprint string) bool {
	return s != nil && s.Fingerprint == fingerprint
}

// Inputs are the values a fee depends on.
type Inputs struct {
	AddressID string
	Latitude  *float64
	Longitude *float64
	BranchID  *uuid.UUID
	CartEmpty bool
}

// Fingerprint hashes inputs so a stored result can be checked against the current snapshot.
func Fingerprint(in Inputs) string {
	branch := ""
	if in.BranchID != nil {
		branch = in.BranchID.String()
	}
	raw := fmt.Sprintf("%s|%s|%s|%s|%t", in.AddressID, coord(in.Latitude), coord(in.Longitude), branch, in.CartEmpty)
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

func coord(v *float64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatFloat(*v, 'f', 6, 64)
}

// CheckPreconditions runs the checks that gate a fee request, in order, and
// returns the message key of the first failure or "" when a request may be sent.
func CheckPreconditions(in Inputs, hasAddress bool) i18n.Key {
	if !hasAddress {
		return i18n.MsgAddressRequired
	}
	if in.Latitude == nil || in.Longitude == nil {
		return i18n.MsgAddressNoCoordinates
	}
	if in.CartEmpty || in.BranchID == nil || *in.BranchID == uuid.Nil {
		return i18n.MsgBranchRequired
	}
	return ""
}
