package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNotFound is returned by repositories when a record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrGatewayNotLocated means a gateway has no asserted location.
	ErrGatewayNotLocated = errors.New("gateway has no location")
)

// InvalidReason explains why a witness was rejected by the chain.
type InvalidReason string

const (
	InvalidRSSITooHigh      InvalidReason = "witness_rssi_too_high"
	InvalidIncorrectFreq    InvalidReason = "incorrect_frequency"
	InvalidNotSameRegion    InvalidReason = "witness_not_same_region"
	InvalidTooClose         InvalidReason = "witness_too_close"
	InvalidIncorrectChannel InvalidReason = "witness_on_incorrect_channel"
	InvalidTooFar           InvalidReason = "witness_too_far"
)

// ReceiptKey identifies one witness entry of a challenge receipt.
type ReceiptKey struct {
	Hash    string `json:"hash"`
	Witness string `json:"witness"`
}

func (k ReceiptKey) String() string { return fmt.Sprintf("%s/%s", k.Hash, k.Witness) }

// WitnessReceipt is one parsed witness of a proof-of-coverage challenge receipt.
type WitnessReceipt struct {
	Block         int64          `json:"block"`
	Hash          string         `json:"hash"`
	Time          int64          `json:"time"`
	Challenger    string         `json:"challenger"`
	Transmitter   string         `json:"transmitter_address"`
	Witness       string         `json:"witness_address"`
	IsValid       *bool          `json:"witness_is_valid,omitempty"`
	InvalidReason *InvalidReason `json:"witness_invalid_reason,omitempty"`
	Signal        *int           `json:"witness_signal,omitempty"`
	SNR           *float64       `json:"witness_snr,omitempty"`
	Frequency     *float64       `json:"witness_frequency,omitempty"`
	Channel       *int           `json:"witness_channel,omitempty"`
	Datarate      string         `json:"witness_datarate,omitempty"`
	DistanceKm    *float64       `json:"distance_km,omitempty"`
	Features      FeatureSet     `json:"features"`
	ComputedAt    *time.Time     `json:"terrain_computed_at,omitempty"`
}

// Key returns the receipt identifier.
func (r WitnessReceipt) Key() ReceiptKey { return ReceiptKey{Hash: r.Hash, Witness: r.Witness} }

// Gateway is a hotspot from the gateway inventory.
type Gateway struct {
	Address   string    `json:"address"`
	Owner     string    `json:"owner,omitempty"`
	Name      string    `json:"name,omitempty"`
	Location  *GeoPoint `json:"location,omitempty"`
	Elevation int       `json:"elevation"` // antenna height above ground, metres
	Gain      int       `json:"gain"`      // dBi x 10
	Mode      string    `json:"mode,omitempty"`
}
