package domain

import "time"

// FeatureSet is the terrain credibility record for one witness receipt.
// A nil field means the value is absent: every field is nil when the two
// endpoints were too close to build a profile.
type FeatureSet struct {
	Ra             *float64 `json:"ra"`
	Rq             *float64 `json:"rq"`
	Rp             *float64 `json:"rp"`
	Rv             *float64 `json:"rv"`
	Rz             *float64 `json:"rz"`
	Rsk            *float64 `json:"rsk"`
	Rku            *float64 `json:"rku"`
	DeepestBarrier *float64 `json:"deepest_barrier"`
	NBarriers      *int     `json:"n_barriers"`
}

// AbsentFeatures returns a FeatureSet with every field absent.
func AbsentFeatures() FeatureSet { return FeatureSet{} }

// IsAbsent reports whether no field carries a value.
func (f FeatureSet) IsAbsent() bool {
	return f.Ra == nil && f.Rq == nil && f.Rp == nil && f.Rv == nil && f.Rz == nil &&
		f.Rsk == nil && f.Rku == nil && f.DeepestBarrier == nil && f.NBarriers == nil
}

// Float returns a pointer to v.
func Float(v float64) *float64 { return &v }

// Int returns a pointer to v.
func Int(v int) *int { return &v }

// FeatureEvent is published whenever the features of a receipt are computed.
type FeatureEvent struct {
	ReceiptKey
	Features   FeatureSet `json:"features"`
	ComputedAt time.Time  `json:"computed_at"`
}
