package csvimport

import (
	"fmt"
	"io"
	"strconv"

	"github.com/samirrijal/witnessterrain/internal/core/domain"
)

var receiptColumns = []string{"block", "hash", "time", "challenger", "transmitter_address", "witness_address"}

var validReasons = map[domain.InvalidReason]bool{
	domain.InvalidRSSITooHigh:      true,
	domain.InvalidIncorrectFreq:    true,
	domain.InvalidNotSameRegion:    true,
	domain.InvalidTooClose:         true,
	domain.InvalidIncorrectChannel: true,
	domain.InvalidTooFar:           true,
}

// EachReceipt calls fn for every row of a challenge_receipts_parsed export.
// Malformed rows are skipped and counted.
func EachReceipt(r io.Reader, fn func(domain.WitnessReceipt) error) (skipped int, err error) {
	t, err := open(r, receiptColumns...)
	if err != nil {
		return 0, err
	}

	for {
		rec, err := t.next()
		if err == io.EOF {
			return skipped, nil
		}
		if err != nil {
			return skipped, fmt.Errorf("line %d: %w", t.line, err)
		}

		wr, err := parseReceipt(t, rec)
		if err != nil {
			skipped++
			continue
		}
		if err := fn(wr); err != nil {
			return skipped, err
		}
	}
}

func parseReceipt(t *table, rec []string) (domain.WitnessReceipt, error) {
	var (
		wr  domain.WitnessReceipt
		err error
	)
	wr.Hash = t.field(rec, "hash")
	wr.Challenger = t.field(rec, "challenger")
	wr.Transmitter = t.field(rec, "transmitter_address")
	wr.Witness = t.field(rec, "witness_address")
	wr.Datarate = t.field(rec, "witness_datarate")
	if wr.Hash == "" || wr.Transmitter == "" || wr.Witness == "" {
		return wr, fmt.Errorf("line %d: empty key", t.line)
	}

	if wr.Block, err = strconv.ParseInt(t.field(rec, "block"), 10, 64); err != nil {
		return wr, fmt.Errorf("line %d: block: %w", t.line, err)
	}
	if wr.Time, err = strconv.ParseInt(t.field(rec, "time"), 10, 64); err != nil {
		return wr, fmt.Errorf("line %d: time: %w", t.line, err)
	}
	if wr.IsValid, err = optBool(t.field(rec, "witness_is_valid")); err != nil {
		return wr, err
	}
	if wr.Signal, err = optInt(t.field(rec, "witness_signal")); err != nil {
		return wr, err
	}
	if wr.Channel, err = optInt(t.field(rec, "witness_channel")); err != nil {
		return wr, err
	}
	if wr.SNR, err = optFloat(t.field(rec, "witness_snr")); err != nil {
		return wr, err
	}
	if wr.Frequency, err = optFloat(t.field(rec, "witness_frequency")); err != nil {
		return wr, err
	}
	if wr.DistanceKm, err = optFloat(t.field(rec, "distance_km")); err != nil {
		return wr, err
	}

	if s := t.field(rec, "witness_invalid_reason"); s != "" {
		reason := domain.InvalidReason(s)
		if !validReasons[reason] {
			return wr, fmt.Errorf("line %d: unknown invalid reason %q", t.line, s)
		}
		wr.InvalidReason = &reason
	}
	return wr, nil
}
