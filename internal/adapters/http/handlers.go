package http

import (
	"math"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/samirrijal/witnessterrain/internal/core/domain"
	"github.com/samirrijal/witnessterrain/internal/pkg/geospatial"
)

// BearingResponse is the initial great-circle bearing between two points.
type BearingResponse struct {
	BearingRad float64 `json:"bearing_rad"`
	BearingDeg float64 `json:"bearing_deg"`
}

// ReceiptFeaturesResponse is the stored feature set of one witness receipt.
type ReceiptFeaturesResponse struct {
	Hash       string            `json:"hash"`
	Witness    string            `json:"witness"`
	DistanceKm *float64          `json:"distance_km,omitempty"`
	Features   domain.FeatureSet `json:"features"`
	ComputedAt *time.Time        `json:"terrain_computed_at"`
}

// BearingHandler returns the bearing from (lat1, lon1) to (lat2, lon2).
func BearingHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		var coords [4]float64
		for i, name := range []string{"lat1", "lon1", "lat2", "lon2"} {
			raw := c.Query(name)
			if raw == "" {
				return errBadRequest(c, "lat1, lon1, lat2 and lon2 are required")
			}
			v, err := strconv.ParseFloat(raw, 64)
			if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
				return errBadRequest(c, name+" must be a number")
			}
			coords[i] = v
		}
		if math.Abs(coords[0]) > 90 || math.Abs(coords[2]) > 90 {
			return errBadRequest(c, "latitude must be between -90 and 90")
		}
		if math.Abs(coords[1]) > 180 || math.Abs(coords[3]) > 180 {
			return errBadRequest(c, "longitude must be between -180 and 180")
		}

		rad := geospatial.Bearing(coords[0], coords[1], coords[2], coords[3])
		return c.JSON(BearingResponse{
			BearingRad: rad,
			BearingDeg: geospatial.BearingDegrees(coords[0], coords[1], coords[2], coords[3]),
		})
	}
}

// PathFeaturesHandler computes the terrain features of an arbitrary link.
func PathFeaturesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req domain.PathRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		f, err := deps.Features.ComputePath(c.UserContext(), req)
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(f)
	}
}

// PathProfileHandler returns the sampled and leveled profile of a link.
func PathProfileHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req domain.PathRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		report, err := deps.Features.Profile(c.UserContext(), req)
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(report)
	}
}

// PendingReceiptsHandler lists receipts still waiting for terrain features.
func PendingReceiptsHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		offset, limit := pageParams(c, 50, 200)

		receipts, total, err := deps.Receipts.ListPending(c.UserContext(), offset, limit)
		if err != nil {
			return errFromDomain(c, err)
		}
		if receipts == nil {
			receipts = []domain.WitnessReceipt{}
		}

		pg := Pagination{Offset: offset, Limit: limit, Total: total}
		SetLinkHeaders(c, pg)
		return c.JSON(PaginatedResponse{Data: receipts, Pagination: pg})
	}
}

// GetReceiptFeaturesHandler returns the stored features of a witness receipt.
func GetReceiptFeaturesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		key, err := receiptKey(c)
		if err != nil {
			return err
		}

		rec, err := deps.Receipts.GetFeatures(c.UserContext(), key)
		if err != nil {
			return errFromDomain(c, err)
		}
		if rec.ComputedAt == nil {
			// not featurized yet, let clients poll
			c.Set("Cache-Control", "no-cache")
		}
		return c.JSON(ReceiptFeaturesResponse{
			Hash:       rec.Hash,
			Witness:    rec.Witness,
			DistanceKm: rec.DistanceKm,
			Features:   rec.Features,
			ComputedAt: rec.ComputedAt,
		})
	}
}

// RecomputeReceiptFeaturesHandler recomputes and stores the features of a
// witness receipt.
func RecomputeReceiptFeaturesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		key, err := receiptKey(c)
		if err != nil {
			return err
		}

		f, err := deps.Features.ComputeForReceipt(c.UserContext(), key)
		if err != nil {
			return errFromDomain(c, err)
		}
		LoggerFromCtx(c.UserContext()).Info("receipt features recomputed", "receipt", key.String(), "absent", f.IsAbsent())

		now := time.Now().UTC()
		return c.JSON(ReceiptFeaturesResponse{
			Hash:       key.Hash,
			Witness:    key.Witness,
			Features:   f,
			ComputedAt: &now,
		})
	}
}

func receiptKey(c *fiber.Ctx) (domain.ReceiptKey, error) {
	key := domain.ReceiptKey{Hash: c.Params("hash"), Witness: c.Params("witness")}
	if key.Hash == "" || key.Witness == "" {
		return key, errBadRequest(c, "hash and witness are required")
	}
	if len(key.Hash) > 128 || len(key.Witness) > 128 {
		return key, errBadRequest(c, "hash or witness too long")
	}
	return key, nil
}
