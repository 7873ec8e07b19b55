package csvimport

import (
	"fmt"
	"io"
	"math"
	"strconv"

	"github.com/samirrijal/witnessterrain/internal/core/domain"
)

// EachGateway calls fn for every row of a gateway_inventory export. Rows
// with unparsable numbers are skipped and counted; gateways without lat/lng
// are kept with a nil Location.
func EachGateway(r io.Reader, fn func(domain.Gateway) error) (skipped int, err error) {
	t, err := open(r, "address")
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

		g, ok := parseGateway(t, rec)
		if !ok {
			skipped++
			continue
		}
		if err := fn(g); err != nil {
			return skipped, err
		}
	}
}

func parseGateway(t *table, rec []string) (domain.Gateway, bool) {
	g := domain.Gateway{
		Address: t.field(rec, "address"),
		Owner:   t.field(rec, "owner"),
		Name:    t.field(rec, "name"),
		Mode:    t.field(rec, "mode"),
	}
	if g.Address == "" {
		return g, false
	}

	lat, err1 := optFloat(t.field(rec, "lat"))
	lng, err2 := optFloat(t.field(rec, "lng"))
	if err1 != nil || err2 != nil {
		return g, false
	}
	if lat != nil && lng != nil {
		if math.Abs(*lat) > 90 || math.Abs(*lng) > 180 {
			return g, false
		}
		g.Location = &domain.GeoPoint{Lat: *lat, Lon: *lng}
	}

	for name, dst := range map[string]*int{"elevation": &g.Elevation, "gain": &g.Gain} {
		if s := t.field(rec, name); s != "" {
			v, err := strconv.Atoi(s)
			if err != nil {
				return g, false
			}
			*dst = v
		}
	}
	return g, true
}
