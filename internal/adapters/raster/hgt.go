package raster

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
)

// SRTM tile edge lengths in samples.
const (
	hgtSamples1 = 3601 // one arc-second
	hgtSamples3 = 1201 // three arc-second

	hgtVoid = -32768
)

var hgtName = regexp.MustCompile(`^([NSns])(\d{2})([EWew])(\d{3})`)

// LoadHGT reads an SRTM .hgt tile from disk.
func LoadHGT(path string) (*Grid, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open hgt: %w", err)
	}
	defer f.Close()

	return ParseHGT(filepath.Base(path), bufio.NewReader(f))
}

// ParseHGT decodes an SRTM tile. The name (for example "N37W122.hgt") gives
// the south-west corner of the tile; samples are big-endian int16 metres,
// north row first, with voids reported as 0.
func ParseHGT(name string, r io.Reader) (*Grid, error) {
	lat0, lon0, err := parseHGTName(name)
	if err != nil {
		return nil, err
	}

	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read hgt: %w", err)
	}

	var size int
	switch len(raw) {
	case hgtSamples1 * hgtSamples1 * 2:
		size = hgtSamples1
	case hgtSamples3 * hgtSamples3 * 2:
		size = hgtSamples3
	default:
		return nil, fmt.Errorf("hgt %s: unexpected size %d bytes", name, len(raw))
	}

	data := make([]float64, size*size)
	for i := range data {
		v := int16(binary.BigEndian.Uint16(raw[2*i:]))
		if v == hgtVoid {
			continue
		}
		data[i] = float64(v)
	}

	// sample centres sit on whole arc-second lines, so the pixel edges are
	// shifted by half a pixel
	res := 1 / float64(size-1)
	return NewGrid(lon0-res/2, lat0+1+res/2, res, res, size, size, data)
}

func parseHGTName(name string) (lat, lon float64, err error) {
	m := hgtName.FindStringSubmatch(name)
	if m == nil {
		return 0, 0, fmt.Errorf("hgt %q: name does not encode a tile corner", name)
	}
	latDeg, _ := strconv.Atoi(m[2])
	lonDeg, _ := strconv.Atoi(m[4])
	lat, lon = float64(latDeg), float64(lonDeg)
	if strings.EqualFold(m[1], "S") {
		lat = -lat
	}
	if strings.EqualFold(m[3], "W") {
		lon = -lon
	}
	return lat, lon, nil
}
