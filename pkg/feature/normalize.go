package feature

import (
	"errors"
	"fmt"

	"github.com/paulmach/orb"
)

// Geometry errors. A feature whose geometry trips any of these is skipped
// by the plan builder, never retried.
var (
	ErrNoGeometry       = errors.New("feature has no geometry")
	ErrGeometryOutOfCRS = errors.New("geometry coordinates outside WGS84 bounds")
	ErrDegenerateRing   = errors.New("polygon ring is not closed or has too few points")
	ErrDegenerateLine   = errors.New("line string has fewer than two points")
	ErrEmptyGeometry    = errors.New("geometry has no coordinates")
	ErrGeometryType     = errors.New("unsupported geometry type")
)

const (
	minLon = -180.0
	maxLon = 180.0
	minLat = -90.0
	maxLat = 90.0
)

// minRingPoints is the GeoJSON minimum for a closed linear ring.
const minRingPoints = 4

// NormalizeGeometry verifies that a feature's geometry is usable in the
// working reference system (WGS84 lon/lat). Coordinates outside the valid
// range are treated as unreprojectable.
func NormalizeGeometry(f *Feature) error {
	if f.Geometry == nil {
		return ErrNoGeometry
	}

	return checkGeometry(f.Geometry)
}

func checkGeometry(g orb.Geometry) error {
	switch geom := g.(type) {
	case orb.Point:
		return checkPoint(geom)
	case orb.MultiPoint:
		if len(geom) == 0 {
			return ErrEmptyGeometry
		}

		for _, p := range geom {
			if err := checkPoint(p); err != nil {
				return err
			}
		}
	case orb.LineString:
		return checkLine(geom)
	case orb.MultiLineString:
		if len(geom) == 0 {
			return ErrEmptyGeometry
		}

		for _, ls := range geom {
			if err := checkLine(ls); err != nil {
				return err
			}
		}
	case orb.Polygon:
		return checkPolygon(geom)
	case orb.MultiPolygon:
		if len(geom) == 0 {
			return ErrEmptyGeometry
		}

		for _, poly := range geom {
			if err := checkPolygon(poly); err != nil {
				return err
			}
		}
	case orb.Collection:
		if len(geom) == 0 {
			return ErrEmptyGeometry
		}

		for _, member := range geom {
			if err := checkGeometry(member); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("%w: %T", ErrGeometryType, g)
	}

	return nil
}

func checkPoint(p orb.Point) error {
	if p.Lon() < minLon || p.Lon() > maxLon || p.Lat() < minLat || p.Lat() > maxLat {
		return fmt.Errorf("%w: (%f, %f)", ErrGeometryOutOfCRS, p.Lon(), p.Lat())
	}

	return nil
}

func checkLine(ls orb.LineString) error {
	if len(ls) < 2 {
		return ErrDegenerateLine
	}

	for _, p := range ls {
		if err := checkPoint(p); err != nil {
			return err
		}
	}

	return nil
}

func checkPolygon(poly orb.Polygon) error {
	if len(poly) == 0 {
		return ErrEmptyGeometry
	}

	for _, ring := range poly {
		if len(ring) < minRingPoints || !ring.Closed() {
			return ErrDegenerateRing
		}

		for _, p := range ring {
			if err := checkPoint(p); err != nil {
				return err
			}
		}
	}

	return nil
}
