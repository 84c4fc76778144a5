package feature

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/paulmach/orb/geojson"

	"github.com/Sumatoshi-tech/geoexhibit/pkg/ids"
	"github.com/Sumatoshi-tech/geoexhibit/pkg/textutil"
	"github.com/Sumatoshi-tech/geoexhibit/pkg/units"
)

// Loading errors.
var (
	ErrUnsupportedFormat = errors.New("unsupported features file format")
	ErrEmptyCollection   = errors.New("feature collection is empty")
	ErrBinaryInput       = errors.New("features file looks binary, expected GeoJSON or NDJSON text")
)

// LoadStats summarizes what ingestion accepted and dropped.
type LoadStats struct {
	Loaded       int
	SkippedLines int
	MintedIDs    int
}

// Load reads a features file (GeoJSON or NDJSON, by extension), validates
// it and mints feature_id values where absent.
func Load(path, idPrefix string, minter *ids.Minter, log *slog.Logger) (*Collection, LoadStats, error) {
	var stats LoadStats

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, stats, fmt.Errorf("read features file: %w", err)
	}

	if textutil.IsBinary(data) {
		return nil, stats, fmt.Errorf("%w: %s", ErrBinaryInput, path)
	}

	log.Debug("read features file", "path", path, "bytes", len(data), "lines", textutil.CountLines(data))

	var fc *geojson.FeatureCollection

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json", ".geojson":
		fc, err = parseGeoJSON(data)
	case ".ndjson", ".jsonl":
		fc, stats.SkippedLines, err = parseNDJSON(data, log)
	default:
		return nil, stats, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}

	if err != nil {
		return nil, stats, err
	}

	if len(fc.Features) == 0 {
		return nil, stats, ErrEmptyCollection
	}

	collection := fromGeoJSON(fc)
	stats.Loaded = len(collection.Features)
	stats.MintedIDs = EnsureIDs(collection, idPrefix, minter)

	return collection, stats, nil
}

func parseGeoJSON(data []byte) (*geojson.FeatureCollection, error) {
	if err := ValidateDocument(data); err != nil {
		return nil, err
	}

	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("decode feature collection: %w", err)
	}

	return fc, nil
}

// parseNDJSON reads one feature per line. Bad lines are skipped with a
// warning rather than failing the run; the skip count is reported back.
func parseNDJSON(data []byte, log *slog.Logger) (*geojson.FeatureCollection, int, error) {
	fc := geojson.NewFeatureCollection()
	skipped := 0
	scanner := bufio.NewScanner(strings.NewReader(string(data)))
	scanner.Buffer(make([]byte, 0, 64*units.KiB), 16*units.MiB)

	lineNum := 0
	for scanner.Scan() {
		lineNum++

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		f, err := geojson.UnmarshalFeature([]byte(line))
		if err != nil {
			log.Warn("skipping invalid NDJSON line", "line", lineNum, "error", err)

			skipped++

			continue
		}

		if f.Type != "Feature" {
			log.Warn("skipping non-Feature NDJSON line", "line", lineNum)

			skipped++

			continue
		}

		fc.Append(f)
	}

	if err := scanner.Err(); err != nil && !errors.Is(err, io.EOF) {
		return nil, skipped, fmt.Errorf("scan NDJSON: %w", err)
	}

	return fc, skipped, nil
}

func fromGeoJSON(fc *geojson.FeatureCollection) *Collection {
	collection := &Collection{Features: make([]*Feature, 0, len(fc.Features))}

	for _, gf := range fc.Features {
		props := gf.Properties
		if props == nil {
			props = geojson.Properties{}
		}

		collection.Features = append(collection.Features, &Feature{
			Geometry:   gf.Geometry,
			Properties: props,
		})
	}

	return collection
}

// EnsureIDs assigns a feature_id to every feature lacking one and returns
// the number of identifiers minted. Existing ids are never rewritten.
func EnsureIDs(c *Collection, prefix string, minter *ids.Minter) int {
	minted := 0

	for _, f := range c.Features {
		if f.ID() != "" {
			continue
		}

		id := minter.New()
		if prefix != "" {
			id = prefix + id
		}

		f.Properties[IDProperty] = id
		minted++
	}

	return minted
}

// MarshalCollection serializes a collection back to GeoJSON bytes, used
// by the import-features command.
func MarshalCollection(c *Collection) ([]byte, error) {
	out, err := json.MarshalIndent(c.ToGeoJSON(), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode feature collection: %w", err)
	}

	return out, nil
}
