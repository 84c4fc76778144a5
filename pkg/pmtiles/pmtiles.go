// Package pmtiles generates the shared vector-tile overlay by shelling
// out to tippecanoe. The produced file is consumed as an opaque artifact.
package pmtiles

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"

	"github.com/Sumatoshi-tech/geoexhibit/pkg/feature"
)

// ErrToolMissing indicates tippecanoe is not installed.
var ErrToolMissing = errors.New("tippecanoe not found on PATH")

// Default zoom bounds.
const (
	DefaultMinZoom = 5
	DefaultMaxZoom = 14
)

// Generator builds a PMTiles overlay from a feature collection with a
// single blocking tippecanoe invocation.
type Generator struct {
	MinZoom int
	MaxZoom int

	// Bin overrides the tippecanoe binary, for tests.
	Bin string
}

// Available reports whether the encoder binary can be resolved.
func (g *Generator) Available() bool {
	_, err := exec.LookPath(g.bin())
	return err == nil
}

// Generate encodes the collection into outPath. The input is staged as a
// temporary GeoJSON file and removed afterwards.
func (g *Generator) Generate(ctx context.Context, collection *feature.Collection, outPath string) error {
	if _, err := exec.LookPath(g.bin()); err != nil {
		return fmt.Errorf("%w: %v", ErrToolMissing, err)
	}

	data, err := json.Marshal(collection.ToGeoJSON())
	if err != nil {
		return fmt.Errorf("encode features: %w", err)
	}

	tmp, err := os.CreateTemp("", "geoexhibit-*.geojson")
	if err != nil {
		return fmt.Errorf("stage features file: %w", err)
	}

	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()

		return fmt.Errorf("stage features file: %w", err)
	}

	if err := tmp.Close(); err != nil {
		return fmt.Errorf("stage features file: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	cmd := exec.CommandContext(ctx, g.bin(),
		"-o", outPath,
		"-z", strconv.Itoa(g.maxZoom()),
		"-Z", strconv.Itoa(g.minZoom()),
		"--force",
		"--no-tile-compression",
		"--drop-densest-as-needed",
		tmpPath,
	)

	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("tippecanoe: %w: %s", err, out)
	}

	return nil
}

func (g *Generator) bin() string {
	if g.Bin != "" {
		return g.Bin
	}

	return "tippecanoe"
}

func (g *Generator) minZoom() int {
	if g.MinZoom > 0 {
		return g.MinZoom
	}

	return DefaultMinZoom
}

func (g *Generator) maxZoom() int {
	if g.MaxZoom > 0 {
		return g.MaxZoom
	}

	return DefaultMaxZoom
}
