package analyzer

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/Sumatoshi-tech/geoexhibit/pkg/feature"
	"github.com/Sumatoshi-tech/geoexhibit/pkg/safeconv"
	"github.com/Sumatoshi-tech/geoexhibit/pkg/timespan"
)

// DemoName is the registry name of the built-in demo analyzer.
const DemoName = "demo_analyzer"

const (
	demoSize   = 64 // pixels per side
	demoNoData = float32(-9999)
)

// Demo produces a small deterministic synthetic raster for every
// feature/time pair. It exists so the full pipeline can run end to end
// without an external analysis step.
type Demo struct{}

// NewDemo creates the demo analyzer.
func NewDemo() *Demo {
	return &Demo{}
}

// Name implements Analyzer.
func (d *Demo) Name() string {
	return DemoName
}

// Analyze implements Analyzer. The raster is a radial falloff around the
// geometry's bound center, modulated by day of year, so identical inputs
// always produce identical bytes.
func (d *Demo) Analyze(f *feature.Feature, span timespan.TimeSpan) (*Output, error) {
	if f.Geometry == nil {
		return nil, feature.ErrNoGeometry
	}

	raster := d.render(f, span)

	tiff, err := encodeFloatTIFF(raster, demoSize, demoSize)
	if err != nil {
		return nil, fmt.Errorf("encode demo raster: %w", err)
	}

	return &Output{
		Primary: AssetSpec{
			Key:       "analysis",
			Title:     "Demo Analysis Result",
			MediaType: MediaTypeCOG,
			Roles:     []string{RoleData, RolePrimary},
			Source:    BytesSource(tiff),
		},
		Properties: map[string]any{
			"geoexhibit:analyzer":      DemoName,
			"geoexhibit:analysis_time": span.Start.Format("2006-01-02T15:04:05Z07:00"),
			"geoexhibit:synthetic":     true,
			"demo:pixel_count":         demoSize * demoSize,
		},
	}, nil
}

func (d *Demo) render(f *feature.Feature, span timespan.TimeSpan) []float32 {
	bound := f.Geometry.Bound()
	center := bound.Center()

	pad := math.Max(bound.Max.Lon()-bound.Min.Lon(), bound.Max.Lat()-bound.Min.Lat()) * 0.1
	minLon := bound.Min.Lon() - pad
	maxLon := bound.Max.Lon() + pad
	minLat := bound.Min.Lat() - pad
	maxLat := bound.Max.Lat() + pad

	dayFactor := math.Sin(float64(span.Start.YearDay())*2*math.Pi/365)*0.3 + 1.0

	data := make([]float32, demoSize*demoSize)

	for row := 0; row < demoSize; row++ {
		lat := maxLat - (maxLat-minLat)*float64(row)/float64(demoSize-1)

		for col := 0; col < demoSize; col++ {
			lon := minLon + (maxLon-minLon)*float64(col)/float64(demoSize-1)

			dist := math.Hypot(lon-center.Lon(), lat-center.Lat())
			if dist > 0.5 {
				data[row*demoSize+col] = demoNoData

				continue
			}

			value := math.Cos(dist*10) * math.Exp(-dist*2) * dayFactor
			value = math.Max(-1, math.Min(1, value))
			data[row*demoSize+col] = float32(value)
		}
	}

	return data
}

// encodeFloatTIFF writes a single-band float32 baseline TIFF: one strip,
// no compression, little-endian.
func encodeFloatTIFF(pixels []float32, width, height int) ([]byte, error) {
	if len(pixels) != width*height {
		return nil, fmt.Errorf("pixel count %d does not match %dx%d", len(pixels), width, height)
	}

	const (
		headerSize = 8
		entryCount = 10
		ifdSize    = 2 + entryCount*12 + 4
	)

	dataOffset := headerSize + ifdSize
	dataSize := len(pixels) * 4

	buf := make([]byte, dataOffset+dataSize)

	// Header: little-endian magic and IFD offset.
	buf[0], buf[1] = 'I', 'I'
	binary.LittleEndian.PutUint16(buf[2:], 42)
	binary.LittleEndian.PutUint32(buf[4:], headerSize)

	pos := headerSize
	binary.LittleEndian.PutUint16(buf[pos:], entryCount)
	pos += 2

	writeEntry := func(tag, typ uint16, count, value uint32) {
		binary.LittleEndian.PutUint16(buf[pos:], tag)
		binary.LittleEndian.PutUint16(buf[pos+2:], typ)
		binary.LittleEndian.PutUint32(buf[pos+4:], count)
		binary.LittleEndian.PutUint32(buf[pos+8:], value)
		pos += 12
	}

	const (
		typeShort = 3
		typeLong  = 4
	)

	writeEntry(256, typeLong, 1, safeconv.MustIntToUint32(width))      // ImageWidth
	writeEntry(257, typeLong, 1, safeconv.MustIntToUint32(height))     // ImageLength
	writeEntry(258, typeShort, 1, 32)                                  // BitsPerSample
	writeEntry(259, typeShort, 1, 1)                                   // Compression: none
	writeEntry(262, typeShort, 1, 1)                                   // Photometric: BlackIsZero
	writeEntry(273, typeLong, 1, safeconv.MustIntToUint32(dataOffset)) // StripOffsets
	writeEntry(277, typeShort, 1, 1)                                   // SamplesPerPixel
	writeEntry(278, typeLong, 1, safeconv.MustIntToUint32(height))     // RowsPerStrip
	writeEntry(279, typeLong, 1, safeconv.MustIntToUint32(dataSize))   // StripByteCounts
	writeEntry(339, typeShort, 1, 3)                                   // SampleFormat: IEEE float

	// Next IFD offset: none.
	binary.LittleEndian.PutUint32(buf[pos:], 0)

	for i, v := range pixels {
		binary.LittleEndian.PutUint32(buf[dataOffset+i*4:], math.Float32bits(v))
	}

	return buf, nil
}
