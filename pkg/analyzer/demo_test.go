package analyzer_test

import (
	"encoding/binary"
	"io"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/geoexhibit/pkg/analyzer"
	"github.com/Sumatoshi-tech/geoexhibit/pkg/feature"
	"github.com/Sumatoshi-tech/geoexhibit/pkg/timespan"
)

func demoFeature() *feature.Feature {
	return &feature.Feature{
		Geometry: orb.Polygon{{{138.5, -35.0}, {138.7, -35.0}, {138.7, -34.8}, {138.5, -35.0}}},
		Properties: map[string]any{
			feature.IDProperty: "f-demo",
		},
	}
}

func TestDemoAnalyzeProducesValidOutput(t *testing.T) {
	t.Parallel()

	demo := analyzer.NewDemo()
	span := timespan.Instant(time.Date(2023, 8, 15, 0, 0, 0, 0, time.UTC))

	out, err := demo.Analyze(demoFeature(), span)
	require.NoError(t, err)
	require.NoError(t, out.Normalize())

	assert.Equal(t, "analysis", out.Primary.Key)
	assert.Equal(t, analyzer.MediaTypeCOG, out.Primary.MediaType)
	assert.Equal(t, analyzer.DemoName, out.Properties["geoexhibit:analyzer"])
}

func TestDemoAnalyzeIsDeterministic(t *testing.T) {
	t.Parallel()

	demo := analyzer.NewDemo()
	span := timespan.Instant(time.Date(2023, 8, 15, 0, 0, 0, 0, time.UTC))

	first, err := demo.Analyze(demoFeature(), span)
	require.NoError(t, err)

	second, err := demo.Analyze(demoFeature(), span)
	require.NoError(t, err)

	assert.Equal(t, readSource(t, first.Primary.Source), readSource(t, second.Primary.Source))
}

func TestDemoAnalyzeVariesWithTime(t *testing.T) {
	t.Parallel()

	demo := analyzer.NewDemo()

	winter, err := demo.Analyze(demoFeature(), timespan.Instant(time.Date(2023, 1, 15, 0, 0, 0, 0, time.UTC)))
	require.NoError(t, err)

	summer, err := demo.Analyze(demoFeature(), timespan.Instant(time.Date(2023, 8, 15, 0, 0, 0, 0, time.UTC)))
	require.NoError(t, err)

	assert.NotEqual(t, readSource(t, winter.Primary.Source), readSource(t, summer.Primary.Source))
}

func TestDemoAnalyzeRejectsMissingGeometry(t *testing.T) {
	t.Parallel()

	demo := analyzer.NewDemo()
	f := &feature.Feature{Properties: map[string]any{}}

	_, err := demo.Analyze(f, timespan.Instant(time.Now()))
	require.ErrorIs(t, err, feature.ErrNoGeometry)
}

func TestDemoRasterIsLittleEndianTIFF(t *testing.T) {
	t.Parallel()

	demo := analyzer.NewDemo()

	out, err := demo.Analyze(demoFeature(), timespan.Instant(time.Date(2023, 8, 15, 0, 0, 0, 0, time.UTC)))
	require.NoError(t, err)

	data := readSource(t, out.Primary.Source)
	require.Greater(t, len(data), 8)

	assert.Equal(t, byte('I'), data[0])
	assert.Equal(t, byte('I'), data[1])
	assert.Equal(t, uint16(42), binary.LittleEndian.Uint16(data[2:4]))
}

func readSource(t *testing.T, src analyzer.Source) []byte {
	t.Helper()

	rc, err := src.Open()
	require.NoError(t, err)
	defer rc.Close()

	data, err := io.ReadAll(rc)
	require.NoError(t, err)

	return data
}
