package feature

import (
	"errors"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// ErrSchemaViolation indicates the input document is not a structurally
// valid FeatureCollection.
var ErrSchemaViolation = errors.New("feature collection schema violation")

// featureCollectionSchema is the structural contract enforced on GeoJSON
// inputs before any feature reaches the plan builder.
const featureCollectionSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["type", "features"],
  "properties": {
    "type": {"const": "FeatureCollection"},
    "features": {
      "type": "array",
      "items": {
        "type": "object",
        "required": ["type", "geometry"],
        "properties": {
          "type": {"const": "Feature"},
          "geometry": {
            "type": "object",
            "required": ["type", "coordinates"],
            "properties": {
              "type": {
                "enum": [
                  "Point", "MultiPoint", "LineString", "MultiLineString",
                  "Polygon", "MultiPolygon"
                ]
              }
            }
          },
          "properties": {"type": ["object", "null"]}
        }
      }
    }
  }
}`

// ValidateDocument checks raw bytes against the FeatureCollection schema.
// Any violation is a fatal ingestion error; the pipeline never starts on
// malformed input.
func ValidateDocument(data []byte) error {
	schema := gojsonschema.NewStringLoader(featureCollectionSchema)
	document := gojsonschema.NewBytesLoader(data)

	result, err := gojsonschema.Validate(schema, document)
	if err != nil {
		return fmt.Errorf("schema validation: %w", err)
	}

	if result.Valid() {
		return nil
	}

	details := make([]string, 0, len(result.Errors()))
	for _, re := range result.Errors() {
		details = append(details, re.String())
	}

	return fmt.Errorf("%w: %s", ErrSchemaViolation, strings.Join(details, "; "))
}
