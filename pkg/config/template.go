package config

// DefaultTemplate is the starter configuration written by the config
// --create command.
const DefaultTemplate = `{
  "project": {
    "name": "my-geoexhibit-project",
    "collection_id": "my_collection",
    "title": "My GeoExhibit Collection",
    "description": "A collection of geospatial analyses"
  },
  "storage": {
    "scheme": "s3",
    "bucket": "your-bucket-name",
    "region": "ap-southeast-2"
  },
  "map": {
    "pmtiles": {
      "feature_id_property": "feature_id",
      "minzoom": 5,
      "maxzoom": 14
    }
  },
  "stac": {
    "geometry_in_item": true
  },
  "ids": {
    "prefix": ""
  },
  "time": {
    "mode": "declarative",
    "extractor": "attribute_date",
    "field": "properties.fire_date",
    "format": "auto",
    "tz": "UTC"
  },
  "analyzer": {
    "name": "demo_analyzer",
    "parameters": {}
  }
}
`
