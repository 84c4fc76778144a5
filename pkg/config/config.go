// Package config provides configuration loading and validation for the
// geoexhibit pipeline.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/Sumatoshi-tech/geoexhibit/pkg/timeprov"
)

// Sentinel validation errors. Configuration errors are fatal and occur
// before any work begins; a run never starts on a partially valid
// document.
var (
	ErrMissingProjectField = errors.New("missing required project field")
	ErrMissingBucket       = errors.New("storage.bucket is required")
	ErrBadScheme           = errors.New("storage.scheme must be s3")
	ErrBadTimeMode         = errors.New("time.mode must be 'declarative' or 'callable'")
	ErrBadExtractor        = errors.New("invalid time.extractor")
	ErrMissingTimeField    = errors.New("extractor requires time.field")
	ErrMissingProvider     = errors.New("callable time mode requires time.provider")
	ErrMissingAnalyzer     = errors.New("missing required analyzer field: name")
	ErrBadZoomRange        = errors.New("map.pmtiles zoom range is invalid")
)

// Default configuration values.
const (
	DefaultScheme         = "s3"
	DefaultTimeFormat     = "auto"
	DefaultTimeZone       = "UTC"
	DefaultMinZoom        = 5
	DefaultMaxZoom        = 14
	DefaultIDProperty     = "feature_id"
	DefaultGeometryInItem = true
	maxZoomLevel          = 22
)

// validExtractors are the recognized declarative time extractors.
var validExtractors = []string{
	"attribute_date",
	"attribute_interval",
	"from_epoch",
	"regex_from_string",
}

// extractorsNeedingField lists extractors that cannot run without a
// source field.
var extractorsNeedingField = []string{
	"attribute_date",
	"attribute_interval",
	"regex_from_string",
	"from_epoch",
}

// Config holds all configuration for a geoexhibit run.
type Config struct {
	Project  ProjectConfig  `mapstructure:"project"`
	Storage  StorageConfig  `mapstructure:"storage"`
	Map      MapConfig      `mapstructure:"map"`
	STAC     STACConfig     `mapstructure:"stac"`
	IDs      IDConfig       `mapstructure:"ids"`
	Time     TimeConfig     `mapstructure:"time"`
	Analyzer AnalyzerConfig `mapstructure:"analyzer"`
}

// ProjectConfig identifies the collection being published.
type ProjectConfig struct {
	Name         string `mapstructure:"name"`
	CollectionID string `mapstructure:"collection_id"`
	Title        string `mapstructure:"title"`
	Description  string `mapstructure:"description"`
}

// StorageConfig names the remote storage target. The bucket also anchors
// the absolute asset hrefs written into the catalog, so it is required
// even in local-output mode.
type StorageConfig struct {
	Scheme string `mapstructure:"scheme"`
	Bucket string `mapstructure:"bucket"`
	Region string `mapstructure:"region"`
}

// MapConfig holds map and overlay tuning.
type MapConfig struct {
	PMTiles PMTilesConfig `mapstructure:"pmtiles"`
}

// PMTilesConfig tunes the vector overlay build.
type PMTilesConfig struct {
	FeatureIDProperty string `mapstructure:"feature_id_property"`
	MinZoom           int    `mapstructure:"minzoom"`
	MaxZoom           int    `mapstructure:"maxzoom"`
}

// STACConfig holds catalog document options.
type STACConfig struct {
	GeometryInItem bool `mapstructure:"geometry_in_item"`
}

// IDConfig holds identifier minting options.
type IDConfig struct {
	Prefix string `mapstructure:"prefix"`
}

// TimeConfig is the tagged time-extraction variant: declarative
// field-based extraction or a named callable provider.
type TimeConfig struct {
	Mode      string         `mapstructure:"mode"`
	Extractor string         `mapstructure:"extractor"`
	Field     string         `mapstructure:"field"`
	Format    string         `mapstructure:"format"`
	TZ        string         `mapstructure:"tz"`
	Provider  string         `mapstructure:"provider"`
	Interval  IntervalConfig `mapstructure:"interval"`
	Fanout    FanoutConfig   `mapstructure:"fanout"`
	Regex     RegexConfig    `mapstructure:"regex"`
}

// IntervalConfig tunes the attribute_interval extractor.
type IntervalConfig struct {
	EndField    string `mapstructure:"end_field"`
	DefaultDays int    `mapstructure:"default_days"`
}

// FanoutConfig tunes the attribute_date extractor.
type FanoutConfig struct {
	AsList bool `mapstructure:"as_list"`
}

// RegexConfig tunes the regex_from_string extractor.
type RegexConfig struct {
	Pattern string `mapstructure:"pattern"`
}

// AnalyzerConfig selects the analysis step by registry name.
type AnalyzerConfig struct {
	Name       string         `mapstructure:"name"`
	Parameters map[string]any `mapstructure:"parameters"`
}

// Load reads and validates a configuration file (JSON or YAML).
func Load(configPath string) (*Config, error) {
	viperCfg := viper.New()
	setDefaults(viperCfg)

	viperCfg.SetConfigFile(configPath)
	viperCfg.SetEnvPrefix("GEOEXHIBIT")
	viperCfg.AutomaticEnv()
	viperCfg.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viperCfg.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config

	if err := viperCfg.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// TimeProvider converts the time section into the provider config
// resolved at pipeline start.
func (c *Config) TimeProvider() timeprov.Config {
	return timeprov.Config{
		Mode:         c.Time.Mode,
		Extractor:    c.Time.Extractor,
		Field:        c.Time.Field,
		Format:       c.Time.Format,
		TZ:           c.Time.TZ,
		EndField:     c.Time.Interval.EndField,
		DefaultDays:  c.Time.Interval.DefaultDays,
		FanoutAsList: c.Time.Fanout.AsList,
		Pattern:      c.Time.Regex.Pattern,
		Provider:     c.Time.Provider,
	}
}

func setDefaults(viperCfg *viper.Viper) {
	viperCfg.SetDefault("storage.scheme", DefaultScheme)
	viperCfg.SetDefault("stac.geometry_in_item", DefaultGeometryInItem)
	viperCfg.SetDefault("time.format", DefaultTimeFormat)
	viperCfg.SetDefault("time.tz", DefaultTimeZone)
	viperCfg.SetDefault("map.pmtiles.feature_id_property", DefaultIDProperty)
	viperCfg.SetDefault("map.pmtiles.minzoom", DefaultMinZoom)
	viperCfg.SetDefault("map.pmtiles.maxzoom", DefaultMaxZoom)
}

func validateConfig(config *Config) error {
	if err := validateProject(&config.Project); err != nil {
		return err
	}

	if config.Storage.Bucket == "" {
		return ErrMissingBucket
	}

	if config.Storage.Scheme != DefaultScheme {
		return fmt.Errorf("%w: got %q", ErrBadScheme, config.Storage.Scheme)
	}

	if err := validateTime(&config.Time); err != nil {
		return err
	}

	if config.Analyzer.Name == "" {
		return ErrMissingAnalyzer
	}

	pm := config.Map.PMTiles
	if pm.MinZoom < 0 || pm.MaxZoom > maxZoomLevel || pm.MinZoom > pm.MaxZoom {
		return fmt.Errorf("%w: minzoom=%d maxzoom=%d", ErrBadZoomRange, pm.MinZoom, pm.MaxZoom)
	}

	return nil
}

func validateProject(project *ProjectConfig) error {
	fields := map[string]string{
		"name":          project.Name,
		"collection_id": project.CollectionID,
		"title":         project.Title,
		"description":   project.Description,
	}

	for _, name := range []string{"name", "collection_id", "title", "description"} {
		if fields[name] == "" {
			return fmt.Errorf("%w: %s", ErrMissingProjectField, name)
		}
	}

	return nil
}

func validateTime(tc *TimeConfig) error {
	switch tc.Mode {
	case "declarative":
		return validateDeclarativeTime(tc)
	case "callable":
		if tc.Provider == "" {
			return ErrMissingProvider
		}

		return nil
	default:
		return fmt.Errorf("%w: got %q", ErrBadTimeMode, tc.Mode)
	}
}

func validateDeclarativeTime(tc *TimeConfig) error {
	valid := false

	for _, name := range validExtractors {
		if tc.Extractor == name {
			valid = true

			break
		}
	}

	if !valid {
		return fmt.Errorf("%w: %q (must be one of: %s)",
			ErrBadExtractor, tc.Extractor, strings.Join(validExtractors, ", "))
	}

	for _, name := range extractorsNeedingField {
		if tc.Extractor == name && tc.Field == "" {
			return fmt.Errorf("%w: extractor %q", ErrMissingTimeField, tc.Extractor)
		}
	}

	return nil
}
