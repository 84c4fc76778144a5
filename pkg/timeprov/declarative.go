package timeprov

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/Sumatoshi-tech/geoexhibit/pkg/feature"
	"github.com/Sumatoshi-tech/geoexhibit/pkg/safeconv"
	"github.com/Sumatoshi-tech/geoexhibit/pkg/timespan"
)

// msEpochThreshold separates second from millisecond epoch values.
// Anything past Jan 1, 2100 in seconds is assumed to be milliseconds.
const msEpochThreshold = 4102444800

// autoFormats are tried in order when the configured format is "auto".
var autoFormats = []string{
	"2006-01-02",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05Z",
	"2006-01-02 15:04:05",
	"01/02/2006",
	"02/01/2006",
	"20060102",
}

// Declarative extracts time periods from feature properties according to
// the configured extractor. A missing or unparseable value yields zero
// spans for that feature, not an error; the feature simply has nothing to
// analyze.
type Declarative struct {
	cfg     Config
	loc     *time.Location
	pattern *regexp.Regexp
}

func newDeclarative(cfg Config) (*Declarative, error) {
	switch cfg.Extractor {
	case "attribute_date", "attribute_interval", "regex_from_string", "from_epoch":
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownExtractor, cfg.Extractor)
	}

	if cfg.Field == "" {
		return nil, fmt.Errorf("%w: extractor %q", ErrMissingField, cfg.Extractor)
	}

	loc := time.UTC

	if cfg.TZ != "" && cfg.TZ != "UTC" {
		var err error

		loc, err = time.LoadLocation(cfg.TZ)
		if err != nil {
			return nil, fmt.Errorf("load timezone %q: %w", cfg.TZ, err)
		}
	}

	d := &Declarative{cfg: cfg, loc: loc}

	if cfg.Extractor == "regex_from_string" {
		expr := cfg.Pattern
		if expr == "" {
			expr = `\d{4}-\d{2}-\d{2}`
		}

		pattern, err := regexp.Compile(expr)
		if err != nil {
			return nil, fmt.Errorf("compile regex pattern: %w", err)
		}

		d.pattern = pattern
	}

	return d, nil
}

// ForFeature implements Provider.
func (d *Declarative) ForFeature(f *feature.Feature) ([]timespan.TimeSpan, error) {
	switch d.cfg.Extractor {
	case "attribute_date":
		return d.attributeDate(f), nil
	case "attribute_interval":
		return d.attributeInterval(f)
	case "from_epoch":
		return d.fromEpoch(f), nil
	case "regex_from_string":
		return d.regexFromString(f), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownExtractor, d.cfg.Extractor)
	}
}

func (d *Declarative) attributeDate(f *feature.Feature) []timespan.TimeSpan {
	value := lookup(f, d.cfg.Field)
	if value == nil {
		return nil
	}

	if list, ok := value.([]any); ok && d.cfg.FanoutAsList {
		spans := make([]timespan.TimeSpan, 0, len(list))

		for _, entry := range list {
			if at, ok := d.parseValue(entry); ok {
				spans = append(spans, timespan.Instant(at))
			}
		}

		return spans
	}

	at, ok := d.parseValue(value)
	if !ok {
		return nil
	}

	return []timespan.TimeSpan{timespan.Instant(at)}
}

func (d *Declarative) attributeInterval(f *feature.Feature) ([]timespan.TimeSpan, error) {
	start, ok := d.parseValue(lookup(f, d.cfg.Field))
	if !ok {
		return nil, nil
	}

	var end time.Time

	if d.cfg.EndField != "" {
		if at, ok := d.parseValue(lookup(f, d.cfg.EndField)); ok {
			end = at
		}
	}

	if end.IsZero() && d.cfg.DefaultDays > 0 {
		end = start.AddDate(0, 0, d.cfg.DefaultDays)
	}

	if end.IsZero() {
		return []timespan.TimeSpan{timespan.Instant(start)}, nil
	}

	span, err := timespan.Interval(start, end)
	if err != nil {
		return nil, fmt.Errorf("feature %s: %w", f.ID(), err)
	}

	return []timespan.TimeSpan{span}, nil
}

func (d *Declarative) fromEpoch(f *feature.Feature) []timespan.TimeSpan {
	value := lookup(f, d.cfg.Field)
	if value == nil {
		return nil
	}

	epoch, ok := safeconv.ToFloat64(value)
	if !ok {
		s, isString := value.(string)
		if !isString {
			return nil
		}

		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil
		}

		epoch = parsed
	}

	if epoch > msEpochThreshold {
		epoch /= 1000
	}

	at := time.Unix(int64(epoch), 0).In(d.loc)

	return []timespan.TimeSpan{timespan.Instant(at)}
}

func (d *Declarative) regexFromString(f *feature.Feature) []timespan.TimeSpan {
	value, ok := lookup(f, d.cfg.Field).(string)
	if !ok {
		return nil
	}

	match := d.pattern.FindString(value)
	if match == "" {
		return nil
	}

	at, ok := d.parseValue(match)
	if !ok {
		return nil
	}

	return []timespan.TimeSpan{timespan.Instant(at)}
}

// parseValue parses a property value into a timezone-aware time.
func (d *Declarative) parseValue(value any) (time.Time, bool) {
	s, ok := value.(string)
	if !ok {
		return time.Time{}, false
	}

	if d.cfg.Format != "" && d.cfg.Format != "auto" {
		at, err := time.ParseInLocation(d.cfg.Format, s, d.loc)
		if err != nil {
			return time.Time{}, false
		}

		return at, true
	}

	for _, layout := range autoFormats {
		if at, err := time.ParseInLocation(layout, s, d.loc); err == nil {
			return at, true
		}
	}

	if at, err := time.Parse(time.RFC3339, s); err == nil {
		return at, true
	}

	return time.Time{}, false
}

// lookup resolves a dotted field path against a feature. Paths may start
// with "properties." or name a property directly.
func lookup(f *feature.Feature, path string) any {
	path = strings.TrimPrefix(path, "properties.")
	keys := strings.Split(path, ".")

	var current any = map[string]any(f.Properties)

	for _, key := range keys {
		m, ok := current.(map[string]any)
		if !ok {
			return nil
		}

		current, ok = m[key]
		if !ok {
			return nil
		}
	}

	return current
}
