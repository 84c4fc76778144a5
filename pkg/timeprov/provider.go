// Package timeprov extracts analysis time periods from features. A
// Provider is resolved once at pipeline start from the time section of
// the configuration and is the only time source the plan builder sees.
package timeprov

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Sumatoshi-tech/geoexhibit/pkg/feature"
	"github.com/Sumatoshi-tech/geoexhibit/pkg/timespan"
)

// Resolution errors.
var (
	ErrUnknownMode      = errors.New("unknown time provider mode")
	ErrUnknownExtractor = errors.New("unknown declarative extractor")
	ErrUnknownProvider  = errors.New("unknown named time provider")
	ErrBadConstantSpec  = errors.New("invalid constant time specification")
	ErrMissingField     = errors.New("declarative extractor requires a field")
)

// Provider yields the ordered, finite set of time periods to analyze for
// one feature. An empty result means the feature has nothing to analyze;
// an error marks the feature as skipped.
type Provider interface {
	ForFeature(f *feature.Feature) ([]timespan.TimeSpan, error)
}

// Config is the tagged variant describing how time periods are derived:
// declarative field extraction or a named provider from the registry.
type Config struct {
	Mode      string // "declarative" or "callable"
	Extractor string // declarative: attribute_date, attribute_interval, from_epoch, regex_from_string
	Field     string
	Format    string // layout or "auto"
	TZ        string

	// attribute_interval settings.
	EndField    string
	DefaultDays int

	// attribute_date fanout.
	FanoutAsList bool

	// regex_from_string settings.
	Pattern string

	// callable mode: "constant:<date>" or a name registered in Registry.
	Provider string
}

// Registry maps provider names to constructors for callable mode. It is
// populated explicitly by the composition root.
type Registry map[string]func() (Provider, error)

// Resolve turns the tagged config into a single Provider. Called exactly
// once per run, before any feature is touched.
func Resolve(cfg Config, registry Registry) (Provider, error) {
	switch cfg.Mode {
	case "declarative":
		return newDeclarative(cfg)
	case "callable":
		return resolveCallable(cfg.Provider, registry)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownMode, cfg.Mode)
	}
}

func resolveCallable(spec string, registry Registry) (Provider, error) {
	if after, ok := strings.CutPrefix(spec, "constant:"); ok {
		at, err := parseConstant(after)
		if err != nil {
			return nil, err
		}

		return Constant{At: at}, nil
	}

	ctor, ok := registry[spec]
	if !ok {
		known := make([]string, 0, len(registry))
		for name := range registry {
			known = append(known, name)
		}

		sort.Strings(known)

		return nil, fmt.Errorf("%w: %q (registered: %s)", ErrUnknownProvider, spec, strings.Join(known, ", "))
	}

	return ctor()
}

func parseConstant(value string) (time.Time, error) {
	if strings.Contains(value, "T") {
		at, err := time.Parse(time.RFC3339, value)
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: %q: %v", ErrBadConstantSpec, value, err)
		}

		return at, nil
	}

	at, err := time.Parse("2006-01-02", value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q: %v", ErrBadConstantSpec, value, err)
	}

	return at.UTC(), nil
}

// Constant returns the same single instant for every feature. Useful for
// demos and snapshot-style collections.
type Constant struct {
	At time.Time
}

// ForFeature implements Provider.
func (c Constant) ForFeature(_ *feature.Feature) ([]timespan.TimeSpan, error) {
	return []timespan.TimeSpan{timespan.Instant(c.At)}, nil
}
