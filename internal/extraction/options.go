package extraction

import "github.com/saaga0h/atdesk-features/pkg/config"

// Site is the location used for the daylight feature
type Site struct {
	Latitude  float64
	Longitude float64
}

// Options controls windowing and the shape of the feature vector
type Options struct {
	// Freq is the resampled sampling frequency in Hz
	Freq float64

	// WinLen and OverlapLen are in samples
	WinLen     int
	OverlapLen int

	NumActivityTypes int

	// Site enables the is_daylight column when non-nil
	Site *Site
}

// OptionsFromConfig derives extraction options from the service configuration
func OptionsFromConfig(cfg *config.Config) Options {
	winLen, overlapLen := cfg.WindowSamples()
	opts := Options{
		Freq:             cfg.InterpFreq,
		WinLen:           winLen,
		OverlapLen:       overlapLen,
		NumActivityTypes: cfg.NumActivityTypes,
	}
	if cfg.EnableDaylightFeature {
		opts.Site = &Site{Latitude: cfg.SiteLatitude, Longitude: cfg.SiteLongitude}
	}
	return opts
}

func (o Options) dt() float64 {
	if o.Freq <= 0 {
		return 1
	}
	return 1 / o.Freq
}
