// Package sensor provides the water level sampler with hardware abstraction.
// The real implementation reads a sensor line through the Linux GPIO
// character device. The fake implementation allows testing without hardware.
package sensor

import (
	"context"
	"time"
)

// Sampler produces one noisy level reading per call.
type Sampler interface {
	// Sample returns a unitless reading. Higher means drier.
	Sample(ctx context.Context) (float64, error)

	// Close releases hardware resources.
	Close() error
}

// Defaults for the sensor wiring and averaging.
const (
	DefaultChip     = "gpiochip0"
	DefaultPin      = 4
	DefaultSamples  = 8
	DefaultInterval = 10 * time.Millisecond
)

// Options configures a GPIO sampler.
type Options struct {
	Chip string
	Pin  int
	// Samples is how many raw reads are averaged into one reading.
	Samples int
	// Interval is the pause between raw reads.
	Interval time.Duration
	// DryActiveLow inverts the sensor: raw 0 means dry.
	DryActiveLow bool
}

func (o Options) withDefaults() Options {
	if o.Chip == "" {
		o.Chip = DefaultChip
	}
	if o.Samples <= 0 {
		o.Samples = DefaultSamples
	}
	if o.Interval <= 0 {
		o.Interval = DefaultInterval
	}
	return o
}

// percentDry turns a count of dry raw reads into the 0-100 reading scale.
func percentDry(dry, total int) float64 {
	if total == 0 {
		return 0
	}
	return 100 * float64(dry) / float64(total)
}
