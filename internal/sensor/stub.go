//go:build !linux

package sensor

import (
	"context"
	"errors"
)

// GPIOSampler is not available on non-Linux platforms.
type GPIOSampler struct{}

// NewGPIOSampler returns an error on non-Linux platforms.
func NewGPIOSampler(opts Options) (*GPIOSampler, error) {
	return nil, errors.New("sensor: gpio not supported on this platform (requires Linux)")
}

// Sample is not implemented on non-Linux platforms.
func (s *GPIOSampler) Sample(ctx context.Context) (float64, error) {
	return 0, errors.New("sensor: gpio not supported")
}

// Close is not implemented on non-Linux platforms.
func (s *GPIOSampler) Close() error {
	return nil
}

// GPIOIndicator is not available on non-Linux platforms.
type GPIOIndicator struct{}

// NewGPIOIndicator returns an error on non-Linux platforms.
func NewGPIOIndicator(opts IndicatorOptions) (*GPIOIndicator, error) {
	return nil, errors.New("sensor: gpio not supported on this platform (requires Linux)")
}

// Set is not implemented on non-Linux platforms.
func (i *GPIOIndicator) Set(on bool) error {
	return errors.New("sensor: gpio not supported")
}

// Close is not implemented on non-Linux platforms.
func (i *GPIOIndicator) Close() error {
	return nil
}
