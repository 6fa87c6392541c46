//go:build linux

package sensor

import (
	"context"
	"fmt"
	"time"

	"github.com/warthog618/go-gpiocdev"
	"go.uber.org/zap"

	"github.com/sweeney/bowl-monitor/internal/logging"
)

// GPIOSampler reads a water sensor from actual hardware using the Linux GPIO
// character device.
type GPIOSampler struct {
	chip *gpiocdev.Chip
	line *gpiocdev.Line
	opts Options
}

// NewGPIOSampler requests the sensor line as an input.
func NewGPIOSampler(opts Options) (*GPIOSampler, error) {
	opts = opts.withDefaults()

	chip, err := gpiocdev.NewChip(opts.Chip)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip %s: %w", opts.Chip, err)
	}

	// Pull-down so a floating sensor reads wet rather than dry.
	line, err := chip.RequestLine(opts.Pin, gpiocdev.AsInput, gpiocdev.WithPullDown)
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request sensor pin %d: %w", opts.Pin, err)
	}

	logging.Named(logging.NameSensor).Debug("sensor line ready",
		zap.String("chip", opts.Chip), zap.Int("pin", opts.Pin), zap.Int("samples", opts.Samples))

	return &GPIOSampler{chip: chip, line: line, opts: opts}, nil
}

// Sample averages opts.Samples raw reads into the percentage of reads that
// saw the sensor dry.
func (s *GPIOSampler) Sample(ctx context.Context) (float64, error) {
	dryRaw := 1
	if s.opts.DryActiveLow {
		dryRaw = 0
	}

	dry := 0
	for i := 0; i < s.opts.Samples; i++ {
		v, err := s.line.Value()
		if err != nil {
			return 0, fmt.Errorf("read sensor pin: %w", err)
		}
		if v == dryRaw {
			dry++
		}
		if i == s.opts.Samples-1 {
			break
		}
		t := time.NewTimer(s.opts.Interval)
		select {
		case <-ctx.Done():
			t.Stop()
			return 0, ctx.Err()
		case <-t.C:
		}
	}
	return percentDry(dry, s.opts.Samples), nil
}

// Close reconfigures the line to its boot default and releases it.
func (s *GPIOSampler) Close() error {
	var errs []error
	if s.line != nil {
		if err := s.line.Reconfigure(gpiocdev.AsInput, gpiocdev.WithPullDown); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure sensor pin: %w", err))
		}
		if err := s.line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close sensor pin: %w", err))
		}
	}
	if s.chip != nil {
		if err := s.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}

// GPIOIndicator drives an LED on an output line.
type GPIOIndicator struct {
	chip *gpiocdev.Chip
	line *gpiocdev.Line
	opts IndicatorOptions
}

// NewGPIOIndicator requests the LED line as an output, initially off.
func NewGPIOIndicator(opts IndicatorOptions) (*GPIOIndicator, error) {
	if opts.Chip == "" {
		opts.Chip = DefaultChip
	}

	chip, err := gpiocdev.NewChip(opts.Chip)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip %s: %w", opts.Chip, err)
	}

	line, err := chip.RequestLine(opts.Pin, gpiocdev.AsOutput(opts.level(false)))
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request led pin %d: %w", opts.Pin, err)
	}

	return &GPIOIndicator{chip: chip, line: line, opts: opts}, nil
}

// Set lights or clears the LED.
func (i *GPIOIndicator) Set(on bool) error {
	if err := i.line.SetValue(i.opts.level(on)); err != nil {
		return fmt.Errorf("set led pin %d: %w", i.opts.Pin, err)
	}
	return nil
}

// Close turns the LED off and releases the line.
func (i *GPIOIndicator) Close() error {
	var errs []error
	if i.line != nil {
		if err := i.line.SetValue(i.opts.level(false)); err != nil {
			errs = append(errs, fmt.Errorf("clear led pin: %w", err))
		}
		if err := i.line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close led pin: %w", err))
		}
	}
	if i.chip != nil {
		if err := i.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
