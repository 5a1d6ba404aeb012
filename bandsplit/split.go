package bandsplit

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"golang.org/x/sync/errgroup"
)

// Band is a passband in Hz.
type Band struct {
	LowHz  float64
	HighHz float64
}

// BandSet maps band names to passbands.
type BandSet map[string]Band

// DefaultBands returns bass, mid and treble covering 20 Hz to 20 kHz.
func DefaultBands() BandSet {
	return BandSet{
		"bass":   {LowHz: 20, HighHz: 250},
		"mid":    {LowHz: 250, HighHz: 4000},
		"treble": {LowHz: 4000, HighHz: 20000},
	}
}

// Names returns the band names sorted alphabetically.
func (b BandSet) Names() []string {
	return slices.Sorted(maps.Keys(b))
}

// Filters designs one filter per band. Any invalid band fails the whole set.
func (b BandSet) Filters(sampleRate, order int) (map[string]*Filter, error) {
	filters := make(map[string]*Filter, len(b))
	for _, name := range b.Names() {
		band := b[name]
		f, err := DesignFilter(band.LowHz, band.HighHz, sampleRate, order)
		if err != nil {
			return nil, fmt.Errorf("band %q: %w", name, err)
		}
		filters[name] = f
	}
	return filters, nil
}

// Split filters sig through every band concurrently. All filters are designed
// before any filtering starts, so a bad band never leaves partial work.
func Split(ctx context.Context, sig Signal, bands BandSet, order int) (map[string]Signal, error) {
	filters, err := bands.Filters(sig.SampleRate, order)
	if err != nil {
		return nil, err
	}

	names := bands.Names()
	results := make([]Signal, len(names))

	g, gctx := errgroup.WithContext(ctx)
	for i, name := range names {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			out, err := ApplyZeroPhase(filters[name], sig)
			if err != nil {
				return fmt.Errorf("band %q: %w", name, err)
			}
			results[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	split := make(map[string]Signal, len(names))
	for i, name := range names {
		split[name] = results[i]
	}
	return split, nil
}
