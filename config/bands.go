package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/d1nch8g/ringcap/apperr"
	"github.com/d1nch8g/ringcap/bandsplit"
)

// ParseBands reads "name=low:high" entries separated by commas, for example
// "bass=20:250,mid=250:4000". Only the ordering of the edges is checked here;
// the Nyquist limit depends on the signal and is checked at design time.
func ParseBands(s string) (bandsplit.BandSet, error) {
	bands := bandsplit.BandSet{}
	for _, entry := range strings.Split(s, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}

		name, edges, ok := strings.Cut(entry, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			return nil, fmt.Errorf("%w: malformed band %q", apperr.ErrConfiguration, entry)
		}
		lowStr, highStr, ok := strings.Cut(edges, ":")
		if !ok {
			return nil, fmt.Errorf("%w: band %q: expected low:high", apperr.ErrConfiguration, name)
		}
		low, err := strconv.ParseFloat(strings.TrimSpace(lowStr), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: band %q: %w", apperr.ErrConfiguration, name, err)
		}
		high, err := strconv.ParseFloat(strings.TrimSpace(highStr), 64)
		if err != nil {
			return nil, fmt.Errorf("%w: band %q: %w", apperr.ErrConfiguration, name, err)
		}
		if !(low > 0) || low >= high {
			return nil, fmt.Errorf("%w: %w: band %q %v:%v",
				apperr.ErrConfiguration, bandsplit.ErrInvalidRange, name, low, high)
		}
		if _, dup := bands[name]; dup {
			return nil, fmt.Errorf("%w: duplicate band %q", apperr.ErrConfiguration, name)
		}
		bands[name] = bandsplit.Band{LowHz: low, HighHz: high}
	}

	if len(bands) == 0 {
		return nil, fmt.Errorf("%w: no bands configured", apperr.ErrConfiguration)
	}
	return bands, nil
}
