// panorama/panorama.go
package panorama

import (
	"context"

	"github.com/wfunc/georoom/geo"
	"github.com/wfunc/georoom/logger"
)

// Service is the opaque street-level imagery collaborator: given a candidate
// coordinate, report whether usable imagery exists nearby and return the
// canonical coordinate of the closest panorama.
type Service interface {
	NearestPanorama(ctx context.Context, candidate geo.LatLng) (geo.LatLng, bool, error)
}

// DefaultMaxAttempts bounds how many random candidates are tried before
// giving up and falling back.
const DefaultMaxAttempts = 50

// Finder samples random coordinates until the imagery service confirms one.
// When the attempt budget is exhausted, the round proceeds with the last
// sampled candidate rather than failing outright.
type Finder struct {
	service     Service
	maxAttempts int
	sample      func() geo.LatLng
}

func NewFinder(service Service) *Finder {
	return &Finder{
		service:     service,
		maxAttempts: DefaultMaxAttempts,
		sample:      geo.RandomLatLng,
	}
}

// FindUsableLocation returns a coordinate with confirmed imagery, or the last
// sampled candidate after maxAttempts. Provider errors count as a failed
// attempt and move on to the next candidate.
func (f *Finder) FindUsableLocation(ctx context.Context) (geo.LatLng, error) {
	var last geo.LatLng
	for i := 0; i < f.maxAttempts; i++ {
		if err := ctx.Err(); err != nil {
			return last, err
		}

		candidate := f.sample()
		last = candidate

		canonical, ok, err := f.service.NearestPanorama(ctx, candidate)
		if err != nil {
			logger.Log.Warnf("Panorama lookup failed on attempt %d: %v", i+1, err)
			continue
		}
		if ok {
			return canonical, nil
		}
	}
	logger.Log.Warnf("No confirmed panorama after %d attempts, using last candidate", f.maxAttempts)
	return last, nil
}

// AcceptAll confirms every candidate as-is. It stands in for a real imagery
// provider in local play and tests.
type AcceptAll struct{}

func (AcceptAll) NearestPanorama(ctx context.Context, candidate geo.LatLng) (geo.LatLng, bool, error) {
	return candidate, true, nil
}
