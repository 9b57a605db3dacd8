package service

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"golang.org/x/sync/singleflight"

	"github.com/Lixing-Zhang/food-delivery/backend/internal/metrics"
	"github.com/Lixing-Zhang/food-delivery/backend/internal/models"
	"github.com/Lixing-Zhang/food-delivery/backend/internal/repository"
)

// ZoneService resolves delivery fees from the zone table.
//
// A city may belong to several zones with disjoint neighborhood lists, so fee lookups are
// always keyed by (city, neighborhood). If two zones define the same pair, the repository's
// stable order decides and the oldest zone wins.
type ZoneService struct {
	repo    repository.ZoneRepository
	metrics *metrics.Metrics
	group   singleflight.Group
}

// NewZoneService creates a new zone service. m may be nil.
func NewZoneService(repo repository.ZoneRepository, m *metrics.Metrics) *ZoneService {
	return &ZoneService{repo: repo, metrics: m}
}

// ResolveFee returns the fee and delivery estimate for an exact, case-sensitive (city, neighborhood) pair.
func (s *ZoneService) ResolveFee(ctx context.Context, city, neighborhood string) (models.FeeQuote, error) {
	if city == "" || neighborhood == "" {
		s.metrics.RecordFeeResolution("not_serviceable")
		return models.FeeQuote{}, fmt.Errorf("%w: city and neighborhood are required", ErrNotServiceable)
	}

	zone, err := s.repo.FindZoneByCityAndNeighborhood(ctx, city, neighborhood)
	if err != nil {
		if errors.Is(err, repository.ErrZoneNotFound) {
			s.metrics.RecordFeeResolution("not_serviceable")
			return models.FeeQuote{}, fmt.Errorf("%w: no delivery to %s, %s", ErrNotServiceable, neighborhood, city)
		}
		s.metrics.RecordFeeResolution("error")
		return models.FeeQuote{}, fmt.Errorf("find zone for %s, %s: %w", neighborhood, city, err)
	}

	s.metrics.RecordFeeResolution("resolved")
	return models.FeeQuote{
		Fee:              zone.DeliveryFee,
		EstimatedMinutes: zone.EstimatedMinutes,
		ZoneID:           zone.ID,
		ZoneName:         zone.Name,
	}, nil
}

// ListCities returns the distinct cities of all available zones, sorted.
func (s *ZoneService) ListCities(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	shared := context.WithoutCancel(ctx)
	ch := s.group.DoChan("cities", func() (interface{}, error) {
		zones, err := s.repo.ListAll(shared)
		if err != nil {
			return nil, fmt.Errorf("list zones: %w", err)
		}
		seen := make(map[string]struct{})
		for _, z := range zones {
			if !z.Available {
				continue
			}
			for _, c := range z.Cities {
				seen[c] = struct{}{}
			}
		}
		return sortedKeys(seen), nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return append([]string(nil), res.Val.([]string)...), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// ListNeighborhoods returns the distinct available neighborhoods of city across every available
// zone that contains it, sorted.
func (s *ZoneService) ListNeighborhoods(ctx context.Context, city string) ([]string, error) {
	zones, err := s.repo.FindZonesContainingCity(ctx, city)
	if err != nil {
		return nil, fmt.Errorf("find zones for %s: %w", city, err)
	}

	seen := make(map[string]struct{})
	for _, z := range zones {
		if !z.Available {
			continue
		}
		for _, n := range z.Neighborhoods {
			if n.City == city && n.Available {
				seen[n.Name] = struct{}{}
			}
		}
	}
	return sortedKeys(seen), nil
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
