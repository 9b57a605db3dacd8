package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Lixing-Zhang/food-delivery/backend/internal/models"
)

// ZoneRepository defines data access for delivery zones.
// Listings are returned in a stable order: oldest zone first, ties broken by id.
type ZoneRepository interface {
	ListAll(ctx context.Context) ([]models.DeliveryZone, error)
	FindZonesContainingCity(ctx context.Context, city string) ([]models.DeliveryZone, error)
	FindZoneByCityAndNeighborhood(ctx context.Context, city, neighborhood string) (*models.DeliveryZone, error)
	Upsert(ctx context.Context, zone models.DeliveryZone) error
}

// InMemoryZoneRepository implements ZoneRepository with in-memory storage
type InMemoryZoneRepository struct {
	mu    sync.RWMutex
	zones map[string]models.DeliveryZone
}

// NewInMemoryZoneRepository creates an empty zone repository
func NewInMemoryZoneRepository() *InMemoryZoneRepository {
	return &InMemoryZoneRepository{zones: make(map[string]models.DeliveryZone)}
}

// Upsert inserts or replaces a zone by id. The original creation time is kept on replace.
func (r *InMemoryZoneRepository) Upsert(ctx context.Context, zone models.DeliveryZone) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.zones[zone.ID]; ok {
		zone.CreatedAt = existing.CreatedAt
	} else if zone.CreatedAt.IsZero() {
		zone.CreatedAt = time.Now().UTC()
	}
	r.zones[zone.ID] = cloneZone(zone)
	return nil
}

// ListAll returns every zone, available or not
func (r *InMemoryZoneRepository) ListAll(ctx context.Context) ([]models.DeliveryZone, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	zones := make([]models.DeliveryZone, 0, len(r.zones))
	for _, z := range r.zones {
		zones = append(zones, cloneZone(z))
	}
	sortZones(zones)
	return zones, nil
}

// FindZonesContainingCity returns every zone whose city set contains city
func (r *InMemoryZoneRepository) FindZonesContainingCity(ctx context.Context, city string) ([]models.DeliveryZone, error) {
	all, err := r.ListAll(ctx)
	if err != nil {
		return nil, err
	}
	zones := make([]models.DeliveryZone, 0, len(all))
	for _, z := range all {
		if z.HasCity(city) {
			zones = append(zones, z)
		}
	}
	return zones, nil
}

// FindZoneByCityAndNeighborhood returns the first available zone serving the exact pair
func (r *InMemoryZoneRepository) FindZoneByCityAndNeighborhood(ctx context.Context, city, neighborhood string) (*models.DeliveryZone, error) {
	zones, err := r.FindZonesContainingCity(ctx, city)
	if err != nil {
		return nil, err
	}
	for _, z := range zones {
		if z.Serves(city, neighborhood) {
			return &z, nil
		}
	}
	return nil, ErrZoneNotFound
}

func sortZones(zones []models.DeliveryZone) {
	sort.SliceStable(zones, func(i, j int) bool {
		if !zones[i].CreatedAt.Equal(zones[j].CreatedAt) {
			return zones[i].CreatedAt.Before(zones[j].CreatedAt)
		}
		return zones[i].ID < zones[j].ID
	})
}

func cloneZone(z models.DeliveryZone) models.DeliveryZone {
	z.Cities = append([]string(nil), z.Cities...)
	z.Neighborhoods = append([]models.Neighborhood(nil), z.Neighborhoods...)
	return z
}

// SeedZones returns the development zone table. Douala is split across two zones on purpose.
func SeedZones() []models.DeliveryZone {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return []models.DeliveryZone{
		{
			ID:     "douala-centre",
			Name:   "Douala Centre",
			Cities: []string{"Douala"},
			Neighborhoods: []models.Neighborhood{
				{Name: "Akwa", City: "Douala", Available: true},
				{Name: "Deido", City: "Douala", Available: true},
				{Name: "New Bell", City: "Douala", Available: false},
			},
			DeliveryFee:      500,
			EstimatedMinutes: 30,
			Available:        true,
			CreatedAt:        base,
		},
		{
			ID:     "douala-plateau",
			Name:   "Douala Plateau",
			Cities: []string{"Douala"},
			Neighborhoods: []models.Neighborhood{
				{Name: "Bonanjo", City: "Douala", Available: true},
				{Name: "Bonapriso", City: "Douala", Available: true},
			},
			DeliveryFee:      1000,
			EstimatedMinutes: 45,
			Available:        true,
			CreatedAt:        base.Add(time.Minute),
		},
		{
			ID:     "yaounde",
			Name:   "Yaoundé",
			Cities: []string{"Yaoundé"},
			Neighborhoods: []models.Neighborhood{
				{Name: "Bastos", City: "Yaoundé", Available: true},
				{Name: "Mvog-Mbi", City: "Yaoundé", Available: true},
			},
			DeliveryFee:      800,
			EstimatedMinutes: 40,
			Available:        true,
			CreatedAt:        base.Add(2 * time.Minute),
		},
		{
			ID:     "limbe",
			Name:   "Limbe",
			Cities: []string{"Limbe"},
			Neighborhoods: []models.Neighborhood{
				{Name: "Down Beach", City: "Limbe", Available: true},
			},
			DeliveryFee:      1500,
			EstimatedMinutes: 60,
			Available:        false,
			CreatedAt:        base.Add(3 * time.Minute),
		},
	}
}
