// Package zoneload loads delivery zone tables from JSON files or URLs into the zone repository.
package zoneload

import (
	"bufio"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Lixing-Zhang/food-delivery/backend/internal/models"
)

// ErrInvalidZone is returned when a zone definition fails validation
var ErrInvalidZone = errors.New("invalid zone definition")

// ZoneWriter is the part of the zone repository the loader seeds
type ZoneWriter interface {
	Upsert(ctx context.Context, zone models.DeliveryZone) error
}

// Loader reads zone tables. A source is a file path or an http(s) URL; either may be
// gzip-compressed, which is detected from the content.
type Loader struct {
	client *http.Client
	logger *slog.Logger
	now    func() time.Time
}

// NewLoader creates a zone loader. client may be nil.
func NewLoader(client *http.Client, logger *slog.Logger) *Loader {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Loader{client: client, logger: logger, now: time.Now}
}

// Overlap is a (city, neighborhood) pair defined by more than one zone
type Overlap struct {
	City         string
	Neighborhood string
	ZoneIDs      []string
}

// Summary describes a completed load
type Summary struct {
	Sources       int
	Zones         int
	Neighborhoods int
	Overlaps      []Overlap
}

// sourceResult holds the result of loading a single source
type sourceResult struct {
	index int
	zones []models.DeliveryZone
	err   error
}

// Load reads every source concurrently, validates the zones and upserts them into repo.
// Nothing is written unless every source loads and validates.
func (l *Loader) Load(ctx context.Context, repo ZoneWriter, sources []string) (Summary, error) {
	zones, err := l.LoadSources(ctx, sources)
	if err != nil {
		return Summary{}, err
	}

	summary := Summary{Sources: len(sources), Zones: len(zones), Overlaps: DetectOverlaps(zones)}
	for _, z := range zones {
		summary.Neighborhoods += len(z.Neighborhoods)
	}
	for _, o := range summary.Overlaps {
		l.logger.Warn("neighborhood defined by several zones, the oldest zone wins",
			"city", o.City,
			"neighborhood", o.Neighborhood,
			"zones", strings.Join(o.ZoneIDs, ","),
		)
	}

	for _, z := range zones {
		if err := repo.Upsert(ctx, z); err != nil {
			return summary, fmt.Errorf("store zone %s: %w", z.ID, err)
		}
	}
	return summary, nil
}

// LoadSources reads and validates every source concurrently. Zones keep source order; a zone
// without a creation time gets one derived from that order, so earlier files win overlaps.
func (l *Loader) LoadSources(ctx context.Context, sources []string) ([]models.DeliveryZone, error) {
	if len(sources) == 0 {
		return nil, fmt.Errorf("no zone sources provided")
	}

	resultChan := make(chan sourceResult, len(sources))
	var wg sync.WaitGroup
	for i, src := range sources {
		wg.Add(1)
		go func(index int, source string) {
			defer wg.Done()
			zones, err := l.loadSource(ctx, source)
			resultChan <- sourceResult{index: index, zones: zones, err: err}
		}(i, src)
	}

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	// Collect results maintaining order
	results := make([]sourceResult, len(sources))
	for result := range resultChan {
		results[result.index] = result
	}

	base := l.now().UTC()
	seen := make(map[string]string)
	var zones []models.DeliveryZone
	for i, result := range results {
		if result.err != nil {
			return nil, fmt.Errorf("load zone source %s: %w", sources[i], result.err)
		}
		for _, z := range result.zones {
			if other, dup := seen[z.ID]; dup {
				return nil, fmt.Errorf("%w: zone %s defined in both %s and %s", ErrInvalidZone, z.ID, other, sources[i])
			}
			seen[z.ID] = sources[i]
			if z.CreatedAt.IsZero() {
				z.CreatedAt = base.Add(time.Duration(len(zones)) * time.Millisecond)
			}
			zones = append(zones, z)
		}
	}
	return zones, nil
}

func (l *Loader) loadSource(ctx context.Context, source string) ([]models.DeliveryZone, error) {
	rc, err := l.open(ctx, source)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	r, err := maybeGunzip(rc)
	if err != nil {
		return nil, err
	}

	zones, err := Parse(r)
	if err != nil {
		return nil, err
	}
	l.logger.Debug("zone source loaded", "source", source, "zones", len(zones))
	return zones, nil
}

func (l *Loader) open(ctx context.Context, source string) (io.ReadCloser, error) {
	if !strings.HasPrefix(source, "http://") && !strings.HasPrefix(source, "https://") {
		f, err := os.Open(source)
		if err != nil {
			return nil, fmt.Errorf("open file: %w", err)
		}
		return f, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download file: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected status code: %d", resp.StatusCode)
	}
	return resp.Body, nil
}

// maybeGunzip wraps r in a gzip reader when the stream starts with the gzip magic bytes.
func maybeGunzip(r io.Reader) (io.Reader, error) {
	br := bufio.NewReader(r)
	magic, err := br.Peek(2)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("read zone source: %w", err)
	}
	if len(magic) == 2 && magic[0] == 0x1f && magic[1] == 0x8b {
		gz, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("failed to create gzip reader: %w", err)
		}
		return gz, nil
	}
	return br, nil
}

// zoneDocument accepts either a bare array of zones or {"zones": [...]}
type zoneDocument struct {
	Zones []models.DeliveryZone `json:"zones"`
}

// Parse decodes and validates one zone table
func Parse(r io.Reader) ([]models.DeliveryZone, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("error reading file: %w", err)
	}

	var zones []models.DeliveryZone
	trimmed := strings.TrimSpace(string(raw))
	if strings.HasPrefix(trimmed, "[") {
		err = json.Unmarshal(raw, &zones)
	} else {
		var doc zoneDocument
		err = json.Unmarshal(raw, &doc)
		zones = doc.Zones
	}
	if err != nil {
		return nil, fmt.Errorf("decode zones: %w", err)
	}

	for i := range zones {
		if err := Validate(zones[i]); err != nil {
			return nil, err
		}
	}
	return zones, nil
}

// Validate checks a single zone definition
func Validate(z models.DeliveryZone) error {
	switch {
	case strings.TrimSpace(z.ID) == "":
		return fmt.Errorf("%w: zone id is required", ErrInvalidZone)
	case strings.TrimSpace(z.Name) == "":
		return fmt.Errorf("%w: zone %s: name is required", ErrInvalidZone, z.ID)
	case len(z.Cities) == 0:
		return fmt.Errorf("%w: zone %s: at least one city is required", ErrInvalidZone, z.ID)
	case z.DeliveryFee < 0:
		return fmt.Errorf("%w: zone %s: delivery fee cannot be negative", ErrInvalidZone, z.ID)
	case z.EstimatedMinutes <= 0:
		return fmt.Errorf("%w: zone %s: estimated minutes must be positive", ErrInvalidZone, z.ID)
	}

	seen := make(map[string]bool, len(z.Neighborhoods))
	for _, n := range z.Neighborhoods {
		if strings.TrimSpace(n.Name) == "" {
			return fmt.Errorf("%w: zone %s: neighborhood name is required", ErrInvalidZone, z.ID)
		}
		if !z.HasCity(n.City) {
			return fmt.Errorf("%w: zone %s: neighborhood %s belongs to %q, which is not a zone city", ErrInvalidZone, z.ID, n.Name, n.City)
		}
		key := n.City + "\x00" + n.Name
		if seen[key] {
			return fmt.Errorf("%w: zone %s: neighborhood %s, %s listed twice", ErrInvalidZone, z.ID, n.Name, n.City)
		}
		seen[key] = true
	}
	return nil
}

// DetectOverlaps lists (city, neighborhood) pairs that more than one zone defines, sorted by
// city then neighborhood. Zone ids are listed in the order the zones were given.
func DetectOverlaps(zones []models.DeliveryZone) []Overlap {
	type key struct{ city, neighborhood string }
	owners := make(map[key][]string)
	for _, z := range zones {
		for _, n := range z.Neighborhoods {
			k := key{n.City, n.Name}
			owners[k] = append(owners[k], z.ID)
		}
	}

	var overlaps []Overlap
	for k, ids := range owners {
		if len(ids) > 1 {
			overlaps = append(overlaps, Overlap{City: k.city, Neighborhood: k.neighborhood, ZoneIDs: ids})
		}
	}
	sort.Slice(overlaps, func(i, j int) bool {
		if overlaps[i].City != overlaps[j].City {
			return overlaps[i].City < overlaps[j].City
		}
		return overlaps[i].Neighborhood < overlaps[j].Neighborhood
	})
	return overlaps
}
