package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/bits-and-blooms/bloom/v3"
)

// suffixSpace is 36^4, the range of a four character base36 suffix.
const suffixSpace = 1679616

// maxProbes bounds how many sequence numbers Next skips past while the filter reports a clash.
const maxProbes = 16

// OrderCounter reports how many orders exist. The order store satisfies it.
type OrderCounter interface {
	Count(ctx context.Context) (int64, error)
}

// OrderNumberGenerator builds human readable order numbers of the form ORD-000042-K3F9:
// the next order count followed by a base36 suffix derived from the creation time.
//
// Issued numbers are remembered in a bloom filter so a probable clash is skipped before the
// store sees it. The filter has no false negatives, so a number it has never seen was never
// issued by this process; the store's unique constraint remains the final word.
type OrderNumberGenerator struct {
	counter OrderCounter

	mu     sync.Mutex
	filter *bloom.BloomFilter
}

// NewOrderNumberGenerator sizes the filter for expected numbers at a 0.1% false positive rate.
func NewOrderNumberGenerator(counter OrderCounter, expected uint) *OrderNumberGenerator {
	if expected == 0 {
		expected = 10000
	}
	return &OrderNumberGenerator{
		counter: counter,
		filter:  bloom.NewWithEstimates(expected, 0.001),
	}
}

// Seed records numbers already present in the store.
func (g *OrderNumberGenerator) Seed(numbers ...string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	for _, n := range numbers {
		g.filter.AddString(n)
	}
}

// Next returns a fresh order number. attempt is the retry index after a store-level clash and
// moves the sequence forward so a retry never regenerates the number that just failed.
func (g *OrderNumberGenerator) Next(ctx context.Context, now time.Time, attempt int) (string, error) {
	count, err := g.counter.Count(ctx)
	if err != nil {
		return "", fmt.Errorf("count orders: %w", err)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	seq := count + 1 + int64(attempt)
	candidate := FormatOrderNumber(seq, now)
	for probe := 0; probe < maxProbes && g.filter.TestString(candidate); probe++ {
		seq++
		candidate = FormatOrderNumber(seq, now)
	}
	g.filter.AddString(candidate)
	return candidate, nil
}

// FormatOrderNumber renders seq and the time-derived suffix.
func FormatOrderNumber(seq int64, at time.Time) string {
	suffix := strings.ToUpper(strconv.FormatInt(at.UnixMilli()%suffixSpace, 36))
	if len(suffix) < 4 {
		suffix = strings.Repeat("0", 4-len(suffix)) + suffix
	}
	return fmt.Sprintf("ORD-%06d-%s", seq, suffix)
}
