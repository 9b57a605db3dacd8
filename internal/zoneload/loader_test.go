package zoneload

import (
	"bytes"
	"compress/gzip"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lixing-Zhang/food-delivery/backend/internal/repository"
)

const centreZones = `[
  {
    "id": "centre",
    "name": "Centre",
    "cities": ["Douala"],
    "neighborhoods": [
      {"name": "Akwa", "city": "Douala", "available": true},
      {"name": "Deido", "city": "Douala", "available": true}
    ],
    "deliveryFee": 500,
    "estimatedMinutes": 30,
    "available": true
  }
]`

const plateauZones = `{
  "zones": [
    {
      "id": "plateau",
      "name": "Plateau",
      "cities": ["Douala"],
      "neighborhoods": [
        {"name": "Bonanjo", "city": "Douala", "available": true},
        {"name": "Akwa", "city": "Douala", "available": true}
      ],
      "deliveryFee": 1000,
      "estimatedMinutes": 45,
      "available": true
    }
  ]
}`

func testLoader() *Loader {
	return NewLoader(nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// setupTestFiles writes the zone tables to a temp dir, the second one gzipped
func setupTestFiles(t *testing.T) (string, string) {
	t.Helper()

	dir := t.TempDir()
	plain := filepath.Join(dir, "centre.json")
	require.NoError(t, os.WriteFile(plain, []byte(centreZones), 0644))

	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	_, err := gz.Write([]byte(plateauZones))
	require.NoError(t, err)
	require.NoError(t, gz.Close())

	compressed := filepath.Join(dir, "plateau.json.gz")
	require.NoError(t, os.WriteFile(compressed, buf.Bytes(), 0644))
	return plain, compressed
}

func TestLoader_Load(t *testing.T) {
	plain, compressed := setupTestFiles(t)
	repo := repository.NewInMemoryZoneRepository()

	summary, err := testLoader().Load(context.Background(), repo, []string{plain, compressed})
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Sources)
	assert.Equal(t, 2, summary.Zones)
	assert.Equal(t, 4, summary.Neighborhoods)
	require.Len(t, summary.Overlaps, 1)
	assert.Equal(t, Overlap{City: "Douala", Neighborhood: "Akwa", ZoneIDs: []string{"centre", "plateau"}}, summary.Overlaps[0])

	zone, err := repo.FindZoneByCityAndNeighborhood(context.Background(), "Douala", "Akwa")
	require.NoError(t, err)
	assert.Equal(t, "centre", zone.ID, "earlier source should win the overlap")

	zone, err = repo.FindZoneByCityAndNeighborhood(context.Background(), "Douala", "Bonanjo")
	require.NoError(t, err)
	assert.Equal(t, int64(1000), zone.DeliveryFee)
}

func TestLoader_LoadSources_KeepsSourceOrder(t *testing.T) {
	plain, compressed := setupTestFiles(t)

	zones, err := testLoader().LoadSources(context.Background(), []string{compressed, plain})
	require.NoError(t, err)
	require.Len(t, zones, 2)
	assert.Equal(t, "plateau", zones[0].ID)
	assert.Equal(t, "centre", zones[1].ID)
	assert.True(t, zones[0].CreatedAt.Before(zones[1].CreatedAt))
}

func TestLoader_LoadSources_FromURL(t *testing.T) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	_, err := gz.Write([]byte(plateauZones))
	require.NoError(t, err)
	require.NoError(t, gz.Close())

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/centre.json":
			w.Write([]byte(centreZones))
		case "/plateau.json.gz":
			w.Write(buf.Bytes())
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	loader := NewLoader(server.Client(), slog.New(slog.NewTextHandler(io.Discard, nil)))

	t.Run("plain and gzipped", func(t *testing.T) {
		zones, err := loader.LoadSources(context.Background(), []string{
			server.URL + "/centre.json",
			server.URL + "/plateau.json.gz",
		})
		require.NoError(t, err)
		assert.Len(t, zones, 2)
	})

	t.Run("missing document", func(t *testing.T) {
		_, err := loader.LoadSources(context.Background(), []string{server.URL + "/missing.json"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unexpected status code: 404")
	})
}

func TestLoader_LoadSources_Errors(t *testing.T) {
	plain, _ := setupTestFiles(t)

	t.Run("no sources", func(t *testing.T) {
		_, err := testLoader().LoadSources(context.Background(), nil)
		require.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := testLoader().LoadSources(context.Background(), []string{filepath.Join(t.TempDir(), "nope.json")})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "open file")
	})

	t.Run("same zone in two sources", func(t *testing.T) {
		_, err := testLoader().LoadSources(context.Background(), []string{plain, plain})
		require.ErrorIs(t, err, ErrInvalidZone)
	})

	t.Run("nothing stored when a source fails", func(t *testing.T) {
		repo := repository.NewInMemoryZoneRepository()
		_, err := testLoader().Load(context.Background(), repo, []string{plain, "/does/not/exist.json"})
		require.Error(t, err)

		zones, err := repo.ListAll(context.Background())
		require.NoError(t, err)
		assert.Empty(t, zones)
	})
}

func TestParse_Validation(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr string
	}{
		{"missing id", `[{"name":"A","cities":["X"],"estimatedMinutes":10}]`, "zone id is required"},
		{"missing name", `[{"id":"a","cities":["X"],"estimatedMinutes":10}]`, "name is required"},
		{"no cities", `[{"id":"a","name":"A","estimatedMinutes":10}]`, "at least one city"},
		{"negative fee", `[{"id":"a","name":"A","cities":["X"],"deliveryFee":-1,"estimatedMinutes":10}]`, "negative"},
		{"no estimate", `[{"id":"a","name":"A","cities":["X"]}]`, "estimated minutes"},
		{
			"neighborhood outside zone cities",
			`[{"id":"a","name":"A","cities":["X"],"estimatedMinutes":10,"neighborhoods":[{"name":"N","city":"Y"}]}]`,
			"not a zone city",
		},
		{
			"neighborhood listed twice",
			`[{"id":"a","name":"A","cities":["X"],"estimatedMinutes":10,"neighborhoods":[{"name":"N","city":"X"},{"name":"N","city":"X"}]}]`,
			"listed twice",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(bytes.NewBufferString(tt.doc))
			require.ErrorIs(t, err, ErrInvalidZone)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	t.Run("malformed json", func(t *testing.T) {
		_, err := Parse(bytes.NewBufferString(`[{"id":`))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "decode zones")
	})
}

func TestDetectOverlaps_SeedTable(t *testing.T) {
	assert.Empty(t, DetectOverlaps(repository.SeedZones()))
}
