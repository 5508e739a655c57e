package neofeed

import (
	"bytes"
	"context"
	"encoding/csv"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/geocoder89/staroracle/internal/breaker"
	"github.com/geocoder89/staroracle/internal/cache"
	"github.com/geocoder89/staroracle/internal/domain/neo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testRange = neo.DateRange{Start: "2026-01-01", End: "2026-01-02"}

func loadFixture(t *testing.T) []byte {
	t.Helper()
	b, err := os.ReadFile("testdata/feed.json")
	require.NoError(t, err)
	return b
}

func newFeedServer(t *testing.T, status int, body []byte) (*httptest.Server, *int32) {
	t.Helper()

	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)

		if r.URL.Query().Get("api_key") == "bad-key" {
			w.WriteHeader(http.StatusForbidden)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write(body)
	}))
	t.Cleanup(srv.Close)

	return srv, &calls
}

func TestParse_OrderAndStats(t *testing.T) {
	feed, err := Parse(loadFixture(t), testRange)
	require.NoError(t, err)

	ids := make([]string, 0, len(feed.Asteroids))
	scores := make([]int, 0, len(feed.Asteroids))
	for _, a := range feed.Asteroids {
		ids = append(ids, a.ID)
		scores = append(scores, a.RiskScore)
	}

	// ties keep document order: 3000003 appears before 3000001 in the body
	assert.Equal(t, []string{"3000002", "3000003", "3000001", "3000004"}, ids)
	assert.Equal(t, []int{100, 10, 10, 5}, scores)

	assert.Equal(t, 4, feed.Stats.TotalCount)
	assert.Equal(t, 1, feed.Stats.HazardousCount)

	require.NotNil(t, feed.Stats.Closest)
	assert.Equal(t, "3000002", feed.Stats.Closest.ID)
	require.NotNil(t, feed.Stats.Fastest)
	assert.Equal(t, "3000002", feed.Stats.Fastest.ID)
	require.NotNil(t, feed.Stats.Largest)
	assert.InDelta(t, 1.2, feed.Stats.Largest.DiameterKm, 1e-9)

	assert.Nil(t, feed.Asteroids[3].CloseApproach)
	assert.Equal(t, testRange, feed.DateRange)
}

func TestParse_InvalidBody(t *testing.T) {
	_, err := Parse([]byte("<html>nope</html>"), testRange)
	assert.ErrorIs(t, err, ErrUpstream)

	_, err = Parse([]byte(`[1,2,3]`), testRange)
	assert.ErrorIs(t, err, ErrUpstream)
}

func TestClient_FeedUsesCache(t *testing.T) {
	srv, calls := newFeedServer(t, http.StatusOK, loadFixture(t))

	c := New(Config{BaseURL: srv.URL, APIKey: "k", CacheTTL: time.Minute}, cache.NewMemory(time.Minute), nil, nil)

	first, err := c.Feed(context.Background(), testRange)
	require.NoError(t, err)

	second, err := c.Feed(context.Background(), testRange)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.EqualValues(t, 1, atomic.LoadInt32(calls))
}

func TestClient_FeedUpstreamFailures(t *testing.T) {
	cases := []struct {
		name   string
		status int
		body   []byte
	}{
		{name: "non-200", status: http.StatusInternalServerError, body: []byte(`{}`)},
		{name: "unparseable", status: http.StatusOK, body: []byte(`not json`)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			srv, _ := newFeedServer(t, tc.status, tc.body)
			mem := cache.NewMemory(time.Minute)
			c := New(Config{BaseURL: srv.URL, APIKey: "k"}, mem, nil, nil)

			_, err := c.Feed(context.Background(), testRange)
			assert.ErrorIs(t, err, ErrUpstream)

			_, cached, _ := mem.Get(context.Background(), CacheKey(testRange))
			assert.False(t, cached)
		})
	}
}

func TestClient_FeedStopsCallingFailingUpstream(t *testing.T) {
	srv, calls := newFeedServer(t, http.StatusBadGateway, []byte(`{}`))
	c := New(Config{
		BaseURL: srv.URL,
		APIKey:  "k",
		Breaker: breaker.Config{FailureThreshold: 2, Cooldown: time.Hour},
	}, nil, nil, nil)

	for i := 0; i < 4; i++ {
		_, err := c.Feed(context.Background(), testRange)
		assert.ErrorIs(t, err, ErrUpstream)
	}

	assert.Equal(t, int32(2), atomic.LoadInt32(calls))
}

func TestClient_FeedNetworkFailure(t *testing.T) {
	srv, _ := newFeedServer(t, http.StatusOK, loadFixture(t))
	srv.Close()

	c := New(Config{BaseURL: srv.URL, APIKey: "k"}, nil, nil, nil)

	_, err := c.Feed(context.Background(), testRange)
	assert.ErrorIs(t, err, ErrUpstream)
}

func TestClient_ValidateKey(t *testing.T) {
	srv, _ := newFeedServer(t, http.StatusOK, loadFixture(t))
	c := New(Config{BaseURL: srv.URL, APIKey: "k"}, nil, nil, nil)

	ok, err := c.ValidateKey(context.Background(), "good-key")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.ValidateKey(context.Background(), "bad-key")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRows_RoundingAndMissingApproach(t *testing.T) {
	rows, err := Rows(loadFixture(t))
	require.NoError(t, err)
	require.Len(t, rows, 4)

	// document order, unsorted
	assert.Equal(t, "3000003", rows[0].ID)

	bb := rows[3]
	assert.Equal(t, "3000002", bb.ID)
	assert.Equal(t, "Yes", bb.IsHazardous)
	require.NotNil(t, bb.VelocityKmh)
	assert.Equal(t, 120000.12, *bb.VelocityKmh)
	assert.Equal(t, 33.3334, *bb.VelocityKms)
	assert.Equal(t, 500000.99, *bb.MissDistanceKm)
	assert.Equal(t, 1.3008, *bb.MissDistanceLunar)
	assert.Equal(t, 0.00334231, *bb.MissDistanceAU)

	dd := rows[1]
	assert.Equal(t, "No", dd.IsHazardous)
	assert.Nil(t, dd.VelocityKmh)
	assert.Nil(t, dd.MissDistanceKm)
	assert.Empty(t, dd.CloseApproachDate)
}

func TestWriteCSV(t *testing.T) {
	rows, err := Rows(loadFixture(t))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, rows))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 5)

	assert.Equal(t, csvHeader, records[0])
	assert.Equal(t, "(2026 DD)", records[2][1])
	assert.Equal(t, "", records[2][6])
	assert.Equal(t, "120000.12", records[4][6])

	assert.Equal(t, "asteroid_data_2026-01-01_2026-01-02.csv", CSVFilename("2026-01-01", "2026-01-02"))
}

func TestDateRangeFrom(t *testing.T) {
	now := time.Date(2026, 3, 4, 23, 0, 0, 0, time.UTC)

	got, err := DateRangeFrom("", "", now)
	require.NoError(t, err)
	assert.Equal(t, neo.DateRange{Start: "2026-03-04", End: "2026-03-04"}, got)

	for _, bad := range []string{"2026/01/01", "26-01-01", "2026-13-01", "2026-01-01x"} {
		_, err := DateRangeFrom(bad, "2026-01-01", now)
		assert.ErrorIs(t, err, ErrInvalidDate, bad)
	}
}
