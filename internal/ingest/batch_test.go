package ingest

import (
	"context"
	"errors"
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LJTian/FeedHub/internal/feed"
)

func TestIngestAll(t *testing.T) {
	store := newFakeStore()
	in := newTestIngestor(store)

	second := sampleItem()
	second.Link = lo.ToPtr("http://x/2")
	items := []feed.Item{sampleItem(), sampleItem(), {}, second}

	sum, err := in.IngestAll(context.Background(), items, "http://feed")
	require.NoError(t, err)
	assert.Equal(t, Summary{OutcomeCreated: 2, OutcomeExisting: 1, OutcomeInvalid: 1}, sum)
	assert.Equal(t, 4, sum.Total())
}

func TestIngestAllStopsOnStoreFault(t *testing.T) {
	store := newFakeStore()
	in := newTestIngestor(store)

	sum, err := in.IngestAll(context.Background(), []feed.Item{{}, sampleItem()}, "http://feed")
	require.NoError(t, err)
	assert.Equal(t, 2, sum.Total())

	store.findErr = errors.New("db down")
	sum, err = in.IngestAll(context.Background(), []feed.Item{{}, sampleItem(), sampleItem()}, "http://feed")
	assert.ErrorContains(t, err, "db down")
	assert.Equal(t, Summary{OutcomeInvalid: 1}, sum)
}

func TestIngestAllHonoursCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sum, err := newTestIngestor(newFakeStore()).IngestAll(ctx, []feed.Item{sampleItem()}, "http://feed")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, sum.Total())
}
