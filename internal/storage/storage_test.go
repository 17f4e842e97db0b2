package storage

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(DriverSQLite, filepath.Join(t.TempDir(), "test.db"), "")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestNewStoreRejectsUnknownDriver(t *testing.T) {
	_, err := NewStore("mysql", "dsn", "")
	assert.ErrorContains(t, err, "unsupported database driver")
}

func TestTruncateRunesDB(t *testing.T) {
	assert.Equal(t, "", truncateRunesDB("abc", 0))
	assert.Equal(t, "你好", truncateRunesDB("你好世界", 2))
	assert.Equal(t, "短文本", truncateRunesDB("短文本", 10))
}

func TestToValidUTF8(t *testing.T) {
	assert.Equal(t, "a\uFFFDb", toValidUTF8("a\xffb"))
	assert.Equal(t, "ok", toValidUTF8("ok"))
}

func TestSourceLookupOrCreate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	_, err := s.FindSourceByLink(ctx, "http://feed")
	assert.ErrorIs(t, err, ErrNotFound)

	created, err := s.CreateSource(ctx, "http://feed", "http://feed", now)
	require.NoError(t, err)
	assert.NotZero(t, created.ID)

	found, err := s.FindSourceByLink(ctx, "http://feed")
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)
	assert.Equal(t, "http://feed", found.Name)
	assert.True(t, now.Equal(found.CreatedAt))

	// 重复创建返回已有记录，不产生新行
	again, err := s.CreateSource(ctx, "other name", "http://feed", now)
	require.NoError(t, err)
	assert.Equal(t, created.ID, again.ID)

	list, err := s.ListSources(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestCategoryLookupOrCreate(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now()

	_, err := s.FindCategoryByName(ctx, "Tech")
	assert.ErrorIs(t, err, ErrNotFound)

	created, err := s.CreateCategory(ctx, "Tech", "Tech", now)
	require.NoError(t, err)

	again, err := s.CreateCategory(ctx, "Tech", "tech-2", now)
	require.NoError(t, err)
	assert.Equal(t, created.ID, again.ID)
	assert.Equal(t, "Tech", again.Slug)

	_, err = s.CreateCategory(ctx, "Art", "Art", now)
	require.NoError(t, err)

	list, err := s.ListCategories(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "Art", list[0].Name)
	assert.Equal(t, "Tech", list[1].Name)
}

func TestCreateEntry(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now()

	src, err := s.CreateSource(ctx, "http://feed", "http://feed", now)
	require.NoError(t, err)
	cat, err := s.CreateCategory(ctx, "Tech", "Tech", now)
	require.NoError(t, err)

	published := time.Unix(1700000000, 0).UTC()
	e := &FeedEntry{
		Title:       strings.Repeat("t", titleMaxRunes+10),
		Content:     "c",
		Description: "d\xff",
		Link:        "http://x/1",
		PublishedAt: published,
		CategoryID:  cat.ID,
		SourceID:    src.ID,
		ExtraData:   map[string]any{"guid": "g"},
	}
	require.NoError(t, s.CreateEntry(ctx, e))
	assert.NotZero(t, e.ID)

	found, err := s.FindEntryByLink(ctx, "http://x/1")
	require.NoError(t, err)
	assert.Len(t, []rune(found.Title), titleMaxRunes)
	assert.Equal(t, "d\uFFFD", found.Description)
	assert.True(t, published.Equal(found.PublishedAt))
	assert.Equal(t, cat.ID, found.CategoryID)
	assert.Equal(t, src.ID, found.SourceID)
	assert.Equal(t, "g", found.ExtraData["guid"])

	// link 唯一
	dup := &FeedEntry{Title: "dup", Link: "http://x/1", CategoryID: cat.ID, SourceID: src.ID}
	assert.Error(t, s.CreateEntry(ctx, dup))

	_, err = s.FindEntryByLink(ctx, "http://x/404")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListEntries(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now()

	feedA, err := s.CreateSource(ctx, "http://a", "http://a", now)
	require.NoError(t, err)
	feedB, err := s.CreateSource(ctx, "http://b", "http://b", now)
	require.NoError(t, err)
	tech, err := s.CreateCategory(ctx, "Tech", "Tech", now)
	require.NoError(t, err)
	art, err := s.CreateCategory(ctx, "Art", "Art", now)
	require.NoError(t, err)

	entries := []*FeedEntry{
		{Title: "1", Link: "http://x/1", PublishedAt: now.Add(-3 * time.Hour), CategoryID: tech.ID, SourceID: feedA.ID},
		{Title: "2", Link: "http://x/2", PublishedAt: now.Add(-2 * time.Hour), CategoryID: art.ID, SourceID: feedA.ID},
		{Title: "3", Link: "http://x/3", PublishedAt: now.Add(-1 * time.Hour), CategoryID: tech.ID, SourceID: feedB.ID},
	}
	for _, e := range entries {
		require.NoError(t, s.CreateEntry(ctx, e))
	}

	tests := []struct {
		name     string
		filter   EntryFilter
		expected []string
	}{
		{name: "all newest first", filter: EntryFilter{}, expected: []string{"3", "2", "1"}},
		{name: "by category", filter: EntryFilter{Category: "Tech"}, expected: []string{"3", "1"}},
		{name: "by source", filter: EntryFilter{Source: "http://a"}, expected: []string{"2", "1"}},
		{name: "by category and source", filter: EntryFilter{Category: "Tech", Source: "http://b"}, expected: []string{"3"}},
		{name: "limit", filter: EntryFilter{Limit: 1}, expected: []string{"3"}},
		{name: "unknown category", filter: EntryFilter{Category: "Nope"}, expected: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list, err := s.ListEntries(ctx, tt.filter)
			require.NoError(t, err)
			titles := make([]string, 0, len(list))
			for _, e := range list {
				titles = append(titles, e.Title)
				require.NotNil(t, e.Category)
				require.NotNil(t, e.Source)
			}
			assert.Equal(t, tt.expected, titles)
		})
	}
}
