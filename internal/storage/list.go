package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

const (
	defaultListLimit = 20
	maxListLimit     = 1000
	listCacheTTL     = 5 * time.Minute
)

// EntryFilter 条目列表的筛选条件，字段为空表示不过滤
type EntryFilter struct {
	Category string // 分类 name
	Source   string // 来源 link
	Limit    int
}

// ListEntries 按分类、来源返回最新条目，并使用 Redis 做简单缓存
func (s *Store) ListEntries(ctx context.Context, f EntryFilter) ([]FeedEntry, error) {
	if f.Limit <= 0 || f.Limit > maxListLimit {
		f.Limit = defaultListLimit
	}

	cacheKey := fmt.Sprintf("entries:list:%s:%s:%d", f.Category, f.Source, f.Limit)

	// L2: Redis 缓存
	if s.Redis != nil {
		if bs, err := s.Redis.Get(ctx, cacheKey).Bytes(); err == nil {
			var cached []FeedEntry
			if err := json.Unmarshal(bs, &cached); err == nil {
				return cached, nil
			}
		}
	}

	db := s.DB.WithContext(ctx).Model(&FeedEntry{}).Preload("Category").Preload("Source")
	if f.Category != "" {
		db = db.Where("category_id IN (?)", s.DB.Model(&Category{}).Select("id").Where("name = ?", f.Category))
	}
	if f.Source != "" {
		db = db.Where("source_id IN (?)", s.DB.Model(&Source{}).Select("id").Where("link = ?", f.Source))
	}

	var list []FeedEntry
	if err := db.Order("published_at DESC").Order("id DESC").Limit(f.Limit).Find(&list).Error; err != nil {
		return nil, err
	}

	// 新条目依赖短 TTL 自然过期，不做主动失效
	if s.Redis != nil && len(list) > 0 {
		if bs, err := json.Marshal(list); err == nil {
			_ = s.Redis.Set(ctx, cacheKey, bs, listCacheTTL).Err()
		}
	}

	return list, nil
}
