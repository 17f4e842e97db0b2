package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/LJTian/FeedHub/internal/config"
	"github.com/LJTian/FeedHub/internal/feed"
	"github.com/LJTian/FeedHub/internal/logx"
	"github.com/LJTian/FeedHub/internal/storage"
)

const (
	DefaultCategoryName = "DEFAULT"
	DefaultCategorySlug = "default"
)

var ErrEmptySourceURL = errors.New("source url is empty")

// Store 是 Ingestor 依赖的持久层。
// Find* 未命中时返回 storage.ErrNotFound；Create{Source,Category} 需按自然键幂等。
type Store interface {
	FindEntryByLink(ctx context.Context, link string) (*storage.FeedEntry, error)
	FindSourceByLink(ctx context.Context, link string) (*storage.Source, error)
	CreateSource(ctx context.Context, name, link string, createdAt time.Time) (*storage.Source, error)
	FindCategoryByName(ctx context.Context, name string) (*storage.Category, error)
	CreateCategory(ctx context.Context, name, slug string, createdAt time.Time) (*storage.Category, error)
	CreateEntry(ctx context.Context, entry *storage.FeedEntry) error
}

// Ingestor 把单条已解析的 feed 条目写入存储。
// 内部的来源、分类缓存没有加锁，同一个实例只能被一个 goroutine 顺序调用。
type Ingestor struct {
	store Store
	now   func() time.Time
	log   *zap.SugaredLogger

	defaultCategory     string
	defaultCategorySlug string

	sources    map[string]*storage.Source   // source url -> Source
	categories map[string]*storage.Category // category name -> Category
}

type Option func(*Ingestor)

// WithDefaultCategory 设置条目缺少分类时使用的分类
func WithDefaultCategory(name, slug string) Option {
	return func(in *Ingestor) {
		in.defaultCategory = name
		in.defaultCategorySlug = slug
	}
}

func WithClock(now func() time.Time) Option {
	return func(in *Ingestor) {
		in.now = now
	}
}

func WithLogger(l *zap.SugaredLogger) Option {
	return func(in *Ingestor) {
		in.log = l
	}
}

func New(store Store, opts ...Option) *Ingestor {
	in := &Ingestor{
		store:               store,
		now:                 config.Now,
		log:                 logx.Logger,
		defaultCategory:     DefaultCategoryName,
		defaultCategorySlug: DefaultCategorySlug,
		sources:             make(map[string]*storage.Source),
		categories:          make(map[string]*storage.Category),
	}
	for _, opt := range opts {
		opt(in)
	}
	return in
}

// Ingest 处理一条条目。校验失败、重复、入库失败都通过 Result 返回；
// 只有查询或创建来源/分类时的存储故障才返回 error。
func (in *Ingestor) Ingest(ctx context.Context, item feed.Item, sourceURL string) (Result, error) {
	if sourceURL == "" {
		return Result{}, ErrEmptySourceURL
	}

	if item.Title == nil || item.Link == nil {
		return in.finish(Result{Outcome: OutcomeInvalid}), nil
	}
	title, link := *item.Title, *item.Link

	if _, err := in.store.FindEntryByLink(ctx, link); err == nil {
		return in.finish(Result{Outcome: OutcomeExisting, Title: title, Link: link}), nil
	} else if !errors.Is(err, storage.ErrNotFound) {
		return Result{}, fmt.Errorf("find entry %s: %w", link, err)
	}

	now := in.now()

	source, err := lookupOrCreate(ctx, in.sources, sourceURL, in.store.FindSourceByLink,
		func(ctx context.Context) (*storage.Source, error) {
			return in.store.CreateSource(ctx, sourceURL, sourceURL, now)
		})
	if err != nil {
		return Result{}, fmt.Errorf("resolve source %s: %w", sourceURL, err)
	}

	categoryName, categorySlug := in.categoryData(item)
	category, err := lookupOrCreate(ctx, in.categories, categoryName, in.store.FindCategoryByName,
		func(ctx context.Context) (*storage.Category, error) {
			return in.store.CreateCategory(ctx, categoryName, categorySlug, now)
		})
	if err != nil {
		return Result{}, fmt.Errorf("resolve category %s: %w", categoryName, err)
	}

	publishedAt := now
	if sec, ok := item.UnixTimestamp(); ok {
		publishedAt = time.Unix(sec, 0).UTC()
	}

	entry := &storage.FeedEntry{
		Title:       title,
		Content:     item.Content(),
		Description: item.DescriptionText(),
		Link:        link,
		PublishedAt: publishedAt,
		CategoryID:  category.ID,
		SourceID:    source.ID,
		ExtraData:   item.Extra,
	}

	res := Result{Title: title, Link: link, Category: categoryName}
	if err := in.store.CreateEntry(ctx, entry); err != nil {
		res.Outcome = OutcomeFailed
		res.Err = err
		return in.finish(res), nil
	}

	entry.Category = category
	entry.Source = source
	res.Outcome = OutcomeCreated
	res.Entry = entry
	return in.finish(res), nil
}

// categoryData 返回分类的 name 和 slug；没有分类时使用默认分类
func (in *Ingestor) categoryData(item feed.Item) (string, string) {
	if item.Category == nil {
		return in.defaultCategory, in.defaultCategorySlug
	}
	return item.Category.Label, item.Category.Label
}

func (in *Ingestor) finish(res Result) Result {
	ingestTotal.WithLabelValues(string(res.Outcome)).Inc()

	l := in.log.With("outcome", res.Outcome, "link", res.Link)
	switch res.Outcome {
	case OutcomeCreated:
		l.Info(res.Message())
	case OutcomeFailed:
		l.Errorw(res.Message(), "error", res.Err)
	default:
		l.Debug(res.Message())
	}
	return res
}

// lookupOrCreate 先查本地缓存，再按自然键查存储，未命中则创建，结果写回缓存
func lookupOrCreate[T any](
	ctx context.Context,
	cache map[string]*T,
	key string,
	find func(context.Context, string) (*T, error),
	create func(context.Context) (*T, error),
) (*T, error) {
	if v, ok := cache[key]; ok {
		return v, nil
	}

	v, err := find(ctx, key)
	if errors.Is(err, storage.ErrNotFound) {
		v, err = create(ctx)
	}
	if err != nil {
		return nil, err
	}

	cache[key] = v
	return v, nil
}
