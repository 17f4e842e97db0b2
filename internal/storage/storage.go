package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/glebarez/sqlite"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/LJTian/FeedHub/internal/logx"
)

var ErrNotFound = errors.New("record not found")

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"

	// 与 Title 字段的 size 保持一致
	titleMaxRunes = 1024
	openRetries   = 5
)

type Store struct {
	DB    *gorm.DB
	Redis *redis.Client
}

// NewStore 连接数据库并完成建表；redisAddr 为空时不使用缓存
func NewStore(driver, dsn, redisAddr string) (*Store, error) {
	dialector, err := dialectorFor(driver, dsn)
	if err != nil {
		return nil, err
	}

	// 数据库可能比服务晚启动，按指数退避重试几次
	var db *gorm.DB
	open := func() error {
		var err error
		db, err = gorm.Open(dialector, &gorm.Config{})
		return err
	}
	notify := func(err error, wait time.Duration) {
		logx.Logger.Warnw("open database failed, retrying", "driver", driver, "error", err, "wait", wait)
	}
	if err := backoff.RetryNotify(open, backoff.WithMaxRetries(backoff.NewExponentialBackOff(), openRetries), notify); err != nil {
		return nil, fmt.Errorf("open %s database: %w", driver, err)
	}

	if driver == DriverSQLite {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		// SQLite 同一时刻只允许一个写连接
		sqlDB.SetMaxOpenConns(1)
	}

	s := &Store{DB: db}
	if err := s.Migrate(); err != nil {
		return nil, err
	}

	if redisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr: redisAddr,
		})

		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := rdb.Ping(ctx).Err(); err != nil {
			logx.Logger.Warnf("redis ping failed: %v", err)
		}
		s.Redis = rdb
	}

	return s, nil
}

func dialectorFor(driver, dsn string) (gorm.Dialector, error) {
	switch driver {
	case DriverPostgres:
		return postgres.Open(dsn), nil
	case DriverSQLite:
		sep := "?"
		if strings.Contains(dsn, "?") {
			sep = "&"
		}
		return sqlite.Open(dsn + sep + "_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)"), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

// Migrate 创建或更新表结构
func (s *Store) Migrate() error {
	if err := s.DB.AutoMigrate(&Source{}, &Category{}, &FeedEntry{}); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}
	return nil
}

func (s *Store) Close() error {
	if s.Redis != nil {
		_ = s.Redis.Close()
	}
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// quiet 返回不打印 record not found 的会话，查询未命中是正常情况
func (s *Store) quiet(ctx context.Context) *gorm.DB {
	return s.DB.WithContext(ctx).Session(&gorm.Session{Logger: s.DB.Logger.LogMode(logger.Silent)})
}

func first[T any](db *gorm.DB, query string, arg any) (*T, error) {
	var v T
	if err := db.Where(query, arg).First(&v).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &v, nil
}

// toValidUTF8 将字符串规范为合法 UTF-8，避免 PostgreSQL invalid byte sequence 错误
func toValidUTF8(s string) string {
	return strings.ToValidUTF8(s, "\uFFFD")
}

// truncateRunesDB 按 rune 数截断字符串，确保不会超过数据库字段长度
func truncateRunesDB(s string, limit int) string {
	if limit <= 0 {
		return ""
	}
	rs := []rune(s)
	if len(rs) <= limit {
		return s
	}
	return string(rs[:limit])
}

// ---------- 来源 ----------

func (s *Store) FindSourceByLink(ctx context.Context, link string) (*Source, error) {
	return first[Source](s.quiet(ctx), "link = ?", link)
}

// CreateSource 以 link 为键幂等创建；并发插入时返回已存在的记录
func (s *Store) CreateSource(ctx context.Context, name, link string, createdAt time.Time) (*Source, error) {
	src := &Source{
		Name:      toValidUTF8(name),
		Link:      link,
		CreatedAt: createdAt,
	}
	res := s.DB.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "link"}}, DoNothing: true}).
		Create(src)
	if res.Error != nil {
		return nil, fmt.Errorf("create source %s: %w", link, res.Error)
	}
	if res.RowsAffected == 0 {
		return s.FindSourceByLink(ctx, link)
	}
	return src, nil
}

func (s *Store) ListSources(ctx context.Context) ([]Source, error) {
	var list []Source
	err := s.DB.WithContext(ctx).Order("created_at ASC").Order("id ASC").Find(&list).Error
	return list, err
}

// ---------- 分类 ----------

func (s *Store) FindCategoryByName(ctx context.Context, name string) (*Category, error) {
	return first[Category](s.quiet(ctx), "name = ?", name)
}

// CreateCategory 以 name 为键幂等创建；并发插入时返回已存在的记录
func (s *Store) CreateCategory(ctx context.Context, name, slug string, createdAt time.Time) (*Category, error) {
	cat := &Category{
		Name:      name,
		Slug:      slug,
		CreatedAt: createdAt,
	}
	res := s.DB.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "name"}}, DoNothing: true}).
		Create(cat)
	if res.Error != nil {
		return nil, fmt.Errorf("create category %s: %w", name, res.Error)
	}
	if res.RowsAffected == 0 {
		return s.FindCategoryByName(ctx, name)
	}
	return cat, nil
}

func (s *Store) ListCategories(ctx context.Context) ([]Category, error) {
	var list []Category
	err := s.DB.WithContext(ctx).Order("name ASC").Find(&list).Error
	return list, err
}

// ---------- 条目 ----------

func (s *Store) FindEntryByLink(ctx context.Context, link string) (*FeedEntry, error) {
	return first[FeedEntry](s.quiet(ctx), "link = ?", link)
}

// CreateEntry 插入一条新条目；link 已存在时返回唯一约束错误。
// 只写外键，不级联写入 Category / Source。
func (s *Store) CreateEntry(ctx context.Context, e *FeedEntry) error {
	e.Title = truncateRunesDB(toValidUTF8(e.Title), titleMaxRunes)
	e.Content = toValidUTF8(e.Content)
	e.Description = toValidUTF8(e.Description)

	if err := s.DB.WithContext(ctx).Omit(clause.Associations).Create(e).Error; err != nil {
		return fmt.Errorf("create entry %s: %w", e.Link, err)
	}
	return nil
}
