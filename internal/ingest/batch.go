package ingest

import (
	"context"

	"github.com/LJTian/FeedHub/internal/feed"
)

// Summary 统计一批条目的处理结果
type Summary map[Outcome]int

func (s Summary) Total() int {
	n := 0
	for _, c := range s {
		n += c
	}
	return n
}

// IngestAll 顺序处理同一来源的一批条目。
// 遇到存储故障立即返回，已处理的结果仍计入 Summary。
func (in *Ingestor) IngestAll(ctx context.Context, items []feed.Item, sourceURL string) (Summary, error) {
	sum := Summary{}
	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		res, err := in.Ingest(ctx, item, sourceURL)
		if err != nil {
			return sum, err
		}
		sum[res.Outcome]++
	}
	return sum, nil
}
