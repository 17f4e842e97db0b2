package feed

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/mmcdole/gofeed"
	"github.com/samber/lo"
)

// timestampElement 是部分源在 <item> 里附带的自定义 Unix 时间戳元素
const timestampElement = "timestamp"

// FromGoFeed 把 gofeed 已解析的条目转换为 Item。
// gofeed 无法区分空元素与缺失元素，这里统一把空的 title/link/category 视为缺失。
func FromGoFeed(gi *gofeed.Item) Item {
	it := Item{
		Title:          lo.EmptyableToPtr(strings.TrimSpace(gi.Title)),
		Link:           lo.EmptyableToPtr(strings.TrimSpace(gi.Link)),
		ContentEncoded: lo.EmptyableToPtr(gi.Content),
		Description:    lo.EmptyableToPtr(gi.Description),
	}

	if label, ok := lo.Find(gi.Categories, func(c string) bool { return strings.TrimSpace(c) != "" }); ok {
		it.Category = &Category{Label: strings.TrimSpace(label)}
	}

	// 优先使用自定义 timestamp，其次 pubDate，再次 updated
	switch {
	case gi.Custom[timestampElement] != "":
		it.Timestamp = lo.ToPtr(strings.TrimSpace(gi.Custom[timestampElement]))
	case gi.PublishedParsed != nil:
		it.Timestamp = lo.ToPtr(strconv.FormatInt(gi.PublishedParsed.Unix(), 10))
	case gi.UpdatedParsed != nil:
		it.Timestamp = lo.ToPtr(strconv.FormatInt(gi.UpdatedParsed.Unix(), 10))
	}

	extra := map[string]any{}
	if gi.GUID != "" {
		extra["guid"] = gi.GUID
	}
	if gi.Author != nil && gi.Author.Name != "" {
		extra["author"] = gi.Author.Name
	}
	if len(extra) > 0 {
		it.Extra = extra
	}

	return it
}

// FromGoFeedItems 转换一批条目，跳过 nil
func FromGoFeedItems(items []*gofeed.Item) []Item {
	out := make([]Item, 0, len(items))
	for _, gi := range items {
		if gi == nil {
			continue
		}
		out = append(out, FromGoFeed(gi))
	}
	return out
}

// LoadFile 解析本地的 RSS/Atom 文件
func LoadFile(path string) ([]Item, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open feed file: %w", err)
	}
	defer f.Close()

	parsed, err := gofeed.NewParser().Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parse feed file %s: %w", path, err)
	}
	return FromGoFeedItems(parsed.Items), nil
}
