package feed

import (
	"strconv"
	"strings"

	"github.com/samber/lo"
)

// Category 对应条目里的 <category><label>…</label></category>
type Category struct {
	Label string `json:"label"`
}

// Item 是上游解析后交给 ingest 的统一结构。
// 字段用指针区分“缺失”和“存在但为空”。
type Item struct {
	Title          *string        `json:"title,omitempty"`
	Link           *string        `json:"link,omitempty"`
	Category       *Category      `json:"category,omitempty"`
	ContentEncoded *string        `json:"content:encoded,omitempty"`
	Description    *string        `json:"description,omitempty"`
	Timestamp      *string        `json:"timestamp,omitempty"`
	Extra          map[string]any `json:"extra,omitempty"`
}

// Content 返回 content:encoded，缺失时为空串
func (it Item) Content() string {
	return lo.FromPtr(it.ContentEncoded)
}

// DescriptionText 返回 description，缺失时为空串
func (it Item) DescriptionText() string {
	return lo.FromPtr(it.Description)
}

// UnixTimestamp 把 timestamp 字段解析为 Unix 秒。
// 缺失、无法解析或不为正数时 ok=false。
func (it Item) UnixTimestamp() (sec int64, ok bool) {
	if it.Timestamp == nil {
		return 0, false
	}
	v, err := strconv.ParseInt(strings.TrimSpace(*it.Timestamp), 10, 64)
	if err != nil || v <= 0 {
		return 0, false
	}
	return v, true
}
