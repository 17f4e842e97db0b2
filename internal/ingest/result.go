package ingest

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/LJTian/FeedHub/internal/storage"
)

type Outcome string

const (
	OutcomeInvalid  Outcome = "invalid"
	OutcomeExisting Outcome = "existing"
	OutcomeCreated  Outcome = "created"
	OutcomeFailed   Outcome = "failed"
)

var ingestTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "feedhub_ingest_total",
	Help: "Feed items processed by the ingestor, by outcome.",
}, []string{"outcome"})

// Result 描述一次 Ingest 的结果
type Result struct {
	Outcome  Outcome
	Title    string
	Link     string
	Category string

	// 仅 OutcomeCreated 时非空
	Entry *storage.FeedEntry
	// 仅 OutcomeFailed 时非空
	Err error
}

// Message 返回适合写日志的可读结果
func (r Result) Message() string {
	switch r.Outcome {
	case OutcomeInvalid:
		return "Feed is invalid!"
	case OutcomeExisting:
		return fmt.Sprintf("Existing feed: %s | %s.", r.Title, r.Link)
	case OutcomeCreated:
		return fmt.Sprintf("Feed: %s | %s | %s.", r.Category, r.Title, r.Link)
	case OutcomeFailed:
		return fmt.Sprintf("Failed to add feed: %s | %s.", r.Title, r.Link)
	default:
		return ""
	}
}

func (r Result) String() string {
	return r.Message()
}
