package api

import (
	"crypto/subtle"
	"net/http"
	"strconv"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/samber/lo"

	"github.com/LJTian/FeedHub/internal/feed"
	"github.com/LJTian/FeedHub/internal/ingest"
	"github.com/LJTian/FeedHub/internal/logx"
	"github.com/LJTian/FeedHub/internal/storage"
)

type Server struct {
	store *storage.Store

	// Ingestor 的缓存不是并发安全的，HTTP 请求串行调用
	mu       sync.Mutex
	ingestor *ingest.Ingestor
}

func NewServer(store *storage.Store, ingestor *ingest.Ingestor) *Server {
	return &Server{store: store, ingestor: ingestor}
}

func (s *Server) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", s.health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/api/v1")
	{
		v1.GET("/entries", s.listEntries)
		v1.GET("/categories", s.listCategories)
		v1.GET("/sources", s.listSources)
		v1.POST("/ingest", s.ingest)
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) listEntries(c *gin.Context) {
	limitStr := c.DefaultQuery("limit", "20")
	limit, err := strconv.Atoi(limitStr)
	if err != nil || limit <= 0 {
		limit = 20
	}

	items, err := s.store.ListEntries(c.Request.Context(), storage.EntryFilter{
		Category: c.Query("category"),
		Source:   c.Query("source"),
		Limit:    limit,
	})
	if err != nil {
		internalError(c, err)
		return
	}

	respondOK(c, items)
}

// categoryView 是分类列表返回给前端的精简结构
type categoryView struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

func (s *Server) listCategories(c *gin.Context) {
	list, err := s.store.ListCategories(c.Request.Context())
	if err != nil {
		internalError(c, err)
		return
	}

	respondOK(c, lo.Map(list, func(cat storage.Category, _ int) categoryView {
		return categoryView{Name: cat.Name, Slug: cat.Slug}
	}))
}

func (s *Server) listSources(c *gin.Context) {
	list, err := s.store.ListSources(c.Request.Context())
	if err != nil {
		internalError(c, err)
		return
	}

	respondOK(c, list)
}

type ingestRequest struct {
	SourceURL string    `json:"sourceUrl" binding:"required,url"`
	Item      feed.Item `json:"item"`
}

func (s *Server) ingest(c *gin.Context) {
	var req ingestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"code":    "bad_request",
			"message": err.Error(),
		})
		return
	}

	s.mu.Lock()
	res, err := s.ingestor.Ingest(c.Request.Context(), req.Item, req.SourceURL)
	s.mu.Unlock()
	if err != nil {
		internalError(c, err)
		return
	}

	status := http.StatusOK
	switch res.Outcome {
	case ingest.OutcomeCreated:
		status = http.StatusCreated
	case ingest.OutcomeInvalid:
		status = http.StatusUnprocessableEntity
	case ingest.OutcomeFailed:
		status = http.StatusInternalServerError
	}

	body := gin.H{
		"code":    string(res.Outcome),
		"message": res.Message(),
	}
	if res.Entry != nil {
		body["data"] = res.Entry
	}
	c.JSON(status, body)
}

func respondOK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, gin.H{
		"code":    "ok",
		"message": "success",
		"data":    data,
	})
}

func internalError(c *gin.Context, err error) {
	logx.LoggerFromContext(c.Request.Context()).Errorw("request failed", "path", c.FullPath(), "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{
		"code":    "internal_error",
		"message": "internal server error",
	})
}

// BasicAuthMiddleware 为整个站点增加一个简单的 Basic Auth 访问密码。
// /health 不做认证，便于健康检查。
func BasicAuthMiddleware(user, pass string) gin.HandlerFunc {
	const realm = "Restricted"
	uBytes := []byte(user)
	pBytes := []byte(pass)

	return func(c *gin.Context) {
		if c.Request.URL.Path == "/health" {
			c.Next()
			return
		}
		u, p, ok := c.Request.BasicAuth()
		if !ok ||
			subtle.ConstantTimeCompare([]byte(u), uBytes) != 1 ||
			subtle.ConstantTimeCompare([]byte(p), pBytes) != 1 {
			c.Header("WWW-Authenticate", `Basic realm="`+realm+`"`)
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		c.Next()
	}
}
