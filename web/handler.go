package web

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gocrud/lazyload/journal"
	"github.com/gocrud/lazyload/lazy"
	"github.com/gocrud/lazyload/logging"
)

// Handler 模块加载的管理接口
type Handler struct {
	loader  *lazy.Loader
	journal *journal.Journal
	logger  logging.Logger
}

// NewHandler 创建管理接口，journal 可以为 nil
func NewHandler(loader *lazy.Loader, j *journal.Journal, logger logging.Logger) *Handler {
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Handler{
		loader:  loader,
		journal: j,
		logger:  logger.WithCategory("Admin"),
	}
}

// ResultView 一次加载结果的 JSON 形式
type ResultView struct {
	Route      string `json:"route"`
	ModuleID   string `json:"moduleId,omitempty"`
	Outcome    string `json:"outcome"`
	Error      string `json:"error,omitempty"`
	Added      int    `json:"added"`
	DurationMs int64  `json:"durationMs"`
	Shared     bool   `json:"shared"`
}

// NewResultView 转换加载结果
func NewResultView(res lazy.Result) ResultView {
	v := ResultView{
		Route:      res.Route,
		ModuleID:   res.ModuleID,
		Outcome:    res.Outcome.String(),
		Added:      res.Added,
		DurationMs: res.Duration.Milliseconds(),
		Shared:     res.Shared,
	}
	if res.Err != nil {
		v.Error = res.Err.Error()
	}
	return v
}

// ModulesView 模块表的 JSON 形式
type ModulesView struct {
	Routes map[string]string `json:"routes"`
	Loaded []string          `json:"loaded"`
	States map[string]string `json:"states"`
}

// ServicesView 当前 Provider 的 JSON 形式
type ServicesView struct {
	Generation    uint64   `json:"generation"`
	Registrations int      `json:"registrations"`
	Services      []string `json:"services"`
}

type loadRequest struct {
	Route string `json:"route" binding:"required"`
}

// RegisterRoutes 注册管理路由
func (h *Handler) RegisterRoutes(r gin.IRouter) {
	r.GET("/healthz", h.health)
	r.GET("/modules", h.modules)
	r.POST("/modules/load", h.load)
	r.GET("/services", h.services)
	r.GET("/journal", h.recent)
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":     "ok",
		"generation": h.loader.Container().Generation(),
	})
}

func (h *Handler) modules(c *gin.Context) {
	table := h.loader.Table()
	states := make(map[string]string)
	for id, s := range table.States() {
		states[id] = s.String()
	}
	c.JSON(http.StatusOK, ModulesView{
		Routes: table.Routes(),
		Loaded: table.Loaded(),
		States: states,
	})
}

// load 加载失败同样返回 200，结果里的 outcome 为 Failed
func (h *Handler) load(c *gin.Context) {
	var req loadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	res := h.loader.LoadModule(c.Request.Context(), req.Route)
	h.logger.Debug("Load requested",
		logging.Field{Key: "route", Value: req.Route},
		logging.Field{Key: "outcome", Value: res.Outcome.String()})
	c.JSON(http.StatusOK, NewResultView(res))
}

func (h *Handler) services(c *gin.Context) {
	container := h.loader.Container()
	c.JSON(http.StatusOK, ServicesView{
		Generation:    container.Generation(),
		Registrations: container.Registrations(),
		Services:      container.CurrentProvider().Describe(),
	})
}

func (h *Handler) recent(c *gin.Context) {
	if h.journal == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "journal is not configured"})
		return
	}

	limit := 50
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be an integer"})
			return
		}
		limit = n
	}

	entries, err := h.journal.Recent(c.Request.Context(), limit)
	if err != nil {
		h.logger.Error("Failed to read journal", logging.Field{Key: "error", Value: err.Error()})
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, entries)
}
