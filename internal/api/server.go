// Package api serves the proxy health dashboard, the proxy list editor, and
// the JSON/metrics endpoints.
package api

import (
	"context"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/techroy23/Socksy-Dashboard/internal/config"
	"github.com/techroy23/Socksy-Dashboard/internal/metrics"
	"github.com/techroy23/Socksy-Dashboard/internal/proxylist"
	"github.com/techroy23/Socksy-Dashboard/internal/storage"
)

// Dashboard column order, mirrored by the client-side table.
var columnIndex = map[string]int{
	"ProxyAddress": 0,
	"Passed":       1,
	"Total":        2,
	"Percentage":   3,
	"LastIp":       4,
	"RTT":          5,
	"Updated":      6,
}

type Server struct {
	config      *config.Config
	store       storage.Store
	list        *proxylist.File
	metrics     *metrics.Collector
	router      *gin.Engine
	httpServer  *http.Server
	rateLimiter *RateLimiter
}

type RateLimiter struct {
	limiters map[string]*rate.Limiter
	mu       sync.RWMutex
	rate     rate.Limit
	burst    int
}

func NewRateLimiter(requestsPerMinute int) *RateLimiter {
	rps := float64(requestsPerMinute) / 60.0
	return &RateLimiter{
		limiters: make(map[string]*rate.Limiter),
		rate:     rate.Limit(rps),
		burst:    requestsPerMinute / 10, // Allow bursts
	}
}

func (rl *RateLimiter) GetLimiter(key string) *rate.Limiter {
	rl.mu.RLock()
	limiter, exists := rl.limiters[key]
	rl.mu.RUnlock()

	if exists {
		return limiter
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	// Double-check after acquiring write lock
	if limiter, exists := rl.limiters[key]; exists {
		return limiter
	}

	limiter = rate.NewLimiter(rl.rate, rl.burst)
	rl.limiters[key] = limiter

	return limiter
}

func NewServer(cfg *config.Config, store storage.Store, list *proxylist.File, collector *metrics.Collector) *Server {
	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.SetHTMLTemplate(template.Must(template.New("").Parse(pageTemplates)))

	s := &Server{
		config:      cfg,
		store:       store,
		list:        list,
		metrics:     collector,
		router:      router,
		rateLimiter: NewRateLimiter(cfg.API.RateLimitPerMinute),
	}

	s.setupRoutes()

	return s
}

func (s *Server) setupRoutes() {
	// Middleware
	s.router.Use(s.loggingMiddleware())
	s.router.Use(s.metricsMiddleware())
	if s.config.API.EnableIPRateLimit {
		s.router.Use(s.rateLimitMiddleware())
	}

	s.router.GET("/health", s.handleHealth)

	if s.config.Metrics.Enabled {
		s.router.GET(s.config.Metrics.Endpoint, gin.WrapH(promhttp.Handler()))
	}

	s.router.GET("/", s.handleHome)
	s.router.GET("/edit", s.handleEditForm)
	s.router.POST("/edit", s.handleEditSave)
	s.router.POST("/flush", s.handleFlush)
	s.router.GET("/stat", s.handleStat)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:         s.config.API.Addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Infof("Starting dashboard on http://%s", s.config.API.Addr)
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	log.Info("Shutting down dashboard...")
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// Middleware

func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		duration := time.Since(start)
		statusCode := c.Writer.Status()

		log.WithFields(log.Fields{
			"method":   c.Request.Method,
			"path":     path,
			"status":   statusCode,
			"duration": duration.Milliseconds(),
			"ip":       c.ClientIP(),
		}).Debug("HTTP request")
	}
}

func (s *Server) metricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		s.metrics.RecordAPIRequest(method, path, status)
		s.metrics.RecordAPIDuration(method, path, duration)
	}
}

func (s *Server) rateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()
		limiter := s.rateLimiter.GetLimiter(ip)

		if !limiter.Allow() {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error": "Rate limit exceeded",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// Handlers

func (s *Server) handleHealth(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

type proxyRow struct {
	Address string
	Passed  int64
	Total   int64
	Percent string
	LastIP  string
	RTT     string
	Updated string
}

func (s *Server) handleHome(c *gin.Context) {
	rows, err := strconv.Atoi(c.DefaultQuery("rows", "10"))
	if err != nil {
		rows = 10
	}
	if rows < 5 {
		rows = 5
	}
	if rows > 500 {
		rows = 500
	}

	sortBy := c.DefaultQuery("sortBy", "Percentage")
	col, ok := columnIndex[sortBy]
	if !ok {
		col = columnIndex["Percentage"]
	}

	dir := "desc"
	if strings.EqualFold(c.Query("dir"), "asc") {
		dir = "asc"
	}
	filter := c.Query("filter")

	records, err := s.store.All(c.Request.Context())
	if err != nil {
		c.String(http.StatusInternalServerError, "storage error: %v", err)
		return
	}

	data := make([]proxyRow, 0, len(records))
	for _, rec := range records {
		row := proxyRow{
			Address: rec.Address,
			Passed:  rec.Passed,
			Total:   rec.Total,
			Percent: fmt.Sprintf("%.1f", rec.Percent),
			Updated: rec.Updated.Format("2006-01-02 15:04:05"),
		}
		if rec.LastIP != nil {
			row.LastIP = *rec.LastIP
		}
		if rec.RTTMs != nil {
			row.RTT = fmt.Sprintf("%.1f", *rec.RTTMs)
		}
		data = append(data, row)
	}

	candidates, err := s.list.Read()
	if err != nil {
		log.Errorf("Failed to read proxy list: %v", err)
	}

	c.HTML(http.StatusOK, "home", gin.H{
		"Data":       data,
		"Rows":       rows,
		"OrderCol":   col,
		"OrderDir":   dir,
		"FilterVal":  filter,
		"HasProxies": len(candidates) > 0,
		"Notice":     c.Query("msg"),
	})
}

func (s *Server) handleEditForm(c *gin.Context) {
	lines, err := s.list.Read()
	if err != nil {
		c.String(http.StatusInternalServerError, "read proxy list: %v", err)
		return
	}

	c.HTML(http.StatusOK, "edit", gin.H{
		"Current": strings.Join(lines, "\n"),
	})
}

func (s *Server) handleEditSave(c *gin.Context) {
	body := c.PostForm("body")
	kept, err := s.list.Save(strings.Split(body, "\n"))
	if err != nil {
		c.String(http.StatusInternalServerError, "save proxy list: %v", err)
		return
	}

	msg := fmt.Sprintf("Saved %d valid proxies.", kept)
	c.Redirect(http.StatusSeeOther, "/?msg="+url.QueryEscape(msg))
}

func (s *Server) handleFlush(c *gin.Context) {
	if err := s.store.Flush(c.Request.Context()); err != nil {
		c.String(http.StatusInternalServerError, "flush stats: %v", err)
		return
	}

	log.Info("Statistics flushed via dashboard")
	c.Redirect(http.StatusSeeOther, "/?msg="+url.QueryEscape("Statistics cleared."))
}

func (s *Server) handleStat(c *gin.Context) {
	records, err := s.store.All(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	var passed, total int64
	var lastUpdated time.Time
	for _, rec := range records {
		passed += rec.Passed
		total += rec.Total
		if rec.Updated.After(lastUpdated) {
			lastUpdated = rec.Updated
		}
	}

	passPercent := 0.0
	if total > 0 {
		passPercent = float64(passed) / float64(total) * 100.0
	}

	response := gin.H{
		"tracked":      len(records),
		"probes_total": total,
		"pass_percent": fmt.Sprintf("%.2f%%", passPercent),
	}
	if !lastUpdated.IsZero() {
		response["updated"] = lastUpdated.Format(time.RFC3339)
	}

	c.JSON(http.StatusOK, response)
}
