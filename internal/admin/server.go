// Package admin exposes the daemon's HTTP control surface: health,
// metrics, component state, and a send endpoint for remote callers.
package admin

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/danmuck/legacyctl/internal/observability"
	"github.com/danmuck/legacyctl/internal/protocol"
	"github.com/danmuck/legacyctl/internal/runtime"
)

type Server struct {
	ID      string
	Addr    string
	Started time.Time

	ctx    *runtime.Context
	router *gin.Engine
}

func New(id, addr string, corsOrigins []string, ctx *runtime.Context) *Server {
	observability.RegisterMetrics()
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(observability.RequestLogger(log.Logger))
	r.Use(observability.RequestMetricsMiddleware(id))
	r.Use(cors.New(cors.Config{
		AllowOrigins: normalizeOrigins(corsOrigins),
		AllowMethods: []string{"GET", "POST"},
		AllowHeaders: []string{"Origin", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}))
	_ = r.SetTrustedProxies([]string{"127.0.0.1", "::1"})

	return &Server{
		ID:      id,
		Addr:    addr,
		Started: time.Now(),
		ctx:     ctx,
		router:  r,
	}
}

func (s *Server) HTTPRouter() *gin.Engine {
	return s.router
}

func (s *Server) RegisterRoutes() {
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"uptime":  time.Since(s.Started).String(),
			"service": s.ID,
			"version": "0.0.1",
		})
	})

	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	s.router.GET("/ready", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"ready":   true,
			"uptime":  time.Since(s.Started).String(),
			"service": s.ID,
			"version": "0.0.1",
		})
	})

	s.router.GET("/v1/state", s.handleStateList)
	s.router.GET("/v1/state/:scope/:addr", s.handleStateGet)
	s.router.POST("/v1/send", s.handleSend)
}

// requireStore rejects state reads when the runtime carries no local
// pipeline, as in client mode where commands relay to a remote server.
func (s *Server) requireStore(c *gin.Context) bool {
	if s.ctx.Store() == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no local state in client mode"})
		return false
	}
	return true
}

func (s *Server) handleStateList(c *gin.Context) {
	if !s.requireStore(c) {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"entities": s.ctx.Store().Snapshots(),
	})
}

func (s *Server) handleStateGet(c *gin.Context) {
	if !s.requireStore(c) {
		return
	}
	scope, ok := protocol.ParseScope(c.Param("scope"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown scope " + c.Param("scope")})
		return
	}
	addr, err := strconv.ParseUint(c.Param("addr"), 10, 8)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bad address " + c.Param("addr")})
		return
	}

	ent, err := s.ctx.Store().Get(scope, uint8(addr), false)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if ent == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no state recorded"})
		return
	}
	c.JSON(http.StatusOK, ent.Snapshot())
}

type sendBody struct {
	Kind    string `json:"kind" binding:"required"`
	Scope   string `json:"scope"`
	Address uint8  `json:"address"`
	Data    uint32 `json:"data"`
	Wait    bool   `json:"wait"`
}

func (s *Server) handleSend(c *gin.Context) {
	var body sendBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	kind, ok := protocol.ParseKind(body.Kind)
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown command " + body.Kind})
		return
	}

	var req *protocol.Request
	var err error
	if body.Scope != "" {
		scope, ok := protocol.ParseScope(body.Scope)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown scope " + body.Scope})
			return
		}
		req, err = protocol.NewScopedRequest(kind, scope, body.Address, body.Data)
	} else {
		req, err = protocol.NewRequest(kind, body.Address, body.Data)
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if body.Wait {
		err = s.ctx.SendWait(req)
	} else {
		err = s.ctx.Send(req)
	}
	if err != nil {
		log.Error().Err(err).Str("command", req.String()).Msg("send failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	log.Info().Str("command", req.String()).Msg("command sent")
	c.JSON(http.StatusOK, gin.H{"status": "ok", "command": req.String()})
}

func (s *Server) Serve() error {
	s.RegisterRoutes()
	return s.router.Run(s.Addr)
}

func normalizeOrigins(origins []string) []string {
	if len(origins) == 0 {
		return []string{"http://localhost:5173"}
	}
	return origins
}
