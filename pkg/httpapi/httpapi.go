// Package httpapi exposes wizard conversations over HTTP for bots and web
// dashboards that cannot speak JSON-RPC over stdio.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ormasoftchile/guildwiz/pkg/service"
	"github.com/ormasoftchile/guildwiz/pkg/session"
	"github.com/ormasoftchile/guildwiz/pkg/wizard"
)

// OperatorHeader names the operator when the start body does not.
const OperatorHeader = "X-Operator"

// Error codes of ErrorResponse.
const (
	CodeBadRequest = "bad_request"
	CodeNotFound   = "not_found"
	CodeTransport  = "transport"
	CodeSchema     = "schema"
	CodeInternal   = "internal"
)

// ErrorResponse is the body of every non-2xx reply.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Options configures the router.
type Options struct {
	Service *service.Service
	Metrics http.Handler // served on /metrics when set
	Logger  *zap.Logger
}

type handler struct {
	svc    *service.Service
	logger *zap.Logger
}

// New returns the router.
func New(opts Options) *gin.Engine {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &handler{svc: opts.Service, logger: logger.Named("http")}

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(h.logger))

	r.GET("/health", h.health)
	if opts.Metrics != nil {
		r.GET("/metrics", gin.WrapH(opts.Metrics))
	}

	v1 := r.Group("/v1")
	v1.GET("/features", h.features)
	v1.POST("/conversations", h.start)
	v1.GET("/conversations/:id", h.get)
	v1.POST("/conversations/:id/callback", h.callback)
	v1.DELETE("/conversations/:id", h.cancel)
	v1.GET("/guilds/:guild/features/:feature", h.show)
	return r
}

func (h *handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "conversations": h.svc.Sessions().Len()})
}

func (h *handler) features(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"features": h.svc.Features()})
}

func (h *handler) start(c *gin.Context) {
	var p service.StartParams
	if err := c.ShouldBindJSON(&p); err != nil {
		abort(c, http.StatusBadRequest, CodeBadRequest, "invalid body: "+err.Error())
		return
	}
	if p.Feature == "" || p.GuildID == "" {
		abort(c, http.StatusBadRequest, CodeBadRequest, "feature and guild are required")
		return
	}
	if p.Operator == "" {
		p.Operator = c.GetHeader(OperatorHeader)
	}
	v, err := h.svc.Start(c.Request.Context(), p)
	h.reply(c, http.StatusCreated, v, err)
}

func (h *handler) get(c *gin.Context) {
	v, err := h.svc.Get(c.Param("id"))
	h.reply(c, http.StatusOK, v, err)
}

func (h *handler) callback(c *gin.Context) {
	var cb wizard.Callback
	if err := c.ShouldBindJSON(&cb); err != nil {
		abort(c, http.StatusBadRequest, CodeBadRequest, "invalid body: "+err.Error())
		return
	}
	v, err := h.svc.Callback(c.Request.Context(), c.Param("id"), cb)
	h.reply(c, http.StatusOK, v, err)
}

func (h *handler) cancel(c *gin.Context) {
	v, err := h.svc.Cancel(c.Request.Context(), c.Param("id"))
	h.reply(c, http.StatusOK, v, err)
}

func (h *handler) show(c *gin.Context) {
	rec, ok, err := h.svc.Show(c.Request.Context(), c.Param("guild"), c.Param("feature"))
	if err != nil {
		h.fail(c, err)
		return
	}
	if !ok {
		abort(c, http.StatusNotFound, CodeNotFound, "no saved configuration")
		return
	}
	c.JSON(http.StatusOK, gin.H{"record": rec})
}

// reply writes the view. A conversation that ended on an error still has a
// view; the error is in view.error.
func (h *handler) reply(c *gin.Context, status int, v *session.View, err error) {
	if v == nil {
		if err == nil {
			err = errors.New("no conversation")
		}
		h.fail(c, err)
		return
	}
	if err != nil {
		_ = c.Error(err)
	}
	c.JSON(status, v)
}

func (h *handler) fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, session.ErrNotFound), errors.Is(err, service.ErrUnknownFeature):
		abort(c, http.StatusNotFound, CodeNotFound, err.Error())
	case errors.Is(err, wizard.ErrTransport):
		abort(c, http.StatusBadRequest, CodeTransport, err.Error())
	case errors.Is(err, wizard.ErrSchema):
		abort(c, http.StatusInternalServerError, CodeSchema, err.Error())
	default:
		h.logger.Error("unhandled error", zap.Error(err))
		abort(c, http.StatusInternalServerError, CodeInternal, "internal error")
	}
}

func abort(c *gin.Context, status int, code, message string) {
	c.AbortWithStatusJSON(status, ErrorResponse{Code: code, Message: message})
}

// requestLogger logs one line per request with a request id, skipping the
// health and metrics endpoints.
func requestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		path := c.Request.URL.Path
		if path == "/health" || path == "/metrics" {
			c.Next()
			return
		}

		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header("X-Request-ID", requestID)

		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.Int("status", c.Writer.Status()),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Duration("latency", time.Since(start)),
			zap.String("request_id", requestID),
		}
		for _, e := range c.Errors.ByType(gin.ErrorTypeAny) {
			fields = append(fields, zap.NamedError("conversation_error", e.Err))
		}
		switch status := c.Writer.Status(); {
		case status >= http.StatusInternalServerError:
			log.Error("server error", fields...)
		case status >= http.StatusBadRequest:
			log.Warn("client error", fields...)
		default:
			log.Info("request completed", fields...)
		}
	}
}

// ListenAndServe serves h on addr until ctx is done, then shuts down
// gracefully.
func ListenAndServe(ctx context.Context, addr string, h http.Handler, logger *zap.Logger) error {
	srv := &http.Server{Addr: addr, Handler: h, ReadHeaderTimeout: 10 * time.Second}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	logger.Info("http listening", zap.String("addr", addr))

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
