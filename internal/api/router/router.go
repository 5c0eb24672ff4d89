package router

import (
	"context"
	"crypto/subtle"
	"errors"
	"time"

	"resume-tailor/internal/api/handler"
	"resume-tailor/internal/config"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/app/middlewares/server/recovery"
	"github.com/cloudwego/hertz/pkg/app/server"
	hconfig "github.com/cloudwego/hertz/pkg/common/config"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/cloudwego/hertz/pkg/protocol/consts"
	"github.com/google/uuid"
	"github.com/hertz-contrib/keyauth"
	hertztracing "github.com/hertz-contrib/obs-opentelemetry/tracing"
	"github.com/rs/zerolog"
)

// RequestIDHeader 请求 ID 头
const RequestIDHeader = "X-Request-ID"

var errInvalidAPIKey = errors.New("API Key 无效")

// NewServer 按配置创建 Hertz 服务器并注册全部路由。
// 开启链路追踪时使用全局 TracerProvider，需先调用 tracing.InitProvider。
func NewServer(cfg *config.Config, h *handler.Handler, logger zerolog.Logger) *server.Hertz {
	opts := []hconfig.Option{
		server.WithHostPorts(cfg.Server.Address),
		server.WithHandleMethodNotAllowed(true),
	}
	if cfg.Server.MaxBodySizeMB > 0 {
		opts = append(opts, server.WithMaxRequestBodySize(cfg.Server.MaxBodySizeMB<<20))
	}

	var tracerCfg *hertztracing.Config
	if cfg.Tracing.Enabled {
		tracer, tc := hertztracing.NewServerTracer()
		opts = append(opts, tracer)
		tracerCfg = tc
	}

	srv := server.New(opts...)
	srv.Use(recovery.Recovery())
	if tracerCfg != nil {
		srv.Use(hertztracing.ServerMiddleware(tracerCfg))
	}
	srv.Use(RequestLogger(logger))

	RegisterRoutes(srv, h, cfg.Server.APIKeys)
	return srv
}

// RegisterRoutes 注册 API 路由。apiKeys 非空时除健康检查与选项外的接口都需要 Bearer 鉴权。
func RegisterRoutes(h *server.Hertz, hd *handler.Handler, apiKeys []string) {
	api := h.Group("/api/v1")
	api.GET("/health", hd.HandleHealth)
	api.GET("/options", hd.HandleOptions)

	protected := api.Group("", authMiddleware(apiKeys)...)
	protected.POST("/normalize", hd.HandleNormalize)
	protected.POST("/render", hd.HandleRender)
	protected.POST("/tailor", hd.HandleTailor)
	protected.GET("/runs", hd.HandleListRuns)
	protected.GET("/runs/:run_id", hd.HandleGetRun)
	protected.GET("/runs/:run_id/:file", hd.HandleDownload)
}

func authMiddleware(apiKeys []string) []app.HandlerFunc {
	if len(apiKeys) == 0 {
		return nil
	}
	keys := make([][]byte, 0, len(apiKeys))
	for _, k := range apiKeys {
		if k != "" {
			keys = append(keys, []byte(k))
		}
	}

	return []app.HandlerFunc{keyauth.New(
		keyauth.WithKeyLookUp("header:Authorization", "Bearer"),
		keyauth.WithValidator(func(ctx context.Context, c *app.RequestContext, key string) (bool, error) {
			for _, k := range keys {
				if subtle.ConstantTimeCompare(k, []byte(key)) == 1 {
					return true, nil
				}
			}
			return false, errInvalidAPIKey
		}),
		keyauth.WithErrorHandler(func(ctx context.Context, c *app.RequestContext, err error) {
			msg := errInvalidAPIKey.Error()
			if err != nil && !errors.Is(err, errInvalidAPIKey) {
				msg = "缺少或格式错误的 API Key"
			}
			c.AbortWithStatusJSON(consts.StatusUnauthorized, utils.H{"error": msg})
		}),
	)}
}

// RequestLogger 记录每个请求的方法、路径、状态码与耗时，并透传请求 ID
func RequestLogger(logger zerolog.Logger) app.HandlerFunc {
	logger = logger.With().Str("component", "http").Logger()
	return func(ctx context.Context, c *app.RequestContext) {
		start := time.Now()
		reqID := string(c.GetHeader(RequestIDHeader))
		if reqID == "" {
			reqID = uuid.NewString()
		}
		c.Response.Header.Set(RequestIDHeader, reqID)

		l := logger.With().Str("request_id", reqID).Logger()
		c.Next(l.WithContext(ctx))

		status := c.Response.StatusCode()
		ev := l.Info()
		switch {
		case status >= consts.StatusInternalServerError:
			ev = l.Error()
		case status >= consts.StatusBadRequest:
			ev = l.Warn()
		}
		ev.Str("method", string(c.Method())).
			Str("path", string(c.Path())).
			Int("status", status).
			Dur("latency", time.Since(start)).
			Msg("HTTP 请求")
	}
}
