package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"resume-tailor/internal/api/handler"
	"resume-tailor/internal/api/router"
	"resume-tailor/internal/config"
	"resume-tailor/internal/extract"
	"resume-tailor/internal/storage"
	"resume-tailor/internal/tracing"

	"github.com/spf13/pflag"
)

// runServe resume-tailor serve [-c config.yaml] [--addr :8080]
func runServe(args []string) error {
	var (
		g    globalFlags
		addr string
	)
	fs := pflag.NewFlagSet("serve", pflag.ExitOnError)
	g.register(fs)
	fs.StringVar(&addr, "addr", "", "监听地址，覆盖 server.address")
	if err := fs.Parse(args); err != nil {
		return err
	}

	a, err := newApp(g)
	if err != nil {
		return err
	}
	if addr != "" {
		a.cfg.Server.Address = addr
	}
	log := a.logger

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracing, err := tracing.InitProvider(ctx, a.cfg.Tracing, version)
	if err != nil {
		return err
	}

	store, err := storage.NewStorage(ctx, a.cfg, log)
	if err != nil {
		return err
	}
	defer store.Close()
	log.Info().Msg("存储服务初始化成功")

	ex, err := extract.New(ctx, extract.WithLogger(log))
	if err != nil {
		return err
	}
	renderOpts, err := a.renderOptions("")
	if err != nil {
		return err
	}

	opts := []handler.Option{
		handler.WithExtractor(ex),
		handler.WithRenderOptions(renderOpts...),
		handler.WithRequestTimeout(config.GetDuration(a.cfg.Server.RequestTimeout, handler.DefaultRequestTimeout)),
		handler.WithLogger(log),
	}
	if store.Artifacts != nil {
		opts = append(opts, handler.WithArtifactStore(store.Artifacts))
	}
	if store.Runs != nil {
		opts = append(opts, handler.WithRunHistory(store.Runs))
	}

	svc, err := a.tailorService(store, "")
	switch {
	case errors.Is(err, errNoAPIKey):
		log.Warn().Msg("未配置大模型 API Key，/tailor 接口不可用")
	case err != nil:
		return err
	default:
		opts = append(opts, handler.WithTailorService(svc))
		log.Info().Str("model", a.cfg.LLM.Model).Msg("定制服务初始化成功")
	}

	h := router.NewServer(a.cfg, handler.NewHandler(a.norm, opts...), log)
	log.Info().Str("address", a.cfg.Server.Address).Bool("auth", len(a.cfg.Server.APIKeys) > 0).Msg("HTTP 服务器启动中")

	errCh := make(chan error, 1)
	go func() {
		errCh <- h.Run()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
		log.Info().Msg("接收到终止信号，正在优雅退出...")
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := h.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("服务器关闭失败")
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("关闭链路追踪失败")
	}
	log.Info().Msg("优雅退出完成")
	return nil
}
