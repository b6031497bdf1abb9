package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"

	"github.com/gaspardpetit/chatpredict/internal/config"
	"github.com/gaspardpetit/chatpredict/internal/generator"
	"github.com/gaspardpetit/chatpredict/internal/logx"
	"github.com/gaspardpetit/chatpredict/internal/redisx"
	"github.com/gaspardpetit/chatpredict/internal/server"
	"github.com/gaspardpetit/chatpredict/internal/serverstate"
)

var (
	version   = "dev"
	buildSHA  = "unknown"
	buildDate = "unknown"
)

func versionLine() string {
	return fmt.Sprintf("chatpredict version=%s sha=%s date=%s", version, buildSHA, buildDate)
}

// loadConfig resolves the configuration with precedence
// defaults < file < environment < flags.
func loadConfig(args []string, output io.Writer) (config.ServerConfig, bool, error) {
	// the config file path itself may come from the environment or a flag
	var probe config.ServerConfig
	probe.SetDefaults()
	probe.ApplyEnv()
	pfs := flag.NewFlagSet("probe", flag.ContinueOnError)
	pfs.SetOutput(io.Discard)
	pfs.Bool("version", false, "")
	probe.BindFlags(pfs)
	_ = pfs.Parse(args)

	// defaults go in first so that an explicit zero in the file survives
	var cfg config.ServerConfig
	cfg.SetDefaults()
	if err := cfg.LoadFile(probe.ConfigFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return cfg, false, err
	}
	cfg.ConfigFile = probe.ConfigFile
	cfg.ApplyEnv()

	fs := flag.NewFlagSet("chatpredict", flag.ContinueOnError)
	fs.SetOutput(output)
	showVersion := fs.Bool("version", false, "print version and exit")
	cfg.BindFlags(fs)
	fs.Usage = func() {
		_, _ = fmt.Fprintf(fs.Output(), "%s\n\n", versionLine())
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return cfg, false, err
	}
	return cfg, *showVersion, nil
}

// instanceID names this process in shared stores.
func instanceID() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "chatpredict"
	}
	return host + "-" + uuid.NewString()[:8]
}

// serve runs srv on ln until ctx is done, then shuts it down gracefully. It
// returns only once in-flight requests have finished or timeout expired.
func serve(ctx context.Context, srv *http.Server, ln net.Listener, timeout time.Duration) error {
	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	sctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	err := srv.Shutdown(sctx)
	if serr := <-errCh; serr != nil && !errors.Is(serr, http.ErrServerClosed) && err == nil {
		err = serr
	}
	return err
}

// checkOllama warns when the configured model is not installed upstream.
func checkOllama(ctx context.Context, o *generator.Ollama) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	models, err := o.Models(ctx)
	if err != nil {
		logx.Log.Warn().Err(err).Str("url", o.BaseURL).Msg("ollama unreachable")
		return
	}
	if !slices.Contains(models, o.Model) && !slices.Contains(models, o.Model+":latest") {
		logx.Log.Warn().Str("model", o.Model).Strs("available", models).Msg("ollama model not found")
	}
}

func main() {
	cfg, showVersion, err := loadConfig(os.Args[1:], os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		logx.Log.Fatal().Err(err).Msg("load config")
	}
	if showVersion {
		fmt.Println(versionLine())
		return
	}
	logx.Configure(cfg.LogLevel)
	if err := cfg.Validate(); err != nil {
		logx.Log.Fatal().Err(err).Msg("invalid config")
	}

	ctx := context.Background()
	gen, err := generator.New(cfg)
	if err != nil {
		logx.Log.Fatal().Err(err).Msg("build generator")
	}
	if o, ok := gen.(*generator.Ollama); ok {
		checkOllama(ctx, o)
	}
	logx.Log.Info().Str("generator", cfg.Generator).Msg("response generator ready")

	var (
		rdb   redis.UniversalClient
		store serverstate.Store
	)
	if cfg.RedisAddr != "" {
		rdb, err = redisx.Connect(ctx, cfg.RedisAddr)
		if err != nil {
			logx.Log.Fatal().Err(err).Str("addr", redisx.Redact(cfg.RedisAddr)).Msg("connect redis")
		}
		id := instanceID()
		if store, err = serverstate.NewRedisStore(ctx, rdb, id); err != nil {
			logx.Log.Fatal().Err(err).Msg("redis state store")
		}
		logx.Log.Info().Str("addr", redisx.Redact(cfg.RedisAddr)).Str("instance", id).Dur("ttl", cfg.CacheTTL).Msg("using redis answer cache")
	}
	tracker := serverstate.NewTracker(store)

	preg := prometheus.NewRegistry()
	handler, err := server.New(cfg, server.Deps{
		Generator: gen,
		Redis:     rdb,
		Tracker:   tracker,
		Registry:  preg,
		Version:   version,
		BuildSHA:  buildSHA,
		BuildDate: buildDate,
	})
	if err != nil {
		logx.Log.Fatal().Err(err).Msg("build server")
	}
	srv := &http.Server{Addr: cfg.ListenAddr(), Handler: handler, ReadHeaderTimeout: 10 * time.Second}
	var metricsSrv *http.Server
	if cfg.SeparateMetrics() {
		metricsSrv = &http.Server{Addr: cfg.MetricsAddr, Handler: server.MetricsHandler(preg), ReadHeaderTimeout: 10 * time.Second}
	}

	ctx, cancel := context.WithCancel(ctx)
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		for range sigCh {
			if tracker.IsDraining() || cfg.DrainTimeout == 0 {
				logx.Log.Warn().Msg("termination requested")
				cancel()
				return
			}
			tracker.StartDrain()
			if cfg.DrainTimeout > 0 {
				logx.Log.Info().Dur("timeout", cfg.DrainTimeout).Msg("draining; send SIGTERM again to terminate immediately")
				go func(d time.Duration) {
					time.Sleep(d)
					logx.Log.Info().Msg("drain period over; shutting down")
					cancel()
				}(cfg.DrainTimeout)
			} else {
				logx.Log.Info().Msg("draining; send SIGTERM again to terminate immediately")
			}
		}
	}()
	ln, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		logx.Log.Fatal().Err(err).Str("addr", srv.Addr).Msg("listen")
	}
	var wg sync.WaitGroup
	if metricsSrv != nil {
		mln, err := net.Listen("tcp", metricsSrv.Addr)
		if err != nil {
			logx.Log.Fatal().Err(err).Str("addr", metricsSrv.Addr).Msg("listen metrics")
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			logx.Log.Info().Str("addr", cfg.MetricsAddr).Msg("metrics server starting")
			if err := serve(ctx, metricsSrv, mln, 5*time.Second); err != nil {
				logx.Log.Error().Err(err).Msg("metrics server error")
			}
		}()
	}

	tracker.MarkReady()
	logx.Log.Info().Int("port", cfg.Port).Bool("mcp", cfg.MCPEnabled).Msg("server starting")
	// in-flight requests are bounded by the request timeout
	err = serve(ctx, srv, ln, cfg.RequestTimeout+5*time.Second)
	cancel()
	wg.Wait()
	if rdb != nil {
		_ = rdb.Close()
	}
	if err != nil {
		logx.Log.Fatal().Err(err).Msg("server error")
	}
	logx.Log.Info().Msg("server stopped")
}
