// 程序入口：仅负责读取配置、初始化依赖并启动服务；API 注册在 internal/api 以便扩展
package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"ca-probe/internal/aggregation"
	"ca-probe/internal/api"
	"ca-probe/internal/config"
	"ca-probe/internal/geo"
	"ca-probe/internal/health"
	"ca-probe/internal/logger"
	"ca-probe/internal/metrics"
	"ca-probe/internal/middleware"
	"ca-probe/internal/migrate"
	"ca-probe/internal/reportcache"
	"ca-probe/internal/retention"
	"ca-probe/internal/store"
	"ca-probe/internal/utils"
)

func main() {
	cfg := config.Load()
	l := logger.Setup()
	l.Debug("log_init_ok")
	l.Debug("config_api_base", "base", cfg.APIBase)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mon := health.NewMonitor(cfg.HealthInterval)

	var st *store.Store
	if cfg.HistoryEnabled {
		st = openHistory(ctx, cfg)
		if st != nil {
			defer st.Close()
			mon.Register(health.Postgres(st))
			retention.Start(ctx, st, cfg.RetentionDays, cfg.PruneHour)
		}
	} else {
		l.Info("history_disabled")
	}

	rc := utils.OpenRedis(cfg)
	if rc == nil {
		l.Info("redis_disabled")
	} else {
		defer rc.Close()
		if err := rc.Ping(ctx).Err(); err != nil {
			l.Error("redis_ping_error", "err", err)
		} else {
			l.Info("redis_ping_ok")
		}
		mon.Register(health.Redis(rc))
	}
	mon.Start(ctx)

	cache := reportcache.NewTiered([]string{"local", "redis"},
		reportcache.NewLRU(cfg.LocalCacheSize, cfg.LocalCacheTTL),
		reportcache.NewRedis(rc, cfg.ReportCacheTTL),
	)
	cache.OnHit(func(tier string) { metrics.CacheHitsTotal.WithLabelValues(tier).Inc() })
	l.Debug("report_cache_tiers", "count", cache.Len())

	// 文档注释：归属库可热替换；启动时加载一次，/reload-geo 重新打开配置路径
	var (
		dgeo    geo.Dynamic
		geoMu   sync.Mutex
		current geo.Resolver
	)
	reloadGeo := func() error {
		geoMu.Lock()
		defer geoMu.Unlock()
		r := geo.Open(cfg.GeoIPCountryPath, cfg.GeoIPASNPath, cfg.IP2RegionV4Path)
		if r == nil && (cfg.GeoIPCountryPath != "" || cfg.GeoIPASNPath != "" || cfg.IP2RegionV4Path != "") {
			return errors.New("no geo database could be opened")
		}
		prev := current
		current = r
		dgeo.Set(r)
		if c, ok := prev.(interface{ Close() }); ok {
			// 等待进行中的查询结束后再关闭旧库
			time.AfterFunc(30*time.Second, c.Close)
		}
		return nil
	}
	if err := reloadGeo(); err != nil {
		l.Error("geo_init_error", "err", err)
	}

	deps := api.Deps{
		Classifier: aggregation.New(nil),
		Cache:      cache,
		Dedupe:     api.NewBloomDeduper(rc, cfg.DedupeTTL),
		Geo:        &dgeo,
		Health:     mon,
		ReloadGeo:  reloadGeo,
		AdminToken: cfg.AdminToken,
	}
	if st != nil {
		deps.History = st
	}

	mux := http.NewServeMux()
	apiMux := api.BuildRoutes(deps)
	mux.Handle(cfg.APIBase+"/", http.StripPrefix(cfg.APIBase, apiMux))
	mux.Handle(cfg.APIBase+"/metrics", metrics.Handler())

	handler := middleware.Stack(mux, l, cfg.RateLimitEnabled, cfg.RateLimitQPS)
	s := &http.Server{Addr: cfg.Addr, Handler: handler, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = s.Shutdown(sctx)
	}()

	var err error
	if cfg.TLSEnable {
		if e := utils.EnsureSelfSignedCert(cfg.TLSCertPath, cfg.TLSKeyPath, "ca-probe.local"); e != nil {
			l.Error("tls_cert_error", "err", e)
		}
		l.Info("listening_tls", "addr", cfg.Addr, "cert", cfg.TLSCertPath)
		err = s.ListenAndServeTLS(cfg.TLSCertPath, cfg.TLSKeyPath)
	} else {
		l.Info("listening", "addr", cfg.Addr)
		err = s.ListenAndServe()
	}
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		l.Error("server_error", "err", err)
		os.Exit(1)
	}
	l.Info("server_stopped")
}

// openHistory：打开历史库并建表；失败时关闭历史功能，判定服务照常启动
func openHistory(ctx context.Context, cfg config.Config) *store.Store {
	l := logger.L()
	db, err := utils.OpenPostgres(cfg.Postgres)
	if err != nil {
		l.Error("db_open_error", "err", err)
		return nil
	}
	if err := db.PingContext(ctx); err != nil {
		l.Error("db_ping_error", "err", err)
		return closeDB(db)
	}
	l.Info("db_ping_ok")
	if err := migrate.EnsureSchema(ctx, db); err != nil {
		l.Error("schema_error", "err", err)
		return closeDB(db)
	}
	return store.AttachDB(db)
}

func closeDB(db *sql.DB) *store.Store {
	_ = db.Close()
	return nil
}
