// 包 api：集中注册 HTTP API 路由以解耦主入口，便于后续扩展与替换
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"ca-probe/internal/aggregation"
	"ca-probe/internal/geo"
	"ca-probe/internal/health"
	"ca-probe/internal/logger"
	"ca-probe/internal/metrics"
	"ca-probe/internal/reportcache"
	"ca-probe/internal/snapshotio"
	"ca-probe/internal/store"
)

const maxBodyBytes = 1 << 20

// History：历史库读写（*store.Store 实现）
type History interface {
	Record(ctx context.Context, r store.Run) error
	GetTotals(ctx context.Context) (*store.Totals, error)
	History(ctx context.Context, device string, limit int) ([]store.Entry, error)
}

// HealthReporter：健康状态来源（*health.Monitor 实现）
type HealthReporter interface {
	Snapshot() map[string]health.Status
	Healthy() bool
}

// Deps：路由依赖；除 Classifier 外均可为 nil，对应功能随之关闭
type Deps struct {
	Classifier *aggregation.Classifier
	Cache      reportcache.Cache
	Dedupe     Deduper
	History    History
	Geo        geo.Resolver
	Health     HealthReporter
	ReloadGeo  func() error
	AdminToken string
}

// classifyResponse：判定接口返回结构
type classifyResponse struct {
	ID string `json:"id"`
	aggregation.Document
	Cached bool          `json:"cached"`
	Geo    *geo.Location `json:"geo,omitempty"`
}

type handlers struct {
	d Deps
}

// 构建并返回 API 路由：独立 ServeMux 便于在主入口挂载到 API_BASE 前缀
func BuildRoutes(d Deps) *http.ServeMux {
	if d.Classifier == nil {
		d.Classifier = aggregation.New(nil)
	}
	h := &handlers{d: d}
	mux := http.NewServeMux()
	mux.HandleFunc("/classify", h.classify)
	mux.HandleFunc("/network-types", h.networkTypes)
	mux.HandleFunc("/stats", h.stats)
	mux.HandleFunc("/history", h.history)
	mux.HandleFunc("/healthz", h.healthz)
	mux.HandleFunc("/reload-geo", h.reloadGeo)
	return mux
}

// 文档注释：判定接口
// 背景：解码快照后按摘要查缓存，未命中才运行判定；历史写入为尽力而为，失败只记日志。
// 约束：同一摘要的缓存命中与首次判定返回的 lines 完全一致；重复提交在去重窗口内只写一次历史。
func (h *handlers) classify(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	start := time.Now()
	ctx := r.Context()
	metrics.ClassifyRequestsTotal.Inc()

	snap, err := snapshotio.Decode(http.MaxBytesReader(w, r.Body, maxBodyBytes), snapshotio.FormatForContentType(r.Header.Get("content-type")))
	if err != nil {
		metrics.ClassifyBadRequestsTotal.Inc()
		logger.L().Debug("classify_decode_error", "err", err)
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "snapshot exceeds "+strconv.FormatInt(tooLarge.Limit, 10)+" bytes")
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	fp := snap.Fingerprint()
	doc, cached := h.lookup(ctx, fp)
	if !cached {
		rep := h.d.Classifier.Classify(snap)
		doc = h.d.Classifier.Document(rep)
		if n := aggregation.Dropped(snap); n > 0 {
			metrics.CellsDroppedTotal.Add(float64(n))
		}
		if h.d.Cache != nil {
			if b, err := json.Marshal(doc); err == nil {
				h.d.Cache.Set(ctx, fp, b)
			}
		}
	}
	for _, res := range doc.Results {
		metrics.VerdictsTotal.WithLabelValues(res.Technology, string(res.Verdict)).Inc()
	}

	run := store.NewRun(snap.DeviceID, fp, doc)
	resp := classifyResponse{ID: run.ID.String(), Document: doc, Cached: cached}
	if h.d.Geo != nil {
		if loc, ok := h.d.Geo.Lookup(geo.ClientIP(r)); ok {
			run.Country = loc.Country
			run.Operator = loc.Operator
			resp.Geo = &loc
		}
	}
	h.record(ctx, run)
	writeJSON(w, http.StatusOK, resp)

	ms := time.Since(start).Milliseconds()
	metrics.ClassifyDurationMs.Observe(float64(ms))
	logger.L().Info("classify_done", "device", snap.DeviceID, "network_type", snap.NetworkType, "cached", cached, "verdicts", doc.Summary(), "ms", ms)
}

func (h *handlers) lookup(ctx context.Context, fp string) (aggregation.Document, bool) {
	var doc aggregation.Document
	if h.d.Cache == nil {
		return doc, false
	}
	b, ok := h.d.Cache.Get(ctx, fp)
	if !ok {
		metrics.CacheMissesTotal.Inc()
		return doc, false
	}
	if err := json.Unmarshal(b, &doc); err != nil {
		logger.L().Debug("report_cache_decode_error", "err", err)
		return aggregation.Document{}, false
	}
	return doc, true
}

// record：去重键为设备与快照摘要，不同设备提交相同快照各自记录
func (h *handlers) record(ctx context.Context, run store.Run) {
	if h.d.History == nil {
		return
	}
	if h.d.Dedupe != nil && !h.d.Dedupe.FirstSeen(ctx, run.DeviceID+":"+run.Fingerprint) {
		metrics.DedupeSkippedTotal.Inc()
		logger.L().Debug("history_dedupe_skip", "device", run.DeviceID, "fingerprint", run.Fingerprint)
		return
	}
	if err := h.d.History.Record(ctx, run); err != nil {
		metrics.HistoryWritesTotal.WithLabelValues("error").Inc()
		logger.L().Warn("history_record_error", "err", err)
		return
	}
	metrics.HistoryWritesTotal.WithLabelValues("ok").Inc()
}

func (h *handlers) networkTypes(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"network_types": h.d.Classifier.Table().Entries()})
}

func (h *handlers) stats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	if h.d.History == nil {
		writeError(w, http.StatusServiceUnavailable, store.ErrDisabled.Error())
		return
	}
	t, err := h.d.History.GetTotals(r.Context())
	if err != nil {
		logger.L().Error("stats_error", "err", err)
		writeError(w, http.StatusInternalServerError, "stats unavailable")
		return
	}
	writeJSON(w, http.StatusOK, t)
}

func (h *handlers) history(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, http.MethodGet)
		return
	}
	if h.d.History == nil {
		writeError(w, http.StatusServiceUnavailable, store.ErrDisabled.Error())
		return
	}
	q := r.URL.Query()
	limit := 0
	if s := q.Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}
	limit = store.ClampLimit(limit)
	device := q.Get("device")
	items, err := h.d.History.History(r.Context(), device, limit)
	if err != nil {
		logger.L().Error("history_query_error", "err", err)
		writeError(w, http.StatusInternalServerError, "history unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"device": device, "limit": limit, "items": items})
}

func (h *handlers) healthz(w http.ResponseWriter, r *http.Request) {
	checks := map[string]health.Status{}
	ok := true
	if h.d.Health != nil {
		checks = h.d.Health.Snapshot()
		ok = h.d.Health.Healthy()
	}
	status, code := "ok", http.StatusOK
	if !ok {
		status, code = "degraded", http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]any{"status": status, "checks": checks})
}

// 文档注释：热替换归属库
// 约束：需要 x-admin-token 与 ADMIN_TOKEN 一致；未配置 ADMIN_TOKEN 时一律拒绝。
func (h *handlers) reloadGeo(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, http.MethodPost)
		return
	}
	t := r.Header.Get("x-admin-token")
	if t == "" || h.d.AdminToken == "" || t != h.d.AdminToken {
		writeError(w, http.StatusForbidden, "forbidden")
		return
	}
	if h.d.ReloadGeo == nil {
		writeError(w, http.StatusNotImplemented, "geo reload not configured")
		return
	}
	if err := h.d.ReloadGeo(); err != nil {
		logger.L().Error("geo_reload_error", "err", err)
		writeError(w, http.StatusInternalServerError, "reload failed")
		return
	}
	logger.L().Info("geo_reloaded")
	w.WriteHeader(http.StatusNoContent)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("content-type", "application/json; charset=utf-8")
	w.Header().Set("cache-control", "no-store")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func methodNotAllowed(w http.ResponseWriter, allow string) {
	w.Header().Set("allow", allow)
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}
