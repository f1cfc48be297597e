// 包 config：从环境变量（可选 .env 文件）读取服务配置
package config

import (
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Postgres：历史库连接参数
type Postgres struct {
	Host     string
	Port     string
	User     string
	Password string
	DB       string
	SSLMode  string
	MaxOpen  int
	MaxIdle  int
}

// DSN：构建 lib/pq 可用的连接串
// 约束：用户名与密码经 net/url 转义，含 @ / # 等字符的密码不会截断主机部分。
func (p Postgres) DSN() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.User(p.User),
		Host:     net.JoinHostPort(p.Host, p.Port),
		Path:     "/" + p.DB,
		RawQuery: url.Values{"sslmode": {p.SSLMode}}.Encode(),
	}
	if p.Password != "" {
		u.User = url.UserPassword(p.User, p.Password)
	}
	return u.String()
}

type Redis struct {
	Host     string
	Port     string
	Password string
	DB       int
}

func (r Redis) Addr() string { return r.Host + ":" + r.Port }

type Config struct {
	Addr       string
	APIBase    string
	AdminToken string

	HistoryEnabled bool
	Postgres       Postgres

	RedisEnabled bool
	Redis        Redis

	ReportCacheTTL time.Duration
	LocalCacheSize int
	LocalCacheTTL  time.Duration
	DedupeTTL      time.Duration

	GeoIPCountryPath string
	GeoIPASNPath     string
	IP2RegionV4Path  string

	RateLimitEnabled bool
	RateLimitQPS     int

	RetentionDays int
	PruneHour     int

	TLSEnable   bool
	TLSCertPath string
	TLSKeyPath  string

	HealthInterval time.Duration
}

// LoadDotenv：加载 .env 与 data/env/.env（不存在时忽略），已存在的环境变量不被覆盖
func LoadDotenv() {
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join("data", "env", ".env"))
}

// Load：加载 .env 后读取环境变量
func Load() Config {
	LoadDotenv()
	return FromEnv()
}

// FromEnv：仅读取当前环境变量
// 约束：数值解析失败时回退默认值，不报错。
func FromEnv() Config {
	return Config{
		Addr:       str("ADDR", ":8080"),
		APIBase:    strings.TrimRight(str("API_BASE", "/api"), "/"),
		AdminToken: os.Getenv("ADMIN_TOKEN"),

		HistoryEnabled: boolean("HISTORY_ENABLED", true),
		Postgres: Postgres{
			Host:     str("PG_HOST", "localhost"),
			Port:     str("PG_PORT", "5432"),
			User:     str("PG_USER", "postgres"),
			Password: os.Getenv("PG_PASSWORD"),
			DB:       str("PG_DB", "caprobe"),
			SSLMode:  str("PG_SSLMODE", "disable"),
			MaxOpen:  num("PG_MAX_OPEN_CONNS", 20),
			MaxIdle:  num("PG_MAX_IDLE_CONNS", 10),
		},

		RedisEnabled: boolean("REDIS_ENABLED", true),
		Redis: Redis{
			Host:     str("REDIS_HOST", "127.0.0.1"),
			Port:     str("REDIS_PORT", "6379"),
			Password: os.Getenv("REDIS_PASS"),
			DB:       nonNegative("REDIS_DB", 0),
		},

		ReportCacheTTL: seconds("REPORT_CACHE_TTL_SECONDS", 86400),
		LocalCacheSize: positive("LOCAL_CACHE_SIZE", 1024),
		LocalCacheTTL:  seconds("LOCAL_CACHE_TTL_SECONDS", 600),
		DedupeTTL:      seconds("DEDUPE_TTL_SECONDS", 600),

		GeoIPCountryPath: os.Getenv("GEOIP_COUNTRY_PATH"),
		GeoIPASNPath:     os.Getenv("GEOIP_ASN_PATH"),
		IP2RegionV4Path:  os.Getenv("IP2REGION_V4_PATH"),

		RateLimitEnabled: boolean("RATE_LIMIT_ENABLED", false),
		RateLimitQPS:     positive("RATE_LIMIT_QPS", 200),

		RetentionDays: positive("HISTORY_RETENTION_DAYS", 30),
		PruneHour:     hour("PRUNE_HOUR", 3),

		TLSEnable:   boolean("TLS_ENABLE", false),
		TLSCertPath: str("TLS_CERT_PATH", filepath.Join("data", "certs", "server.crt")),
		TLSKeyPath:  str("TLS_KEY_PATH", filepath.Join("data", "certs", "server.key")),

		HealthInterval: seconds("HEALTH_INTERVAL_SECONDS", 10),
	}
}

func str(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func boolean(key string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "true", "1", "yes":
		return true
	case "false", "0", "no":
		return false
	}
	return def
}

func num(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return n
		}
	}
	return def
}

func positive(key string, def int) int {
	if n := num(key, def); n > 0 {
		return n
	}
	return def
}

func nonNegative(key string, def int) int {
	if n := num(key, def); n >= 0 {
		return n
	}
	return def
}

func hour(key string, def int) int {
	if n := num(key, def); n >= 0 && n <= 23 {
		return n
	}
	return def
}

func seconds(key string, def int) time.Duration {
	return time.Duration(positive(key, def)) * time.Second
}
