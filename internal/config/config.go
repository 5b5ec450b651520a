package config

import (
	"log/slog"
	"strings"
	"time"
)

// Config 汇总应用的全部配置。
type Config struct {
	HTTP     HTTPConfig     `mapstructure:"http"`
	Log      LogConfig      `mapstructure:"log"`
	DB       DBConfig       `mapstructure:"database"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Packages PackagesConfig `mapstructure:"packages"`
	Helper   HelperConfig   `mapstructure:"helper"`
	Engine   EngineConfig   `mapstructure:"engine"`
}

// MetricsConfig 定义 Prometheus 指标配置。
type MetricsConfig struct {
	Enabled   bool      `mapstructure:"enabled"`
	Namespace string    `mapstructure:"namespace"`
	Subsystem string    `mapstructure:"subsystem"`
	Buckets   []float64 `mapstructure:"buckets"`
}

// HTTPConfig 定义 HTTP 服务配置。
type HTTPConfig struct {
	Addr            string        `mapstructure:"addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	// RateLimit caps build requests per client in each RateWindow; 0 disables it.
	RateLimit  int           `mapstructure:"rate_limit"`
	RateWindow time.Duration `mapstructure:"rate_window"`
}

// LogConfig 定义日志配置。
type LogConfig struct {
	Level       string `mapstructure:"level"`
	Format      string `mapstructure:"format"`
	AddSource   bool   `mapstructure:"add_source"`
	Environment string `mapstructure:"environment"`
}

// DBConfig 定义数据库配置。
type DBConfig struct {
	Driver string `mapstructure:"driver"`
	Path   string `mapstructure:"path"`
}

// PackagesConfig 定义应用包名到 UID 的缓存来源。
type PackagesConfig struct {
	ListPath        string        `mapstructure:"list_path"`
	RefreshSchedule string        `mapstructure:"refresh_schedule"`
	LoadTimeout     time.Duration `mapstructure:"load_timeout"`
	MaxRetries      uint64        `mapstructure:"max_retries"`
}

// HelperConfig 定义外部协议辅助程序的位置与端口范围。
type HelperConfig struct {
	Dir       string `mapstructure:"dir"`
	PortStart int    `mapstructure:"port_start"`
	PortEnd   int    `mapstructure:"port_end"`
	Probe     bool   `mapstructure:"probe"`
}

// EngineConfig holds every tunable the config builder reads.
type EngineConfig struct {
	ServiceMode        string         `mapstructure:"service_mode"`
	IPv6Mode           string         `mapstructure:"ipv6_mode"`
	RemoteDNS          string         `mapstructure:"remote_dns"`
	DirectDNS          string         `mapstructure:"direct_dns"`
	DirectDNSUseSystem bool           `mapstructure:"direct_dns_use_system"`
	DNSNetwork         []string       `mapstructure:"dns_network"`
	EnableDNSRouting   bool           `mapstructure:"enable_dns_routing"`
	EnableFakeDNS      bool           `mapstructure:"enable_fake_dns"`
	TrafficSniffing    bool           `mapstructure:"traffic_sniffing"`
	ResolveDestination bool           `mapstructure:"resolve_destination"`
	BypassLAN          bool           `mapstructure:"bypass_lan"`
	AllowAccess        bool           `mapstructure:"allow_access"`
	MixedPort          int            `mapstructure:"mixed_port"`
	LocalDNSPort       int            `mapstructure:"local_dns_port"`
	RequireTransproxy  bool           `mapstructure:"require_transproxy"`
	TransproxyMode     string         `mapstructure:"transproxy_mode"`
	TransproxyPort     int            `mapstructure:"transproxy_port"`
	TunStack           string         `mapstructure:"tun_stack"`
	MTU                int            `mapstructure:"mtu"`
	Mux                MuxConfig      `mapstructure:"mux"`
	LogLevel           string         `mapstructure:"log_level"`
	ClashAPI           ClashAPIConfig `mapstructure:"clash_api"`
}

// MuxConfig 定义多路复用设置。
type MuxConfig struct {
	Enabled     bool     `mapstructure:"enabled"`
	Protocols   []string `mapstructure:"protocols"`
	Type        string   `mapstructure:"type"`
	Concurrency int      `mapstructure:"concurrency"`
}

// ClashAPIConfig 定义 experimental.clash_api 区块。
type ClashAPIConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	Controller string `mapstructure:"controller"`
	UI         string `mapstructure:"ui"`
	CacheFile  string `mapstructure:"cache_file"`
}

func (c LogConfig) SlogLevel() slog.Level {
	switch strings.ToLower(c.Level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
