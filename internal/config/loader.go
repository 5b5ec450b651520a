package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Load reads config.yaml (if present), BOXBUILD_* env vars and defaults.
func Load() (*Config, error) {
	return LoadFile("")
}

// LoadFile is Load with an explicit config file path; an empty path searches
// the default locations.
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/boxbuild/")
	}

	v.SetEnvPrefix("BOXBUILD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindEnv("database.path", "BOXBUILD_DATABASE_PATH", "BOXBUILD_DB_PATH"); err != nil {
		return nil, fmt.Errorf("bind env database.path: %w", err)
	}
	if err := v.BindEnv("engine.remote_dns", "BOXBUILD_ENGINE_REMOTE_DNS", "BOXBUILD_REMOTE_DNS"); err != nil {
		return nil, fmt.Errorf("bind env engine.remote_dns: %w", err)
	}
	if err := v.BindEnv("engine.direct_dns", "BOXBUILD_ENGINE_DIRECT_DNS", "BOXBUILD_DIRECT_DNS"); err != nil {
		return nil, fmt.Errorf("bind env engine.direct_dns: %w", err)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("http.addr", "127.0.0.1:8080")
	v.SetDefault("http.shutdown_timeout", "15s")
	v.SetDefault("http.rate_limit", 120)
	v.SetDefault("http.rate_window", "1m")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.environment", "production")

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "data/boxbuild.db")

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.namespace", "boxbuild")

	v.SetDefault("packages.list_path", "")
	v.SetDefault("packages.refresh_schedule", "@every 10m")
	v.SetDefault("packages.load_timeout", "30s")
	v.SetDefault("packages.max_retries", 5)

	v.SetDefault("helper.dir", "plugins")
	v.SetDefault("helper.port_start", 30000)
	v.SetDefault("helper.port_end", 40000)
	v.SetDefault("helper.probe", false)

	v.SetDefault("engine.service_mode", "vpn")
	v.SetDefault("engine.ipv6_mode", "disable")
	v.SetDefault("engine.remote_dns", "https://dns.google/dns-query")
	v.SetDefault("engine.direct_dns", "https://223.5.5.5/dns-query")
	v.SetDefault("engine.direct_dns_use_system", false)
	v.SetDefault("engine.dns_network", []string{})
	v.SetDefault("engine.enable_dns_routing", true)
	v.SetDefault("engine.enable_fake_dns", false)
	v.SetDefault("engine.traffic_sniffing", true)
	v.SetDefault("engine.resolve_destination", false)
	v.SetDefault("engine.bypass_lan", true)
	v.SetDefault("engine.allow_access", false)
	v.SetDefault("engine.mixed_port", 2080)
	v.SetDefault("engine.local_dns_port", 6450)
	v.SetDefault("engine.require_transproxy", false)
	v.SetDefault("engine.transproxy_mode", "redirect")
	v.SetDefault("engine.transproxy_port", 9200)
	v.SetDefault("engine.tun_stack", "mixed")
	v.SetDefault("engine.mtu", 9000)
	v.SetDefault("engine.mux.enabled", false)
	v.SetDefault("engine.mux.protocols", []string{})
	v.SetDefault("engine.mux.type", "h2mux")
	v.SetDefault("engine.mux.concurrency", 8)
	v.SetDefault("engine.log_level", "warn")
	v.SetDefault("engine.clash_api.enabled", false)
	v.SetDefault("engine.clash_api.controller", "127.0.0.1:9090")
	v.SetDefault("engine.clash_api.ui", "../files/yacd")
	v.SetDefault("engine.clash_api.cache_file", "../cache/clash.db")
}
