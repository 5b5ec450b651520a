package service

import (
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/creamcroissant/boxbuild/internal/bootstrap"
	"github.com/creamcroissant/boxbuild/internal/builder"
	"github.com/creamcroissant/boxbuild/internal/config"
	"github.com/creamcroissant/boxbuild/internal/repository/sqlite"
	"github.com/creamcroissant/boxbuild/internal/support/logging"
)

const serviceSeed = `
groups:
  - key: jp
    name: Japan
    selector: true
profiles:
  - key: tokyo
    group: jp
    name: Tokyo
    type: vless
    settings:
      address: tokyo.example.com
      port: 443
      uuid: b831381d-6324-4d53-ad4f-8cda48b30811
      tls:
        enabled: true
        server_name: tokyo.example.com
  - key: osaka
    group: jp
    name: Osaka
    type: shadowsocks
    settings:
      address: 10.0.0.2
      port: 8388
      method: 2022-blake3-aes-128-gcm
      password: c2VjcmV0c2VjcmV0c2VjcmV0
rules:
  - name: ads
    domains: ["geosite:category-ads-all"]
    outbound: block
  - name: osaka only
    domains: ["example.jp"]
    port: "80,443"
    outbound: osaka
`

type serviceFixture struct {
	service ConfigBuildService
	metrics *BuildMetrics
	ids     map[string]int64
}

func newServiceFixture(t *testing.T, settings builder.Settings) *serviceFixture {
	t.Helper()
	db, err := bootstrap.OpenMigrated(filepath.Join(t.TempDir(), "boxbuild.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store := sqlite.NewStore(db)
	report, err := bootstrap.Import(context.Background(), store, strings.NewReader(serviceSeed))
	require.NoError(t, err)

	b := builder.New(builder.Sources{
		Profiles: store.Profiles(),
		Groups:   store.Groups(),
		Rules:    store.Rules(),
		Settings: builder.StaticSettings(settings),
	})
	metrics := NewBuildMetrics(prometheus.NewRegistry(), "test")
	return &serviceFixture{
		service: NewConfigBuildService(b, store.Profiles(), metrics, logging.Discard()),
		metrics: metrics,
		ids:     report.ProfileIDs,
	}
}

func defaultSettings() builder.Settings {
	engine := config.EngineConfig{
		ServiceMode:      "vpn",
		IPv6Mode:         "disable",
		RemoteDNS:        "https://dns.google/dns-query",
		DirectDNS:        "https://223.5.5.5/dns-query",
		EnableDNSRouting: true,
		MixedPort:        2080,
		LocalDNSPort:     6450,
		TunStack:         "mixed",
		MTU:              9000,
		LogLevel:         "warn",
	}
	return EngineSettings(engine, config.HelperConfig{PortStart: 30000, PortEnd: 30100})
}

func TestConfigBuildSelectorGroup(t *testing.T) {
	f := newServiceFixture(t, defaultSettings())

	result, err := f.service.Build(context.Background(), f.ids["tokyo"], "normal")
	require.NoError(t, err)

	var doc struct {
		Outbounds []map[string]any `json:"outbounds"`
		Route     struct {
			Rules []map[string]any `json:"rules"`
		} `json:"route"`
	}
	require.NoError(t, json.Unmarshal([]byte(result.Config), &doc))

	require.NotEmpty(t, doc.Outbounds)
	assert.Equal(t, "selector", doc.Outbounds[0]["type"])
	assert.Equal(t, []any{"Tokyo", "Osaka"}, doc.Outbounds[0]["outbounds"])
	assert.Equal(t, "Osaka", result.TagMap[f.ids["osaka"]])

	var osaka bool
	for _, rule := range doc.Route.Rules {
		if rule["outbound"] == "Osaka" {
			osaka = true
			assert.Equal(t, []any{float64(80), float64(443)}, rule["port"])
		}
	}
	assert.True(t, osaka)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.builds.WithLabelValues("normal", "ok")))
}

func TestConfigBuildExport(t *testing.T) {
	f := newServiceFixture(t, defaultSettings())

	result, err := f.service.Build(context.Background(), f.ids["tokyo"], "export")
	require.NoError(t, err)
	assert.Equal(t, int64(-1), result.SelectorGroupID)
	assert.NotContains(t, result.Config, `"selector"`)
}

func TestConfigBuildErrors(t *testing.T) {
	f := newServiceFixture(t, defaultSettings())

	_, err := f.service.Build(context.Background(), 9999, "")
	require.ErrorIs(t, err, ErrNotFound)
	require.ErrorIs(t, err, builder.ErrProfileNotFound)

	_, err = f.service.Build(context.Background(), f.ids["tokyo"], "bogus")
	require.ErrorIs(t, err, ErrInvalidMode)

	settings := defaultSettings()
	settings.RemoteDNS = ""
	f = newServiceFixture(t, settings)
	_, err = f.service.Build(context.Background(), f.ids["osaka"], "normal")
	require.ErrorIs(t, err, ErrBuildFailed)
	require.ErrorIs(t, err, builder.ErrNoRemoteDNS)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.builds.WithLabelValues("normal", "error")))
}

func TestListProfiles(t *testing.T) {
	f := newServiceFixture(t, defaultSettings())
	profiles, err := f.service.ListProfiles(context.Background())
	require.NoError(t, err)
	assert.Len(t, profiles, 2)
}

func TestEngineSettings(t *testing.T) {
	settings := EngineSettings(config.EngineConfig{
		ServiceMode:    "proxy",
		IPv6Mode:       "prefer",
		TransproxyMode: "TProxy",
		Mux:            config.MuxConfig{Enabled: true, Protocols: []string{"vmess"}, Type: "smux", Concurrency: 4},
		ClashAPI:       config.ClashAPIConfig{Enabled: true, Controller: "127.0.0.1:9090"},
	}, config.HelperConfig{PortStart: 31000, PortEnd: 31010, Probe: true})

	assert.False(t, settings.VPNMode)
	assert.Equal(t, builder.IPv6Prefer, settings.IPv6)
	assert.Equal(t, builder.TransproxyTProxy, settings.TransproxyMode)
	assert.Equal(t, "smux", settings.Mux.Type)
	assert.True(t, settings.ClashAPI.Enabled)
	assert.Equal(t, builder.PortRange{Start: 31000, End: 31010, Probe: true}, settings.HelperPorts)
}
