package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/creamcroissant/boxbuild/internal/repository"
)

func TestNeedsHelper(t *testing.T) {
	assert.False(t, NeedsHelper(&repository.HysteriaBean{Address: "h", Ports: "443", Protocol: "udp"}))
	assert.True(t, NeedsHelper(&repository.HysteriaBean{Address: "h", Ports: "443,1000-2000"}))
	assert.True(t, NeedsHelper(&repository.HysteriaBean{Address: "h:20000-30000"}))
	assert.True(t, NeedsHelper(&repository.HysteriaBean{Address: "h", Ports: "443", Protocol: "faketcp"}))
	assert.True(t, NeedsHelper(&repository.TUICBean{Address: "t", Port: 443, Token: "tok"}))
	assert.False(t, NeedsHelper(&repository.TUICBean{Address: "t", Port: 443, UUID: "b831381d-6324-4d53-ad4f-8cda48b30811"}))
	assert.False(t, NeedsHelper(&repository.SOCKSBean{}))

	assert.Equal(t, PluginHysteria, HelperPlugin(&repository.HysteriaBean{}))
	assert.Equal(t, PluginTUIC, HelperPlugin(&repository.TUICBean{}))
	assert.Equal(t, "", HelperPlugin(&repository.SOCKSBean{}))

	assert.True(t, CanMap(&repository.HysteriaBean{}))
	assert.False(t, CanMap(&repository.ConfigBean{}))
}

func TestNeedsMux(t *testing.T) {
	opts := MuxOptions{Enabled: true, Protocols: []string{"vmess", "VLESS", "shadowsocks"}, Concurrency: 8}

	cases := []struct {
		name   string
		bean   repository.Bean
		opts   MuxOptions
		expect bool
	}{
		{"vmess tcp", &repository.StandardBean{Protocol: "vmess"}, opts, true},
		{"vmess grpc", &repository.StandardBean{Protocol: "vmess", Transport: repository.TransportSettings{Type: "grpc"}}, opts, false},
		{"vmess http plain", &repository.StandardBean{Protocol: "vmess", Transport: repository.TransportSettings{Type: "http"}}, opts, true},
		{"vmess http tls", &repository.StandardBean{Protocol: "vmess", Transport: repository.TransportSettings{Type: "http"}, TLS: repository.TLSSettings{Enabled: true}}, opts, false},
		{"vless with flow", &repository.StandardBean{Protocol: "vless", Flow: "xtls-rprx-vision"}, opts, false},
		{"vless ws", &repository.StandardBean{Protocol: "vless", Transport: repository.TransportSettings{Type: "ws"}}, opts, true},
		{"trojan not listed", &repository.StandardBean{Protocol: "trojan"}, opts, false},
		{"ss", &repository.ShadowsocksBean{}, opts, true},
		{"ss uot", &repository.ShadowsocksBean{UDPOverTCP: true}, opts, false},
		{"disabled", &repository.StandardBean{Protocol: "vmess"}, MuxOptions{Protocols: []string{"vmess"}}, false},
		{"socks", &repository.SOCKSBean{}, opts, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expect, NeedsMux(tc.bean, tc.opts))
		})
	}

	assert.Equal(t, map[string]any{"enabled": true, "protocol": "h2mux", "max_streams": 8}, Multiplex(MuxOptions{Type: "h2mux", Concurrency: 8}))
}
