package protocol

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/creamcroissant/boxbuild/internal/repository"
)

const testHostKey = "ssh-ed25519 AAAAC3NzaC1lZDI1NTE5AAAAIOMqqnkVzrm0SdG6UOoqKLsabgH5C9okWi0dh2l9GKJl"

func TestBuildOutbound(t *testing.T) {
	cases := []struct {
		name   string
		bean   repository.Bean
		expect map[string]any
	}{
		{
			name: "vmess over ws with tls",
			bean: &repository.StandardBean{
				Protocol:  "vmess",
				Address:   "v.example.com",
				Port:      443,
				UUID:      "B831381D-6324-4D53-AD4F-8CDA48B30811",
				Transport: repository.TransportSettings{Type: "ws", Path: "/ray", Host: "cdn.example.com"},
				TLS:       repository.TLSSettings{Enabled: true, ServerName: "cdn.example.com"},
			},
			expect: map[string]any{
				"type":        "vmess",
				"server":      "v.example.com",
				"server_port": 443,
				"uuid":        "b831381d-6324-4d53-ad4f-8cda48b30811",
				"alter_id":    0,
				"security":    "auto",
				"tls":         map[string]any{"enabled": true, "server_name": "cdn.example.com"},
				"transport": map[string]any{
					"type":    "ws",
					"path":    "/ray",
					"headers": map[string]any{"Host": "cdn.example.com"},
				},
			},
		},
		{
			name: "vless reality",
			bean: &repository.StandardBean{
				Protocol: "vless",
				Address:  "1.2.3.4",
				Port:     443,
				UUID:     "b831381d-6324-4d53-ad4f-8cda48b30811",
				Flow:     "xtls-rprx-vision",
				TLS: repository.TLSSettings{
					Enabled:          true,
					ServerName:       "www.microsoft.com",
					RealityPublicKey: "pub",
					RealityShortID:   "0123",
				},
			},
			expect: map[string]any{
				"type":        "vless",
				"server":      "1.2.3.4",
				"server_port": 443,
				"uuid":        "b831381d-6324-4d53-ad4f-8cda48b30811",
				"flow":        "xtls-rprx-vision",
				"tls": map[string]any{
					"enabled":     true,
					"server_name": "www.microsoft.com",
					"reality":     map[string]any{"enabled": true, "public_key": "pub", "short_id": "0123"},
					"utls":        map[string]any{"enabled": true, "fingerprint": "chrome"},
				},
			},
		},
		{
			name: "http proxy",
			bean: &repository.StandardBean{Protocol: "http", Address: "10.0.0.1", Port: 3128, Username: "u", Password: "p"},
			expect: map[string]any{
				"type": "http", "server": "10.0.0.1", "server_port": 3128, "username": "u", "password": "p",
			},
		},
		{
			name: "socks default version",
			bean: &repository.SOCKSBean{Address: "10.0.0.2", Port: 1080},
			expect: map[string]any{
				"type": "socks", "server": "10.0.0.2", "server_port": 1080, "version": "5",
			},
		},
		{
			name: "shadowsocks with sip002 plugin",
			bean: &repository.ShadowsocksBean{Address: "ss.example.com", Port: 8388, Method: "aes-256-gcm", Password: "pw", Plugin: "simple-obfs;obfs=http"},
			expect: map[string]any{
				"type": "shadowsocks", "server": "ss.example.com", "server_port": 8388,
				"method": "aes-256-gcm", "password": "pw", "plugin": "obfs-local", "plugin_opts": "obfs=http",
			},
		},
		{
			name: "wireguard",
			bean: &repository.WireGuardBean{Address: "wg.example.com", Port: 51820, LocalAddress: []string{"172.16.0.2/32"}, PrivateKey: "priv", PeerPublicKey: "peer", MTU: 1408},
			expect: map[string]any{
				"type": "wireguard", "server": "wg.example.com", "server_port": 51820,
				"local_address": []string{"172.16.0.2/32"}, "private_key": "priv", "peer_public_key": "peer", "mtu": 1408,
			},
		},
		{
			name: "ssh with host keys",
			bean: &repository.SSHBean{Address: "ssh.example.com", Port: 22, Username: "root", AuthType: "password", Password: "pw", HostKeys: []string{testHostKey + " comment", "garbage"}},
			expect: map[string]any{
				"type": "ssh", "server": "ssh.example.com", "server_port": 22, "user": "root", "password": "pw",
				"host_key": []string{testHostKey},
			},
		},
		{
			name: "hysteria2",
			bean: &repository.HysteriaBean{Version: 2, Address: "hy.example.com", Ports: "443", AuthPayload: "secret", Obfuscation: "salt", ALPN: "h3"},
			expect: map[string]any{
				"type": "hysteria2", "server": "hy.example.com", "server_port": 443, "password": "secret",
				"obfs": map[string]any{"type": "salamander", "password": "salt"},
				"tls":  map[string]any{"enabled": true, "alpn": []string{"h3"}},
			},
		},
		{
			name: "shadowtls",
			bean: &repository.ShadowTLSBean{Address: "stls.example.com", Port: 443, Password: "pw", TLS: repository.TLSSettings{ServerName: "www.apple.com"}},
			expect: map[string]any{
				"type": "shadowtls", "server": "stls.example.com", "server_port": 443, "version": 3, "password": "pw",
				"tls": map[string]any{"enabled": true, "server_name": "www.apple.com"},
			},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out, err := BuildOutbound(tc.bean)
			require.NoError(t, err)
			assert.Equal(t, tc.expect, out)
		})
	}
}

func TestBuildOutboundRawConfig(t *testing.T) {
	out, err := BuildOutbound(&repository.ConfigBean{Mode: repository.ConfigModeOutbound, Content: `{"type":"direct","routing_mark":4294967295}`})
	require.NoError(t, err)
	assert.Equal(t, "direct", out["type"])
	assert.Equal(t, json.Number("4294967295"), out["routing_mark"])

	_, err = BuildOutbound(&repository.ConfigBean{Content: `[1,2]`})
	assert.ErrorIs(t, err, ErrInvalidRawConfig)
	_, err = BuildOutbound(&repository.ConfigBean{Content: `{"type":`})
	assert.ErrorIs(t, err, ErrInvalidRawConfig)
}

func TestBuildOutboundErrors(t *testing.T) {
	_, err := BuildOutbound(&repository.ChainBean{})
	assert.ErrorIs(t, err, ErrUnsupportedBean)

	_, err = BuildOutbound(&repository.StandardBean{Protocol: "trojan", Transport: repository.TransportSettings{Type: "kcp"}})
	assert.ErrorIs(t, err, ErrUnsupportedTransport)
}

func TestNormalizeUUID(t *testing.T) {
	assert.Equal(t, "", NormalizeUUID("  "))
	assert.Equal(t, "b831381d-6324-4d53-ad4f-8cda48b30811", NormalizeUUID("b831381d-6324-4d53-ad4f-8cda48b30811"))
	derived := NormalizeUUID("my-custom-id")
	assert.Len(t, derived, 36)
	assert.Equal(t, derived, NormalizeUUID("my-custom-id"))
	assert.NotEqual(t, derived, NormalizeUUID("other-id"))
}
