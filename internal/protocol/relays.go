package protocol

import (
	"strings"

	"github.com/creamcroissant/boxbuild/internal/repository"
)

func buildSocksOutbound(b *repository.SOCKSBean) map[string]any {
	out := map[string]any{"type": "socks"}
	serverFields(out, b.Address, b.Port)
	version := strings.TrimSpace(b.Version)
	if version == "" {
		version = "5"
	}
	out["version"] = version
	setString(out, "username", b.Username)
	setString(out, "password", b.Password)
	if b.UDPOverTCP {
		out["udp_over_tcp"] = true
	}
	return out
}

func buildShadowsocksOutbound(b *repository.ShadowsocksBean) map[string]any {
	out := map[string]any{"type": "shadowsocks"}
	serverFields(out, b.Address, b.Port)
	out["method"] = b.Method
	out["password"] = b.Password

	plugin, opts := b.Plugin, b.PluginOpts
	// "name;opts" is the SIP002 query form
	if name, rest, found := strings.Cut(plugin, ";"); found {
		plugin = name
		if opts == "" {
			opts = rest
		}
	}
	if plugin = strings.TrimSpace(plugin); plugin != "" {
		if plugin == "simple-obfs" {
			plugin = "obfs-local"
		}
		out["plugin"] = plugin
		setString(out, "plugin_opts", opts)
	}
	if b.UDPOverTCP {
		out["udp_over_tcp"] = true
	}
	return out
}

func buildWireGuardOutbound(b *repository.WireGuardBean) map[string]any {
	out := map[string]any{"type": "wireguard"}
	serverFields(out, b.Address, b.Port)
	out["local_address"] = nonEmpty(b.LocalAddress)
	out["private_key"] = b.PrivateKey
	out["peer_public_key"] = b.PeerPublicKey
	setString(out, "pre_shared_key", b.PreSharedKey)
	setInt(out, "mtu", b.MTU)
	if len(b.Reserved) > 0 {
		out["reserved"] = b.Reserved
	}
	return out
}

func buildShadowTLSOutbound(b *repository.ShadowTLSBean) map[string]any {
	out := map[string]any{"type": "shadowtls"}
	serverFields(out, b.Address, b.Port)
	version := b.Version
	if version == 0 {
		version = 3
	}
	out["version"] = version
	setString(out, "password", b.Password)
	settings := b.TLS
	settings.Enabled = true
	out["tls"] = buildTLS(settings)
	return out
}
