package protocol

import (
	"slices"
	"strings"

	"github.com/creamcroissant/boxbuild/internal/repository"
)

// Helper plugin ids.
const (
	PluginHysteria = "hysteria-plugin"
	PluginTUIC     = "tuic-plugin"
)

// MuxOptions mirrors the engine multiplex settings.
type MuxOptions struct {
	Enabled     bool
	Protocols   []string
	Type        string
	Concurrency int
}

// NeedsHelper reports whether the bean can only be served by an external
// helper process: port-hopping or non-UDP Hysteria, and token based
// (pre-v5) TUIC.
func NeedsHelper(bean repository.Bean) bool {
	switch b := bean.(type) {
	case *repository.HysteriaBean:
		protocol := strings.ToLower(strings.TrimSpace(b.Protocol))
		return b.MultiPort() || (protocol != "" && protocol != "udp")
	case *repository.TUICBean:
		return strings.TrimSpace(b.UUID) == ""
	default:
		return false
	}
}

// HelperPlugin returns the helper plugin id serving the bean, or "".
func HelperPlugin(bean repository.Bean) string {
	switch bean.(type) {
	case *repository.HysteriaBean:
		return PluginHysteria
	case *repository.TUICBean:
		return PluginTUIC
	default:
		return ""
	}
}

// CanMap reports whether helper traffic for the bean may be looped back
// through a mapping inbound.
func CanMap(bean repository.Bean) bool {
	switch bean.(type) {
	case *repository.ConfigBean, *repository.ChainBean, nil:
		return false
	default:
		return true
	}
}

// NeedsMux reports whether engine-level multiplexing applies to the bean.
func NeedsMux(bean repository.Bean, opts MuxOptions) bool {
	if !opts.Enabled {
		return false
	}
	switch b := bean.(type) {
	case *repository.StandardBean:
		kind := b.Kind()
		if kind != repository.KindVMess && kind != repository.KindVLESS && kind != repository.KindTrojan {
			return false
		}
		if kind == repository.KindVLESS && b.Flow != "" {
			return false
		}
		return muxTransport(b) && muxEnabledFor(opts, string(kind))
	case *repository.ShadowsocksBean:
		return !b.UDPOverTCP && muxEnabledFor(opts, string(repository.KindShadowsocks))
	default:
		return false
	}
}

// Multiplex returns the outbound multiplex block.
func Multiplex(opts MuxOptions) map[string]any {
	block := map[string]any{"enabled": true}
	setString(block, "protocol", opts.Type)
	setInt(block, "max_streams", opts.Concurrency)
	return block
}

func muxTransport(b *repository.StandardBean) bool {
	switch strings.ToLower(strings.TrimSpace(b.Transport.Type)) {
	case "", "tcp", "ws", "httpupgrade":
		return true
	case "http":
		return !b.TLS.Enabled
	default:
		return false
	}
}

func muxEnabledFor(opts MuxOptions, protocol string) bool {
	return slices.ContainsFunc(opts.Protocols, func(p string) bool {
		return strings.EqualFold(strings.TrimSpace(p), protocol)
	})
}
