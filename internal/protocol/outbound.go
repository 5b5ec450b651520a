// 文件路径: internal/protocol/outbound.go
// 模块说明: 这是 internal 模块里的 outbound 逻辑，下面的注释会用非常通俗的中文帮你理解每一步。
package protocol

import (
	"fmt"

	"github.com/creamcroissant/boxbuild/internal/repository"
)

// BuildOutbound translates one bean into a sing-box outbound body. The
// caller sets tag, detour and domain_strategy.
func BuildOutbound(bean repository.Bean) (map[string]any, error) {
	switch b := bean.(type) {
	case *repository.ConfigBean:
		return buildRawOutbound(b)
	case *repository.ShadowTLSBean:
		return buildShadowTLSOutbound(b), nil
	case *repository.StandardBean:
		return buildStandardOutbound(b)
	case *repository.HysteriaBean:
		return buildHysteriaOutbound(b), nil
	case *repository.TUICBean:
		return buildTUICOutbound(b)
	case *repository.SOCKSBean:
		return buildSocksOutbound(b), nil
	case *repository.ShadowsocksBean:
		return buildShadowsocksOutbound(b), nil
	case *repository.WireGuardBean:
		return buildWireGuardOutbound(b), nil
	case *repository.SSHBean:
		return buildSSHOutbound(b), nil
	case nil:
		return nil, fmt.Errorf("%w: nil bean", ErrUnsupportedBean)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedBean, bean.Kind())
	}
}

// LoopbackSocks is the outbound that hands a hop to its helper process.
func LoopbackSocks(port int) map[string]any {
	return map[string]any{
		"type":        "socks",
		"server":      Localhost,
		"server_port": port,
	}
}

// Localhost is the loopback address helpers and mapping inbounds bind to.
const Localhost = "127.0.0.1"

func serverFields(out map[string]any, address string, port int) {
	out["server"] = address
	out["server_port"] = port
}

func setString(out map[string]any, key, value string) {
	if value != "" {
		out[key] = value
	}
}

func setInt(out map[string]any, key string, value int) {
	if value != 0 {
		out[key] = value
	}
}
