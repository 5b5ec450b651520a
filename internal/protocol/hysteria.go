package protocol

import (
	"strings"

	"github.com/creamcroissant/boxbuild/internal/repository"
)

func buildHysteriaOutbound(b *repository.HysteriaBean) map[string]any {
	out := map[string]any{}
	serverFields(out, b.Host(), b.FirstPort())
	setInt(out, "up_mbps", b.UpMbps)
	setInt(out, "down_mbps", b.DownMbps)

	if b.Version == 2 {
		out["type"] = "hysteria2"
		setString(out, "password", b.AuthPayload)
		if b.Obfuscation != "" {
			out["obfs"] = map[string]any{
				"type":     "salamander",
				"password": b.Obfuscation,
			}
		}
	} else {
		out["type"] = "hysteria"
		setString(out, "auth_str", b.AuthPayload)
		setString(out, "obfs", b.Obfuscation)
	}

	out["tls"] = buildTLS(repository.TLSSettings{
		Enabled:    true,
		ServerName: b.ServerName,
		ALPN:       splitList(b.ALPN, ","),
		Insecure:   b.Insecure,
	})
	return out
}

func buildTUICOutbound(b *repository.TUICBean) (map[string]any, error) {
	out := map[string]any{"type": "tuic"}
	serverFields(out, b.Address, b.Port)
	out["uuid"] = NormalizeUUID(b.UUID)
	setString(out, "password", b.Token)
	congestion := strings.TrimSpace(b.CongestionControl)
	if congestion == "" {
		congestion = "cubic"
	}
	out["congestion_control"] = congestion
	setString(out, "udp_relay_mode", b.UDPRelayMode)
	out["tls"] = buildTLS(repository.TLSSettings{
		Enabled:    true,
		ServerName: b.ServerName,
		ALPN:       splitList(b.ALPN, ","),
		Insecure:   b.Insecure,
	})
	return out, nil
}
