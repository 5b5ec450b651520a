package protocol

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/creamcroissant/boxbuild/internal/repository"
)

func buildStandardOutbound(b *repository.StandardBean) (map[string]any, error) {
	kind := b.Kind()
	out := map[string]any{"type": string(kind)}
	serverFields(out, b.Address, b.Port)

	switch kind {
	case repository.KindHTTP:
		setString(out, "username", b.Username)
		setString(out, "password", b.Password)
	case repository.KindTrojan:
		out["password"] = b.Password
	case repository.KindVMess:
		out["uuid"] = NormalizeUUID(b.UUID)
		out["alter_id"] = b.AlterID
		security := b.Security
		if security == "" {
			security = "auto"
		}
		out["security"] = security
		setString(out, "packet_encoding", b.PacketEncoding)
	case repository.KindVLESS:
		out["uuid"] = NormalizeUUID(b.UUID)
		setString(out, "flow", b.Flow)
		setString(out, "packet_encoding", b.PacketEncoding)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedBean, kind)
	}

	if tls := buildTLS(b.TLS); tls != nil {
		out["tls"] = tls
	}
	if kind != repository.KindHTTP {
		transport, err := buildTransport(b.Transport)
		if err != nil {
			return nil, err
		}
		if transport != nil {
			out["transport"] = transport
		}
	}
	return out, nil
}

// NormalizeUUID returns id when it is a UUID, otherwise the name-based UUID
// derived from it, matching how V2Ray-family servers treat custom ids.
func NormalizeUUID(id string) string {
	id = strings.TrimSpace(id)
	if id == "" {
		return ""
	}
	if parsed, err := uuid.Parse(id); err == nil {
		return parsed.String()
	}
	return uuid.NewSHA1(uuid.Nil, []byte(id)).String()
}

func buildTLS(s repository.TLSSettings) map[string]any {
	if !s.Enabled {
		return nil
	}
	tls := map[string]any{"enabled": true}
	setString(tls, "server_name", s.ServerName)
	if s.Insecure {
		tls["insecure"] = true
	}
	if alpn := nonEmpty(s.ALPN); len(alpn) > 0 {
		tls["alpn"] = alpn
	}
	setString(tls, "certificate", s.Certificate)

	fingerprint := s.Fingerprint
	if s.RealityPublicKey != "" {
		tls["reality"] = map[string]any{
			"enabled":    true,
			"public_key": s.RealityPublicKey,
			"short_id":   s.RealityShortID,
		}
		// reality requires uTLS
		if fingerprint == "" {
			fingerprint = "chrome"
		}
	}
	if fingerprint != "" {
		tls["utls"] = map[string]any{
			"enabled":     true,
			"fingerprint": fingerprint,
		}
	}
	return tls
}

func buildTransport(s repository.TransportSettings) (map[string]any, error) {
	network := strings.ToLower(strings.TrimSpace(s.Type))
	switch network {
	case "", "tcp":
		return nil, nil
	case "ws":
		transport := map[string]any{"type": "ws"}
		setString(transport, "path", s.Path)
		if s.Host != "" {
			transport["headers"] = map[string]any{"Host": s.Host}
		}
		setInt(transport, "max_early_data", s.MaxEarlyData)
		setString(transport, "early_data_header_name", s.EarlyDataHeaderName)
		return transport, nil
	case "http", "h2":
		transport := map[string]any{"type": "http"}
		if hosts := splitList(s.Host, ","); len(hosts) > 0 {
			transport["host"] = hosts
		}
		setString(transport, "path", s.Path)
		return transport, nil
	case "httpupgrade":
		transport := map[string]any{"type": "httpupgrade"}
		setString(transport, "host", s.Host)
		setString(transport, "path", s.Path)
		return transport, nil
	case "grpc":
		transport := map[string]any{"type": "grpc"}
		setString(transport, "service_name", s.ServiceName)
		return transport, nil
	case "quic":
		return map[string]any{"type": "quic"}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedTransport, s.Type)
	}
}

// splitList splits on sep, trimming blanks away.
func splitList(value, sep string) []string {
	var out []string
	for _, part := range strings.Split(value, sep) {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func nonEmpty(values []string) []string {
	var out []string
	for _, v := range values {
		if trimmed := strings.TrimSpace(v); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
