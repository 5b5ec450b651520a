package repository

import (
	"encoding/json"
	"fmt"
	"net"
	"net/netip"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// BeanKind identifies the protocol variant stored in a profile.
type BeanKind string

const (
	KindHTTP        BeanKind = "http"
	KindTrojan      BeanKind = "trojan"
	KindVMess       BeanKind = "vmess"
	KindVLESS       BeanKind = "vless"
	KindSOCKS       BeanKind = "socks"
	KindShadowsocks BeanKind = "shadowsocks"
	KindWireGuard   BeanKind = "wireguard"
	KindSSH         BeanKind = "ssh"
	KindHysteria    BeanKind = "hysteria"
	KindTUIC        BeanKind = "tuic"
	KindShadowTLS   BeanKind = "shadowtls"
	KindConfig      BeanKind = "config"
	KindChain       BeanKind = "chain"
)

// Bean is the protocol payload of a profile. Implementations form a closed set.
type Bean interface {
	Kind() BeanKind
	Server() (string, int)
}

// TransportSettings describes the V2Ray-style transport layer.
type TransportSettings struct {
	Type                string `json:"type,omitempty"`
	Host                string `json:"host,omitempty"`
	Path                string `json:"path,omitempty"`
	ServiceName         string `json:"service_name,omitempty"`
	MaxEarlyData        int    `json:"max_early_data,omitempty"`
	EarlyDataHeaderName string `json:"early_data_header_name,omitempty"`
}

// TLSSettings describes client TLS, uTLS and Reality options.
type TLSSettings struct {
	Enabled          bool     `json:"enabled,omitempty"`
	ServerName       string   `json:"server_name,omitempty"`
	ALPN             []string `json:"alpn,omitempty"`
	Insecure         bool     `json:"insecure,omitempty"`
	Fingerprint      string   `json:"fingerprint,omitempty"`
	Certificate      string   `json:"certificate,omitempty"`
	RealityPublicKey string   `json:"reality_public_key,omitempty"`
	RealityShortID   string   `json:"reality_short_id,omitempty"`
}

// StandardBean covers the http/trojan/vmess/vless relays.
type StandardBean struct {
	Protocol       string            `json:"protocol"`
	Address        string            `json:"address"`
	Port           int               `json:"port"`
	Username       string            `json:"username,omitempty"`
	Password       string            `json:"password,omitempty"`
	UUID           string            `json:"uuid,omitempty"`
	AlterID        int               `json:"alter_id,omitempty"`
	Security       string            `json:"security,omitempty"`
	Flow           string            `json:"flow,omitempty"`
	PacketEncoding string            `json:"packet_encoding,omitempty"`
	Transport      TransportSettings `json:"transport"`
	TLS            TLSSettings       `json:"tls"`
}

func (b *StandardBean) Kind() BeanKind        { return BeanKind(strings.ToLower(b.Protocol)) }
func (b *StandardBean) Server() (string, int) { return b.Address, b.Port }

// SOCKSBean is a SOCKS4/4a/5 upstream.
type SOCKSBean struct {
	Address    string `json:"address"`
	Port       int    `json:"port"`
	Version    string `json:"version,omitempty"`
	Username   string `json:"username,omitempty"`
	Password   string `json:"password,omitempty"`
	UDPOverTCP bool   `json:"udp_over_tcp,omitempty"`
}

func (b *SOCKSBean) Kind() BeanKind        { return KindSOCKS }
func (b *SOCKSBean) Server() (string, int) { return b.Address, b.Port }

// ShadowsocksBean is a Shadowsocks upstream, optionally with a SIP003 plugin.
type ShadowsocksBean struct {
	Address    string `json:"address"`
	Port       int    `json:"port"`
	Method     string `json:"method"`
	Password   string `json:"password"`
	Plugin     string `json:"plugin,omitempty"`
	PluginOpts string `json:"plugin_opts,omitempty"`
	UDPOverTCP bool   `json:"udp_over_tcp,omitempty"`
}

func (b *ShadowsocksBean) Kind() BeanKind        { return KindShadowsocks }
func (b *ShadowsocksBean) Server() (string, int) { return b.Address, b.Port }

// WireGuardBean is a single-peer WireGuard upstream.
type WireGuardBean struct {
	Address       string   `json:"address"`
	Port          int      `json:"port"`
	LocalAddress  []string `json:"local_address"`
	PrivateKey    string   `json:"private_key"`
	PeerPublicKey string   `json:"peer_public_key"`
	PreSharedKey  string   `json:"pre_shared_key,omitempty"`
	MTU           int      `json:"mtu,omitempty"`
	Reserved      []int    `json:"reserved,omitempty"`
}

func (b *WireGuardBean) Kind() BeanKind        { return KindWireGuard }
func (b *WireGuardBean) Server() (string, int) { return b.Address, b.Port }

// SSH authentication modes.
const (
	SSHAuthNone       = "none"
	SSHAuthPassword   = "password"
	SSHAuthPrivateKey = "private_key"
)

// SSHBean is an SSH tunnel upstream.
type SSHBean struct {
	Address              string   `json:"address"`
	Port                 int      `json:"port"`
	Username             string   `json:"username"`
	AuthType             string   `json:"auth_type,omitempty"`
	Password             string   `json:"password,omitempty"`
	PrivateKey           string   `json:"private_key,omitempty"`
	PrivateKeyPassphrase string   `json:"private_key_passphrase,omitempty"`
	HostKeys             []string `json:"host_keys,omitempty"`
}

func (b *SSHBean) Kind() BeanKind        { return KindSSH }
func (b *SSHBean) Server() (string, int) { return b.Address, b.Port }

// HysteriaBean is a Hysteria v1/v2 upstream. Ports may list several ports or
// ranges ("443,20000-30000"), which only the external helper can serve.
type HysteriaBean struct {
	Version     int    `json:"version,omitempty"`
	Address     string `json:"address"`
	Ports       string `json:"ports"`
	Protocol    string `json:"protocol,omitempty"`
	AuthPayload string `json:"auth_payload,omitempty"`
	Obfuscation string `json:"obfuscation,omitempty"`
	ServerName  string `json:"server_name,omitempty"`
	ALPN        string `json:"alpn,omitempty"`
	Insecure    bool   `json:"insecure,omitempty"`
	UpMbps      int    `json:"up_mbps,omitempty"`
	DownMbps    int    `json:"down_mbps,omitempty"`
	HopInterval int    `json:"hop_interval,omitempty"`
}

func (b *HysteriaBean) Kind() BeanKind { return KindHysteria }

func (b *HysteriaBean) Server() (string, int) { return b.Host(), b.FirstPort() }

// MultiPort reports whether the bean uses port hopping.
func (b *HysteriaBean) MultiPort() bool {
	return strings.ContainsAny(b.portSpec(), ",-")
}

// Host returns the server host. Older records kept "host:ports" in Address.
func (b *HysteriaBean) Host() string {
	address := strings.TrimSpace(b.Address)
	if _, err := netip.ParseAddr(address); err == nil {
		return address
	}
	if host, _, err := net.SplitHostPort(address); err == nil {
		return host
	}
	return address
}

// FirstPort returns the first concrete port of the port list.
func (b *HysteriaBean) FirstPort() int {
	first := strings.SplitN(b.portSpec(), ",", 2)[0]
	first = strings.SplitN(first, "-", 2)[0]
	port, err := strconv.Atoi(strings.TrimSpace(first))
	if err != nil {
		return 0
	}
	return port
}

func (b *HysteriaBean) portSpec() string {
	if spec := strings.TrimSpace(b.Ports); spec != "" {
		return spec
	}
	if _, spec, err := net.SplitHostPort(strings.TrimSpace(b.Address)); err == nil {
		return spec
	}
	return ""
}

// TUICBean is a TUIC upstream served by the external helper.
type TUICBean struct {
	Address           string `json:"address"`
	Port              int    `json:"port"`
	UUID              string `json:"uuid,omitempty"`
	Token             string `json:"token,omitempty"`
	CongestionControl string `json:"congestion_control,omitempty"`
	UDPRelayMode      string `json:"udp_relay_mode,omitempty"`
	ALPN              string `json:"alpn,omitempty"`
	ServerName        string `json:"server_name,omitempty"`
	Insecure          bool   `json:"insecure,omitempty"`
}

func (b *TUICBean) Kind() BeanKind        { return KindTUIC }
func (b *TUICBean) Server() (string, int) { return b.Address, b.Port }

// ShadowTLSBean is a ShadowTLS wrapper upstream.
type ShadowTLSBean struct {
	Address  string      `json:"address"`
	Port     int         `json:"port"`
	Version  int         `json:"version,omitempty"`
	Password string      `json:"password,omitempty"`
	TLS      TLSSettings `json:"tls"`
}

func (b *ShadowTLSBean) Kind() BeanKind        { return KindShadowTLS }
func (b *ShadowTLSBean) Server() (string, int) { return b.Address, b.Port }

// Config bean modes.
const (
	ConfigModeOutbound = "outbound"
	ConfigModeFull     = "config"
)

// ConfigBean carries a raw engine document: either one outbound body or a
// complete configuration that replaces the whole build.
type ConfigBean struct {
	Mode    string `json:"mode"`
	Content string `json:"content"`
}

func (b *ConfigBean) Kind() BeanKind { return KindConfig }

// Server reads the server address from the raw outbound document.
func (b *ConfigBean) Server() (string, int) {
	if !gjson.Valid(b.Content) {
		return "", 0
	}
	result := gjson.GetMany(b.Content, "server", "server_port")
	return result[0].String(), int(result[1].Int())
}

// IsFullConfig reports whether the bean replaces the whole configuration.
func (b *ConfigBean) IsFullConfig() bool {
	return strings.EqualFold(strings.TrimSpace(b.Mode), ConfigModeFull)
}

// ChainBean references other profiles by id, entry first.
type ChainBean struct {
	Members []int64 `json:"members"`
}

func (b *ChainBean) Kind() BeanKind        { return KindChain }
func (b *ChainBean) Server() (string, int) { return "", 0 }

// DecodeBean builds the variant identified by kind from its JSON form.
func DecodeBean(kind BeanKind, raw []byte) (Bean, error) {
	var bean Bean
	switch BeanKind(strings.ToLower(string(kind))) {
	case KindHTTP, KindTrojan, KindVMess, KindVLESS:
		std := &StandardBean{}
		if err := unmarshalBean(raw, std); err != nil {
			return nil, err
		}
		std.Protocol = strings.ToLower(string(kind))
		return std, nil
	case KindSOCKS:
		bean = &SOCKSBean{}
	case KindShadowsocks:
		bean = &ShadowsocksBean{}
	case KindWireGuard:
		bean = &WireGuardBean{}
	case KindSSH:
		bean = &SSHBean{}
	case KindHysteria:
		bean = &HysteriaBean{}
	case KindTUIC:
		bean = &TUICBean{}
	case KindShadowTLS:
		bean = &ShadowTLSBean{}
	case KindConfig:
		bean = &ConfigBean{}
	case KindChain:
		bean = &ChainBean{}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBeanKind, kind)
	}
	if err := unmarshalBean(raw, bean); err != nil {
		return nil, err
	}
	return bean, nil
}

// EncodeBean serialises a bean for storage.
func EncodeBean(bean Bean) (BeanKind, []byte, error) {
	if bean == nil {
		return "", nil, fmt.Errorf("encode bean: nil bean")
	}
	data, err := json.Marshal(bean)
	if err != nil {
		return "", nil, fmt.Errorf("encode bean: %w", err)
	}
	return bean.Kind(), data, nil
}

func unmarshalBean(raw []byte, dest any) error {
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return fmt.Errorf("decode bean: %w", err)
	}
	return nil
}
