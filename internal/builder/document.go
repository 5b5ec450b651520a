// 文件路径: internal/builder/document.go
// 模块说明: 这是 internal 模块里的 document 逻辑，下面的注释会用非常通俗的中文帮你理解每一步。
package builder

// Well-known tags of the generated document.
const (
	TagProxy  = "proxy"
	TagDirect = "direct"
	TagBypass = "bypass"
	TagBlock  = "block"
	TagDNSIn  = "dns-in"
	TagDNSOut = "dns-out"
	TagMixed  = "mixed-in"
	TagTrans  = "trans-in"
	TagTun    = "tun-in"
)

// DNS server tags and addresses.
const (
	DNSRemote = "dns-remote"
	DNSDirect = "dns-direct"
	DNSLocal  = "dns-local"
	DNSBlock  = "dns-block"
	DNSFake   = "dns-fake"

	localDNSAddress = "underlying://0.0.0.0"
	blockDNSAddress = "rcode://success"
	fakeDNSAddress  = "fakedns://198.18.0.0/15"
)

const (
	tunAddress4 = "172.19.0.1/28"
	tunAddress6 = "fdfe:dcba:9876::1/126"
)

// Document 是 sing-box 配置文档的根结构。
type Document struct {
	Log          *LogOptions          `json:"log,omitempty"`
	DNS          *DNSOptions          `json:"dns,omitempty"`
	Inbounds     []Inbound            `json:"inbounds"`
	Outbounds    []map[string]any     `json:"outbounds"`
	Route        *RouteOptions        `json:"route,omitempty"`
	Experimental *ExperimentalOptions `json:"experimental,omitempty"`
}

// documentKeys is the top-level key order of rendered documents.
var documentKeys = []string{"log", "dns", "inbounds", "outbounds", "route", "experimental"}

// LogOptions 对应 log 区块。
type LogOptions struct {
	Disabled bool   `json:"disabled"`
	Level    string `json:"level,omitempty"`
}

// DNSOptions 对应 dns 区块。
type DNSOptions struct {
	Servers  []DNSServer `json:"servers"`
	Rules    []DNSRule   `json:"rules"`
	Strategy string      `json:"strategy,omitempty"`
}

// DNSServer 表示 DNS 服务器。
type DNSServer struct {
	Tag             string `json:"tag"`
	Address         string `json:"address"`
	AddressResolver string `json:"address_resolver,omitempty"`
	Detour          string `json:"detour,omitempty"`
	Strategy        string `json:"strategy,omitempty"`
}

// DomainMatch 是路由规则与 DNS 规则共用的域名匹配字段。
type DomainMatch struct {
	Domain        []string `json:"domain,omitempty"`
	DomainSuffix  []string `json:"domain_suffix,omitempty"`
	DomainKeyword []string `json:"domain_keyword,omitempty"`
	DomainRegex   []string `json:"domain_regex,omitempty"`
	Geosite       []string `json:"geosite,omitempty"`
}

func (m DomainMatch) empty() bool {
	return len(m.Domain) == 0 && len(m.DomainSuffix) == 0 && len(m.DomainKeyword) == 0 &&
		len(m.DomainRegex) == 0 && len(m.Geosite) == 0
}

// IPMatch 是目标地址匹配字段。
type IPMatch struct {
	IPCIDR []string `json:"ip_cidr,omitempty"`
	GeoIP  []string `json:"geoip,omitempty"`
}

func (m IPMatch) empty() bool {
	return len(m.IPCIDR) == 0 && len(m.GeoIP) == 0
}

// DNSRule 表示 DNS 规则。
type DNSRule struct {
	DomainMatch
	Inbound      []string `json:"inbound,omitempty"`
	UserID       []int    `json:"user_id,omitempty"`
	AuthUser     []string `json:"auth_user,omitempty"`
	Server       string   `json:"server"`
	DisableCache bool     `json:"disable_cache,omitempty"`
}

// IsEmpty reports whether the rule has no match condition.
func (r DNSRule) IsEmpty() bool {
	return r.DomainMatch.empty() && len(r.Inbound) == 0 && len(r.UserID) == 0 && len(r.AuthUser) == 0
}

// RouteRule 表示路由规则。
type RouteRule struct {
	Inbound         []string `json:"inbound,omitempty"`
	Network         string   `json:"network,omitempty"`
	Protocol        []string `json:"protocol,omitempty"`
	UserID          []int    `json:"user_id,omitempty"`
	SourceIPCIDR    []string `json:"source_ip_cidr,omitempty"`
	SourcePort      []int    `json:"source_port,omitempty"`
	SourcePortRange []string `json:"source_port_range,omitempty"`
	Port            []int    `json:"port,omitempty"`
	PortRange       []string `json:"port_range,omitempty"`
	DomainMatch
	IPMatch
	Outbound string `json:"outbound"`
}

// IsEmpty reports whether the rule has no match condition.
func (r RouteRule) IsEmpty() bool {
	return len(r.Inbound) == 0 && r.Network == "" && len(r.Protocol) == 0 && len(r.UserID) == 0 &&
		len(r.SourceIPCIDR) == 0 && len(r.SourcePort) == 0 && len(r.SourcePortRange) == 0 &&
		len(r.Port) == 0 && len(r.PortRange) == 0 && r.DomainMatch.empty() && r.IPMatch.empty()
}

// Inbound 表示入站监听配置，字段覆盖 direct/tun/mixed/tproxy/redirect。
type Inbound struct {
	Type                   string   `json:"type"`
	Tag                    string   `json:"tag"`
	Listen                 string   `json:"listen,omitempty"`
	ListenPort             int      `json:"listen_port,omitempty"`
	OverrideAddress        string   `json:"override_address,omitempty"`
	OverridePort           int      `json:"override_port,omitempty"`
	Stack                  string   `json:"stack,omitempty"`
	MTU                    int      `json:"mtu,omitempty"`
	Inet4Address           []string `json:"inet4_address,omitempty"`
	Inet6Address           []string `json:"inet6_address,omitempty"`
	EndpointIndependentNAT bool     `json:"endpoint_independent_nat,omitempty"`
	Sniff                  bool     `json:"sniff,omitempty"`
	DomainStrategy         string   `json:"domain_strategy,omitempty"`
}

// RouteOptions 对应 route 区块。
type RouteOptions struct {
	Rules               []RouteRule `json:"rules"`
	AutoDetectInterface bool        `json:"auto_detect_interface"`
}

// ExperimentalOptions 对应 experimental 区块。
type ExperimentalOptions struct {
	ClashAPI *ClashAPIOptions `json:"clash_api,omitempty"`
}

// ClashAPIOptions 对应 experimental.clash_api。
type ClashAPIOptions struct {
	ExternalController string `json:"external_controller"`
	ExternalUI         string `json:"external_ui,omitempty"`
	CacheFile          string `json:"cache_file,omitempty"`
}
