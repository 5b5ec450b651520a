// 文件路径: internal/repository/types.go
// 模块说明: 这是 internal 模块里的 types 逻辑，下面的注释会用非常通俗的中文帮你理解每一步。
package repository

import (
	"net"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// ProxyEntity is a stored proxy profile. It is read-only for the duration of a build.
type ProxyEntity struct {
	ID                 int64
	GroupID            int64
	Name               string
	Bean               Bean
	CustomOutboundJSON string
	CustomConfigJSON   string
	SortOrder          int
	CreatedAt          int64
	UpdatedAt          int64
}

// Kind returns the protocol variant of the profile bean.
func (p *ProxyEntity) Kind() BeanKind {
	if p == nil || p.Bean == nil {
		return ""
	}
	return p.Bean.Kind()
}

// DisplayName 返回用户可见名称；名称为空时回退为 address:port。
func (p *ProxyEntity) DisplayName() string {
	if p == nil {
		return ""
	}
	name := strings.TrimSpace(p.Name)
	if name == "" && p.Bean != nil {
		address, port := p.Bean.Server()
		if address != "" {
			name = net.JoinHostPort(address, strconv.Itoa(port))
		}
	}
	if name == "" {
		name = "profile-" + strconv.FormatInt(p.ID, 10)
	}
	return norm.NFC.String(name)
}

// Group owns a set of profiles and the chain decorations applied to them.
type Group struct {
	ID             int64
	Name           string
	FrontProxyID   *int64
	LandingProxyID *int64
	IsSelector     bool
	CreatedAt      int64
	UpdatedAt      int64
}

// OutboundKind enumerates where a routing rule sends matching traffic.
type OutboundKind int

const (
	OutboundRemote OutboundKind = iota
	OutboundBypass
	OutboundBlock
	OutboundProfile
)

// Stored sentinel values of the rule outbound column.
const (
	SentinelRemote int64 = 0
	SentinelBypass int64 = -1
	SentinelBlock  int64 = -2
)

// RuleOutbound is the decoded routing target of a rule.
type RuleOutbound struct {
	Kind      OutboundKind
	ProfileID int64
}

// OutboundFromSentinel decodes the stored integer form.
func OutboundFromSentinel(value int64) RuleOutbound {
	switch value {
	case SentinelRemote:
		return RuleOutbound{Kind: OutboundRemote}
	case SentinelBypass:
		return RuleOutbound{Kind: OutboundBypass}
	case SentinelBlock:
		return RuleOutbound{Kind: OutboundBlock}
	default:
		return RuleOutbound{Kind: OutboundProfile, ProfileID: value}
	}
}

// Sentinel encodes the outbound back to its stored integer form.
func (o RuleOutbound) Sentinel() int64 {
	switch o.Kind {
	case OutboundBypass:
		return SentinelBypass
	case OutboundBlock:
		return SentinelBlock
	case OutboundProfile:
		return o.ProfileID
	default:
		return SentinelRemote
	}
}

// Rule is a stored routing directive. List-valued fields keep their stored
// text form (newline or comma separated); the builder splits them.
type Rule struct {
	ID         int64
	Name       string
	Enabled    bool
	Domains    string
	IP         string
	Port       string
	SourcePort string
	Network    string
	Source     string
	Protocol   string
	Packages   []string
	Outbound   RuleOutbound
	SortOrder  int
	CreatedAt  int64
	UpdatedAt  int64
}

// DisplayName returns the rule name, or a generated label when unnamed.
func (r *Rule) DisplayName() string {
	if r == nil {
		return ""
	}
	if name := strings.TrimSpace(r.Name); name != "" {
		return name
	}
	return "rule-" + strconv.FormatInt(r.ID, 10)
}
