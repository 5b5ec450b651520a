package builder

import (
	"errors"

	"github.com/creamcroissant/boxbuild/internal/protocol"
)

var (
	// ErrNoRemoteDNS 表示远程 DNS 列表为空。
	ErrNoRemoteDNS = errors.New("builder: no remote DNS, check your settings / 未配置远程 DNS")
	// ErrNoDirectDNS 表示直连 DNS 列表为空。
	ErrNoDirectDNS = errors.New("builder: no direct DNS, check your settings / 未配置直连 DNS")
	// ErrInvalidRuleOutbound 表示规则引用了本次构建中不存在的出站。
	ErrInvalidRuleOutbound = errors.New("builder: invalid rule outbound / 规则引用的出站不存在")
	// ErrUnsupportedHelper 表示缺少可用的外部辅助程序。
	ErrUnsupportedHelper = errors.New("builder: unsupported helper plugin / 外部辅助程序不受支持")
	// ErrUnreachable 表示链路出现了内部不一致。
	ErrUnreachable = errors.New("builder: can't reach / 链路内部状态不一致")
	// ErrChainCycle 表示链式代理存在循环引用。
	ErrChainCycle = errors.New("builder: chain references itself / 链式代理存在循环引用")
	// ErrProfileNotFound 表示构建目标不存在。
	ErrProfileNotFound = errors.New("builder: profile not found / 未找到代理配置")
	// ErrInvalidRawConfig 表示原始配置不是合法 JSON。
	ErrInvalidRawConfig = protocol.ErrInvalidRawConfig
)
