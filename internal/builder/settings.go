package builder

import (
	"context"
	"fmt"
	"strings"

	"github.com/creamcroissant/boxbuild/internal/protocol"
)

// Mode selects the build flavour.
type Mode int

const (
	// ModeNormal builds the full running configuration.
	ModeNormal Mode = iota
	// ModeTest builds a minimal configuration for a connectivity test.
	ModeTest
	// ModeExport builds a shareable configuration without selector wrapping.
	ModeExport
)

func (m Mode) String() string {
	switch m {
	case ModeTest:
		return "test"
	case ModeExport:
		return "export"
	default:
		return "normal"
	}
}

// ParseMode accepts "normal", "test" and "export"; empty means normal.
func ParseMode(value string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "normal":
		return ModeNormal, nil
	case "test":
		return ModeTest, nil
	case "export":
		return ModeExport, nil
	default:
		return ModeNormal, fmt.Errorf("builder: unknown mode %q", value)
	}
}

// IPv6Mode is the global IPv6 policy.
type IPv6Mode int

const (
	IPv6Disable IPv6Mode = iota
	IPv6Enable
	IPv6Prefer
	IPv6Only
)

// ParseIPv6Mode maps "disable", "enable", "prefer" and "only"; unknown values disable IPv6.
func ParseIPv6Mode(value string) IPv6Mode {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "enable":
		return IPv6Enable
	case "prefer":
		return IPv6Prefer
	case "only":
		return IPv6Only
	default:
		return IPv6Disable
	}
}

// TransproxyMode selects the transparent proxy inbound type.
type TransproxyMode int

const (
	TransproxyRedirect TransproxyMode = iota
	TransproxyTProxy
)

// DNS network flags.
const (
	NoRemoteIPv4 = "NoRemoteIPv4"
	NoRemoteIPv6 = "NoRemoteIPv6"
	NoDirectIPv4 = "NoDirectIPv4"
	NoDirectIPv6 = "NoDirectIPv6"
)

// Settings is the snapshot of every tunable a build reads.
type Settings struct {
	VPNMode            bool
	IPv6               IPv6Mode
	RemoteDNS          string
	DirectDNS          string
	DirectDNSUseSystem bool
	DNSNetwork         []string
	EnableDNSRouting   bool
	EnableFakeDNS      bool
	TrafficSniffing    bool
	ResolveDestination bool
	BypassLAN          bool
	AllowAccess        bool
	MixedPort          int
	LocalDNSPort       int
	RequireTransproxy  bool
	TransproxyMode     TransproxyMode
	TransproxyPort     int
	TunStack           string
	MTU                int
	Mux                protocol.MuxOptions
	LogLevel           string
	ClashAPI           ClashAPISettings
	HelperPorts        PortRange
}

// ClashAPISettings 对应 experimental.clash_api。
type ClashAPISettings struct {
	Enabled    bool
	Controller string
	UI         string
	CacheFile  string
}

// SettingsProvider supplies the settings snapshot for one build.
type SettingsProvider interface {
	Settings(ctx context.Context) (Settings, error)
}

// StaticSettings serves a fixed snapshot.
type StaticSettings Settings

func (s StaticSettings) Settings(context.Context) (Settings, error) {
	return Settings(s), nil
}

func (s Settings) hasDNSNetwork(flag string) bool {
	for _, v := range s.DNSNetwork {
		if strings.EqualFold(strings.TrimSpace(v), flag) {
			return true
		}
	}
	return false
}

var logLevels = map[string]struct{}{
	"panic": {}, "fatal": {}, "error": {}, "warn": {}, "info": {}, "debug": {}, "trace": {},
}

func (s Settings) logLevel() string {
	level := strings.ToLower(strings.TrimSpace(s.LogLevel))
	if level == "warning" {
		level = "warn"
	}
	if _, ok := logLevels[level]; ok {
		return level
	}
	return "info"
}
