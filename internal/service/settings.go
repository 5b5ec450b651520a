package service

import (
	"context"
	"strings"

	"github.com/creamcroissant/boxbuild/internal/builder"
	"github.com/creamcroissant/boxbuild/internal/config"
	"github.com/creamcroissant/boxbuild/internal/protocol"
)

// EngineSettings translates the engine and helper configuration sections
// into the builder's settings snapshot.
func EngineSettings(engine config.EngineConfig, helper config.HelperConfig) builder.Settings {
	transproxy := builder.TransproxyRedirect
	if strings.EqualFold(strings.TrimSpace(engine.TransproxyMode), "tproxy") {
		transproxy = builder.TransproxyTProxy
	}
	return builder.Settings{
		VPNMode:            !strings.EqualFold(strings.TrimSpace(engine.ServiceMode), "proxy"),
		IPv6:               builder.ParseIPv6Mode(engine.IPv6Mode),
		RemoteDNS:          engine.RemoteDNS,
		DirectDNS:          engine.DirectDNS,
		DirectDNSUseSystem: engine.DirectDNSUseSystem,
		DNSNetwork:         engine.DNSNetwork,
		EnableDNSRouting:   engine.EnableDNSRouting,
		EnableFakeDNS:      engine.EnableFakeDNS,
		TrafficSniffing:    engine.TrafficSniffing,
		ResolveDestination: engine.ResolveDestination,
		BypassLAN:          engine.BypassLAN,
		AllowAccess:        engine.AllowAccess,
		MixedPort:          engine.MixedPort,
		LocalDNSPort:       engine.LocalDNSPort,
		RequireTransproxy:  engine.RequireTransproxy,
		TransproxyMode:     transproxy,
		TransproxyPort:     engine.TransproxyPort,
		TunStack:           engine.TunStack,
		MTU:                engine.MTU,
		Mux: protocol.MuxOptions{
			Enabled:     engine.Mux.Enabled,
			Protocols:   engine.Mux.Protocols,
			Type:        engine.Mux.Type,
			Concurrency: engine.Mux.Concurrency,
		},
		LogLevel: engine.LogLevel,
		ClashAPI: builder.ClashAPISettings{
			Enabled:    engine.ClashAPI.Enabled,
			Controller: engine.ClashAPI.Controller,
			UI:         engine.ClashAPI.UI,
			CacheFile:  engine.ClashAPI.CacheFile,
		},
		HelperPorts: builder.PortRange{
			Start: helper.PortStart,
			End:   helper.PortEnd,
			Probe: helper.Probe,
		},
	}
}

// ConfigSettings serves settings straight from the loaded configuration.
type ConfigSettings struct {
	Config *config.Config
}

func (s ConfigSettings) Settings(context.Context) (builder.Settings, error) {
	return EngineSettings(s.Config.Engine, s.Config.Helper), nil
}
