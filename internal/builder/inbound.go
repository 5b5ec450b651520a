package builder

// listenInbounds returns the local listeners: the DNS hijack inbound, tun in
// VPN mode, the mixed proxy port and the optional transparent proxy. Test
// builds listen on nothing but mapping inbounds.
func (b *buildContext) listenInbounds() []Inbound {
	inbounds := []Inbound{}
	if b.forTest() {
		return inbounds
	}
	bind := b.bindAddress()
	strategy := b.domainStrategy()
	sniff := b.needSniff()

	inbounds = append(inbounds, Inbound{
		Type:            "direct",
		Tag:             TagDNSIn,
		Listen:          bind,
		ListenPort:      b.settings.LocalDNSPort,
		OverrideAddress: "8.8.8.8",
		OverridePort:    53,
	})

	if b.settings.VPNMode {
		tun := Inbound{
			Type:                   "tun",
			Tag:                    TagTun,
			Stack:                  b.settings.TunStack,
			MTU:                    b.settings.MTU,
			EndpointIndependentNAT: true,
			Sniff:                  sniff,
			DomainStrategy:         strategy,
		}
		if tun.Stack == "" {
			tun.Stack = "gvisor"
		}
		switch b.settings.IPv6 {
		case IPv6Disable:
			tun.Inet4Address = []string{tunAddress4}
		case IPv6Only:
			tun.Inet6Address = []string{tunAddress6}
		default:
			tun.Inet4Address = []string{tunAddress4}
			tun.Inet6Address = []string{tunAddress6}
		}
		inbounds = append(inbounds, tun)
	}

	inbounds = append(inbounds, Inbound{
		Type:           "mixed",
		Tag:            TagMixed,
		Listen:         bind,
		ListenPort:     b.settings.MixedPort,
		Sniff:          sniff,
		DomainStrategy: strategy,
	})

	if b.settings.RequireTransproxy {
		kind := "redirect"
		if b.settings.TransproxyMode == TransproxyTProxy {
			kind = "tproxy"
		}
		inbounds = append(inbounds, Inbound{
			Type:           kind,
			Tag:            TagTrans,
			Listen:         bind,
			ListenPort:     b.settings.TransproxyPort,
			Sniff:          sniff,
			DomainStrategy: strategy,
		})
	}
	return inbounds
}
