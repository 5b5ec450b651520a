package builder

import (
	"net/url"
	"slices"
	"strings"

	"github.com/creamcroissant/boxbuild/internal/repository"
)

// bypassDNS records the server of a global (entry) hop so its name is
// resolved by the direct DNS server.
func (b *buildContext) bypassDNS(hop *repository.ProxyEntity) {
	if hop == nil || hop.Bean == nil {
		return
	}
	address, _ := hop.Bean.Server()
	b.forceDirect(address)
}

// dnsHost extracts the host of a DNS server address such as
// "https://dns.google/dns-query" or "tls://1.1.1.1".
func dnsHost(address string) string {
	address = strings.TrimSpace(address)
	if _, rest, ok := strings.Cut(address, "://"); ok {
		address = rest
	}
	parsed, err := url.Parse("https://" + address)
	if err != nil {
		return ""
	}
	return parsed.Hostname()
}

func (b *buildContext) fakeDNS() bool {
	return b.settings.EnableFakeDNS && !b.forTest() && b.settings.IPv6 != IPv6Only
}

// buildDNS assembles the dns section from the settings and the lists the
// rule compiler collected.
func (b *buildContext) buildDNS() (*DNSOptions, error) {
	remote := serverLines(b.settings.RemoteDNS)
	if len(remote) == 0 {
		return nil, ErrNoRemoteDNS
	}
	direct := serverLines(b.settings.DirectDNS)
	if b.settings.DirectDNSUseSystem {
		direct = []string{localDNSAddress}
	}
	if len(direct) == 0 {
		return nil, ErrNoDirectDNS
	}
	for _, address := range remote {
		b.forceDirect(dnsHost(address))
	}

	dns := &DNSOptions{}
	switch b.settings.IPv6 {
	case IPv6Disable:
		dns.Strategy = "ipv4_only"
	case IPv6Only:
		dns.Strategy = "ipv6_only"
	}

	dns.Servers = []DNSServer{
		{
			Tag:             DNSRemote,
			Address:         remote[0],
			AddressResolver: DNSDirect,
			Strategy:        b.networkStrategy(NoRemoteIPv4, NoRemoteIPv6),
		},
		{
			Tag:             DNSDirect,
			Address:         direct[0],
			AddressResolver: DNSLocal,
			Detour:          TagDirect,
			Strategy:        b.networkStrategy(NoDirectIPv4, NoDirectIPv6),
		},
		{Tag: DNSLocal, Address: localDNSAddress, Detour: TagDirect},
		{Tag: DNSBlock, Address: blockDNSAddress},
	}

	fake := b.fakeDNS()
	if fake {
		dns.Servers = append(dns.Servers, DNSServer{Tag: DNSFake, Address: fakeDNSAddress, Strategy: "ipv4_only"})
	}

	if b.settings.EnableDNSRouting {
		dns.Rules = b.routingDNSRules(fake)
	}

	if b.forTest() {
		dns.Rules = nil
	} else {
		dns.Rules = append(dns.Rules, DNSRule{
			DomainMatch:  DomainMatch{DomainSuffix: []string{".arpa.", ".arpa"}},
			Server:       DNSBlock,
			DisableCache: true,
		})
		if b.domainForceDirect.len() > 0 {
			force := DNSRule{DomainMatch: classifyDomains(b.domainForceDirect.values()), Server: DNSDirect}
			dns.Rules = append([]DNSRule{force}, dns.Rules...)
		}
	}

	if fake {
		auth := DNSRule{AuthUser: []string{"fakedns"}, Server: DNSRemote}
		dns.Rules = append([]DNSRule{auth}, dns.Rules...)
		dns.Rules = append(dns.Rules, DNSRule{Inbound: []string{TagTun}, Server: DNSFake, DisableCache: true})
	}
	if dns.Rules == nil {
		dns.Rules = []DNSRule{}
	}
	return dns, nil
}

func (b *buildContext) networkStrategy(noIPv4, noIPv6 string) string {
	var strategy string
	if b.settings.hasDNSNetwork(noIPv4) {
		strategy = "ipv6_only"
	}
	if b.settings.hasDNSNetwork(noIPv6) {
		strategy = "ipv4_only"
	}
	return strategy
}

// routingDNSRules sends rule-matched names and apps to the matching server.
// Empty rules are skipped and repeats dropped.
func (b *buildContext) routingDNSRules(fake bool) []DNSRule {
	var rules []DNSRule
	add := func(rule DNSRule) {
		if rule.IsEmpty() {
			return
		}
		for _, existing := range rules {
			if dnsRuleEqual(existing, rule) {
				return
			}
		}
		rules = append(rules, rule)
	}
	remote := func(rule DNSRule) {
		if rule.IsEmpty() {
			return
		}
		if fake {
			companion := rule
			companion.Inbound = []string{TagTun}
			companion.Server = DNSFake
			add(companion)
		}
		add(rule)
	}

	remote(DNSRule{UserID: b.uidRemote.values(), Server: DNSRemote})
	remote(DNSRule{DomainMatch: classifyDomains(b.domainRemote.values()), Server: DNSRemote})
	add(DNSRule{UserID: b.uidDirect.values(), Server: DNSDirect})
	add(DNSRule{DomainMatch: classifyDomains(b.domainDirect.values()), Server: DNSDirect})
	add(DNSRule{DomainMatch: classifyDomains(b.domainBlock.values()), Server: DNSBlock, DisableCache: true})
	return rules
}

func dnsRuleEqual(a, b DNSRule) bool {
	return a.Server == b.Server && a.DisableCache == b.DisableCache &&
		slices.Equal(a.Inbound, b.Inbound) && slices.Equal(a.UserID, b.UserID) &&
		slices.Equal(a.AuthUser, b.AuthUser) && slices.Equal(a.Domain, b.Domain) &&
		slices.Equal(a.DomainSuffix, b.DomainSuffix) && slices.Equal(a.DomainKeyword, b.DomainKeyword) &&
		slices.Equal(a.DomainRegex, b.DomainRegex) && slices.Equal(a.Geosite, b.Geosite)
}
