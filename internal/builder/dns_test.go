package builder

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/creamcroissant/boxbuild/internal/repository"
)

func TestBuildDNSServers(t *testing.T) {
	f := newFixture()
	f.add(1, 0, "node", socks("10.0.0.1", 1080))

	_, doc := f.build(t, 1, ModeNormal)

	dns := dnsSection(doc)
	servers := section(dns, "servers")
	assert.Equal(t, []string{DNSRemote, DNSDirect, DNSLocal, DNSBlock}, tags(servers))
	assert.Equal(t, "1.1.1.1", servers[0]["address"])
	assert.Equal(t, DNSDirect, servers[0]["address_resolver"])
	assert.Equal(t, "8.8.8.8", servers[1]["address"])
	assert.Equal(t, TagDirect, servers[1]["detour"])
	assert.Equal(t, DNSLocal, servers[1]["address_resolver"])
	assert.Equal(t, localDNSAddress, servers[2]["address"])
	assert.Equal(t, blockDNSAddress, servers[3]["address"])
	assert.Equal(t, "ipv4_only", dns["strategy"])
}

func TestBuildDNSRequiresServers(t *testing.T) {
	f := newFixture()
	f.add(1, 0, "node", socks("10.0.0.1", 1080))

	f.settings.RemoteDNS = " \n "
	_, err := f.builder().Build(context.Background(), 1, ModeNormal)
	require.ErrorIs(t, err, ErrNoRemoteDNS)

	f.settings.RemoteDNS = "1.1.1.1"
	f.settings.DirectDNS = ""
	_, err = f.builder().Build(context.Background(), 1, ModeNormal)
	require.ErrorIs(t, err, ErrNoDirectDNS)

	f.settings.DirectDNSUseSystem = true
	_, doc := f.build(t, 1, ModeNormal)
	assert.Equal(t, localDNSAddress, section(dnsSection(doc), "servers")[1]["address"])
}

func TestBuildDNSSkipsCommentLines(t *testing.T) {
	f := newFixture()
	f.add(1, 0, "node", socks("10.0.0.1", 1080))
	f.settings.RemoteDNS = "# primary\n1.1.1.1\n9.9.9.9"
	f.settings.DirectDNS = "#local\n\n8.8.8.8"

	_, doc := f.build(t, 1, ModeNormal)
	servers := section(dnsSection(doc), "servers")
	assert.Equal(t, "1.1.1.1", servers[0]["address"])
	assert.Equal(t, "8.8.8.8", servers[1]["address"])

	f.settings.RemoteDNS = "# only a comment"
	_, err := f.builder().Build(context.Background(), 1, ModeNormal)
	require.ErrorIs(t, err, ErrNoRemoteDNS)

	f.settings.RemoteDNS = "1.1.1.1"
	f.settings.DirectDNS = "# 223.5.5.5\n  #8.8.8.8"
	_, err = f.builder().Build(context.Background(), 1, ModeNormal)
	require.ErrorIs(t, err, ErrNoDirectDNS)
}

func TestBuildDNSNetworkFlags(t *testing.T) {
	f := newFixture()
	f.settings.IPv6 = IPv6Only
	f.settings.DNSNetwork = []string{NoRemoteIPv4, NoDirectIPv6}
	f.add(1, 0, "node", socks("10.0.0.1", 1080))

	_, doc := f.build(t, 1, ModeNormal)

	servers := section(dnsSection(doc), "servers")
	assert.Equal(t, "ipv6_only", servers[0]["strategy"])
	assert.Equal(t, "ipv4_only", servers[1]["strategy"])
	assert.Equal(t, "ipv6_only", dnsSection(doc)["strategy"])
}

func TestBuildDNSRules(t *testing.T) {
	f := newFixture()
	f.settings.RemoteDNS = "https://dns.google/dns-query"
	f.settings.ResolveDestination = true
	f.uids.uids = map[string]int{"com.example.app": 10123}
	f.add(1, 0, "entry", socks("entry.example.com", 1080))
	f.add(2, 0, "exit", socks("exit.example.com", 1080))
	f.add(10, 0, "chain", chain(1, 2))
	f.rules = fakeRules{
		{ID: 1, Domains: "geosite:google", Outbound: repository.RuleOutbound{Kind: repository.OutboundRemote}},
		{ID: 2, Domains: "full:bank.example", Packages: []string{"com.example.app"}, Outbound: repository.RuleOutbound{Kind: repository.OutboundBypass}},
		{ID: 3, Domains: "ads.example", Outbound: repository.RuleOutbound{Kind: repository.OutboundBlock}},
		{ID: 4, Domains: "geosite:google", Outbound: repository.RuleOutbound{Kind: repository.OutboundRemote}},
	}

	_, doc := f.build(t, 10, ModeNormal)

	rules := section(dnsSection(doc), "rules")
	require.Len(t, rules, 6)

	assert.Equal(t, DNSDirect, rules[0]["server"])
	assert.ElementsMatch(t, []any{"entry.example.com", "exit.example.com", "dns.google"}, rules[0]["domain"])

	assert.Equal(t, DNSRemote, rules[1]["server"])
	assert.Equal(t, []any{"google"}, rules[1]["geosite"])

	assert.Equal(t, DNSDirect, rules[2]["server"])
	assert.Equal(t, []any{float64(10123)}, rules[2]["user_id"])

	assert.Equal(t, DNSDirect, rules[3]["server"])
	assert.Equal(t, []any{"bank.example"}, rules[3]["domain"])

	assert.Equal(t, DNSBlock, rules[4]["server"])
	assert.Equal(t, []any{"ads.example"}, rules[4]["domain_suffix"])
	assert.Equal(t, true, rules[4]["disable_cache"])

	assert.Equal(t, []any{".arpa.", ".arpa"}, rules[5]["domain_suffix"])
	assert.Equal(t, DNSBlock, rules[5]["server"])
}

func TestBuildFakeDNS(t *testing.T) {
	f := newFixture()
	f.settings.EnableFakeDNS = true
	f.add(1, 0, "node", socks("10.0.0.1", 1080))
	f.rules = fakeRules{{ID: 1, Domains: "geosite:google", Outbound: repository.RuleOutbound{Kind: repository.OutboundRemote}}}

	_, doc := f.build(t, 1, ModeNormal)

	servers := section(dnsSection(doc), "servers")
	fake := tagged(servers, DNSFake)
	require.Len(t, fake, 1)
	assert.Equal(t, fakeDNSAddress, fake[0]["address"])
	assert.Equal(t, "ipv4_only", fake[0]["strategy"])

	rules := section(dnsSection(doc), "rules")
	require.Len(t, rules, 5)
	assert.Equal(t, []any{"fakedns"}, rules[0]["auth_user"])
	assert.Equal(t, DNSRemote, rules[0]["server"])
	assert.Equal(t, DNSFake, rules[1]["server"])
	assert.Equal(t, []any{TagTun}, rules[1]["inbound"])
	assert.Equal(t, []any{"google"}, rules[1]["geosite"])
	assert.Equal(t, DNSRemote, rules[2]["server"])
	assert.NotContains(t, rules[2], "inbound")
	assert.Equal(t, DNSBlock, rules[3]["server"])
	assert.Equal(t, map[string]any{"inbound": []any{TagTun}, "server": DNSFake, "disable_cache": true}, rules[4])
}

func TestDNSHost(t *testing.T) {
	tests := map[string]string{
		"https://dns.google/dns-query": "dns.google",
		"tls://1.1.1.1":                "1.1.1.1",
		"8.8.8.8":                      "8.8.8.8",
		"quic://dns.adguard.com:853":   "dns.adguard.com",
		"":                             "",
	}
	for input, want := range tests {
		assert.Equal(t, want, dnsHost(input), input)
	}
}
