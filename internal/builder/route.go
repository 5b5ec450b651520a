package builder

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/creamcroissant/boxbuild/internal/repository"
)

// minAppUID is the first uid assigned to installed apps; lower uids are
// system users and never filtered.
const minAppUID = 1000

// compileRules translates the stored rules into route rules, in order, and
// records their DNS side effects.
func (b *buildContext) compileRules(rules []*repository.Rule) ([]RouteRule, error) {
	compiled := make([]RouteRule, 0, len(rules))
	for _, rule := range rules {
		uids, err := b.ruleUIDs(rule)
		if err != nil {
			return nil, err
		}

		var out RouteRule
		out.UserID = uids
		domains := splitLines(rule.Domains)
		out.DomainMatch = classifyDomains(domains)
		out.IPMatch = classifyIPs(splitLines(rule.IP))
		out.Port, out.PortRange = parsePorts(rule.Port)
		out.SourcePort, out.SourcePortRange = parsePorts(rule.SourcePort)
		out.Network = strings.TrimSpace(rule.Network)
		out.SourceIPCIDR = splitLines(rule.Source)
		out.Protocol = splitLines(rule.Protocol)

		switch rule.Outbound.Kind {
		case repository.OutboundBypass:
			b.uidDirect.add(uids...)
			b.domainDirect.add(domains...)
		case repository.OutboundRemote:
			b.uidRemote.add(uids...)
			b.domainRemote.add(domains...)
		case repository.OutboundBlock:
			b.domainBlock.add(domains...)
		}

		out.Outbound, err = b.ruleOutbound(rule)
		if err != nil {
			return nil, err
		}
		if !out.IsEmpty() {
			compiled = append(compiled, out)
		}
	}
	return compiled, nil
}

// ruleUIDs resolves the rule's app packages to uids, waiting for the
// package list on first use.
func (b *buildContext) ruleUIDs(rule *repository.Rule) ([]int, error) {
	if len(rule.Packages) == 0 {
		return nil, nil
	}
	if !b.settings.VPNMode {
		b.alert(AlertPerAppWithoutVPN, rule.DisplayName())
	}
	if b.sources.UIDs == nil {
		return nil, nil
	}
	if !b.uidsLoaded {
		if err := b.sources.UIDs.AwaitLoaded(b.ctx); err != nil {
			return nil, fmt.Errorf("load package list: %w", err)
		}
		b.uidsLoaded = true
	}
	var uids orderedSet[int]
	for _, name := range rule.Packages {
		uid, ok := b.sources.UIDs.Lookup(b.ctx, strings.TrimSpace(name))
		if ok && uid >= minAppUID {
			uids.add(uid)
		}
	}
	return uids.values(), nil
}

func (b *buildContext) ruleOutbound(rule *repository.Rule) (string, error) {
	switch rule.Outbound.Kind {
	case repository.OutboundRemote:
		return TagProxy, nil
	case repository.OutboundBypass:
		return TagBypass, nil
	case repository.OutboundBlock:
		return TagBlock, nil
	}
	id := rule.Outbound.ProfileID
	if b.target != nil && id == b.target.ID {
		return TagProxy, nil
	}
	if tag, ok := b.tagMap[id]; ok {
		return tag, nil
	}
	return "", fmt.Errorf("%w: rule %q targets profile %d", ErrInvalidRuleOutbound, rule.DisplayName(), id)
}

// parsePorts splits a comma separated port list into single ports and
// "from:to" ranges. Entries that are neither are dropped.
func parsePorts(value string) ([]int, []string) {
	var ports []int
	var ranges []string
	for _, entry := range splitTrimmed(value, ",") {
		if strings.Contains(entry, ":") {
			ranges = append(ranges, entry)
			continue
		}
		port, err := strconv.Atoi(entry)
		if err != nil {
			continue
		}
		ports = append(ports, port)
	}
	return ports, ranges
}

// extraProfileIDs lists the profiles referenced by rules other than the
// target, deduplicated and sorted.
func extraProfileIDs(rules []*repository.Rule, targetID int64) []int64 {
	var ids orderedSet[int64]
	for _, rule := range rules {
		if rule.Outbound.Kind != repository.OutboundProfile {
			continue
		}
		if id := rule.Outbound.ProfileID; id > 0 && id != targetID {
			ids.add(id)
		}
	}
	out := ids.values()
	slices.Sort(out)
	return out
}

// leadingRules hijack DNS traffic to the dns outbound.
func leadingRules() []RouteRule {
	return []RouteRule{
		{Port: []int{53}, Outbound: TagDNSOut},
		{Inbound: []string{TagDNSIn}, Outbound: TagDNSOut},
	}
}

func (b *buildContext) trailingRules() []RouteRule {
	var rules []RouteRule
	if b.settings.BypassLAN {
		rules = append(rules, RouteRule{IPMatch: IPMatch{GeoIP: []string{"private"}}, Outbound: TagBypass})
	}
	rules = append(rules, RouteRule{
		IPMatch:      IPMatch{IPCIDR: []string{"224.0.0.0/3", "ff00::/8"}},
		SourceIPCIDR: []string{"224.0.0.0/3", "ff00::/8"},
		Outbound:     TagBlock,
	})
	return rules
}
