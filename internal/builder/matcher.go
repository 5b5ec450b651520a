package builder

import (
	"net/netip"
	"strings"
)

// classifyDomains sorts domain entries into sing-box match fields by prefix.
// Unprefixed entries match as suffixes.
func classifyDomains(entries []string) DomainMatch {
	var m DomainMatch
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		switch {
		case entry == "":
		case strings.HasPrefix(entry, "geosite:"):
			m.Geosite = append(m.Geosite, strings.TrimPrefix(entry, "geosite:"))
		case strings.HasPrefix(entry, "full:"):
			m.Domain = append(m.Domain, strings.TrimPrefix(entry, "full:"))
		case strings.HasPrefix(entry, "domain:"):
			m.DomainSuffix = append(m.DomainSuffix, strings.TrimPrefix(entry, "domain:"))
		case strings.HasPrefix(entry, "regexp:"):
			m.DomainRegex = append(m.DomainRegex, strings.TrimPrefix(entry, "regexp:"))
		case strings.HasPrefix(entry, "keyword:"):
			m.DomainKeyword = append(m.DomainKeyword, strings.TrimPrefix(entry, "keyword:"))
		case strings.HasPrefix(entry, "*."):
			m.DomainSuffix = append(m.DomainSuffix, strings.TrimPrefix(entry, "*"))
		default:
			m.DomainSuffix = append(m.DomainSuffix, entry)
		}
	}
	return m
}

// classifyIPs keeps geoip codes and valid addresses or prefixes; anything
// else is dropped.
func classifyIPs(entries []string) IPMatch {
	var m IPMatch
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if code, ok := strings.CutPrefix(entry, "geoip:"); ok {
			if code != "" {
				m.GeoIP = append(m.GeoIP, code)
			}
			continue
		}
		if validCIDR(entry) {
			m.IPCIDR = append(m.IPCIDR, entry)
		}
	}
	return m
}

func validCIDR(value string) bool {
	if value == "" {
		return false
	}
	if _, err := netip.ParsePrefix(value); err == nil {
		return true
	}
	_, err := netip.ParseAddr(value)
	return err == nil
}

// splitLines splits a stored list on newlines, dropping blank entries.
func splitLines(value string) []string {
	return splitTrimmed(value, "\n")
}

// serverLines is splitLines without "#" comment lines.
func serverLines(value string) []string {
	var out []string
	for _, line := range splitLines(value) {
		if !strings.HasPrefix(line, "#") {
			out = append(out, line)
		}
	}
	return out
}

func splitTrimmed(value, sep string) []string {
	var out []string
	for _, part := range strings.Split(value, sep) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
