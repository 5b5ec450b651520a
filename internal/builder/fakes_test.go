package builder

import (
	"context"
	"encoding/json"
	"slices"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/creamcroissant/boxbuild/internal/repository"
)

type fakeProfiles struct {
	byID    map[int64]*repository.ProxyEntity
	lookups int
}

func (f *fakeProfiles) FindByID(_ context.Context, id int64) (*repository.ProxyEntity, error) {
	f.lookups++
	if p, ok := f.byID[id]; ok {
		return p, nil
	}
	return nil, repository.ErrNotFound
}

func (f *fakeProfiles) FindByIDs(_ context.Context, ids []int64) ([]*repository.ProxyEntity, error) {
	f.lookups++
	var out []*repository.ProxyEntity
	for _, id := range ids {
		if p, ok := f.byID[id]; ok {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeProfiles) ListByGroup(_ context.Context, groupID int64) ([]*repository.ProxyEntity, error) {
	var out []*repository.ProxyEntity
	for _, p := range f.byID {
		if p.GroupID == groupID {
			out = append(out, p)
		}
	}
	slices.SortFunc(out, func(a, b *repository.ProxyEntity) int { return int(a.ID - b.ID) })
	return out, nil
}

type fakeGroups map[int64]*repository.Group

func (f fakeGroups) FindByID(_ context.Context, id int64) (*repository.Group, error) {
	if g, ok := f[id]; ok {
		return g, nil
	}
	return nil, repository.ErrNotFound
}

type fakeRules []*repository.Rule

func (f fakeRules) ListEnabled(context.Context) ([]*repository.Rule, error) { return f, nil }

type fakeUIDs struct {
	uids    map[string]int
	awaited int
}

func (f *fakeUIDs) AwaitLoaded(context.Context) error {
	f.awaited++
	return nil
}

func (f *fakeUIDs) Lookup(_ context.Context, name string) (int, bool) {
	uid, ok := f.uids[name]
	return uid, ok
}

type fakeHelpers map[string]bool

func (f fakeHelpers) Compatible(plugin string) bool { return f[plugin] }

type fixture struct {
	profiles *fakeProfiles
	groups   fakeGroups
	rules    fakeRules
	uids     *fakeUIDs
	helpers  fakeHelpers
	settings Settings
}

func newFixture() *fixture {
	return &fixture{
		profiles: &fakeProfiles{byID: map[int64]*repository.ProxyEntity{}},
		groups:   fakeGroups{},
		uids:     &fakeUIDs{uids: map[string]int{}},
		helpers:  fakeHelpers{},
		settings: Settings{
			VPNMode:          true,
			IPv6:             IPv6Disable,
			RemoteDNS:        "1.1.1.1",
			DirectDNS:        "8.8.8.8",
			EnableDNSRouting: true,
			TrafficSniffing:  true,
			MixedPort:        2080,
			LocalDNSPort:     6450,
			TunStack:         "mixed",
			MTU:              9000,
			LogLevel:         "warn",
			HelperPorts:      PortRange{Start: 30000, End: 30100},
		},
	}
}

func (f *fixture) add(id, groupID int64, name string, bean repository.Bean) *repository.ProxyEntity {
	p := &repository.ProxyEntity{ID: id, GroupID: groupID, Name: name, Bean: bean}
	f.profiles.byID[id] = p
	return p
}

func (f *fixture) builder() *Builder {
	return New(Sources{
		Profiles: f.profiles,
		Groups:   f.groups,
		Rules:    f.rules,
		Settings: StaticSettings(f.settings),
		UIDs:     f.uids,
		Helpers:  f.helpers,
	})
}

func (f *fixture) build(t *testing.T, id int64, mode Mode) (*ConfigBuildResult, map[string]any) {
	t.Helper()
	result, err := f.builder().Build(context.Background(), id, mode)
	require.NoError(t, err)
	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(result.Config), &doc))
	return result, doc
}

func socks(host string, port int) *repository.SOCKSBean {
	return &repository.SOCKSBean{Address: host, Port: port}
}

func chain(members ...int64) *repository.ChainBean {
	return &repository.ChainBean{Members: members}
}

func section(doc map[string]any, key string) []map[string]any {
	items, _ := doc[key].([]any)
	out := make([]map[string]any, 0, len(items))
	for _, item := range items {
		out = append(out, item.(map[string]any))
	}
	return out
}

func outbounds(doc map[string]any) []map[string]any { return section(doc, "outbounds") }

func inbounds(doc map[string]any) []map[string]any { return section(doc, "inbounds") }

func routeRules(doc map[string]any) []map[string]any {
	return section(doc["route"].(map[string]any), "rules")
}

func dnsSection(doc map[string]any) map[string]any { return doc["dns"].(map[string]any) }

func tagged(items []map[string]any, tag string) []map[string]any {
	var out []map[string]any
	for _, item := range items {
		if item["tag"] == tag {
			out = append(out, item)
		}
	}
	return out
}

func tags(items []map[string]any) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		tag, _ := item["tag"].(string)
		out = append(out, tag)
	}
	return out
}

func entityIDs(entities []*repository.ProxyEntity) []int64 {
	out := make([]int64, 0, len(entities))
	for _, e := range entities {
		out = append(out, e.ID)
	}
	return out
}

var builtinOutbounds = []string{TagDirect, TagBypass, TagBlock, TagDNSOut}

func chainOutbounds(doc map[string]any) []map[string]any {
	var out []map[string]any
	for _, item := range outbounds(doc) {
		if !slices.Contains(builtinOutbounds, item["tag"].(string)) {
			out = append(out, item)
		}
	}
	return out
}
