package builder

import (
	"context"
	"errors"
	"fmt"
	"net/netip"
	"strings"

	"github.com/creamcroissant/boxbuild/internal/repository"
)

// buildContext carries the mutable state of a single build. It is created
// per call and never shared.
type buildContext struct {
	ctx      context.Context
	sources  Sources
	settings Settings
	mode     Mode
	target   *repository.ProxyEntity

	entities map[int64]*repository.ProxyEntity
	groups   map[int64]*repository.Group

	buildSelector   bool
	selectorNames   map[string]struct{}
	tagMap          map[int64]string
	globalOutbounds map[int64]string
	trafficMap      map[string][]*repository.ProxyEntity
	externalIndex   []*ExternalChain

	inbounds   []Inbound
	outbounds  []map[string]any
	chainRules []RouteRule

	uidRemote         orderedSet[int]
	uidDirect         orderedSet[int]
	domainRemote      orderedSet[string]
	domainDirect      orderedSet[string]
	domainBlock       orderedSet[string]
	domainForceDirect orderedSet[string]

	uidsLoaded bool
	alerts     []Alert
	ports      *portAllocator
}

func newBuildContext(ctx context.Context, sources Sources, settings Settings, mode Mode, target *repository.ProxyEntity) *buildContext {
	if mode == ModeTest {
		settings.IPv6 = IPv6Enable
	}
	reserved := []int{settings.MixedPort, settings.LocalDNSPort}
	if settings.RequireTransproxy {
		reserved = append(reserved, settings.TransproxyPort)
	}
	b := &buildContext{
		ctx:             ctx,
		sources:         sources,
		settings:        settings,
		mode:            mode,
		target:          target,
		entities:        make(map[int64]*repository.ProxyEntity),
		groups:          make(map[int64]*repository.Group),
		selectorNames:   make(map[string]struct{}),
		tagMap:          make(map[int64]string),
		globalOutbounds: make(map[int64]string),
		trafficMap:      make(map[string][]*repository.ProxyEntity),
		ports:           newPortAllocator(settings.HelperPorts, reserved...),
	}
	if target != nil {
		b.entities[target.ID] = target
	}
	return b
}

func (b *buildContext) forTest() bool { return b.mode == ModeTest }

// domainStrategy is the outbound/inbound resolution strategy for the
// configured IPv6 policy, or "" when destinations are not resolved locally.
func (b *buildContext) domainStrategy() string {
	if !b.settings.ResolveDestination {
		return ""
	}
	switch b.settings.IPv6 {
	case IPv6Disable:
		return "ipv4_only"
	case IPv6Prefer:
		return "prefer_ipv6"
	case IPv6Only:
		return "ipv6_only"
	default:
		return "prefer_ipv4"
	}
}

func (b *buildContext) needSniff() bool { return b.settings.TrafficSniffing }

func (b *buildContext) bindAddress() string {
	if b.settings.AllowAccess && !b.forTest() {
		return "0.0.0.0"
	}
	return "127.0.0.1"
}

// entity 读取代理配置并缓存；不存在时返回 nil, nil。
func (b *buildContext) entity(id int64) (*repository.ProxyEntity, error) {
	if entity, ok := b.entities[id]; ok {
		return entity, nil
	}
	entity, err := b.sources.Profiles.FindByID(b.ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		b.entities[id] = nil
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load profile %d: %w", id, err)
	}
	b.entities[id] = entity
	return entity, nil
}

// prefetch loads every id not cached yet with one batched query.
func (b *buildContext) prefetch(ids []int64) error {
	missing := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := b.entities[id]; !ok {
			missing = append(missing, id)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	found, err := b.sources.Profiles.FindByIDs(b.ctx, missing)
	if err != nil {
		return fmt.Errorf("load profiles: %w", err)
	}
	for _, id := range missing {
		b.entities[id] = nil
	}
	for _, entity := range found {
		b.entities[entity.ID] = entity
	}
	return nil
}

// group 读取分组并缓存；id 为 0 或不存在时返回 nil, nil。
func (b *buildContext) group(id int64) (*repository.Group, error) {
	if id <= 0 || b.sources.Groups == nil {
		return nil, nil
	}
	if group, ok := b.groups[id]; ok {
		return group, nil
	}
	group, err := b.sources.Groups.FindByID(b.ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		b.groups[id] = nil
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load group %d: %w", id, err)
	}
	b.groups[id] = group
	return group, nil
}

// selectorName returns name, or name-1, name-2, ... when already taken.
func (b *buildContext) selectorName(name string) string {
	candidate := name
	for i := 1; ; i++ {
		if _, taken := b.selectorNames[candidate]; !taken {
			break
		}
		candidate = fmt.Sprintf("%s-%d", name, i)
	}
	b.selectorNames[candidate] = struct{}{}
	return candidate
}

func (b *buildContext) alert(kind AlertType, message string) {
	b.alerts = append(b.alerts, Alert{Type: kind, Message: message})
}

// forceDirect resolves host through the direct DNS server when it is a name.
func (b *buildContext) forceDirect(host string) {
	host = strings.TrimSpace(host)
	if host == "" || isIPAddress(host) {
		return
	}
	b.domainForceDirect.add("full:" + host)
}

func isIPAddress(host string) bool {
	host = strings.TrimSuffix(strings.TrimPrefix(host, "["), "]")
	_, err := netip.ParseAddr(host)
	return err == nil
}

// orderedSet keeps insertion order and drops repeats.
type orderedSet[T comparable] struct {
	items []T
	seen  map[T]struct{}
}

func (s *orderedSet[T]) add(values ...T) {
	if s.seen == nil {
		s.seen = make(map[T]struct{})
	}
	for _, v := range values {
		if _, ok := s.seen[v]; ok {
			continue
		}
		s.seen[v] = struct{}{}
		s.items = append(s.items, v)
	}
}

func (s *orderedSet[T]) values() []T { return s.items }

func (s *orderedSet[T]) len() int { return len(s.items) }
