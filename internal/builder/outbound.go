// 文件路径: internal/builder/outbound.go
// 模块说明: 这是 internal 模块里的 outbound 逻辑，下面的注释会用非常通俗的中文帮你理解每一步。
package builder

import (
	"fmt"
	"strconv"

	"github.com/creamcroissant/boxbuild/internal/protocol"
	"github.com/creamcroissant/boxbuild/internal/repository"
)

// hopState remembers the previously emitted hop so the next one can link to it.
type hopState struct {
	entity      *repository.ProxyEntity
	outbound    map[string]any
	inboundTag  string
	needsHelper bool
}

// link makes the previous hop dial through tag: by detour for native
// outbounds, by a route rule on its mapping inbound for helper hops.
func (b *buildContext) link(past *hopState, tag string) error {
	if !past.needsHelper {
		past.outbound["detour"] = tag
		return nil
	}
	if past.inboundTag == "" {
		return fmt.Errorf("%w: profile %d has no mapping inbound", ErrUnreachable, past.entity.ID)
	}
	b.chainRules = append(b.chainRules, RouteRule{
		Inbound:  []string{past.inboundTag},
		Outbound: tag,
	})
	return nil
}

// buildChain emits the outbounds of entity's resolved chain and returns the
// tag traffic should be routed to. chainID 0 marks the main profile.
func (b *buildContext) buildChain(chainID int64, entity *repository.ProxyEntity) (string, error) {
	hops, err := b.resolveChain(entity)
	if err != nil {
		return "", err
	}
	if len(hops) == 0 {
		return "", fmt.Errorf("%w: chain %d has no members", ErrProfileNotFound, entity.ID)
	}

	traffic := make([]*repository.ProxyEntity, 0, len(hops)+1)
	seen := make(map[int64]struct{}, len(hops)+1)
	for _, hop := range append(hops, entity) {
		if _, ok := seen[hop.ID]; ok {
			continue
		}
		seen[hop.ID] = struct{}{}
		traffic = append(traffic, hop)
	}

	external := &ExternalChain{Hops: []ExternalHop{}}
	b.externalIndex = append(b.externalIndex, external)

	chainTag := "c-" + strconv.FormatInt(chainID, 10)
	strategy := b.domainStrategy()
	outboundStrategy := strategy
	if b.forTest() {
		outboundStrategy = ""
	}

	var chainTagOut string
	var past *hopState
	muxApplied := false

	for index, hop := range hops {
		bean := hop.Bean
		last := index == len(hops)-1
		tag := fmt.Sprintf("%s-%d", chainTag, hop.ID)

		if last {
			tag = "g-" + strconv.FormatInt(hop.ID, 10)
			b.bypassDNS(hop)
			// 全局出站已生成过：直接复用它的标签。
			if reused, ok := b.globalOutbounds[hop.ID]; ok {
				if index == 0 {
					chainTagOut = reused
				} else if err := b.link(past, reused); err != nil {
					return "", err
				}
				break
			}
		}
		if chainID == 0 && index == 0 {
			tag = TagProxy
		}
		if b.buildSelector && index == 0 {
			tag = b.selectorName(hop.DisplayName())
		}
		if last {
			b.globalOutbounds[hop.ID] = tag
		}

		if index == 0 {
			chainTagOut = tag
		} else if err := b.link(past, tag); err != nil {
			return "", err
		}

		needsHelper := protocol.NeedsHelper(bean)
		var outbound map[string]any
		if needsHelper {
			port, err := b.ports.allocate()
			if err != nil {
				return "", err
			}
			external.Hops = append(external.Hops, ExternalHop{LocalPort: port, Entity: hop, EntityID: hop.ID})
			outbound = protocol.LoopbackSocks(port)
		} else {
			outbound, err = protocol.BuildOutbound(bean)
			if err != nil {
				return "", fmt.Errorf("profile %d: %w", hop.ID, err)
			}
			if !muxApplied && protocol.NeedsMux(bean, b.settings.Mux) {
				muxApplied = true
				outbound["multiplex"] = protocol.Multiplex(b.settings.Mux)
			}
			if hop.CustomOutboundJSON != "" {
				if err := MergeJSON(outbound, hop.CustomOutboundJSON); err != nil {
					return "", fmt.Errorf("profile %d custom outbound: %w", hop.ID, err)
				}
			}
		}

		// 上一跳的服务器域名要走直连 DNS 解析，否则会绕回代理自身。
		if past != nil && strategy != "" {
			address, _ := past.entity.Bean.Server()
			b.forceDirect(address)
		}

		outbound["tag"] = tag
		outbound["domain_strategy"] = outboundStrategy

		var inboundTag string
		if needsHelper && protocol.CanMap(bean) {
			mapped, err := b.needsMapping(hop, last)
			if err != nil {
				return "", err
			}
			if mapped {
				inboundTag, err = b.mapHop(external, chainTag, hop, last)
				if err != nil {
					return "", err
				}
			}
		}

		b.outbounds = append(b.outbounds, outbound)
		past = &hopState{entity: hop, outbound: outbound, inboundTag: inboundTag, needsHelper: needsHelper}
	}

	b.trafficMap[chainTagOut] = traffic
	return chainTagOut, nil
}

// needsMapping decides whether a helper hop loops back through the engine.
// The entry hop connects directly when a compatible helper is installed.
func (b *buildContext) needsMapping(hop *repository.ProxyEntity, last bool) (bool, error) {
	if !last {
		return true, nil
	}
	plugin := protocol.HelperPlugin(hop.Bean)
	if b.sources.Helpers != nil && b.sources.Helpers.Compatible(plugin) {
		return false, nil
	}
	if _, ok := hop.Bean.(*repository.HysteriaBean); ok {
		return false, fmt.Errorf("%w: %s for profile %d", ErrUnsupportedHelper, plugin, hop.ID)
	}
	return true, nil
}

// mapHop points the hop's helper at a local direct inbound that forwards to
// the real server, so the helper's traffic re-enters the routing table.
func (b *buildContext) mapHop(external *ExternalChain, chainTag string, hop *repository.ProxyEntity, last bool) (string, error) {
	port, err := b.ports.allocate()
	if err != nil {
		return "", err
	}
	record := &external.Hops[len(external.Hops)-1]
	record.FinalAddress = protocol.Localhost
	record.FinalPort = port

	address, serverPort := hop.Bean.Server()
	tag := fmt.Sprintf("%s-mapping-%d", chainTag, hop.ID)
	b.inbounds = append(b.inbounds, Inbound{
		Type:            "direct",
		Tag:             tag,
		Listen:          protocol.Localhost,
		ListenPort:      port,
		OverrideAddress: address,
		OverridePort:    serverPort,
	})
	if last {
		b.chainRules = append(b.chainRules, RouteRule{
			Inbound:  []string{tag},
			Outbound: TagDirect,
		})
	}
	return tag, nil
}
