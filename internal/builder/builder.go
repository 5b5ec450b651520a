// 文件路径: internal/builder/builder.go
// 模块说明: 这是 internal 模块里的 builder 逻辑，下面的注释会用非常通俗的中文帮你理解每一步。
package builder

import (
	"context"
	"errors"
	"fmt"

	"github.com/creamcroissant/boxbuild/internal/repository"
)

// Builder compiles stored profiles into engine configurations. A Builder is
// safe for concurrent use; every build keeps its own state.
type Builder struct {
	sources Sources
}

// New creates a Builder over the given sources.
func New(sources Sources) *Builder {
	return &Builder{sources: sources}
}

// Build loads the profile and compiles it.
func (b *Builder) Build(ctx context.Context, profileID int64, mode Mode) (*ConfigBuildResult, error) {
	entity, err := b.sources.Profiles.FindByID(ctx, profileID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, fmt.Errorf("%w: %d", ErrProfileNotFound, profileID)
	}
	if err != nil {
		return nil, fmt.Errorf("load profile %d: %w", profileID, err)
	}
	return b.BuildProfile(ctx, entity, mode)
}

// BuildProfile compiles entity into a complete configuration.
func (b *Builder) BuildProfile(ctx context.Context, entity *repository.ProxyEntity, mode Mode) (*ConfigBuildResult, error) {
	if entity == nil {
		return nil, ErrProfileNotFound
	}
	// 完整配置直接原样返回，不参与任何拼装。
	if raw, ok := entity.Bean.(*repository.ConfigBean); ok && raw.IsFullConfig() {
		return &ConfigBuildResult{
			Config:          raw.Content,
			ExternalIndex:   []ExternalChain{},
			MainEntityID:    entity.ID,
			TrafficMap:      map[string][]*repository.ProxyEntity{TagProxy: {entity}},
			TagMap:          map[int64]string{entity.ID: TagProxy},
			Alerts:          []Alert{},
			SelectorGroupID: -1,
		}, nil
	}

	settings, err := b.sources.Settings.Settings(ctx)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	bc := newBuildContext(ctx, b.sources, settings, mode, entity)

	var rules []*repository.Rule
	if !bc.forTest() && b.sources.Rules != nil {
		if rules, err = b.sources.Rules.ListEnabled(ctx); err != nil {
			return nil, fmt.Errorf("load rules: %w", err)
		}
	}

	selectorGroupID, err := bc.buildMain()
	if err != nil {
		return nil, err
	}
	if err := bc.buildExtra(rules); err != nil {
		return nil, err
	}
	userRules, err := bc.compileRules(rules)
	if err != nil {
		return nil, err
	}

	doc, err := bc.document(userRules)
	if err != nil {
		return nil, err
	}
	config, err := render(doc, entity.CustomConfigJSON)
	if err != nil {
		return nil, err
	}

	external := make([]ExternalChain, 0, len(bc.externalIndex))
	for _, chain := range bc.externalIndex {
		external = append(external, *chain)
	}
	alerts := bc.alerts
	if alerts == nil {
		alerts = []Alert{}
	}
	return &ConfigBuildResult{
		Config:          config,
		ExternalIndex:   external,
		MainEntityID:    entity.ID,
		TrafficMap:      bc.trafficMap,
		TagMap:          bc.tagMap,
		Alerts:          alerts,
		SelectorGroupID: selectorGroupID,
	}, nil
}

// buildMain builds the target, wrapped in a selector over its group when the
// group is a selector group. It returns the selector group id or -1.
func (b *buildContext) buildMain() (int64, error) {
	target := b.target
	group, err := b.group(target.GroupID)
	if err != nil {
		return 0, err
	}
	b.buildSelector = group != nil && group.IsSelector && b.mode == ModeNormal
	if !b.buildSelector {
		tag, err := b.buildChain(0, target)
		if err != nil {
			return 0, err
		}
		b.tagMap[target.ID] = tag
		return -1, nil
	}

	members, err := b.sources.Profiles.ListByGroup(b.ctx, group.ID)
	if err != nil {
		return 0, fmt.Errorf("list group %d: %w", group.ID, err)
	}
	tags := make([]string, 0, len(members))
	for _, member := range members {
		b.entities[member.ID] = member
		tag, err := b.buildChain(member.ID, member)
		if err != nil {
			return 0, err
		}
		b.tagMap[member.ID] = tag
		tags = append(tags, tag)
	}
	selector := map[string]any{
		"type":      "selector",
		"tag":       TagProxy,
		"outbounds": tags,
	}
	if tag, ok := b.tagMap[target.ID]; ok {
		selector["default"] = tag
	}
	b.outbounds = append([]map[string]any{selector}, b.outbounds...)
	return group.ID, nil
}

// buildExtra builds the profiles that rules route to, skipping those the
// selector already built.
func (b *buildContext) buildExtra(rules []*repository.Rule) error {
	ids := extraProfileIDs(rules, b.target.ID)
	if err := b.prefetch(ids); err != nil {
		return err
	}
	for _, id := range ids {
		if _, built := b.tagMap[id]; built {
			continue
		}
		entity, err := b.entity(id)
		if err != nil {
			return err
		}
		if entity == nil {
			continue
		}
		tag, err := b.buildChain(id, entity)
		if err != nil {
			return err
		}
		b.tagMap[id] = tag
	}
	return nil
}

// document assembles the final sections once every chain is built.
func (b *buildContext) document(userRules []RouteRule) (*Document, error) {
	dns, err := b.buildDNS()
	if err != nil {
		return nil, err
	}

	outbounds := append(b.outbounds,
		map[string]any{"type": "direct", "tag": TagDirect},
		map[string]any{"type": "direct", "tag": TagBypass},
		map[string]any{"type": "block", "tag": TagBlock},
	)

	var rules []RouteRule
	if !b.forTest() {
		outbounds = append(outbounds, map[string]any{"type": "dns", "tag": TagDNSOut})
		rules = append(rules, leadingRules()...)
	}
	rules = append(rules, b.chainRules...)
	rules = append(rules, userRules...)
	if !b.forTest() {
		rules = append(rules, b.trailingRules()...)
	}
	if rules == nil {
		rules = []RouteRule{}
	}

	doc := &Document{
		Log:       &LogOptions{Level: b.settings.logLevel()},
		DNS:       dns,
		Inbounds:  append(b.listenInbounds(), b.inbounds...),
		Outbounds: outbounds,
		Route:     &RouteOptions{Rules: rules, AutoDetectInterface: true},
	}
	if api := b.settings.ClashAPI; api.Enabled && !b.forTest() {
		doc.Experimental = &ExperimentalOptions{ClashAPI: &ClashAPIOptions{
			ExternalController: api.Controller,
			ExternalUI:         api.UI,
			CacheFile:          api.CacheFile,
		}}
	}
	return doc, nil
}
