package bootstrap

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/creamcroissant/boxbuild/internal/repository"
)

// ErrInvalidSeed 表示导入文件内容不合法。
var ErrInvalidSeed = errors.New("bootstrap: invalid seed file / 导入文件无效")

// SeedFile is the YAML layout accepted by Import. Profiles, groups and rules
// reference each other by key; keys only live inside one file.
type SeedFile struct {
	Groups   []SeedGroup   `yaml:"groups"`
	Profiles []SeedProfile `yaml:"profiles"`
	Rules    []SeedRule    `yaml:"rules"`
}

type SeedGroup struct {
	Key      string `yaml:"key"`
	Name     string `yaml:"name"`
	Selector bool   `yaml:"selector"`
	Front    string `yaml:"front"`
	Landing  string `yaml:"landing"`
}

// SeedProfile describes one profile. For chain profiles, Members lists the
// keys of profiles defined earlier in the file.
type SeedProfile struct {
	Key            string         `yaml:"key"`
	Group          string         `yaml:"group"`
	Name           string         `yaml:"name"`
	Type           string         `yaml:"type"`
	Settings       map[string]any `yaml:"settings"`
	Members        []string       `yaml:"members"`
	CustomOutbound string         `yaml:"custom_outbound"`
	CustomConfig   string         `yaml:"custom_config"`
}

type SeedRule struct {
	Name       string   `yaml:"name"`
	Disabled   bool     `yaml:"disabled"`
	Domains    []string `yaml:"domains"`
	IP         []string `yaml:"ip"`
	Port       string   `yaml:"port"`
	SourcePort string   `yaml:"source_port"`
	Network    string   `yaml:"network"`
	Source     []string `yaml:"source"`
	Protocol   []string `yaml:"protocol"`
	Packages   []string `yaml:"packages"`
	// Outbound is "proxy", "bypass", "block" or a profile key.
	Outbound string `yaml:"outbound"`
}

// ImportReport summarises one import.
type ImportReport struct {
	Groups   int
	Profiles int
	Rules    int
	// ProfileIDs maps seed keys to stored ids.
	ProfileIDs map[string]int64
}

// Import decodes a YAML seed document and writes it to the store.
func Import(ctx context.Context, store repository.Store, r io.Reader) (*ImportReport, error) {
	var seed SeedFile
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	if err := decoder.Decode(&seed); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSeed, err)
	}

	report := &ImportReport{ProfileIDs: make(map[string]int64)}
	groups := make(map[string]*repository.Group, len(seed.Groups))

	for _, sg := range seed.Groups {
		group := &repository.Group{Name: sg.Name, IsSelector: sg.Selector}
		if err := store.Groups().Create(ctx, group); err != nil {
			return nil, fmt.Errorf("create group %q: %w", sg.Key, err)
		}
		groups[sg.Key] = group
		report.Groups++
	}

	for i, sp := range seed.Profiles {
		entity, err := seedProfile(sp, groups, report.ProfileIDs)
		if err != nil {
			return nil, fmt.Errorf("profile %d (%s): %w", i, sp.Key, err)
		}
		entity.SortOrder = i
		if err := store.Profiles().Create(ctx, entity); err != nil {
			return nil, fmt.Errorf("create profile %q: %w", sp.Key, err)
		}
		if sp.Key != "" {
			report.ProfileIDs[sp.Key] = entity.ID
		}
		report.Profiles++
	}

	for _, sg := range seed.Groups {
		if sg.Front == "" && sg.Landing == "" {
			continue
		}
		group := groups[sg.Key]
		var err error
		if group.FrontProxyID, err = lookupOptional(report.ProfileIDs, sg.Front); err != nil {
			return nil, fmt.Errorf("group %q front: %w", sg.Key, err)
		}
		if group.LandingProxyID, err = lookupOptional(report.ProfileIDs, sg.Landing); err != nil {
			return nil, fmt.Errorf("group %q landing: %w", sg.Key, err)
		}
		if err := store.Groups().Update(ctx, group); err != nil {
			return nil, fmt.Errorf("update group %q: %w", sg.Key, err)
		}
	}

	for i, sr := range seed.Rules {
		outbound, err := seedOutbound(sr.Outbound, report.ProfileIDs)
		if err != nil {
			return nil, fmt.Errorf("rule %d (%s): %w", i, sr.Name, err)
		}
		rule := &repository.Rule{
			Name:       sr.Name,
			Enabled:    !sr.Disabled,
			Domains:    strings.Join(sr.Domains, "\n"),
			IP:         strings.Join(sr.IP, "\n"),
			Port:       sr.Port,
			SourcePort: sr.SourcePort,
			Network:    sr.Network,
			Source:     strings.Join(sr.Source, "\n"),
			Protocol:   strings.Join(sr.Protocol, "\n"),
			Packages:   sr.Packages,
			Outbound:   outbound,
			SortOrder:  i,
		}
		if err := store.Rules().Create(ctx, rule); err != nil {
			return nil, fmt.Errorf("create rule %q: %w", sr.Name, err)
		}
		report.Rules++
	}
	return report, nil
}

func seedProfile(sp SeedProfile, groups map[string]*repository.Group, known map[string]int64) (*repository.ProxyEntity, error) {
	kind := repository.BeanKind(strings.ToLower(strings.TrimSpace(sp.Type)))
	var (
		bean repository.Bean
		err  error
	)
	if kind == repository.KindChain {
		chain := &repository.ChainBean{}
		for _, key := range sp.Members {
			id, ok := known[key]
			if !ok {
				return nil, fmt.Errorf("%w: unknown chain member %q", ErrInvalidSeed, key)
			}
			chain.Members = append(chain.Members, id)
		}
		bean = chain
	} else {
		raw, marshalErr := json.Marshal(sp.Settings)
		if marshalErr != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidSeed, marshalErr)
		}
		if bean, err = repository.DecodeBean(kind, raw); err != nil {
			return nil, err
		}
	}

	entity := &repository.ProxyEntity{
		Name:               sp.Name,
		Bean:               bean,
		CustomOutboundJSON: strings.TrimSpace(sp.CustomOutbound),
		CustomConfigJSON:   strings.TrimSpace(sp.CustomConfig),
	}
	if sp.Group != "" {
		group, ok := groups[sp.Group]
		if !ok {
			return nil, fmt.Errorf("%w: unknown group %q", ErrInvalidSeed, sp.Group)
		}
		entity.GroupID = group.ID
	}
	return entity, nil
}

func seedOutbound(value string, known map[string]int64) (repository.RuleOutbound, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "proxy", "remote":
		return repository.RuleOutbound{Kind: repository.OutboundRemote}, nil
	case "bypass", "direct":
		return repository.RuleOutbound{Kind: repository.OutboundBypass}, nil
	case "block":
		return repository.RuleOutbound{Kind: repository.OutboundBlock}, nil
	}
	if id, ok := known[value]; ok {
		return repository.RuleOutbound{Kind: repository.OutboundProfile, ProfileID: id}, nil
	}
	// Raw ids may reference profiles stored by an earlier import.
	if id, err := strconv.ParseInt(value, 10, 64); err == nil && id > 0 {
		return repository.RuleOutbound{Kind: repository.OutboundProfile, ProfileID: id}, nil
	}
	return repository.RuleOutbound{}, fmt.Errorf("%w: unknown outbound %q", ErrInvalidSeed, value)
}

func lookupOptional(known map[string]int64, key string) (*int64, error) {
	if key == "" {
		return nil, nil
	}
	id, ok := known[key]
	if !ok {
		return nil, fmt.Errorf("%w: unknown profile %q", ErrInvalidSeed, key)
	}
	return &id, nil
}
