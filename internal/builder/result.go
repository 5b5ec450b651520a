package builder

import "github.com/creamcroissant/boxbuild/internal/repository"

// AlertType classifies non-fatal build findings.
type AlertType int

const (
	// AlertPerAppWithoutVPN: a rule filters by app while VPN mode is off.
	AlertPerAppWithoutVPN AlertType = iota
)

// Alert is a non-fatal finding surfaced next to a successful build.
type Alert struct {
	Type    AlertType `json:"type"`
	Message string    `json:"message"`
}

// ExternalHop is one helper process to launch: it listens on LocalPort and
// forwards to FinalAddress:FinalPort, which is a mapping inbound when set.
type ExternalHop struct {
	LocalPort    int                     `json:"local_port"`
	Entity       *repository.ProxyEntity `json:"-"`
	EntityID     int64                   `json:"entity_id"`
	FinalAddress string                  `json:"final_address,omitempty"`
	FinalPort    int                     `json:"final_port,omitempty"`
}

// ExternalChain lists the helper hops of one built chain in build order.
type ExternalChain struct {
	Hops []ExternalHop `json:"hops"`
}

// ConfigBuildResult is the output of one build.
type ConfigBuildResult struct {
	Config          string                               `json:"config"`
	ExternalIndex   []ExternalChain                      `json:"external_index"`
	MainEntityID    int64                                `json:"main_entity_id"`
	TrafficMap      map[string][]*repository.ProxyEntity `json:"-"`
	TagMap          map[int64]string                     `json:"tag_map"`
	Alerts          []Alert                              `json:"alerts"`
	SelectorGroupID int64                                `json:"selector_group_id"`
}

// TrafficTags returns the entity ids attributed to each outbound tag.
func (r *ConfigBuildResult) TrafficTags() map[string][]int64 {
	out := make(map[string][]int64, len(r.TrafficMap))
	for tag, entities := range r.TrafficMap {
		ids := make([]int64, 0, len(entities))
		for _, entity := range entities {
			ids = append(ids, entity.ID)
		}
		out[tag] = ids
	}
	return out
}
