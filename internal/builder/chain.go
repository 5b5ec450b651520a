package builder

import (
	"fmt"
	"slices"

	"github.com/creamcroissant/boxbuild/internal/repository"
)

// resolveChain flattens entity into its hop list, exit hop first. The
// entity's group contributes its landing proxy before and its front proxy
// after the chain.
func (b *buildContext) resolveChain(entity *repository.ProxyEntity) ([]*repository.ProxyEntity, error) {
	hops, err := b.flatten(entity, make(map[int64]struct{}))
	if err != nil {
		return nil, err
	}
	group, err := b.group(entity.GroupID)
	if err != nil || group == nil {
		return hops, err
	}
	if group.LandingProxyID != nil {
		landing, err := b.decoration(*group.LandingProxyID)
		if err != nil {
			return nil, err
		}
		hops = append(landing, hops...)
	}
	if group.FrontProxyID != nil {
		front, err := b.decoration(*group.FrontProxyID)
		if err != nil {
			return nil, err
		}
		hops = append(hops, front...)
	}
	return hops, nil
}

func (b *buildContext) decoration(id int64) ([]*repository.ProxyEntity, error) {
	entity, err := b.entity(id)
	if err != nil || entity == nil {
		return nil, err
	}
	return b.flatten(entity, make(map[int64]struct{}))
}

// flatten expands chain beans recursively: members are resolved in stored
// order, concatenated, then reversed. Unknown members are skipped.
func (b *buildContext) flatten(entity *repository.ProxyEntity, path map[int64]struct{}) ([]*repository.ProxyEntity, error) {
	chain, ok := entity.Bean.(*repository.ChainBean)
	if !ok {
		return []*repository.ProxyEntity{entity}, nil
	}
	if _, seen := path[entity.ID]; seen {
		return nil, fmt.Errorf("%w: profile %d", ErrChainCycle, entity.ID)
	}
	path[entity.ID] = struct{}{}
	defer delete(path, entity.ID)

	if err := b.prefetch(chain.Members); err != nil {
		return nil, err
	}
	var hops []*repository.ProxyEntity
	for _, id := range chain.Members {
		member, err := b.entity(id)
		if err != nil {
			return nil, err
		}
		if member == nil {
			continue
		}
		sub, err := b.flatten(member, path)
		if err != nil {
			return nil, err
		}
		hops = append(hops, sub...)
	}
	slices.Reverse(hops)
	return hops, nil
}
