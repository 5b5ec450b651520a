// 文件路径: internal/repository/interfaces.go
// 模块说明: 这是 internal 模块里的 interfaces 逻辑，下面的注释会用非常通俗的中文帮你理解每一步。
package repository

import "context"

// Store 暴露每个聚合根对应的仓储接口。
type Store interface {
	Profiles() ProfileRepository
	Groups() GroupRepository
	Rules() RuleRepository
}

// ProfileRepository 定义代理配置的数据访问方法。
type ProfileRepository interface {
	FindByID(ctx context.Context, id int64) (*ProxyEntity, error)
	// FindByIDs returns the profiles that exist, in id order; unknown ids are skipped.
	FindByIDs(ctx context.Context, ids []int64) ([]*ProxyEntity, error)
	ListByGroup(ctx context.Context, groupID int64) ([]*ProxyEntity, error)
	List(ctx context.Context) ([]*ProxyEntity, error)
	Create(ctx context.Context, profile *ProxyEntity) error
}

// GroupRepository 管理分组。
type GroupRepository interface {
	FindByID(ctx context.Context, id int64) (*Group, error)
	List(ctx context.Context) ([]*Group, error)
	Create(ctx context.Context, group *Group) error
	Update(ctx context.Context, group *Group) error
}

// RuleRepository 管理路由规则。
type RuleRepository interface {
	// ListEnabled returns enabled rules in evaluation order.
	ListEnabled(ctx context.Context) ([]*Rule, error)
	Create(ctx context.Context, rule *Rule) error
}
