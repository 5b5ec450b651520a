package builder

import (
	"context"

	"github.com/creamcroissant/boxbuild/internal/repository"
)

// ProfileSource reads stored profiles.
type ProfileSource interface {
	FindByID(ctx context.Context, id int64) (*repository.ProxyEntity, error)
	FindByIDs(ctx context.Context, ids []int64) ([]*repository.ProxyEntity, error)
	ListByGroup(ctx context.Context, groupID int64) ([]*repository.ProxyEntity, error)
}

// GroupSource reads stored groups.
type GroupSource interface {
	FindByID(ctx context.Context, id int64) (*repository.Group, error)
}

// RuleSource reads the enabled routing rules in evaluation order.
type RuleSource interface {
	ListEnabled(ctx context.Context) ([]*repository.Rule, error)
}

// UIDResolver maps app package names to OS user ids.
type UIDResolver interface {
	AwaitLoaded(ctx context.Context) error
	Lookup(ctx context.Context, name string) (int, bool)
}

// HelperChecker reports whether a compatible helper binary is installed.
type HelperChecker interface {
	Compatible(plugin string) bool
}

// Sources bundles the collaborators of a Builder. UIDs and Helpers may be nil.
type Sources struct {
	Profiles ProfileSource
	Groups   GroupSource
	Rules    RuleSource
	Settings SettingsProvider
	UIDs     UIDResolver
	Helpers  HelperChecker
}
