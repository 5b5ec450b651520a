package sqlite

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/creamcroissant/boxbuild/internal/migrations"
	"github.com/creamcroissant/boxbuild/internal/repository"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "store.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, migrations.Up(db))
	return NewStore(db)
}

func TestProfileRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	group := &repository.Group{Name: "default"}
	require.NoError(t, store.Groups().Create(ctx, group))

	vmess := &repository.ProxyEntity{
		GroupID: group.ID,
		Name:    "tokyo",
		Bean: &repository.StandardBean{
			Protocol: "vmess",
			Address:  "jp.example.com",
			Port:     443,
			UUID:     "b831381d-6324-4d53-ad4f-8cda48b30811",
			TLS:      repository.TLSSettings{Enabled: true, ServerName: "jp.example.com"},
		},
		CustomOutboundJSON: `{"tcp_fast_open":true}`,
	}
	require.NoError(t, store.Profiles().Create(ctx, vmess))
	require.NotZero(t, vmess.ID)

	chain := &repository.ProxyEntity{
		GroupID: group.ID,
		Name:    "via tokyo",
		Bean:    &repository.ChainBean{Members: []int64{vmess.ID}},
	}
	require.NoError(t, store.Profiles().Create(ctx, chain))

	loaded, err := store.Profiles().FindByID(ctx, vmess.ID)
	require.NoError(t, err)
	assert.Equal(t, "tokyo", loaded.Name)
	assert.Equal(t, repository.KindVMess, loaded.Kind())
	std, ok := loaded.Bean.(*repository.StandardBean)
	require.True(t, ok)
	assert.Equal(t, "jp.example.com", std.Address)
	assert.True(t, std.TLS.Enabled)
	assert.Equal(t, `{"tcp_fast_open":true}`, loaded.CustomOutboundJSON)

	loadedChain, err := store.Profiles().FindByID(ctx, chain.ID)
	require.NoError(t, err)
	assert.Equal(t, []int64{vmess.ID}, loadedChain.Bean.(*repository.ChainBean).Members)

	members, err := store.Profiles().ListByGroup(ctx, group.ID)
	require.NoError(t, err)
	assert.Len(t, members, 2)

	found, err := store.Profiles().FindByIDs(ctx, []int64{chain.ID, 9999, vmess.ID})
	require.NoError(t, err)
	require.Len(t, found, 2)
	assert.Equal(t, vmess.ID, found[0].ID)

	_, err = store.Profiles().FindByID(ctx, 9999)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestGroupUpdate(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	group := &repository.Group{Name: "relay", IsSelector: true}
	require.NoError(t, store.Groups().Create(ctx, group))

	front := int64(7)
	group.FrontProxyID = &front
	require.NoError(t, store.Groups().Update(ctx, group))

	loaded, err := store.Groups().FindByID(ctx, group.ID)
	require.NoError(t, err)
	assert.True(t, loaded.IsSelector)
	require.NotNil(t, loaded.FrontProxyID)
	assert.Equal(t, int64(7), *loaded.FrontProxyID)
	assert.Nil(t, loaded.LandingProxyID)

	_, err = store.Groups().FindByID(ctx, group.ID+100)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestRuleListEnabled(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	rules := []*repository.Rule{
		{Name: "ads", Enabled: true, Domains: "geosite:category-ads-all", Outbound: repository.RuleOutbound{Kind: repository.OutboundBlock}, SortOrder: 2},
		{Name: "cn", Enabled: true, IP: "geoip:cn", Outbound: repository.RuleOutbound{Kind: repository.OutboundBypass}, SortOrder: 1},
		{Name: "off", Enabled: false, Domains: "example.org"},
		{Name: "app", Enabled: true, Packages: []string{"org.telegram.messenger"}, Outbound: repository.RuleOutbound{Kind: repository.OutboundProfile, ProfileID: 42}, SortOrder: 3},
	}
	for _, rule := range rules {
		require.NoError(t, store.Rules().Create(ctx, rule))
	}

	enabled, err := store.Rules().ListEnabled(ctx)
	require.NoError(t, err)
	require.Len(t, enabled, 3)
	assert.Equal(t, "cn", enabled[0].Name)
	assert.Equal(t, repository.OutboundBypass, enabled[0].Outbound.Kind)
	assert.Equal(t, repository.OutboundBlock, enabled[1].Outbound.Kind)
	assert.Equal(t, repository.RuleOutbound{Kind: repository.OutboundProfile, ProfileID: 42}, enabled[2].Outbound)
	assert.Equal(t, []string{"org.telegram.messenger"}, enabled[2].Packages)
	assert.Nil(t, enabled[0].Packages)
}
