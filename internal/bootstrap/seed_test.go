package bootstrap

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/creamcroissant/boxbuild/internal/repository"
	"github.com/creamcroissant/boxbuild/internal/repository/sqlite"
)

const seedDoc = `
groups:
  - key: main
    name: Main
    front: entry
profiles:
  - key: exit
    group: main
    name: Exit
    type: trojan
    settings:
      address: exit.example.com
      port: 443
      password: secret
      tls:
        enabled: true
  - key: entry
    name: Entry
    type: socks
    settings:
      address: 10.0.0.1
      port: 1080
  - key: both
    group: main
    type: chain
    members: [entry, exit]
rules:
  - name: ads
    domains: ["geosite:category-ads-all"]
    outbound: block
  - name: exit only
    domains: ["example.org"]
    outbound: exit
`

func TestImport(t *testing.T) {
	ctx := context.Background()
	db, err := OpenMigrated(filepath.Join(t.TempDir(), "seed", "boxbuild.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	store := sqlite.NewStore(db)

	report, err := Import(ctx, store, strings.NewReader(seedDoc))
	require.NoError(t, err)
	assert.Equal(t, 1, report.Groups)
	assert.Equal(t, 3, report.Profiles)
	assert.Equal(t, 2, report.Rules)

	chain, err := store.Profiles().FindByID(ctx, report.ProfileIDs["both"])
	require.NoError(t, err)
	assert.Equal(t, []int64{report.ProfileIDs["entry"], report.ProfileIDs["exit"]}, chain.Bean.(*repository.ChainBean).Members)

	exit, err := store.Profiles().FindByID(ctx, report.ProfileIDs["exit"])
	require.NoError(t, err)
	assert.Equal(t, repository.KindTrojan, exit.Kind())

	group, err := store.Groups().FindByID(ctx, exit.GroupID)
	require.NoError(t, err)
	require.NotNil(t, group.FrontProxyID)
	assert.Equal(t, report.ProfileIDs["entry"], *group.FrontProxyID)

	rules, err := store.Rules().ListEnabled(ctx)
	require.NoError(t, err)
	require.Len(t, rules, 2)
	assert.Equal(t, repository.OutboundBlock, rules[0].Outbound.Kind)
	assert.Equal(t, report.ProfileIDs["exit"], rules[1].Outbound.ProfileID)
}

func TestImportRejectsUnknownReferences(t *testing.T) {
	ctx := context.Background()
	db, err := OpenMigrated(filepath.Join(t.TempDir(), "bad.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = Import(ctx, sqlite.NewStore(db), strings.NewReader(`
profiles:
  - key: c
    type: chain
    members: [missing]
`))
	assert.ErrorIs(t, err, ErrInvalidSeed)

	_, err = Import(ctx, sqlite.NewStore(db), strings.NewReader("unknown_section: 1\n"))
	assert.ErrorIs(t, err, ErrInvalidSeed)
}
