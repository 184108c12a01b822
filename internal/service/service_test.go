package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fentz26/mcphub/internal/audit"
	"github.com/fentz26/mcphub/internal/clients"
	"github.com/fentz26/mcphub/internal/credentials"
	"github.com/fentz26/mcphub/internal/health"
	"github.com/fentz26/mcphub/internal/lifecycle"
	"github.com/fentz26/mcphub/internal/mirror"
	"github.com/fentz26/mcphub/internal/models"
	"github.com/fentz26/mcphub/internal/projector"
	"github.com/fentz26/mcphub/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zalando/go-keyring"
)

type fixture struct {
	svc    *Service
	store  *store.Store
	home   string
	mirror *mirror.Mirror
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	keyring.MockInit()

	home := t.TempDir()
	s, err := store.New(filepath.Join(t.TempDir(), "hub.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	m := mirror.New(home)
	lc := lifecycle.New(s, m)
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		lc.Shutdown(ctx)
	})

	journal := audit.NewJournal(s)
	creds := credentials.NewKeyring()
	svc := New(Deps{
		Store:             s,
		Resolver:          &clients.Resolver{OS: "linux", Home: home, ConfigDir: filepath.Join(home, ".config")},
		Projector:         projector.New(s, journal, projector.Options{}),
		Lifecycle:         lc,
		Health:            health.NewChecker(health.ModeVersion, time.Second, creds),
		Credentials:       creds,
		Journal:           journal,
		BackupDir:         filepath.Join(t.TempDir(), "backups"),
		HealthConcurrency: 2,
	})
	return &fixture{svc: svc, store: s, home: home, mirror: m}
}

func (f *fixture) server(t *testing.T, name string) *models.Server {
	t.Helper()
	srv, err := f.svc.CreateServer(context.Background(), ServerInput{
		Name:    name,
		Command: "npx",
		Args:    []string{"-y", name},
	})
	require.NoError(t, err)
	return srv
}

func TestCreateInstance_ResolvesPathAndDefault(t *testing.T) {
	f := newFixture(t)

	first, err := f.svc.CreateInstance("Cursor", models.ClientCursor, "")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(f.home, ".cursor", "mcp.json"), first.ConfigPath)
	assert.True(t, first.IsDefault)

	second, err := f.svc.CreateInstance("Zed", models.ClientZed, "")
	require.NoError(t, err)
	assert.False(t, second.IsDefault)
}

func TestCreateInstance_CustomRequiresPath(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.CreateInstance("Mine", models.ClientCustom, "")
	assert.ErrorIs(t, err, ErrPathRequired)

	path := filepath.Join(t.TempDir(), "custom.json")
	inst, err := f.svc.CreateInstance("Mine", models.ClientCustom, path)
	require.NoError(t, err)
	assert.Equal(t, path, inst.ConfigPath)

	_, err = f.svc.CreateInstance("  ", models.ClientCursor, "")
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestServerCRUD(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreateServer(ctx, ServerInput{Name: "x"})
	assert.ErrorIs(t, err, ErrInvalidInput)

	srv := f.server(t, "github")
	assert.Equal(t, models.SourceManual, srv.Source.Kind)

	updated, err := f.svc.UpdateServer(ctx, srv.ID, ServerInput{Name: "github", Command: "uvx", Tags: []string{"vcs"}})
	require.NoError(t, err)
	assert.Equal(t, "uvx", updated.Command)

	got, err := f.svc.GetServer(srv.ID)
	require.NoError(t, err)
	assert.Equal(t, "uvx", got.Command)
	assert.Equal(t, []string{"vcs"}, got.Tags)

	require.NoError(t, f.svc.DeleteServer(ctx, srv.ID))
	_, err = f.svc.GetServer(srv.ID)
	assert.ErrorIs(t, err, ErrServerNotFound)
	assert.ErrorIs(t, f.svc.DeleteServer(ctx, srv.ID), ErrServerNotFound)

	entries, err := f.svc.History(10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, audit.ActionServerDelete, entries[0].Action)
	assert.Equal(t, audit.OutcomeFailure, entries[0].Outcome)
	assert.Equal(t, audit.OutcomeSuccess, entries[1].Outcome)
}

func TestSetServerEnabled_ValidatesBothSides(t *testing.T) {
	f := newFixture(t)
	srv := f.server(t, "github")
	inst, err := f.svc.CreateInstance("Cursor", models.ClientCursor, "")
	require.NoError(t, err)

	assert.ErrorIs(t, f.svc.SetServerEnabled("nope", srv.ID, true), ErrInstanceNotFound)
	assert.ErrorIs(t, f.svc.SetServerEnabled(inst.ID, "nope", true), ErrServerNotFound)

	require.NoError(t, f.svc.SetServerEnabled(inst.ID, srv.ID, true))
	ids, err := f.svc.GetEnabledServers(inst.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{srv.ID}, ids)

	require.NoError(t, f.svc.SetServerEnabled(inst.ID, srv.ID, false))
	ids, err = f.svc.GetEnabledServers(inst.ID)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestSyncInstance_BackupsFollowSettings(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	srv := f.server(t, "github")

	path := filepath.Join(t.TempDir(), "mcp.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"mcpServers":{}}`), 0o600))
	inst, err := f.svc.CreateInstance("Cursor", models.ClientCursor, path)
	require.NoError(t, err)
	require.NoError(t, f.svc.SetServerEnabled(inst.ID, srv.ID, true))

	backupPath, err := f.svc.SyncInstance(ctx, inst.ID)
	require.NoError(t, err)
	assert.FileExists(t, backupPath)

	backups, err := f.svc.ListBackups(inst.ID)
	require.NoError(t, err)
	assert.Len(t, backups, 1)

	settings, err := f.svc.GetSettings()
	require.NoError(t, err)
	settings.CreateBackups = false
	require.NoError(t, f.svc.SaveSettings(ctx, settings))

	backupPath, err = f.svc.SyncInstance(ctx, inst.ID)
	require.NoError(t, err)
	assert.Empty(t, backupPath)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"github"`)
}

func TestSyncInstance_NotFound(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.SyncInstance(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrInstanceNotFound)
}

func TestSaveSettings_PersistsThenReconciles(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	srv := f.server(t, "github")

	settings, err := f.svc.GetSettings()
	require.NoError(t, err)
	settings.Discovery.MCPDirectoryEnabled = true
	require.NoError(t, f.svc.SaveSettings(ctx, settings))

	stored, err := f.store.LoadAppSettings()
	require.NoError(t, err)
	assert.True(t, stored.Discovery.MCPDirectoryEnabled)
	assert.FileExists(t, filepath.Join(f.mirror.Dir, mirror.FileName(srv.Name)))
	assert.True(t, f.svc.DiscoveryStatus().MCPDirectoryEnabled)

	// Registry changes flow to the mirror.
	other := f.server(t, "slack")
	assert.FileExists(t, filepath.Join(f.mirror.Dir, mirror.FileName(other.Name)))

	require.NoError(t, f.svc.UpdateDiscoverySettings(ctx, models.DiscoverySettings{HTTPServerPort: models.DefaultDiscoveryPort}))
	files, err := f.mirror.Files()
	require.NoError(t, err)
	assert.Empty(t, files)
	assert.DirExists(t, f.mirror.Dir)

	entries, err := f.svc.History(0)
	require.NoError(t, err)
	require.NotEmpty(t, entries)
	assert.Equal(t, audit.ActionSettingsSave, entries[0].Action)
}

func TestSaveSettings_RejectsZeroPort(t *testing.T) {
	f := newFixture(t)
	settings := models.DefaultAppSettings()
	settings.Discovery.HTTPServerPort = 0
	assert.ErrorIs(t, f.svc.SaveSettings(context.Background(), settings), ErrInvalidInput)
}

func TestRestoreBackup(t *testing.T) {
	f := newFixture(t)
	assert.EqualError(t, f.svc.RestoreBackup("any"), "Restore not yet implemented")
}

func TestImportFromFile(t *testing.T) {
	f := newFixture(t)
	path := filepath.Join(t.TempDir(), "claude.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"mcpServers":{"b":{"command":"uvx"},"a":{"command":"npx","args":["x"]}}}`), 0o600))

	created, err := f.svc.ImportFromFile(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, created, 2)
	assert.Equal(t, "a", created[0].Name)
	assert.Equal(t, models.SourceImported, created[0].Source.Kind)
	assert.Equal(t, path, created[0].Source.URL)

	servers, err := f.svc.ListServers()
	require.NoError(t, err)
	assert.Len(t, servers, 2)

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{not json`), 0o600))
	_, err = f.svc.ImportFromFile(context.Background(), bad)
	assert.Error(t, err)
}

func TestLoadRegistryFile(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "registry.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte(`servers:
  - name: github
    command: npx
    args: ["-y", "@modelcontextprotocol/server-github"]
    env:
      GITHUB_TOKEN: ""
    tags: [vcs]
  - name: broken
`), 0o600))
	entries, err := LoadRegistryFile(yamlPath)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "github", entries[0].Name)
	assert.Equal(t, []string{"vcs"}, entries[0].Tags)

	jsonPath := filepath.Join(dir, "registry.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`[{"name":"fetch","command":"uvx","args":["mcp-server-fetch"]}]`), 0o600))
	entries, err = LoadRegistryFile(jsonPath)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "uvx", entries[0].Command)

	scalarPath := filepath.Join(dir, "scalar.yaml")
	require.NoError(t, os.WriteFile(scalarPath, []byte("just text\n"), 0o600))
	_, err = LoadRegistryFile(scalarPath)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestImportFromRegistry_SkipsIncompleteEntries(t *testing.T) {
	f := newFixture(t)
	created, err := f.svc.ImportFromRegistry(context.Background(), "https://registry.example/servers", []RegistryServer{
		{Name: "github", Command: "npx", Tags: []string{"vcs"}},
		{Name: "broken"},
	})
	require.NoError(t, err)
	require.Len(t, created, 1)
	assert.Equal(t, models.SourceRegistry, created[0].Source.Kind)
	assert.Equal(t, "https://registry.example/servers", created[0].Source.URL)
}

func TestCheckServerHealth(t *testing.T) {
	f := newFixture(t)

	missing := f.svc.CheckServerHealth(context.Background(), "nope")
	assert.Equal(t, models.HealthError, missing.Status)
	assert.Equal(t, "nope", missing.ServerID)

	srv, err := f.svc.CreateServer(context.Background(), ServerInput{Name: "ghost", Command: "__mcphub_missing_binary__"})
	require.NoError(t, err)
	results, err := f.svc.CheckAllHealth(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, srv.ID, results[0].ServerID)
	assert.Equal(t, models.HealthError, results[0].Status)
}

func TestCredentials(t *testing.T) {
	f := newFixture(t)
	srv := f.server(t, "github")

	assert.True(t, f.svc.CredentialsAvailable())
	assert.ErrorIs(t, f.svc.StoreCredential("nope", "TOKEN", "x"), ErrServerNotFound)
	assert.ErrorIs(t, f.svc.StoreCredential(srv.ID, "", "x"), ErrInvalidInput)

	require.NoError(t, f.svc.StoreCredential(srv.ID, "GITHUB_TOKEN", "secret"))
	value, ok, err := f.svc.GetCredential(srv.ID, "GITHUB_TOKEN")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "secret", value)

	require.NoError(t, f.svc.DeleteCredential(srv.ID, "GITHUB_TOKEN"))
	require.NoError(t, f.svc.DeleteCredential(srv.ID, "GITHUB_TOKEN"))
	_, ok, err = f.svc.GetCredential(srv.ID, "GITHUB_TOKEN")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMiscPaths(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, filepath.Join(f.home, ".config", "mcp-hub"), f.svc.AppDataDir())

	p, err := f.svc.DefaultConfigPath(models.ClientCursor)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(f.home, ".cursor", "mcp.json"), p)

	path := filepath.Join(t.TempDir(), "mcp.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"mcpServers":{"a":{"command":"npx"}}}`), 0o600))
	entries, err := f.svc.ReadConfigFile(path)
	require.NoError(t, err)
	assert.Equal(t, "npx", entries["a"].Command)
}
