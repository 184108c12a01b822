package store

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fentz26/mcphub/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func newServer(name string) *models.Server {
	return &models.Server{
		Name:    name,
		Command: "npx",
		Args:    []string{"-y", "pkg"},
		Env:     map[string]string{"API_KEY": "abc"},
		Tags:    []string{"demo"},
	}
}

func newInstance(t *testing.T, s *Store, name string) *models.ClientInstance {
	t.Helper()
	inst := &models.ClientInstance{
		Name:       name,
		ClientKind: models.ClientCursor,
		ConfigPath: filepath.Join(t.TempDir(), "mcp.json"),
	}
	require.NoError(t, s.CreateInstance(inst))
	return inst
}

func TestNew(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "test.db")

	s, err := New(dbPath)
	require.NoError(t, err)
	defer s.Close()

	_, err = os.Stat(dbPath)
	assert.NoError(t, err, "database file should be created")
}

func TestPing(t *testing.T) {
	s := newTestStore(t)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, s.Ping(ctx))
}

func TestServerCRUD(t *testing.T) {
	s := newTestStore(t)

	srv := newServer("Zeta")
	srv.Source = &models.ServerSource{Kind: models.SourceImported, URL: "/tmp/x.json"}
	require.NoError(t, s.CreateServer(srv))
	require.NotEmpty(t, srv.ID)

	got, err := s.GetServer(srv.ID)
	require.NoError(t, err)
	assert.Equal(t, "Zeta", got.Name)
	assert.Equal(t, []string{"-y", "pkg"}, got.Args)
	assert.Equal(t, map[string]string{"API_KEY": "abc"}, got.Env)
	assert.Equal(t, []string{"demo"}, got.Tags)
	require.NotNil(t, got.Source)
	assert.Equal(t, models.SourceImported, got.Source.Kind)
	assert.Equal(t, "/tmp/x.json", got.Source.URL)

	got.Description = "updated"
	got.UpdatedAt = got.UpdatedAt.Add(time.Minute)
	require.NoError(t, s.UpdateServer(got))

	again, err := s.GetServer(srv.ID)
	require.NoError(t, err)
	assert.Equal(t, "updated", again.Description)
	assert.True(t, again.UpdatedAt.Equal(got.UpdatedAt))

	require.NoError(t, s.DeleteServer(srv.ID))
	_, err = s.GetServer(srv.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.DeleteServer(srv.ID), ErrNotFound)
}

func TestCreateServer_DuplicateID(t *testing.T) {
	s := newTestStore(t)
	srv := newServer("A")
	require.NoError(t, s.CreateServer(srv))

	dup := newServer("B")
	dup.ID = srv.ID
	assert.ErrorIs(t, s.CreateServer(dup), ErrConflict)
}

func TestListServers_OrderedByName(t *testing.T) {
	s := newTestStore(t)
	for _, name := range []string{"charlie", "alpha", "bravo"} {
		require.NoError(t, s.CreateServer(newServer(name)))
	}

	servers, err := s.ListServers()
	require.NoError(t, err)
	require.Len(t, servers, 3)
	assert.Equal(t, "alpha", servers[0].Name)
	assert.Equal(t, "bravo", servers[1].Name)
	assert.Equal(t, "charlie", servers[2].Name)
}

func TestGetServer_CorruptColumn(t *testing.T) {
	s := newTestStore(t)
	srv := newServer("broken")
	require.NoError(t, s.CreateServer(srv))

	_, err := s.db.Exec(`UPDATE servers SET args = 'not json' WHERE id = ?`, srv.ID)
	require.NoError(t, err)

	_, err = s.GetServer(srv.ID)
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestTimestampFallback(t *testing.T) {
	s := newTestStore(t)
	srv := newServer("clock")
	require.NoError(t, s.CreateServer(srv))

	_, err := s.db.Exec(`UPDATE servers SET created_at = 'yesterday' WHERE id = ?`, srv.ID)
	require.NoError(t, err)

	before := time.Now().UTC().Add(-time.Second)
	got, err := s.GetServer(srv.ID)
	require.NoError(t, err)
	assert.True(t, got.CreatedAt.After(before), "unparseable timestamp should load as now")
}

func TestInstanceCRUD(t *testing.T) {
	s := newTestStore(t)
	inst := newInstance(t, s, "Work")

	got, err := s.GetInstance(inst.ID)
	require.NoError(t, err)
	assert.Equal(t, "Work", got.Name)
	assert.Equal(t, models.ClientCursor, got.ClientKind)
	assert.Empty(t, got.EnabledServers)
	assert.Nil(t, got.LastSynced)

	got.Name = "Home"
	require.NoError(t, s.UpdateInstance(got))
	again, err := s.GetInstance(inst.ID)
	require.NoError(t, err)
	assert.Equal(t, "Home", again.Name)

	synced := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, s.MarkSynced(inst.ID, synced))
	again, err = s.GetInstance(inst.ID)
	require.NoError(t, err)
	require.NotNil(t, again.LastSynced)
	assert.True(t, again.LastSynced.Equal(synced))

	require.NoError(t, s.DeleteInstance(inst.ID))
	_, err = s.GetInstance(inst.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUnknownClientKindLoadsAsCustom(t *testing.T) {
	s := newTestStore(t)
	inst := newInstance(t, s, "Odd")
	_, err := s.db.Exec(`UPDATE instances SET client_kind = 'mystery-editor' WHERE id = ?`, inst.ID)
	require.NoError(t, err)

	got, err := s.GetInstance(inst.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ClientCustom, got.ClientKind)
}

func TestSetDefaultInstance(t *testing.T) {
	s := newTestStore(t)
	a := newInstance(t, s, "a")
	b := newInstance(t, s, "b")

	require.NoError(t, s.SetDefaultInstance(b.ID))
	require.NoError(t, s.SetDefaultInstance(a.ID))

	list, err := s.ListInstances()
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, a.ID, list[0].ID)
	assert.True(t, list[0].IsDefault)
	assert.False(t, list[1].IsDefault)
}

func TestEnablement(t *testing.T) {
	s := newTestStore(t)
	inst := newInstance(t, s, "Work")
	a := newServer("a")
	b := newServer("b")
	require.NoError(t, s.CreateServer(a))
	require.NoError(t, s.CreateServer(b))

	require.NoError(t, s.SetEnablement(inst.ID, a.ID, true))
	require.NoError(t, s.SetEnablement(inst.ID, b.ID, true))
	require.NoError(t, s.SetEnablement(inst.ID, b.ID, false))

	ids, err := s.EnabledServersFor(inst.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{a.ID}, ids)

	list, err := s.ListInstances()
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, []string{a.ID}, list[0].EnabledServers)
}

func TestSetEnablement_UnknownInstance(t *testing.T) {
	s := newTestStore(t)
	srv := newServer("a")
	require.NoError(t, s.CreateServer(srv))
	assert.ErrorIs(t, s.SetEnablement("missing", srv.ID, true), ErrNotFound)
}

func TestSetEnablement_UnknownServer(t *testing.T) {
	s := newTestStore(t)
	inst := newInstance(t, s, "Work")
	assert.ErrorIs(t, s.SetEnablement(inst.ID, "missing", true), ErrNotFound)
}

func TestSetEnablement_StampsMonotonically(t *testing.T) {
	s := newTestStore(t)
	frozen := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return frozen }

	inst := newInstance(t, s, "Work")
	srv := newServer("a")
	require.NoError(t, s.CreateServer(srv))

	var last time.Time
	for i := 0; i < 3; i++ {
		require.NoError(t, s.SetEnablement(inst.ID, srv.ID, i%2 == 0))
		got, err := s.GetInstance(inst.ID)
		require.NoError(t, err)
		require.NotNil(t, got.LastModified)
		assert.True(t, got.LastModified.After(last), "last_modified must advance")
		last = *got.LastModified
	}
}

func TestCascadeDeletes(t *testing.T) {
	s := newTestStore(t)
	inst := newInstance(t, s, "Work")
	srv := newServer("a")
	require.NoError(t, s.CreateServer(srv))
	require.NoError(t, s.SetEnablement(inst.ID, srv.ID, true))
	require.NoError(t, s.CreateBackup(&models.ConfigBackup{InstanceID: inst.ID, BackupPath: "/tmp/b"}))

	require.NoError(t, s.DeleteServer(srv.ID))
	ids, err := s.EnabledServersFor(inst.ID)
	require.NoError(t, err)
	assert.Empty(t, ids)

	require.NoError(t, s.DeleteInstance(inst.ID))
	var n int
	require.NoError(t, s.db.QueryRow(`SELECT COUNT(*) FROM backups`).Scan(&n))
	assert.Zero(t, n)
}

func TestBackups(t *testing.T) {
	s := newTestStore(t)
	inst := newInstance(t, s, "Work")
	base := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

	for i := 0; i < 4; i++ {
		require.NoError(t, s.CreateBackup(&models.ConfigBackup{
			InstanceID: inst.ID,
			BackupPath: filepath.Join("/backups", string(rune('a'+i))),
			CreatedAt:  base.Add(time.Duration(i) * time.Hour),
		}))
	}

	list, err := s.BackupsFor(inst.ID)
	require.NoError(t, err)
	require.Len(t, list, 4)
	assert.Equal(t, "/backups/d", list[0].BackupPath, "most recent first")

	removed, err := s.PruneBackups(inst.ID, 2)
	require.NoError(t, err)
	require.Len(t, removed, 2)
	assert.Equal(t, "/backups/b", removed[0].BackupPath)
	assert.Equal(t, "/backups/a", removed[1].BackupPath)

	list, err = s.BackupsFor(inst.ID)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestBackupsOlderThan_KeepsNewestPerInstance(t *testing.T) {
	s := newTestStore(t)
	inst := newInstance(t, s, "Work")
	old := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, s.CreateBackup(&models.ConfigBackup{InstanceID: inst.ID, BackupPath: "/b/1", CreatedAt: old}))
	require.NoError(t, s.CreateBackup(&models.ConfigBackup{InstanceID: inst.ID, BackupPath: "/b/2", CreatedAt: old.Add(time.Hour)}))

	stale, err := s.BackupsOlderThan(time.Now())
	require.NoError(t, err)
	require.Len(t, stale, 1)
	assert.Equal(t, "/b/1", stale[0].BackupPath)

	require.NoError(t, s.DeleteBackup(stale[0].ID))
	_, err = s.GetBackup(stale[0].ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSettings(t *testing.T) {
	s := newTestStore(t)

	_, found, err := s.GetSetting("missing")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, s.SetSetting("k", "v1"))
	require.NoError(t, s.SetSetting("k", "v2"))
	v, found, err := s.GetSetting("k")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "v2", v)
}

func TestAppSettings(t *testing.T) {
	s := newTestStore(t)

	defaults, err := s.LoadAppSettings()
	require.NoError(t, err)
	assert.Equal(t, models.DefaultAppSettings(), defaults)

	require.NoError(t, s.SetSetting(AppSettingsKey, `{"createBackups":false,"discovery":{"httpServerEnabled":true}}`))
	got, err := s.LoadAppSettings()
	require.NoError(t, err)
	assert.False(t, got.CreateBackups)
	assert.True(t, got.Discovery.HTTPServerEnabled)
	assert.Equal(t, uint16(models.DefaultDiscoveryPort), got.Discovery.HTTPServerPort)
	assert.Equal(t, uint32(30), got.BackupRetentionDays)

	require.NoError(t, s.SetSetting(AppSettingsKey, `{{{`))
	got, err = s.LoadAppSettings()
	require.NoError(t, err)
	assert.Equal(t, models.DefaultAppSettings(), got)

	want := models.DefaultAppSettings()
	want.Theme = models.ThemeDark
	want.Discovery.HTTPServerPort = 24370
	require.NoError(t, s.SaveAppSettings(want))
	got, err = s.LoadAppSettings()
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestAudit(t *testing.T) {
	s := newTestStore(t)
	_, err := s.RecordAudit("instance.sync", "h1", "success", "i1", "first")
	require.NoError(t, err)
	_, err = s.RecordAudit("instance.sync", "h2", "failure", "i1", "second")
	require.NoError(t, err)

	entries, err := s.ListAudit(10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "second", entries[0].Details)
	assert.Equal(t, "failure", entries[0].Outcome)
}

func TestMigrate_AddsLastModified(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "old.db")

	// An older database created before last_modified existed.
	db, err := sql.Open("sqlite", dbPath)
	require.NoError(t, err)
	_, err = db.Exec(`CREATE TABLE instances (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		client_kind TEXT NOT NULL,
		config_path TEXT NOT NULL,
		is_default INTEGER NOT NULL DEFAULT 0,
		last_synced TEXT,
		created_at TEXT NOT NULL
	)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO instances (id, name, client_kind, config_path, created_at)
		VALUES ('i1', 'legacy', 'cursor', '/tmp/mcp.json', '2024-01-01T00:00:00Z')`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	s, err := New(dbPath)
	require.NoError(t, err)

	inst, err := s.GetInstance("i1")
	require.NoError(t, err)
	assert.Nil(t, inst.LastModified)

	// Reopening is idempotent.
	require.NoError(t, s.Close())
	s2, err := New(dbPath)
	require.NoError(t, err)
	require.NoError(t, s2.Close())
}
