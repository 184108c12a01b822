package clients

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/fentz26/mcphub/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func linuxResolver(home string) *Resolver {
	return &Resolver{OS: "linux", Home: home, ConfigDir: filepath.Join(home, ".config")}
}

func TestPath_Linux(t *testing.T) {
	r := linuxResolver("/home/u")

	cases := map[models.ClientKind]string{
		models.ClientClaudeDesktop: "/home/u/.config/Claude/claude_desktop_config.json",
		models.ClientClaudeCode:    "/home/u/.claude.json",
		models.ClientCursor:        "/home/u/.cursor/mcp.json",
		models.ClientVSCode:        "/home/u/.config/Code/User/mcp.json",
		models.ClientZed:           "/home/u/.config/zed/settings.json",
		models.ClientCline:         "/home/u/.config/Code/User/globalStorage/saoudrizwan.claude-dev/settings/cline_mcp_settings.json",
		models.ClientGeminiCLI:     "/home/u/.gemini/settings.json",
		models.ClientAmazonQ:       "/home/u/.aws/amazonq/mcp.json",
	}
	for kind, want := range cases {
		got, err := r.Path(kind)
		require.NoError(t, err, kind)
		assert.Equal(t, filepath.FromSlash(want), got, kind)
	}
}

func TestPath_Darwin(t *testing.T) {
	r := &Resolver{
		OS:            "darwin",
		Home:          "/Users/u",
		ConfigDir:     "/Users/u/Library/Application Support",
		AppSupportDir: "/Users/u/Library/Application Support",
	}

	got, err := r.Path(models.ClientClaudeDesktop)
	require.NoError(t, err)
	assert.Equal(t, filepath.FromSlash("/Users/u/Library/Application Support/Claude/claude_desktop_config.json"), got)

	got, err = r.Path(models.ClientZed)
	require.NoError(t, err)
	assert.Equal(t, filepath.FromSlash("/Users/u/.config/zed/settings.json"), got)

	assert.Equal(t, filepath.FromSlash("/Users/u/Library/Application Support/MCP Hub"), r.AppDataDir())
}

func TestPath_Unresolved(t *testing.T) {
	r := linuxResolver("/home/u")
	for _, kind := range []models.ClientKind{models.ClientCustom, models.ClientWarp, models.ClientVisualStudio} {
		_, err := r.Path(kind)
		assert.ErrorIs(t, err, ErrPathUnresolved, kind)
	}

	win := &Resolver{OS: "windows", Home: `C:\Users\u`, ConfigDir: `C:\Users\u\AppData\Roaming`}
	_, err := win.Path(models.ClientVisualStudio)
	assert.NoError(t, err)
}

func TestUsesMerge(t *testing.T) {
	for _, kind := range []models.ClientKind{models.ClientClaudeCode, models.ClientZed, models.ClientAugment, models.ClientGeminiCLI} {
		assert.True(t, UsesMerge(kind), kind)
	}
	for _, kind := range []models.ClientKind{models.ClientCursor, models.ClientClaudeDesktop, models.ClientCustom} {
		assert.False(t, UsesMerge(kind), kind)
	}
}

func TestAppDataPaths(t *testing.T) {
	r := linuxResolver("/home/u")
	assert.Equal(t, filepath.FromSlash("/home/u/.config/mcp-hub"), r.AppDataDir())
	assert.Equal(t, filepath.FromSlash("/home/u/.config/mcp-hub/mcp-hub.db"), r.DatabasePath())
	assert.Equal(t, filepath.FromSlash("/home/u/.config/mcp-hub/backups"), r.BackupDir())
}

func TestDetectInstalled(t *testing.T) {
	home := t.TempDir()
	r := linuxResolver(home)

	// Cursor: directory only.
	require.NoError(t, os.MkdirAll(filepath.Join(home, ".cursor"), 0o755))
	// Claude Code: the config file itself lives in home.
	require.NoError(t, os.WriteFile(filepath.Join(home, ".claude.json"), []byte("{}"), 0o644))

	found := map[models.ClientKind]models.DetectedClient{}
	for _, d := range r.DetectInstalled() {
		found[d.ClientKind] = d
	}

	cursor, ok := found[models.ClientCursor]
	require.True(t, ok)
	assert.False(t, cursor.HasConfig)
	assert.Equal(t, "Cursor", cursor.DisplayName)

	claude, ok := found[models.ClientClaudeCode]
	require.True(t, ok)
	assert.True(t, claude.HasConfig)

	_, ok = found[models.ClientWindsurf]
	assert.False(t, ok)
}
