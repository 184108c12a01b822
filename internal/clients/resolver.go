// Package clients resolves where each supported client application keeps
// its MCP configuration and detects which clients are installed.
package clients

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"

	"github.com/fentz26/mcphub/internal/models"
)

// ErrPathUnresolved indicates a client kind has no known config path on this OS.
var ErrPathUnresolved = errors.New("no default config path for this client")

// Resolver maps client kinds to config paths for one OS and set of base dirs.
type Resolver struct {
	OS            string
	Home          string
	ConfigDir     string
	AppSupportDir string
}

// NewResolver builds a Resolver for the running OS and user.
func NewResolver() *Resolver {
	home, _ := os.UserHomeDir()
	configDir, err := os.UserConfigDir()
	if err != nil {
		configDir = filepath.Join(home, ".config")
	}
	r := &Resolver{
		OS:        runtime.GOOS,
		Home:      home,
		ConfigDir: configDir,
	}
	if r.OS == "darwin" {
		r.AppSupportDir = filepath.Join(home, "Library", "Application Support")
	}
	return r
}

// userDataDir is where Electron-style apps keep per-user data.
func (r *Resolver) userDataDir() string {
	if r.OS == "darwin" && r.AppSupportDir != "" {
		return r.AppSupportDir
	}
	return r.ConfigDir
}

func (r *Resolver) home(parts ...string) string {
	return filepath.Join(append([]string{r.Home}, parts...)...)
}

func (r *Resolver) userData(parts ...string) string {
	return filepath.Join(append([]string{r.userDataDir()}, parts...)...)
}

func (r *Resolver) vscodeGlobalStorage(extension string, parts ...string) string {
	return r.userData(append([]string{"Code", "User", "globalStorage", extension}, parts...)...)
}

// pathTable holds the per-kind path rules. An empty result means unsupported.
var pathTable = map[models.ClientKind]func(r *Resolver) string{
	models.ClientClaudeDesktop: func(r *Resolver) string {
		return r.userData("Claude", "claude_desktop_config.json")
	},
	models.ClientClaudeCode: func(r *Resolver) string { return r.home(".claude.json") },
	models.ClientCursor:     func(r *Resolver) string { return r.home(".cursor", "mcp.json") },
	models.ClientWindsurf:   func(r *Resolver) string { return r.home(".codeium", "windsurf", "mcp_config.json") },
	models.ClientVSCode:     func(r *Resolver) string { return r.userData("Code", "User", "mcp.json") },
	models.ClientVSCodeInsiders: func(r *Resolver) string {
		return r.userData("Code - Insiders", "User", "mcp.json")
	},
	models.ClientZed: func(r *Resolver) string {
		if r.OS == "windows" {
			return filepath.Join(r.ConfigDir, "Zed", "settings.json")
		}
		return r.home(".config", "zed", "settings.json")
	},
	models.ClientContinue: func(r *Resolver) string { return r.home(".continue", "config.json") },
	models.ClientCody: func(r *Resolver) string {
		return r.vscodeGlobalStorage("sourcegraph.cody-ai", "cody_mcp_settings.json")
	},
	models.ClientCline: func(r *Resolver) string {
		return r.vscodeGlobalStorage("saoudrizwan.claude-dev", "settings", "cline_mcp_settings.json")
	},
	models.ClientRooCode: func(r *Resolver) string {
		return r.vscodeGlobalStorage("rooveterinaryinc.roo-cline", "settings", "cline_mcp_settings.json")
	},
	models.ClientKiloCode: func(r *Resolver) string {
		return r.vscodeGlobalStorage("kilocode.kilocode", "mcp_settings.json")
	},
	models.ClientAmp:         func(r *Resolver) string { return r.home(".amp", "mcp.json") },
	models.ClientAugment:     func(r *Resolver) string { return r.userData("Code", "User", "settings.json") },
	models.ClientAntigravity: func(r *Resolver) string { return r.home(".gemini", "antigravity", "mcp_config.json") },
	models.ClientJetBrains:   func(r *Resolver) string { return r.home(".junie", "mcp", "mcp.json") },
	models.ClientGeminiCLI:   func(r *Resolver) string { return r.home(".gemini", "settings.json") },
	models.ClientQwenCoder:   func(r *Resolver) string { return r.home(".qwen-coder", "mcp.json") },
	models.ClientOpenCode:    func(r *Resolver) string { return r.home(".opencode", "mcp.json") },
	models.ClientOpenAICodex: func(r *Resolver) string { return r.home(".codex", "mcp.json") },
	models.ClientKiro:        func(r *Resolver) string { return r.home(".kiro", "settings", "mcp.json") },
	models.ClientTrae:        func(r *Resolver) string { return r.home(".trae", "mcp.json") },
	models.ClientLMStudio:    func(r *Resolver) string { return r.userData("LM Studio", "mcp.json") },
	models.ClientVisualStudio: func(r *Resolver) string {
		if r.OS != "windows" {
			return ""
		}
		return filepath.Join(r.ConfigDir, "Microsoft", "VisualStudio", "mcp.json")
	},
	models.ClientCrush:    func(r *Resolver) string { return r.home(".crush", "mcp.json") },
	models.ClientBoltAI:   func(r *Resolver) string { return r.userData("BoltAI", "mcp.json") },
	models.ClientRovoDev:  func(r *Resolver) string { return r.home(".rovo", "mcp.json") },
	models.ClientZencoder: func(r *Resolver) string { return r.home(".zencoder", "mcp.json") },
	models.ClientQodoGen: func(r *Resolver) string {
		return r.vscodeGlobalStorage("qodo-ai.qodo-gen", "mcp_settings.json")
	},
	models.ClientPerplexity:   func(r *Resolver) string { return r.userData("Perplexity", "mcp.json") },
	models.ClientFactory:      func(r *Resolver) string { return r.home(".factory", "mcp.json") },
	models.ClientEmdash:       func(r *Resolver) string { return r.home(".emdash", "mcp.json") },
	models.ClientAmazonQ:      func(r *Resolver) string { return r.home(".aws", "amazonq", "mcp.json") },
	models.ClientCopilotAgent: func(r *Resolver) string { return r.home(".github", "copilot", "mcp.json") },
	models.ClientCopilotCLI:   func(r *Resolver) string { return r.home(".github", "copilot-cli", "mcp.json") },
	models.ClientSmithery:     func(r *Resolver) string { return r.home(".smithery", "mcp.json") },
}

// Path returns the default config path of a client kind.
// Custom and Warp have none.
func (r *Resolver) Path(kind models.ClientKind) (string, error) {
	rule, ok := pathTable[kind]
	if !ok || r.Home == "" {
		return "", ErrPathUnresolved
	}
	p := rule(r)
	if p == "" {
		return "", ErrPathUnresolved
	}
	return p, nil
}

// mergeSet lists clients whose config file is a shared settings document.
var mergeSet = map[models.ClientKind]bool{
	models.ClientClaudeCode: true,
	models.ClientZed:        true,
	models.ClientAugment:    true,
	models.ClientGeminiCLI:  true,
}

// UsesMerge reports whether writes for kind must preserve other top-level keys.
func UsesMerge(kind models.ClientKind) bool {
	return mergeSet[kind]
}

// AppDataDir is where MCP Hub keeps its database and backups.
func (r *Resolver) AppDataDir() string {
	switch r.OS {
	case "darwin":
		return filepath.Join(r.userDataDir(), "MCP Hub")
	case "windows":
		return filepath.Join(r.ConfigDir, "MCP Hub")
	default:
		return filepath.Join(r.ConfigDir, "mcp-hub")
	}
}

// DatabasePath is the default SQLite file location.
func (r *Resolver) DatabasePath() string {
	return filepath.Join(r.AppDataDir(), "mcp-hub.db")
}

// BackupDir is the default directory for config backups.
func (r *Resolver) BackupDir() string {
	return filepath.Join(r.AppDataDir(), "backups")
}
