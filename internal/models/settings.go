package models

// DefaultDiscoveryPort is the loopback port of the discovery endpoint.
const DefaultDiscoveryPort = 24368

// Theme is the UI theme preference.
type Theme string

const (
	ThemeLight  Theme = "light"
	ThemeDark   Theme = "dark"
	ThemeSystem Theme = "system"
)

// DiscoverySettings controls the Markdown mirror and the HTTP endpoint.
type DiscoverySettings struct {
	MCPDirectoryEnabled bool   `json:"mcpDirectoryEnabled"`
	HTTPServerEnabled   bool   `json:"httpServerEnabled"`
	HTTPServerPort      uint16 `json:"httpServerPort"`
}

// AppSettings is the persisted product configuration.
type AppSettings struct {
	Theme               Theme             `json:"theme"`
	AutoStart           bool              `json:"autoStart"`
	CreateBackups       bool              `json:"createBackups"`
	BackupRetentionDays uint32            `json:"backupRetentionDays"`
	Discovery           DiscoverySettings `json:"discovery"`
}

// DefaultAppSettings returns the settings used when nothing is persisted.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Theme:               ThemeSystem,
		CreateBackups:       true,
		BackupRetentionDays: 30,
		Discovery: DiscoverySettings{
			HTTPServerPort: DefaultDiscoveryPort,
		},
	}
}
