package models

// ClientKind identifies a supported client application.
type ClientKind string

const (
	ClientClaudeDesktop  ClientKind = "claude-desktop"
	ClientClaudeCode     ClientKind = "claude-code"
	ClientCursor         ClientKind = "cursor"
	ClientWindsurf       ClientKind = "windsurf"
	ClientVSCode         ClientKind = "vscode"
	ClientVSCodeInsiders ClientKind = "vscode-insiders"
	ClientZed            ClientKind = "zed"
	ClientContinue       ClientKind = "continue"
	ClientCody           ClientKind = "cody"
	ClientCline          ClientKind = "cline"
	ClientRooCode        ClientKind = "roo-code"
	ClientKiloCode       ClientKind = "kilo-code"
	ClientAmp            ClientKind = "amp"
	ClientAugment        ClientKind = "augment"
	ClientAntigravity    ClientKind = "antigravity"
	ClientJetBrains      ClientKind = "jetbrains"
	ClientGeminiCLI      ClientKind = "gemini-cli"
	ClientQwenCoder      ClientKind = "qwen-coder"
	ClientOpenCode       ClientKind = "opencode"
	ClientOpenAICodex    ClientKind = "openai-codex"
	ClientKiro           ClientKind = "kiro"
	ClientTrae           ClientKind = "trae"
	ClientLMStudio       ClientKind = "lm-studio"
	ClientVisualStudio   ClientKind = "visual-studio"
	ClientCrush          ClientKind = "crush"
	ClientBoltAI         ClientKind = "boltai"
	ClientRovoDev        ClientKind = "rovo-dev"
	ClientZencoder       ClientKind = "zencoder"
	ClientQodoGen        ClientKind = "qodo-gen"
	ClientPerplexity     ClientKind = "perplexity"
	ClientFactory        ClientKind = "factory"
	ClientEmdash         ClientKind = "emdash"
	ClientAmazonQ        ClientKind = "amazon-q"
	ClientWarp           ClientKind = "warp"
	ClientCopilotAgent   ClientKind = "copilot-agent"
	ClientCopilotCLI     ClientKind = "copilot-cli"
	ClientSmithery       ClientKind = "smithery"
	ClientCustom         ClientKind = "custom"
)

var clientDisplayNames = map[ClientKind]string{
	ClientClaudeDesktop:  "Claude Desktop",
	ClientClaudeCode:     "Claude Code",
	ClientCursor:         "Cursor",
	ClientWindsurf:       "Windsurf",
	ClientVSCode:         "VS Code",
	ClientVSCodeInsiders: "VS Code Insiders",
	ClientZed:            "Zed",
	ClientContinue:       "Continue",
	ClientCody:           "Sourcegraph Cody",
	ClientCline:          "Cline",
	ClientRooCode:        "Roo Code",
	ClientKiloCode:       "Kilo Code",
	ClientAmp:            "Amp",
	ClientAugment:        "Augment Code",
	ClientAntigravity:    "Google Antigravity",
	ClientJetBrains:      "JetBrains (Junie)",
	ClientGeminiCLI:      "Gemini CLI",
	ClientQwenCoder:      "Qwen Coder",
	ClientOpenCode:       "OpenCode",
	ClientOpenAICodex:    "OpenAI Codex",
	ClientKiro:           "Kiro",
	ClientTrae:           "Trae",
	ClientLMStudio:       "LM Studio",
	ClientVisualStudio:   "Visual Studio",
	ClientCrush:          "Crush",
	ClientBoltAI:         "BoltAI",
	ClientRovoDev:        "Rovo Dev",
	ClientZencoder:       "Zencoder",
	ClientQodoGen:        "Qodo Gen",
	ClientPerplexity:     "Perplexity",
	ClientFactory:        "Factory",
	ClientEmdash:         "Emdash",
	ClientAmazonQ:        "Amazon Q",
	ClientWarp:           "Warp",
	ClientCopilotAgent:   "GitHub Copilot Agent",
	ClientCopilotCLI:     "GitHub Copilot CLI",
	ClientSmithery:       "Smithery",
	ClientCustom:         "Custom",
}

// AllClientKinds lists every known kind except Custom, in display order.
var AllClientKinds = []ClientKind{
	ClientClaudeDesktop, ClientClaudeCode, ClientCursor, ClientWindsurf,
	ClientVSCode, ClientVSCodeInsiders, ClientZed, ClientContinue,
	ClientCody, ClientCline, ClientRooCode, ClientKiloCode,
	ClientAmp, ClientAugment, ClientAntigravity, ClientJetBrains,
	ClientGeminiCLI, ClientQwenCoder, ClientOpenCode, ClientOpenAICodex,
	ClientKiro, ClientTrae, ClientLMStudio, ClientVisualStudio,
	ClientCrush, ClientBoltAI, ClientRovoDev, ClientZencoder,
	ClientQodoGen, ClientPerplexity, ClientFactory, ClientEmdash,
	ClientAmazonQ, ClientWarp, ClientCopilotAgent, ClientCopilotCLI,
	ClientSmithery,
}

// DisplayName returns the human-readable name of the client.
func (k ClientKind) DisplayName() string {
	if name, ok := clientDisplayNames[k]; ok {
		return name
	}
	return clientDisplayNames[ClientCustom]
}

// Known reports whether k is one of the defined kinds.
func (k ClientKind) Known() bool {
	_, ok := clientDisplayNames[k]
	return ok
}

// ParseClientKind maps a stored or user-supplied string to a kind.
// Unknown values map to ClientCustom.
func ParseClientKind(s string) ClientKind {
	k := ClientKind(s)
	if k.Known() {
		return k
	}
	return ClientCustom
}
