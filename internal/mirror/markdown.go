package mirror

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/fentz26/mcphub/internal/models"
	"gopkg.in/yaml.v3"
)

// Redacted replaces env values whose names look secret.
const Redacted = "***REDACTED***"

var sensitiveMarkers = []string{"key", "secret", "token", "password"}

// IsSensitive reports whether an env var name looks like it holds a secret.
func IsSensitive(name string) bool {
	lower := strings.ToLower(name)
	for _, marker := range sensitiveMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

func maskValue(name, value string) string {
	if IsSensitive(name) {
		return Redacted
	}
	return value
}

// Render produces the Markdown document for a server: a YAML front matter
// block followed by a readable summary that lists env var names only.
func Render(srv models.Server) ([]byte, error) {
	front, err := frontMatter(srv)
	if err != nil {
		return nil, err
	}

	var b bytes.Buffer
	b.WriteString("---\n")
	b.Write(front)
	b.WriteString("---\n\n")

	fmt.Fprintf(&b, "# %s\n\n", srv.Name)
	if srv.Description != "" {
		fmt.Fprintf(&b, "%s\n\n", srv.Description)
	}

	b.WriteString("## Configuration\n\n")
	fmt.Fprintf(&b, "**Command:** `%s`\n\n", srv.Command)

	if len(srv.Args) > 0 {
		b.WriteString("**Arguments:**\n")
		for _, arg := range srv.Args {
			fmt.Fprintf(&b, "- `%s`\n", arg)
		}
		b.WriteString("\n")
	}

	if len(srv.Env) > 0 {
		b.WriteString("**Environment Variables:**\n")
		for _, name := range sortedKeys(srv.Env) {
			fmt.Fprintf(&b, "- `%s`\n", name)
		}
		b.WriteString("\n")
	}

	if len(srv.Tags) > 0 {
		fmt.Fprintf(&b, "**Tags:** %s\n\n", strings.Join(srv.Tags, ", "))
	}

	b.WriteString("---\n")
	b.WriteString("*Managed by [MCP Hub](https://github.com/mcp-hub)*\n")
	return b.Bytes(), nil
}

func frontMatter(srv models.Server) ([]byte, error) {
	doc := &yaml.Node{Kind: yaml.MappingNode}
	add := func(key string, value *yaml.Node) {
		doc.Content = append(doc.Content, str(key), value)
	}

	add("id", str(srv.ID))
	add("name", str(srv.Name))
	if srv.Description != "" {
		add("description", str(srv.Description))
	}
	add("command", str(srv.Command))

	if len(srv.Args) > 0 {
		args := &yaml.Node{Kind: yaml.SequenceNode}
		for _, arg := range srv.Args {
			args.Content = append(args.Content, quoted(arg))
		}
		add("args", args)
	}

	if len(srv.Env) > 0 {
		env := &yaml.Node{Kind: yaml.MappingNode}
		for _, name := range sortedKeys(srv.Env) {
			env.Content = append(env.Content, str(name), quoted(maskValue(name, srv.Env[name])))
		}
		add("env", env)
	}

	if len(srv.Tags) > 0 {
		tags := &yaml.Node{Kind: yaml.SequenceNode, Style: yaml.FlowStyle}
		for _, tag := range srv.Tags {
			tags.Content = append(tags.Content, str(tag))
		}
		add("tags", tags)
	}

	add("provider", str("MCP Hub"))
	add("updated_at", str(srv.UpdatedAt.UTC().Format(time.RFC3339)))

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return nil, fmt.Errorf("encode front matter: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode front matter: %w", err)
	}
	return buf.Bytes(), nil
}

func str(v string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v}
}

func quoted(v string) *yaml.Node {
	n := str(v)
	n.Style = yaml.DoubleQuotedStyle
	return n
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
