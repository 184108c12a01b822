package tui

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func suggestionTexts(s *Suggestions) []string {
	var out []string
	for _, item := range s.filtered {
		out = append(out, item.Text)
	}
	return out
}

func TestSuggestions_PrefixMatch(t *testing.T) {
	s := NewSuggestions()

	s.Update("sy")
	require.True(t, s.IsVisible())
	assert.Equal(t, []string{"sync", "sync all"}, suggestionTexts(s))

	s.Update("sync")
	assert.Equal(t, []string{"sync all"}, suggestionTexts(s))

	s.Update("d")
	assert.Equal(t, []string{"disable", "detect"}, suggestionTexts(s))

	s.Update("zzz")
	assert.False(t, s.IsVisible())
	assert.Nil(t, s.Selected())
}

func TestSuggestions_EmptyInputHides(t *testing.T) {
	s := NewSuggestions()
	s.Update("h")
	require.True(t, s.IsVisible())

	s.Update("")
	assert.False(t, s.IsVisible())

	s.Update("   ")
	assert.False(t, s.IsVisible())
}

func TestSuggestions_ServerNamesAfterEnable(t *testing.T) {
	s := NewSuggestions()
	s.SetServers([]string{"github", "filesystem", "GitLab"})

	s.Update("enable ")
	assert.Equal(t, []string{"enable github", "enable filesystem", "enable GitLab"}, suggestionTexts(s))

	s.Update("disable gi")
	assert.Equal(t, []string{"disable github", "disable GitLab"}, suggestionTexts(s))
}

func TestSuggestions_NavigationWraps(t *testing.T) {
	s := NewSuggestions()
	s.Update("sy")
	require.Len(t, s.filtered, 2)

	assert.Equal(t, "sync", s.Selected().Text)
	s.Next()
	assert.Equal(t, "sync all", s.Selected().Text)
	s.Next()
	assert.Equal(t, "sync", s.Selected().Text)
	s.Prev()
	assert.Equal(t, "sync all", s.Selected().Text)
}

func TestSuggestions_RenderListsMatches(t *testing.T) {
	s := NewSuggestions()
	assert.Empty(t, s.Render(80))

	s.Update("he")
	out := s.Render(80)
	assert.Contains(t, out, "health")
	assert.Contains(t, out, "Check every server")
}
