package naming

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSanitize(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"My Server", "my-server"},
		{"GitHub_Tools", "github_tools"},
		{"  spaced  ", "spaced"},
		{"a/b:c", "a-b-c"},
		{"--edge--", "edge"},
		{"@scope/pkg", "scope-pkg"},
		{"", ""},
		{"Server²", "server²"},
		{"Ⅻ tools", "ⅻ-tools"},
		{"हिंदी", "हिंदी"},
		{"half½", "half½"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, Sanitize(tc.in), tc.in)
	}
}

func TestSanitize_Idempotent(t *testing.T) {
	inputs := []string{"My Server", "!!weird!!name??", "UPPER lower", "a--b", "ünïcode ñame", "x.y.z", "Ⅻ tools", "हिंदी!"}
	for _, in := range inputs {
		once := Sanitize(in)
		assert.Equal(t, once, Sanitize(once), in)
	}
}
