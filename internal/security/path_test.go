package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanRequestPath(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{"empty", "", "", false},
		{"dot", ".", "", false},
		{"simple file", "report.txt", "report.txt", false},
		{"nested", "a/b/c.txt", "a/b/c.txt", false},
		{"redundant separators", "a//b///c", "a/b/c", false},
		{"dot components collapse", "./a/./b", "a/b", false},
		{"trailing slash", "a/b/", "a/b", false},
		{"percent-encoded space", "my%20file.txt", "my file.txt", false},
		{"percent-encoded slash", "a%2Fb", "a/b", false},
		{"unicode", "r%C3%A9sum%C3%A9.pdf", "résumé.pdf", false},
		{"parent component", "../etc/passwd", "", true},
		{"embedded parent", "a/../../b", "", true},
		{"encoded parent", "%2e%2e/secret", "", true},
		{"encoded parent mixed case", "%2E%2e%2fsecret", "", true},
		{"bare parent", "..", "", true},
		{"invalid percent escape", "a%zz", "", true},
		{"truncated percent escape", "a%2", "", true},
		{"nul byte", "a%00b", "", true},
		{"backslash", "a\\b", "", true},
		{"encoded backslash", "a%5Cb", "", true},
		{"windows drive", "C:/windows", "", true},
		{"invalid utf8", "%ff%fe", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CleanRequestPath(tt.raw)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrRejected)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestHasHiddenComponent(t *testing.T) {
	tests := []struct {
		name string
		path string
		want bool
	}{
		{"plain file", "report.txt", false},
		{"nested plain", "a/b/c.txt", false},
		{"dot file", ".env", true},
		{"dot dir component", "a/.git/config", true},
		{"leading dot nested", ".ssh/id_rsa", true},
		{"dot inside name", "a.b/c", false},
		{"empty", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HasHiddenComponent(tt.path))
		})
	}
}
