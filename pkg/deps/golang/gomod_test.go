package golang

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/matzehuels/deps-lsp/pkg/deps"
)

const manifest = `module example.com/demo

go 1.24

require (
	github.com/spf13/cobra v1.8.0
	golang.org/x/sync v0.10.0 // indirect
)

require github.com/charmbracelet/log v0.4.0

replace example.com/local => ../local

require example.com/local v0.0.0
`

func TestParse_Require(t *testing.T) {
	result := Parser{}.Parse(manifest)
	require.Empty(t, result.Diagnostics)

	byName := map[string]deps.Dependency{}
	for _, d := range result.Dependencies {
		byName[d.Name] = d
	}

	cobra := byName["github.com/spf13/cobra"]
	require.Equal(t, "v1.8.0", cobra.Requirement)
	require.Equal(t, "github.com/spf13/cobra", manifest[cobra.NameSpan.Start:cobra.NameSpan.End])
	require.Equal(t, "v1.8.0", manifest[cobra.VersionSpan.Start:cobra.VersionSpan.End])

	charm := byName["github.com/charmbracelet/log"]
	require.Equal(t, "v0.4.0", manifest[charm.VersionSpan.Start:charm.VersionSpan.End])

	// A module replaced by a filesystem path is not fetched from the proxy.
	require.Equal(t, deps.SourcePath, byName["example.com/local"].Source)
	require.Equal(t, deps.SourceRegistry, cobra.Source)
}

func TestParse_Invalid(t *testing.T) {
	result := Parser{}.Parse("module \"unterminated\nrequire (")
	require.Empty(t, result.Dependencies)
	require.NotEmpty(t, result.Diagnostics)
}

func TestParseLock_LastOccurrenceWins(t *testing.T) {
	sum := `github.com/spf13/cobra v1.7.0 h1:abc=
github.com/spf13/cobra v1.7.0/go.mod h1:def=
github.com/spf13/cobra v1.8.0 h1:ghi=
github.com/spf13/cobra v1.8.0/go.mod h1:jkl=
golang.org/x/sync v0.10.0 h1:mno=
`
	resolved, err := Lockfile{}.ParseLock(sum)
	require.NoError(t, err)

	v, ok := resolved.Resolved("github.com/spf13/cobra")
	require.True(t, ok)
	require.Equal(t, "v1.8.0", v)

	require.True(t, resolved.Has("golang.org/x/sync"))
}

func TestLockPaths(t *testing.T) {
	paths := Lockfile{}.LockPaths("/w/go.mod")
	require.Equal(t, []string{"/w/go.sum"}, paths)
}
