package pathutil

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCanonical(t *testing.T) {
	cases := map[string]string{
		`C:\Users\me\Github`: "C:/Users/me/Github",
		"/w/proj/":           "/w/proj",
		"/":                  "/",
		`C:\`:                "C:/",
		"/w//":               "/w",
	}
	for in, want := range cases {
		require.Equal(t, want, Canonical(in), in)
	}
}

func TestEqual(t *testing.T) {
	require.True(t, Equal(`C:\Users\Me`, "c:/users/me/"))
	require.False(t, Equal("/w/a", "/w/b"))
}

func TestJoin(t *testing.T) {
	require.Equal(t, "/w/proj", Join("/w", "proj"))
	require.Equal(t, "/proj", Join("/", "proj"))
	require.Equal(t, "C:/Github/proj", Join(`C:\Github\`, "proj"))
}

func TestResolver_OwningProject(t *testing.T) {
	r := NewResolver([]string{"/w"})

	project, ok := r.OwningProject("/w/proj/a/b.txt")
	require.True(t, ok)
	require.Equal(t, "/w/proj", project)

	_, ok = r.OwningProject("/w/file.txt")
	require.False(t, ok, "entries directly inside a root have no project")

	_, ok = r.OwningProject("/w")
	require.False(t, ok)

	_, ok = r.OwningProject("/other/proj/a.txt")
	require.False(t, ok)
}

func TestResolver_SegmentBoundary(t *testing.T) {
	r := NewResolver([]string{"/work"})
	_, ok := r.OwningProject("/workspace/proj/a.txt")
	require.False(t, ok)
}

func TestResolver_CaseInsensitiveKeepsConfiguredCasing(t *testing.T) {
	r := NewResolver([]string{`C:\Users\Me\Github`})
	project, ok := r.OwningProject(`c:\users\me\github\App\src\main.go`)
	require.True(t, ok)
	require.Equal(t, "C:/Users/Me/Github/App", project)
}

func TestResolver_FirstMatchingRootWins(t *testing.T) {
	r := NewResolver([]string{"/w", "/w/nested"})
	project, ok := r.OwningProject("/w/nested/proj/x.go")
	require.True(t, ok)
	require.Equal(t, "/w/nested", project)
	require.Equal(t, []string{"/w", "/w/nested"}, r.Roots())
}

func TestResolver_MultiByteFoldDoesNotPanic(t *testing.T) {
	// U+212A KELVIN SIGN lowercases to a one-byte "k".
	r := NewResolver([]string{"/\u212Aelvin"})
	require.NotPanics(t, func() {
		_, ok := r.OwningProject("/k")
		require.False(t, ok)
	})

	project, ok := r.OwningProject("/\u212Aelvin/proj/a.txt")
	require.True(t, ok)
	require.Equal(t, "/\u212Aelvin/proj", project)
}

func TestAbsolute(t *testing.T) {
	dir := Canonical(t.TempDir())
	t.Chdir(dir)

	got, err := Absolute(".")
	require.NoError(t, err)
	require.Equal(t, dir, got)

	got, err = Absolute("./proj/")
	require.NoError(t, err)
	require.Equal(t, dir+"/proj", got)

	got, err = Absolute(`C:\Users\me\`)
	require.NoError(t, err)
	require.Equal(t, "C:/Users/me", got)

	got, err = Absolute("/w/proj/")
	require.NoError(t, err)
	require.Equal(t, "/w/proj", got)
}
