package project_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rpggio/actmon/internal/domain/project"
	"github.com/rpggio/actmon/internal/gitprobe"
	"github.com/rpggio/actmon/internal/pathutil"
	"github.com/rpggio/actmon/internal/repository/mocks"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func mkdirs(t *testing.T, root string, names ...string) {
	t.Helper()
	for _, n := range names {
		require.NoError(t, os.MkdirAll(filepath.Join(root, n), 0o755))
	}
}

func TestDiscover_Scenario(t *testing.T) {
	ctx := context.Background()
	root := pathutil.Canonical(t.TempDir())
	mkdirs(t, root, "proj1", "proj2", ".hidden")
	require.NoError(t, os.WriteFile(filepath.Join(root, "notes.txt"), []byte("x"), 0o644))

	twoDaysAgo := time.Now().Add(-48 * time.Hour).UnixMilli()
	activity := &mocks.ActivitySource{}
	activity.On("LatestActivity", mock.Anything).Return(map[string]int64{
		root + "/proj2": twoDaysAgo,
	})
	git := &mocks.GitProbe{}
	git.On("ProbeForDiscovery", mock.Anything, mock.Anything).Return(gitprobe.Status{})

	svc := project.NewService(activity, git, project.Options{}, nil)
	projects, err := svc.Discover(ctx, []string{root})
	require.NoError(t, err)
	require.Len(t, projects, 2)

	require.Equal(t, "proj1", projects[0].Name)
	require.Equal(t, root+"/proj1", projects[0].Path)
	require.Equal(t, project.StatusStale, projects[0].Status)
	require.Nil(t, projects[0].LastActivity)

	require.Equal(t, "proj2", projects[1].Name)
	require.Equal(t, project.StatusActive, projects[1].Status)
	require.NotNil(t, projects[1].LastActivity)
	require.Equal(t, twoDaysAgo, *projects[1].LastActivity)

	git.AssertNumberOfCalls(t, "ProbeForDiscovery", 2)
	activity.AssertNumberOfCalls(t, "LatestActivity", 1)
}

func TestDiscover_GitMetadata(t *testing.T) {
	ctx := context.Background()
	root := pathutil.Canonical(t.TempDir())
	mkdirs(t, root, "repo", "plain")

	activity := &mocks.ActivitySource{}
	activity.On("LatestActivity", mock.Anything).Return(map[string]int64{})
	git := &mocks.GitProbe{}
	git.On("ProbeForDiscovery", mock.Anything, pathutil.Host(root+"/repo")).
		Return(gitprobe.Status{IsRepository: true, Staged: 1, Untracked: 2, Hotness: 7})
	git.On("ProbeForDiscovery", mock.Anything, pathutil.Host(root+"/plain")).
		Return(gitprobe.Status{})

	svc := project.NewService(activity, git, project.Options{Concurrency: 1}, nil)
	projects, err := svc.Discover(ctx, []string{root})
	require.NoError(t, err)
	require.Len(t, projects, 2)

	byName := map[string]project.Project{}
	for _, p := range projects {
		byName[p.Name] = p
	}
	require.True(t, byName["repo"].IsRepository)
	require.Equal(t, 7, byName["repo"].Hotness)
	require.Equal(t, 3, byName["repo"].Changes)
	require.False(t, byName["plain"].IsRepository)
	require.Zero(t, byName["plain"].Hotness)
}

func TestDiscover_MissingRootSkipped(t *testing.T) {
	ctx := context.Background()
	good := pathutil.Canonical(t.TempDir())
	mkdirs(t, good, "a")
	missing := filepath.Join(t.TempDir(), "does-not-exist")

	activity := &mocks.ActivitySource{}
	activity.On("LatestActivity", mock.Anything).Return(map[string]int64{})
	git := &mocks.GitProbe{}
	git.On("ProbeForDiscovery", mock.Anything, mock.Anything).Return(gitprobe.Status{})

	svc := project.NewService(activity, git, project.Options{}, nil)
	projects, err := svc.Discover(ctx, []string{missing, "", good})
	require.NoError(t, err)
	require.Len(t, projects, 1)
	require.Equal(t, "a", projects[0].Name)
}

func TestDiscover_MultipleRootsSorted(t *testing.T) {
	ctx := context.Background()
	r1 := pathutil.Canonical(t.TempDir())
	r2 := pathutil.Canonical(t.TempDir())
	mkdirs(t, r1, "zeta", "beta")
	mkdirs(t, r2, "alpha")

	recent := time.Now().Add(-time.Hour).UnixMilli()
	activity := &mocks.ActivitySource{}
	activity.On("LatestActivity", mock.Anything).Return(map[string]int64{
		r1 + "/zeta": recent,
	})
	git := &mocks.GitProbe{}
	git.On("ProbeForDiscovery", mock.Anything, mock.Anything).Return(gitprobe.Status{})

	svc := project.NewService(activity, git, project.Options{}, nil)
	projects, err := svc.Discover(ctx, []string{r1, r2})
	require.NoError(t, err)

	var got []string
	for _, p := range projects {
		got = append(got, p.Name)
	}
	require.Equal(t, []string{"alpha", "beta", "zeta"}, got)
	require.Equal(t, project.StatusActive, projects[2].Status)
}

func TestDiscover_CanceledContext(t *testing.T) {
	root := pathutil.Canonical(t.TempDir())
	mkdirs(t, root, "a", "b")

	activity := &mocks.ActivitySource{}
	activity.On("LatestActivity", mock.Anything).Return(map[string]int64{})
	git := &mocks.GitProbe{}
	git.On("ProbeForDiscovery", mock.Anything, mock.Anything).Return(gitprobe.Status{}).Maybe()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	svc := project.NewService(activity, git, project.Options{}, nil)
	_, err := svc.Discover(ctx, []string{root})
	require.ErrorIs(t, err, context.Canceled)
}

func TestGitStatus(t *testing.T) {
	ctx := context.Background()
	root := pathutil.Canonical(t.TempDir())
	mkdirs(t, root, "repo")

	want := &gitprobe.Status{IsRepository: true, Branch: "main", Ahead: 1}
	git := &mocks.GitProbe{}
	git.On("ProbeForDetail", mock.Anything, pathutil.Host(root+"/repo")).Return(want)

	svc := project.NewService(&mocks.ActivitySource{}, git, project.Options{}, nil)

	st, err := svc.GitStatus(ctx, root+"/repo")
	require.NoError(t, err)
	require.Equal(t, want, st)

	_, err = svc.GitStatus(ctx, "  ")
	require.ErrorIs(t, err, project.ErrInvalidInput)

	_, err = svc.GitStatus(ctx, root+"/missing")
	require.ErrorIs(t, err, project.ErrProjectNotFound)
}

func TestGitStatus_NotRepository(t *testing.T) {
	root := pathutil.Canonical(t.TempDir())
	mkdirs(t, root, "plain")

	git := &mocks.GitProbe{}
	git.On("ProbeForDetail", mock.Anything, mock.Anything).Return(nil)

	svc := project.NewService(&mocks.ActivitySource{}, git, project.Options{}, nil)
	st, err := svc.GitStatus(context.Background(), root+"/plain")
	require.NoError(t, err)
	require.Nil(t, st)
}
