// Package testserver runs a complete actmon daemon over HTTP for tests.
package testserver

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/actmon/internal/domain/activity"
	"github.com/rpggio/actmon/internal/domain/project"
	"github.com/rpggio/actmon/internal/gitprobe"
	"github.com/rpggio/actmon/internal/mcp"
	"github.com/rpggio/actmon/internal/monitor"
	"github.com/rpggio/actmon/internal/pathutil"
	"github.com/rpggio/actmon/internal/settings"
	"github.com/rpggio/actmon/internal/sqlite"
	"github.com/rpggio/actmon/internal/transport"
	"github.com/stretchr/testify/require"
)

// TestServer is a running monitor with watchers started, served over HTTP.
type TestServer struct {
	Server   *httptest.Server
	DB       *sqlite.DB
	Monitor  *monitor.Monitor
	Activity *activity.Service
	Token    string
	// Root is the canonical watch directory; projects are created below it.
	Root string
}

// New starts a server whose /mcp endpoint requires token. Projects named in
// projects are created under Root before the watchers start.
func New(t *testing.T, token string, projects ...string) *TestServer {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := sqlite.New(dsn)
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations())

	activitySvc := activity.NewService(sqlite.NewActivityRepository(db), nil)
	git := gitprobe.New(gitprobe.NewExecRunner(5*time.Second), nil)
	projectSvc := project.NewService(activitySvc, git, project.Options{}, nil)
	provider := settings.NewProvider(filepath.Join(t.TempDir(), settings.FileName), nil)

	root := pathutil.Canonical(t.TempDir())
	for _, p := range projects {
		require.NoError(t, os.MkdirAll(filepath.Join(root, p), 0o755))
	}
	_, _, err = provider.AddWatchDir(root)
	require.NoError(t, err)

	mon, err := monitor.New(monitor.Deps{
		Settings: provider,
		Activity: activitySvc,
		Projects: projectSvc,
	}, monitor.Options{Debounce: 200 * time.Millisecond}, nil)
	require.NoError(t, err)

	mcpServer := mcp.NewServer(mcp.Config{Monitor: mon, Version: "test"})
	mon.Subscribe(mcp.NewResourceNotifier(mcpServer, nil))

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, mon.Start(ctx))

	server := httptest.NewServer(transport.NewRouter(transport.RouterConfig{
		MCP:       mcp.NewHTTPHandler(mcpServer),
		AuthToken: token,
		Health: func() map[string]any {
			return map[string]any{"running": mon.Running()}
		},
	}))

	t.Cleanup(func() {
		server.Close()
		mon.Shutdown(context.Background())
		cancel()
		_ = db.Close()
	})

	return &TestServer{
		Server:   server,
		DB:       db,
		Monitor:  mon,
		Activity: activitySvc,
		Token:    token,
		Root:     root,
	}
}

// Connect opens an MCP client session over streamable HTTP using the
// server's token.
func (ts *TestServer) Connect(t *testing.T, opts *sdkmcp.ClientOptions) *sdkmcp.ClientSession {
	t.Helper()
	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "test-client", Version: "test"}, opts)
	session, err := client.Connect(context.Background(), &sdkmcp.StreamableClientTransport{
		Endpoint:   ts.Server.URL + "/mcp",
		HTTPClient: &http.Client{Transport: bearerTransport{token: ts.Token}},
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { session.Close() })
	return session
}

type bearerTransport struct {
	token string
}

func (b bearerTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	if b.token != "" {
		req.Header.Set("Authorization", "Bearer "+b.token)
	}
	return http.DefaultTransport.RoundTrip(req)
}
