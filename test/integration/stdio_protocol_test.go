package integration_test

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"
)

func findBinary(t *testing.T) string {
	t.Helper()
	for _, p := range []string{"./bin/actmon", "../../bin/actmon"} {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	t.Skip("actmon binary not found. Run 'go build -o bin/actmon ./cmd/actmon' first.")
	return ""
}

// TestStdioProtocolCompliance drives the real binary over stdio with the SDK
// client.
func TestStdioProtocolCompliance(t *testing.T) {
	binaryPath := findBinary(t)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	dataDir := t.TempDir()
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, "alpha"), 0o755))

	cmd := exec.CommandContext(ctx, binaryPath, "serve", "--transport", "stdio")
	cmd.Env = append(os.Environ(),
		"ACTMON_DATA_DIR="+dataDir,
		"ACTMON_DB_PATH=:memory:",
	)

	client := sdkmcp.NewClient(&sdkmcp.Implementation{
		Name:    "test-client",
		Version: "1.0.0",
	}, nil)
	session, err := client.Connect(ctx, &sdkmcp.CommandTransport{Command: cmd}, nil)
	require.NoError(t, err, "Failed to connect to server")
	defer session.Close()

	t.Run("ServerInfo", func(t *testing.T) {
		initResult := session.InitializeResult()
		require.NotNil(t, initResult)
		require.NotNil(t, initResult.ServerInfo)
		require.Equal(t, "actmon", initResult.ServerInfo.Name)
	})

	t.Run("ListTools", func(t *testing.T) {
		tools, err := session.ListTools(ctx, nil)
		require.NoError(t, err, "tools/list failed")

		toolNames := make(map[string]bool)
		for _, tool := range tools.Tools {
			toolNames[tool.Name] = true
		}
		for _, name := range []string{"list_projects", "get_git_status", "add_watch_dir", "get_recent_activity"} {
			require.True(t, toolNames[name], "Missing expected tool: %s", name)
		}
	})

	t.Run("AddWatchDirAndList", func(t *testing.T) {
		result, err := session.CallTool(ctx, &sdkmcp.CallToolParams{
			Name:      "add_watch_dir",
			Arguments: map[string]any{"path": root},
		})
		require.NoError(t, err)
		require.False(t, result.IsError, "add_watch_dir returned error: %v", result)

		result, err = session.CallTool(ctx, &sdkmcp.CallToolParams{
			Name:      "list_projects",
			Arguments: map[string]any{},
		})
		require.NoError(t, err)
		require.False(t, result.IsError, "list_projects returned error: %v", result)

		var out struct {
			Projects []struct {
				Name   string `json:"name"`
				Status string `json:"status"`
			} `json:"projects"`
		}
		require.NoError(t, json.Unmarshal([]byte(result.Content[0].(*sdkmcp.TextContent).Text), &out))
		require.Len(t, out.Projects, 1)
		require.Equal(t, "alpha", out.Projects[0].Name)
		require.Equal(t, "stale", out.Projects[0].Status)
	})
}

// TestStdioProtocol_StdoutHygiene verifies that the server doesn't write
// anything to stdout except valid JSON-RPC messages.
func TestStdioProtocol_StdoutHygiene(t *testing.T) {
	binaryPath := findBinary(t)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cmd := exec.CommandContext(ctx, binaryPath, "serve", "--transport", "stdio", "--log-level", "debug")
	cmd.Env = append(os.Environ(),
		"ACTMON_DATA_DIR="+t.TempDir(),
		"ACTMON_DB_PATH=:memory:",
	)

	stdin, err := cmd.StdinPipe()
	require.NoError(t, err)
	stdout, err := cmd.StdoutPipe()
	require.NoError(t, err)
	stderr, err := cmd.StderrPipe()
	require.NoError(t, err)
	require.NoError(t, cmd.Start())

	initReq := `{"jsonrpc":"2.0","method":"initialize","params":{"protocolVersion":"2024-11-05","capabilities":{},"clientInfo":{"name":"test","version":"1.0"}},"id":1}`
	_, err = stdin.Write([]byte(initReq + "\n"))
	require.NoError(t, err)

	done := make(chan struct{})
	var stdoutBytes, stderrBytes []byte
	go func() {
		stdoutBytes, _ = readWithTimeout(stdout, 2*time.Second)
		stderrBytes, _ = readWithTimeout(stderr, 2*time.Second)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		cmd.Process.Kill()
		t.Fatal("Timeout waiting for server response")
	}

	stdin.Close()
	cmd.Process.Kill()
	cmd.Wait()

	require.NotEmpty(t, stdoutBytes, "Server produced no stdout output")
	require.True(t, stdoutBytes[0] == '{', "First character of stdout should be '{', got: %q", string(stdoutBytes[:min(50, len(stdoutBytes))]))
	require.NotEmpty(t, stderrBytes, "debug logs should go to stderr")
}

// readWithTimeout collects whatever r produces until it stays quiet after some
// output, hits EOF or the timeout elapses.
func readWithTimeout(r io.Reader, timeout time.Duration) ([]byte, error) {
	type chunk struct {
		data []byte
		err  error
	}
	chunks := make(chan chunk, 16)
	go func() {
		for {
			buf := make([]byte, 1024)
			n, err := r.Read(buf)
			chunks <- chunk{data: buf[:n], err: err}
			if err != nil {
				close(chunks)
				return
			}
		}
	}()

	var result []byte
	deadline := time.After(timeout)
	for {
		select {
		case c, ok := <-chunks:
			if !ok {
				return result, nil
			}
			result = append(result, c.data...)
			if c.err != nil {
				return result, c.err
			}
		case <-time.After(100 * time.Millisecond):
			if len(result) > 0 {
				return result, nil
			}
		case <-deadline:
			return result, nil
		}
	}
}
