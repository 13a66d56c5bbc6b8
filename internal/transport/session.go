package transport

import (
	"context"
	"net/http"
	"strings"
)

// mcpSessionHeader carries the session assigned by the streamable HTTP
// handler on initialize. Clients echo it on every later request.
const mcpSessionHeader = "Mcp-Session-Id"

type sessionKey struct{}

// SessionID returns the MCP session a request belongs to, or "" for requests
// sent before initialize completed.
func SessionID(ctx context.Context) string {
	id, _ := ctx.Value(sessionKey{}).(string)
	return id
}

// SessionMiddleware tags the request context with the client's MCP session
// so request logs can be grouped per client.
func SessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(mcpSessionHeader))
		if id == "" {
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionKey{}, id)))
	})
}
