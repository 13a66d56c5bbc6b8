package project

import (
	"context"

	"github.com/rpggio/actmon/internal/gitprobe"
)

// ActivitySource provides the latest activity timestamp per canonical project path.
type ActivitySource interface {
	LatestActivity(ctx context.Context) map[string]int64
}

// GitProbe provides git metadata for a candidate directory.
type GitProbe interface {
	ProbeForDiscovery(ctx context.Context, dir string) gitprobe.Status
	ProbeForDetail(ctx context.Context, dir string) *gitprobe.Status
}
