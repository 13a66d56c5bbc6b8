package repository

import (
	"github.com/rpggio/actmon/internal/domain/activity"
)

// ActivityRepository is the full surface of a durable activity store: the
// append/read contract used by the core plus compaction.
type ActivityRepository interface {
	activity.Repository
	activity.Compactor
}
