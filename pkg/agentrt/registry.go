// Package agentrt is the generic agent runtime of spec.md §4.5: the
// register/heartbeat/claim/execute/complete-or-fail loop every role
// (reporter, editor, publisher) runs, parameterized by a pkg/worker
// Handler instead of one hardcoded per-role implementation.
package agentrt

import (
	"context"
	"log/slog"
	"time"

	"github.com/newsroom-systems/chief/pkg/store"
)

// Agent statuses, mirrored in the agents table.
const (
	AgentStatusIdle    = "idle"
	AgentStatusWorking = "working"
)

// Registry tracks agent presence (registration + heartbeat) in the
// durable store, the substrate's only shared state per spec.md §9's
// scheduling-model note.
type Registry struct {
	st  *store.Store
	log *slog.Logger
}

// NewRegistry creates a Registry over st.
func NewRegistry(st *store.Store) *Registry {
	return &Registry{st: st, log: slog.With("component", "agentrt.registry")}
}

// Register upserts an agent row as idle, called once at runner startup.
func (r *Registry) Register(ctx context.Context, agentID, role string) error {
	_, err := store.Execute(ctx, r.st.Pool(),
		`INSERT INTO agents (agent_id, role, status, last_heartbeat)
		 VALUES ($1, $2, $3, now())
		 ON CONFLICT (agent_id) DO UPDATE SET role = $2, status = $3, last_heartbeat = now()`,
		agentID, role, AgentStatusIdle,
	)
	return err
}

// Heartbeat refreshes last_heartbeat and sets status.
func (r *Registry) Heartbeat(ctx context.Context, agentID, status string) error {
	_, err := store.Execute(ctx, r.st.Pool(),
		`UPDATE agents SET status = $1, last_heartbeat = now() WHERE agent_id = $2`,
		status, agentID,
	)
	return err
}

// Agent is a row of the agents table.
type Agent struct {
	AgentID       string    `db:"agent_id"`
	Role          string    `db:"role"`
	Status        string    `db:"status"`
	LastHeartbeat time.Time `db:"last_heartbeat"`
}

// ListByRole returns every agent registered for role.
func (r *Registry) ListByRole(ctx context.Context, role string) ([]Agent, error) {
	return store.FetchMany[Agent](ctx, r.st.Pool(),
		`SELECT agent_id, role, status, last_heartbeat FROM agents WHERE role = $1`,
		role,
	)
}
