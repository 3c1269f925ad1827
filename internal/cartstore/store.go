// Package cartstore persists per-session cart snapshots. The snapshot is
// the durable fallback source for a session's cart: it survives restarts
// and lives independently of the remote order lifecycle. Reconciliation
// reads it but never writes it; writes happen on the mutation entry
// points.
package cartstore

import (
	"context"

	"storefront-session/internal/domain"
)

// Store holds at most one cart snapshot per session, under a single fixed
// logical key.
type Store interface {
	// Get returns the snapshot for the session and whether one exists.
	Get(ctx context.Context, sessionID string) (domain.Cart, bool, error)
	// Set replaces the snapshot for the session.
	Set(ctx context.Context, sessionID string, cart domain.Cart) error
}
