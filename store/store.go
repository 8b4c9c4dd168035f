// Package store is the Item Store: durable persistence for items,
// collections, and users, using a generic CouchDB save/get/list-by-type
// pattern with optimistic concurrency via a revision token, reimplemented
// standalone so it carries only the altimpact document shapes rather than
// a flow-processing document model.
package store

import (
	"context"
	"errors"

	"altimpact.dev/item"
)

// ErrNotFound is returned when a lookup finds no matching document.
var ErrNotFound = errors.New("store: not found")

// ErrConflict is returned when a Save loses an optimistic-concurrency race:
// the caller's Rev no longer matches the stored document's revision.
var ErrConflict = errors.New("store: revision conflict")

// Store is the Item Store collaborator: durable item,
// collection, and user persistence plus the two lookups intake and the
// Orchestrator need that a pure key-value store can't answer alone.
type Store interface {
	// CreateItem persists a brand-new item. Fails with ErrConflict if an
	// item with this TIID already exists.
	CreateItem(ctx context.Context, it *item.Item) error
	// GetItem returns the item for tiid, or ErrNotFound.
	GetItem(ctx context.Context, tiid string) (*item.Item, error)
	// SaveItem upserts it, using it.Rev for optimistic concurrency;
	// returns the new revision via the updated it.Rev on success.
	SaveItem(ctx context.Context, it *item.Item) error
	// FindTIIDByAlias returns the tiid of an existing item carrying
	// (namespace, id) among its aliases, used to coalesce a newly-seen
	// alias onto an already-admitted item rather than creating a
	// duplicate (invariant 2).
	FindTIIDByAlias(ctx context.Context, namespace, id string) (string, bool, error)
	// ItemsNeedingAliases returns the tiids of items still awaiting
	// their first alias-resolution pass, for the Orchestrator's
	// admission step.
	ItemsNeedingAliases(ctx context.Context) ([]string, error)

	CreateCollection(ctx context.Context, c *item.Collection) error
	GetCollection(ctx context.Context, cid string) (*item.Collection, error)
	SaveCollection(ctx context.Context, c *item.Collection) error

	GetUser(ctx context.Context, apiKey string) (*item.User, error)
	SaveUser(ctx context.Context, u *item.User) error
}
