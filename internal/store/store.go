// Package store tracks which DNS alias was last applied for a resource.
package store

import (
	"context"

	"github.com/yuriy-kovalchuk/yk-dns-tagger/internal/inventory"
)

// Association links a resource to the alias it was published under and the
// snapshot the record was built from.
type Association struct {
	ResourceID string         `dynamodbav:"ResourceId"`
	Alias      string         `dynamodbav:"Alias"`
	Kind       inventory.Kind `dynamodbav:"Kind"`
	Snapshot   string         `dynamodbav:"Snapshot"`
}

// Resource decodes the snapshot held by the association.
func (a *Association) Resource() (inventory.Resource, error) {
	return inventory.Decode(a.Kind, a.Snapshot)
}

// Store persists associations keyed by resource id.
type Store interface {
	// Get returns nil, nil when no association exists for id.
	Get(ctx context.Context, id string) (*Association, error)
	// Put overwrites any existing association for a.ResourceID.
	Put(ctx context.Context, a Association) error
	// Delete is a no-op when no association exists for id.
	Delete(ctx context.Context, id string) error
}
