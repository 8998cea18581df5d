// Package inventory loads the current description of the resources whose
// DNS records are managed, and encodes them as snapshots for later deletion.
package inventory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/yuriy-kovalchuk/yk-dns-tagger/internal/dns"
)

// Kind names a resource variant.
type Kind string

const (
	KindInstance Kind = "instance"
	KindBalancer Kind = "balancer"
)

// ErrNotFound is returned when an inventory lookup yields no resource.
var ErrNotFound = errors.New("resource not found")

// Resource is a loaded compute instance or load balancer.
type Resource interface {
	Kind() Kind
	ID() string
	// Record builds the record set that points alias at the resource.
	Record(alias string, ttl int64) (dns.Record, error)
}

// Loader fetches the current description of a resource by id.
type Loader interface {
	Load(ctx context.Context, id string) (Resource, error)
}

// Encode serialises r as an opaque snapshot.
func Encode(r Resource) (string, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("encoding %s snapshot %s: %w", r.Kind(), r.ID(), err)
	}
	return string(data), nil
}

// Decode rebuilds a resource from a snapshot written by Encode.
func Decode(kind Kind, snapshot string) (Resource, error) {
	var r Resource
	switch kind {
	case KindInstance:
		r = &Instance{}
	case KindBalancer:
		r = &Balancer{}
	default:
		return nil, fmt.Errorf("decoding snapshot: unknown resource kind %q", kind)
	}
	if err := json.Unmarshal([]byte(snapshot), r); err != nil {
		return nil, fmt.Errorf("decoding %s snapshot: %w", kind, err)
	}
	return r, nil
}
