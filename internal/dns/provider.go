package dns

import (
	"context"
	"errors"
)

// Action is the change applied to a record set.
type Action string

const (
	ActionUpsert Action = "UPSERT"
	ActionDelete Action = "DELETE"
)

var (
	// ErrZoneNotFound is returned when no hosted zone owns the requested name.
	ErrZoneNotFound = errors.New("hosted zone not found")
	// ErrAmbiguousZone is returned when more than one hosted zone owns the requested name.
	ErrAmbiguousZone = errors.New("more than one hosted zone matches")
)

// AliasTarget points an alias record at another AWS-managed endpoint.
type AliasTarget struct {
	DNSName              string
	HostedZoneID         string
	EvaluateTargetHealth bool
}

// Record represents a DNS record to be managed.
type Record struct {
	Name  string       // FQDN, e.g. "app.example.com"
	Type  string       // "A", "AAAA", "CNAME"
	Value string       // IP address or target; empty for alias records
	TTL   int64        // ignored for alias records
	Alias *AliasTarget // nil unless this is an alias record
}

// Provider is the interface that DNS providers must implement.
type Provider interface {
	// ResolveZone returns the id of the hosted zone that owns name's parent domain.
	ResolveZone(ctx context.Context, name string) (string, error)
	// Change submits a single record change and returns the provider's change id.
	Change(ctx context.Context, zoneID string, action Action, record Record) (string, error)
}
