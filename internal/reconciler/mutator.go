package reconciler

import (
	"context"
	"fmt"

	"github.com/go-logr/logr"

	"github.com/yuriy-kovalchuk/yk-dns-tagger/internal/dns"
	"github.com/yuriy-kovalchuk/yk-dns-tagger/internal/inventory"
	"github.com/yuriy-kovalchuk/yk-dns-tagger/internal/store"
)

// Mutator applies record changes and keeps the association store in step.
type Mutator struct {
	DNS   dns.Provider
	Store store.Store
	Log   logr.Logger
	TTL   int64 // for address records; alias records carry no TTL
}

// Apply upserts (or deletes) the record that points alias at res in zoneID.
// The DNS change is submitted first and the store is only touched once it
// succeeded, so a rejected change never leaves a dangling association.
func (m *Mutator) Apply(ctx context.Context, zoneID, alias string, res inventory.Resource, upsert bool) error {
	record, err := res.Record(alias, m.TTL)
	if err != nil {
		return fmt.Errorf("building record for %s: %w", res.ID(), err)
	}

	action := dns.ActionDelete
	var snapshot string
	if upsert {
		action = dns.ActionUpsert
		if snapshot, err = inventory.Encode(res); err != nil {
			return err
		}
	}

	changeID, err := m.DNS.Change(ctx, zoneID, action, record)
	if err != nil {
		return fmt.Errorf("%s record %s for %s: %w", action, alias, res.ID(), err)
	}
	m.Log.Info("applied record change", "action", action, "alias", alias, "resourceID", res.ID(), "zoneID", zoneID, "changeID", changeID)

	if upsert {
		err = m.Store.Put(ctx, store.Association{
			ResourceID: res.ID(),
			Alias:      alias,
			Kind:       res.Kind(),
			Snapshot:   snapshot,
		})
	} else {
		err = m.Store.Delete(ctx, res.ID())
	}
	if err != nil {
		return fmt.Errorf("record %s for %s changed but association not updated: %w", alias, res.ID(), err)
	}
	return nil
}
