package reconciler

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/aws"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	elbv2types "github.com/aws/aws-sdk-go-v2/service/elasticloadbalancingv2/types"
	"github.com/go-logr/logr/testr"

	"github.com/yuriy-kovalchuk/yk-dns-tagger/internal/dns"
	"github.com/yuriy-kovalchuk/yk-dns-tagger/internal/inventory"
	"github.com/yuriy-kovalchuk/yk-dns-tagger/internal/store"
)

const (
	testTagKey = "dns-alias"
	testZoneID = "Z0EXAMPLE"
	testALBArn = "arn:aws:elasticloadbalancing:eu-west-1:123456789012:loadbalancer/app/web/50dc6c495c0c9188"
)

type change struct {
	ZoneID string
	Action dns.Action
	Record dns.Record
}

// fakeDNS is an in-memory hosted zone directory recording every change.
type fakeDNS struct {
	mu           sync.Mutex
	zones        map[string]string // parent domain -> zone id
	records      map[string]dns.Record
	changes      []change
	resolveCalls int
	changeErr    error
}

func newFakeDNS() *fakeDNS {
	return &fakeDNS{
		zones:   map[string]string{"example.com": testZoneID},
		records: map[string]dns.Record{},
	}
}

func (f *fakeDNS) ResolveZone(_ context.Context, name string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resolveCalls++
	id, ok := f.zones[dns.ParentDomain(name)]
	if !ok {
		return "", fmt.Errorf("fake: %s: %w", name, dns.ErrZoneNotFound)
	}
	return id, nil
}

func (f *fakeDNS) Change(_ context.Context, zoneID string, action dns.Action, record dns.Record) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.changes = append(f.changes, change{ZoneID: zoneID, Action: action, Record: record})
	if f.changeErr != nil {
		return "", f.changeErr
	}
	key := zoneID + "/" + record.Name
	switch action {
	case dns.ActionUpsert:
		f.records[key] = record
	case dns.ActionDelete:
		delete(f.records, key)
	}
	return fmt.Sprintf("/change/C%d", len(f.changes)), nil
}

// fakeStore is an in-memory association store.
type fakeStore struct {
	mu     sync.Mutex
	rows   map[string]store.Association
	calls  int
	putErr error
}

func newFakeStore() *fakeStore {
	return &fakeStore{rows: map[string]store.Association{}}
}

func (f *fakeStore) Get(_ context.Context, id string) (*store.Association, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	a, ok := f.rows[id]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (f *fakeStore) Put(_ context.Context, a store.Association) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.putErr != nil {
		return f.putErr
	}
	f.rows[a.ResourceID] = a
	return nil
}

func (f *fakeStore) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	delete(f.rows, id)
	return nil
}

// fakeLoader serves resources from a map and records the ids it was asked for.
type fakeLoader struct {
	resources map[string]inventory.Resource
	calls     []string
}

func (f *fakeLoader) Load(_ context.Context, id string) (inventory.Resource, error) {
	f.calls = append(f.calls, id)
	r, ok := f.resources[id]
	if !ok {
		return nil, fmt.Errorf("fake: %s: %w", id, inventory.ErrNotFound)
	}
	return r, nil
}

func testInstance(id, addr string) *inventory.Instance {
	return &inventory.Instance{Instance: ec2types.Instance{
		InstanceId:       aws.String(id),
		PrivateIpAddress: aws.String(addr),
	}}
}

func testBalancer() *inventory.Balancer {
	return &inventory.Balancer{LoadBalancer: elbv2types.LoadBalancer{
		LoadBalancerArn:       aws.String(testALBArn),
		DNSName:               aws.String("web-1234.eu-west-1.elb.amazonaws.com"),
		CanonicalHostedZoneId: aws.String("Z32O12XQLNTSW2"),
		Type:                  elbv2types.LoadBalancerTypeEnumApplication,
	}}
}

type harness struct {
	dns        *fakeDNS
	store      *fakeStore
	instances  *fakeLoader
	balancers  *fakeLoader
	dispatcher *Dispatcher
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		dns:   newFakeDNS(),
		store: newFakeStore(),
		instances: &fakeLoader{resources: map[string]inventory.Resource{
			"i-0abc": testInstance("i-0abc", "10.0.1.20"),
		}},
		balancers: &fakeLoader{resources: map[string]inventory.Resource{
			testALBArn: testBalancer(),
		}},
	}
	log := testr.New(t)
	h.dispatcher = &Dispatcher{
		Log:       log,
		TagKey:    testTagKey,
		DNS:       h.dns,
		Store:     h.store,
		Instances: h.instances,
		Balancers: h.balancers,
		Mutator: &Mutator{
			DNS:   h.dns,
			Store: h.store,
			Log:   log,
			TTL:   300,
		},
	}
	return h
}

// associate seeds the store as if res had been published under alias.
func (h *harness) associate(t *testing.T, res inventory.Resource, alias string) {
	t.Helper()
	snapshot, err := inventory.Encode(res)
	if err != nil {
		t.Fatal(err)
	}
	h.store.rows[res.ID()] = store.Association{
		ResourceID: res.ID(),
		Alias:      alias,
		Kind:       res.Kind(),
		Snapshot:   snapshot,
	}
}

func (h *harness) externalCalls() int {
	return h.dns.resolveCalls + len(h.dns.changes) + h.store.calls + len(h.instances.calls) + len(h.balancers.calls)
}

func loadEvent(t *testing.T, name string) events.CloudWatchEvent {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	if err != nil {
		t.Fatal(err)
	}
	var ev events.CloudWatchEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		t.Fatalf("decoding %s: %v", name, err)
	}
	return ev
}
