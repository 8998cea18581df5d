// Package reconciler turns EC2 and load balancer change events into Route 53
// record changes.
package reconciler

import (
	"context"
	"fmt"

	"github.com/aws/aws-lambda-go/events"
	"github.com/go-logr/logr"
	kerrors "k8s.io/apimachinery/pkg/util/errors"

	"github.com/yuriy-kovalchuk/yk-dns-tagger/internal/dns"
	"github.com/yuriy-kovalchuk/yk-dns-tagger/internal/event"
	"github.com/yuriy-kovalchuk/yk-dns-tagger/internal/inventory"
	"github.com/yuriy-kovalchuk/yk-dns-tagger/internal/store"
)

type route struct {
	source string
	name   string
}

type handlerFunc func(d *Dispatcher, ctx context.Context, log logr.Logger, detail *event.Detail) error

var routes = map[route]handlerFunc{
	{event.SourceEC2, event.RunInstances}:       (*Dispatcher).instancesLaunched,
	{event.SourceEC2, event.TerminateInstances}: (*Dispatcher).instancesTerminated,
	{event.SourceEC2, event.CreateTags}:         (*Dispatcher).instanceTagsAdded,
	{event.SourceEC2, event.DeleteTags}:         (*Dispatcher).instanceTagsRemoved,
	{event.SourceELB, event.CreateLoadBalancer}: (*Dispatcher).balancerCreated,
	{event.SourceELB, event.DeleteLoadBalancer}: (*Dispatcher).balancerDeleted,
	{event.SourceELB, event.AddTags}:            (*Dispatcher).balancerTagsAdded,
	{event.SourceELB, event.RemoveTags}:         (*Dispatcher).balancerTagsRemoved,
}

// Dispatcher routes one event to the scenario handling its (source, name)
// pair. Events it has no handler for are ignored.
type Dispatcher struct {
	Log       logr.Logger
	TagKey    string
	DNS       dns.Provider
	Store     store.Store
	Instances inventory.Loader
	Balancers inventory.Loader
	Mutator   *Mutator
}

// Handle processes a single EventBridge event.
func (d *Dispatcher) Handle(ctx context.Context, ev events.CloudWatchEvent) error {
	log := d.Log.WithValues("eventID", ev.ID, "source", ev.Source)

	if ev.Source != event.SourceEC2 && ev.Source != event.SourceELB {
		log.V(1).Info("ignoring event from unhandled source")
		return nil
	}
	detail, err := event.ParseDetail(ev)
	if err != nil {
		return err
	}
	log = log.WithValues("eventName", detail.EventName)

	handle, ok := routes[route{ev.Source, detail.EventName}]
	if !ok {
		log.V(1).Info("ignoring unhandled event")
		return nil
	}
	if detail.Failed() {
		log.V(1).Info("ignoring failed API call", "errorCode", detail.ErrorCode)
		return nil
	}

	log.Info("handling event")
	return handle(d, ctx, log, detail)
}

func (d *Dispatcher) instancesLaunched(ctx context.Context, log logr.Logger, detail *event.Detail) error {
	var req event.RunInstancesRequest
	if err := detail.DecodeRequest(&req); err != nil {
		return err
	}
	alias, ok := req.InstanceTag(d.TagKey)
	if !ok || alias == "" {
		log.V(1).Info("launch request carries no tag", "tagKey", d.TagKey)
		return nil
	}

	var resp event.InstancesResponse
	if err := detail.DecodeResponse(&resp); err != nil {
		return err
	}
	return d.each(resp.InstanceIDs(), func(id string) error {
		return d.publish(ctx, log, d.Instances, id, alias)
	})
}

func (d *Dispatcher) instancesTerminated(ctx context.Context, log logr.Logger, detail *event.Detail) error {
	var req event.InstancesResponse
	if err := detail.DecodeRequest(&req); err != nil {
		return err
	}
	return d.each(req.InstanceIDs(), func(id string) error {
		return d.withdraw(ctx, log, id)
	})
}

func (d *Dispatcher) instanceTagsAdded(ctx context.Context, log logr.Logger, detail *event.Detail) error {
	var req event.TagsRequest
	if err := detail.DecodeRequest(&req); err != nil {
		return err
	}
	alias, ok := req.Tag(d.TagKey)
	if !ok || alias == "" {
		log.V(1).Info("tag set does not carry tag", "tagKey", d.TagKey)
		return nil
	}
	return d.each(instanceIDs(req.ResourceIDs()), func(id string) error {
		return d.publish(ctx, log, d.Instances, id, alias)
	})
}

// instanceTagsRemoved deletes the record of each untagged instance. A stored
// association is removed from its snapshot; otherwise the tag value in the
// event names the record and the live instance supplies its address.
func (d *Dispatcher) instanceTagsRemoved(ctx context.Context, log logr.Logger, detail *event.Detail) error {
	var req event.TagsRequest
	if err := detail.DecodeRequest(&req); err != nil {
		return err
	}
	tagValue, ok := req.Tag(d.TagKey)
	if !ok {
		log.V(1).Info("tag set does not carry tag", "tagKey", d.TagKey)
		return nil
	}
	return d.each(instanceIDs(req.ResourceIDs()), func(id string) error {
		prior, err := d.Store.Get(ctx, id)
		if err != nil {
			return err
		}
		if prior != nil {
			return d.remove(ctx, prior)
		}
		if tagValue == "" {
			log.V(1).Info("no alias known for instance", "resourceID", id)
			return nil
		}

		res, err := d.Instances.Load(ctx, id)
		if err != nil {
			return err
		}
		return d.apply(ctx, tagValue, res, false)
	})
}

func (d *Dispatcher) balancerCreated(ctx context.Context, log logr.Logger, detail *event.Detail) error {
	var req event.CreateLoadBalancerRequest
	if err := detail.DecodeRequest(&req); err != nil {
		return err
	}
	alias, ok := event.FindTag(req.Tags, d.TagKey)
	if !ok || alias == "" {
		log.V(1).Info("load balancer created without tag", "tagKey", d.TagKey, "name", req.Name)
		return nil
	}

	var resp event.CreateLoadBalancerResponse
	if err := detail.DecodeResponse(&resp); err != nil {
		return err
	}
	return d.each(resp.ARNs(), func(arn string) error {
		return d.publish(ctx, log, d.Balancers, arn, alias)
	})
}

func (d *Dispatcher) balancerDeleted(ctx context.Context, log logr.Logger, detail *event.Detail) error {
	var req event.DeleteLoadBalancerRequest
	if err := detail.DecodeRequest(&req); err != nil {
		return err
	}
	if req.LoadBalancerArn == "" {
		return nil
	}
	return d.withdraw(ctx, log, req.LoadBalancerArn)
}

func (d *Dispatcher) balancerTagsAdded(ctx context.Context, log logr.Logger, detail *event.Detail) error {
	var req event.AddTagsRequest
	if err := detail.DecodeRequest(&req); err != nil {
		return err
	}
	alias, ok := event.FindTag(req.Tags, d.TagKey)
	if !ok || alias == "" {
		log.V(1).Info("tags do not carry tag", "tagKey", d.TagKey)
		return nil
	}
	return d.each(balancerARNs(req.ResourceArns), func(arn string) error {
		return d.publish(ctx, log, d.Balancers, arn, alias)
	})
}

// balancerTagsRemoved works from the stored association alone; the live
// tags of the balancer are not consulted.
func (d *Dispatcher) balancerTagsRemoved(ctx context.Context, log logr.Logger, detail *event.Detail) error {
	var req event.RemoveTagsRequest
	if err := detail.DecodeRequest(&req); err != nil {
		return err
	}
	if !req.HasKey(d.TagKey) {
		log.V(1).Info("removed keys do not include tag", "tagKey", d.TagKey)
		return nil
	}
	return d.each(balancerARNs(req.ResourceArns), func(arn string) error {
		return d.withdraw(ctx, log, arn)
	})
}

// publish loads id and points alias at it. A record previously published
// under a different alias is withdrawn first.
func (d *Dispatcher) publish(ctx context.Context, log logr.Logger, loader inventory.Loader, id, alias string) error {
	res, err := loader.Load(ctx, id)
	if err != nil {
		return err
	}

	prior, err := d.Store.Get(ctx, id)
	if err != nil {
		return err
	}
	if prior != nil && dns.Canonical(prior.Alias) != dns.Canonical(alias) {
		log.Info("alias changed, removing previous record", "resourceID", id, "previous", prior.Alias, "alias", alias)
		if err := d.remove(ctx, prior); err != nil {
			return err
		}
	}
	return d.apply(ctx, alias, res, true)
}

// withdraw deletes the record stored for id, if any.
func (d *Dispatcher) withdraw(ctx context.Context, log logr.Logger, id string) error {
	prior, err := d.Store.Get(ctx, id)
	if err != nil {
		return err
	}
	if prior == nil {
		log.V(1).Info("no association, nothing to remove", "resourceID", id)
		return nil
	}
	return d.remove(ctx, prior)
}

func (d *Dispatcher) remove(ctx context.Context, a *store.Association) error {
	res, err := a.Resource()
	if err != nil {
		return fmt.Errorf("association for %s: %w", a.ResourceID, err)
	}
	return d.apply(ctx, a.Alias, res, false)
}

func (d *Dispatcher) apply(ctx context.Context, alias string, res inventory.Resource, upsert bool) error {
	zoneID, err := d.DNS.ResolveZone(ctx, alias)
	if err != nil {
		return fmt.Errorf("resolving zone for %s: %w", alias, err)
	}
	return d.Mutator.Apply(ctx, zoneID, alias, res, upsert)
}

// each runs fn for every id and aggregates the failures, so one bad resource
// does not stop the others.
func (d *Dispatcher) each(ids []string, fn func(id string) error) error {
	var errs []error
	for _, id := range ids {
		if err := fn(id); err != nil {
			errs = append(errs, err)
		}
	}
	return kerrors.NewAggregate(errs)
}

func instanceIDs(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if inventory.IsInstanceID(id) {
			out = append(out, id)
		}
	}
	return out
}

func balancerARNs(arns []string) []string {
	out := make([]string, 0, len(arns))
	for _, arn := range arns {
		if inventory.IsBalancerARN(arn) {
			out = append(out, arn)
		}
	}
	return out
}
