// Package route53 implements dns.Provider on top of Amazon Route 53.
package route53

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/route53"
	"github.com/aws/aws-sdk-go-v2/service/route53/types"
	"github.com/aws/smithy-go"
	"github.com/go-logr/logr"

	"github.com/yuriy-kovalchuk/yk-dns-tagger/internal/dns"
)

func init() {
	dns.Register("route53", func(log logr.Logger, cfg aws.Config, settings map[string]string) (dns.Provider, error) {
		visibility, err := ParseVisibility(settings["zone_visibility"])
		if err != nil {
			return nil, err
		}
		return New(log, route53.NewFromConfig(cfg), visibility), nil
	})
}

// Visibility restricts which hosted zones ResolveZone may pick.
type Visibility string

const (
	VisibilityAny     Visibility = "any"
	VisibilityPrivate Visibility = "private"
	VisibilityPublic  Visibility = "public"
)

// ParseVisibility maps a settings value to a Visibility; empty means any.
func ParseVisibility(v string) (Visibility, error) {
	switch Visibility(strings.ToLower(v)) {
	case "", VisibilityAny:
		return VisibilityAny, nil
	case VisibilityPrivate:
		return VisibilityPrivate, nil
	case VisibilityPublic:
		return VisibilityPublic, nil
	}
	return "", fmt.Errorf("route53: invalid zone_visibility %q", v)
}

func (v Visibility) allows(zone types.HostedZone) bool {
	private := zone.Config != nil && zone.Config.PrivateZone
	switch v {
	case VisibilityPrivate:
		return private
	case VisibilityPublic:
		return !private
	}
	return true
}

// invalidChangeBatchCode is returned for a DELETE whose record set does not exist.
const invalidChangeBatchCode = "InvalidChangeBatch"

type api interface {
	ListHostedZonesByName(ctx context.Context, in *route53.ListHostedZonesByNameInput, optFns ...func(*route53.Options)) (*route53.ListHostedZonesByNameOutput, error)
	ChangeResourceRecordSets(ctx context.Context, in *route53.ChangeResourceRecordSetsInput, optFns ...func(*route53.Options)) (*route53.ChangeResourceRecordSetsOutput, error)
}

var _ dns.Provider = &Provider{}

// Provider implements dns.Provider for Route 53 hosted zones.
type Provider struct {
	client     api
	visibility Visibility
	log        logr.Logger
}

// New creates a Route 53 provider around client.
func New(log logr.Logger, client api, visibility Visibility) *Provider {
	return &Provider{
		client:     client,
		visibility: visibility,
		log:        log,
	}
}

// ResolveZone finds the hosted zone named after the parent domain of name.
// Zones are filtered by the provider's visibility; anything but exactly one
// survivor is an error.
func (p *Provider) ResolveZone(ctx context.Context, name string) (string, error) {
	domain := dns.Canonical(dns.ParentDomain(name))
	if domain == "" {
		return "", fmt.Errorf("route53: %q has no parent domain: %w", name, dns.ErrZoneNotFound)
	}

	var matches []types.HostedZone
	in := &route53.ListHostedZonesByNameInput{DNSName: aws.String(domain)}
	for {
		out, err := p.client.ListHostedZonesByName(ctx, in)
		if err != nil {
			return "", fmt.Errorf("route53: list hosted zones by name %s: %w", domain, err)
		}

		// Results are sorted by name starting at DNSName, so exact matches
		// come first and the scan can stop at the first foreign name.
		past := false
		for _, zone := range out.HostedZones {
			if dns.Canonical(aws.ToString(zone.Name)) != domain {
				past = true
				break
			}
			if p.visibility.allows(zone) {
				matches = append(matches, zone)
			}
		}
		if past || !out.IsTruncated {
			break
		}
		in = &route53.ListHostedZonesByNameInput{
			DNSName:      out.NextDNSName,
			HostedZoneId: out.NextHostedZoneId,
		}
	}

	switch len(matches) {
	case 0:
		return "", fmt.Errorf("route53: %s (%s zones): %w", domain, p.visibility, dns.ErrZoneNotFound)
	case 1:
		id := strings.TrimPrefix(aws.ToString(matches[0].Id), "/hostedzone/")
		p.log.V(1).Info("resolved hosted zone", "domain", domain, "zoneID", id)
		return id, nil
	}
	return "", fmt.Errorf("route53: %s has %d %s zones: %w", domain, len(matches), p.visibility, dns.ErrAmbiguousZone)
}

// Change submits record as a single-change batch. A DELETE for a record set
// Route 53 no longer holds is treated as done.
func (p *Provider) Change(ctx context.Context, zoneID string, action dns.Action, record dns.Record) (string, error) {
	if record.Name == "" {
		return "", fmt.Errorf("route53: record name is required")
	}

	input := &route53.ChangeResourceRecordSetsInput{
		HostedZoneId: aws.String(zoneID),
		ChangeBatch: &types.ChangeBatch{
			Changes: []types.Change{
				{
					Action:            types.ChangeAction(action),
					ResourceRecordSet: buildRecordSet(record),
				},
			},
		},
	}

	out, err := p.client.ChangeResourceRecordSets(ctx, input)
	if err != nil {
		if action == dns.ActionDelete && isNotFound(err) {
			p.log.Info("record not found, nothing to delete", "zoneID", zoneID, "name", record.Name, "type", record.Type)
			return "", nil
		}
		return "", fmt.Errorf("route53: %s %s in zone %s: %w", action, record.Name, zoneID, err)
	}

	var changeID string
	if out.ChangeInfo != nil {
		changeID = aws.ToString(out.ChangeInfo.Id)
	}
	p.log.Info("submitted record change", "action", action, "zoneID", zoneID, "name", record.Name, "type", record.Type, "changeID", changeID)
	return changeID, nil
}

func buildRecordSet(record dns.Record) *types.ResourceRecordSet {
	rrs := &types.ResourceRecordSet{
		Name: aws.String(record.Name),
		Type: types.RRType(record.Type),
	}
	if record.Alias != nil {
		rrs.AliasTarget = &types.AliasTarget{
			DNSName:              aws.String(record.Alias.DNSName),
			HostedZoneId:         aws.String(record.Alias.HostedZoneID),
			EvaluateTargetHealth: record.Alias.EvaluateTargetHealth,
		}
		return rrs
	}
	rrs.TTL = aws.Int64(record.TTL)
	rrs.ResourceRecords = []types.ResourceRecord{{Value: aws.String(record.Value)}}
	return rrs
}

func isNotFound(err error) bool {
	var apiErr smithy.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return apiErr.ErrorCode() == invalidChangeBatchCode && strings.Contains(apiErr.ErrorMessage(), "not found")
}
