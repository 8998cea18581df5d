package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	elbv2 "github.com/aws/aws-sdk-go-v2/service/elasticloadbalancingv2"
	elbv2types "github.com/aws/aws-sdk-go-v2/service/elasticloadbalancingv2/types"

	"github.com/yuriy-kovalchuk/yk-dns-tagger/internal/dns"
)

// dualStackPrefix selects the IPv4+IPv6 endpoint of an application load balancer.
const dualStackPrefix = "dualstack."

// IsBalancerARN reports whether arn names a load balancer rather than a
// target group or listener.
func IsBalancerARN(arn string) bool {
	return strings.Contains(arn, ":loadbalancer/")
}

// Balancer is an Elastic Load Balancing v2 load balancer.
type Balancer struct {
	elbv2types.LoadBalancer
}

func (b *Balancer) Kind() Kind { return KindBalancer }

func (b *Balancer) ID() string { return aws.ToString(b.LoadBalancerArn) }

// Record builds an alias record to the balancer's canonical endpoint.
func (b *Balancer) Record(alias string, _ int64) (dns.Record, error) {
	name := aws.ToString(b.DNSName)
	zone := aws.ToString(b.CanonicalHostedZoneId)
	if name == "" || zone == "" {
		return dns.Record{}, fmt.Errorf("load balancer %s has no canonical endpoint", b.ID())
	}
	if b.Type == elbv2types.LoadBalancerTypeEnumApplication {
		name = dualStackPrefix + name
	}
	return dns.Record{
		Name: alias,
		Type: "A",
		Alias: &dns.AliasTarget{
			DNSName:              name,
			HostedZoneID:         zone,
			EvaluateTargetHealth: true,
		},
	}, nil
}

// ELBAPI is the subset of the ELBv2 client the balancer loader needs.
type ELBAPI interface {
	DescribeLoadBalancers(ctx context.Context, in *elbv2.DescribeLoadBalancersInput, optFns ...func(*elbv2.Options)) (*elbv2.DescribeLoadBalancersOutput, error)
}

// BalancerLoader loads load balancers by ARN.
type BalancerLoader struct {
	client ELBAPI
}

func NewBalancerLoader(client ELBAPI) *BalancerLoader {
	return &BalancerLoader{client: client}
}

func (l *BalancerLoader) Load(ctx context.Context, arn string) (Resource, error) {
	out, err := l.client.DescribeLoadBalancers(ctx, &elbv2.DescribeLoadBalancersInput{
		LoadBalancerArns: []string{arn},
	})
	if err != nil {
		var notFound *elbv2types.LoadBalancerNotFoundException
		if errors.As(err, &notFound) {
			return nil, fmt.Errorf("load balancer %s: %w", arn, ErrNotFound)
		}
		return nil, fmt.Errorf("describing load balancer %s: %w", arn, err)
	}
	if len(out.LoadBalancers) == 0 {
		return nil, fmt.Errorf("load balancer %s: %w", arn, ErrNotFound)
	}
	return &Balancer{LoadBalancer: out.LoadBalancers[0]}, nil
}
