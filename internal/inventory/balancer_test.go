package inventory

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	elbv2 "github.com/aws/aws-sdk-go-v2/service/elasticloadbalancingv2"
	elbv2types "github.com/aws/aws-sdk-go-v2/service/elasticloadbalancingv2/types"
)

const testALBArn = "arn:aws:elasticloadbalancing:eu-west-1:123456789012:loadbalancer/app/web/50dc6c495c0c9188"

type fakeELB struct {
	balancers map[string]elbv2types.LoadBalancer
	err       error
}

func (f *fakeELB) DescribeLoadBalancers(_ context.Context, in *elbv2.DescribeLoadBalancersInput, _ ...func(*elbv2.Options)) (*elbv2.DescribeLoadBalancersOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := &elbv2.DescribeLoadBalancersOutput{}
	for _, arn := range in.LoadBalancerArns {
		if lb, ok := f.balancers[arn]; ok {
			out.LoadBalancers = append(out.LoadBalancers, lb)
		}
	}
	return out, nil
}

func testBalancer(arn string, typ elbv2types.LoadBalancerTypeEnum) elbv2types.LoadBalancer {
	return elbv2types.LoadBalancer{
		LoadBalancerArn:       aws.String(arn),
		DNSName:               aws.String("web-1234.eu-west-1.elb.amazonaws.com"),
		CanonicalHostedZoneId: aws.String("Z32O12XQLNTSW2"),
		Type:                  typ,
	}
}

func TestBalancerLoader_Load(t *testing.T) {
	fake := &fakeELB{balancers: map[string]elbv2types.LoadBalancer{
		testALBArn: testBalancer(testALBArn, elbv2types.LoadBalancerTypeEnumApplication),
	}}
	l := NewBalancerLoader(fake)

	r, err := l.Load(context.Background(), testALBArn)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Kind() != KindBalancer || r.ID() != testALBArn {
		t.Errorf("unexpected resource: kind=%q id=%q", r.Kind(), r.ID())
	}
}

func TestBalancerLoader_NotFound(t *testing.T) {
	tests := map[string]*fakeELB{
		"empty result":  {},
		"api not found": {err: &elbv2types.LoadBalancerNotFoundException{Message: aws.String("gone")}},
	}
	for name, fake := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := NewBalancerLoader(fake).Load(context.Background(), testALBArn)
			if !errors.Is(err, ErrNotFound) {
				t.Fatalf("expected ErrNotFound, got %v", err)
			}
		})
	}
}

func TestBalancerRecord(t *testing.T) {
	tests := []struct {
		typ         elbv2types.LoadBalancerTypeEnum
		wantDNSName string
	}{
		{elbv2types.LoadBalancerTypeEnumApplication, "dualstack.web-1234.eu-west-1.elb.amazonaws.com"},
		{elbv2types.LoadBalancerTypeEnumNetwork, "web-1234.eu-west-1.elb.amazonaws.com"},
	}

	for _, tt := range tests {
		t.Run(string(tt.typ), func(t *testing.T) {
			b := &Balancer{LoadBalancer: testBalancer(testALBArn, tt.typ)}
			rec, err := b.Record("web.example.com", 300)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if rec.Name != "web.example.com" || rec.Type != "A" {
				t.Errorf("unexpected record header: %+v", rec)
			}
			if rec.Alias == nil {
				t.Fatal("expected alias target, got nil")
			}
			if rec.Alias.DNSName != tt.wantDNSName {
				t.Errorf("expected alias DNS name %q, got %q", tt.wantDNSName, rec.Alias.DNSName)
			}
			if rec.Alias.HostedZoneID != "Z32O12XQLNTSW2" || !rec.Alias.EvaluateTargetHealth {
				t.Errorf("unexpected alias target: %+v", rec.Alias)
			}
		})
	}
}

func TestBalancerRecord_NoEndpoint(t *testing.T) {
	b := &Balancer{LoadBalancer: elbv2types.LoadBalancer{LoadBalancerArn: aws.String(testALBArn)}}
	if _, err := b.Record("web.example.com", 0); err == nil {
		t.Fatal("expected error for balancer without endpoint, got nil")
	}
}

func TestIsBalancerARN(t *testing.T) {
	if !IsBalancerARN(testALBArn) {
		t.Errorf("expected %q to be a load balancer ARN", testALBArn)
	}
	tg := strings.Replace(testALBArn, ":loadbalancer/app/", ":targetgroup/", 1)
	if IsBalancerARN(tg) {
		t.Errorf("expected %q not to be a load balancer ARN", tg)
	}
}
