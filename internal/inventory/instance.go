package inventory

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ec2"
	ec2types "github.com/aws/aws-sdk-go-v2/service/ec2/types"
	"github.com/aws/smithy-go"

	"github.com/yuriy-kovalchuk/yk-dns-tagger/internal/dns"
)

const instanceNotFoundCode = "InvalidInstanceID.NotFound"

// IsInstanceID reports whether id names an EC2 instance (as opposed to a
// volume, network interface, or other taggable EC2 resource).
func IsInstanceID(id string) bool {
	return strings.HasPrefix(id, "i-")
}

// Instance is an EC2 instance as returned by DescribeInstances.
type Instance struct {
	ec2types.Instance
}

func (i *Instance) Kind() Kind { return KindInstance }

func (i *Instance) ID() string { return aws.ToString(i.InstanceId) }

// Record points alias at the instance's private address.
func (i *Instance) Record(alias string, ttl int64) (dns.Record, error) {
	addr := aws.ToString(i.PrivateIpAddress)
	if addr == "" {
		return dns.Record{}, fmt.Errorf("instance %s has no private address", i.ID())
	}
	return dns.Record{
		Name:  alias,
		Type:  "A",
		Value: addr,
		TTL:   ttl,
	}, nil
}

// EC2API is the subset of the EC2 client the instance loader needs.
type EC2API interface {
	DescribeInstances(ctx context.Context, in *ec2.DescribeInstancesInput, optFns ...func(*ec2.Options)) (*ec2.DescribeInstancesOutput, error)
}

// InstanceLoader loads EC2 instances by id.
type InstanceLoader struct {
	client EC2API
}

func NewInstanceLoader(client EC2API) *InstanceLoader {
	return &InstanceLoader{client: client}
}

// Load describes a single instance. The first instance of the first
// reservation is used.
func (l *InstanceLoader) Load(ctx context.Context, id string) (Resource, error) {
	out, err := l.client.DescribeInstances(ctx, &ec2.DescribeInstancesInput{
		InstanceIds: []string{id},
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) && apiErr.ErrorCode() == instanceNotFoundCode {
			return nil, fmt.Errorf("instance %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("describing instance %s: %w", id, err)
	}
	for _, reservation := range out.Reservations {
		if len(reservation.Instances) > 0 {
			return &Instance{Instance: reservation.Instances[0]}, nil
		}
	}
	return nil, fmt.Errorf("instance %s: %w", id, ErrNotFound)
}
