// Package event decodes the CloudTrail API-call records that EventBridge
// delivers for EC2 and Elastic Load Balancing.
package event

import (
	"encoding/json"
	"fmt"

	"github.com/aws/aws-lambda-go/events"
)

// Event sources.
const (
	SourceEC2 = "aws.ec2"
	SourceELB = "aws.elasticloadbalancing"
)

// Event names.
const (
	RunInstances       = "RunInstances"
	TerminateInstances = "TerminateInstances"
	CreateTags         = "CreateTags"
	DeleteTags         = "DeleteTags"
	CreateLoadBalancer = "CreateLoadBalancer"
	DeleteLoadBalancer = "DeleteLoadBalancer"
	AddTags            = "AddTags"
	RemoveTags         = "RemoveTags"
)

// Detail is the CloudTrail record carried in an EventBridge event.
type Detail struct {
	EventSource       string          `json:"eventSource"`
	EventName         string          `json:"eventName"`
	AWSRegion         string          `json:"awsRegion"`
	ErrorCode         string          `json:"errorCode,omitempty"`
	ErrorMessage      string          `json:"errorMessage,omitempty"`
	RequestParameters json.RawMessage `json:"requestParameters"`
	ResponseElements  json.RawMessage `json:"responseElements"`
}

// Failed reports whether the recorded API call was rejected.
func (d *Detail) Failed() bool {
	return d.ErrorCode != ""
}

// ParseDetail decodes the CloudTrail detail of ev.
func ParseDetail(ev events.CloudWatchEvent) (*Detail, error) {
	var d Detail
	if len(ev.Detail) == 0 {
		return &d, nil
	}
	if err := json.Unmarshal(ev.Detail, &d); err != nil {
		return nil, fmt.Errorf("decoding detail of event %s: %w", ev.ID, err)
	}
	return &d, nil
}

// DecodeRequest unmarshals the request parameters into v. A null or missing
// payload leaves v untouched.
func (d *Detail) DecodeRequest(v any) error {
	return decode(d.RequestParameters, v, "requestParameters", d.EventName)
}

// DecodeResponse unmarshals the response elements into v. A null or missing
// payload leaves v untouched.
func (d *Detail) DecodeResponse(v any) error {
	return decode(d.ResponseElements, v, "responseElements", d.EventName)
}

func decode(raw json.RawMessage, v any, field, name string) error {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decoding %s of %s: %w", field, name, err)
	}
	return nil
}

// Tag is a key/value pair as CloudTrail records it.
type Tag struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// FindTag returns the value of the tag with the given key.
func FindTag(tags []Tag, key string) (string, bool) {
	for _, t := range tags {
		if t.Key == key {
			return t.Value, true
		}
	}
	return "", false
}
