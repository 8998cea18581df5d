package event

import "slices"

// CreateLoadBalancerRequest holds the parts of CreateLoadBalancer parameters we read.
type CreateLoadBalancerRequest struct {
	Name string `json:"name"`
	Tags []Tag  `json:"tags"`
}

type loadBalancerItem struct {
	LoadBalancerArn string `json:"loadBalancerArn"`
}

// CreateLoadBalancerResponse holds the created balancers.
type CreateLoadBalancerResponse struct {
	LoadBalancers []loadBalancerItem `json:"loadBalancers"`
}

// ARNs lists the created balancer ARNs.
func (r *CreateLoadBalancerResponse) ARNs() []string {
	arns := make([]string, 0, len(r.LoadBalancers))
	for _, lb := range r.LoadBalancers {
		if lb.LoadBalancerArn != "" {
			arns = append(arns, lb.LoadBalancerArn)
		}
	}
	return arns
}

// DeleteLoadBalancerRequest holds the parameters of DeleteLoadBalancer.
type DeleteLoadBalancerRequest struct {
	LoadBalancerArn string `json:"loadBalancerArn"`
}

// AddTagsRequest holds the parameters of AddTags.
type AddTagsRequest struct {
	ResourceArns []string `json:"resourceArns"`
	Tags         []Tag    `json:"tags"`
}

// RemoveTagsRequest holds the parameters of RemoveTags.
type RemoveTagsRequest struct {
	ResourceArns []string `json:"resourceArns"`
	TagKeys      []string `json:"tagKeys"`
}

// HasKey reports whether key is among the removed tag keys.
func (r *RemoveTagsRequest) HasKey(key string) bool {
	return slices.Contains(r.TagKeys, key)
}
