package event

// itemSet is the {"items": [...]} wrapper EC2 uses for lists.
type itemSet[T any] struct {
	Items []T `json:"items"`
}

type instanceItem struct {
	InstanceID string `json:"instanceId"`
}

type resourceItem struct {
	ResourceID string `json:"resourceId"`
}

// TagSpecification is one entry of RunInstances' tagSpecificationSet.
type TagSpecification struct {
	ResourceType string `json:"resourceType"`
	Tags         []Tag  `json:"tags"`
}

// RunInstancesRequest holds the parts of RunInstances parameters we read.
type RunInstancesRequest struct {
	TagSpecificationSet itemSet[TagSpecification] `json:"tagSpecificationSet"`
}

// InstanceTag looks key up among the tags applied to the launched instances.
func (r *RunInstancesRequest) InstanceTag(key string) (string, bool) {
	for _, spec := range r.TagSpecificationSet.Items {
		if spec.ResourceType != "" && spec.ResourceType != "instance" {
			continue
		}
		if v, ok := FindTag(spec.Tags, key); ok {
			return v, true
		}
	}
	return "", false
}

// InstancesResponse is the response of RunInstances and the request of
// TerminateInstances; both carry an instancesSet.
type InstancesResponse struct {
	InstancesSet itemSet[instanceItem] `json:"instancesSet"`
}

// InstanceIDs lists the instance ids in order, skipping blanks.
func (r *InstancesResponse) InstanceIDs() []string {
	ids := make([]string, 0, len(r.InstancesSet.Items))
	for _, it := range r.InstancesSet.Items {
		if it.InstanceID != "" {
			ids = append(ids, it.InstanceID)
		}
	}
	return ids
}

// TagsRequest holds the parameters of CreateTags and DeleteTags.
type TagsRequest struct {
	ResourcesSet itemSet[resourceItem] `json:"resourcesSet"`
	TagSet       itemSet[Tag]          `json:"tagSet"`
}

// ResourceIDs lists the tagged resource ids.
func (r *TagsRequest) ResourceIDs() []string {
	ids := make([]string, 0, len(r.ResourcesSet.Items))
	for _, it := range r.ResourcesSet.Items {
		if it.ResourceID != "" {
			ids = append(ids, it.ResourceID)
		}
	}
	return ids
}

// Tag looks key up in the tag set. DeleteTags may omit values, in which case
// the value is empty but ok is still true.
func (r *TagsRequest) Tag(key string) (string, bool) {
	return FindTag(r.TagSet.Items, key)
}
