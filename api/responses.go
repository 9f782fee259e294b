package api

// DecisionResponse is the response for an authorization decision.
type DecisionResponse struct {
	Allowed    bool   `json:"allowed" description:"Whether the request is allowed"`
	Code       string `json:"code" description:"Decision code"`
	Reason     string `json:"reason,omitempty" description:"Human-readable reason"`
	HeldRole   string `json:"held_role,omitempty" description:"Role the subject actually holds"`
	ResourceID string `json:"resource_id,omitempty" description:"Resolved target resource"`
	EvalTimeNs int64  `json:"eval_time_ns" description:"Evaluation time in nanoseconds"`
}

// BatchAuthorizeResponse contains decisions for multiple checks.
type BatchAuthorizeResponse struct {
	Results []DecisionResponse `json:"results" description:"Decisions in request order"`
}

// PurgeResponse reports how many entries a purge removed.
type PurgeResponse struct {
	Purged int64 `json:"purged" description:"Number of entries removed"`
}

// ListResponse wraps a list of items with pagination metadata.
type ListResponse[T any] struct {
	Items  []T   `json:"items" description:"List of items"`
	Total  int64 `json:"total" description:"Total count"`
	Limit  int   `json:"limit" description:"Page size"`
	Offset int   `json:"offset" description:"Page offset"`
}
