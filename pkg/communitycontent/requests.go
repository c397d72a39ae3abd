package communitycontent

// Request/Response DTOs

// SubmissionPath selects the initial approval state of a submission.
type SubmissionPath string

const (
	// SubmissionTrusted is the self-service path; items are visible at once.
	SubmissionTrusted SubmissionPath = "trusted"
	// SubmissionReview queues items for operator review.
	SubmissionReview SubmissionPath = "review"
)

// IsValid reports whether p is a known submission path.
func (p SubmissionPath) IsValid() bool {
	return p == SubmissionTrusted || p == SubmissionReview
}

// SubmitRequest contains parameters for submitting a new item.
// The author is taken from the submitting Principal, never from the request.
type SubmitRequest struct {
	Kind     Kind                   `json:"kind"`
	Title    string                 `json:"title"`
	Links    []string               `json:"links"`
	Note     *NoteFields            `json:"note,omitempty"`
	Project  *ProjectFields         `json:"project,omitempty"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

// ListRequest contains parameters for listing visible items.
type ListRequest struct {
	Kind   *Kind
	Limit  *int
	Offset *int
}
