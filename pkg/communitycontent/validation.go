package communitycontent

import (
	"fmt"
	"net/mail"
	"strings"
)

// ValidateSubmission checks the required fields of a submission before it
// reaches the store.
func ValidateSubmission(req SubmitRequest) error {
	kind := NormalizeKind(string(req.Kind))
	if !kind.IsValid() {
		return &ValidationError{Field: "kind", Message: fmt.Sprintf("unknown kind %q", req.Kind)}
	}
	if strings.TrimSpace(req.Title) == "" {
		return &ValidationError{Field: "title", Message: "is required"}
	}
	if len(cleanList(req.Links)) == 0 {
		return &ValidationError{Field: "links", Message: "at least one link is required"}
	}

	switch kind {
	case KindNote:
		if req.Note == nil || strings.TrimSpace(req.Note.Subject) == "" {
			return &ValidationError{Field: "note.subject", Message: "is required"}
		}
		if req.Project != nil {
			return &ValidationError{Field: "project", Message: "not allowed on a note"}
		}
	case KindProject:
		if req.Project == nil || len(cleanList(req.Project.TechStack)) == 0 {
			return &ValidationError{Field: "project.tech_stack", Message: "at least one entry is required"}
		}
		if req.Note != nil {
			return &ValidationError{Field: "note", Message: "not allowed on a project"}
		}
	}
	return nil
}

// ValidateAuthor checks that an author email is usable as an identity key.
func ValidateAuthor(email string) error {
	if email == "" {
		return &ValidationError{Field: "author_email", Message: "is required"}
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return &ValidationError{Field: "author_email", Message: "is not a valid address"}
	}
	return nil
}

// CheckApprovalTransition reports whether moving an item from its current
// approval flag to target requires a write. Approved items can not go back to
// pending.
func CheckApprovalTransition(current, target bool) (bool, error) {
	switch {
	case current == target:
		return false, nil
	case !current && target:
		return true, nil
	default:
		return false, fmt.Errorf("%w: approved items can only be deleted, not returned to pending", ErrInvalidTransition)
	}
}

func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
