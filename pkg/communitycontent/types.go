package communitycontent

import (
	"time"

	"github.com/google/uuid"
)

// Kind identifies the content variant of an item.
type Kind string

// Kind constants (typed).
const (
	KindNote    Kind = "note"
	KindProject Kind = "project"
)

// Kinds lists every supported kind in a stable order.
var Kinds = []Kind{KindNote, KindProject}

// IsValid reports whether k is a known kind.
func (k Kind) IsValid() bool {
	switch k {
	case KindNote, KindProject:
		return true
	}
	return false
}

// ApprovalState is the moderation state derived from Item.IsApproved.
type ApprovalState string

// Approval state constants (typed).
const (
	StatePending  ApprovalState = "pending"
	StateApproved ApprovalState = "approved"
)

// Role classifies a Principal.
type Role int

const (
	RoleAnonymous Role = iota
	RoleUser
	RoleOperator
)

func (r Role) String() string {
	switch r {
	case RoleUser:
		return "user"
	case RoleOperator:
		return "operator"
	default:
		return "anonymous"
	}
}

// Principal is the resolved caller of an operation.
type Principal struct {
	Email string `json:"email,omitempty"`
	Role  Role   `json:"role"`
}

// Anonymous returns the principal used when no valid credential is present.
func Anonymous() Principal {
	return Principal{Role: RoleAnonymous}
}

// NewUser returns an authenticated, non-operator principal.
func NewUser(email string) Principal {
	return Principal{Email: NormalizeEmail(email), Role: RoleUser}
}

// NewOperator returns an operator principal.
func NewOperator(email string) Principal {
	return Principal{Email: NormalizeEmail(email), Role: RoleOperator}
}

// IsAuthenticated reports whether the principal carries an identity.
func (p Principal) IsAuthenticated() bool {
	return p.Role != RoleAnonymous && p.Email != ""
}

// IsOperator reports whether the principal may moderate content.
func (p Principal) IsOperator() bool {
	return p.Role == RoleOperator && p.Email != ""
}

// NoteFields holds the note-specific classification.
type NoteFields struct {
	Subject string `json:"subject"`
	Unit    string `json:"unit,omitempty"`
}

// ProjectFields holds the project-specific classification.
type ProjectFields struct {
	TechStack   []string `json:"tech_stack"`
	Description string   `json:"description,omitempty"`
}

// Item is a unit of community-submitted content.
//
// Exactly one of Note or Project is set, matching Kind. AuthorEmail and
// CreatedAt are set on submission and never change afterwards.
type Item struct {
	ID          uuid.UUID              `json:"id"`
	Kind        Kind                   `json:"kind"`
	Title       string                 `json:"title"`
	Links       []string               `json:"links"`
	AuthorEmail string                 `json:"author_email"`
	IsApproved  bool                   `json:"is_approved"`
	Note        *NoteFields            `json:"note,omitempty"`
	Project     *ProjectFields         `json:"project,omitempty"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt   time.Time              `json:"created_at"`
	UpdatedAt   time.Time              `json:"updated_at"`
}

// State returns the moderation state of the item.
func (i *Item) State() ApprovalState {
	if i.IsApproved {
		return StateApproved
	}
	return StatePending
}

// Clone returns a deep copy of the item.
func (i *Item) Clone() *Item {
	c := *i
	c.Links = append([]string(nil), i.Links...)
	if i.Note != nil {
		n := *i.Note
		c.Note = &n
	}
	if i.Project != nil {
		p := *i.Project
		p.TechStack = append([]string(nil), i.Project.TechStack...)
		c.Project = &p
	}
	if i.Metadata != nil {
		c.Metadata = make(map[string]interface{}, len(i.Metadata))
		for k, v := range i.Metadata {
			c.Metadata[k] = v
		}
	}
	return &c
}

// ItemFilter narrows ListItems. Nil fields do not filter.
type ItemFilter struct {
	Approved    *bool
	Kind        *Kind
	AuthorEmail string
	Limit       *int
	Offset      *int
}

// GroupKey is a field items can be grouped by in GroupItems.
type GroupKey string

const (
	GroupByKind   GroupKey = "kind"
	GroupByAuthor GroupKey = "author_email"
)

// ItemGroup is one bucket of a GroupItems result. Fields for keys that were
// not grouped on are left at their zero value.
type ItemGroup struct {
	Kind        Kind
	AuthorEmail string
	Total       int64
	Pending     int64
}

// RosterEntry is the read projection of an externally managed identity.
type RosterEntry struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"display_name"`
	CreatedAt   time.Time `json:"created_at"`
}

// OperatorCredential is the stored credential of an operator.
type OperatorCredential struct {
	Email        string
	PasswordHash string
	UpdatedAt    time.Time
}
