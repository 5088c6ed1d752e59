package models

// Role identifies who authored a turn
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ApologyMessage is the assistant content appended when a question could not be answered
const ApologyMessage = "Sorry, I encountered an error. Please try again."

// Citation points at the source material backing an answer. Every field is
// optional because backends populate them inconsistently.
type Citation struct {
	Excerpt    *string `json:"excerpt,omitempty"`
	SourceID   *string `json:"source_id,omitempty"`
	PageNumber *int    `json:"page_number,omitempty"`
}

// Turn is a single entry in a transcript. Citations encode as [] on an
// answered turn and null on user and apology turns.
type Turn struct {
	Role      Role       `json:"role"`
	Content   *string    `json:"content,omitempty"`
	Citations []Citation `json:"citations"`
}

// Answer is a normalized backend response
type Answer struct {
	Content   *string
	Citations []Citation
}

// Snapshot is a read-only copy of a session's state
type Snapshot struct {
	Transcript   []Turn `json:"transcript"`
	PendingInput string `json:"pending_input"`
	Busy         bool   `json:"busy"`
}

func NewUserTurn(content string) Turn {
	return Turn{
		Role:    RoleUser,
		Content: String(content),
	}
}

// NewAssistantTurn folds an answer into a turn. Citations are never nil so
// consumers can tell "no sources" apart from a failed request.
func NewAssistantTurn(answer *Answer) Turn {
	citations := make([]Citation, 0, len(answer.Citations))
	for _, citation := range answer.Citations {
		citations = append(citations, citation.Clone())
	}

	return Turn{
		Role:      RoleAssistant,
		Content:   clonePtr(answer.Content),
		Citations: citations,
	}
}

func NewApologyTurn() Turn {
	return Turn{
		Role:    RoleAssistant,
		Content: String(ApologyMessage),
	}
}

// Clone returns a copy that shares no memory with t
func (t Turn) Clone() Turn {
	clone := Turn{
		Role:    t.Role,
		Content: clonePtr(t.Content),
	}
	if t.Citations != nil {
		clone.Citations = make([]Citation, len(t.Citations))
		for i, citation := range t.Citations {
			clone.Citations[i] = citation.Clone()
		}
	}
	return clone
}

func (c Citation) Clone() Citation {
	return Citation{
		Excerpt:    clonePtr(c.Excerpt),
		SourceID:   clonePtr(c.SourceID),
		PageNumber: clonePtr(c.PageNumber),
	}
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// Text returns the turn content or an empty string when absent
func (t Turn) Text() string {
	if t.Content == nil {
		return ""
	}
	return *t.Content
}

// String returns a pointer to s
func String(s string) *string {
	return &s
}

// Int returns a pointer to i
func Int(i int) *int {
	return &i
}
