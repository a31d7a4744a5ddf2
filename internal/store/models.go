package store

import "time"

type User struct {
	ID            string
	DisplayName   string
	Email         string
	OrgRole       string
	DeactivatedAt *time.Time
	CreatedAt     time.Time
}

type Project struct {
	ID          string
	Name        string
	Description string
	OwnerID     *string
	Status      string
	Priority    string
	StartDate   *time.Time
	EndDate     *time.Time
	Tags        []string
	Archived    bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type ProjectMember struct {
	ProjectID string
	UserID    string
	Role      string
	AddedBy   *string
	JoinedAt  time.Time
	// Joined for API responses
	DisplayName string
	Email       string
}

type Board struct {
	ID          string
	ProjectID   string
	Name        string
	Description string
	CreatedBy   *string
	Archived    bool
	ArchivedAt  *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Label palette entry; names are unique per board.
type Label struct {
	ID      string
	BoardID string
	Name    string
	Color   string
}

type List struct {
	ID        string
	BoardID   string
	Name      string
	Position  int
	Archived  bool
	CreatedAt time.Time
}

type Card struct {
	ID          string
	ListID      string
	Title       string
	Description string
	Position    int
	DueDate     *time.Time
	Completed   bool
	CompletedBy *string
	Archived    bool
	ArchivedBy  *string
	ArchivedAt  *time.Time
	CreatedBy   *string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type Comment struct {
	ID        string
	CardID    string
	AuthorID  *string
	Text      string
	Mentions  []string
	CreatedAt time.Time
	UpdatedAt time.Time
	// Joined for API responses
	AuthorName string
}

type Attachment struct {
	ID         string
	CardID     string
	UploaderID *string
	ObjectKey  string
	Filename   string
	CreatedAt  time.Time
}

type ChecklistItem struct {
	ID          string
	CardID      string
	Text        string
	Done        bool
	CompletedBy *string
	CreatedAt   time.Time
}

type TimeEntry struct {
	ID        string
	CardID    string
	UserID    *string
	Hours     float64
	Note      string
	CreatedAt time.Time
}

// CardDetail is the assembled read-side view of a card: the normalized row
// plus every association and embedded sub-collection.
type CardDetail struct {
	Card
	Assignees   []string
	Watchers    []string
	LabelIDs    []string
	Comments    []Comment
	Attachments []Attachment
	Checklist   []ChecklistItem
	TimeEntries []TimeEntry
}

// Chain is the ownership chain of an entity, loaded in one query for the
// permission resolver. IsMember and MemberRole describe the requesting
// principal's membership in the owning project.
type Chain struct {
	ProjectID  string
	BoardID    string
	ListID     string
	CardID     string
	OwnerID    string
	IsMember   bool
	MemberRole string
}
