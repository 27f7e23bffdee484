package models

import "time"

// Complaint represents a complaint stored in the 'complaints' table.
type Complaint struct {
	ID        int64     `db:"id" json:"id"`
	Text      string    `db:"text" json:"text"`
	Status    Status    `db:"status" json:"status"`
	Sentiment Sentiment `db:"sentiment" json:"sentiment"`
	Category  Category  `db:"category" json:"category"`
	Stage     Stage     `db:"stage" json:"stage"`
	Timestamp time.Time `db:"created_at" json:"timestamp"`
}

// IsDraft reports whether the category patch has not been applied yet.
// A draft always reads category=other.
func (c *Complaint) IsDraft() bool {
	return c.Stage == StageDraft
}

// ComplaintDraft is what the orchestrator hands to the store on the initial insert.
// The store assigns id and timestamp; category and stage are fixed by NewDraft.
type ComplaintDraft struct {
	Text      string
	Sentiment Sentiment
	status    Status
	category  Category
}

// NewDraft builds the insert-time values: open, uncategorized.
func NewDraft(text string, sentiment Sentiment) *ComplaintDraft {
	return &ComplaintDraft{
		Text:      text,
		Sentiment: sentiment,
		status:    StatusOpen,
		category:  CategoryOther,
	}
}

// Status returns the insert-time status.
func (d *ComplaintDraft) Status() Status { return d.status }

// Category returns the insert-time category.
func (d *ComplaintDraft) Category() Category { return d.category }

// ComplaintFilter narrows List. Zero values mean "no constraint".
type ComplaintFilter struct {
	Status *Status
	Since  *time.Time // inclusive
}

// CreateComplaintInput is the body of POST /complaints
type CreateComplaintInput struct {
	Text string `json:"text" binding:"required"`
}

// UpdateStatusInput is the body of PATCH /complaints/:id/status
type UpdateStatusInput struct {
	Status Status `json:"status" binding:"required,oneof=open closed"`
}
