package models

import "time"

// FeedbackStatus tracks whether a hub request has been answered
type FeedbackStatus string

const (
	FeedbackStatusNew      FeedbackStatus = "new"
	FeedbackStatusReviewed FeedbackStatus = "reviewed"
)

// Feedback targets that are not user ids
const (
	TargetAll      = "ALL"
	TargetStaffAll = "STAFF_ALL"
	TargetBoth     = "BOTH"
	TargetPrivate  = "PRIVATE"
)

// Feedback is a suggestion, hub request or a one-level reply to one (ParentID set)
type Feedback struct {
	ID                  string              `json:"id"`
	StaffID             string              `json:"staffId"`
	StaffName           string              `json:"staffName"`
	Message             string              `json:"message"`
	Timestamp           time.Time           `json:"timestamp"`
	Status              FeedbackStatus      `json:"status"`
	Target              string              `json:"target"`
	Reply               string              `json:"reply,omitempty"`
	ViewedByStaff       bool                `json:"viewedByStaff"`
	ViewedByPortalOwner bool                `json:"viewedByPortalOwner"`
	ParentID            string              `json:"parentId,omitempty"`
	Reactions           map[string][]string `json:"reactions"`
}

// IsReply reports whether the item belongs to a thread
func (f *Feedback) IsReply() bool {
	return f.ParentID != ""
}

// Clone returns a copy with its own reactions
func (f Feedback) Clone() Feedback {
	if f.Reactions != nil {
		r := make(map[string][]string, len(f.Reactions))
		for emoji, ids := range f.Reactions {
			if ids == nil {
				r[emoji] = nil
				continue
			}
			r[emoji] = append([]string{}, ids...)
		}
		f.Reactions = r
	}
	return f
}

// FeedbackInput is the payload for posting feedback or a reply
type FeedbackInput struct {
	Message  string `json:"message" binding:"required"`
	Target   string `json:"target" binding:"required"`
	ParentID string `json:"parentId"`
}

// FeedbackUpdate carries editable feedback fields; nil fields are left unchanged
type FeedbackUpdate struct {
	Message *string         `json:"message"`
	Target  *string         `json:"target"`
	Reply   *string         `json:"reply"`
	Status  *FeedbackStatus `json:"status"`
}

// ReactionInput names the emoji to toggle
type ReactionInput struct {
	Emoji string `json:"emoji" binding:"required"`
}
