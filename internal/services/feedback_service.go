package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/dukemzone/kpi-portal/internal/access"
	"github.com/dukemzone/kpi-portal/internal/models"
)

// FeedbackCounts are the badge numbers shown for feedback
type FeedbackCounts struct {
	NewForOwner     int `json:"newForOwner"`
	UnviewedReplies int `json:"unviewedReplies"`
}

// FeedbackService manages suggestions, hub requests and their replies
type FeedbackService struct {
	feedback FeedbackStore
	users    UserLookup
	logger   logrus.FieldLogger
}

// NewFeedbackService creates a new feedback service
func NewFeedbackService(feedback FeedbackStore, users UserLookup, logger logrus.FieldLogger) *FeedbackService {
	return &FeedbackService{
		feedback: feedback,
		users:    users,
		logger:   logger,
	}
}

// Add posts feedback, or a reply when ParentID is set
func (s *FeedbackService) Add(ctx context.Context, actorID string, input models.FeedbackInput) (*models.Feedback, error) {
	a, err := actor(s.users, actorID)
	if err != nil {
		return nil, err
	}

	message := strings.TrimSpace(input.Message)
	if message == "" {
		return nil, invalid("message is required")
	}
	target := strings.TrimSpace(input.Target)
	if target == "" {
		return nil, invalid("target is required")
	}

	if input.ParentID != "" {
		parent, err := s.feedback.GetFeedback(input.ParentID)
		if err != nil {
			return nil, err
		}
		if parent.IsReply() {
			return nil, invalid("replies cannot be nested")
		}
		if !access.CanSeeFeedback(a, parent) && !access.CanSeeReply(a, parent) {
			return nil, forbidden("cannot reply to this item")
		}
	}

	f := models.Feedback{
		ID:        uuid.NewString(),
		StaffID:   a.ID,
		StaffName: a.Name,
		Message:   message,
		Timestamp: s.users.Now(),
		Status:    models.FeedbackStatusNew,
		Target:    target,
		ParentID:  input.ParentID,
		Reactions: map[string][]string{},
	}

	if err := s.feedback.CreateFeedback(ctx, f); err != nil {
		return nil, fmt.Errorf("failed to save feedback: %w", err)
	}

	s.logger.WithFields(logrus.Fields{"feedback_id": f.ID, "target": target}).Debug("Feedback posted")
	return &f, nil
}

// Update edits a feedback item. The author may edit the message and target;
// a CSM or manager may reply, which marks the item reviewed and unread for the author.
func (s *FeedbackService) Update(ctx context.Context, actorID, id string, update models.FeedbackUpdate) (*models.Feedback, error) {
	a, err := actor(s.users, actorID)
	if err != nil {
		return nil, err
	}

	return s.feedback.UpdateFeedback(ctx, id, func(f *models.Feedback) error {
		if (update.Message != nil || update.Target != nil) && f.StaffID != a.ID && a.Role != models.RoleManager {
			return forbidden("only the author can edit this item")
		}
		if (update.Reply != nil || update.Status != nil) && !a.Role.Supervises() {
			return forbidden("only a CSM or manager can answer feedback")
		}

		if update.Message != nil {
			m := strings.TrimSpace(*update.Message)
			if m == "" {
				return invalid("message is required")
			}
			f.Message = m
		}
		if update.Target != nil {
			t := strings.TrimSpace(*update.Target)
			if t == "" {
				return invalid("target is required")
			}
			f.Target = t
		}
		if update.Reply != nil {
			f.Reply = *update.Reply
			f.Status = models.FeedbackStatusReviewed
			f.ViewedByStaff = false
		}
		if update.Status != nil {
			switch *update.Status {
			case models.FeedbackStatusNew, models.FeedbackStatusReviewed:
				f.Status = *update.Status
			default:
				return invalid("unknown status %q", *update.Status)
			}
		}
		return nil
	})
}

// Delete removes an item and its replies; returns how many items were removed
func (s *FeedbackService) Delete(ctx context.Context, actorID, id string) (int, error) {
	a, err := actor(s.users, actorID)
	if err != nil {
		return 0, err
	}
	f, err := s.feedback.GetFeedback(id)
	if err != nil {
		return 0, err
	}
	if f.StaffID != a.ID && a.Role != models.RoleManager {
		return 0, forbidden("only the author or a manager can delete this item")
	}

	return s.feedback.DeleteFeedback(ctx, id)
}

// ForUser returns every feedback item visible to the actor
func (s *FeedbackService) ForUser(actorID string) ([]models.Feedback, error) {
	a, err := actor(s.users, actorID)
	if err != nil {
		return nil, err
	}
	return access.FeedbackFor(a, s.feedback.ListFeedback()), nil
}

// HubRequests returns the top-level items in the actor's hub
func (s *FeedbackService) HubRequests(actorID string) ([]models.Feedback, error) {
	a, err := actor(s.users, actorID)
	if err != nil {
		return nil, err
	}
	return access.HubRequests(a, s.feedback.ListFeedback()), nil
}

// Replies returns the replies of a parent item visible to the actor
func (s *FeedbackService) Replies(actorID, parentID string) ([]models.Feedback, error) {
	a, err := actor(s.users, actorID)
	if err != nil {
		return nil, err
	}
	return access.VisibleReplies(a, parentID, s.feedback.ListFeedback()), nil
}

// MarkHubViewed marks every item addressed to the actor as seen by the portal owner
func (s *FeedbackService) MarkHubViewed(ctx context.Context, actorID string) (int, error) {
	a, err := actor(s.users, actorID)
	if err != nil {
		return 0, err
	}

	return s.feedback.UpdateFeedbackWhere(ctx, func(f *models.Feedback) bool {
		if f.ViewedByPortalOwner || !access.OwnerCanSee(a, f) {
			return false
		}
		f.ViewedByPortalOwner = true
		return true
	})
}

// MarkViewed marks the answer of an item as read by its author
func (s *FeedbackService) MarkViewed(ctx context.Context, actorID, id string) (*models.Feedback, error) {
	return s.feedback.UpdateFeedback(ctx, id, func(f *models.Feedback) error {
		if f.StaffID != actorID {
			return forbidden("only the author can mark a reply as viewed")
		}
		f.ViewedByStaff = true
		return nil
	})
}

// ToggleReaction adds the actor to the emoji's reactors, or removes them if already present
func (s *FeedbackService) ToggleReaction(ctx context.Context, actorID, id, emoji string) (*models.Feedback, error) {
	a, err := actor(s.users, actorID)
	if err != nil {
		return nil, err
	}
	emoji = strings.TrimSpace(emoji)
	if emoji == "" {
		return nil, invalid("emoji is required")
	}

	return s.feedback.UpdateFeedback(ctx, id, func(f *models.Feedback) error {
		if !access.CanSeeFeedback(a, f) && !access.CanSeeReply(a, f) {
			return forbidden("cannot react to this item")
		}
		if f.Reactions == nil {
			f.Reactions = map[string][]string{}
		}

		reactors := f.Reactions[emoji]
		for i, reactor := range reactors {
			if reactor == a.ID {
				f.Reactions[emoji] = append(reactors[:i:i], reactors[i+1:]...)
				return nil
			}
		}
		f.Reactions[emoji] = append(reactors, a.ID)
		return nil
	})
}

// NewCountForOwner counts unseen top-level items addressed to the role
func (s *FeedbackService) NewCountForOwner(role models.Role) int {
	count := 0
	for _, f := range s.feedback.ListFeedback() {
		if access.CountsAsNewForOwner(role, &f) {
			count++
		}
	}
	return count
}

// UnviewedRepliesCount counts answered items of the author they have not read yet
func (s *FeedbackService) UnviewedRepliesCount(staffID string) int {
	count := 0
	for _, f := range s.feedback.ListFeedback() {
		if f.StaffID == staffID && f.Status == models.FeedbackStatusReviewed && !f.ViewedByStaff {
			count++
		}
	}
	return count
}

// Counts returns both badge counts for the actor
func (s *FeedbackService) Counts(actorID string) (*FeedbackCounts, error) {
	a, err := actor(s.users, actorID)
	if err != nil {
		return nil, err
	}

	counts := &FeedbackCounts{UnviewedReplies: s.UnviewedRepliesCount(a.ID)}
	if a.Role.Supervises() {
		counts.NewForOwner = s.NewCountForOwner(a.Role)
	}
	return counts, nil
}
