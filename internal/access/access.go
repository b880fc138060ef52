// Package access holds the visibility and domain rules that decide which
// records a portal user may see or act on. Every function is pure: it takes
// the requesting user and a full collection and returns the allowed subset.
package access

import (
	"strings"

	"github.com/dukemzone/kpi-portal/internal/models"
)

// Targets splits a comma-joined feedback target into its parts
func Targets(target string) []string {
	return strings.Split(target, ",")
}

func targeted(target, id string) bool {
	for _, t := range Targets(target) {
		if t == id {
			return true
		}
	}
	return false
}

// CanSeeFeedback reports whether a feedback item is visible to the user.
// Each branch is checked independently.
func CanSeeFeedback(user *models.User, f *models.Feedback) bool {
	if targeted(f.Target, user.ID) || targeted(f.Target, models.TargetAll) || targeted(f.Target, models.TargetStaffAll) {
		return true
	}
	if f.Target == models.TargetBoth && user.Role.Supervises() {
		return true
	}
	if f.Target == string(user.Role) {
		return true
	}
	if f.StaffID == user.ID {
		return true
	}
	return user.Role == models.RoleManager
}

// FeedbackFor narrows all feedback to what the user may see
func FeedbackFor(user *models.User, all []models.Feedback) []models.Feedback {
	result := make([]models.Feedback, 0)
	for i := range all {
		if CanSeeFeedback(user, &all[i]) {
			result = append(result, all[i])
		}
	}
	return result
}

// HubRequests returns top-level feedback items shown in the user's hub
func HubRequests(user *models.User, all []models.Feedback) []models.Feedback {
	result := make([]models.Feedback, 0)
	for _, f := range all {
		if f.IsReply() {
			continue
		}
		recipient := targeted(f.Target, user.ID) || targeted(f.Target, models.TargetStaffAll) || targeted(f.Target, models.TargetAll)
		if recipient || f.StaffID == user.ID || user.Role.Supervises() {
			result = append(result, f)
		}
	}
	return result
}

// CanSeeReply reports whether a reply is visible to the user
func CanSeeReply(user *models.User, reply *models.Feedback) bool {
	return user.Role.Supervises() || reply.StaffID == user.ID || targeted(reply.Target, user.ID)
}

// VisibleReplies returns the replies of a parent item the user may see
func VisibleReplies(user *models.User, parentID string, all []models.Feedback) []models.Feedback {
	result := make([]models.Feedback, 0)
	for i := range all {
		if all[i].ParentID == parentID && CanSeeReply(user, &all[i]) {
			result = append(result, all[i])
		}
	}
	return result
}

// OwnerCanSee reports whether a portal owner (manager or CSM) is the audience
// of a hub item, which is what marking the hub as viewed applies to
func OwnerCanSee(user *models.User, f *models.Feedback) bool {
	if strings.Contains(f.Target, user.ID) {
		return true
	}
	switch f.Target {
	case string(models.RoleManager), string(models.RoleCSM), models.TargetBoth:
		return true
	}
	return false
}

// CountsAsNewForOwner reports whether an item counts toward the portal owner's new-feedback badge
func CountsAsNewForOwner(role models.Role, f *models.Feedback) bool {
	if f.ViewedByPortalOwner || f.IsReply() {
		return false
	}
	return f.Target == string(role) || f.Target == models.TargetBoth || f.Target == models.TargetStaffAll
}
