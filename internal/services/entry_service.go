package services

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/dukemzone/kpi-portal/internal/access"
	"github.com/dukemzone/kpi-portal/internal/models"
)

// rejectionNotice is the content of the message sent to the submitter of a rejected entry
const rejectionNotice = "🚨 YOUR KPI SUBMISSION FOR %s WAS REJECTED. REASON: %s"

// EntryService runs the daily submission and approval pipeline
type EntryService struct {
	entries   EntryStore
	kpis      KPIStore
	users     UserLookup
	overrides access.Overrides
	logger    logrus.FieldLogger
}

// NewEntryService creates a new entry service
func NewEntryService(entries EntryStore, kpis KPIStore, users UserLookup, overrides access.Overrides, logger logrus.FieldLogger) *EntryService {
	return &EntryService{
		entries:   entries,
		kpis:      kpis,
		users:     users,
		overrides: overrides,
		logger:    logger,
	}
}

// Submit records the actor's metrics for a day; an empty date means today
func (s *EntryService) Submit(ctx context.Context, actorID string, input models.EntryInput) (*models.DailyEntry, error) {
	a, err := actor(s.users, actorID)
	if err != nil {
		return nil, err
	}

	date := strings.TrimSpace(input.Date)
	if date == "" {
		date = today(s.users)
	}
	if _, err := time.Parse(models.DateLayout, date); err != nil {
		return nil, invalid("date must be YYYY-MM-DD")
	}

	metrics := make(map[string]float64, len(input.Metrics))
	for name, value := range input.Metrics {
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, invalid("metric name is required")
		}
		if math.IsNaN(value) || math.IsInf(value, 0) || value < 0 {
			return nil, invalid("metric %q must be a non-negative number", name)
		}
		metrics[name] = value
	}
	if len(metrics) == 0 {
		return nil, invalid("at least one metric is required")
	}

	entry := models.DailyEntry{
		ID:        uuid.NewString(),
		StaffID:   a.ID,
		StaffName: a.Name,
		Date:      date,
		Metrics:   metrics,
		Status:    models.EntryStatusPending,
	}

	if err := s.entries.CreateEntry(ctx, entry); err != nil {
		return nil, fmt.Errorf("failed to save entry: %w", err)
	}

	s.logger.WithFields(logrus.Fields{"entry_id": entry.ID, "staff_id": a.ID, "date": date}).Info("Entry submitted")
	return &entry, nil
}

// EntriesForStaff returns a staff member's entries, newest date first
func (s *EntryService) EntriesForStaff(staffID string) []models.DailyEntry {
	result := make([]models.DailyEntry, 0)
	for _, e := range s.entries.ListEntries() {
		if e.StaffID == staffID {
			result = append(result, e)
		}
	}
	sort.SliceStable(result, func(i, j int) bool { return result[i].Date > result[j].Date })
	return result
}

// ForStaff returns the entries of a staff member the actor may view
func (s *EntryService) ForStaff(actorID, staffID string) ([]models.DailyEntry, error) {
	if err := s.checkViewer(actorID, staffID); err != nil {
		return nil, err
	}
	return s.EntriesForStaff(staffID), nil
}

// Pending returns the entries waiting in the actor's approval queue
func (s *EntryService) Pending(actorID string) ([]models.DailyEntry, error) {
	a, err := actor(s.users, actorID)
	if err != nil {
		return nil, err
	}
	if !a.Role.Supervises() {
		return nil, forbidden("approval queue requires a CSM or manager")
	}
	return access.PendingQueue(a, s.entries.ListEntries(), s.users.ListUsers(), s.overrides), nil
}

// Authorize approves one pending entry in the actor's domain
func (s *EntryService) Authorize(ctx context.Context, actorID, entryID string) (*models.DailyEntry, error) {
	a, err := s.checkQueued(actorID, entryID)
	if err != nil {
		return nil, err
	}

	return s.entries.UpdateEntry(ctx, entryID, func(e *models.DailyEntry) error {
		if e.Status != models.EntryStatusPending {
			return fmt.Errorf("%w: entry is already %s", ErrInvalidTransition, e.Status)
		}
		e.Status = models.EntryStatusAuthorized
		e.AuthorizedBy = a.ID
		return nil
	})
}

// ApproveAll authorizes every entry in the actor's queue
func (s *EntryService) ApproveAll(ctx context.Context, actorID string) (int, error) {
	a, err := actor(s.users, actorID)
	if err != nil {
		return 0, err
	}
	queue, err := s.Pending(actorID)
	if err != nil {
		return 0, err
	}
	if len(queue) == 0 {
		return 0, nil
	}

	ids := make(map[string]bool, len(queue))
	for _, e := range queue {
		ids[e.ID] = true
	}

	count, err := s.entries.UpdateEntries(ctx, func(e *models.DailyEntry) bool {
		if !ids[e.ID] || e.Status != models.EntryStatusPending {
			return false
		}
		e.Status = models.EntryStatusAuthorized
		e.AuthorizedBy = a.ID
		return true
	})
	if err != nil {
		return 0, err
	}

	s.logger.WithFields(logrus.Fields{"approved": count, "by": a.ID}).Info("Entries approved")
	return count, nil
}

// Reject deletes a pending entry and notifies its submitter in the same write
func (s *EntryService) Reject(ctx context.Context, actorID, entryID, reason string) (*models.Message, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, invalid("a rejection reason is required")
	}

	a, err := s.checkQueued(actorID, entryID)
	if err != nil {
		return nil, err
	}

	now := s.users.Now()
	notice, err := s.entries.RejectEntry(ctx, entryID, func(e models.DailyEntry) (models.Message, error) {
		if e.Status != models.EntryStatusPending {
			return models.Message{}, fmt.Errorf("%w: entry is already %s", ErrInvalidTransition, e.Status)
		}
		return models.Message{
			ID:           uuid.NewString(),
			FromID:       models.SystemSender,
			FromName:     a.Name,
			ToID:         e.StaffID,
			Content:      fmt.Sprintf(rejectionNotice, e.Date, reason),
			Type:         models.MessageTypePriority,
			Timestamp:    now,
			ReadBy:       []string{},
			ReadReceipts: []models.ReadReceipt{},
		}, nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{"entry_id": entryID, "by": a.ID}).Info("Entry rejected")
	return notice, nil
}

// IsKPISubmittedToday reports whether an entry dated today carries a value for kpiName
func (s *EntryService) IsKPISubmittedToday(actorID, kpiName string) bool {
	date := today(s.users)
	for _, e := range s.entries.ListEntries() {
		if e.StaffID != actorID || e.Date != date {
			continue
		}
		if _, ok := e.Metrics[kpiName]; ok {
			return true
		}
	}
	return false
}

// HasSubmittedToday reports whether the actor has any entry dated today
func (s *EntryService) HasSubmittedToday(actorID string) bool {
	date := today(s.users)
	for _, e := range s.entries.ListEntries() {
		if e.StaffID == actorID && e.Date == date {
			return true
		}
	}
	return false
}

// Totals returns the net value of each of the staff member's KPIs over authorized
// entries dated within [from, to]. Empty bounds are open.
func (s *EntryService) Totals(actorID, staffID, from, to string) (map[string]float64, error) {
	if err := s.checkViewer(actorID, staffID); err != nil {
		return nil, err
	}
	entries := make([]models.DailyEntry, 0)
	for _, e := range s.EntriesForStaff(staffID) {
		if e.Status != models.EntryStatusAuthorized {
			continue
		}
		if (from != "" && e.Date < from) || (to != "" && e.Date > to) {
			continue
		}
		entries = append(entries, e)
	}

	totals := make(map[string]float64)
	for _, k := range s.kpis.ListKPIs() {
		if k.AssignedToID == staffID && k.VisibleToAssignee() && !k.IsOutflow {
			totals[k.Name] = NetValue(entries, k.Name)
		}
	}
	return totals, nil
}

// NetValue sums a metric over entries and subtracts its outflow counter-metric
func NetValue(entries []models.DailyEntry, name string) float64 {
	out := models.OutflowName(name)
	var net float64
	for _, e := range entries {
		net += e.Metrics[name] - e.Metrics[out]
	}
	return net
}

// AuthorizedEntries filters entries down to authorized ones
func AuthorizedEntries(entries []models.DailyEntry) []models.DailyEntry {
	result := make([]models.DailyEntry, 0, len(entries))
	for _, e := range entries {
		if e.Status == models.EntryStatusAuthorized {
			result = append(result, e)
		}
	}
	return result
}

// checkViewer allows the staff member, their supervisor or a domain approver
func (s *EntryService) checkViewer(actorID, staffID string) error {
	if actorID == staffID {
		return nil
	}
	a, err := actor(s.users, actorID)
	if err != nil {
		return err
	}
	staff, err := s.users.GetUser(staffID)
	if err != nil {
		return err
	}
	if access.Supervises(a, staff) || access.InDomain(a, staff, s.overrides) {
		return nil
	}
	return forbidden("%s is outside your team", staff.Name)
}

// checkQueued resolves the actor and verifies the entry is in their approval queue
func (s *EntryService) checkQueued(actorID, entryID string) (*models.User, error) {
	a, err := actor(s.users, actorID)
	if err != nil {
		return nil, err
	}
	if !a.Role.Supervises() {
		return nil, forbidden("approval requires a CSM or manager")
	}
	entry, err := s.entries.GetEntry(entryID)
	if err != nil {
		return nil, err
	}
	if a.Role == models.RoleManager {
		return a, nil
	}
	staff, err := s.users.GetUser(entry.StaffID)
	if err != nil || !access.InDomain(a, staff, s.overrides) {
		return nil, forbidden("entry %s is outside your domain", entryID)
	}
	return a, nil
}
