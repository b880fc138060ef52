package services

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/dukemzone/kpi-portal/internal/access"
	"github.com/dukemzone/kpi-portal/internal/models"
)

// KPIService manages KPI assignment, signature and approval
type KPIService struct {
	kpis   KPIStore
	users  UserLookup
	logger logrus.FieldLogger
}

// NewKPIService creates a new KPI service
func NewKPIService(kpis KPIStore, users UserLookup, logger logrus.FieldLogger) *KPIService {
	return &KPIService{
		kpis:   kpis,
		users:  users,
		logger: logger,
	}
}

// Templates returns the standard branch KPIs
func (s *KPIService) Templates() []models.KPITemplate {
	return append([]models.KPITemplate{}, models.StandardKPITemplates...)
}

// KPIsForUser returns the KPIs assigned to the email that the assignee should see.
// The email match is exact and case-sensitive.
func (s *KPIService) KPIsForUser(email string) []models.KPIConfig {
	result := make([]models.KPIConfig, 0)
	for _, k := range s.kpis.ListKPIs() {
		if k.AssignedToEmail == email && k.VisibleToAssignee() {
			result = append(result, k)
		}
	}
	return result
}

// Mine returns the actor's own KPIs
func (s *KPIService) Mine(actorID string) ([]models.KPIConfig, error) {
	a, err := actor(s.users, actorID)
	if err != nil {
		return nil, err
	}
	return s.KPIsForUser(a.Email), nil
}

// ForStaff returns the KPIs of a staff member the actor may view
func (s *KPIService) ForStaff(actorID, staffID string) ([]models.KPIConfig, error) {
	_, staff, err := s.supervisedStaff(actorID, staffID)
	if err != nil {
		return nil, err
	}
	return s.KPIsForUser(staff.Email), nil
}

// Queue returns every KPI the actor manages
func (s *KPIService) Queue(actorID string) ([]models.KPIConfig, error) {
	a, err := s.supervisor(actorID)
	if err != nil {
		return nil, err
	}
	return access.KPIQueue(a, s.kpis.ListKPIs(), s.users.ListUsers()), nil
}

// Pending returns the managed KPIs waiting for approval
func (s *KPIService) Pending(actorID string) ([]models.KPIConfig, error) {
	queue, err := s.Queue(actorID)
	if err != nil {
		return nil, err
	}
	result := make([]models.KPIConfig, 0)
	for _, k := range queue {
		if k.Status == models.KPIStatusPendingApproval {
			result = append(result, k)
		}
	}
	return result, nil
}

// Add assigns a KPI. Assigning a name the staff member already holds overrides that KPI's target.
func (s *KPIService) Add(ctx context.Context, actorID string, input models.KPIInput) (*models.KPIConfig, error) {
	a, staff, err := s.supervisedStaff(actorID, input.AssignedToID)
	if err != nil {
		return nil, err
	}
	if !a.Role.Supervises() {
		return nil, forbidden("KPI management requires a CSM or manager")
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, invalid("KPI name is required")
	}
	if err := validTarget(input.Target); err != nil {
		return nil, err
	}

	timeFrame := input.TimeFrame
	if timeFrame == "" {
		timeFrame = models.TimeFrameMonthly
	}
	if !validTimeFrame(timeFrame) {
		return nil, invalid("unknown time frame %q", timeFrame)
	}

	for _, existing := range s.kpis.ListKPIs() {
		if existing.Name == name && existing.AssignedToID == staff.ID {
			s.logger.WithFields(logrus.Fields{"kpi_id": existing.ID, "target": input.Target}).Info("KPI target overridden")
			return s.kpis.UpdateKPI(ctx, existing.ID, func(k *models.KPIConfig) error {
				k.Target = input.Target
				return nil
			})
		}
	}

	kpi := models.KPIConfig{
		ID:           uuid.NewString(),
		Name:         name,
		Target:       input.Target,
		AssignedToID: staff.ID,
		Unit:         input.Unit,
		Measure:      input.Measure,
		TimeFrame:    timeFrame,
		Status:       models.KPIStatusPendingSignature,
		CreatedBy:    a.Name,
		IsDeposit:    input.IsDeposit,
		IsOutflow:    input.IsOutflow,
	}
	applyTemplate(&kpi)

	created, err := s.kpis.CreateKPI(ctx, kpi)
	if err != nil {
		return nil, fmt.Errorf("failed to create KPI: %w", err)
	}

	s.logger.WithFields(logrus.Fields{"kpi_id": created.ID, "assigned_to": staff.ID}).Info("KPI assigned")
	return created, nil
}

// Sign moves a KPI from pending_signature to pending_approval; only the assignee may sign
func (s *KPIService) Sign(ctx context.Context, actorID, kpiID string) (*models.KPIConfig, error) {
	return s.kpis.UpdateKPI(ctx, kpiID, func(k *models.KPIConfig) error {
		if k.AssignedToID != actorID {
			return forbidden("only the assignee can sign a KPI")
		}
		if k.Status != models.KPIStatusPendingSignature {
			return fmt.Errorf("%w: cannot sign a KPI in status %s", ErrInvalidTransition, k.Status)
		}
		now := s.users.Now()
		k.Status = models.KPIStatusPendingApproval
		k.SignedByStaff = true
		k.SignedAt = &now
		return nil
	})
}

// Approve moves a signed KPI to approved
func (s *KPIService) Approve(ctx context.Context, actorID, kpiID string) (*models.KPIConfig, error) {
	if err := s.checkManaged(actorID, kpiID); err != nil {
		return nil, err
	}

	return s.kpis.UpdateKPI(ctx, kpiID, func(k *models.KPIConfig) error {
		if k.Status != models.KPIStatusPendingApproval {
			return fmt.Errorf("%w: cannot approve a KPI in status %s", ErrInvalidTransition, k.Status)
		}
		k.Status = models.KPIStatusApproved
		return nil
	})
}

// ApproveAll approves every signed KPI in the actor's queue
func (s *KPIService) ApproveAll(ctx context.Context, actorID string) (int, error) {
	pending, err := s.Pending(actorID)
	if err != nil {
		return 0, err
	}
	if len(pending) == 0 {
		return 0, nil
	}

	ids := make(map[string]bool, len(pending))
	for _, k := range pending {
		ids[k.ID] = true
	}

	return s.kpis.UpdateKPIs(ctx, func(k *models.KPIConfig) bool {
		if !ids[k.ID] || k.Status != models.KPIStatusPendingApproval {
			return false
		}
		k.Status = models.KPIStatusApproved
		return true
	})
}

// UpdateTarget changes the target of a managed KPI
func (s *KPIService) UpdateTarget(ctx context.Context, actorID, kpiID string, target float64) (*models.KPIConfig, error) {
	if err := validTarget(target); err != nil {
		return nil, err
	}
	if err := s.checkManaged(actorID, kpiID); err != nil {
		return nil, err
	}

	return s.kpis.UpdateKPI(ctx, kpiID, func(k *models.KPIConfig) error {
		k.Target = target
		return nil
	})
}

// Delete removes a managed KPI
func (s *KPIService) Delete(ctx context.Context, actorID, kpiID string) error {
	if err := s.checkManaged(actorID, kpiID); err != nil {
		return err
	}
	return s.kpis.DeleteKPI(ctx, kpiID)
}

func (s *KPIService) supervisor(actorID string) (*models.User, error) {
	a, err := actor(s.users, actorID)
	if err != nil {
		return nil, err
	}
	if !a.Role.Supervises() {
		return nil, forbidden("KPI management requires a CSM or manager")
	}
	return a, nil
}

// supervisedStaff resolves the actor and a staff member; the actor must be the staff member or supervise them
func (s *KPIService) supervisedStaff(actorID, staffID string) (*models.User, *models.User, error) {
	a, err := actor(s.users, actorID)
	if err != nil {
		return nil, nil, err
	}
	staff, err := s.users.GetUser(staffID)
	if err != nil {
		return nil, nil, err
	}
	if a.ID == staff.ID {
		return a, staff, nil
	}
	if !access.Supervises(a, staff) {
		return nil, nil, forbidden("%s is outside your team", staff.Name)
	}
	return a, staff, nil
}

func (s *KPIService) checkManaged(actorID, kpiID string) error {
	a, err := s.supervisor(actorID)
	if err != nil {
		return err
	}
	kpi, err := s.kpis.GetKPI(kpiID)
	if err != nil {
		return err
	}
	if a.Role == models.RoleManager {
		return nil
	}
	staff, err := s.users.GetUser(kpi.AssignedToID)
	if err != nil || !access.Supervises(a, staff) {
		return forbidden("KPI %s is outside your team", kpiID)
	}
	return nil
}

func validTarget(target float64) error {
	if math.IsNaN(target) || math.IsInf(target, 0) || target <= 0 {
		return invalid("target must be a positive number")
	}
	return nil
}

func validTimeFrame(tf models.TimeFrame) bool {
	switch tf {
	case models.TimeFrameDaily, models.TimeFrameWeekly, models.TimeFrameMonthly, models.TimeFrameQuarterly, models.TimeFrameYearly:
		return true
	}
	return false
}

// applyTemplate fills unit, measure and deposit flags from the standard template of the same name
func applyTemplate(kpi *models.KPIConfig) {
	for _, t := range models.StandardKPITemplates {
		if t.Name != kpi.Name {
			continue
		}
		if kpi.Unit == "" {
			kpi.Unit = t.Unit
		}
		if kpi.Measure == "" {
			kpi.Measure = t.Measure
		}
		kpi.IsDeposit = kpi.IsDeposit || t.IsDeposit
		kpi.IsOutflow = kpi.IsOutflow || t.IsOutflow
		return
	}
}
