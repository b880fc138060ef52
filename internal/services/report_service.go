package services

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/dukemzone/kpi-portal/internal/access"
	"github.com/dukemzone/kpi-portal/internal/models"
)

// Goal periods derived from a yearly target
const (
	daysPerYear   = 365
	weeksPerYear  = 52
	monthsPerYear = 12
)

// MatrixRow is one KPI line of a staff performance matrix
type MatrixRow struct {
	KPI         string  `json:"kpi"`
	Unit        string  `json:"unit"`
	NetActual   float64 `json:"netActual"`
	DailyGoal   float64 `json:"dailyGoal"`
	DailyPct    float64 `json:"dailyPct"`
	WeeklyGoal  float64 `json:"weeklyGoal"`
	WeeklyPct   float64 `json:"weeklyPct"`
	MonthlyGoal float64 `json:"monthlyGoal"`
	MonthlyPct  float64 `json:"monthlyPct"`
	YearlyGoal  float64 `json:"yearlyGoal"`
	YearlyPct   float64 `json:"yearlyPct"`
}

// Matrix is the performance matrix of one staff member over approved KPIs and authorized entries
type Matrix struct {
	StaffName   string      `json:"staffName"`
	Username    string      `json:"username"`
	Branch      string      `json:"branch"`
	GeneratedAt time.Time   `json:"generatedAt"`
	Rows        []MatrixRow `json:"rows"`
}

// AggregateRow is one staff/KPI line of the branch aggregate
type AggregateRow struct {
	StaffName  string  `json:"staffName"`
	KPI        string  `json:"kpi"`
	Unit       string  `json:"unit"`
	NetActual  float64 `json:"netActual"`
	WeeklyPct  float64 `json:"weeklyPct"`
	MonthlyPct float64 `json:"monthlyPct"`
	YearlyPct  float64 `json:"yearlyPct"`
}

// Aggregate is the branch-wide matrix over every staff member the requester oversees
type Aggregate struct {
	GeneratedAt time.Time      `json:"generatedAt"`
	Rows        []AggregateRow `json:"rows"`
	TotalNet    float64        `json:"totalNet"`
}

// ReportService builds performance reports
type ReportService struct {
	kpis    KPIStore
	entries EntryStore
	users   UserLookup
}

// NewReportService creates a new report service
func NewReportService(kpis KPIStore, entries EntryStore, users UserLookup) *ReportService {
	return &ReportService{kpis: kpis, entries: entries, users: users}
}

func percent(actual, goal float64) float64 {
	if goal <= 0 {
		return 0
	}
	return actual / goal * 100
}

func (s *ReportService) staffData(staff *models.User) ([]models.KPIConfig, []models.DailyEntry) {
	kpis := make([]models.KPIConfig, 0)
	for _, k := range s.kpis.ListKPIs() {
		if k.AssignedToID == staff.ID && k.Status == models.KPIStatusApproved {
			kpis = append(kpis, k)
		}
	}
	entries := make([]models.DailyEntry, 0)
	for _, e := range s.entries.ListEntries() {
		if e.StaffID == staff.ID && e.Status == models.EntryStatusAuthorized {
			entries = append(entries, e)
		}
	}
	return kpis, entries
}

// PerformanceMatrix builds the matrix of a staff member the actor oversees
func (s *ReportService) PerformanceMatrix(actorID, staffID string) (*Matrix, error) {
	a, err := actor(s.users, actorID)
	if err != nil {
		return nil, err
	}
	staff, err := s.users.GetUser(staffID)
	if err != nil {
		return nil, err
	}
	if a.ID != staff.ID && !access.Supervises(a, staff) {
		return nil, forbidden("%s is outside your team", staff.Name)
	}

	branch := staff.Branch
	if branch == "" {
		branch = models.DefaultBranch
	}
	matrix := &Matrix{
		StaffName:   staff.Name,
		Username:    staff.Username,
		Branch:      branch,
		GeneratedAt: s.users.Now(),
		Rows:        make([]MatrixRow, 0),
	}

	kpis, entries := s.staffData(staff)
	for _, k := range kpis {
		net := NetValue(entries, k.Name)
		row := MatrixRow{
			KPI:         k.Name,
			Unit:        k.Unit,
			NetActual:   net,
			DailyGoal:   k.Target / daysPerYear,
			WeeklyGoal:  k.Target / weeksPerYear,
			MonthlyGoal: k.Target / monthsPerYear,
			YearlyGoal:  k.Target,
		}
		row.DailyPct = percent(net, row.DailyGoal)
		row.WeeklyPct = percent(net, row.WeeklyGoal)
		row.MonthlyPct = percent(net, row.MonthlyGoal)
		row.YearlyPct = percent(net, row.YearlyGoal)
		matrix.Rows = append(matrix.Rows, row)
	}

	return matrix, nil
}

// BranchAggregate builds the aggregate over the actor's visible staff, in template order
func (s *ReportService) BranchAggregate(actorID string) (*Aggregate, error) {
	a, err := actor(s.users, actorID)
	if err != nil {
		return nil, err
	}
	if !a.Role.Supervises() {
		return nil, forbidden("branch reports require a CSM or manager")
	}

	agg := &Aggregate{GeneratedAt: s.users.Now(), Rows: make([]AggregateRow, 0)}
	for _, staff := range access.VisibleStaff(a, s.users.ListUsers()) {
		kpis, entries := s.staffData(&staff)
		byName := make(map[string]models.KPIConfig, len(kpis))
		for _, k := range kpis {
			byName[k.Name] = k
		}

		for _, t := range models.StandardKPITemplates {
			k, ok := byName[t.Name]
			if t.IsOutflow || !ok {
				continue
			}
			net := NetValue(entries, t.Name)
			agg.Rows = append(agg.Rows, AggregateRow{
				StaffName:  staff.Name,
				KPI:        t.Name,
				Unit:       t.Unit,
				NetActual:  net,
				WeeklyPct:  percent(net, k.Target/weeksPerYear),
				MonthlyPct: percent(net, k.Target/monthsPerYear),
				YearlyPct:  percent(net, k.Target),
			})
			agg.TotalNet += net
		}
	}

	return agg, nil
}

func formatGoal(v float64) string { return strconv.FormatFloat(v, 'f', 2, 64) }

func formatPct(v float64) string { return strconv.FormatFloat(v, 'f', 1, 64) + "%" }

func formatNet(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }

var matrixHeader = []string{
	"KPI NAME", "UNIT", "NET ACTUAL",
	"DAILY GOAL", "DAILY %", "WEEKLY GOAL", "WEEKLY %",
	"MONTHLY GOAL", "MONTHLY %", "YEARLY GOAL", "YEARLY %",
}

func (m *Matrix) preamble() [][]string {
	return [][]string{
		{"STAFF PERFORMANCE MATRIX - NODE: " + strings.ToUpper(m.StaffName)},
		{"ID: " + strings.ToUpper(m.Username), "BRANCH: " + m.Branch},
		{"EXPORTED ON: " + m.GeneratedAt.Format("2006-01-02 15:04:05")},
		{},
		matrixHeader,
	}
}

func (r MatrixRow) record() []string {
	return []string{
		r.KPI, r.Unit, formatNet(r.NetActual),
		formatGoal(r.DailyGoal), formatPct(r.DailyPct),
		formatGoal(r.WeeklyGoal), formatPct(r.WeeklyPct),
		formatGoal(r.MonthlyGoal), formatPct(r.MonthlyPct),
		formatGoal(r.YearlyGoal), formatPct(r.YearlyPct),
	}
}

// CSV renders the matrix as comma separated values
func (m *Matrix) CSV() ([]byte, error) {
	records := m.preamble()
	for _, r := range m.Rows {
		records = append(records, r.record())
	}
	return writeCSV(records)
}

// XLSX renders the matrix as a workbook with one sheet
func (m *Matrix) XLSX() ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Performance"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	rowNum := 1
	for _, line := range m.preamble() {
		if err := setRow(f, sheet, rowNum, toCells(line)); err != nil {
			return nil, err
		}
		rowNum++
	}
	headerRow := rowNum - 1

	for _, r := range m.Rows {
		cells := []interface{}{
			r.KPI, r.Unit, r.NetActual,
			round(r.DailyGoal, 2), round(r.DailyPct, 1),
			round(r.WeeklyGoal, 2), round(r.WeeklyPct, 1),
			round(r.MonthlyGoal, 2), round(r.MonthlyPct, 1),
			round(r.YearlyGoal, 2), round(r.YearlyPct, 1),
		}
		if err := setRow(f, sheet, rowNum, cells); err != nil {
			return nil, err
		}
		rowNum++
	}

	if err := boldRow(f, sheet, headerRow, len(matrixHeader)); err != nil {
		return nil, err
	}
	if err := f.SetColWidth(sheet, "A", "A", 34); err != nil {
		return nil, fmt.Errorf("failed to size columns: %w", err)
	}

	return workbookBytes(f)
}

var aggregateHeader = []string{"STAFF NAME", "KPI NAME", "UNIT", "NET ACTUAL", "WEEKLY %", "MONTHLY %", "YEARLY %"}

// CSV renders the aggregate as comma separated values; staff blocks are separated by an empty line
func (a *Aggregate) CSV() ([]byte, error) {
	records := [][]string{
		{"GLOBAL PERFORMANCE SYNC MATRIX"},
		{"EXPORTED ON: " + a.GeneratedAt.Format("2006-01-02 15:04:05")},
		{},
		aggregateHeader,
	}
	for i, r := range a.Rows {
		if i > 0 && a.Rows[i-1].StaffName != r.StaffName {
			records = append(records, []string{})
		}
		records = append(records, []string{
			r.StaffName, r.KPI, r.Unit, formatNet(r.NetActual),
			formatPct(r.WeeklyPct), formatPct(r.MonthlyPct), formatPct(r.YearlyPct),
		})
	}
	records = append(records, []string{}, []string{"BRANCH TOTAL OUTPUT", "", "", formatNet(a.TotalNet), "", "", ""})
	return writeCSV(records)
}

// XLSX renders the aggregate as a workbook with one sheet
func (a *Aggregate) XLSX() ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Branch"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	if err := setRow(f, sheet, 1, toCells(aggregateHeader)); err != nil {
		return nil, err
	}
	rowNum := 2
	for _, r := range a.Rows {
		cells := []interface{}{r.StaffName, r.KPI, r.Unit, r.NetActual, round(r.WeeklyPct, 1), round(r.MonthlyPct, 1), round(r.YearlyPct, 1)}
		if err := setRow(f, sheet, rowNum, cells); err != nil {
			return nil, err
		}
		rowNum++
	}
	if err := setRow(f, sheet, rowNum, []interface{}{"BRANCH TOTAL OUTPUT", "", "", a.TotalNet}); err != nil {
		return nil, err
	}
	if err := boldRow(f, sheet, 1, len(aggregateHeader)); err != nil {
		return nil, err
	}

	return workbookBytes(f)
}

func writeCSV(records [][]string) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.WriteAll(records); err != nil {
		return nil, fmt.Errorf("failed to write csv: %w", err)
	}
	return buf.Bytes(), nil
}

func toCells(line []string) []interface{} {
	cells := make([]interface{}, len(line))
	for i, v := range line {
		cells[i] = v
	}
	return cells
}

func setRow(f *excelize.File, sheet string, row int, cells []interface{}) error {
	if len(cells) == 0 {
		return nil
	}
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("failed to address row %d: %w", row, err)
	}
	if err := f.SetSheetRow(sheet, cell, &cells); err != nil {
		return fmt.Errorf("failed to write row %d: %w", row, err)
	}
	return nil
}

func boldRow(f *excelize.File, sheet string, row, cols int) error {
	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create style: %w", err)
	}
	first, _ := excelize.CoordinatesToCellName(1, row)
	last, _ := excelize.CoordinatesToCellName(cols, row)
	if err := f.SetCellStyle(sheet, first, last, style); err != nil {
		return fmt.Errorf("failed to style header: %w", err)
	}
	return nil
}

func workbookBytes(f *excelize.File) ([]byte, error) {
	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func round(v float64, places int) float64 {
	rounded, _ := strconv.ParseFloat(strconv.FormatFloat(v, 'f', places, 64), 64)
	return rounded
}
