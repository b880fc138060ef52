package services

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/dukemzone/kpi-portal/internal/models"
)

func newReportFixture(t *testing.T) *ReportService {
	t.Helper()
	s := newTestStore(t)
	addKPI(t, s, "k1", meronID, "Deposit Conventional", 365000, models.KPIStatusApproved)
	addKPI(t, s, "k2", meronID, "POS Merchant", 12, models.KPIStatusApproved)
	addKPI(t, s, "k3", meronID, "FCY Conv.", 5000, models.KPIStatusPendingApproval)
	addKPI(t, s, "k4", sanbataID, "POS Merchant", 52, models.KPIStatusApproved)

	addEntry(t, s, "e1", meronID, "2026-03-02", models.EntryStatusAuthorized,
		map[string]float64{"Deposit Conventional": 5000, "Deposit Conventional Out": 1200, "POS Merchant": 3, "FCY Conv.": 40})
	addEntry(t, s, "e2", meronID, "2026-03-03", models.EntryStatusPending,
		map[string]float64{"Deposit Conventional": 999})
	addEntry(t, s, "e3", sanbataID, "2026-03-03", models.EntryStatusAuthorized,
		map[string]float64{"POS Merchant": 2})

	return NewReportService(s, s, s)
}

func TestPerformanceMatrix(t *testing.T) {
	svc := newReportFixture(t)

	matrix, err := svc.PerformanceMatrix(dawitID, meronID)
	require.NoError(t, err)
	assert.Equal(t, "Meron Getahun", matrix.StaffName)
	assert.Equal(t, models.DefaultBranch, matrix.Branch)
	assert.Equal(t, fixedNow, matrix.GeneratedAt)
	require.Len(t, matrix.Rows, 2)

	deposit := matrix.Rows[0]
	assert.Equal(t, "Deposit Conventional", deposit.KPI)
	assert.Equal(t, 3800.0, deposit.NetActual)
	assert.InDelta(t, 1000, deposit.DailyGoal, 1e-9)
	assert.InDelta(t, 380, deposit.DailyPct, 1e-9)
	assert.InDelta(t, 365000.0/52, deposit.WeeklyGoal, 1e-9)
	assert.InDelta(t, 3800.0/365000*100, deposit.YearlyPct, 1e-9)

	pos := matrix.Rows[1]
	assert.Equal(t, 3.0, pos.NetActual)
	assert.InDelta(t, 300, pos.MonthlyPct, 1e-9)

	self, err := svc.PerformanceMatrix(meronID, meronID)
	require.NoError(t, err)
	assert.Len(t, self.Rows, 2)

	_, err = svc.PerformanceMatrix(sanbataID, meronID)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.PerformanceMatrix(managerID, "ghost")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPercentWithoutGoal(t *testing.T) {
	assert.Zero(t, percent(50, 0))
	assert.Zero(t, percent(50, -1))
	assert.Equal(t, 50.0, percent(25, 50))
}

func TestMatrixExports(t *testing.T) {
	svc := newReportFixture(t)
	matrix, err := svc.PerformanceMatrix(managerID, meronID)
	require.NoError(t, err)

	t.Run("CSV", func(t *testing.T) {
		data, err := matrix.CSV()
		require.NoError(t, err)
		text := string(data)
		assert.Contains(t, text, "STAFF PERFORMANCE MATRIX - NODE: MERON GETAHUN\n")
		assert.Contains(t, text, "ID: MERON,BRANCH: DIZ branch\n")
		assert.Contains(t, text, "EXPORTED ON: 2026-03-14 09:30:00\n")
		assert.Contains(t, text, "KPI NAME,UNIT,NET ACTUAL,DAILY GOAL,DAILY %,WEEKLY GOAL,WEEKLY %,MONTHLY GOAL,MONTHLY %,YEARLY GOAL,YEARLY %\n")
		assert.Contains(t, text, "Deposit Conventional,,3800,1000.00,380.0%,")
	})

	t.Run("XLSX", func(t *testing.T) {
		data, err := matrix.XLSX()
		require.NoError(t, err)

		f, err := excelize.OpenReader(bytes.NewReader(data))
		require.NoError(t, err)
		defer f.Close()

		title, err := f.GetCellValue("Performance", "A1")
		require.NoError(t, err)
		assert.Equal(t, "STAFF PERFORMANCE MATRIX - NODE: MERON GETAHUN", title)

		header, err := f.GetCellValue("Performance", "A5")
		require.NoError(t, err)
		assert.Equal(t, "KPI NAME", header)

		kpi, err := f.GetCellValue("Performance", "A6")
		require.NoError(t, err)
		assert.Equal(t, "Deposit Conventional", kpi)

		net, err := f.GetCellValue("Performance", "C6")
		require.NoError(t, err)
		assert.Equal(t, "3800", net)
	})
}

func TestBranchAggregate(t *testing.T) {
	svc := newReportFixture(t)

	agg, err := svc.BranchAggregate(dawitID)
	require.NoError(t, err)
	require.Len(t, agg.Rows, 3)

	assert.Equal(t, "Meron Getahun", agg.Rows[0].StaffName)
	assert.Equal(t, "Deposit Conventional", agg.Rows[0].KPI)
	assert.Equal(t, "Birr", agg.Rows[0].Unit)
	assert.Equal(t, "POS Merchant", agg.Rows[1].KPI)
	assert.Equal(t, "Sanbata Bekele", agg.Rows[2].StaffName)
	assert.Equal(t, 2.0, agg.Rows[2].NetActual)
	assert.InDelta(t, 200, agg.Rows[2].WeeklyPct, 1e-9)
	assert.Equal(t, 3805.0, agg.TotalNet)

	_, err = svc.BranchAggregate(meronID)
	assert.ErrorIs(t, err, ErrForbidden)

	t.Run("CSV", func(t *testing.T) {
		data, err := agg.CSV()
		require.NoError(t, err)
		text := string(data)
		assert.Contains(t, text, "GLOBAL PERFORMANCE SYNC MATRIX\n")
		assert.Contains(t, text, "STAFF NAME,KPI NAME,UNIT,NET ACTUAL,WEEKLY %,MONTHLY %,YEARLY %\n")
		assert.Contains(t, text, "BRANCH TOTAL OUTPUT,,,3805,,,\n")
	})

	t.Run("XLSX", func(t *testing.T) {
		data, err := agg.XLSX()
		require.NoError(t, err)

		f, err := excelize.OpenReader(bytes.NewReader(data))
		require.NoError(t, err)
		defer f.Close()

		rows, err := f.GetRows("Branch")
		require.NoError(t, err)
		require.Len(t, rows, 5)
		assert.Equal(t, "STAFF NAME", rows[0][0])
		assert.Equal(t, "BRANCH TOTAL OUTPUT", rows[4][0])
		assert.Equal(t, "3805", rows[4][3])
	})
}
