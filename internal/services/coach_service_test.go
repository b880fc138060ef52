package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukemzone/kpi-portal/internal/models"
)

type fakeGenerator struct {
	text    string
	err     error
	audio   string
	prompts []string
	models  []string
	spoken  string
}

func (g *fakeGenerator) GenerateText(_ context.Context, model, prompt string) (string, error) {
	g.models = append(g.models, model)
	g.prompts = append(g.prompts, prompt)
	return g.text, g.err
}

func (g *fakeGenerator) GenerateSpeech(_ context.Context, _, _, text string) (string, error) {
	g.spoken = text
	if g.audio == "" {
		return "", g.err
	}
	return g.audio, nil
}

var testModels = CoachModels{Text: "flash", Pro: "pro", Speech: "tts", Voice: "Puck"}

func newCoachService(t *testing.T, gen *fakeGenerator) (*CoachService, *storeFixture) {
	t.Helper()
	s := newTestStore(t)
	return NewCoachService(gen, testModels, s, s, s, defaultOverrides(), nullLogger()), &storeFixture{s}
}

func TestKPITips(t *testing.T) {
	ctx := context.Background()
	gen := &fakeGenerator{text: "ሰላም Meron,\n• one"}
	svc, fx := newCoachService(t, gen)
	addKPI(t, fx.Store, "k1", meronID, "POS Merchant", 12, models.KPIStatusApproved)
	addEntry(t, fx.Store, "e1", meronID, "2026-03-01", models.EntryStatusAuthorized, map[string]float64{"POS Merchant": 4})
	addEntry(t, fx.Store, "e2", meronID, "2026-03-02", models.EntryStatusPending, map[string]float64{"POS Merchant": 50})

	tips, err := svc.KPITips(ctx, meronID, "k1")
	require.NoError(t, err)
	assert.Equal(t, "ሰላም Meron,\n• one", tips)
	require.Len(t, gen.prompts, 1)
	assert.Equal(t, "flash", gen.models[0])
	assert.Contains(t, gen.prompts[0], `"POS Merchant"`)
	assert.Contains(t, gen.prompts[0], "Current Performance: 4 ")
	assert.Contains(t, gen.prompts[0], `"ሰላም Meron,"`)

	_, err = svc.KPITips(ctx, sanbataID, "k1")
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = svc.KPITips(ctx, meronID, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCoachFallbacks(t *testing.T) {
	ctx := context.Background()

	for name, gen := range map[string]*fakeGenerator{
		"Error": {err: errors.New("quota exceeded")},
		"Blank": {text: "  \n"},
	} {
		t.Run(name, func(t *testing.T) {
			svc, fx := newCoachService(t, gen)
			addKPI(t, fx.Store, "k1", meronID, "POS Merchant", 12, models.KPIStatusApproved)

			tips, err := svc.KPITips(ctx, meronID, "k1")
			require.NoError(t, err)
			assert.Equal(t, FallbackKPITips, tips)

			advice, err := svc.GeneralAdvice(ctx, meronID)
			require.NoError(t, err)
			assert.Equal(t, FallbackGeneralAdvice, advice)

			directive, err := svc.StaffDirective(ctx, dawitID, meronID)
			require.NoError(t, err)
			assert.Equal(t, FallbackStaffDirective, directive)

			analysis, err := svc.PerformanceAnalysis(ctx, managerID)
			require.NoError(t, err)
			assert.Equal(t, FallbackAnalysis, analysis)

			alert, err := svc.FocusAlert(ctx, meronID, map[string]float64{"POS Merchant": 1})
			require.NoError(t, err)
			assert.Equal(t, FallbackFocusAlert, alert)
		})
	}
}

func TestStaffDirective(t *testing.T) {
	ctx := context.Background()
	gen := &fakeGenerator{text: "directive"}
	svc, fx := newCoachService(t, gen)
	addKPI(t, fx.Store, "k1", meronID, "POS Merchant", 10, models.KPIStatusApproved)
	addKPI(t, fx.Store, "k2", meronID, "Agency activation", 10, models.KPIStatusApproved)
	addEntry(t, fx.Store, "e1", meronID, "2026-03-01", models.EntryStatusAuthorized,
		map[string]float64{"POS Merchant": 9, "Agency activation": 2})

	_, err := svc.StaffDirective(ctx, dawitID, meronID)
	require.NoError(t, err)
	assert.Equal(t, "pro", gen.models[0])
	assert.Contains(t, gen.prompts[0], "Underperforming Areas: Agency activation\n")
	assert.Contains(t, gen.prompts[0], "ለአሰልጣኞች ስትራቴጂክ መመሪያ ለ Meron:")

	_, err = svc.StaffDirective(ctx, sanbataID, meronID)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestUnderperforming(t *testing.T) {
	kpis := []models.KPIConfig{
		{Name: "A", Target: 100},
		{Name: "B", Target: 100},
		{Name: "C", Target: 0},
	}
	entries := []models.DailyEntry{{Metrics: map[string]float64{"A": 70, "B": 69.9}}}
	assert.Equal(t, []string{"B"}, Underperforming(kpis, entries))
}

func TestPerformanceAnalysis(t *testing.T) {
	ctx := context.Background()
	gen := &fakeGenerator{text: "overview"}
	svc, fx := newCoachService(t, gen)
	abel := addStaff(t, fx.Store, "20", "abel", dawitID)
	addEntry(t, fx.Store, "e1", meronID, "2026-03-01", models.EntryStatusAuthorized, map[string]float64{"POS Merchant": 1})
	addEntry(t, fx.Store, "e2", abel.ID, "2026-03-01", models.EntryStatusAuthorized, map[string]float64{"POS Merchant": 1})

	_, err := svc.PerformanceAnalysis(ctx, dawitID)
	require.NoError(t, err)
	assert.Contains(t, gen.prompts[0], "STRATEGIC SYNC IN AMHARIC LETTERS")
	assert.Contains(t, gen.prompts[0], `"id":"e1"`)
	assert.NotContains(t, gen.prompts[0], `"id":"e2"`)

	_, err = svc.PerformanceAnalysis(ctx, managerID)
	require.NoError(t, err)
	assert.Contains(t, gen.prompts[1], "Analyze aggregate branch performance")
	assert.Contains(t, gen.prompts[1], `"id":"e2"`)

	_, err = svc.PerformanceAnalysis(ctx, meronID)
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestAdviceAudio(t *testing.T) {
	ctx := context.Background()

	gen := &fakeGenerator{audio: "AAEC"}
	svc, _ := newCoachService(t, gen)
	audio, ok := svc.AdviceAudio(ctx, "Call [the branch](https://example.com) today")
	assert.True(t, ok)
	assert.Equal(t, "AAEC", audio)
	assert.Equal(t, "Professional coach: Call  today", gen.spoken)

	_, ok = svc.AdviceAudio(ctx, "[only a link](https://example.com)")
	assert.False(t, ok)

	failing := &fakeGenerator{err: errors.New("tts down")}
	svc, _ = newCoachService(t, failing)
	_, ok = svc.AdviceAudio(ctx, "hello")
	assert.False(t, ok)
}
