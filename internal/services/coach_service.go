package services

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/dukemzone/kpi-portal/internal/access"
	"github.com/dukemzone/kpi-portal/internal/models"
)

// Texts returned when the generator fails
const (
	FallbackGeneralAdvice  = "Focus on maintaining consistency."
	FallbackStaffDirective = "Tactical analysis error."
	FallbackKPITips        = "AI Sync Error."
	FallbackAnalysis       = "Intelligence Sync Failed. Try again."
	FallbackFocusAlert     = "AI Sync Error."
)

// underperformingRatio marks a KPI whose net actual is below this share of its target
const underperformingRatio = 0.7

// maxDirectiveEntries caps the entries sent with a staff directive
const maxDirectiveEntries = 20

var markdownLink = regexp.MustCompile(`\[.*?\]\(.*?\)`)

// Generator produces text and speech
type Generator interface {
	GenerateText(ctx context.Context, model, prompt string) (string, error)
	GenerateSpeech(ctx context.Context, model, voice, text string) (string, error)
}

// CoachModels names the models used for each kind of request
type CoachModels struct {
	Text   string
	Pro    string
	Speech string
	Voice  string
}

// CoachService assembles coaching prompts from portal data and degrades to fixed texts on failure
type CoachService struct {
	ai        Generator
	models    CoachModels
	kpis      KPIStore
	entries   EntryStore
	users     UserLookup
	overrides access.Overrides
	logger    logrus.FieldLogger
}

// NewCoachService creates a new coach service
func NewCoachService(ai Generator, m CoachModels, kpis KPIStore, entries EntryStore, users UserLookup, overrides access.Overrides, logger logrus.FieldLogger) *CoachService {
	return &CoachService{
		ai:        ai,
		models:    m,
		kpis:      kpis,
		entries:   entries,
		users:     users,
		overrides: overrides,
		logger:    logger,
	}
}

type kpiSummary struct {
	Name   string  `json:"name"`
	Net    float64 `json:"net"`
	Target float64 `json:"target"`
}

func firstName(name string) string {
	if fields := strings.Fields(name); len(fields) > 0 {
		return fields[0]
	}
	return name
}

func mustJSON(v interface{}) string {
	data, err := json.Marshal(v)
	if err != nil {
		return "{}"
	}
	return string(data)
}

func (s *CoachService) generate(ctx context.Context, kind, model, prompt, fallback string) string {
	text, err := s.ai.GenerateText(ctx, model, prompt)
	if err != nil || strings.TrimSpace(text) == "" {
		s.logger.WithError(err).WithField("kind", kind).Warn("Coaching generation failed")
		return fallback
	}
	return text
}

// kpisOf returns the KPIs the user sees on their dashboard
func (s *CoachService) kpisOf(user *models.User) []models.KPIConfig {
	result := make([]models.KPIConfig, 0)
	for _, k := range s.kpis.ListKPIs() {
		if k.AssignedToEmail == user.Email && k.VisibleToAssignee() {
			result = append(result, k)
		}
	}
	return result
}

func (s *CoachService) entriesOf(staffID string) []models.DailyEntry {
	result := make([]models.DailyEntry, 0)
	for _, e := range s.entries.ListEntries() {
		if e.StaffID == staffID {
			result = append(result, e)
		}
	}
	return result
}

// KPITips returns three tactical tips for one of the actor's KPIs
func (s *CoachService) KPITips(ctx context.Context, actorID, kpiID string) (string, error) {
	a, err := actor(s.users, actorID)
	if err != nil {
		return "", err
	}
	kpi, err := s.kpis.GetKPI(kpiID)
	if err != nil {
		return "", err
	}
	if kpi.AssignedToID != a.ID {
		return "", forbidden("KPI %s is not assigned to you", kpiID)
	}

	actual := NetValue(AuthorizedEntries(s.entriesOf(a.ID)), kpi.Name)
	prompt := fmt.Sprintf(`You are an elite high-performance banking coach. Provide exactly 3 short tactical tips in Amharic letters to help the staff member achieve their OFFICIAL BANK TARGET for: "%s".

Current Performance: %s %s
Assigned Bank Target: %s %s

REQUIREMENTS:
- Start the response with "ሰላም %s," followed by a new line. Do NOT mention the name again in the bullet points.
- Provide exactly 3 bullet points starting with •.
- Focus strictly on professional strategies to hit the BANK'S KPI. Do NOT mention personal savings, personal life goals, or general motivation.
- Write the tips in clear, professional Amharic letters using the "Bank's voice".
- End with a motivating statement about contributing to the bank's success in Amharic.`,
		kpi.Name, formatNet(actual), kpi.Unit, formatNet(kpi.Target), kpi.Unit, firstName(a.Name))

	return s.generate(ctx, "kpi_tips", s.models.Text, prompt, FallbackKPITips), nil
}

// GeneralAdvice returns strategic directions over all of the actor's KPIs
func (s *CoachService) GeneralAdvice(ctx context.Context, actorID string) (string, error) {
	a, err := actor(s.users, actorID)
	if err != nil {
		return "", err
	}

	entries := AuthorizedEntries(s.entriesOf(a.ID))
	summary := make([]kpiSummary, 0)
	for _, k := range s.kpisOf(a) {
		summary = append(summary, kpiSummary{Name: k.Name, Net: NetValue(entries, k.Name), Target: k.Target})
	}

	prompt := fmt.Sprintf(`Analyze staff performance against BANK TARGETS and provide supportive strategic directions IN AMHARIC LETTERS.
Staff: %s
Data: %s

REQUIREMENTS:
- Response MUST be in Amharic letters.
- Start with "የስትራቴጂክ አቅጣጫ ለ %s:".
- Focus on professional habits to meet organizational goals.
- Use energetic industrial command language suitable for a high-performance banking environment.`,
		a.Name, mustJSON(summary), firstName(a.Name))

	return s.generate(ctx, "general_advice", s.models.Text, prompt, FallbackGeneralAdvice), nil
}

// Underperforming names the KPIs whose net actual is below 70% of target
func Underperforming(kpis []models.KPIConfig, entries []models.DailyEntry) []string {
	names := make([]string, 0)
	for _, k := range kpis {
		if k.Target > 0 && NetValue(entries, k.Name)/k.Target < underperformingRatio {
			names = append(names, k.Name)
		}
	}
	return names
}

// StaffDirective returns coaching steps for the supervisor of a staff member
func (s *CoachService) StaffDirective(ctx context.Context, actorID, staffID string) (string, error) {
	a, err := actor(s.users, actorID)
	if err != nil {
		return "", err
	}
	staff, err := s.users.GetUser(staffID)
	if err != nil {
		return "", err
	}
	if !access.Supervises(a, staff) && !access.InDomain(a, staff, s.overrides) {
		return "", forbidden("%s is outside your team", staff.Name)
	}

	kpis := s.kpisOf(staff)
	entries := s.entriesOf(staff.ID)
	underperforming := strings.Join(Underperforming(kpis, AuthorizedEntries(entries)), ", ")
	if underperforming == "" {
		underperforming = "None (All on track)"
	}
	logs := entries
	if len(logs) > maxDirectiveEntries {
		logs = logs[:maxDirectiveEntries]
	}

	prompt := fmt.Sprintf(`You are advising a Branch Manager or CSM. Analyze the performance data for %s.

KPI Data: %s
Performance Logs: %s
Underperforming Areas: %s

REQUIREMENTS:
1. Start with "ለአሰልጣኞች ስትራቴጂክ መመሪያ ለ %s:" (Strategic Coaching Directive for [Name]).
2. Identify the specific KPIs where they are falling behind the Bank's target.
3. Provide 3 SPECIFIC, ACTIONABLE coaching steps the MANAGER should take with this staff member.
   - Example: "Schedule a roleplay session for product X", "Review customer call logs for Y", "Assign a mentor for Z".
4. Do not just tell the staff to work harder; tell the Manager *how* to coach them.
5. Write in professional Amharic.`,
		staff.Name, mustJSON(kpis), mustJSON(logs), underperforming, firstName(staff.Name))

	return s.generate(ctx, "staff_directive", s.models.Pro, prompt, FallbackStaffDirective), nil
}

// PerformanceAnalysis returns a strategic overview of the actor's domain
func (s *CoachService) PerformanceAnalysis(ctx context.Context, actorID string) (string, error) {
	a, err := actor(s.users, actorID)
	if err != nil {
		return "", err
	}
	if !a.Role.Supervises() {
		return "", forbidden("analysis requires a CSM or manager")
	}

	users := s.users.ListUsers()
	entries := s.domainEntries(a, users)
	kpis := access.KPIQueue(a, s.kpis.ListKPIs(), users)

	instruction := "Analyze aggregate branch performance. Provide a high-level strategic overview for the Manager on team efficiency. Use industrial command language and emojis."
	if a.Role == models.RoleCSM {
		instruction = "Analyze domain performance for CSM team. Provide a high-level STRATEGIC SYNC IN AMHARIC LETTERS. Focus on team mobilization."
	}

	data := mustJSON(map[string]interface{}{"entries": entries, "kpis": kpis})
	prompt := instruction + " Data: " + data

	return s.generate(ctx, "performance_analysis", s.models.Pro, prompt, FallbackAnalysis), nil
}

func (s *CoachService) domainEntries(a *models.User, users []models.User) []models.DailyEntry {
	byID := make(map[string]*models.User, len(users))
	for i := range users {
		byID[users[i].ID] = &users[i]
	}
	result := make([]models.DailyEntry, 0)
	for _, e := range s.entries.ListEntries() {
		if a.Role == models.RoleManager {
			result = append(result, e)
			continue
		}
		if staff, ok := byID[e.StaffID]; ok && access.InDomain(a, staff, s.overrides) {
			result = append(result, e)
		}
	}
	return result
}

// FocusAlert returns a short confirmation after the actor submits metrics
func (s *CoachService) FocusAlert(ctx context.Context, actorID string, metrics map[string]float64) (string, error) {
	a, err := actor(s.users, actorID)
	if err != nil {
		return "", err
	}

	prompt := fmt.Sprintf(`Immediate sync confirmation IN AMHARIC LETTERS for %s.
Transmission: %s

REQUIREMENTS:
- Start with "የመረጃ ልውውጥ ተሳክቷል፣ %s!".
- Exactly 2 high-impact bullet points in Amharic letters regarding consistency.`,
		a.Name, mustJSON(metrics), firstName(a.Name))

	return s.generate(ctx, "focus_alert", s.models.Text, prompt, FallbackFocusAlert), nil
}

// AdviceAudio speaks a coaching text. It returns base64 PCM and false when synthesis failed.
func (s *CoachService) AdviceAudio(ctx context.Context, text string) (string, bool) {
	clean := strings.TrimSpace(markdownLink.ReplaceAllString(text, ""))
	if clean == "" {
		return "", false
	}

	audio, err := s.ai.GenerateSpeech(ctx, s.models.Speech, s.models.Voice, "Professional coach: "+clean)
	if err != nil || audio == "" {
		s.logger.WithError(err).Warn("Advice audio failed")
		return "", false
	}
	return audio, true
}
