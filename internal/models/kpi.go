package models

import "time"

// KPIStatus is the signature/approval lifecycle of a KPI assignment
type KPIStatus string

const (
	KPIStatusPendingSignature KPIStatus = "pending_signature"
	KPIStatusPendingApproval  KPIStatus = "pending_approval"
	KPIStatusApproved         KPIStatus = "approved"
)

// TimeFrame is the period a KPI target applies to
type TimeFrame string

const (
	TimeFrameDaily     TimeFrame = "Daily"
	TimeFrameWeekly    TimeFrame = "Weekly"
	TimeFrameMonthly   TimeFrame = "Monthly"
	TimeFrameQuarterly TimeFrame = "Quarterly"
	TimeFrameYearly    TimeFrame = "Yearly"
)

// OutflowSuffix marks the counter-metric that is subtracted from a deposit KPI
const OutflowSuffix = " Out"

// OutflowName returns the name of the outflow counter-metric for a KPI
func OutflowName(kpiName string) string {
	return kpiName + OutflowSuffix
}

// KPIConfig is a target assigned to one staff member.
// AssignedToID is the reference; AssignedToEmail and AssignedToName are display copies.
type KPIConfig struct {
	ID              string     `json:"id"`
	Name            string     `json:"name"`
	Target          float64    `json:"target"`
	AssignedToID    string     `json:"assignedToId"`
	AssignedToEmail string     `json:"assignedToEmail"`
	AssignedToName  string     `json:"assignedToName,omitempty"`
	Unit            string     `json:"unit"`
	Measure         string     `json:"measure"`
	TimeFrame       TimeFrame  `json:"timeFrame"`
	Status          KPIStatus  `json:"status"`
	CreatedBy       string     `json:"createdBy"`
	SignedByStaff   bool       `json:"signedByStaff,omitempty"`
	SignedAt        *time.Time `json:"signedAt,omitempty"`
	IsDeposit       bool       `json:"isDeposit,omitempty"`
	IsOutflow       bool       `json:"isOutflow,omitempty"`
}

// VisibleToAssignee reports whether the assignee should see the KPI on their dashboard
func (k *KPIConfig) VisibleToAssignee() bool {
	switch k.Status {
	case KPIStatusApproved, KPIStatusPendingSignature, KPIStatusPendingApproval:
		return true
	}
	return false
}

// KPIInput is the payload for assigning a KPI
type KPIInput struct {
	Name         string    `json:"name" binding:"required"`
	Target       float64   `json:"target" binding:"required"`
	AssignedToID string    `json:"assignedToId" binding:"required"`
	Unit         string    `json:"unit"`
	Measure      string    `json:"measure"`
	TimeFrame    TimeFrame `json:"timeFrame"`
	IsDeposit    bool      `json:"isDeposit"`
	IsOutflow    bool      `json:"isOutflow"`
}

// KPITemplate is one of the standard bank KPIs offered when assigning targets
type KPITemplate struct {
	Name      string `json:"name"`
	Unit      string `json:"unit"`
	Measure   string `json:"measure"`
	IsDeposit bool   `json:"isDeposit,omitempty"`
	IsOutflow bool   `json:"isOutflow,omitempty"`
	Parent    string `json:"parent,omitempty"`
}

// StandardKPITemplates lists the branch KPIs
var StandardKPITemplates = []KPITemplate{
	{Name: "Deposit Conventional", Unit: "Birr", Measure: "Volume", IsDeposit: true},
	{Name: "Deposit Conventional Out", Unit: "Birr", Measure: "Volume", IsOutflow: true, Parent: "Deposit Conventional"},
	{Name: "Deposit IFB", Unit: "Birr", Measure: "Volume", IsDeposit: true},
	{Name: "Deposit IFB Out", Unit: "Birr", Measure: "Volume", IsOutflow: true, Parent: "Deposit IFB"},
	{Name: "FCY Conv.", Unit: "USD", Measure: "Inflow"},
	{Name: "FCY IFB", Unit: "USD", Measure: "Inflow"},
	{Name: "New account conventional", Unit: "Count", Measure: "Accounts"},
	{Name: "New account IFB", Unit: "Count", Measure: "Accounts"},
	{Name: "SuperApp subscription conv.", Unit: "Count", Measure: "Users"},
	{Name: "SuperApp IFB", Unit: "Count", Measure: "Users"},
	{Name: "ATM Card conv.", Unit: "Count", Measure: "Cards"},
	{Name: "ATM Card IFB", Unit: "Count", Measure: "Cards"},
	{Name: "Active account Conv.", Unit: "Count", Measure: "Accounts"},
	{Name: "Active account IFB", Unit: "Count", Measure: "Accounts"},
	{Name: "Active SuperApp subscriber Conv.", Unit: "Count", Measure: "Users"},
	{Name: "Active SuperApp Subscription IFB", Unit: "Count", Measure: "Users"},
	{Name: "ATM Card active conv.", Unit: "Count", Measure: "Cards"},
	{Name: "ATM Card active IFB", Unit: "Count", Measure: "Cards"},
	{Name: "DashenPlus subscription conv.", Unit: "Count", Measure: "Subs"},
	{Name: "DashenPlus subscription IFB", Unit: "Count", Measure: "Subs"},
	{Name: "DashenPlus active conv.", Unit: "Count", Measure: "Subs"},
	{Name: "DashenPlus active IFB", Unit: "Count", Measure: "Subs"},
	{Name: "Agency activation", Unit: "Count", Measure: "Agents"},
	{Name: "POS Merchant", Unit: "Count", Measure: "Merchants"},
}
