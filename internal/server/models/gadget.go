// Package models defines server-side data models persisted in the database.
package models

import (
	"time"
)

// Status is the lifecycle state of a gadget.
type Status string

const (
	StatusAvailable      Status = "Available"
	StatusDeployed       Status = "Deployed"
	StatusDestroyed      Status = "Destroyed"
	StatusDecommissioned Status = "Decommissioned"
)

// Statuses lists every known status.
var Statuses = []Status{StatusAvailable, StatusDeployed, StatusDestroyed, StatusDecommissioned}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	switch s {
	case StatusAvailable, StatusDeployed, StatusDestroyed, StatusDecommissioned:
		return true
	}
	return false
}

// IsTerminal reports whether no further status change is allowed.
func (s Status) IsTerminal() bool {
	return s == StatusDestroyed || s == StatusDecommissioned
}

// Known categories. The category column is open-ended; these are the values
// the API advertises.
const (
	CategorySurveillance  = "Surveillance"
	CategoryInfiltration  = "Infiltration"
	CategoryCombat        = "Combat"
	CategoryTransport     = "Transport"
	CategoryCommunication = "Communication"

	DefaultCategory = CategorySurveillance
)

// Default values stamped on newly created gadgets.
const (
	DefaultReliability = 0.8
	MaxPowerLevel      = 100
)

// Gadget is a tracked piece of equipment.
type Gadget struct {
	ID                  string         `json:"id"`
	Name                string         `json:"name"`
	Status              Status         `json:"status"`
	Category            string         `json:"category"`
	Description         *string        `json:"description"`
	Reliability         float64        `json:"reliability"`
	PowerLevel          int            `json:"powerLevel"`
	MissionCount        int            `json:"missionCount"`
	LastMissionDate     *time.Time     `json:"lastMissionDate"`
	LastMaintenanceDate *time.Time     `json:"lastMaintenanceDate"`
	NextMaintenanceDue  *time.Time     `json:"nextMaintenanceDue"`
	DecommissionedAt    *time.Time     `json:"decommissionedAt"`
	DecommissionReason  *string        `json:"decommissionReason"`
	TechnicalSpecs      map[string]any `json:"technicalSpecs"`
	CreatedAt           time.Time      `json:"createdAt"`
	UpdatedAt           time.Time      `json:"updatedAt"`
}

// Clamp forces reliability into [0,1], powerLevel into [0,100] and
// missionCount to be non-negative.
func (g *Gadget) Clamp() {
	g.Reliability = min(max(g.Reliability, 0), 1)
	g.PowerLevel = min(max(g.PowerLevel, 0), MaxPowerLevel)
	g.MissionCount = max(g.MissionCount, 0)
}

// Retire moves the gadget into a terminal status, stamping the decommission
// timestamp and reason together.
func (g *Gadget) Retire(status Status, reason string, at time.Time) {
	g.Status = status
	g.DecommissionedAt = &at
	g.DecommissionReason = &reason
}

// GadgetView is a gadget annotated with its read-time success probability.
type GadgetView struct {
	Gadget
	MissionSuccessProbability string `json:"missionSuccessProbability"`
}
