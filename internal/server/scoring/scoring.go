// Package scoring computes the mission-success probability of a gadget and
// its maintenance schedule. Every function takes the current time explicitly.
package scoring

import (
	"math"
	"strconv"
	"time"

	"github.com/anshc022/imf-gadget-api/internal/server/models"
)

const (
	// MissionThreshold is the mission count at which deploying a gadget
	// pulls its next maintenance forward.
	MissionThreshold = 5
	// PostMissionMaintenanceWindow is the maintenance deadline set after a
	// deployment once MissionThreshold is reached.
	PostMissionMaintenanceWindow = 7 * 24 * time.Hour
	// MaintenanceInterval is the deadline set by creation and by maintenance.
	MaintenanceInterval = 30 * 24 * time.Hour

	MissionPenalty = 2.0
	PowerPenalty   = 0.5
	OverduePenalty = 15.0
)

// SuccessProbability returns the mission-success probability of g at now as
// an integer percentage in [0,100].
func SuccessProbability(g models.Gadget, now time.Time) int {
	base := g.Reliability * 100
	missionPenalty := float64(g.MissionCount) * MissionPenalty
	powerPenalty := float64(models.MaxPowerLevel-g.PowerLevel) * PowerPenalty

	var maintenancePenalty float64
	if IsMaintenanceOverdue(g, now) {
		maintenancePenalty = OverduePenalty
	}

	p := base - missionPenalty - powerPenalty - maintenancePenalty
	p = math.Max(0, math.Min(100, p))

	return int(math.Round(p))
}

// IsMaintenanceOverdue reports whether the maintenance deadline has passed.
func IsMaintenanceOverdue(g models.Gadget, now time.Time) bool {
	return g.NextMaintenanceDue != nil && now.After(*g.NextMaintenanceDue)
}

// ScheduleNextMaintenance pulls the maintenance deadline to now+7d once the
// gadget has flown MissionThreshold missions. Below the threshold g is left
// untouched.
func ScheduleNextMaintenance(g *models.Gadget, now time.Time) {
	if g.MissionCount >= MissionThreshold {
		due := now.Add(PostMissionMaintenanceWindow)
		g.NextMaintenanceDue = &due
	}
}

// NextRoutineMaintenance is the deadline stamped at creation and after
// maintenance.
func NextRoutineMaintenance(now time.Time) time.Time {
	return now.Add(MaintenanceInterval)
}

// Format renders a probability the way the API reports it, e.g. "80%".
func Format(p int) string {
	return strconv.Itoa(p) + "%"
}

// Annotate returns g with a freshly computed probability attached.
func Annotate(g models.Gadget, now time.Time) models.GadgetView {
	return models.GadgetView{
		Gadget:                    g,
		MissionSuccessProbability: Format(SuccessProbability(g, now)),
	}
}
