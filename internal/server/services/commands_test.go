package services

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/anshc022/imf-gadget-api/internal/common"
	"github.com/anshc022/imf-gadget-api/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUpdateGadgetCommand_Apply(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	t.Run("empty command changes nothing", func(t *testing.T) {
		g := models.Gadget{Status: models.StatusAvailable, MissionCount: 2}
		require.NoError(t, UpdateGadgetCommand{}.Apply(&g, now))
		assert.Equal(t, models.Gadget{Status: models.StatusAvailable, MissionCount: 2}, g)
	})

	t.Run("deploy below threshold keeps schedule", func(t *testing.T) {
		due := now.Add(10 * 24 * time.Hour)
		g := models.Gadget{Status: models.StatusAvailable, MissionCount: 1, NextMaintenanceDue: &due}
		require.NoError(t, UpdateGadgetCommand{Status: statusPtr(models.StatusDeployed)}.Apply(&g, now))
		assert.Equal(t, 2, g.MissionCount)
		assert.Equal(t, due, *g.NextMaintenanceDue)
		assert.Equal(t, now, *g.LastMissionDate)
	})

	t.Run("redeploy counts another mission", func(t *testing.T) {
		g := models.Gadget{Status: models.StatusDeployed, MissionCount: 1}
		require.NoError(t, UpdateGadgetCommand{Status: statusPtr(models.StatusDeployed)}.Apply(&g, now))
		assert.Equal(t, 2, g.MissionCount)
	})

	t.Run("explicit mission count wins over deploy increment", func(t *testing.T) {
		g := models.Gadget{Status: models.StatusAvailable, MissionCount: 1}
		cmd := UpdateGadgetCommand{Status: statusPtr(models.StatusDeployed), MissionCount: intPtr(7)}
		require.NoError(t, cmd.Apply(&g, now))
		assert.Equal(t, 7, g.MissionCount)
	})

	t.Run("destroy without reason gets default", func(t *testing.T) {
		g := models.Gadget{Status: models.StatusDeployed}
		require.NoError(t, UpdateGadgetCommand{Status: statusPtr(models.StatusDestroyed)}.Apply(&g, now))
		assert.Equal(t, DestroyedReason, *g.DecommissionReason)
		assert.Equal(t, now, *g.DecommissionedAt)
	})

	t.Run("reason update on terminal gadget", func(t *testing.T) {
		g := models.Gadget{Status: models.StatusAvailable}
		g.Retire(models.StatusDecommissioned, "old", now)
		require.NoError(t, UpdateGadgetCommand{DecommissionReason: sptr("new")}.Apply(&g, now.Add(time.Hour)))
		assert.Equal(t, "new", *g.DecommissionReason)
		assert.Equal(t, now, *g.DecommissionedAt)
	})

	t.Run("back to available from deployed", func(t *testing.T) {
		g := models.Gadget{Status: models.StatusDeployed}
		require.NoError(t, UpdateGadgetCommand{Status: statusPtr(models.StatusAvailable)}.Apply(&g, now))
		assert.Equal(t, models.StatusAvailable, g.Status)
		assert.Nil(t, g.DecommissionedAt)
	})

	t.Run("terminal is final", func(t *testing.T) {
		g := models.Gadget{Status: models.StatusDecommissioned}
		err := UpdateGadgetCommand{Status: statusPtr(models.StatusAvailable)}.Apply(&g, now)
		assert.ErrorIs(t, err, common.ErrTerminalStatus)
		assert.Equal(t, models.StatusDecommissioned, g.Status)
	})
}

func TestCommandValidation(t *testing.T) {
	assert.NoError(t, LoginCommand{Username: "bond", Password: "x"}.Validate())
	assert.ErrorIs(t, LoginCommand{Username: "bond"}.Validate(), common.ErrorInvalidInput)
	assert.ErrorIs(t, ChangePasswordCommand{NewPassword: "secret1"}.Validate(), common.ErrorInvalidInput)
	assert.ErrorIs(t, CreateAdminCommand{Username: "m", Password: "secret1"}.Validate(), common.ErrorInvalidInput)
	assert.NoError(t, CreateGadgetCommand{Name: "Pen"}.Validate())
	assert.ErrorIs(t, UpdateGadgetCommand{Name: sptr(" ")}.Validate(), common.ErrorInvalidInput)
	assert.ErrorIs(t, UpdateGadgetCommand{DecommissionReason: sptr("")}.Validate(), common.ErrorInvalidInput)
}

func TestUpdateGadgetCommand_LastMissionDateFormats(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		body string
		want time.Time
	}{
		{name: "date only", body: `{"lastMissionDate":"2024-11-05"}`, want: time.Date(2024, 11, 5, 0, 0, 0, 0, time.UTC)},
		{name: "timestamp", body: `{"lastMissionDate":"2024-11-05T14:00:00+01:00"}`, want: time.Date(2024, 11, 5, 13, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var cmd UpdateGadgetCommand
			require.NoError(t, json.Unmarshal([]byte(tt.body), &cmd))
			require.NoError(t, cmd.Validate())

			g := models.Gadget{Status: models.StatusAvailable}
			require.NoError(t, cmd.Apply(&g, now))
			assert.Equal(t, tt.want, *g.LastMissionDate)
		})
	}

	var cmd UpdateGadgetCommand
	assert.Error(t, json.Unmarshal([]byte(`{"lastMissionDate":"last tuesday"}`), &cmd))
}
