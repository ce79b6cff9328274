// Package gadgets is the PostgreSQL-backed equipment registry.
package gadgets

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/anshc022/imf-gadget-api/internal/common"
	"github.com/anshc022/imf-gadget-api/internal/dbx"
	"github.com/anshc022/imf-gadget-api/internal/server/models"
)

const columns = `id, name, status, category, description, reliability, power_level, mission_count,
		 last_mission_date, last_maintenance_date, next_maintenance_due,
		 decommissioned_at, decommission_reason, technical_specs, created_at, updated_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Create inserts g with its caller-assigned id. A codename clash yields
// common.ErrorDuplicateIdentity.
func (r *PostgresRepository) Create(ctx context.Context, g *models.Gadget) (*models.Gadget, error) {
	specs, err := encodeSpecs(g.TechnicalSpecs)
	if err != nil {
		return nil, err
	}

	query :=
		`INSERT INTO gadgets (id, name, status, category, description, reliability, power_level, mission_count,
		 last_mission_date, last_maintenance_date, next_maintenance_due,
		 decommissioned_at, decommission_reason, technical_specs)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		 RETURNING created_at, updated_at
		 `

	err = r.db.QueryRowContext(ctx, query,
		g.ID, g.Name, string(g.Status), g.Category, g.Description, g.Reliability, g.PowerLevel, g.MissionCount,
		g.LastMissionDate, g.LastMaintenanceDate, g.NextMaintenanceDue,
		g.DecommissionedAt, g.DecommissionReason, specs).Scan(&g.CreatedAt, &g.UpdatedAt)

	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, common.ErrorDuplicateIdentity
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return g, nil
}

func (r *PostgresRepository) FindByID(ctx context.Context, id string) (*models.Gadget, error) {
	query := `SELECT ` + columns + ` FROM gadgets
		 WHERE id = $1
		 `

	return scanGadget(r.db.QueryRowContext(ctx, query, id))
}

func (r *PostgresRepository) FindByIDForUpdate(ctx context.Context, id string) (*models.Gadget, error) {
	query := `SELECT ` + columns + ` FROM gadgets
		 WHERE id = $1
		 FOR UPDATE
		 `

	return scanGadget(r.db.QueryRowContext(ctx, query, id))
}

// Save writes every mutable column of g and refreshes UpdatedAt.
func (r *PostgresRepository) Save(ctx context.Context, g *models.Gadget) (*models.Gadget, error) {
	specs, err := encodeSpecs(g.TechnicalSpecs)
	if err != nil {
		return nil, err
	}

	query :=
		`UPDATE gadgets SET name = $2, status = $3, category = $4, description = $5, reliability = $6,
		 power_level = $7, mission_count = $8, last_mission_date = $9, last_maintenance_date = $10,
		 next_maintenance_due = $11, decommissioned_at = $12, decommission_reason = $13,
		 technical_specs = $14, updated_at = now()
		 WHERE id = $1
		 RETURNING updated_at
		 `

	err = r.db.QueryRowContext(ctx, query,
		g.ID, g.Name, string(g.Status), g.Category, g.Description, g.Reliability,
		g.PowerLevel, g.MissionCount, g.LastMissionDate, g.LastMaintenanceDate,
		g.NextMaintenanceDue, g.DecommissionedAt, g.DecommissionReason, specs).Scan(&g.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		if dbx.IsUniqueViolation(err) {
			return nil, common.ErrorDuplicateIdentity
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return g, nil
}

func (r *PostgresRepository) ListByStatus(ctx context.Context, status models.Status) ([]models.Gadget, error) {
	var (
		rows *sql.Rows
		err  error
	)

	if status == "" {
		query := `SELECT ` + columns + ` FROM gadgets
		 WHERE status <> $1
		 ORDER BY created_at, id
		 `
		rows, err = r.db.QueryContext(ctx, query, string(models.StatusDestroyed))
	} else {
		query := `SELECT ` + columns + ` FROM gadgets
		 WHERE status = $1
		 ORDER BY created_at, id
		 `
		rows, err = r.db.QueryContext(ctx, query, string(status))
	}
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]models.Gadget, 0)
	for rows.Next() {
		g, err := scanGadget(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanGadget(row scanner) (*models.Gadget, error) {
	g := &models.Gadget{}
	var (
		status string
		specs  []byte
	)

	err := row.Scan(&g.ID, &g.Name, &status, &g.Category, &g.Description, &g.Reliability, &g.PowerLevel, &g.MissionCount,
		&g.LastMissionDate, &g.LastMaintenanceDate, &g.NextMaintenanceDue,
		&g.DecommissionedAt, &g.DecommissionReason, &specs, &g.CreatedAt, &g.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	g.Status = models.Status(status)

	g.TechnicalSpecs = map[string]any{}
	if len(specs) > 0 {
		if err := json.Unmarshal(specs, &g.TechnicalSpecs); err != nil {
			return nil, fmt.Errorf("decode technical_specs: %w", err)
		}
	}

	return g, nil
}

func encodeSpecs(specs map[string]any) ([]byte, error) {
	if specs == nil {
		return []byte(`{}`), nil
	}
	b, err := json.Marshal(specs)
	if err != nil {
		return nil, fmt.Errorf("encode technical_specs: %w", err)
	}
	return b, nil
}
