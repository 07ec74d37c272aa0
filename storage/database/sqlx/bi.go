package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/Chrissalvo1985/monitor-gestion-integral-sub000/core"
	"github.com/Chrissalvo1985/monitor-gestion-integral-sub000/core/bi"
	"github.com/Chrissalvo1985/monitor-gestion-integral-sub000/core/status"
)

const (
	panelColumns       = "id, name, description, created_at, updated_at"
	clientPanelColumns = "id, client_id, panel_id, status, progress, target_date, created_at, updated_at"
)

var panelOrderFields = []string{"name", "created_at", "updated_at"}

type panelRow struct {
	ID          string    `db:"id"`
	Name        string    `db:"name"`
	Description string    `db:"description"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

type clientPanelRow struct {
	ID         string    `db:"id"`
	ClientID   string    `db:"client_id"`
	PanelID    string    `db:"panel_id"`
	Status     string    `db:"status"`
	Progress   int       `db:"progress"`
	TargetDate null.Time `db:"target_date"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}

type biRepository struct {
	db core.DB
}

var _ bi.Repository = (*biRepository)(nil) // interface compliance check

func NewBIRepository(db core.DB) *biRepository {
	return &biRepository{db: db}
}

func (repo biRepository) panelToRow(p bi.Panel) panelRow {
	return panelRow{ID: p.ID, Name: p.Name, Description: p.Description, CreatedAt: p.CreatedAt.UTC(), UpdatedAt: p.UpdatedAt.UTC()}
}

func (repo biRepository) panelFromRow(row panelRow) bi.Panel {
	return bi.Panel{
		ID:          row.ID,
		Name:        row.Name,
		Description: row.Description,
		CreatedAt:   row.CreatedAt.UTC(),
		UpdatedAt:   row.UpdatedAt.UTC(),
	}
}

func (repo biRepository) clientPanelToRow(cp bi.ClientPanel) clientPanelRow {
	return clientPanelRow{
		ID:         cp.ID,
		ClientID:   cp.ClientID,
		PanelID:    cp.PanelID,
		Status:     string(cp.Status),
		Progress:   cp.Progress,
		TargetDate: nullDate(cp.TargetDate),
		CreatedAt:  cp.CreatedAt.UTC(),
		UpdatedAt:  cp.UpdatedAt.UTC(),
	}
}

func (repo biRepository) clientPanelFromRow(row clientPanelRow) bi.ClientPanel {
	return bi.ClientPanel{
		ID:         row.ID,
		ClientID:   row.ClientID,
		PanelID:    row.PanelID,
		Status:     status.Status(row.Status),
		Progress:   row.Progress,
		TargetDate: dateFromNull(row.TargetDate),
		CreatedAt:  row.CreatedAt.UTC(),
		UpdatedAt:  row.UpdatedAt.UTC(),
	}
}

func (repo biRepository) CreatePanel(ctx context.Context, p bi.Panel) (bi.Panel, error) {
	row := repo.panelToRow(p)
	q := `INSERT INTO bi_panels (` + panelColumns + `) VALUES (:id, :name, :description, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, repo.db, q, row); err != nil {
		return bi.Panel{}, trapConstraint(err, bi.ErrPanelExists, nil, "inserting panel")
	}
	return repo.panelFromRow(row), nil
}

func (repo biRepository) QueryAllPanels(ctx context.Context, ordering ...core.DBOrdering) ([]bi.Panel, error) {
	var rows []panelRow
	q := "SELECT " + panelColumns + " FROM bi_panels" + orderBy(ordering, panelOrderFields, "name ASC")
	if err := sqlx.SelectContext(ctx, repo.db, &rows, q); err != nil {
		return nil, errors.Wrap(err, "querying panels")
	}
	panels := make([]bi.Panel, 0, len(rows))
	for _, r := range rows {
		panels = append(panels, repo.panelFromRow(r))
	}
	return panels, nil
}

func (repo biRepository) GetPanelByID(ctx context.Context, id string) (bi.Panel, error) {
	var row panelRow
	q := repo.db.Rebind("SELECT " + panelColumns + " FROM bi_panels WHERE id = ?")
	if err := sqlx.GetContext(ctx, repo.db, &row, q, id); err != nil {
		return bi.Panel{}, trapNoRows(err, bi.ErrPanelNotFound, "getting panel")
	}
	return repo.panelFromRow(row), nil
}

func (repo biRepository) UpdatePanel(ctx context.Context, p bi.Panel) (bi.Panel, error) {
	row := repo.panelToRow(p)
	q := `UPDATE bi_panels SET name = :name, description = :description, updated_at = :updated_at WHERE id = :id`
	res, err := sqlx.NamedExecContext(ctx, repo.db, q, row)
	if err != nil {
		return bi.Panel{}, trapConstraint(err, bi.ErrPanelExists, nil, "updating panel")
	}
	if err = checkAffected(res, bi.ErrPanelNotFound, "updating panel"); err != nil {
		return bi.Panel{}, err
	}
	return repo.panelFromRow(row), nil
}

func (repo biRepository) DeletePanelsByID(ctx context.Context, ids ...string) error {
	return deleteByID(ctx, repo.db, "bi_panels", ids)
}

func (repo biRepository) CreateClientPanel(ctx context.Context, cp bi.ClientPanel) (bi.ClientPanel, error) {
	row := repo.clientPanelToRow(cp)
	q := `INSERT INTO bi_client_panels (` + clientPanelColumns + `)
		VALUES (:id, :client_id, :panel_id, :status, :progress, :target_date, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, repo.db, q, row); err != nil {
		return bi.ClientPanel{}, trapConstraint(err, bi.ErrClientPanelExists, nil, "inserting client panel")
	}
	return repo.clientPanelFromRow(row), nil
}

func (repo biRepository) FilterClientPanels(ctx context.Context, filter bi.QueryFilter) ([]bi.ClientPanel, error) {
	var w where
	if filter.ClientIDs != nil {
		if len(filter.ClientIDs) == 0 {
			return []bi.ClientPanel{}, nil
		}
		w.add("client_id IN (?)", filter.ClientIDs)
	}
	if filter.PanelID != "" {
		w.add("panel_id = ?", filter.PanelID)
	}
	if len(filter.Statuses) > 0 {
		w.add("status IN (?)", statusStrings(filter.Statuses))
	}

	q, args, err := w.build(repo.db, "SELECT "+clientPanelColumns+" FROM bi_client_panels"+w.String()+" ORDER BY client_id, id")
	if err != nil {
		return nil, err
	}
	var rows []clientPanelRow
	if err = sqlx.SelectContext(ctx, repo.db, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying client panels")
	}
	panels := make([]bi.ClientPanel, 0, len(rows))
	for _, r := range rows {
		panels = append(panels, repo.clientPanelFromRow(r))
	}
	return panels, nil
}

func (repo biRepository) GetClientPanelByID(ctx context.Context, id string) (bi.ClientPanel, error) {
	var row clientPanelRow
	q := repo.db.Rebind("SELECT " + clientPanelColumns + " FROM bi_client_panels WHERE id = ?")
	if err := sqlx.GetContext(ctx, repo.db, &row, q, id); err != nil {
		return bi.ClientPanel{}, trapNoRows(err, bi.ErrClientPanelNotFound, "getting client panel")
	}
	return repo.clientPanelFromRow(row), nil
}

func (repo biRepository) UpdateClientPanel(ctx context.Context, cp bi.ClientPanel) (bi.ClientPanel, error) {
	row := repo.clientPanelToRow(cp)
	q := `UPDATE bi_client_panels SET status = :status, progress = :progress, target_date = :target_date,
		updated_at = :updated_at
		WHERE id = :id`
	res, err := sqlx.NamedExecContext(ctx, repo.db, q, row)
	if err != nil {
		return bi.ClientPanel{}, errors.Wrap(err, "updating client panel")
	}
	if err = checkAffected(res, bi.ErrClientPanelNotFound, "updating client panel"); err != nil {
		return bi.ClientPanel{}, err
	}
	return repo.clientPanelFromRow(row), nil
}

func (repo biRepository) DeleteClientPanelsByID(ctx context.Context, ids ...string) error {
	return deleteByID(ctx, repo.db, "bi_client_panels", ids)
}
