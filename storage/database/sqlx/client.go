package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/Chrissalvo1985/monitor-gestion-integral-sub000/core"
	"github.com/Chrissalvo1985/monitor-gestion-integral-sub000/core/client"
)

const clientColumns = "id, name, management_group, owner_id, headcount, created_at, updated_at"

var clientOrderFields = []string{"name", "management_group", "headcount", "created_at", "updated_at"}

type clientRow struct {
	ID              string      `db:"id"`
	Name            string      `db:"name"`
	ManagementGroup string      `db:"management_group"`
	OwnerID         null.String `db:"owner_id"`
	Headcount       int         `db:"headcount"`
	CreatedAt       time.Time   `db:"created_at"`
	UpdatedAt       time.Time   `db:"updated_at"`
}

type clientRepository struct {
	db core.DB
}

var _ client.Repository = (*clientRepository)(nil) // interface compliance check

func NewClientRepository(db core.DB) *clientRepository {
	return &clientRepository{db: db}
}

func (repo clientRepository) toRow(c client.Client) clientRow {
	return clientRow{
		ID:              c.ID,
		Name:            c.Name,
		ManagementGroup: c.ManagementGroup,
		OwnerID:         nullString(c.OwnerID),
		Headcount:       c.Headcount,
		CreatedAt:       c.CreatedAt.UTC(),
		UpdatedAt:       c.UpdatedAt.UTC(),
	}
}

func (repo clientRepository) fromRow(row clientRow) client.Client {
	return client.Client{
		ID:              row.ID,
		Name:            row.Name,
		ManagementGroup: row.ManagementGroup,
		OwnerID:         row.OwnerID.String,
		Headcount:       row.Headcount,
		CreatedAt:       row.CreatedAt.UTC(),
		UpdatedAt:       row.UpdatedAt.UTC(),
	}
}

func (repo clientRepository) CreateClient(ctx context.Context, c client.Client) (client.Client, error) {
	q := `INSERT INTO clients (` + clientColumns + `)
		VALUES (:id, :name, :management_group, :owner_id, :headcount, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, repo.db, q, repo.toRow(c)); err != nil {
		return client.Client{}, trapConstraint(err, client.ErrNameExists, client.ErrOwnerNotFound, "inserting client")
	}
	return repo.GetClientByID(ctx, c.ID)
}

func (repo clientRepository) QueryAllClients(ctx context.Context, ordering ...core.DBOrdering) ([]client.Client, error) {
	var rows []clientRow
	q := "SELECT " + clientColumns + " FROM clients" + orderBy(ordering, clientOrderFields, "name ASC")
	if err := sqlx.SelectContext(ctx, repo.db, &rows, q); err != nil {
		return nil, errors.Wrap(err, "querying clients")
	}
	clients := make([]client.Client, 0, len(rows))
	for _, r := range rows {
		clients = append(clients, repo.fromRow(r))
	}
	return clients, nil
}

func (repo clientRepository) GetClientByID(ctx context.Context, id string) (client.Client, error) {
	var row clientRow
	q := repo.db.Rebind("SELECT " + clientColumns + " FROM clients WHERE id = ?")
	if err := sqlx.GetContext(ctx, repo.db, &row, q, id); err != nil {
		return client.Client{}, trapNoRows(err, client.ErrNotFound, "getting client")
	}
	return repo.fromRow(row), nil
}

func (repo clientRepository) UpdateClient(ctx context.Context, c client.Client) (client.Client, error) {
	q := `UPDATE clients SET name = :name, management_group = :management_group, owner_id = :owner_id,
		headcount = :headcount, updated_at = :updated_at
		WHERE id = :id`
	res, err := sqlx.NamedExecContext(ctx, repo.db, q, repo.toRow(c))
	if err != nil {
		return client.Client{}, trapConstraint(err, client.ErrNameExists, client.ErrOwnerNotFound, "updating client")
	}
	if err = checkAffected(res, client.ErrNotFound, "updating client"); err != nil {
		return client.Client{}, err
	}
	return repo.GetClientByID(ctx, c.ID)
}

func (repo clientRepository) DeleteClientsByID(ctx context.Context, ids ...string) error {
	return deleteByID(ctx, repo.db, "clients", ids)
}
