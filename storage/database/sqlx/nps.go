package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/Chrissalvo1985/monitor-gestion-integral-sub000/core"
	"github.com/Chrissalvo1985/monitor-gestion-integral-sub000/core/nps"
)

const npsColumns = "id, client_id, score, comment, responded_at, created_at"

type npsRow struct {
	ID          string    `db:"id"`
	ClientID    string    `db:"client_id"`
	Score       int       `db:"score"`
	Comment     string    `db:"comment"`
	RespondedAt time.Time `db:"responded_at"`
	CreatedAt   time.Time `db:"created_at"`
}

type npsRepository struct {
	db core.DB
}

var _ nps.Repository = (*npsRepository)(nil) // interface compliance check

func NewNPSRepository(db core.DB) *npsRepository {
	return &npsRepository{db: db}
}

func (repo npsRepository) fromRow(row npsRow) nps.Response {
	return nps.Response{
		ID:          row.ID,
		ClientID:    row.ClientID,
		Score:       row.Score,
		Comment:     row.Comment,
		RespondedAt: row.RespondedAt.UTC(),
		CreatedAt:   row.CreatedAt.UTC(),
	}
}

func (repo npsRepository) CreateResponse(ctx context.Context, r nps.Response) (nps.Response, error) {
	row := npsRow{
		ID:          r.ID,
		ClientID:    r.ClientID,
		Score:       r.Score,
		Comment:     r.Comment,
		RespondedAt: r.RespondedAt.UTC(),
		CreatedAt:   r.CreatedAt.UTC(),
	}
	q := `INSERT INTO nps_responses (` + npsColumns + `) VALUES (:id, :client_id, :score, :comment, :responded_at, :created_at)`
	if _, err := sqlx.NamedExecContext(ctx, repo.db, q, row); err != nil {
		return nps.Response{}, errors.Wrap(err, "inserting NPS response")
	}
	return repo.fromRow(row), nil
}

func (repo npsRepository) FilterResponses(ctx context.Context, filter nps.QueryFilter) ([]nps.Response, error) {
	var w where
	if filter.ClientIDs != nil {
		if len(filter.ClientIDs) == 0 {
			return []nps.Response{}, nil
		}
		w.add("client_id IN (?)", filter.ClientIDs)
	}
	if !filter.From.IsZero() {
		w.add("responded_at >= ?", filter.From.UTC())
	}
	if !filter.To.IsZero() {
		w.add("responded_at <= ?", filter.To.UTC())
	}

	q, args, err := w.build(repo.db, "SELECT "+npsColumns+" FROM nps_responses"+w.String()+" ORDER BY responded_at DESC, id")
	if err != nil {
		return nil, err
	}
	var rows []npsRow
	if err = sqlx.SelectContext(ctx, repo.db, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying NPS responses")
	}
	responses := make([]nps.Response, 0, len(rows))
	for _, r := range rows {
		responses = append(responses, repo.fromRow(r))
	}
	return responses, nil
}

func (repo npsRepository) GetResponseByID(ctx context.Context, id string) (nps.Response, error) {
	var row npsRow
	q := repo.db.Rebind("SELECT " + npsColumns + " FROM nps_responses WHERE id = ?")
	if err := sqlx.GetContext(ctx, repo.db, &row, q, id); err != nil {
		return nps.Response{}, trapNoRows(err, nps.ErrNotFound, "getting NPS response")
	}
	return repo.fromRow(row), nil
}

func (repo npsRepository) DeleteResponsesByID(ctx context.Context, ids ...string) error {
	return deleteByID(ctx, repo.db, "nps_responses", ids)
}
