package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/Chrissalvo1985/monitor-gestion-integral-sub000/core"
	"github.com/Chrissalvo1985/monitor-gestion-integral-sub000/core/status"
	"github.com/Chrissalvo1985/monitor-gestion-integral-sub000/core/tech"
)

const (
	platformColumns       = "id, name, category, created_at, updated_at"
	implementationColumns = "id, client_id, platform_id, status, progress, target_date, notes, created_at, updated_at"
)

var platformOrderFields = []string{"name", "category", "created_at", "updated_at"}

type platformRow struct {
	ID        string    `db:"id"`
	Name      string    `db:"name"`
	Category  string    `db:"category"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

type implementationRow struct {
	ID         string    `db:"id"`
	ClientID   string    `db:"client_id"`
	PlatformID string    `db:"platform_id"`
	Status     string    `db:"status"`
	Progress   int       `db:"progress"`
	TargetDate null.Time `db:"target_date"`
	Notes      string    `db:"notes"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}

type techRepository struct {
	db core.DB
}

var _ tech.Repository = (*techRepository)(nil) // interface compliance check

func NewTechRepository(db core.DB) *techRepository {
	return &techRepository{db: db}
}

func (repo techRepository) platformFromRow(row platformRow) tech.Platform {
	return tech.Platform{
		ID:        row.ID,
		Name:      row.Name,
		Category:  row.Category,
		CreatedAt: row.CreatedAt.UTC(),
		UpdatedAt: row.UpdatedAt.UTC(),
	}
}

func (repo techRepository) implToRow(impl tech.Implementation) implementationRow {
	return implementationRow{
		ID:         impl.ID,
		ClientID:   impl.ClientID,
		PlatformID: impl.PlatformID,
		Status:     string(impl.Status),
		Progress:   impl.Progress,
		TargetDate: nullDate(impl.TargetDate),
		Notes:      impl.Notes,
		CreatedAt:  impl.CreatedAt.UTC(),
		UpdatedAt:  impl.UpdatedAt.UTC(),
	}
}

func (repo techRepository) implFromRow(row implementationRow) tech.Implementation {
	return tech.Implementation{
		ID:         row.ID,
		ClientID:   row.ClientID,
		PlatformID: row.PlatformID,
		Status:     status.Status(row.Status),
		Progress:   row.Progress,
		TargetDate: dateFromNull(row.TargetDate),
		Notes:      row.Notes,
		CreatedAt:  row.CreatedAt.UTC(),
		UpdatedAt:  row.UpdatedAt.UTC(),
	}
}

func (repo techRepository) CreatePlatform(ctx context.Context, p tech.Platform) (tech.Platform, error) {
	row := platformRow{ID: p.ID, Name: p.Name, Category: p.Category, CreatedAt: p.CreatedAt.UTC(), UpdatedAt: p.UpdatedAt.UTC()}
	q := `INSERT INTO platforms (` + platformColumns + `) VALUES (:id, :name, :category, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, repo.db, q, row); err != nil {
		return tech.Platform{}, trapConstraint(err, tech.ErrPlatformExists, nil, "inserting platform")
	}
	return repo.platformFromRow(row), nil
}

func (repo techRepository) QueryAllPlatforms(ctx context.Context, ordering ...core.DBOrdering) ([]tech.Platform, error) {
	var rows []platformRow
	q := "SELECT " + platformColumns + " FROM platforms" + orderBy(ordering, platformOrderFields, "name ASC")
	if err := sqlx.SelectContext(ctx, repo.db, &rows, q); err != nil {
		return nil, errors.Wrap(err, "querying platforms")
	}
	platforms := make([]tech.Platform, 0, len(rows))
	for _, r := range rows {
		platforms = append(platforms, repo.platformFromRow(r))
	}
	return platforms, nil
}

func (repo techRepository) GetPlatformByID(ctx context.Context, id string) (tech.Platform, error) {
	var row platformRow
	q := repo.db.Rebind("SELECT " + platformColumns + " FROM platforms WHERE id = ?")
	if err := sqlx.GetContext(ctx, repo.db, &row, q, id); err != nil {
		return tech.Platform{}, trapNoRows(err, tech.ErrPlatformNotFound, "getting platform")
	}
	return repo.platformFromRow(row), nil
}

func (repo techRepository) UpdatePlatform(ctx context.Context, p tech.Platform) (tech.Platform, error) {
	row := platformRow{ID: p.ID, Name: p.Name, Category: p.Category, CreatedAt: p.CreatedAt.UTC(), UpdatedAt: p.UpdatedAt.UTC()}
	q := `UPDATE platforms SET name = :name, category = :category, updated_at = :updated_at WHERE id = :id`
	res, err := sqlx.NamedExecContext(ctx, repo.db, q, row)
	if err != nil {
		return tech.Platform{}, trapConstraint(err, tech.ErrPlatformExists, nil, "updating platform")
	}
	if err = checkAffected(res, tech.ErrPlatformNotFound, "updating platform"); err != nil {
		return tech.Platform{}, err
	}
	return repo.platformFromRow(row), nil
}

func (repo techRepository) DeletePlatformsByID(ctx context.Context, ids ...string) error {
	return deleteByID(ctx, repo.db, "platforms", ids)
}

func (repo techRepository) CreateImplementation(ctx context.Context, impl tech.Implementation) (tech.Implementation, error) {
	row := repo.implToRow(impl)
	q := `INSERT INTO tech_implementations (` + implementationColumns + `)
		VALUES (:id, :client_id, :platform_id, :status, :progress, :target_date, :notes, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, repo.db, q, row); err != nil {
		return tech.Implementation{}, trapConstraint(err, tech.ErrImplementationExists, nil, "inserting tech implementation")
	}
	return repo.implFromRow(row), nil
}

func (repo techRepository) FilterImplementations(ctx context.Context, filter tech.QueryFilter) ([]tech.Implementation, error) {
	var w where
	if filter.ClientIDs != nil {
		if len(filter.ClientIDs) == 0 {
			return []tech.Implementation{}, nil
		}
		w.add("client_id IN (?)", filter.ClientIDs)
	}
	if filter.PlatformID != "" {
		w.add("platform_id = ?", filter.PlatformID)
	}
	if len(filter.Statuses) > 0 {
		w.add("status IN (?)", statusStrings(filter.Statuses))
	}

	q, args, err := w.build(repo.db, "SELECT "+implementationColumns+" FROM tech_implementations"+w.String()+" ORDER BY client_id, id")
	if err != nil {
		return nil, err
	}
	var rows []implementationRow
	if err = sqlx.SelectContext(ctx, repo.db, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying tech implementations")
	}
	impls := make([]tech.Implementation, 0, len(rows))
	for _, r := range rows {
		impls = append(impls, repo.implFromRow(r))
	}
	return impls, nil
}

func (repo techRepository) GetImplementationByID(ctx context.Context, id string) (tech.Implementation, error) {
	var row implementationRow
	q := repo.db.Rebind("SELECT " + implementationColumns + " FROM tech_implementations WHERE id = ?")
	if err := sqlx.GetContext(ctx, repo.db, &row, q, id); err != nil {
		return tech.Implementation{}, trapNoRows(err, tech.ErrImplementationNotFound, "getting tech implementation")
	}
	return repo.implFromRow(row), nil
}

func (repo techRepository) UpdateImplementation(ctx context.Context, impl tech.Implementation) (tech.Implementation, error) {
	row := repo.implToRow(impl)
	q := `UPDATE tech_implementations SET status = :status, progress = :progress, target_date = :target_date,
		notes = :notes, updated_at = :updated_at
		WHERE id = :id`
	res, err := sqlx.NamedExecContext(ctx, repo.db, q, row)
	if err != nil {
		return tech.Implementation{}, errors.Wrap(err, "updating tech implementation")
	}
	if err = checkAffected(res, tech.ErrImplementationNotFound, "updating tech implementation"); err != nil {
		return tech.Implementation{}, err
	}
	return repo.implFromRow(row), nil
}

func (repo techRepository) DeleteImplementationsByID(ctx context.Context, ids ...string) error {
	return deleteByID(ctx, repo.db, "tech_implementations", ids)
}

func statusStrings(statuses []status.Status) []string {
	out := make([]string, 0, len(statuses))
	for _, s := range statuses {
		out = append(out, string(s))
	}
	return out
}
