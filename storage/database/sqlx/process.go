package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/Chrissalvo1985/monitor-gestion-integral-sub000/core"
	"github.com/Chrissalvo1985/monitor-gestion-integral-sub000/core/process"
	"github.com/Chrissalvo1985/monitor-gestion-integral-sub000/core/status"
)

const (
	areaColumns   = "id, name, created_at, updated_at"
	surveyColumns = "id, area_id, status, mapping, procedures, controls, evidence, surveyed_at, created_at, updated_at"
)

type areaRow struct {
	ID        string    `db:"id"`
	Name      string    `db:"name"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

type surveyRow struct {
	ID         string    `db:"id"`
	AreaID     string    `db:"area_id"`
	Status     string    `db:"status"`
	Mapping    int       `db:"mapping"`
	Procedures int       `db:"procedures"`
	Controls   int       `db:"controls"`
	Evidence   int       `db:"evidence"`
	SurveyedAt time.Time `db:"surveyed_at"`
	CreatedAt  time.Time `db:"created_at"`
	UpdatedAt  time.Time `db:"updated_at"`
}

type processRepository struct {
	db core.DB
}

var _ process.Repository = (*processRepository)(nil) // interface compliance check

func NewProcessRepository(db core.DB) *processRepository {
	return &processRepository{db: db}
}

func (repo processRepository) areaFromRow(row areaRow) process.Area {
	return process.Area{ID: row.ID, Name: row.Name, CreatedAt: row.CreatedAt.UTC(), UpdatedAt: row.UpdatedAt.UTC()}
}

func (repo processRepository) surveyToRow(s process.Survey) surveyRow {
	return surveyRow{
		ID:         s.ID,
		AreaID:     s.AreaID,
		Status:     string(s.Status),
		Mapping:    s.Mapping,
		Procedures: s.Procedures,
		Controls:   s.Controls,
		Evidence:   s.Evidence,
		SurveyedAt: s.SurveyedAt.UTC(),
		CreatedAt:  s.CreatedAt.UTC(),
		UpdatedAt:  s.UpdatedAt.UTC(),
	}
}

func (repo processRepository) surveyFromRow(row surveyRow) process.Survey {
	return process.Survey{
		ID:         row.ID,
		AreaID:     row.AreaID,
		Status:     status.Status(row.Status),
		Mapping:    row.Mapping,
		Procedures: row.Procedures,
		Controls:   row.Controls,
		Evidence:   row.Evidence,
		SurveyedAt: row.SurveyedAt.UTC(),
		CreatedAt:  row.CreatedAt.UTC(),
		UpdatedAt:  row.UpdatedAt.UTC(),
	}
}

func (repo processRepository) CreateArea(ctx context.Context, a process.Area) (process.Area, error) {
	row := areaRow{ID: a.ID, Name: a.Name, CreatedAt: a.CreatedAt.UTC(), UpdatedAt: a.UpdatedAt.UTC()}
	q := `INSERT INTO process_areas (` + areaColumns + `) VALUES (:id, :name, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, repo.db, q, row); err != nil {
		return process.Area{}, trapConstraint(err, process.ErrAreaExists, nil, "inserting area")
	}
	return repo.areaFromRow(row), nil
}

func (repo processRepository) QueryAllAreas(ctx context.Context) ([]process.Area, error) {
	var rows []areaRow
	if err := sqlx.SelectContext(ctx, repo.db, &rows, "SELECT "+areaColumns+" FROM process_areas ORDER BY name ASC"); err != nil {
		return nil, errors.Wrap(err, "querying areas")
	}
	areas := make([]process.Area, 0, len(rows))
	for _, r := range rows {
		areas = append(areas, repo.areaFromRow(r))
	}
	return areas, nil
}

func (repo processRepository) GetAreaByID(ctx context.Context, id string) (process.Area, error) {
	var row areaRow
	q := repo.db.Rebind("SELECT " + areaColumns + " FROM process_areas WHERE id = ?")
	if err := sqlx.GetContext(ctx, repo.db, &row, q, id); err != nil {
		return process.Area{}, trapNoRows(err, process.ErrAreaNotFound, "getting area")
	}
	return repo.areaFromRow(row), nil
}

func (repo processRepository) DeleteAreasByID(ctx context.Context, ids ...string) error {
	return deleteByID(ctx, repo.db, "process_areas", ids)
}

func (repo processRepository) CreateSurvey(ctx context.Context, s process.Survey) (process.Survey, error) {
	row := repo.surveyToRow(s)
	q := `INSERT INTO process_surveys (` + surveyColumns + `)
		VALUES (:id, :area_id, :status, :mapping, :procedures, :controls, :evidence, :surveyed_at, :created_at, :updated_at)`
	if _, err := sqlx.NamedExecContext(ctx, repo.db, q, row); err != nil {
		return process.Survey{}, trapConstraint(err, nil, process.ErrAreaNotFound, "inserting survey")
	}
	return repo.surveyFromRow(row), nil
}

func (repo processRepository) FilterSurveys(ctx context.Context, filter process.QueryFilter) ([]process.Survey, error) {
	var w where
	if filter.AreaID != "" {
		w.add("area_id = ?", filter.AreaID)
	}
	q, args, err := w.build(repo.db, "SELECT "+surveyColumns+" FROM process_surveys"+w.String()+" ORDER BY surveyed_at DESC, id")
	if err != nil {
		return nil, err
	}
	var rows []surveyRow
	if err = sqlx.SelectContext(ctx, repo.db, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying surveys")
	}
	surveys := make([]process.Survey, 0, len(rows))
	for _, r := range rows {
		surveys = append(surveys, repo.surveyFromRow(r))
	}
	return surveys, nil
}

func (repo processRepository) GetSurveyByID(ctx context.Context, id string) (process.Survey, error) {
	var row surveyRow
	q := repo.db.Rebind("SELECT " + surveyColumns + " FROM process_surveys WHERE id = ?")
	if err := sqlx.GetContext(ctx, repo.db, &row, q, id); err != nil {
		return process.Survey{}, trapNoRows(err, process.ErrSurveyNotFound, "getting survey")
	}
	return repo.surveyFromRow(row), nil
}

func (repo processRepository) UpdateSurvey(ctx context.Context, s process.Survey) (process.Survey, error) {
	row := repo.surveyToRow(s)
	q := `UPDATE process_surveys SET status = :status, mapping = :mapping, procedures = :procedures,
		controls = :controls, evidence = :evidence, updated_at = :updated_at
		WHERE id = :id`
	res, err := sqlx.NamedExecContext(ctx, repo.db, q, row)
	if err != nil {
		return process.Survey{}, errors.Wrap(err, "updating survey")
	}
	if err = checkAffected(res, process.ErrSurveyNotFound, "updating survey"); err != nil {
		return process.Survey{}, err
	}
	return repo.surveyFromRow(row), nil
}

func (repo processRepository) DeleteSurveysByID(ctx context.Context, ids ...string) error {
	return deleteByID(ctx, repo.db, "process_surveys", ids)
}
