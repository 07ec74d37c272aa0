package sqlxrepos

import (
	"context"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/Chrissalvo1985/monitor-gestion-integral-sub000/core"
	"github.com/Chrissalvo1985/monitor-gestion-integral-sub000/core/user"
)

const userColumns = "id, name, email, role, is_active, password_hash, created_at, updated_at, last_login"

var userOrderFields = []string{"name", "email", "role", "is_active", "created_at", "updated_at", "last_login"}

type userRow struct {
	ID           string    `db:"id"`
	Name         string    `db:"name"`
	Email        string    `db:"email"`
	Role         string    `db:"role"`
	IsActive     bool      `db:"is_active"`
	PasswordHash string    `db:"password_hash"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
	LastLogin    null.Time `db:"last_login"`
}

type userRepository struct {
	db core.DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db core.DB) *userRepository {
	return &userRepository{db: db}
}

func (repo userRepository) toRow(usr user.User) userRow {
	row := userRow{
		ID:           usr.ID,
		Name:         usr.Name,
		Email:        usr.Email,
		Role:         usr.Role,
		IsActive:     usr.IsActive,
		PasswordHash: string(usr.PasswordHash),
		CreatedAt:    usr.CreatedAt.UTC(),
		UpdatedAt:    usr.UpdatedAt.UTC(),
	}
	if usr.LastLogin.Valid {
		row.LastLogin = null.TimeFrom(usr.LastLogin.Time.UTC())
	}
	return row
}

func (repo userRepository) fromRow(row userRow, clientIDs []string) user.User {
	if clientIDs == nil {
		clientIDs = []string{}
	}
	usr := user.User{
		ID:           row.ID,
		Name:         row.Name,
		Email:        row.Email,
		Role:         row.Role,
		IsActive:     row.IsActive,
		ClientIDs:    clientIDs,
		PasswordHash: []byte(row.PasswordHash),
		CreatedAt:    row.CreatedAt.UTC(),
		UpdatedAt:    row.UpdatedAt.UTC(),
	}
	if row.LastLogin.Valid {
		usr.LastLogin = null.TimeFrom(row.LastLogin.Time.UTC())
	}
	return usr
}

// clientsOf loads the assigned client ids of the given users, keyed by user id.
func (repo userRepository) clientsOf(ctx context.Context, exec core.DBExecutor, userIDs ...string) (map[string][]string, error) {
	out := make(map[string][]string, len(userIDs))
	if len(userIDs) == 0 {
		return out, nil
	}

	var w where
	w.add("user_id IN (?)", userIDs)
	q, args, err := w.build(exec, "SELECT user_id, client_id FROM user_clients"+w.String()+" ORDER BY client_id")
	if err != nil {
		return nil, err
	}

	var links []struct {
		UserID   string `db:"user_id"`
		ClientID string `db:"client_id"`
	}
	if err = sqlx.SelectContext(ctx, exec, &links, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying user clients")
	}
	for _, l := range links {
		out[l.UserID] = append(out[l.UserID], l.ClientID)
	}
	return out, nil
}

func (repo userRepository) insertClients(ctx context.Context, exec core.DBExecutor, userID string, clientIDs []string) error {
	seen := make(map[string]struct{}, len(clientIDs))
	q := exec.Rebind("INSERT INTO user_clients (user_id, client_id) VALUES (?, ?)")
	for _, id := range clientIDs {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		if _, err := exec.ExecContext(ctx, q, userID, id); err != nil {
			return trapConstraint(err, nil, user.ErrClientNotFound, "assigning client")
		}
	}
	return nil
}

func (repo userRepository) CheckEmailUniqueness(ctx context.Context, email string, excludedUsers ...user.User) error {
	var w where
	w.add("email = ?", email)
	if len(excludedUsers) > 0 {
		ids := make([]string, 0, len(excludedUsers))
		for _, u := range excludedUsers {
			ids = append(ids, u.ID)
		}
		w.add("id NOT IN (?)", ids)
	}
	q, args, err := w.build(repo.db, "SELECT COUNT(*) FROM users"+w.String())
	if err != nil {
		return err
	}

	var count int
	if err = sqlx.GetContext(ctx, repo.db, &count, q, args...); err != nil {
		return errors.Wrap(err, "checking user uniqueness")
	}
	if count > 0 {
		return user.ErrEmailExists
	}
	return nil
}

func (repo userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	row := repo.toRow(usr)
	err := withTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		q := `INSERT INTO users (` + userColumns + `)
			VALUES (:id, :name, :email, :role, :is_active, :password_hash, :created_at, :updated_at, :last_login)`
		if _, err := sqlx.NamedExecContext(ctx, tx, q, row); err != nil {
			return trapConstraint(err, user.ErrEmailExists, nil, "inserting user")
		}
		return repo.insertClients(ctx, tx, row.ID, usr.ClientIDs)
	})
	if err != nil {
		return user.User{}, err
	}
	return repo.GetUserByID(ctx, row.ID)
}

func (repo userRepository) FilterUsers(ctx context.Context, filter user.QueryFilter, ordering ...core.DBOrdering) ([]user.User, error) {
	var w where
	if filter.Search != "" {
		val := "%" + strings.ToLower(filter.Search) + "%"
		w.add("(LOWER(name) LIKE ? OR LOWER(email) LIKE ?)", val, val)
	}
	if filter.Role != "" {
		w.add("role = ?", filter.Role)
	}
	if filter.IsActive != nil {
		w.add("is_active = ?", *filter.IsActive)
	}

	q, args, err := w.build(repo.db, "SELECT "+userColumns+" FROM users"+w.String()+orderBy(ordering, userOrderFields, "name ASC"))
	if err != nil {
		return nil, err
	}

	var rows []userRow
	if err = sqlx.SelectContext(ctx, repo.db, &rows, q, args...); err != nil {
		return nil, errors.Wrap(err, "querying users")
	}

	ids := make([]string, 0, len(rows))
	for _, r := range rows {
		ids = append(ids, r.ID)
	}
	clients, err := repo.clientsOf(ctx, repo.db, ids...)
	if err != nil {
		return nil, err
	}

	users := make([]user.User, 0, len(rows))
	for _, r := range rows {
		users = append(users, repo.fromRow(r, clients[r.ID]))
	}
	return users, nil
}

func (repo userRepository) getUser(ctx context.Context, cond string, arg interface{}) (user.User, error) {
	var row userRow
	q := repo.db.Rebind("SELECT " + userColumns + " FROM users WHERE " + cond)
	if err := sqlx.GetContext(ctx, repo.db, &row, q, arg); err != nil {
		return user.User{}, trapNoRows(err, user.ErrNotFound, "getting user")
	}
	clients, err := repo.clientsOf(ctx, repo.db, row.ID)
	if err != nil {
		return user.User{}, err
	}
	return repo.fromRow(row, clients[row.ID]), nil
}

func (repo userRepository) GetUserByID(ctx context.Context, id string) (user.User, error) {
	return repo.getUser(ctx, "id = ?", id)
}

func (repo userRepository) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	return repo.getUser(ctx, "email = ?", email)
}

// UpdateUser stores every column of usr. Client assignments are left untouched, see SetUserClients.
func (repo userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	q := `UPDATE users SET name = :name, email = :email, role = :role, is_active = :is_active,
		password_hash = :password_hash, updated_at = :updated_at, last_login = :last_login
		WHERE id = :id`
	res, err := sqlx.NamedExecContext(ctx, repo.db, q, repo.toRow(usr))
	if err != nil {
		return user.User{}, trapConstraint(err, user.ErrEmailExists, nil, "updating user")
	}
	if err = checkAffected(res, user.ErrNotFound, "updating user"); err != nil {
		return user.User{}, err
	}
	return repo.GetUserByID(ctx, usr.ID)
}

func (repo userRepository) SetUserClients(ctx context.Context, userID string, clientIDs ...string) error {
	return withTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		var count int
		if err := sqlx.GetContext(ctx, tx, &count, tx.Rebind("SELECT COUNT(*) FROM users WHERE id = ?"), userID); err != nil {
			return errors.Wrap(err, "checking user")
		}
		if count == 0 {
			return user.ErrNotFound
		}
		if _, err := tx.ExecContext(ctx, tx.Rebind("DELETE FROM user_clients WHERE user_id = ?"), userID); err != nil {
			return errors.Wrap(err, "clearing user clients")
		}
		return repo.insertClients(ctx, tx, userID, clientIDs)
	})
}

func (repo userRepository) DeleteUsersByID(ctx context.Context, ids ...string) error {
	return deleteByID(ctx, repo.db, "users", ids)
}
