package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/partkeep/partkeep/internal/data/database"
	"github.com/partkeep/partkeep/internal/data/pgxutil"
	domainauth "github.com/partkeep/partkeep/internal/domain/auth"
	"github.com/partkeep/partkeep/internal/domain/model"
)

const userColumns = "id, username, email, full_name, role, created_at, updated_at"

const (
	userGetByIDQuery = `
		SELECT ` + userColumns + `
		FROM profiles WHERE id = $1`
	userGetByUsernameQuery = `
		SELECT ` + userColumns + `
		FROM profiles WHERE username = $1`
	userGetByEmailQuery = `
		SELECT ` + userColumns + `
		FROM profiles WHERE email = $1`
)

// UserRepo provides database operations for user profiles.
// Exactly one profile row exists per identity; the role column is the
// single authorization signal read by route guards.
type UserRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewUserRepo creates a new UserRepo with real time provider.
func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{DB: db, timeProvider: &RealTimeProvider{}}
}

// NewUserRepoWithTimeProvider creates a new UserRepo with a custom time provider (useful for tests).
func NewUserRepoWithTimeProvider(db *sql.DB, tp TimeProvider) *UserRepo {
	return &UserRepo{DB: db, timeProvider: tp}
}

// CreateUserParams carries the identity-assigned ID together with profile fields.
type CreateUserParams struct {
	ID       string
	Username string
	Email    string
	FullName string
	Role     domainauth.Role
}

// Create inserts a new profile row.
func (r *UserRepo) Create(ctx context.Context, params CreateUserParams) (*model.User, error) {
	if strings.TrimSpace(params.ID) == "" {
		return nil, errors.New("user ID is required")
	}
	if strings.TrimSpace(params.Username) == "" {
		return nil, errors.New("username is required")
	}
	if !params.Role.Valid() {
		return nil, errors.New("role is invalid")
	}

	createdAt := r.timeProvider.Now().UTC()
	var out model.User
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			INSERT INTO profiles (id, username, email, full_name, role, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING `+userColumns,
			params.ID,
			strings.TrimSpace(params.Username),
			strings.TrimSpace(params.Email),
			strings.TrimSpace(params.FullName),
			params.Role,
			createdAt,
		)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.User])
		return err
	}); err != nil {
		return nil, r.mapWriteErr(err, false)
	}
	return &out, nil
}

// GetByID retrieves a profile by identity ID.
func (r *UserRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	return r.getByQuery(ctx, userGetByIDQuery, "failed to get user by ID", id)
}

// GetByUsername retrieves a profile by username.
func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	return r.getByQuery(ctx, userGetByUsernameQuery, "failed to get user by username", username)
}

// GetByEmail retrieves a profile by email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.getByQuery(ctx, userGetByEmailQuery, "failed to get user by email", email)
}

func (r *UserRepo) getByQuery(
	ctx context.Context,
	query, errPrefix, arg string,
) (*model.User, error) {
	var out model.User
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, query, arg)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.User])
		return err
	}); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("%s: %w", errPrefix, err)
	}
	return &out, nil
}

// List retrieves profiles with optional filters and sorting.
func (r *UserRepo) List(ctx context.Context, opts model.UsersListOptions) ([]*model.User, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := max(opts.Offset, 0)

	queryOpts := buildUserQueryOptions(opts, limit, offset)
	query, args := database.BuildListQuery(queryOpts)

	var rowsOut []model.User
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		rowsOut, err = pgx.CollectRows(rows, pgx.RowToStructByName[model.User])
		return err
	}); err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	res := make([]*model.User, len(rowsOut))
	for i := range rowsOut {
		res[i] = &rowsOut[i]
	}
	return res, nil
}

// Count returns the number of profiles matching the filters in opts.
func (r *UserRepo) Count(ctx context.Context, opts model.UsersListOptions) (int, error) {
	queryOpts := buildUserQueryOptions(opts, 0, 0)
	queryOpts.CountOnly = true
	queryOpts.Limit = -1
	queryOpts.Offset = -1
	query, args := database.BuildListQuery(queryOpts)

	var count int
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		return conn.QueryRow(ctx, query, args...).Scan(&count)
	}); err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}

// Update updates mutable fields of a profile by username. Username and email
// never change after creation. An empty request reads the row back.
func (r *UserRepo) Update(
	ctx context.Context,
	username string,
	req model.UpdateUserRequest,
) (*model.User, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	var out model.User
	err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		setClause, args := buildUserUpdateClause(req, r.timeProvider.Now().UTC())
		if setClause == "" {
			rows, err := conn.Query(ctx, userGetByUsernameQuery, username)
			if err != nil {
				return err
			}
			defer rows.Close()
			var e error
			out, e = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.User])
			return e
		}
		args = append(args, username)
		query := "UPDATE profiles SET " + setClause +
			" WHERE username = $" + strconv.Itoa(len(args)) +
			" RETURNING " + userColumns
		rows, err := conn.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		var e error
		out, e = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.User])
		return e
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, r.mapWriteErr(err, true)
	}
	return &out, nil
}

// Delete removes a profile by username. Credentials are removed by the
// ON DELETE CASCADE constraint; live sessions are invalidated lazily when the
// next guard check fails to resolve the profile.
func (r *UserRepo) Delete(ctx context.Context, username string) (bool, error) {
	var deleted bool
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		tag, err := conn.Exec(ctx, `DELETE FROM profiles WHERE username = $1`, username)
		if err != nil {
			return err
		}
		deleted = tag.RowsAffected() > 0
		return nil
	}); err != nil {
		return false, fmt.Errorf("failed to delete user: %w", err)
	}
	return deleted, nil
}

func buildUserQueryOptions(opts model.UsersListOptions, limit, offset int) *database.ListQueryOptions {
	builderOpts := []database.ListQueryOption{
		database.WithColumns(strings.Split(userColumns, ", ")...),
		database.WithLimit(limit),
		database.WithOffset(offset),
	}

	if opts.Q != nil && *opts.Q != "" {
		pattern := "%" + *opts.Q + "%"
		builderOpts = append(builderOpts, database.WithCondition(
			database.WhereRawCond("(username ILIKE $1 OR email ILIKE $1 OR full_name ILIKE $1)", pattern),
		))
	}
	if opts.Role != nil && *opts.Role != "" {
		builderOpts = append(builderOpts, database.WithCondition(
			database.WhereCond("role", database.Equal, string(*opts.Role)),
		))
	}

	orderBy, orderDir := normalizeUserSort(opts.Sort, opts.Dir)
	builderOpts = append(builderOpts, database.WithOrderBy(orderBy, orderDir))

	return database.NewListQueryOptions("profiles", builderOpts...)
}

func normalizeUserSort(sortCol, dir string) (string, string) {
	switch strings.ToLower(sortCol) {
	case "created_at":
		sortCol = "created_at"
	default:
		sortCol = "username"
	}
	if strings.EqualFold(dir, "desc") {
		return sortCol, "DESC"
	}
	return sortCol, "ASC"
}

func buildUserUpdateClause(req model.UpdateUserRequest, now time.Time) (string, []any) {
	setParts := make([]string, 0, 3)
	args := make([]any, 0, 4)

	if req.FullName != nil {
		args = append(args, *req.FullName)
		setParts = append(setParts, "full_name = $"+strconv.Itoa(len(args)))
	}
	if req.Role != nil {
		args = append(args, string(*req.Role))
		setParts = append(setParts, "role = $"+strconv.Itoa(len(args)))
	}
	if len(setParts) == 0 {
		return "", nil
	}
	args = append(args, now)
	setParts = append(setParts, "updated_at = $"+strconv.Itoa(len(args)))
	return strings.Join(setParts, ", "), args
}

// mapWriteErr converts unique-violation errors into domain sentinels.
func (r *UserRepo) mapWriteErr(err error, update bool) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		switch {
		case strings.Contains(pgErr.ConstraintName, "username"):
			return ErrUsernameExists
		case strings.Contains(pgErr.ConstraintName, "email"):
			return ErrEmailExists
		}
	}
	if update {
		return fmt.Errorf("failed to update user: %w", err)
	}
	return fmt.Errorf("failed to create user: %w", err)
}
