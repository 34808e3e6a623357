package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/partkeep/partkeep/internal/data/database"
	"github.com/partkeep/partkeep/internal/data/pgxutil"
	"github.com/partkeep/partkeep/internal/domain/model"
)

const componentColumns = "part_number, part_name, description, status, created_at, updated_at"

const componentLatestColumns = "part_number, part_name, description, status, " +
	"version_number, file_path, cost, created_by, created_at"

const versionColumns = "id, part_number, version_number, file_path, cost, created_by, created_at"

// ComponentRepo provides database operations for components and their
// immutable versions. The component row is upserted on submission; versions
// are append-only.
type ComponentRepo struct {
	DB           *sql.DB
	timeProvider TimeProvider
}

// NewComponentRepo creates a new ComponentRepo with real time provider.
func NewComponentRepo(db *sql.DB) *ComponentRepo {
	return &ComponentRepo{DB: db, timeProvider: &RealTimeProvider{}}
}

// NewComponentRepoWithTimeProvider creates a new ComponentRepo with a custom time provider.
func NewComponentRepoWithTimeProvider(db *sql.DB, tp TimeProvider) *ComponentRepo {
	return &ComponentRepo{DB: db, timeProvider: tp}
}

// Submit upserts the component row and appends a new version in one
// transaction. filePath is the object-storage key of the uploaded drawing,
// nil when no file was attached.
func (r *ComponentRepo) Submit(
	ctx context.Context,
	req *model.SubmitComponentRequest,
	filePath *string,
) (*model.ComponentVersion, error) {
	if req == nil {
		return nil, errors.New("submit component request is required")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.CreatedBy) == "" {
		return nil, errors.New("created_by is required")
	}

	now := r.timeProvider.Now().UTC()
	versionID := uuid.New().String()

	var out model.ComponentVersion
	err := pgxutil.WithPgxTx(ctx, r.DB, pgxutil.TxConfig{Fn: func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `
			INSERT INTO components (part_number, part_name, description, status, created_at)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (part_number) DO UPDATE SET
				part_name = EXCLUDED.part_name,
				description = EXCLUDED.description,
				status = EXCLUDED.status,
				updated_at = EXCLUDED.created_at`,
			req.PartNumber,
			req.PartName,
			req.Description,
			req.Status,
			now,
		); err != nil {
			return err
		}

		rows, err := tx.Query(ctx, `
			INSERT INTO component_versions (id, part_number, version_number, file_path, cost, created_by, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING `+versionColumns,
			versionID,
			req.PartNumber,
			req.VersionNumber,
			filePath,
			req.Cost,
			req.CreatedBy,
			now,
		)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.ComponentVersion])
		return err
	}})
	if err != nil {
		return nil, mapComponentWriteErr(err)
	}
	return &out, nil
}

// GetByPartNumber retrieves a component by its part number.
func (r *ComponentRepo) GetByPartNumber(
	ctx context.Context,
	partNumber string,
) (*model.Component, error) {
	var out model.Component
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			SELECT `+componentColumns+`
			FROM components WHERE part_number = $1`, partNumber)
		if err != nil {
			return err
		}
		defer rows.Close()
		out, err = pgx.CollectOneRow(rows, pgx.RowToStructByName[model.Component])
		return err
	}); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrComponentNotFound
		}
		return nil, fmt.Errorf("failed to get component: %w", err)
	}
	return &out, nil
}

// ListVersions retrieves all versions of a component, newest first.
func (r *ComponentRepo) ListVersions(
	ctx context.Context,
	partNumber string,
) ([]*model.ComponentVersion, error) {
	var rowsOut []model.ComponentVersion
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, `
			SELECT `+versionColumns+`
			FROM component_versions
			WHERE part_number = $1
			ORDER BY created_at DESC`, partNumber)
		if err != nil {
			return err
		}
		defer rows.Close()
		rowsOut, err = pgx.CollectRows(rows, pgx.RowToStructByName[model.ComponentVersion])
		return err
	}); err != nil {
		return nil, fmt.Errorf("failed to list component versions: %w", err)
	}

	res := make([]*model.ComponentVersion, len(rowsOut))
	for i := range rowsOut {
		res[i] = &rowsOut[i]
	}
	return res, nil
}

// ListLatest retrieves components joined with their latest version from the
// component_latest_versions view, with optional filters and sorting.
func (r *ComponentRepo) ListLatest(
	ctx context.Context,
	opts model.ComponentsListOptions,
) ([]*model.ComponentWithLatestVersion, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := max(opts.Offset, 0)

	queryOpts := buildComponentQueryOptions(opts, limit, offset)
	query, args := database.BuildListQuery(queryOpts)

	var rowsOut []model.ComponentWithLatestVersion
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		rows, err := conn.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()
		rowsOut, err = pgx.CollectRows(rows, pgx.RowToStructByName[model.ComponentWithLatestVersion])
		return err
	}); err != nil {
		return nil, fmt.Errorf("failed to list components: %w", err)
	}

	res := make([]*model.ComponentWithLatestVersion, len(rowsOut))
	for i := range rowsOut {
		res[i] = &rowsOut[i]
	}
	return res, nil
}

// CountLatest returns the number of components matching the filters in opts.
func (r *ComponentRepo) CountLatest(
	ctx context.Context,
	opts model.ComponentsListOptions,
) (int, error) {
	queryOpts := buildComponentQueryOptions(opts, 0, 0)
	queryOpts.CountOnly = true
	queryOpts.Limit = -1
	queryOpts.Offset = -1
	query, args := database.BuildListQuery(queryOpts)

	var count int
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		return conn.QueryRow(ctx, query, args...).Scan(&count)
	}); err != nil {
		return 0, fmt.Errorf("failed to count components: %w", err)
	}
	return count, nil
}

// Delete removes a component and, via ON DELETE CASCADE, all its versions.
func (r *ComponentRepo) Delete(ctx context.Context, partNumber string) (bool, error) {
	var deleted bool
	if err := pgxutil.WithPgxConn(ctx, r.DB, func(conn *pgx.Conn) error {
		tag, err := conn.Exec(ctx, `DELETE FROM components WHERE part_number = $1`, partNumber)
		if err != nil {
			return err
		}
		deleted = tag.RowsAffected() > 0
		return nil
	}); err != nil {
		return false, fmt.Errorf("failed to delete component: %w", err)
	}
	return deleted, nil
}

func buildComponentQueryOptions(
	opts model.ComponentsListOptions,
	limit, offset int,
) *database.ListQueryOptions {
	builderOpts := []database.ListQueryOption{
		database.WithColumns(strings.Split(componentLatestColumns, ", ")...),
		database.WithLimit(limit),
		database.WithOffset(offset),
	}

	if opts.Q != nil && *opts.Q != "" {
		pattern := "%" + *opts.Q + "%"
		builderOpts = append(builderOpts, database.WithCondition(
			database.WhereRawCond("(part_number ILIKE $1 OR part_name ILIKE $1)", pattern),
		))
	}
	if opts.Status != nil && *opts.Status != "" {
		builderOpts = append(builderOpts, database.WithCondition(
			database.WhereCond("status", database.Equal, string(*opts.Status)),
		))
	}

	orderBy, orderDir := normalizeComponentSort(opts.Sort, opts.Dir)
	builderOpts = append(builderOpts, database.WithOrderBy(orderBy, orderDir))

	return database.NewListQueryOptions("component_latest_versions", builderOpts...)
}

func normalizeComponentSort(sortCol, dir string) (string, string) {
	switch strings.ToLower(sortCol) {
	case "part_name":
		sortCol = "part_name"
	case "created_at":
		sortCol = "created_at"
	default:
		sortCol = "part_number"
	}
	if strings.EqualFold(dir, "desc") {
		return sortCol, "DESC"
	}
	return sortCol, "ASC"
}

func mapComponentWriteErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		if strings.Contains(pgErr.ConstraintName, "component_versions") {
			return ErrVersionExists
		}
	}
	return fmt.Errorf("failed to submit component: %w", err)
}
