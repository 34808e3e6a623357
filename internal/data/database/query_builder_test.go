package database

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildListQuery_Defaults(t *testing.T) {
	query, args := BuildListQuery(NewListQueryOptions("profiles"))
	assert.Equal(t, `SELECT * FROM "profiles"`, query)
	assert.Empty(t, args)
}

func TestBuildListQuery_ColumnsAndConditions(t *testing.T) {
	opts := NewListQueryOptions("profiles",
		WithColumns("id", "username", "role"),
		WithCondition(WhereCond("role", Equal, "designer")),
		WithCondition(WhereCond("username", ILike, "%doe%")),
		WithOrderBy("created_at", "desc"),
		WithLimit(25),
		WithOffset(50),
	)

	query, args := BuildListQuery(opts)
	assert.Equal(t,
		`SELECT "id", "username", "role" FROM "profiles" WHERE "role" = $1 AND "username" ILIKE $2 ORDER BY "created_at" DESC LIMIT $3 OFFSET $4`,
		query)
	assert.Equal(t, []any{"designer", "%doe%", 25, 50}, args)
}

func TestBuildListQuery_CountOnly(t *testing.T) {
	opts := NewListQueryOptions("component_latest_versions",
		WithCondition(WhereCond("status", Equal, "released")),
		WithCountOnly(),
		WithLimit(10),
	)

	query, args := BuildListQuery(opts)
	assert.Equal(t, `SELECT COUNT(*) FROM "component_latest_versions" WHERE "status" = $1`, query)
	assert.Equal(t, []any{"released"}, args)
}

func TestBuildListQuery_InCondition(t *testing.T) {
	opts := NewListQueryOptions("profiles",
		WithCondition(WhereCond("role", In, []string{"admin", "manager"})),
	)

	query, args := BuildListQuery(opts)
	assert.Equal(t, `SELECT * FROM "profiles" WHERE "role" IN ($1, $2)`, query)
	assert.Equal(t, []any{"admin", "manager"}, args)
}

func TestBuildListQuery_EmptyInConditionSkipped(t *testing.T) {
	opts := NewListQueryOptions("profiles",
		WithCondition(WhereCond("role", In, []string{})),
	)

	query, args := BuildListQuery(opts)
	assert.Equal(t, `SELECT * FROM "profiles"`, query)
	assert.Empty(t, args)
}

func TestBuildListQuery_RawConditionRenumbersPlaceholders(t *testing.T) {
	opts := NewListQueryOptions("profiles",
		WithCondition(WhereCond("role", Equal, "designer")),
		WithCondition(WhereRawCond("(username ILIKE $1 OR email ILIKE $1 OR full_name ILIKE $1)", "%doe%")),
	)

	query, args := BuildListQuery(opts)
	assert.Equal(t,
		`SELECT * FROM "profiles" WHERE "role" = $1 AND (username ILIKE $2 OR email ILIKE $2 OR full_name ILIKE $2)`,
		query)
	assert.Equal(t, []any{"designer", "%doe%"}, args)
}

func TestBuildListQuery_SanitizesIdentifiers(t *testing.T) {
	opts := NewListQueryOptions("profiles",
		WithColumns(`username"; DROP TABLE profiles; --`),
		WithOrderBy("created_at", "evil"),
	)

	query, _ := BuildListQuery(opts)
	assert.NotContains(t, query, "DROP TABLE profiles;")
	assert.NotContains(t, query, "evil")
}

func TestBuildListQuery_QualifiedOrderBy(t *testing.T) {
	opts := NewListQueryOptions("component_latest_versions",
		WithOrderBy("component_latest_versions.part_number", "ASC"),
	)

	query, _ := BuildListQuery(opts)
	assert.Contains(t, query, `ORDER BY "component_latest_versions"."part_number" ASC`)
}
