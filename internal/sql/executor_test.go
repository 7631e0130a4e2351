package sql

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/flintdb/flintdb/internal/catalog"
	"github.com/flintdb/flintdb/internal/session"
)

func newTestSession(t *testing.T) *session.Session {
	t.Helper()
	cat, err := catalog.Open(t.TempDir(), zap.NewNop())
	require.NoError(t, err)
	return session.Open(cat, zap.NewNop())
}

func mustExec(t *testing.T, sess *session.Session, src string) Result {
	t.Helper()
	stmt, err := Parse(src)
	require.NoError(t, err)
	res, err := Execute(sess, stmt)
	require.NoError(t, err)
	return res
}

func TestExecuteEndToEndLifecycle(t *testing.T) {
	sess := newTestSession(t)

	mustExec(t, sess, `CREATE DATABASE shop`)
	mustExec(t, sess, `USE shop`)
	mustExec(t, sess, `CREATE TABLE users (id INT PRIMARY KEY, name VARCHAR(32), active BOOLEAN DEFAULT 'false')`)

	mustExec(t, sess, `INSERT INTO users (id, name, active) VALUES (2, 'bob', true)`)
	mustExec(t, sess, `INSERT INTO users (id, name, active) VALUES (1, 'alice', false)`)

	res := mustExec(t, sess, `SELECT * FROM users`)
	require.Equal(t, []string{"id", "name", "active"}, res.Columns)
	require.Len(t, res.Rows, 2)
	assert.Equal(t, []string{"1", "alice", "false"}, res.Rows[0])
	assert.Equal(t, []string{"2", "bob", "true"}, res.Rows[1])

	show := mustExec(t, sess, `SHOW TABLES`)
	assert.Equal(t, [][]string{{"users"}}, show.Rows)

	desc := mustExec(t, sess, `DESCRIBE users`)
	assert.Len(t, desc.Rows, 3)
}

func TestExecuteSelectWithColumnProjection(t *testing.T) {
	sess := newTestSession(t)
	mustExec(t, sess, `CREATE DATABASE shop`)
	mustExec(t, sess, `USE shop`)
	mustExec(t, sess, `CREATE TABLE users (id INT PRIMARY KEY, name VARCHAR(32))`)
	mustExec(t, sess, `INSERT INTO users (id, name) VALUES (1, 'alice')`)

	res := mustExec(t, sess, `SELECT name FROM users`)
	assert.Equal(t, []string{"name"}, res.Columns)
	assert.Equal(t, [][]string{{"alice"}}, res.Rows)
}

func TestExecuteUpdateAndDeleteAreRejected(t *testing.T) {
	sess := newTestSession(t)
	mustExec(t, sess, `CREATE DATABASE shop`)
	mustExec(t, sess, `USE shop`)
	mustExec(t, sess, `CREATE TABLE users (id INT PRIMARY KEY)`)

	stmt, err := Parse(`UPDATE users SET id = 2 WHERE id = 1`)
	require.NoError(t, err)
	_, err = Execute(sess, stmt)
	assert.Error(t, err)

	stmt, err = Parse(`DELETE FROM users WHERE id = 1`)
	require.NoError(t, err)
	_, err = Execute(sess, stmt)
	assert.Error(t, err)
}

func TestExecuteRequiresDatabaseSelected(t *testing.T) {
	sess := newTestSession(t)
	stmt, err := Parse(`CREATE TABLE users (id INT PRIMARY KEY)`)
	require.NoError(t, err)
	_, err = Execute(sess, stmt)
	assert.Error(t, err)
}

func TestExecuteDropTableInvalidatesCache(t *testing.T) {
	sess := newTestSession(t)
	mustExec(t, sess, `CREATE DATABASE shop`)
	mustExec(t, sess, `USE shop`)
	mustExec(t, sess, `CREATE TABLE users (id INT PRIMARY KEY)`)
	mustExec(t, sess, `INSERT INTO users (id) VALUES (1)`)
	mustExec(t, sess, `DROP TABLE users`)

	stmt, err := Parse(`SELECT * FROM users`)
	require.NoError(t, err)
	_, err = Execute(sess, stmt)
	assert.Error(t, err)
}
