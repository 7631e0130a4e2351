package shell

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/flintdb/flintdb/internal/catalog"
	"github.com/flintdb/flintdb/internal/session"
)

func newTestShell(t *testing.T) (*Shell, *bytes.Buffer) {
	t.Helper()
	cat, err := catalog.Open(t.TempDir(), zap.NewNop())
	require.NoError(t, err)
	sess := session.Open(cat, zap.NewNop())
	var buf bytes.Buffer
	return &Shell{session: sess, out: &buf, log: zap.NewNop()}, &buf
}

func TestHandleMetaCommandExit(t *testing.T) {
	s, _ := newTestShell(t)
	assert.Equal(t, MetaCommandExit, s.handleMetaCommand(".exit"))
}

func TestHandleMetaCommandHelp(t *testing.T) {
	s, buf := newTestShell(t)
	assert.Equal(t, MetaCommandHandled, s.handleMetaCommand(".help"))
	assert.Contains(t, buf.String(), ".exit")
}

func TestHandleMetaCommandUnrecognizedFallsThrough(t *testing.T) {
	s, _ := newTestShell(t)
	assert.Equal(t, MetaCommandNotMeta, s.handleMetaCommand("SELECT * FROM t"))
}

func TestExecuteAndRenderSelect(t *testing.T) {
	s, buf := newTestShell(t)
	require.NoError(t, s.execute("CREATE DATABASE shop"))
	require.NoError(t, s.execute("USE shop"))
	require.NoError(t, s.execute("CREATE TABLE users (id INT PRIMARY KEY, name VARCHAR(16))"))
	require.NoError(t, s.execute("INSERT INTO users (id, name) VALUES (1, 'alice')"))
	buf.Reset()

	require.NoError(t, s.execute("SELECT * FROM users"))
	out := buf.String()
	assert.Contains(t, out, "id\tname")
	assert.Contains(t, out, "1\talice")
	assert.Contains(t, out, "(1 rows)")
}

func TestExecuteSyntaxErrorPropagates(t *testing.T) {
	s, _ := newTestShell(t)
	err := s.execute("NOT A STATEMENT")
	assert.Error(t, err)
}

func TestDatabasesMetaQuery(t *testing.T) {
	s, buf := newTestShell(t)
	require.NoError(t, s.execute("CREATE DATABASE shop"))
	buf.Reset()
	s.runMetaQuery("SHOW DATABASES")
	assert.Contains(t, buf.String(), "shop")
}
