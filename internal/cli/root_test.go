package cli

import (
	"bytes"
	"database/sql"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execute runs the root command with args and returns stdout, stderr and
// the command error.
func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := NewRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(append([]string{"--env-file", filepath.Join(t.TempDir(), "missing.env")}, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "termflow", cmd.Use)
	assert.Contains(t, cmd.Long, "Cyclical")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := []string{"union", "xor", "intersect", "diff", "append", "prepend", "insert", "move", "query"}

	for _, cmdName := range commands {
		t.Run(cmdName, func(t *testing.T) {
			subCmd, _, err := cmd.Find([]string{cmdName})
			require.NoError(t, err, "Command %s should exist", cmdName)
			require.NotNil(t, subCmd)
			assert.Equal(t, cmdName, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)

	limitFlag := cmd.PersistentFlags().Lookup("limit")
	require.NotNil(t, limitFlag)
	assert.Equal(t, "0", limitFlag.DefValue)
}

func TestGolden(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantCode int
	}{
		{name: "union", args: []string{"union", "1,2,2,3", "2,3,3,4"}},
		{name: "union_file", args: []string{"union", "@testdata/lines.txt", "2,3,3,4"}},
		{name: "xor", args: []string{"xor", "1,2,3", "3,4"}},
		{name: "intersect", args: []string{"intersect", "a,b,a,c", "a,a,a,c"}},
		{name: "diff", args: []string{"diff", "a,b,c,a", "a"}},
		{name: "diff_empty", args: []string{"diff", "", "a"}},
		{name: "prepend", args: []string{"prepend", "a,b", "x"}},
		{name: "prepend_json", args: []string{"--format", "json", "prepend", "a,b", "x"}},
		{name: "append_cyclical_limit", args: []string{"--limit", "5", "append", "1|2", "x"}},
		{name: "insert", args: []string{"insert", "10,9,8,7,6,5", "A,B", "--at", "3"}},
		{name: "insert_beyond", args: []string{"insert", "a,b", "X", "--at", "5"}, wantCode: ExitFailure},
		{name: "insert_beyond_json", args: []string{"--format", "json", "insert", "a,b", "X", "--at", "5"}, wantCode: ExitFailure},
		{name: "move", args: []string{"move", "a,b,c,d,e", "--select", "b,d", "--target", "to:0"}},
		{name: "move_rotate", args: []string{"move", "a,b,c,d", "--select", "a", "--target", "rotate:-1"}},
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stdout, _, err := execute(t, tt.args...)
			if tt.wantCode == ExitSuccess {
				require.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Equal(t, tt.wantCode, GetExitCode(err))
			}
			g.Assert(t, tt.name, []byte(stdout))
		})
	}
}

func TestQueryGolden(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.db")
	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	_, err = db.Exec(`CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT, age INTEGER)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO users (name, age) VALUES ('Alice', 30), ('Bob', 25)`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	stdout, _, err := execute(t, "query", "--db", path, "SELECT name, age FROM users ORDER BY id")
	require.NoError(t, err)

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "query", []byte(stdout))
}

func TestInfiniteOutputWithoutLimit(t *testing.T) {
	stdout, _, err := execute(t, "append", "1|2", "x")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, stdout, "output_finite")
}

func TestMissingInputFile(t *testing.T) {
	stdout, _, err := execute(t, "union", "@"+filepath.Join(t.TempDir(), "missing.txt"), "1")
	require.Error(t, err)
	assert.Equal(t, ExitFailure, GetExitCode(err))
	assert.Contains(t, stdout, "file_must_open")
}

func TestCommandErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{name: "invalid format", args: []string{"--format", "xml", "union", "1", "2"}},
		{name: "negative limit", args: []string{"--limit", "-1", "union", "1", "2"}},
		{name: "invalid log level", args: []string{"--log-level", "loud", "union", "1", "2"}},
		{name: "negative insert index", args: []string{"insert", "a", "b", "--at", "-1"}},
		{name: "bad insert index", args: []string{"insert", "a", "b", "--at", "x"}},
		{name: "bad target", args: []string{"move", "a", "--target", "sideways:1"}},
		{name: "negative absolute target", args: []string{"move", "a", "--target", "to:-1"}},
		{name: "empty cycle", args: []string{"union", "1|", "2"}},
		{name: "missing config file", args: []string{"--config", "/nonexistent/termflow.yaml", "union", "1", "2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := execute(t, tt.args...)
			require.Error(t, err)
			assert.Equal(t, ExitCommandError, GetExitCode(err))
		})
	}
}

func TestVerboseLogsToStderr(t *testing.T) {
	_, stderr, err := execute(t, "--verbose", "union", "1,2", "2,3")
	require.NoError(t, err)
	assert.Contains(t, stderr, "run completed")
}
