package sqlrun

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inferlab/ddstore/pkg/config"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeProgram writes an executable shell script standing in for the external
// SQL-execution program, and returns a runner configured to invoke it.
func fakeProgram(t *testing.T, script string) *ProcessRunner {
	t.Helper()

	path := filepath.Join(t.TempDir(), "fake-sql")
	err := os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0o755)
	require.NoError(t, err)

	runner, err := NewProcessRunner(config.ExecutorConfig{
		Program: path,
		Timeout: "10s",
	}, discardLogger())
	require.NoError(t, err)
	return runner
}

func TestNewProcessRunner_RequiresProgram(t *testing.T) {
	_, err := NewProcessRunner(config.ExecutorConfig{}, discardLogger())
	assert.Error(t, err)
}

func TestProcessRunner_RunQueries_Success(t *testing.T) {
	runner := fakeProgram(t, `printf 'CREATE TABLE\n'`)
	err := runner.RunQueries(t.Context(), "CREATE TABLE dd_labels (id bigint);")
	assert.NoError(t, err)
}

func TestProcessRunner_RunQueries_NonzeroExit(t *testing.T) {
	runner := fakeProgram(t, `exit 3`)
	sql := "DROP TABLE dd_labels;"

	err := runner.RunQueries(t.Context(), sql)

	var execErr *ExecError
	require.ErrorAs(t, err, &execErr)
	assert.Equal(t, 3, execErr.ExitCode, "error must carry the exact exit code")
	assert.Equal(t, sql, execErr.SQL, "error must carry the original sql text")
}

func TestProcessRunner_RunQueries_PassesSQLSubcommand(t *testing.T) {
	argsFile := filepath.Join(t.TempDir(), "args")
	runner := fakeProgram(t, fmt.Sprintf(`printf '%%s\n' "$@" > %q`, argsFile))

	err := runner.RunQueries(t.Context(), "SELECT 1;")
	require.NoError(t, err)

	args, err := os.ReadFile(argsFile)
	require.NoError(t, err)
	assert.Equal(t, "sql\nSELECT 1;\n", string(args))
}

func TestProcessRunner_EvalTSV(t *testing.T) {
	runner := fakeProgram(t, `printf '10\t20\n'`)

	got, err := runner.EvalTSV(t.Context(), "SELECT 10, 20;", 1)
	require.NoError(t, err)
	assert.Equal(t, "20", got)
}

func TestProcessRunner_EvalTSV_StripsTerminator(t *testing.T) {
	argsFile := filepath.Join(t.TempDir(), "args")
	runner := fakeProgram(t, fmt.Sprintf(`printf '%%s\n' "$@" > %q; printf '20\n'`, argsFile))

	_, err := runner.EvalTSV(t.Context(), "SELECT 10, 20;", 0)
	require.NoError(t, err)

	args, err := os.ReadFile(argsFile)
	require.NoError(t, err)
	assert.Equal(t, "sql\neval\nSELECT 10, 20\n", string(args),
		"eval mode must receive the sql text without its trailing terminator")
}

func TestProcessRunner_EvalTSV_FirstLineWins(t *testing.T) {
	runner := fakeProgram(t, `printf '\n'; printf '10\t20\n'; printf 'Time: 2ms\n'`)

	got, err := runner.EvalTSV(t.Context(), "SELECT 10, 20;", 0)
	require.NoError(t, err)
	assert.Equal(t, "10", got)
}

func TestProcessRunner_EvalTSV_NoOutput(t *testing.T) {
	runner := fakeProgram(t, `:`)

	_, err := runner.EvalTSV(t.Context(), "SELECT 1;", 0)
	var convErr *ConvError
	assert.ErrorAs(t, err, &convErr)
}

func TestProcessRunner_EvalTSV_NonzeroExit(t *testing.T) {
	runner := fakeProgram(t, `printf 'ERROR\n' >&2; exit 1`)

	_, err := runner.EvalTSV(t.Context(), "SELECT broken;", 0)
	var execErr *ExecError
	require.ErrorAs(t, err, &execErr)
	assert.Equal(t, 1, execErr.ExitCode)
}

func TestProcessRunner_Timeout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stalled-sql")
	err := os.WriteFile(path, []byte("#!/bin/sh\nsleep 30\n"), 0o755)
	require.NoError(t, err)

	runner, err := NewProcessRunner(config.ExecutorConfig{
		Program: path,
		Timeout: "100ms",
	}, discardLogger())
	require.NoError(t, err)

	err = runner.RunQueries(t.Context(), "SELECT pg_sleep(3600);")
	require.Error(t, err)
	assert.NotErrorAs(t, err, new(*ExecError), "a timeout kill is not an exit-code failure")
	assert.Contains(t, err.Error(), "timed out")
}

func TestProcessRunner_CallerCancellation(t *testing.T) {
	runner := fakeProgram(t, `sleep 30`)

	ctx, cancel := context.WithCancel(t.Context())
	go func() {
		time.Sleep(100 * time.Millisecond)
		cancel()
	}()

	err := runner.RunQueries(ctx, "SELECT pg_sleep(3600);")
	require.ErrorIs(t, err, context.Canceled)
	assert.Contains(t, err.Error(), "canceled")
	assert.NotContains(t, err.Error(), "timed out",
		"caller cancellation must not be reported as a deadline")
}

func TestProcessRunner_RunQueries_OversizedOutputLine(t *testing.T) {
	// A single stdout line past the scanner's 1 MiB cap stops the streaming
	// loop; the failure must surface instead of leaving the child blocked on
	// a full pipe.
	runner := fakeProgram(t, `head -c 2097152 /dev/zero | tr '\0' x; echo`)

	err := runner.RunQueries(t.Context(), "SELECT repeat('x', 2097152);")
	require.ErrorIs(t, err, bufio.ErrTooLong)
	assert.Contains(t, err.Error(), "failed to read sql output")
}
