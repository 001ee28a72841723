package sqlrun

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"time"

	"github.com/inferlab/ddstore/pkg/config"
)

// ProcessRunner executes SQL by delegating to an external SQL-execution
// program. Statements run as `program [args...] sql <text>`; scalar
// extraction runs the program's eval subcommand, `program [args...] sql eval
// <text>`.
//
// Every invocation runs under a timeout so a stalled program cannot block
// the pipeline indefinitely; when the deadline passes the process is killed
// and the context error is returned.
type ProcessRunner struct {
	program string
	args    []string
	timeout time.Duration
	logger  *slog.Logger
}

// NewProcessRunner builds a ProcessRunner from the executor configuration.
func NewProcessRunner(cfg config.ExecutorConfig, logger *slog.Logger) (*ProcessRunner, error) {
	if cfg.Program == "" {
		return nil, errors.New("no executor program configured")
	}
	timeout, err := cfg.ParseTimeout()
	if err != nil {
		return nil, err
	}
	return &ProcessRunner{
		program: cfg.Program,
		args:    cfg.Args,
		timeout: timeout,
		logger:  logger,
	}, nil
}

// RunQueries executes the SQL text through the external program, streaming
// each stdout line to the log. Exit 0 is success; any nonzero exit fails
// with an ExecError carrying the exit code and the original SQL text.
func (p *ProcessRunner) RunQueries(ctx context.Context, sql string) error {
	p.logger.Info("executing sql", "program", p.program, "sql", sql)

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, p.program, p.commandArgs("sql", sql)...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("failed to open stdout pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start %s: %w", p.program, err)
	}

	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		p.logger.Info("sql output", "line", scanner.Text())
	}
	if scanErr := scanner.Err(); scanErr != nil {
		// Stop draining means the child can block on a full pipe; kill it
		// before waiting so the failure surfaces instead of hanging.
		cancel()
		_ = cmd.Wait()
		return fmt.Errorf("failed to read sql output from %s: %w", p.program, scanErr)
	}

	return p.finish(ctx, cmd, sql, &stderr)
}

// EvalTSV executes a scalar query through the program's eval subcommand and
// returns the index-th tab-separated field of the first non-empty output
// line. The trailing statement terminator is stripped before invocation.
func (p *ProcessRunner) EvalTSV(ctx context.Context, sql string, index int) (string, error) {
	stripped := stripTerminator(sql)
	p.logger.Debug("evaluating sql", "program", p.program, "sql", stripped)

	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, p.program, p.commandArgs("sql", "eval", stripped)...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return "", fmt.Errorf("failed to start %s: %w", p.program, err)
	}
	if err := p.finish(ctx, cmd, sql, &stderr); err != nil {
		return "", err
	}

	line, ok := firstDataLine(stdout.String())
	if !ok {
		return "", &ConvError{Field: "", Type: "tsv line", SQL: sql}
	}
	return selectField(line, sql, index)
}

// commandArgs appends the subcommand words to the configured base args.
func (p *ProcessRunner) commandArgs(subcommand ...string) []string {
	args := make([]string, 0, len(p.args)+len(subcommand))
	args = append(args, p.args...)
	return append(args, subcommand...)
}

// finish waits for the program and applies the exit-code contract.
func (p *ProcessRunner) finish(ctx context.Context, cmd *exec.Cmd, sql string, stderr *bytes.Buffer) error {
	err := cmd.Wait()
	if err == nil {
		return nil
	}

	// A kill triggered by the context surfaces as the context error, not as
	// an exit-code failure. Only the deadline is a timeout; cancellation of
	// the caller's context is reported as such.
	if ctxErr := ctx.Err(); ctxErr != nil {
		if errors.Is(ctxErr, context.DeadlineExceeded) {
			return fmt.Errorf("sql execution timed out after %s: %w", p.timeout, ctxErr)
		}
		return fmt.Errorf("sql execution canceled: %w", ctxErr)
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		p.logger.Error("sql execution failed",
			"program", p.program,
			"exit_code", exitErr.ExitCode(),
			"stderr", stderr.String())
		return &ExecError{ExitCode: exitErr.ExitCode(), SQL: sql}
	}

	return fmt.Errorf("failed to run %s: %w", p.program, err)
}
