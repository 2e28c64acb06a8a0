package publish

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"loadgate/internal/logging"
	"loadgate/internal/services"
)

// CommandDelegate publishes by running an external command. The prefix and
// credentials reach the command through its environment, and the version is
// read from its stdout.
type CommandDelegate struct {
	binary  string
	args    []string
	dir     string
	timeout time.Duration
	exec    Executor
	logger  *slog.Logger
}

// Option configures the delegate.
type Option func(*CommandDelegate)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(d *CommandDelegate) {
		if exec != nil {
			d.exec = exec
		}
	}
}

// WithLogger sets the logger used for streamed command output.
func WithLogger(logger *slog.Logger) Option {
	return func(d *CommandDelegate) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// WithTimeout bounds the command's run time. Zero leaves it unbounded.
func WithTimeout(timeout time.Duration) Option {
	return func(d *CommandDelegate) {
		d.timeout = timeout
	}
}

// WithWorkDir runs the command from dir.
func WithWorkDir(dir string) Option {
	return func(d *CommandDelegate) {
		d.dir = strings.TrimSpace(dir)
	}
}

// NewCommandDelegate constructs a delegate for command, whose first element is
// the binary.
func NewCommandDelegate(command []string, opts ...Option) (*CommandDelegate, error) {
	if len(command) == 0 || strings.TrimSpace(command[0]) == "" {
		return nil, services.Wrap(services.ErrConfiguration, "publish", "configure", "publish.command is empty; set it or pass --version", nil)
	}
	d := &CommandDelegate{
		binary: strings.TrimSpace(command[0]),
		args:   append([]string(nil), command[1:]...),
		exec:   commandExecutor{},
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Publish runs the command and returns the version it reports.
func (d *CommandDelegate) Publish(ctx context.Context, req Request) (Result, error) {
	env, secrets, err := buildEnv(req)
	if err != nil {
		return Result{}, err
	}

	runCtx := ctx
	if d.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	mask := newMasker(secrets)
	var (
		mu     sync.Mutex
		parser versionParser
	)
	onStdout := func(line string) {
		mu.Lock()
		parser.observe(line)
		mu.Unlock()
		d.logger.Info(mask(line), logging.String("stream", "stdout"))
	}
	onStderr := func(line string) {
		d.logger.Info(mask(line), logging.String("stream", "stderr"))
	}

	d.logger.Info("running publish command",
		logging.String("binary", d.binary),
		logging.String("prefix", req.Prefix),
	)
	started := time.Now()
	cmd := Command{Binary: d.binary, Args: d.args, Env: env, Dir: d.dir}
	if err := d.exec.Run(runCtx, cmd, onStdout, onStderr); err != nil {
		if errors.Is(runCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil {
			return Result{}, services.Wrap(services.ErrTimeout, "publish", "run", fmt.Sprintf("%s exceeded %s", d.binary, d.timeout), err)
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Result{}, ctxErr
		}
		return Result{}, services.Wrap(services.ErrExternalTool, "publish", "run", d.binary+" failed", err)
	}

	mu.Lock()
	version := parser.version()
	mu.Unlock()
	if version == "" {
		return Result{}, services.Wrap(services.ErrExternalTool, "publish", "parse output", d.binary+" reported no version", nil)
	}
	d.logger.Info("publish command finished",
		logging.String("version", version),
		logging.Duration("elapsed", time.Since(started).Round(time.Millisecond)),
	)
	return Result{Version: version}, nil
}

func buildEnv(req Request) ([]string, []string, error) {
	env := append(os.Environ(), PrefixEnv+"="+req.Prefix)
	secrets := make([]string, 0, len(req.Credentials))
	for _, cred := range req.Credentials {
		name := strings.TrimSpace(cred.Env)
		if name == "" {
			return nil, nil, services.Wrap(services.ErrConfiguration, "publish", "credentials", "credential has no env name", nil)
		}
		if cred.Value == "" {
			return nil, nil, services.Wrap(services.ErrConfiguration, "publish", "credentials", name+" is not set", nil)
		}
		env = append(env, name+"="+cred.Value)
		secrets = append(secrets, cred.Value)
	}
	return env, secrets, nil
}

func newMasker(secrets []string) func(string) string {
	pairs := make([]string, 0, len(secrets)*2)
	for _, secret := range secrets {
		if secret != "" {
			pairs = append(pairs, secret, "***")
		}
	}
	if len(pairs) == 0 {
		return func(line string) string { return line }
	}
	replacer := strings.NewReplacer(pairs...)
	return replacer.Replace
}
