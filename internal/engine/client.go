package engine

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"bnptool/internal/logging"
	"bnptool/internal/merger"
	"bnptool/internal/modmeta"
	"bnptool/internal/services"
)

// Engine actions understood by the bridge executable.
const (
	ActionCreate  = "create"
	ActionInstall = "install"
	ActionExport  = "export"
	ActionVersion = "version"
)

const tailLines = 12

// Executor abstracts command execution for testability.
type Executor interface {
	Run(ctx context.Context, binary string, args []string, onLine func(string)) error
}

// Option configures the client.
type Option func(*Client)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(c *Client) {
		if exec != nil {
			c.exec = exec
		}
	}
}

// WithLogger routes engine output lines to logger at debug level.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logging.NewComponentLogger(logger, "engine")
		}
	}
}

// WithTimeout bounds every engine call. Zero disables the limit.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.timeout = timeout
	}
}

// WithStoreDir points calls on the persistent store at dir instead of the
// engine's own default.
func WithStoreDir(dir string) Option {
	return func(c *Client) {
		c.storeDir = strings.TrimSpace(dir)
	}
}

// Client wraps the external mod engine's command-line bridge.
type Client struct {
	binary   string
	baseArgs []string
	storeDir string
	timeout  time.Duration
	exec     Executor
	logger   *slog.Logger
}

// Store selects the install store an engine call operates on. The zero value
// is the persistent store.
type Store struct {
	Dir string
}

// CreateRequest carries everything the engine needs to package a mod.
type CreateRequest struct {
	Source string
	Output string
	Meta   modmeta.Metadata
	Config merger.Config
}

// InstallRequest describes one archive installation. A nil Config leaves the
// engine's defaults in place.
type InstallRequest struct {
	Archive  string
	MergeNow bool
	Config   *merger.Config
}

// New constructs an engine client. baseArgs are placed before the action on
// every invocation.
func New(binary string, baseArgs []string, opts ...Option) (*Client, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("engine binary required")
	}
	client := &Client{
		binary:   binary,
		baseArgs: append([]string(nil), baseArgs...),
		exec:     commandExecutor{},
		logger:   logging.NewNop(),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

// Binary returns the configured engine executable.
func (c *Client) Binary() string {
	return c.binary
}

// Create packages req.Source into a mod archive at req.Output.
func (c *Client) Create(ctx context.Context, req CreateRequest) error {
	meta, err := req.Meta.JSON()
	if err != nil {
		return fmt.Errorf("encode metadata: %w", err)
	}
	options, err := req.Config.JSON()
	if err != nil {
		return fmt.Errorf("encode merger options: %w", err)
	}
	args := []string{
		"--mod", req.Source,
		"--output", req.Output,
		"--meta", meta,
		"--options", options,
	}
	_, err = c.run(ctx, ActionCreate, args)
	return err
}

// Install installs an archive into store.
func (c *Client) Install(ctx context.Context, store Store, req InstallRequest) error {
	args := []string{
		"--mod", req.Archive,
		"--merge-now=" + strconv.FormatBool(req.MergeNow),
	}
	if req.Config != nil {
		options, err := req.Config.JSON()
		if err != nil {
			return fmt.Errorf("encode merger options: %w", err)
		}
		args = append(args, "--options", options)
	}
	args = c.appendStore(args, store)
	_, err := c.run(ctx, ActionInstall, args)
	return err
}

// Export writes the merged contents of store to output as a standalone archive.
func (c *Client) Export(ctx context.Context, store Store, output string) error {
	args := c.appendStore([]string{"--output", output}, store)
	_, err := c.run(ctx, ActionExport, args)
	return err
}

// Version asks the engine to identify itself.
func (c *Client) Version(ctx context.Context) (string, error) {
	lines, err := c.run(ctx, ActionVersion, nil)
	if err != nil {
		return "", err
	}
	for i := len(lines) - 1; i >= 0; i-- {
		if v := strings.TrimSpace(lines[i]); v != "" {
			return v, nil
		}
	}
	return "", errors.New("engine reported no version")
}

func (c *Client) appendStore(args []string, store Store) []string {
	dir := strings.TrimSpace(store.Dir)
	if dir == "" {
		dir = c.storeDir
	}
	if dir == "" {
		return args
	}
	return append(args, "--store-dir", dir)
}

func (c *Client) run(ctx context.Context, action string, args []string) ([]string, error) {
	runCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	argv := make([]string, 0, len(c.baseArgs)+1+len(args))
	argv = append(argv, c.baseArgs...)
	argv = append(argv, action)
	argv = append(argv, args...)

	logger := logging.WithContext(ctx, c.logger)
	logger.Debug("running engine",
		logging.String("action", action),
		logging.String("binary", c.binary),
		logging.Int("args", len(argv)),
	)

	var (
		mu    sync.Mutex
		lines []string
	)
	started := time.Now()
	err := c.exec.Run(runCtx, c.binary, argv, func(line string) {
		mu.Lock()
		lines = append(lines, line)
		mu.Unlock()
		if update, ok := parseProgress(line); ok {
			logger.Info("engine progress",
				logging.String("action", action),
				logging.Int("percent", update.Percent),
				logging.String("message", update.Message),
			)
			return
		}
		logger.Debug("engine output", logging.String("action", action), logging.String("line", line))
	})
	if err != nil {
		return lines, newToolError(runCtx, action, err, lines)
	}
	logger.Debug("engine finished",
		logging.String("action", action),
		logging.Duration("elapsed", time.Since(started)),
	)
	return lines, nil
}

// ToolError reports a failed engine invocation. It matches
// services.ErrExternalTool with errors.Is.
type ToolError struct {
	Action   string
	ExitCode int
	Output   []string
	Err      error
}

func newToolError(ctx context.Context, action string, err error, lines []string) error {
	te := &ToolError{Action: action, ExitCode: -1, Err: err}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		te.ExitCode = exitErr.ExitCode()
	}
	if len(lines) > tailLines {
		lines = lines[len(lines)-tailLines:]
	}
	te.Output = append([]string(nil), lines...)

	switch {
	case errors.Is(err, exec.ErrNotFound):
		return services.Wrap(services.ErrConfiguration, "engine", action, "engine binary not found; set engine.binary", te)
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		return services.Wrap(services.ErrTimeout, "engine", action, "engine.timeout_seconds exceeded", te)
	}
	return te
}

func (e *ToolError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "engine %s failed", e.Action)
	if e.ExitCode >= 0 {
		fmt.Fprintf(&b, " (exit %d)", e.ExitCode)
	}
	if msg := e.lastMessage(); msg != "" {
		b.WriteString(": ")
		b.WriteString(msg)
	} else if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap exposes the marker and the underlying process error.
func (e *ToolError) Unwrap() []error {
	return []error{services.ErrExternalTool, e.Err}
}

func (e *ToolError) lastMessage() string {
	for i := len(e.Output) - 1; i >= 0; i-- {
		line := strings.TrimSpace(e.Output[i])
		if msg, ok := strings.CutPrefix(line, "ERROR:"); ok {
			return strings.TrimSpace(msg)
		}
	}
	for i := len(e.Output) - 1; i >= 0; i-- {
		if line := strings.TrimSpace(e.Output[i]); line != "" {
			return line
		}
	}
	return ""
}

// ProgressUpdate captures a PROGRESS:<percent>,<message> line.
type ProgressUpdate struct {
	Percent int
	Message string
}

func parseProgress(line string) (ProgressUpdate, bool) {
	payload, ok := strings.CutPrefix(strings.TrimSpace(line), "PROGRESS:")
	if !ok {
		return ProgressUpdate{}, false
	}
	pct, msg, _ := strings.Cut(payload, ",")
	percent, err := strconv.Atoi(strings.TrimSpace(pct))
	if err != nil || percent < 0 || percent > 100 {
		return ProgressUpdate{}, false
	}
	return ProgressUpdate{Percent: percent, Message: strings.TrimSpace(msg)}, true
}

type commandExecutor struct{}

func (commandExecutor) Run(ctx context.Context, binary string, args []string, onLine func(string)) error {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("stdout pipe: %w", err)
	}
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("stderr pipe: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start command: %w", err)
	}

	var wg sync.WaitGroup
	var scanErr error
	var once sync.Once

	scan := func(r io.Reader, forward func(string)) {
		defer wg.Done()
		scanner := bufio.NewScanner(r)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			forward(scanner.Text())
		}
		if err := scanner.Err(); err != nil {
			once.Do(func() {
				scanErr = err
			})
		}
	}

	forward := func(line string) {
		if onLine != nil {
			onLine(line)
			return
		}
		fmt.Fprintln(os.Stderr, line)
	}

	wg.Add(2)
	go scan(stdout, forward)
	go scan(stderr, forward)

	wg.Wait()
	if scanErr != nil {
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
		return fmt.Errorf("scan output: %w", scanErr)
	}

	if err := cmd.Wait(); err != nil {
		return fmt.Errorf("wait command: %w", err)
	}
	return nil
}
