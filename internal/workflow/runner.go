package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"bnptool/internal/engine"
	"bnptool/internal/fileutil"
	"bnptool/internal/logging"
	"bnptool/internal/merger"
	"bnptool/internal/modhash"
	"bnptool/internal/modmeta"
	"bnptool/internal/services"
)

// DefaultConvertName is the archive written by convert when no output is given.
const DefaultConvertName = "StandAlone.zip"

// exportDir holds the engine's export inside the temporary store until it is
// complete, so a failed export never leaves a partial archive at the output.
const exportDir = ".export"

// Engine is the subset of the engine client the workflows drive.
type Engine interface {
	Create(ctx context.Context, req engine.CreateRequest) error
	Install(ctx context.Context, store engine.Store, req engine.InstallRequest) error
	Export(ctx context.Context, store engine.Store, output string) error
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the base logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithWorkingDir fixes the directory default output paths are derived from.
func WithWorkingDir(dir string) Option {
	return func(r *Runner) {
		r.getwd = func() (string, error) { return dir, nil }
	}
}

// Runner sequences engine calls for the create, convert and install
// workflows.
type Runner struct {
	engine     Engine
	scratchDir string
	getwd      func() (string, error)
	logger     *slog.Logger
}

// New constructs a Runner. scratchDir is the root for temporary stores.
func New(eng Engine, scratchDir string, opts ...Option) *Runner {
	r := &Runner{
		engine:     eng,
		scratchDir: scratchDir,
		getwd:      os.Getwd,
		logger:     logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// CreateRequest describes one create invocation.
type CreateRequest struct {
	Source string
	// Output is the archive path; empty derives <cwd>/<name>.bnp.
	Output string
	Meta   modmeta.Input
	// MetaFile optionally names a YAML manifest; Meta fields override it.
	MetaFile  string
	Selection merger.Selection
}

// CreateResult reports what create handed to the engine.
type CreateResult struct {
	Output string
	Meta   modmeta.Metadata
	Config merger.Config
}

// Create packages a mod folder into a BNP archive.
func (r *Runner) Create(ctx context.Context, req CreateRequest) (CreateResult, error) {
	ctx, logger := r.begin(ctx, "create")

	source, err := r.existingPath(req.Source, "mod")
	if err != nil {
		return CreateResult{}, err
	}

	input := req.Meta
	if strings.TrimSpace(req.MetaFile) != "" {
		manifest, err := modmeta.LoadManifest(req.MetaFile)
		if err != nil {
			return CreateResult{}, services.Wrap(services.ErrValidation, "workflow", "create", "metadata manifest", err)
		}
		input = modmeta.Overlay(manifest.Input(), input)
	}

	meta := modmeta.Assemble(input)
	cfg := merger.Build(req.Selection)

	output := strings.TrimSpace(req.Output)
	if output == "" {
		cwd, err := r.getwd()
		if err != nil {
			return CreateResult{}, fmt.Errorf("resolve working directory: %w", err)
		}
		output = modmeta.DefaultOutputPath(cwd, meta.Name)
	} else if output, err = r.absolute(output); err != nil {
		return CreateResult{}, err
	}

	logger.Debug("create arguments",
		logging.String("source", source),
		logging.String("output", output),
		logging.String("name", meta.Name),
		logging.String("version", meta.Version),
		logging.Any("enabled_stages", cfg.Enabled()),
		logging.Any("disabled_stages", cfg.Disable),
		logging.Any("option_groups", cfg.Groups()),
	)

	if err := r.engine.Create(ctx, engine.CreateRequest{
		Source: source,
		Output: output,
		Meta:   meta,
		Config: cfg,
	}); err != nil {
		return CreateResult{}, err
	}

	logger.Info("archive created",
		logging.String("output", output),
		logging.String(logging.FieldEventType, "create_complete"),
	)
	return CreateResult{Output: output, Meta: meta, Config: cfg}, nil
}

// ConvertRequest describes one convert invocation.
type ConvertRequest struct {
	Source string
	// Output is the standalone archive path; empty derives <cwd>/StandAlone.zip.
	Output string
}

// ConvertResult reports the outcome of a conversion. Store and State are
// populated even when the conversion fails.
type ConvertResult struct {
	Output string
	Store  string
	State  engine.State
}

// ConvertConfig is the fixed merger configuration used by convert.
func ConvertConfig() merger.Config {
	return merger.Build(merger.Selection{"mergetextalllang": true})
}

// Convert installs a BNP into a temporary store, exports that store as a
// standalone archive, moves it to the output path, and removes the store on
// every exit path.
func (r *Runner) Convert(ctx context.Context, req ConvertRequest) (res ConvertResult, err error) {
	ctx, logger := r.begin(ctx, "convert")

	source, err := r.existingPath(req.Source, "archive")
	if err != nil {
		return res, err
	}
	output, err := r.outputPath(req.Output, DefaultConvertName)
	if err != nil {
		return res, err
	}

	store, err := engine.OpenTempStore(r.scratchDir, logger)
	if err != nil {
		return res, fmt.Errorf("open temporary store: %w", err)
	}
	res.Store = store.Dir()
	defer func() {
		err = store.Release(err)
		res.State = store.State()
	}()

	cfg := ConvertConfig()
	logger.Info("installing into temporary store",
		logging.String("archive", source),
		logging.String("store", store.Dir()),
	)
	if err = r.engine.Install(ctx, store.Store(), engine.InstallRequest{
		Archive:  source,
		MergeNow: true,
		Config:   &cfg,
	}); err != nil {
		return res, err
	}

	staged := filepath.Join(store.Dir(), exportDir, filepath.Base(output))
	if err = os.MkdirAll(filepath.Dir(staged), 0o755); err != nil {
		return res, fmt.Errorf("prepare export directory: %w", err)
	}
	logger.Info("exporting standalone archive", logging.String("output", output))
	if err = r.engine.Export(ctx, store.Store(), staged); err != nil {
		return res, err
	}
	if err = fileutil.MoveFile(staged, output); err != nil {
		return res, fmt.Errorf("move exported archive: %w", err)
	}

	res.Output = output
	logger.Info("conversion complete",
		logging.String("output", output),
		logging.String(logging.FieldEventType, "convert_complete"),
	)
	return res, nil
}

// InstallRequest describes one install invocation.
type InstallRequest struct {
	Archive string
	Remerge bool
}

// Install installs an archive into the engine's persistent store using the
// engine's default merger configuration.
func (r *Runner) Install(ctx context.Context, req InstallRequest) error {
	ctx, logger := r.begin(ctx, "install")

	archive, err := r.existingPath(req.Archive, "archive")
	if err != nil {
		return err
	}

	logger.Info("installing mod",
		logging.String("archive", archive),
		logging.Bool("remerge", req.Remerge),
	)
	if err := r.engine.Install(ctx, engine.Store{}, engine.InstallRequest{
		Archive:  archive,
		MergeNow: req.Remerge,
	}); err != nil {
		return err
	}
	logger.Info("install complete", logging.String(logging.FieldEventType, "install_complete"))
	return nil
}

// Hash returns the dependency identifier for name and version.
func Hash(name, version string) (string, error) {
	if name == "" || version == "" {
		return "", services.Wrap(services.ErrValidation, "workflow", "hash", "name and version must not be empty", nil)
	}
	return modhash.Encode(name, version), nil
}

func (r *Runner) begin(ctx context.Context, name string) (context.Context, *slog.Logger) {
	ctx = services.WithWorkflow(ctx, name)
	if _, ok := services.RunIDFromContext(ctx); !ok {
		ctx = services.WithRunID(ctx, uuid.NewString())
	}
	return ctx, logging.WithContext(ctx, logging.NewComponentLogger(r.logger, "workflow"))
}

func (r *Runner) outputPath(explicit, defaultName string) (string, error) {
	explicit = strings.TrimSpace(explicit)
	if explicit != "" {
		return r.absolute(explicit)
	}
	cwd, err := r.getwd()
	if err != nil {
		return "", fmt.Errorf("resolve working directory: %w", err)
	}
	return filepath.Join(cwd, defaultName), nil
}

func (r *Runner) absolute(path string) (string, error) {
	if filepath.IsAbs(path) {
		return filepath.Clean(path), nil
	}
	cwd, err := r.getwd()
	if err != nil {
		return "", fmt.Errorf("resolve working directory: %w", err)
	}
	return filepath.Join(cwd, path), nil
}

func (r *Runner) existingPath(path, kind string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", services.Wrap(services.ErrValidation, "workflow", kind, kind+" path required", nil)
	}
	resolved, err := r.absolute(path)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(resolved); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", services.Wrap(services.ErrNotFound, "workflow", kind, resolved, nil)
		}
		return "", fmt.Errorf("stat %s: %w", resolved, err)
	}
	return resolved, nil
}
