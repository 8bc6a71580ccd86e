package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"

	"soundlens/internal/pick"
	"soundlens/internal/repositories"
	"soundlens/internal/session"
	"soundlens/internal/shared"
	"soundlens/internal/spotify"
	"soundlens/internal/tasks"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config *shared.Config
	logger *log.Logger
	output io.Writer

	db       *sql.DB
	sessions *session.Manager
	spotify  *spotify.Client
	engine   *tasks.DashboardEngine
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config *shared.Config
	Logger *log.Logger
	Output io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	return &Runner{
		config: opts.Config,
		logger: opts.Logger,
		output: opts.Output,
	}
}

// SetLogger swaps the runner's logger, e.g. to a file logger while a TUI
// owns the terminal.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

// bootstrap opens the database and wires the session manager, Spotify client
// and dashboard engine. Idempotent; commands that touch Spotify or storage
// call it first.
func (r *Runner) bootstrap() error {
	if r.engine != nil {
		return nil
	}

	if err := r.config.Credentials.Spotify.Validate(); err != nil {
		return err
	}

	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	auth, err := spotify.NewAuthenticator(
		r.config.Credentials.Spotify.ClientID,
		r.config.Credentials.Spotify.ClientSecret,
		r.config.Credentials.Spotify.RedirectURI,
	)
	if err != nil {
		db.Close()
		return err
	}

	sessions := session.NewManager(auth, repositories.NewSessionRepository(db), r.logger)
	client := spotify.NewClient(sessions)

	events := repositories.NewPlayEventRepository(db)
	picks := repositories.NewPickRepository(db)
	memo := pick.NewMemo(picks, r.logger)

	r.db = db
	r.sessions = sessions
	r.spotify = client
	r.engine = tasks.NewDashboardEngine(client, events, memo)
	return nil
}

// Close releases the runner's database handle.
func (r *Runner) Close() error {
	if r.db == nil {
		return nil
	}
	return r.db.Close()
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
