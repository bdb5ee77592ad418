// Package cli implements the clinic command line client. Each command is one
// view: it checks the guard, loads what it shows and prints it.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/clinicdesk/clinicdesk-go/internal/apiclient"
	"github.com/clinicdesk/clinicdesk-go/internal/config"
	"github.com/clinicdesk/clinicdesk-go/internal/enrich"
	"github.com/clinicdesk/clinicdesk-go/internal/guard"
	"github.com/clinicdesk/clinicdesk-go/internal/localstore"
	"github.com/clinicdesk/clinicdesk-go/internal/logging"
	"github.com/clinicdesk/clinicdesk-go/internal/mutation"
	"github.com/clinicdesk/clinicdesk-go/internal/normalize"
	"github.com/clinicdesk/clinicdesk-go/internal/resource"
	"github.com/clinicdesk/clinicdesk-go/internal/session"
)

var ErrPasswordMismatch = errors.New("passwords do not match")

// Options are the process-level inputs of the CLI. Zero values mean the
// real terminal, the on-disk state store and the default HTTP client.
type Options struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// Storage replaces the store at CLINIC_STATE_PATH. It is not closed.
	Storage    localstore.Store
	HTTPClient *http.Client
}

func (o Options) withDefaults() Options {
	if o.Stdin == nil {
		o.Stdin = os.Stdin
	}
	if o.Stdout == nil {
		o.Stdout = os.Stdout
	}
	if o.Stderr == nil {
		o.Stderr = os.Stderr
	}
	return o
}

// app holds the components shared by every command of one invocation.
type app struct {
	opts   Options
	cfg    config.Client
	logger zerolog.Logger

	storage     localstore.Store
	ownsStorage bool

	kinds     *resource.Registry
	client    *apiclient.Client
	session   *session.Store
	guard     *guard.Guard
	pipeline  *enrich.Pipeline
	mutations *mutation.Coordinator
}

func newApp(ctx context.Context, v *viper.Viper, opts Options) (*app, error) {
	cfg, err := config.LoadClient(v)
	if err != nil {
		return nil, err
	}

	a := &app{
		opts:   opts,
		cfg:    cfg,
		logger: logging.New(cfg.LogLevel, cfg.LogPretty, opts.Stderr),
		kinds:  resource.Clinic(),
	}

	if opts.Storage != nil {
		a.storage = opts.Storage
	} else {
		store, err := localstore.OpenSQLite(cfg.StatePath)
		if err != nil {
			return nil, err
		}
		a.storage = store
		a.ownsStorage = true
	}

	a.client, err = apiclient.New(apiclient.Config{
		BaseURL:    cfg.APIURL,
		Timeout:    cfg.HTTPTimeout,
		HTTPClient: opts.HTTPClient,
		Logger:     a.logger,
	})
	if err != nil {
		a.close()
		return nil, err
	}

	a.session = session.New(a.client, a.storage, a.logger)
	a.client.SetTokenSource(a.session)
	if err := a.session.Initialize(ctx); err != nil {
		a.close()
		return nil, err
	}

	a.guard = guard.New(a.session)
	a.pipeline = enrich.New(a.client, a.logger)
	a.pipeline.Concurrency = cfg.EnrichConcurrency
	a.mutations = mutation.New(a.client, a.logger)

	a.logger.Debug().Str("api_url", cfg.APIURL).Bool("signed_in", a.session.Token() != "").Msg("client ready")
	return a, nil
}

func (a *app) close() {
	if a.ownsStorage && a.storage != nil {
		if err := a.storage.Close(); err != nil {
			a.logger.Warn().Err(err).Msg("closing state store")
		}
	}
}

// Run executes the CLI with args and returns the process exit status. A
// failure is printed once to stderr.
func Run(ctx context.Context, args []string, opts Options) int {
	opts = opts.withDefaults()

	var a *app
	root := newRootCommand(opts, &a)
	root.SetArgs(args)
	root.SetIn(opts.Stdin)
	root.SetOut(opts.Stdout)
	root.SetErr(opts.Stderr)

	err := root.ExecuteContext(ctx)
	if a != nil {
		a.close()
	}
	if err != nil {
		fmt.Fprintln(opts.Stderr, "Error: "+userMessage(err))
		return 1
	}
	return 0
}

// userMessage is the one line shown for a failed command.
func userMessage(err error) string {
	switch {
	case errors.Is(err, normalize.ErrReferenceRequired):
		return "please select a patient and doctor"
	default:
		return mutation.Message(err)
	}
}

// lookupKind resolves a resource argument.
func (a *app) lookupKind(name string) (resource.Kind, error) {
	return a.kinds.Lookup(name)
}

// navigate runs the guard for path. When it denies, the landing view is
// shown instead and false is returned; the command then ends successfully.
func (a *app) navigate(cmd *cobra.Command, path string) bool {
	d := a.guard.Check(path)
	if d.Allow {
		return true
	}
	a.logger.Debug().Str("path", path).Str("redirect", d.Redirect).Msg("navigation denied")
	a.renderHome(cmd.OutOrStdout())
	return false
}
