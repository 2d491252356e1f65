// Package cli is the operator command line over the DocsFlow client library.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"docsflow/internal/api"
	"docsflow/internal/auth"
	"docsflow/internal/config"
	"docsflow/internal/logging"
	"docsflow/internal/repository"
	"docsflow/internal/repository/remote"
	"docsflow/internal/service"
	"docsflow/internal/session"
)

// app is built once per invocation, after flags are parsed.
type app struct {
	cfg     *config.AppConfig
	out     io.Writer
	errOut  io.Writer
	in      *bufio.Reader
	session *session.Session
	client  *api.Client
	auth    *auth.Manager
	repo    repository.DocumentRepository
	docs    *service.DocumentController
	uploads *service.UploadOrchestrator
}

// RedirectToLogin prints a re-login hint. The API client has already
// removed the rejected token.
func (a *app) RedirectToLogin() {
	fmt.Fprintf(a.errOut, "Session expired. Run '%s login --email <address>' to sign in again.\n", commandName)
}

const commandName = "docsflow"

// failure carries a controller's human-readable message and the typed cause.
type failure struct {
	msg string
	err error
}

func (f *failure) Error() string { return f.msg }

func (f *failure) Unwrap() error { return f.err }

func failed(msg string, err error) error {
	if msg == "" && err != nil {
		msg = err.Error()
	}
	return &failure{msg: msg, err: err}
}

func NewRootCommand() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   commandName,
		Short: "DocsFlow document CLI",
		Long: `DocsFlow is a command line client for the DocsFlow document backend. It signs in,
lists and edits documents, uploads files and imports them from object storage.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
	}

	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	rootCmd.PersistentFlags().String("api-url", "", "Override API URL")
	rootCmd.PersistentFlags().String("session-file", "", "Where the sign-in token is kept")

	rootCmd.AddCommand(NewLoginCommand(a))
	rootCmd.AddCommand(NewLogoutCommand(a))
	rootCmd.AddCommand(NewWhoamiCommand(a))
	rootCmd.AddCommand(NewDocsCommand(a))
	rootCmd.AddCommand(NewUploadCommand(a))
	rootCmd.AddCommand(NewImportCommand(a))
	rootCmd.AddCommand(NewDashboardCommand(a))
	rootCmd.AddCommand(NewPasswordCommand(a))

	return rootCmd
}

func (a *app) init(cmd *cobra.Command) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	flags := cmd.Root().PersistentFlags()
	if u, _ := flags.GetString("api-url"); u != "" {
		cfg.API.BaseURL = u
	}
	if p, _ := flags.GetString("session-file"); p != "" {
		cfg.Session.FilePath = p
	}
	level := cfg.Log.Level
	if debug, _ := flags.GetBool("debug"); debug {
		level = "debug"
	}

	a.cfg = cfg
	a.out = cmd.OutOrStdout()
	a.errOut = cmd.ErrOrStderr()
	a.in = bufio.NewReader(cmd.InOrStdin())
	logging.Setup(level, "console", a.errOut)

	path := cfg.Session.FilePath
	if path == "" {
		if path, err = session.DefaultFilePath(); err != nil {
			return err
		}
	}
	store, err := session.NewFileStore(path)
	if err != nil {
		return err
	}
	a.session = session.New(store, session.TokenKey)

	a.client = api.NewClient(
		api.WithBaseURL(cfg.API.BaseURL),
		api.WithTimeout(cfg.API.Timeout),
		api.WithUserAgent(cfg.API.UserAgent),
		api.WithSession(a.session),
		api.WithNavigator(a),
	)
	a.auth = auth.NewManager(a.client, a.session)
	a.repo = remote.NewDocumentRemote(a.client, cfg.API)
	a.docs = service.NewDocumentController(a.repo, service.ControllerOptions{DefaultLimit: cfg.API.PageSize})
	a.uploads = service.NewUploadOrchestrator(a.repo, cfg.Upload.Concurrency)
	return nil
}

// readSecret reads one line from stdin without the trailing newline.
func (a *app) readSecret() (string, error) {
	line, err := a.in.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// Execute runs the root command
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := NewRootCommand().ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
