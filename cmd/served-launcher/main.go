package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/exec"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"

	"github.com/dlang-community/serve-d-launcher/internal/bootstrap"
	"github.com/dlang-community/serve-d-launcher/internal/config"
	"github.com/dlang-community/serve-d-launcher/internal/installer"
	"github.com/dlang-community/serve-d-launcher/internal/logger"
	"github.com/dlang-community/serve-d-launcher/internal/platform"
	"github.com/dlang-community/serve-d-launcher/internal/release"
	"github.com/dlang-community/serve-d-launcher/internal/ui"
)

// version is injected at build time via -ldflags
var version = "dev"

const (
	metadataTimeout = 30 * time.Second
	downloadTimeout = 5 * time.Minute
)

func main() {
	quiet := false
	debug := false
	for _, arg := range os.Args[1:] {
		switch arg {
		case "--quiet", "-q":
			quiet = true
		case "--debug":
			debug = true
		}
	}

	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "version", "--version", "-v":
			fmt.Printf("serve-d launcher v%s\n", version)
			os.Exit(0)
		case "help", "--help", "-h":
			showHelp()
			os.Exit(0)
		case "logs", "--logs":
			_ = logger.Initialize(logger.LevelInfo)
			fmt.Printf("Log file location: %s\n", logger.Path())
			os.Exit(0)
		case "check":
			os.Exit(runCheck(debug))
		}
	}

	os.Exit(run(quiet, debug))
}

// run executes the bootstrap pipeline and hands control to serve-d.
// Pipeline failures end the process without a server; the details land in
// the log, not on the editor's initialization channel.
func run(quiet, debug bool) int {
	cfg, ok := load(debug)
	if !ok {
		return 1
	}
	defer logger.Get().Close()

	params := launchParams(cfg)

	// The progress display renders to stderr: stdout belongs to the LSP
	// channel once serve-d starts. Skip it entirely when stderr is not a
	// terminal or there is nothing to watch.
	interactive := !quiet && cfg.LSP.ServerPath == "" && isatty.IsTerminal(os.Stderr.Fd())

	var desc bootstrap.Descriptor
	var err error
	if interactive {
		desc, err = resolveWithProgress(cfg, params)
	} else {
		desc, err = newBootstrapper(cfg, nil).Resolve(context.Background(), params)
	}
	if err != nil {
		logger.Error("bootstrap failed: %v", err)
		fmt.Fprintf(os.Stderr, "serve-d launcher: could not prepare the language server (see %s)\n", logger.Path())
		return 1
	}

	logger.Info("starting %s (language %s)", desc.Path, desc.LanguageID)
	starter := &execStarter{}
	if err := starter.StartLSP(context.Background(), desc); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return exitErr.ExitCode()
		}
		logger.Error("starting serve-d: %v", err)
		return 1
	}
	return 0
}

// runCheck reports whether an install would happen, without installing.
func runCheck(debug bool) int {
	cfg, ok := load(debug)
	if !ok {
		return 1
	}
	defer logger.Get().Close()

	status, err := newBootstrapper(cfg, nil).Check(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "check failed: %v\n", err)
		return 1
	}

	fmt.Printf("Platform:  %s-%s\n", status.Arch, status.OS)
	fmt.Printf("Installed: %s\n", status.Installed)
	fmt.Printf("Latest:    %s\n", status.Remote)
	fmt.Printf("Server:    %s\n", status.Path)
	if status.UpdateNeeded {
		fmt.Println("An install would be performed on the next launch.")
	} else {
		fmt.Println("No install needed.")
	}
	return 0
}

// load reads configuration and initializes the diagnostic log.
func load(debug bool) (*config.Config, bool) {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "serve-d launcher: %v\n", err)
		return nil, false
	}

	level := logger.ParseLevel(cfg.LogLevel)
	if debug {
		level = logger.LevelDebug
	}
	_ = logger.Initialize(level)
	logger.Info("serve-d launcher v%s starting", version)
	return cfg, true
}

// newBootstrapper wires a pipeline session with production HTTP timeouts.
func newBootstrapper(cfg *config.Config, progress installer.ProgressFunc) *bootstrap.Bootstrapper {
	installerOpts := []installer.Option{
		installer.WithHTTPClient(&http.Client{Timeout: downloadTimeout}),
	}
	if progress != nil {
		installerOpts = append(installerOpts, installer.WithProgress(progress))
	}

	return bootstrap.New(
		platform.NewHostEnvironment(cfg.DataDir),
		bootstrap.WithReleaseClient(release.NewClient(
			release.WithHTTPClient(&http.Client{Timeout: metadataTimeout}),
		)),
		bootstrap.WithInstaller(installer.New(installerOpts...)),
	)
}

// launchParams builds the initialization parameters from configuration,
// carrying the raw options payload through for the server.
func launchParams(cfg *config.Config) bootstrap.Params {
	raw, _ := json.Marshal(map[string]any{"lsp": cfg.LSP})
	return bootstrap.Params{
		Options:    cfg.LSP,
		RawOptions: raw,
	}
}

// resolveWithProgress runs the pipeline while a terminal progress line is
// displayed. The pipeline runs in a goroutine and feeds the UI program.
func resolveWithProgress(cfg *config.Config, params bootstrap.Params) (bootstrap.Descriptor, error) {
	p := tea.NewProgram(ui.NewModel("preparing serve-d"), tea.WithOutput(os.Stderr))

	b := newBootstrapper(cfg, func(downloaded, total int64) {
		p.Send(ui.ProgressMsg{Downloaded: downloaded, Total: total})
	})

	type result struct {
		desc bootstrap.Descriptor
		err  error
	}
	done := make(chan result, 1)

	go func() {
		desc, err := b.Resolve(context.Background(), params)
		p.Send(ui.DoneMsg{Err: err})
		done <- result{desc: desc, err: err}
	}()

	if _, err := p.Run(); err != nil {
		// The UI failing must not take the pipeline down with it.
		logger.Warn("progress display failed: %v", err)
	}

	res := <-done
	return res.desc, res.err
}

// execStarter starts serve-d as a child process with inherited stdio, so
// the editor speaks LSP to it directly.
type execStarter struct{}

func (s *execStarter) StartLSP(ctx context.Context, desc bootstrap.Descriptor) error {
	cmd := exec.CommandContext(ctx, desc.Path, desc.Args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

func showHelp() {
	fmt.Printf(`serve-d launcher v%s - installs and starts the serve-d language server

USAGE:
  served-launcher [flags]
  served-launcher check
  served-launcher version | logs | help

COMMANDS:
  served-launcher              Ensure serve-d is installed, then start it
  served-launcher check        Report installed vs. latest version, no install
  served-launcher logs         Show the diagnostic log file location
  served-launcher version      Show launcher version

FLAGS:
  --quiet, -q    Suppress the terminal progress display
  --debug        Stream debug-level diagnostics to stderr

CONFIGURATION:
  Config: ~/.served-launcher/config.yaml
  Logs:   ~/.served-launcher/launcher.log

  lsp:
    server_path: ""        # use an existing serve-d instead of installing
    server_args: []        # extra arguments appended to the launch
  data_dir: ""             # where serve-d is installed
  log_level: info
`, version)
}
