// Package bootstrap drives the version-gated fetch-and-install pipeline
// and resolves the final serve-d launch descriptor.
package bootstrap

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/dlang-community/serve-d-launcher/internal/config"
	"github.com/dlang-community/serve-d-launcher/internal/installer"
	"github.com/dlang-community/serve-d-launcher/internal/ledger"
	"github.com/dlang-community/serve-d-launcher/internal/logger"
	"github.com/dlang-community/serve-d-launcher/internal/platform"
	"github.com/dlang-community/serve-d-launcher/internal/release"
)

// LanguageID is the language identifier handed to the LSP host.
const LanguageID = "d"

const serverName = "serve-d"

// baseArgs returns the argument list every serve-d launch starts from.
func baseArgs() []string {
	return []string{"--require", "d"}
}

// Descriptor is the resolved (executable, arguments, language) tuple the
// host needs to start the language server. Built once per bootstrap cycle,
// never persisted.
type Descriptor struct {
	Path       string
	Args       []string
	LanguageID string

	// RawOptions is the original initialization payload, passed through
	// opaquely for the host.
	RawOptions json.RawMessage
}

// Params carries one initialization event into the pipeline.
type Params struct {
	Options    config.Options
	RawOptions json.RawMessage
}

// Starter is the outbound "start language server" action, implemented by
// the host process.
type Starter interface {
	StartLSP(ctx context.Context, desc Descriptor) error
}

// Status summarizes the pipeline decision without acting on it.
type Status struct {
	OS           platform.OS
	Arch         platform.Arch
	Installed    string
	Remote       string
	Fresh        bool
	UpdateNeeded bool
	Path         string
}

// Bootstrapper holds the pipeline collaborators for one session. It keeps
// no package-level state; construct one per initialization event.
type Bootstrapper struct {
	env       platform.Environment
	releases  *release.Client
	installer *installer.Installer
}

// Option configures a Bootstrapper during construction.
type Option func(*Bootstrapper)

// WithReleaseClient overrides the release metadata client.
func WithReleaseClient(c *release.Client) Option {
	return func(b *Bootstrapper) {
		if c != nil {
			b.releases = c
		}
	}
}

// WithInstaller overrides the archive installer.
func WithInstaller(i *installer.Installer) Option {
	return func(b *Bootstrapper) {
		if i != nil {
			b.installer = i
		}
	}
}

// New creates a Bootstrapper reading host facts from env.
func New(env platform.Environment, opts ...Option) *Bootstrapper {
	b := &Bootstrapper{
		env:       env,
		releases:  release.NewClient(),
		installer: installer.New(),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Resolve runs the pipeline for one initialization event and returns the
// launch descriptor. A non-empty override path short-circuits everything:
// no platform resolution, no network, no ledger. Otherwise the sequence is
// resolve platform, fetch metadata, read ledger, decide, install if
// needed, write ledger, emit. Every error aborts the cycle.
func (b *Bootstrapper) Resolve(ctx context.Context, params Params) (Descriptor, error) {
	args := append(baseArgs(), params.Options.ServerArgs...)

	if params.Options.ServerPath != "" {
		logger.Info("using configured server path %s", params.Options.ServerPath)
		return Descriptor{
			Path:       params.Options.ServerPath,
			Args:       args,
			LanguageID: LanguageID,
			RawOptions: params.RawOptions,
		}, nil
	}

	osToken, archToken, err := b.resolvePlatform()
	if err != nil {
		return Descriptor{}, err
	}

	rel, err := b.releases.Latest(ctx)
	if err != nil {
		return Descriptor{}, err
	}
	logger.Debug("latest release tag is %s (%d assets)", rel.TagName, len(rel.Assets))

	dir, err := b.env.WorkingDirectory()
	if err != nil {
		return Descriptor{}, fmt.Errorf("bootstrap: working directory: %w", err)
	}

	led := ledger.New(dir)
	installed, fresh, err := led.Read()
	if err != nil {
		return Descriptor{}, err
	}

	need, err := ShouldUpdate(installed, rel.TagName, fresh)
	if err != nil {
		return Descriptor{}, err
	}

	if need {
		logger.Info("installing serve-d %s (%s-%s) into %s", rel.TagName, archToken, osToken, dir)
		if err := b.installer.Install(ctx, rel.TagName, archToken, osToken, dir); err != nil {
			return Descriptor{}, err
		}
	} else {
		logger.Debug("serve-d %s already present, no install needed", installed)
	}

	// The marker always tracks the most recently observed tag, install or not.
	if err := led.Write(rel.TagName); err != nil {
		return Descriptor{}, err
	}

	return Descriptor{
		Path:       filepath.Join(dir, execName(osToken)),
		Args:       args,
		LanguageID: LanguageID,
		RawOptions: params.RawOptions,
	}, nil
}

// Check runs the pipeline up to the update decision without installing or
// touching the marker beyond the directory-creating read.
func (b *Bootstrapper) Check(ctx context.Context) (*Status, error) {
	osToken, archToken, err := b.resolvePlatform()
	if err != nil {
		return nil, err
	}

	rel, err := b.releases.Latest(ctx)
	if err != nil {
		return nil, err
	}

	dir, err := b.env.WorkingDirectory()
	if err != nil {
		return nil, fmt.Errorf("bootstrap: working directory: %w", err)
	}

	installed, fresh, err := ledger.New(dir).Read()
	if err != nil {
		return nil, err
	}

	need, err := ShouldUpdate(installed, rel.TagName, fresh)
	if err != nil {
		return nil, err
	}

	return &Status{
		OS:           osToken,
		Arch:         archToken,
		Installed:    installed,
		Remote:       rel.TagName,
		Fresh:        fresh,
		UpdateNeeded: need,
		Path:         filepath.Join(dir, execName(osToken)),
	}, nil
}

func (b *Bootstrapper) resolvePlatform() (platform.OS, platform.Arch, error) {
	rawOS, err := b.env.OperatingSystem()
	if err != nil {
		return "", "", fmt.Errorf("bootstrap: query operating system: %w", err)
	}
	osToken, err := platform.ResolveOS(rawOS)
	if err != nil {
		return "", "", err
	}

	rawArch, err := b.env.Architecture()
	if err != nil {
		return "", "", fmt.Errorf("bootstrap: query architecture: %w", err)
	}
	archToken, err := platform.ResolveArch(rawArch)
	if err != nil {
		return "", "", err
	}

	return osToken, archToken, nil
}

// execName returns the platform-suffixed server executable name.
func execName(osToken platform.OS) string {
	if osToken == platform.OSWindows {
		return serverName + ".exe"
	}
	return serverName
}
