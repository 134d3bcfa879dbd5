package platform

import (
	"errors"
	"fmt"
	"runtime"

	"github.com/shirou/gopsutil/v3/host"
)

// Errors returned when the host does not match a published serve-d build.
var (
	ErrUnsupportedOS   = errors.New("unsupported operating system")
	ErrUnsupportedArch = errors.New("unsupported architecture")
)

// OS is a canonical operating system token as used in release archive names.
type OS string

// Arch is a canonical CPU architecture token as used in release archive names.
type Arch string

const (
	OSMacOS   OS = "macos"
	OSLinux   OS = "linux"
	OSWindows OS = "windows"

	ArchX86_64 Arch = "x86_64"
	ArchARM64  Arch = "arm64"
)

// ResolveOS maps a raw operating system name onto the release naming
// vocabulary. Both uname-style ("darwin") and pretty ("macos") spellings
// are accepted; anything else fails with ErrUnsupportedOS.
func ResolveOS(raw string) (OS, error) {
	switch raw {
	case "macos", "darwin":
		return OSMacOS, nil
	case "linux":
		return OSLinux, nil
	case "windows":
		return OSWindows, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedOS, raw)
}

// ResolveArch maps a raw CPU architecture name onto the release naming
// vocabulary. Accepts both kernel ("x86_64", "aarch64") and Go
// ("amd64", "arm64") spellings; anything else fails with ErrUnsupportedArch.
func ResolveArch(raw string) (Arch, error) {
	switch raw {
	case "x86_64", "amd64":
		return ArchX86_64, nil
	case "aarch64", "arm64":
		return ArchARM64, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedArch, raw)
}

// Environment exposes the host facts the bootstrap pipeline needs. Every
// query can fail; a failed query aborts the pipeline.
type Environment interface {
	// OperatingSystem returns the raw OS name, e.g. "linux" or "darwin".
	OperatingSystem() (string, error)
	// Architecture returns the raw CPU architecture, e.g. "x86_64".
	Architecture() (string, error)
	// WorkingDirectory returns the writable root the server is installed into.
	WorkingDirectory() (string, error)
}

// HostEnvironment reads host facts from the local machine. OS and
// architecture come from gopsutil host info, which reports kernel-level
// names ("x86_64", "aarch64"); when host info is unavailable the Go
// runtime constants are used instead.
type HostEnvironment struct {
	workDir string

	hostInfo func() (*host.InfoStat, error)
}

// NewHostEnvironment creates a host-backed Environment installing into workDir.
func NewHostEnvironment(workDir string) *HostEnvironment {
	return &HostEnvironment{
		workDir:  workDir,
		hostInfo: host.Info,
	}
}

// OperatingSystem implements Environment.
func (e *HostEnvironment) OperatingSystem() (string, error) {
	info, err := e.hostInfo()
	if err != nil || info.OS == "" {
		return runtime.GOOS, nil
	}
	return info.OS, nil
}

// Architecture implements Environment.
func (e *HostEnvironment) Architecture() (string, error) {
	info, err := e.hostInfo()
	if err != nil || info.KernelArch == "" {
		return runtime.GOARCH, nil
	}
	return info.KernelArch, nil
}

// WorkingDirectory implements Environment.
func (e *HostEnvironment) WorkingDirectory() (string, error) {
	if e.workDir == "" {
		return "", errors.New("working directory not configured")
	}
	return e.workDir, nil
}
