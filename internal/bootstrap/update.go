package bootstrap

import (
	"fmt"

	"golang.org/x/mod/semver"

	"github.com/dlang-community/serve-d-launcher/internal/ledger"
)

// ShouldUpdate decides whether a (re)install is required. It fires when
// the working directory was freshly created, or when the recorded version
// is ahead of the remote tag under semantic-version ordering.
//
// TODO: confirm with the product owner whether the comparison direction is
// intentional. As written, an ordinary upgrade (remote ahead of installed)
// never triggers an install on its own; only the fresh-directory path does.
// Kept as-is for compatibility with the existing update policy.
func ShouldUpdate(installed, remote string, fresh bool) (bool, error) {
	if fresh {
		return true, nil
	}

	installedC := ledger.Canonical(installed)
	remoteC := ledger.Canonical(remote)
	if !semver.IsValid(installedC) {
		return false, fmt.Errorf("bootstrap: invalid installed version %q", installed)
	}
	if !semver.IsValid(remoteC) {
		return false, fmt.Errorf("bootstrap: invalid remote version %q", remote)
	}

	return semver.Compare(installedC, remoteC) > 0, nil
}
