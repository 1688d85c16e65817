// Package revision resolves the source-control revision that pins the
// container image of a build.
package revision

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"strings"

	"github.com/davoodharun/apistack/internal/validate"
)

var commitHash = regexp.MustCompile(`^[0-9a-f]{7,40}$`)

// Source yields a revision.
type Source interface {
	Revision(ctx context.Context) (string, error)
}

// Static is a revision supplied up front, e.g. from a flag.
type Static string

// Revision implements Source.
func (s Static) Revision(context.Context) (string, error) {
	return Check(string(s))
}

// Git reads HEAD of a local checkout.
type Git struct {
	Dir string
}

// Revision implements Source.
func (g Git) Revision(ctx context.Context) (string, error) {
	cmd := exec.CommandContext(ctx, "git", "rev-parse", "HEAD")
	cmd.Dir = g.Dir
	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && len(exitErr.Stderr) > 0 {
			err = fmt.Errorf("%w: %s", err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return "", validate.Provision("image revision", "git rev-parse failed", err)
	}
	return Check(string(out))
}

// Check normalizes a revision and verifies it is a commit hash.
func Check(rev string) (string, error) {
	rev = strings.ToLower(strings.TrimSpace(rev))
	if !commitHash.MatchString(rev) {
		return "", validate.Provision("image revision", fmt.Sprintf("%q is not a commit hash", rev), nil)
	}
	return rev, nil
}
