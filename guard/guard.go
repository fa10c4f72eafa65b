package guard

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/projecteru2/core/log"
)

var (
	ErrNotRoot       = errors.New("must be run with sudo or as root")
	ErrUnsupportedOS = errors.New("can only be run on Linux systems")
)

// Identity reports the effective user id of the running process.
type Identity interface {
	EffectiveUID(ctx context.Context) (string, error)
}

// CommandIdentity asks the "id" binary for the effective uid.
type CommandIdentity struct {
	Binary string
}

// EffectiveUID runs "id -u" and returns its trimmed output.
func (c CommandIdentity) EffectiveUID(ctx context.Context) (string, error) {
	bin := c.Binary
	if bin == "" {
		bin = "id"
	}
	var out bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, "-u") //nolint:gosec // binary comes from config
	cmd.Stdout = &out
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("%s -u: %w", bin, err)
	}
	return strings.TrimSpace(out.String()), nil
}

// Check fails unless the process runs as root on Linux.
// The privilege check runs first.
func Check(ctx context.Context, id Identity, goos string) error {
	uid, err := id.EffectiveUID(ctx)
	if err != nil {
		log.WithFunc("guard.Check").Warnf(ctx, "query effective uid: %v", err)
	}
	if uid != "0" {
		return ErrNotRoot
	}
	if goos != "linux" {
		return fmt.Errorf("%w (running on %s)", ErrUnsupportedOS, goos)
	}
	return nil
}

// Once wraps id so the underlying query runs at most once; later calls
// return the first answer.
func Once(id Identity) Identity {
	return &onceIdentity{id: id}
}

type onceIdentity struct {
	id   Identity
	done bool
	uid  string
	err  error
}

func (o *onceIdentity) EffectiveUID(ctx context.Context) (string, error) {
	if !o.done {
		o.uid, o.err = o.id.EffectiveUID(ctx)
		o.done = true
	}
	return o.uid, o.err
}
