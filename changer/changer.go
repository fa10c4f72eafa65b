package changer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"

	"github.com/projecteru2/core/log"

	"github.com/cocoonstack/macshift/guard"
	"github.com/cocoonstack/macshift/link"
	"github.com/cocoonstack/macshift/lock"
	"github.com/cocoonstack/macshift/mac"
)

var (
	ErrInvalidInterface = errors.New("invalid network interface")
	ErrInvalidMAC       = errors.New("invalid MAC address format")
	ErrCommand          = errors.New("error changing MAC address")
	ErrNotVerified      = errors.New("MAC address not verified")
)

// Options is the parsed command line. An empty MAC means "generate one".
type Options struct {
	Interface string
	MAC       string
}

// Deps are the capabilities a change runs against.
type Deps struct {
	Link     link.Controller
	Identity guard.Identity
	// GOOS defaults to runtime.GOOS.
	GOOS string
	// Locker defaults to lock.Nop.
	Locker lock.Locker
	// Generate defaults to mac.Generate.
	Generate func() string
}

// Result describes a completed down/set/up sequence.
// Previous and Current are empty when no address could be read.
type Result struct {
	Interface string
	Previous  string
	Requested string
	Current   string
	Verified  bool
}

// Run checks privileges, validates the interface and address, applies the
// address and reports progress on out. A verification mismatch is reported
// on out and in Result.Verified, not as an error; see VerifyOutcome.
func Run(ctx context.Context, opts Options, deps Deps, out io.Writer) (*Result, error) {
	if err := guard.Check(ctx, deps.Identity, deps.goos()); err != nil {
		return nil, err
	}
	// Validated before locking: the lock file is named after the interface.
	if !link.Exists(ctx, deps.Link, opts.Interface) {
		return nil, fmt.Errorf("%w: %s. Please provide a valid interface", ErrInvalidInterface, opts.Interface)
	}
	var res *Result
	err := lock.WithLock(ctx, deps.locker(), func() error {
		var changeErr error
		res, changeErr = change(ctx, opts, deps, out)
		return changeErr
	})
	return res, err
}

// VerifyOutcome decides whether an unverified result is an error.
// Only strict mode escalates; otherwise a mismatch stays a report.
func VerifyOutcome(res *Result, strict bool) error {
	if res == nil || res.Verified || !strict {
		return nil
	}
	current := res.Current
	if current == "" {
		current = "no address"
	}
	return fmt.Errorf("%w: %s reports %s, want %s", ErrNotVerified, res.Interface, current, res.Requested)
}

func change(ctx context.Context, opts Options, deps Deps, out io.Writer) (*Result, error) {
	iface := opts.Interface
	res := &Result{Interface: iface}
	res.Previous = currentMAC(ctx, deps.Link, iface)
	_, _ = fmt.Fprintf(out, "Current MAC address of %s: %s\n", iface, display(res.Previous))

	res.Requested = opts.MAC
	if res.Requested == "" {
		res.Requested = deps.generate()
	} else if !mac.IsValid(res.Requested) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidMAC, res.Requested)
	}
	_, _ = fmt.Fprintf(out, "Changing MAC address to: %s\n", res.Requested)

	if err := apply(ctx, deps.Link, iface, res.Requested); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCommand, err)
	}

	res.Current = currentMAC(ctx, deps.Link, iface)
	res.Verified = res.Current == res.Requested
	if res.Verified {
		_, _ = fmt.Fprintf(out, "Successfully changed MAC address to: %s\n", res.Current)
	} else {
		_, _ = fmt.Fprintln(out, "Failed to change MAC address.")
	}
	return res, nil
}

// apply runs down, set address, up in order and stops at the first failure.
// Nothing is rolled back: a failure after "down" leaves the link down.
func apply(ctx context.Context, c link.Controller, iface, addr string) error {
	logger := log.WithFunc("changer.apply")
	steps := []struct {
		name string
		fn   func() error
	}{
		{"down", func() error { return c.Down(ctx, iface) }},
		{"set address", func() error { return c.SetAddress(ctx, iface, addr) }},
		{"up", func() error { return c.Up(ctx, iface) }},
	}
	for i, s := range steps {
		if err := s.fn(); err != nil {
			if i > 0 {
				logger.Warnf(ctx, "%s failed, %s is left administratively down", s.name, iface)
			}
			return fmt.Errorf("%s: %w", s.name, err)
		}
		logger.Infof(ctx, "%s: %s done (%s)", iface, s.name, c.Type())
	}
	return nil
}

// currentMAC returns the first address in the "show link" output, or ""
// when the query fails or prints none.
func currentMAC(ctx context.Context, c link.Controller, iface string) string {
	out, err := c.Show(ctx, iface)
	if err != nil {
		log.WithFunc("changer.currentMAC").Warnf(ctx, "show %s: %v", iface, err)
	}
	return mac.Extract(out)
}

func display(addr string) string {
	if addr == "" {
		return "None"
	}
	return addr
}

func (d Deps) goos() string {
	if d.GOOS == "" {
		return runtime.GOOS
	}
	return d.GOOS
}

func (d Deps) locker() lock.Locker {
	if d.Locker == nil {
		return lock.Nop{}
	}
	return d.Locker
}

func (d Deps) generate() string {
	if d.Generate == nil {
		return mac.Generate()
	}
	return d.Generate()
}
