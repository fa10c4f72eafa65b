package cmd

import (
	"context"

	"github.com/projecteru2/core/log"
	"github.com/spf13/cobra"

	"github.com/cocoonstack/macshift/changer"
	"github.com/cocoonstack/macshift/guard"
)

func (a *app) runChange(cmd *cobra.Command, args []string) error {
	// Arguments parsed; later failures are not usage errors.
	cmd.SilenceUsage = true

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	logger := log.WithFunc("cmd.change")
	macAddr, _ := cmd.Flags().GetString("mac")
	opts := changer.Options{Interface: args[0], MAC: macAddr}

	// Guard before opening the backend so privilege and platform errors
	// are not masked by netlink or netns setup failures.
	identity := guard.Once(a.deps.identity(a.conf))
	if err := guard.Check(ctx, identity, a.deps.goos); err != nil {
		return err
	}

	ctl, release, err := a.deps.link(a.conf)
	if err != nil {
		return err
	}
	defer func() {
		if err := release(); err != nil {
			logger.Warnf(ctx, "release %s backend: %v", ctl.Type(), err)
		}
	}()

	res, err := changer.Run(ctx, opts, changer.Deps{
		Link:     ctl,
		Identity: identity,
		GOOS:     a.deps.goos,
		Locker:   a.deps.locker(a.conf, opts.Interface),
	}, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	return changer.VerifyOutcome(res, a.conf.Strict)
}
