package main

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"cogentcore.org/core/math32"
	"github.com/spf13/cobra"

	"arzone/lib/switchboard"
	"arzone/lib/tracking"
)

// track sends synthetic tracking and UI messages to a running host, which
// is how a stage is rehearsed without a tracker.
func newTrackCommand(ctx *commandContext) *cobra.Command {
	var addr string
	var target string

	trackCmd := &cobra.Command{
		Use:   "track",
		Short: "Send tracking or control messages to a running host",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if addr == "" {
				addr = cfg.Tracking.Listen
			}
			if target == "" {
				target = cfg.TargetName
			}
			return nil
		},
	}
	trackCmd.PersistentFlags().StringVar(&addr, "addr", "", "Host tracking address (defaults to tracking.listen)")
	trackCmd.PersistentFlags().StringVar(&target, "target", "", "Target name (defaults to target_name)")

	send := func(cmd *cobra.Command, ev switchboard.Event) error {
		dialCtx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
		defer cancel()
		client, err := tracking.Dial(dialCtx, dialAddr(addr))
		if err != nil {
			return fmt.Errorf("dial %s: %w", addr, err)
		}
		defer client.Close()
		if err := client.Send(ev); err != nil {
			return fmt.Errorf("send %s: %w", ev, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "sent %s\n", ev)
		return nil
	}

	var x, y, z, scale float32
	found := &cobra.Command{
		Use:   "found",
		Short: "Report the target as detected",
		RunE: func(cmd *cobra.Command, args []string) error {
			return send(cmd, switchboard.TargetFound{
				Name: target,
				Pose: switchboard.Pose{
					Position: math32.Vec3(x, y, z),
					Rotation: math32.NewQuat(0, 0, 0, 1),
					Scale:    scale,
				},
			})
		},
	}
	found.Flags().Float32Var(&x, "x", 0, "Target position X")
	found.Flags().Float32Var(&y, "y", 0, "Target position Y")
	found.Flags().Float32Var(&z, "z", -1, "Target position Z")
	found.Flags().Float32Var(&scale, "scale", 0.1, "Target scale")

	lost := &cobra.Command{
		Use:   "lost",
		Short: "Report the target as lost",
		RunE: func(cmd *cobra.Command, args []string) error {
			return send(cmd, switchboard.TargetLost{Name: target})
		},
	}

	advance := &cobra.Command{
		Use:   "advance",
		Short: "Advance to the next zone",
		RunE: func(cmd *cobra.Command, args []string) error {
			return send(cmd, switchboard.Advance{})
		},
	}

	sel := &cobra.Command{
		Use:   "select <zone>",
		Short: "Activate a zone by index",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			i, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("zone index %q: %w", args[0], err)
			}
			return send(cmd, switchboard.Select{Index: i})
		},
	}

	trackCmd.AddCommand(found, lost, advance, sel)
	return trackCmd
}

// dialAddr turns a listen address like ":53100" into something dialable.
func dialAddr(addr string) string {
	if len(addr) > 0 && addr[0] == ':' {
		return "127.0.0.1" + addr
	}
	return addr
}
