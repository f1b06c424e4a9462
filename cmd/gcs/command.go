package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

var forceFlag bool

func init() {
	armCmd.Flags().BoolVar(&forceFlag, "force", false, "bypass pre-arm checks")
	disarmCmd.Flags().BoolVar(&forceFlag, "force", false, "bypass the landed check")
}

var armCmd = &cobra.Command{
	Use:   "arm",
	Short: "Arm the vehicle",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext()
		defer cancel()

		v, _, cleanup, err := setup(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		if err := v.Arm(ctx, forceFlag); err != nil {
			return err
		}
		fmt.Println("armed")
		return nil
	},
}

var disarmCmd = &cobra.Command{
	Use:   "disarm",
	Short: "Disarm the vehicle",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext()
		defer cancel()

		v, _, cleanup, err := setup(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		if err := v.Disarm(ctx, forceFlag); err != nil {
			return err
		}
		fmt.Println("disarmed")
		return nil
	},
}

var modeCmd = &cobra.Command{
	Use:   "mode <name>",
	Short: "Switch flight mode by name (e.g. GUIDED, AUTO, RTL)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext()
		defer cancel()

		v, _, cleanup, err := setup(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		if err := v.SetModeByName(ctx, args[0]); err != nil {
			return err
		}
		fmt.Printf("mode set to %s\n", args[0])
		return nil
	},
}

var takeoffCmd = &cobra.Command{
	Use:   "takeoff <altitude_m>",
	Short: "Command a takeoff to the given relative altitude",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		alt, err := strconv.ParseFloat(args[0], 32)
		if err != nil {
			return fmt.Errorf("bad altitude %q: %w", args[0], err)
		}

		ctx, cancel := signalContext()
		defer cancel()

		v, _, cleanup, err := setup(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		if err := v.Takeoff(ctx, float32(alt)); err != nil {
			return err
		}
		fmt.Printf("takeoff to %.1fm commanded\n", alt)
		return nil
	},
}

var gotoCmd = &cobra.Command{
	Use:   "goto <lat> <lon> <alt_m>",
	Short: "Reposition in guided mode",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		lat, err := strconv.ParseFloat(args[0], 64)
		if err != nil {
			return fmt.Errorf("bad latitude %q: %w", args[0], err)
		}
		lon, err := strconv.ParseFloat(args[1], 64)
		if err != nil {
			return fmt.Errorf("bad longitude %q: %w", args[1], err)
		}
		alt, err := strconv.ParseFloat(args[2], 32)
		if err != nil {
			return fmt.Errorf("bad altitude %q: %w", args[2], err)
		}

		ctx, cancel := signalContext()
		defer cancel()

		v, _, cleanup, err := setup(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		if err := v.GuidedGoto(ctx, lat, lon, float32(alt)); err != nil {
			return err
		}
		fmt.Printf("goto %.6f %.6f at %.1fm commanded\n", lat, lon, alt)
		return nil
	},
}
