package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"gcslink/pkg/plan"
)

func parseKind(s string) (plan.Kind, error) {
	switch s {
	case "mission":
		return plan.KindMission, nil
	case "fence":
		return plan.KindFence, nil
	case "rally":
		return plan.KindRally, nil
	default:
		return 0, fmt.Errorf("unknown plan kind %q (mission, fence, rally)", s)
	}
}

var uploadCmd = &cobra.Command{
	Use:   "upload <plan.yaml>",
	Short: "Upload a plan file to the vehicle",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := plan.Load(args[0])
		if err != nil {
			return err
		}

		ctx, cancel := signalContext()
		defer cancel()

		v, _, cleanup, err := setup(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		if err := v.Upload(ctx, p); err != nil {
			return err
		}
		fmt.Printf("uploaded %d %s items\n", len(p.Items), p.Kind)
		return nil
	},
}

var downloadCmd = &cobra.Command{
	Use:   "download <mission|fence|rally> <plan.yaml>",
	Short: "Download a plan from the vehicle into a file",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := parseKind(args[0])
		if err != nil {
			return err
		}

		ctx, cancel := signalContext()
		defer cancel()

		v, _, cleanup, err := setup(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		p, err := v.Download(ctx, kind)
		if err != nil {
			return err
		}
		if err := plan.Save(args[1], p); err != nil {
			return err
		}
		fmt.Printf("downloaded %d %s items to %s\n", len(p.Items), kind, args[1])
		return nil
	},
}

var clearCmd = &cobra.Command{
	Use:   "clear <mission|fence|rally>",
	Short: "Clear all items of a plan kind on the vehicle",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, err := parseKind(args[0])
		if err != nil {
			return err
		}

		ctx, cancel := signalContext()
		defer cancel()

		v, _, cleanup, err := setup(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		if err := v.Clear(ctx, kind); err != nil {
			return err
		}
		fmt.Printf("cleared %s\n", kind)
		return nil
	},
}

var verifyCmd = &cobra.Command{
	Use:   "verify <plan.yaml>",
	Short: "Upload a plan, read it back, and compare",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := plan.Load(args[0])
		if err != nil {
			return err
		}

		ctx, cancel := signalContext()
		defer cancel()

		v, _, cleanup, err := setup(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		ok, err := v.VerifyRoundtrip(ctx, p)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("readback differs from uploaded plan")
		}
		fmt.Println("roundtrip verified")
		return nil
	},
}

var setCurrentCmd = &cobra.Command{
	Use:   "set-current <seq>",
	Short: "Jump mission execution to a sequence index",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		seq, err := strconv.ParseUint(args[0], 10, 16)
		if err != nil {
			return fmt.Errorf("bad sequence index %q: %w", args[0], err)
		}

		ctx, cancel := signalContext()
		defer cancel()

		v, _, cleanup, err := setup(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		if err := v.SetCurrent(ctx, uint16(seq)); err != nil {
			return err
		}
		fmt.Printf("current item set to %d\n", seq)
		return nil
	},
}
