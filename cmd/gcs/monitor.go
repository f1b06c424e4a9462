package main

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"gcslink/pkg/state"
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "Stay connected and print vehicle state changes",
	Long:  "monitor keeps the link open and prints link, mode, position, and mission changes until interrupted. With metrics enabled it also serves Prometheus counters.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext()
		defer cancel()

		v, cfg, cleanup, err := setup(ctx)
		if err != nil {
			return err
		}
		defer cleanup()

		if cfg.Metrics.Enabled {
			go func() {
				mux := http.NewServeMux()
				mux.Handle("/metrics", promhttp.Handler())
				slog.Info("metrics listening", "address", cfg.Metrics.Address)
				if err := http.ListenAndServe(cfg.Metrics.Address, mux); err != nil {
					slog.Error("metrics server failed", "error", err)
				}
			}()
		}

		links := v.LinkState().Subscribe(ctx)
		states := v.State().Subscribe(ctx)
		telemetry := v.Telemetry().Subscribe(ctx)
		missions := v.MissionState().Subscribe(ctx)

		var lastMode string
		var lastArmed bool
		for {
			select {
			case <-ctx.Done():
				return nil
			case ls, ok := <-links:
				if !ok {
					return nil
				}
				fmt.Printf("link: %s\n", ls)
			case vs, ok := <-states:
				if !ok {
					return nil
				}
				if vs.ModeName != lastMode || vs.Armed != lastArmed {
					fmt.Printf("state: mode=%s armed=%v status=%s\n", vs.ModeName, vs.Armed, vs.SystemStatus)
					lastMode, lastArmed = vs.ModeName, vs.Armed
				}
			case tel, ok := <-telemetry:
				if !ok {
					return nil
				}
				printPosition(tel)
			case ms, ok := <-missions:
				if !ok {
					return nil
				}
				fmt.Printf("mission: current=%d total=%d\n", ms.CurrentSeq, ms.TotalItems)
			}
		}
	},
}

func printPosition(tel state.Telemetry) {
	if tel.LatDeg == nil || tel.LonDeg == nil {
		return
	}
	line := fmt.Sprintf("position: %.6f %.6f", *tel.LatDeg, *tel.LonDeg)
	if tel.RelativeAltM != nil {
		line += fmt.Sprintf(" alt=%.1fm", *tel.RelativeAltM)
	}
	if tel.GroundspeedMps != nil {
		line += fmt.Sprintf(" gs=%.1fm/s", *tel.GroundspeedMps)
	}
	if tel.Nav != nil {
		line += fmt.Sprintf(" wp_dist=%.0fm", tel.Nav.WpDistanceM)
	}
	fmt.Println(line)
}
