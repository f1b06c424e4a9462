// Package metrics exposes Prometheus instrumentation for the link and
// the mission protocol.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Link metrics
	FramesReceived = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gcs_frames_received_total",
			Help: "Total number of MAVLink frames received",
		},
	)

	FramesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gcs_frames_sent_total",
			Help: "Total number of MAVLink frames sent",
		},
	)

	DecodeErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gcs_decode_errors_total",
			Help: "Total number of frames dropped for checksum or framing errors",
		},
	)

	LinkUp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "gcs_link_up",
			Help: "Link status (1 = connected, 0 = down)",
		},
	)

	// Mission transfer metrics
	TransfersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gcs_mission_transfers_total",
			Help: "Total number of mission transfers by direction and outcome",
		},
		[]string{"direction", "outcome"},
	)

	TransferRetries = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gcs_mission_transfer_retries_total",
			Help: "Total number of mission transfer retransmissions",
		},
	)

	// Command metrics
	CommandsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gcs_commands_total",
			Help: "Total number of vehicle commands by result",
		},
		[]string{"result"},
	)
)
