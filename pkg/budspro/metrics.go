// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2026 the budsctl authors

package budspro

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	framesDecoded = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "budsctl",
		Subsystem: "frames",
		Name:      "decoded_total",
		Help:      "Valid frames extracted from the byte stream.",
	})

	frameErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "budsctl",
		Subsystem: "frames",
		Name:      "errors_total",
		Help:      "Frame decode errors by kind.",
	}, []string{"kind"})

	fragmentAborts = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "budsctl",
		Subsystem: "frames",
		Name:      "fragment_aborts_total",
		Help:      "Fragmented assemblies aborted by an interleaved frame.",
	})

	messagesDispatched = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "budsctl",
		Subsystem: "dispatch",
		Name:      "messages_total",
		Help:      "Decoded messages handed to the dispatcher.",
	})

	subscriberDrops = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "budsctl",
		Subsystem: "dispatch",
		Name:      "subscriber_drops_total",
		Help:      "Messages dropped from full subscriber queues.",
	})
)

// frameErrorKind buckets a decode error for the errors_total counter.
func frameErrorKind(err error) string {
	switch {
	case errors.Is(err, ErrCRCMismatch):
		return "crc"
	case errors.Is(err, ErrMalformedLength):
		return "length"
	case errors.Is(err, ErrMissingMarker):
		return "marker"
	default:
		return "other"
	}
}
