// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2026 the budsctl authors

package cmd

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/chirp-tools/budsctl/pkg/budspro"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

var (
	bridgeListen   string
	bridgeUsername string
)

var bridgeCmd = &cobra.Command{
	Use:   "bridge",
	Short: "Expose the earbud connection over HTTP",
	Long: `Serve the earbud connection to remote budsctl clients.

Endpoints:
  /ws       binary WebSocket relay of the protocol stream; remote budsctl
            instances connect here with --url
  /status   current status snapshot as JSON
  /metrics  Prometheus metrics

With --auth-username, clients must authenticate with HTTP Basic auth; the
password is read from the BUDSCTL_PASSWORD environment variable or prompted
at startup.`,
	RunE: runBridge,
}

func init() {
	bridgeCmd.Flags().StringVarP(&bridgeListen, "listen", "l", ":8600", "Listen address")
	bridgeCmd.Flags().StringVar(&bridgeUsername, "auth-username", "", "Require HTTP Basic auth with this username")
	rootCmd.AddCommand(bridgeCmd)
}

// bridgeHub fans captured frames out to connected WebSocket clients. A slow
// client loses frames rather than stalling the receiver loop.
type bridgeHub struct {
	mu      sync.Mutex
	clients map[*bridgeClient]struct{}
}

type bridgeClient struct {
	conn *websocket.Conn
	send chan []byte
}

func newBridgeHub() *bridgeHub {
	return &bridgeHub{clients: make(map[*bridgeClient]struct{})}
}

func (h *bridgeHub) add(c *bridgeClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = struct{}{}
}

func (h *bridgeHub) remove(c *bridgeClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

// broadcast hands raw frame bytes to every client without blocking.
func (h *bridgeHub) broadcast(raw []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- raw:
		default:
			// Client is not keeping up; it will resynchronize on the
			// next frame boundary.
		}
	}
}

func (h *bridgeHub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
}

func runBridge(cmd *cobra.Command, args []string) error {
	authPassword := ""
	if bridgeUsername != "" {
		var err error
		authPassword, err = getPassword()
		if err != nil {
			return err
		}
	}

	hub := newBridgeHub()
	dev, connInfo, err := openDevice(budspro.WithFrameTap(func(f budspro.Frame) {
		raw, err := f.Encode()
		if err != nil {
			return
		}
		hub.broadcast(raw)
	}))
	if err != nil {
		return err
	}
	defer dev.Close()

	upgrader := websocket.Upgrader{
		ReadBufferSize:  2048,
		WriteBufferSize: 2048,
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	if bridgeUsername != "" {
		r.Use(basicAuth(bridgeUsername, authPassword))
	}

	r.Get("/ws", func(w http.ResponseWriter, req *http.Request) {
		conn, err := upgrader.Upgrade(w, req, nil)
		if err != nil {
			log.Warn().Err(err).Msg("websocket upgrade failed")
			return
		}
		c := &bridgeClient{conn: conn, send: make(chan []byte, 64)}
		hub.add(c)
		log.Info().Str("remote", req.RemoteAddr).Msg("bridge client connected")

		// Writer: relay frames from the device to the client.
		go func() {
			for raw := range c.send {
				if err := conn.WriteMessage(websocket.BinaryMessage, raw); err != nil {
					break
				}
			}
			conn.Close()
		}()

		// Reader: relay client frames to the device.
		go func() {
			defer func() {
				hub.remove(c)
				conn.Close()
				log.Info().Str("remote", req.RemoteAddr).Msg("bridge client disconnected")
			}()
			for {
				messageType, data, err := conn.ReadMessage()
				if err != nil {
					return
				}
				if messageType != websocket.BinaryMessage {
					continue
				}
				if err := dev.WriteRaw(data); err != nil {
					log.Warn().Err(err).Msg("relay write failed")
					return
				}
			}
		}()
	})

	r.Get("/status", func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(statusJSON(dev.Status().Current())); err != nil {
			log.Warn().Err(err).Msg("status encode failed")
		}
	})

	r.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              bridgeListen,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()

	fmt.Printf("Budsctl - Bridge\n")
	fmt.Printf("Connection: %s\n", connInfo)
	fmt.Printf("Listening:  %s\n", bridgeListen)

	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigc)

	select {
	case <-sigc:
	case <-dev.Done():
		log.Error().Msg("device connection lost")
	case err := <-errc:
		return fmt.Errorf("serve: %w", err)
	}

	hub.closeAll()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}

// basicAuth requires HTTP Basic credentials on every request.
func basicAuth(username, password string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			user, pass, ok := req.BasicAuth()
			if !ok ||
				subtle.ConstantTimeCompare([]byte(user), []byte(username)) != 1 ||
				subtle.ConstantTimeCompare([]byte(pass), []byte(password)) != 1 {
				w.Header().Set("WWW-Authenticate", `Basic realm="budsctl"`)
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, req)
		})
	}
}

// statusResponse is the JSON rendering of the status snapshot.
type statusResponse struct {
	BatteryLeft    int    `json:"battery_left"`
	BatteryRight   int    `json:"battery_right"`
	BatteryCase    int    `json:"battery_case"`
	PlacementLeft  string `json:"placement_left"`
	PlacementRight string `json:"placement_right"`
	NoiseControls  string `json:"noise_controls"`
	Equalizer      string `json:"equalizer"`
	TouchpadLocked bool   `json:"touchpad_locked"`
	HasExtended    bool   `json:"has_extended"`
	UpdatedAt      string `json:"updated_at,omitempty"`
}

func statusJSON(s budspro.DeviceStatus) statusResponse {
	resp := statusResponse{
		BatteryLeft:    s.BatteryLeft,
		BatteryRight:   s.BatteryRight,
		BatteryCase:    s.BatteryCase,
		PlacementLeft:  budspro.FormatPlacement(s.PlacementLeft),
		PlacementRight: budspro.FormatPlacement(s.PlacementRight),
		NoiseControls:  budspro.FormatNoiseControls(s.NoiseControls),
		Equalizer:      budspro.FormatEqualizer(s.EqualizerType),
		TouchpadLocked: s.TouchpadLocked,
		HasExtended:    s.HasExtended,
	}
	if !s.UpdatedAt.IsZero() {
		resp.UpdatedAt = s.UpdatedAt.Format(time.RFC3339Nano)
	}
	return resp
}
