package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/posture_baseline/internal/calibration"
	"github.com/relabs-tech/posture_baseline/internal/config"
)

// Server exposes a Calibrator over HTTP and websocket.
type Server struct {
	cal  *Calibrator
	cfg  *config.Config
	tick time.Duration
}

// NewServer creates a server for cal. The baseline file and tick interval
// come from cfg.
func NewServer(cal *Calibrator, cfg *config.Config) *Server {
	return &Server{cal: cal, cfg: cfg, tick: cfg.Tick()}
}

// calibrationStatus is the body of GET /api/calibration.
type calibrationStatus struct {
	StateEvent
	Baseline json.RawMessage `json:"baseline,omitempty"`
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	// JSON API endpoint: live session state
	mux.HandleFunc("/api/calibration", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		status := calibrationStatus{StateEvent: s.cal.Snapshot()}
		if b, ok := s.cal.Baseline(); ok {
			raw, err := encodeBaseline(b)
			if err != nil {
				http.Error(w, err.Error(), http.StatusInternalServerError)
				return
			}
			status.Baseline = raw
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(status); err != nil {
			log.Printf("web: json encode error: %v", err)
		}
	})

	// JSON API endpoint: stored baseline file
	mux.HandleFunc("/api/baseline", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		b, err := s.cfg.LoadBaseline()
		switch {
		case errors.Is(err, calibration.ErrNotFound):
			http.Error(w, "no baseline recorded", http.StatusNotFound)
			return
		case err != nil:
			log.Printf("web: %v", err)
			http.Error(w, "baseline file unreadable", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := calibration.Encode(w, b); err != nil {
			log.Printf("web: %v", err)
		}
	})

	// WebSocket endpoint for calibration control
	mux.HandleFunc("/ws/calibration", s.handleCalibrationWS)

	// Static files from ./web as the root
	mux.Handle("/", http.FileServer(http.Dir("web")))

	return mux
}

// Run ticks the calibrator until ctx is done, so a window ends even while
// no frames arrive.
func (s *Server) Run(ctx context.Context) {
	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.cal.Tick()
		}
	}
}

func encodeBaseline(b calibration.Baseline) (json.RawMessage, error) {
	var buf bytes.Buffer
	if err := calibration.Encode(&buf, b); err != nil {
		return nil, err
	}
	return json.RawMessage(bytes.TrimSpace(buf.Bytes())), nil
}

func RunWeb(ctx context.Context) error {
	cfg := config.Get()

	// 1) Connect to MQTT broker
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDWeb)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	defer client.Disconnect(250)
	log.Printf("connected to MQTT broker at %s", cfg.MQTTBroker)

	cal := NewCalibrator(calibration.NewSession(cfg.Session()), mqttPublisher{client: client}, cfg)

	// 2) Subscribe to landmark frames and feed the session
	token := client.Subscribe(cfg.TopicLandmarks, 0, func(_ mqtt.Client, msg mqtt.Message) {
		if err := cal.HandlePayload(msg.Payload()); err != nil {
			log.Printf("web: %v", err)
		}
	})
	token.Wait()
	if token.Error() != nil {
		return token.Error()
	}
	log.Printf("subscribed to MQTT topic %s", cfg.TopicLandmarks)

	srv := NewServer(cal, cfg)
	go srv.Run(ctx)

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.WebServerPort),
		Handler: srv.Handler(),
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		httpServer.Shutdown(shutdownCtx)
	}()

	log.Printf("web server listening on %s", httpServer.Addr)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
