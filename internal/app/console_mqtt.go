package app

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/posture_baseline/internal/calibration"
	"github.com/relabs-tech/posture_baseline/internal/config"
)

// FormatStateEvent renders one state event as a console line.
func FormatStateEvent(ev StateEvent) string {
	line := fmt.Sprintf("[CAL ] session=%s state=%-9s progress=%3.0f%% samples=%d",
		ev.SessionID, ev.State, ev.Progress*100, ev.Samples)
	if ev.Error != "" {
		line += " error=" + ev.Error
	}
	return line
}

// FormatBaseline renders the summary printed after a successful capture.
func FormatBaseline(b calibration.Baseline) string {
	return fmt.Sprintf(
		"[BASE] captured=%s neck=%.2f° shoulder_y=%.3f shoulder_w=%.3f centroid=(%.3f, %.3f)",
		b.CapturedTime().UTC().Format(time.RFC3339),
		b.NeckAngle, b.ShoulderYAvg, b.ShoulderWidth, b.TorsoCentroidX, b.TorsoCentroidY,
	)
}

func RunConsoleMQTT() error {
	cfg := config.Get()

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDConsole)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	log.Printf("console: connected to MQTT broker at %s", cfg.MQTTBroker)

	// Subscribe to calibration state
	stateToken := client.Subscribe(cfg.TopicCalibrationState, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var ev StateEvent
		if err := json.Unmarshal(msg.Payload(), &ev); err != nil {
			log.Printf("console: state unmarshal error: %v", err)
			return
		}
		fmt.Println(FormatStateEvent(ev))
	})
	stateToken.Wait()
	if stateToken.Error() != nil {
		return stateToken.Error()
	}
	log.Printf("console: subscribed to %s", cfg.TopicCalibrationState)

	// Subscribe to baseline (retained, so the last one arrives on connect)
	baselineToken := client.Subscribe(cfg.TopicBaseline, 0, func(_ mqtt.Client, msg mqtt.Message) {
		b, err := calibration.Decode(bytes.NewReader(msg.Payload()), false)
		if err != nil {
			log.Printf("console: baseline decode error: %v", err)
			return
		}
		fmt.Println(FormatBaseline(b))
	})
	baselineToken.Wait()
	if baselineToken.Error() != nil {
		return baselineToken.Error()
	}
	log.Printf("console: subscribed to %s", cfg.TopicBaseline)

	// Wait for Ctrl+C
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Println("console: shutting down")
	client.Disconnect(250)
	return nil
}
