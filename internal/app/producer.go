package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/posture_baseline/internal/config"
	"github.com/relabs-tech/posture_baseline/internal/landmark"
)

// mockDropEvery makes the mock source lose the pose every n-th frame.
const mockDropEvery = 25

// frameProducer turns landmark source readings into Frame payloads.
type frameProducer struct {
	src   landmark.Source
	pub   Publisher
	topic string
}

// step reads one frame and publishes it stamped with t.
func (p *frameProducer) step(t time.Time) (landmark.Frame, error) {
	raw, err := p.src.Next()
	if err != nil {
		return landmark.Frame{}, fmt.Errorf("error from landmark source: %w", err)
	}

	frame := landmark.NewFrame(raw, t)
	payload, err := json.Marshal(frame)
	if err != nil {
		return frame, fmt.Errorf("json marshal error (frame): %w", err)
	}

	// frames are a live stream, never retained
	if err := p.pub.Publish(p.topic, payload, false); err != nil {
		return frame, fmt.Errorf("MQTT publish error (landmarks): %w", err)
	}
	return frame, nil
}

// RunProducer publishes mock landmark frames every TICK_INTERVAL_MS until
// ctx is done.
func RunProducer(ctx context.Context) error {
	log.Println("starting posture landmark producer (mock)")

	cfg := config.Get()

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientIDProducer)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("MQTT connect error: %w", token.Error())
	}
	defer client.Disconnect(250)

	log.Println("connected to MQTT, starting publish loop")

	p := &frameProducer{
		src:   landmark.NewMockSource(nil, mockDropEvery),
		pub:   mqttPublisher{client: client},
		topic: cfg.TopicLandmarks,
	}

	ticker := time.NewTicker(cfg.Tick())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("producer: shutting down")
			return nil
		case t := <-ticker.C:
			frame, err := p.step(t)
			if err != nil {
				log.Printf("producer: %v", err)
				continue
			}
			if !frame.Detected {
				log.Printf("%s no pose detected", t.Format(time.RFC3339))
				continue
			}
			re := frame.Landmarks[landmark.RightEar.String()]
			rs := frame.Landmarks[landmark.RightShoulder.String()]
			log.Printf("%s published frame: neck=%.2f°", t.Format(time.RFC3339), landmark.NeckAngleDegrees(re, rs))
		}
	}
}
