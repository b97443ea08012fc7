package app

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/posture_baseline/internal/landmark"
)

type stubSource struct {
	frames []landmark.Raw
	err    error
}

func (s *stubSource) Next() (landmark.Raw, error) {
	if s.err != nil {
		return nil, s.err
	}
	raw := s.frames[0]
	s.frames = s.frames[1:]
	return raw, nil
}

func TestFrameProducer_Step(t *testing.T) {
	pub := &fakePublisher{}
	p := &frameProducer{
		src:   &stubSource{frames: []landmark.Raw{goodRaw(), nil}},
		pub:   pub,
		topic: "posture/landmarks",
	}
	ts := time.Date(2026, 5, 4, 8, 0, 0, 0, time.UTC)

	frame, err := p.step(ts)
	require.NoError(t, err)
	assert.True(t, frame.Detected)

	frame, err = p.step(ts.Add(200 * time.Millisecond))
	require.NoError(t, err)
	assert.False(t, frame.Detected)

	msgs := pub.on("posture/landmarks")
	require.Len(t, msgs, 2)
	assert.False(t, msgs[0].retained)

	var decoded landmark.Frame
	require.NoError(t, json.Unmarshal(msgs[0].payload, &decoded))
	assert.True(t, decoded.Timestamp.Equal(ts))
	assert.Equal(t, goodRaw(), decoded.Raw())

	require.NoError(t, json.Unmarshal(msgs[1].payload, &decoded))
	assert.Nil(t, decoded.Raw())
}

func TestFrameProducer_Errors(t *testing.T) {
	p := &frameProducer{src: &stubSource{err: errors.New("camera gone")}, pub: &fakePublisher{}}
	_, err := p.step(time.Now())
	assert.ErrorContains(t, err, "camera gone")

	p = &frameProducer{
		src: &stubSource{frames: []landmark.Raw{goodRaw()}},
		pub: &fakePublisher{err: errors.New("broker down")},
	}
	frame, err := p.step(time.Now())
	assert.ErrorContains(t, err, "MQTT publish error")
	assert.True(t, frame.Detected)
}

// Mock frames fed through the wire format must calibrate.
func TestFrameProducer_FeedsCalibrator(t *testing.T) {
	cfg := testConfig(t)
	cal, _, clk := newMockCalibrator(t, cfg)
	pub := &fakePublisher{}
	p := &frameProducer{
		src:   landmark.NewMockSource(clk, mockDropEvery),
		pub:   pub,
		topic: cfg.TopicLandmarks,
	}

	cal.Start()
	for i := 0; i < 10; i++ {
		_, err := p.step(clk.Now())
		require.NoError(t, err)
		clk.Add(cfg.Tick())
	}
	for _, m := range pub.on(cfg.TopicLandmarks) {
		require.NoError(t, cal.HandlePayload(m.payload))
	}
	clk.Add(10 * time.Second)
	cal.Tick()

	res, err := cal.Result()
	require.NoError(t, err)
	assert.Equal(t, 10, cal.Snapshot().Samples)
	assert.Greater(t, res.NeckAngle, 0.0)
}
