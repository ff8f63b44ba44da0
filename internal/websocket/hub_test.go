package websocket

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	gorilla "github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/remasto/remasto/server/domain/entities"
	"github.com/remasto/remasto/server/domain/repositories"
	"github.com/remasto/remasto/server/internal/audio"
	"github.com/remasto/remasto/server/usecase"
)

func newTestClient() *Client {
	return &Client{
		send:   make(chan WriteData, 64),
		id:     "client-1",
		userID: "user-1",
		logger: zap.NewNop(),
	}
}

func drain(c *Client) []WriteData {
	var out []WriteData
	for {
		select {
		case msg := <-c.send:
			out = append(out, msg)
		default:
			return out
		}
	}
}

func TestSendSpokenTurnFraming(t *testing.T) {
	c := newTestClient()
	audio := bytes.Repeat([]byte{0xAB}, audioFrameSize+100)
	c.sendSpokenTurn("iv-1", &usecase.SpokenTurn{
		Round:    1,
		Question: "Explain setup and hold time.",
		Audio:    audio,
	})

	frames := drain(c)
	// question, speaking_start, 2 audio frames, speaking_end
	if len(frames) != 5 {
		t.Fatalf("Expected 5 frames, got %d", len(frames))
	}

	var question QuestionMessage
	if err := json.Unmarshal(frames[0].Payload, &question); err != nil {
		t.Fatalf("Unmarshal question failed: %v", err)
	}
	if question.Type != MessageTypeQuestion || question.Text != "Explain setup and hold time." {
		t.Errorf("Unexpected question frame: %+v", question)
	}

	var start SpeakingMessage
	if err := json.Unmarshal(frames[1].Payload, &start); err != nil {
		t.Fatalf("Unmarshal speaking_start failed: %v", err)
	}
	if start.Type != MessageTypeSpeakingStart || start.AudioBytes != len(audio) {
		t.Errorf("Unexpected speaking_start frame: %+v", start)
	}

	if frames[2].Type != gorilla.BinaryMessage || len(frames[2].Payload) != audioFrameSize {
		t.Errorf("Expected full binary frame of %d bytes, got %d", audioFrameSize, len(frames[2].Payload))
	}
	if frames[3].Type != gorilla.BinaryMessage || len(frames[3].Payload) != 100 {
		t.Errorf("Expected tail binary frame of 100 bytes, got %d", len(frames[3].Payload))
	}

	var end SpeakingMessage
	if err := json.Unmarshal(frames[4].Payload, &end); err != nil {
		t.Fatalf("Unmarshal speaking_end failed: %v", err)
	}
	if end.Type != MessageTypeSpeakingEnd {
		t.Errorf("Expected speaking_end, got %s", end.Type)
	}
}

func TestSendSpokenTurnEmptyAudio(t *testing.T) {
	c := newTestClient()
	c.sendSpokenTurn("iv-1", &usecase.SpokenTurn{Round: 2, Question: "q"})

	frames := drain(c)
	// no binary frames between the speaking markers
	if len(frames) != 3 {
		t.Fatalf("Expected 3 frames, got %d", len(frames))
	}
	for _, f := range frames {
		if f.Type != gorilla.TextMessage {
			t.Errorf("Expected only text frames, got type %d", f.Type)
		}
	}
}

// slowDialogue blocks every generation until release is closed.
type slowDialogue struct {
	release chan struct{}
}

func (d *slowDialogue) NextTurn(ctx context.Context, req repositories.DialogueRequest) (entities.GeneratedTurn, error) {
	select {
	case <-d.release:
	case <-ctx.Done():
		return entities.GeneratedTurn{}, ctx.Err()
	}
	return entities.GeneratedTurn{
		Question:   "Explain metastability.",
		Transcript: "Q1: Explain metastability.",
	}, nil
}

type stubTranscriber struct{}

func (stubTranscriber) Transcribe(ctx context.Context, audio []byte, mimeType string) (string, error) {
	return "an answer", nil
}

type stubSynthesizer struct{}

func (stubSynthesizer) Synthesize(ctx context.Context, text, voice string) ([]byte, error) {
	return []byte("RIFF-audio"), nil
}

type stubReportGenerator struct{}

func (stubReportGenerator) GenerateReport(ctx context.Context, transcript string, role entities.JobRole) (*entities.PerformanceReport, error) {
	return &entities.PerformanceReport{OverallScore: 50}, nil
}

func newWiredClient(dialogue repositories.DialogueGenerator) *Client {
	logger := zap.NewNop()
	reports := usecase.NewReportService(stubReportGenerator{}, nil, logger)
	svc := usecase.NewInterviewService(dialogue, stubTranscriber{}, stubSynthesizer{}, reports, logger)
	c := newTestClient()
	c.hub = NewHub(svc, 1024, logger)
	c.recorder = audio.NewRecorder(1024)
	return c
}

func waitFrame(t *testing.T, c *Client) WriteData {
	t.Helper()
	select {
	case f := <-c.send:
		return f
	case <-time.After(2 * time.Second):
		t.Fatal("Timed out waiting for a frame")
		return WriteData{}
	}
}

// A turn that waits on a collaborator must not hold up the control loop;
// pings and pongs keep flowing while generation runs.
func TestSlowTurnDoesNotBlockControlLoop(t *testing.T) {
	dialogue := &slowDialogue{release: make(chan struct{})}
	c := newWiredClient(dialogue)

	returned := make(chan struct{})
	go func() {
		c.processControl([]byte(`{"type":"start","role":"design-engineer","voice":"Algenib"}`))
		close(returned)
	}()

	select {
	case <-returned:
	case <-time.After(2 * time.Second):
		t.Fatal("processControl must return while the generator is still running")
	}

	// nothing delivered yet, the turn is still in flight
	select {
	case f := <-c.send:
		t.Fatalf("Unexpected frame before generation finished: %s", f.Payload)
	default:
	}

	close(dialogue.release)

	var question QuestionMessage
	if err := json.Unmarshal(waitFrame(t, c).Payload, &question); err != nil {
		t.Fatalf("Unmarshal question failed: %v", err)
	}
	if question.Type != MessageTypeQuestion {
		t.Errorf("Expected question frame, got %s", question.Type)
	}
	if question.Text != "Explain metastability." {
		t.Errorf("Unexpected question text %q", question.Text)
	}
}

// A record_start arriving while the recorder still holds a stale capture
// discards it and opens a fresh one.
func TestRecordStartRecoversStaleCapture(t *testing.T) {
	released := make(chan struct{})
	close(released)
	c := newWiredClient(&slowDialogue{release: released})

	c.processControl([]byte(`{"type":"start","role":"design-engineer","voice":"Algenib"}`))
	for i := 0; i < 4; i++ {
		waitFrame(t, c) // question, speaking_start, audio, speaking_end
	}
	c.processControl([]byte(`{"type":"playback_done"}`))
	waitFrame(t, c) // listening

	// stale capture left behind
	if err := c.recorder.Start("audio/webm"); err != nil {
		t.Fatalf("recorder.Start failed: %v", err)
	}

	c.handleRecordStart(ControlMessage{Type: MessageTypeRecordStart, MimeType: "audio/ogg"})

	var status StatusMessage
	if err := json.Unmarshal(waitFrame(t, c).Payload, &status); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if status.Type != MessageTypeRecording {
		t.Errorf("Expected recording frame, got %s", status.Type)
	}
	if !c.recorder.Recording() {
		t.Error("Expected a fresh capture to be open")
	}
	if c.session.Status() != entities.StatusRecording {
		t.Errorf("Expected recording status, got %s", c.session.Status())
	}
}

// A handler finishing after the hub unregistered its client must not
// write to the closed send channel.
func TestEnqueueAfterCloseIsDropped(t *testing.T) {
	c := newTestClient()
	c.closeSend()
	c.sendError("generation", "late result") // must not panic
	c.closeSend()                            // idempotent

	if _, ok := <-c.send; ok {
		t.Error("Expected no frames on a closed channel")
	}
}

func TestSendFaultCode(t *testing.T) {
	c := newTestClient()
	c.sendError("generation", "generator unavailable")

	frames := drain(c)
	if len(frames) != 1 {
		t.Fatalf("Expected 1 frame, got %d", len(frames))
	}
	var errMsg ErrorMessage
	if err := json.Unmarshal(frames[0].Payload, &errMsg); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if errMsg.Code != "generation" {
		t.Errorf("Expected code generation, got %s", errMsg.Code)
	}
}
