package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/remasto/remasto/server/domain/entities"
	"github.com/remasto/remasto/server/internal/audio"
	"github.com/remasto/remasto/server/usecase"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 512 * 1024 // 512KB for audio chunks

	// Synthesized audio is streamed to the client in frames of this size.
	audioFrameSize = 32 * 1024

	// Budget for one collaborator round trip (generation plus synthesis,
	// or transcription plus generation).
	turnTimeout = 2 * time.Minute
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// TODO: Implement proper origin checking
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Hub maintains the set of active clients. Each client carries at most one
// interview session for the lifetime of its connection.
type Hub struct {
	// Registered clients.
	clients map[string]*Client

	// Register requests from the clients.
	register chan *Client

	// Unregister requests from clients.
	unregister chan *Client

	// Mutex for thread-safe access to clients map
	mu sync.RWMutex

	interviews        *usecase.InterviewService
	maxRecordingBytes int

	logger *zap.Logger
}

// NewHub creates a new WebSocket hub.
func NewHub(interviews *usecase.InterviewService, maxRecordingBytes int, logger *zap.Logger) *Hub {
	return &Hub{
		clients:           make(map[string]*Client),
		register:          make(chan *Client),
		unregister:        make(chan *Client),
		interviews:        interviews,
		maxRecordingBytes: maxRecordingBytes,
		logger:            logger,
	}
}

// Run starts the hub's main loop.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.id] = client
			h.mu.Unlock()
			h.logger.Info("Client registered",
				zap.String("clientID", client.id),
				zap.String("userID", client.userID))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.id]; ok {
				delete(h.clients, client.id)
				client.closeSend()
			}
			h.mu.Unlock()
			client.teardown()
			h.logger.Info("Client unregistered", zap.String("clientID", client.id))
		}
	}
}

type WriteData struct {
	// MessageType is the type of the websocket message.
	// Expect websocket.TextMessage or websocket.BinaryMessage
	Type    int
	Payload []byte
}

// Client is a middleman between the websocket connection and the hub.
type Client struct {
	hub *Hub

	// The websocket connection.
	conn *websocket.Conn

	// Buffered channel of outbound messages.
	send chan WriteData

	id     string
	userID string

	logger *zap.Logger

	// Interview bound to this connection, nil until a start message.
	session  *usecase.Session
	recorder *audio.Recorder

	mutex sync.Mutex

	// sendMu guards closed so a handler goroutine finishing after the
	// hub unregistered this client cannot write to a closed channel.
	sendMu sync.Mutex
	closed bool
}

// HandleWebSocketWithAuth handles websocket requests with a
// pre-authenticated user ID.
func HandleWebSocketWithAuth(hub *Hub, c echo.Context, userID string, logger *zap.Logger) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		logger.Error("WebSocket upgrade failed", zap.Error(err))
		return err
	}

	client := &Client{
		hub:      hub,
		conn:     conn,
		send:     make(chan WriteData, 256),
		id:       uuid.NewString(),
		userID:   userID,
		logger:   logger,
		recorder: audio.NewRecorder(hub.maxRecordingBytes),
	}

	client.hub.register <- client

	// Allow collection of memory referenced by the caller by doing all work in
	// new goroutines.
	go client.writePump()
	go client.readPump()

	return nil
}

// readPump pumps messages from the websocket connection to the hub.
func (c *Client) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		messageType, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Error("WebSocket error", zap.Error(err))
			}
			break
		}

		switch messageType {
		case websocket.TextMessage:
			c.processControl(message)
		case websocket.BinaryMessage:
			c.processAudioChunk(message)
		default:
			c.logger.Warn("Received unknown message type", zap.Int("type", messageType))
		}
	}
}

// writePump pumps messages from the hub to the websocket connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(message.Type, message.Payload); err != nil {
				c.logger.Error("Failed to write message", zap.Error(err))
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// processControl dispatches one client control frame. Handlers that call
// collaborators run on their own goroutine so the read loop keeps
// consuming pongs while a turn is in flight; the entity's status guards
// reject overlapping events, so at most one turn makes progress.
func (c *Client) processControl(message []byte) {
	var msg ControlMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		c.logger.Error("Failed to parse control message", zap.Error(err))
		c.sendError("bad_message", "control frame is not valid JSON")
		return
	}

	switch msg.Type {
	case MessageTypeStart:
		go c.handleStart(msg)
	case MessageTypePlaybackDone:
		c.handlePlaybackDone()
	case MessageTypeRecordStart:
		c.handleRecordStart(msg)
	case MessageTypeRecordStop:
		c.handleRecordStop()
	case MessageTypeNext:
		go c.handleNext()
	case MessageTypeEnd:
		go c.handleEnd()
	default:
		c.logger.Warn("Unknown control message type", zap.String("type", string(msg.Type)))
		c.sendError("unknown_type", "unsupported control message: "+string(msg.Type))
	}
}

// processAudioChunk appends one binary frame to the open recording.
func (c *Client) processAudioChunk(data []byte) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.session == nil {
		c.logger.Warn("Binary frame without an interview", zap.String("clientID", c.id))
		return
	}
	if err := c.recorder.Append(data); err != nil {
		var limitErr *audio.SizeLimitError
		if errors.As(err, &limitErr) {
			// the capture is gone; put the interview back in listening
			_ = c.session.DiscardRecording()
			c.sendError("recording_too_large", err.Error())
			return
		}
		c.logger.Warn("Dropped audio frame", zap.Error(err))
	}
}

// handleStart creates the interview on first use and produces the opening
// question. A start after a synthesis failure resumes the retained
// utterance instead.
func (c *Client) handleStart(msg ControlMessage) {
	c.mutex.Lock()
	if c.session == nil {
		session, err := c.hub.interviews.NewSession(c.userID, msg.Role, msg.Voice)
		if err != nil {
			c.mutex.Unlock()
			c.logger.Warn("Failed to create interview session", zap.Error(err))
			c.sendError("bad_session", err.Error())
			return
		}
		c.session = session
	}
	session := c.session
	c.mutex.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), turnTimeout)
	defer cancel()

	turn, err := session.Start(ctx)
	if err != nil {
		c.sendFault(err)
		return
	}
	c.sendSpokenTurn(session.ID(), turn)
}

// handlePlaybackDone moves the interview to listening once the client has
// finished playing the question audio.
func (c *Client) handlePlaybackDone() {
	session := c.currentSession()
	if session == nil {
		c.sendError("no_interview", "no interview in progress")
		return
	}
	if err := session.Delivered(); err != nil {
		c.sendFault(err)
		return
	}
	c.sendJSON(StatusMessage{BaseMessage: newBase(MessageTypeListening), InterviewID: session.ID()})
}

// handleRecordStart opens the answer capture window.
func (c *Client) handleRecordStart(msg ControlMessage) {
	session := c.currentSession()
	if session == nil {
		c.sendError("no_interview", "no interview in progress")
		return
	}
	if err := session.StartRecording(); err != nil {
		c.sendFault(err)
		return
	}
	if err := c.recorder.Start(msg.MimeType); err != nil {
		// recorder held a stale capture; reset and retry once
		c.recorder.Abort()
		if err := c.recorder.Start(msg.MimeType); err != nil {
			// put the interview back in listening before reporting,
			// otherwise it would be stranded in recording with no capture
			_ = session.DiscardRecording()
			c.sendFault(entities.NewFault(entities.FaultDeviceAccess, err))
			return
		}
	}
	c.sendJSON(StatusMessage{BaseMessage: newBase(MessageTypeRecording), InterviewID: session.ID()})
}

// handleRecordStop closes the capture on the read loop, so binary frames
// arriving after the stop cannot leak into the next capture, then runs
// transcription plus generation off it.
func (c *Client) handleRecordStop() {
	session := c.currentSession()
	if session == nil {
		c.sendError("no_interview", "no interview in progress")
		return
	}
	data, mimeType, err := c.recorder.Stop()
	if err != nil {
		c.sendFault(entities.NewFault(entities.FaultDeviceAccess, err))
		return
	}
	c.sendJSON(StatusMessage{BaseMessage: newBase(MessageTypeProcessing), InterviewID: session.ID()})

	go c.processAnswer(session, data, mimeType)
}

// processAnswer reports the round's feedback once transcription and
// generation finish.
func (c *Client) processAnswer(session *usecase.Session, data []byte, mimeType string) {
	ctx, cancel := context.WithTimeout(context.Background(), turnTimeout)
	defer cancel()

	turn, err := session.ProcessAnswer(ctx, data, mimeType)
	if err != nil {
		c.sendFault(err)
		return
	}
	c.sendJSON(FeedbackMessage{
		BaseMessage: newBase(MessageTypeFeedback),
		InterviewID: session.ID(),
		Round:       turn.Round,
		Answer:      turn.Answer,
		Feedback:    turn.Feedback,
	})
}

// handleNext advances past feedback to the next question, or to the
// performance report when the round limit is reached.
func (c *Client) handleNext() {
	session := c.currentSession()
	if session == nil {
		c.sendError("no_interview", "no interview in progress")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), turnTimeout)
	defer cancel()

	turn, report, err := session.Advance(ctx)
	if err != nil {
		c.sendFault(err)
		return
	}
	if report != nil {
		c.sendJSON(ReportMessage{
			BaseMessage: newBase(MessageTypeReport),
			InterviewID: session.ID(),
			Report:      report,
		})
		return
	}
	c.sendSpokenTurn(session.ID(), turn)
}

// handleEnd terminates the interview early and reports on what was covered.
func (c *Client) handleEnd() {
	session := c.currentSession()
	if session == nil {
		c.sendError("no_interview", "no interview in progress")
		return
	}
	c.recorder.Abort()

	ctx, cancel := context.WithTimeout(context.Background(), turnTimeout)
	defer cancel()

	report, err := session.End(ctx)
	if err != nil {
		c.sendFault(err)
		return
	}
	c.sendJSON(ReportMessage{
		BaseMessage: newBase(MessageTypeReport),
		InterviewID: session.ID(),
		Report:      report,
	})
}

// sendSpokenTurn delivers one interviewer utterance: the question text,
// then the audio as binary frames bracketed by speaking markers.
func (c *Client) sendSpokenTurn(interviewID string, turn *usecase.SpokenTurn) {
	c.sendJSON(QuestionMessage{
		BaseMessage: newBase(MessageTypeQuestion),
		InterviewID: interviewID,
		Round:       turn.Round,
		Text:        turn.Question,
	})
	c.sendJSON(SpeakingMessage{
		BaseMessage: newBase(MessageTypeSpeakingStart),
		Round:       turn.Round,
		AudioBytes:  len(turn.Audio),
	})
	for off := 0; off < len(turn.Audio); off += audioFrameSize {
		end := off + audioFrameSize
		if end > len(turn.Audio) {
			end = len(turn.Audio)
		}
		c.enqueue(WriteData{Type: websocket.BinaryMessage, Payload: turn.Audio[off:end]})
	}
	c.sendJSON(SpeakingMessage{
		BaseMessage: newBase(MessageTypeSpeakingEnd),
		Round:       turn.Round,
	})
}

func (c *Client) currentSession() *usecase.Session {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.session
}

// sendFault maps an orchestrator error onto the wire.
func (c *Client) sendFault(err error) {
	code := string(entities.FaultKindOf(err))
	if code == "" {
		code = "invalid_event"
	}
	c.sendError(code, err.Error())
}

func (c *Client) sendError(code, message string) {
	c.sendJSON(ErrorMessage{
		BaseMessage: newBase(MessageTypeError),
		Code:        code,
		Message:     message,
	})
}

func (c *Client) sendJSON(v interface{}) {
	c.enqueue(WriteData{Type: websocket.TextMessage, Payload: mustMarshal(v)})
}

func (c *Client) enqueue(data WriteData) {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.send <- data:
	default:
		c.logger.Warn("Send buffer full, dropping connection", zap.String("clientID", c.id))
		c.conn.Close()
	}
}

func (c *Client) closeSend() {
	c.sendMu.Lock()
	defer c.sendMu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.send)
	}
}
