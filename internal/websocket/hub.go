package websocket

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/peepalabs/peepa-server/domain/entities"
	"github.com/peepalabs/peepa-server/domain/repositories"
	"github.com/peepalabs/peepa-server/usecase"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Capacity of the per-turn sentence hand-off queue. The producer blocks
	// when the transport write falls behind.
	chunkQueueSize = 32

	memoryLookupTimeout = 10 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Settings carry the session-level knobs of the hub.
type Settings struct {
	// MaxPayloadBytes is the inbound audio ceiling. Larger payloads get a
	// PAYLOAD_TOO_LARGE error frame; the session stays open.
	MaxPayloadBytes int64

	// Heartbeat bounds the wait for the next stream chunk while generation
	// is in flight. Advisory only: it re-checks progress, never cancels.
	Heartbeat time.Duration

	// MemoryTopK is how many memories are retrieved as generation context.
	MemoryTopK int
}

// Hub maintains the set of active session clients and owns the shared
// collaborators every turn needs.
type Hub struct {
	// Registered clients.
	clients map[string]*Client

	// Register requests from the clients.
	register chan *Client

	// Unregister requests from clients.
	unregister chan *Client

	// Mutex for thread-safe access to clients map
	mu sync.RWMutex

	perception *usecase.PerceptionService
	llm        repositories.LanguageModel
	memory     repositories.MemoryStore
	writer     *usecase.MemoryWriter

	settings Settings
	logger   *zap.Logger
}

// NewHub creates a session hub. The memory store may be nil, in which case
// turns run without retrieved context.
func NewHub(
	perception *usecase.PerceptionService,
	llm repositories.LanguageModel,
	memory repositories.MemoryStore,
	writer *usecase.MemoryWriter,
	settings Settings,
	logger *zap.Logger,
) *Hub {
	if settings.MaxPayloadBytes <= 0 {
		settings.MaxPayloadBytes = 25 * 1024 * 1024
	}
	if settings.Heartbeat <= 0 {
		settings.Heartbeat = 30 * time.Second
	}
	if settings.MemoryTopK <= 0 {
		settings.MemoryTopK = 10
	}
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		perception: perception,
		llm:        llm,
		memory:     memory,
		writer:     writer,
		settings:   settings,
		logger:     logger,
	}
}

// Run starts the hub's main loop.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.connID] = client
			h.mu.Unlock()
			h.logger.Info("Client registered",
				zap.String("connID", client.connID),
				zap.String("clientID", client.clientID))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.connID]; ok {
				delete(h.clients, client.connID)
				close(client.send)
			}
			h.mu.Unlock()
			h.logger.Info("Client unregistered",
				zap.String("connID", client.connID),
				zap.String("clientID", client.clientID))
		}
	}
}

func (h *Hub) memoryContext(ctx context.Context, input string) []entities.MemoryMatch {
	if h.memory == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, memoryLookupTimeout)
	defer cancel()

	matches, err := h.memory.Search(ctx, input, h.settings.MemoryTopK)
	if err != nil {
		// Missing context degrades the reply, it must not kill the turn.
		h.logger.Warn("Memory lookup failed", zap.Error(err))
		return nil
	}
	return matches
}

// WriteData is one outbound websocket message.
type WriteData struct {
	// Type is websocket.TextMessage or websocket.BinaryMessage.
	Type    int
	Payload []byte
}

// Client is a middleman between the websocket connection and the hub. One
// client runs one session: turns are handled strictly sequentially, so turn
// N+1 never begins before turn N completes.
type Client struct {
	hub *Hub

	// The websocket connection.
	conn *websocket.Conn

	// Buffered channel of outbound messages.
	send chan WriteData

	// Buffered channel of inbound audio payloads, drained one turn at a
	// time by turnPump.
	turns chan []byte

	connID   string
	clientID string

	// Canceled on disconnect; aborts any in-flight turn work.
	ctx    context.Context
	cancel context.CancelFunc

	logger *zap.Logger
}

// HandleWebSocket upgrades the request and starts the session pumps for a
// pre-authenticated client.
func HandleWebSocket(hub *Hub, c echo.Context, clientID string, logger *zap.Logger) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		logger.Error("WebSocket upgrade failed", zap.Error(err))
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	client := &Client{
		hub:      hub,
		conn:     conn,
		send:     make(chan WriteData, 256),
		turns:    make(chan []byte, 4),
		connID:   uuid.NewString(),
		clientID: clientID,
		ctx:      ctx,
		cancel:   cancel,
		logger:   logger,
	}

	client.hub.register <- client

	go client.writePump()
	go client.turnPump()
	go client.readPump()

	return nil
}

// readPump receives binary audio payloads and hands them to turnPump. It
// stays blocked in ReadMessage between payloads, so a disconnect is noticed
// while a turn is still in flight and cancels the connection context.
func (c *Client) readPump() {
	defer func() {
		c.cancel()
		c.hub.unregister <- c
		c.conn.Close()
	}()

	// The read limit sits above the payload ceiling so an oversize payload
	// surfaces as an error frame instead of a transport close.
	c.conn.SetReadLimit(2 * c.hub.settings.MaxPayloadBytes)
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
			return
		}
		c.conn.SetReadDeadline(time.Now().Add(pongWait))

		switch messageType {
		case websocket.BinaryMessage:
			select {
			case c.turns <- message:
			case <-c.ctx.Done():
				return
			}
		case websocket.TextMessage:
			// The inbound protocol is binary audio only.
			c.logger.Warn("Ignoring unexpected text frame", zap.Int("size", len(message)))
		default:
			c.logger.Warn("Received unknown message type", zap.Int("type", messageType))
		}
	}
}

// turnPump drains queued payloads one turn at a time, so turns on a
// connection are strictly sequential. A protocol violation closes the
// connection; readPump then unwinds the session.
func (c *Client) turnPump() {
	for {
		select {
		case payload := <-c.turns:
			if !c.handleTurn(payload) {
				c.cancel()
				c.conn.Close()
				return
			}
		case <-c.ctx.Done():
			return
		}
	}
}

// writePump pumps messages from the session to the websocket connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.cancel()
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

// handleTurn runs one inbound-audio → outbound-reply exchange. It returns
// false when the payload violates the framing protocol and the connection
// must close.
func (c *Client) handleTurn(data []byte) bool {
	if int64(len(data)) > c.hub.settings.MaxPayloadBytes {
		c.logger.Warn("Payload over ceiling",
			zap.Int("size", len(data)),
			zap.Int64("ceiling", c.hub.settings.MaxPayloadBytes))
		c.sendJSON(NewErrorFrame(ErrorCodePayloadTooLarge, "Max 25MB"))
		return true
	}

	if !usecase.LooksLikeWAV(data) {
		// Malformed framing is a protocol violation, not a recoverable
		// per-turn error: close without emitting a frame.
		c.logger.Warn("Non-WAV payload, closing connection", zap.Int("size", len(data)))
		c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseUnsupportedData, "not a WAV payload"),
			time.Now().Add(writeWait))
		return false
	}

	outcome, err := c.hub.perception.Perceive(c.ctx, data)
	if err != nil {
		c.logger.Error("Perception failed", zap.Error(err))
		c.sendJSON(NewErrorFrame(ErrorCodeServerError, err.Error()))
		return true
	}

	transcript := strings.TrimSpace(outcome.Text)
	if transcript == "" {
		c.logger.Info("Empty capture", zap.String("speakerPrefix", outcome.SpeakerPrefix))
		c.sendJSON(NewReplyFrame(FallbackReply))
		return true
	}

	input := strings.TrimSpace(outcome.SpeakerPrefix + transcript)
	reply, genErr := c.streamReply(c.ctx, input)
	if genErr != nil {
		c.logger.Error("Generation failed", zap.Error(genErr))
		c.sendJSON(NewErrorFrame(ErrorCodeServerError, genErr.Error()))
	}

	if reply == "" {
		c.sendJSON(NewReplyFrame(FallbackReply))
	} else {
		c.sendJSON(NewReplyFrame(reply))
	}

	if genErr == nil {
		c.hub.writer.Submit(&entities.Interaction{
			Speaker:   outcome.Identification.SpeakerID,
			Input:     input,
			Reply:     reply,
			CreatedAt: time.Now(),
		})
	}
	return true
}

// streamReply drives the generation stream for one turn: a producer pulls
// deltas and emits completed sentences into a bounded ordered queue, the
// consumer forwards them as stream frames. Returns the full generated text.
func (c *Client) streamReply(ctx context.Context, input string) (string, error) {
	memories := c.hub.memoryContext(ctx, input)
	systemPrompt := usecase.PersonaPrompt(time.Now(), memories)

	stream, err := c.hub.llm.GenerateStream(ctx, systemPrompt, input)
	if err != nil {
		return "", fmt.Errorf("start generation: %w", err)
	}

	chunks := make(chan string, chunkQueueSize)
	var full strings.Builder
	var genErr error

	go func() {
		defer close(chunks)
		defer stream.Close()

		splitter := &sentenceSplitter{}
		for {
			delta, err := stream.Recv()
			if err == io.EOF {
				break
			}
			if err != nil {
				genErr = err
				return
			}
			full.WriteString(delta)
			for _, sentence := range splitter.Push(delta) {
				select {
				case chunks <- sentence:
				case <-ctx.Done():
					return
				}
			}
		}
		if rest := splitter.Flush(); rest != "" {
			select {
			case chunks <- rest:
			case <-ctx.Done():
			}
		}
	}()

	heartbeat := time.NewTicker(c.hub.settings.Heartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case sentence, ok := <-chunks:
			if !ok {
				// Producer finished; full and genErr are settled.
				if genErr != nil {
					return "", fmt.Errorf("generation stream: %w", genErr)
				}
				return full.String(), nil
			}
			c.logger.Info("Emitting chunk", zap.String("sentence", sentence))
			c.sendJSON(NewStreamFrame(sentence))

		case <-heartbeat.C:
			// Advisory only: re-check rather than time the turn out.
			c.logger.Debug("No chunk within heartbeat interval, generation still in flight")

		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
}

func (c *Client) sendJSON(frame interface{}) {
	payload, err := json.Marshal(frame)
	if err != nil {
		c.logger.Error("Failed to encode frame", zap.Error(err))
		return
	}
	select {
	case c.send <- WriteData{Type: websocket.TextMessage, Payload: payload}:
	case <-c.ctx.Done():
	}
}
