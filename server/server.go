package server

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/voxdoc/voxdoc/pkg/assistant"
	"github.com/voxdoc/voxdoc/pkg/logger"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Be careful with this in production
	},
}

// Message is the wire frame exchanged with clients. Incoming frames
// carry an utterance in Content; outgoing frames are typed "reply",
// "status" or "error".
type Message struct {
	Type    string `json:"type"`
	Content string `json:"content"`
}

// WSServer exposes the assistant over a WebSocket so a speech frontend
// can stream recognized utterances in and play replies back.
type WSServer struct {
	assistant *assistant.Assistant
}

func NewWSServer(a *assistant.Assistant) *WSServer {
	return &WSServer{assistant: a}
}

// Serve runs the WebSocket endpoint on the given port until the
// listener fails.
func Serve(port string, a *assistant.Assistant) error {
	if port == "" {
		port = "8080"
	}
	s := NewWSServer(a)

	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.handleWebSocket)
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	logger.Infof("starting WebSocket server on port %s", port)
	return http.ListenAndServe(":"+port, mux)
}

func (s *WSServer) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Errorf("WebSocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			logger.Infof("connection closed: %v", err)
			return
		}

		var msg Message
		if err := json.Unmarshal(raw, &msg); err != nil {
			s.send(conn, "error", "malformed message")
			continue
		}

		// Stop frames pre-empt whatever is running; everything else is
		// handled asynchronously so a long synthesis never blocks the
		// read loop.
		if msg.Type == "stop" {
			s.assistant.Stop()
			s.send(conn, "status", "stopped")
			continue
		}

		go s.handleUtterance(ctx, conn, msg.Content)
	}
}

func (s *WSServer) handleUtterance(ctx context.Context, conn *websocket.Conn, utterance string) {
	reply, err := s.assistant.Handle(ctx, utterance)
	if err != nil {
		logger.Errorw("utterance failed", "utterance", utterance, "error", err)
		s.send(conn, "error", "something went wrong handling that request")
		return
	}
	s.send(conn, "reply", reply)
}

func (s *WSServer) send(conn *websocket.Conn, msgType, content string) {
	if err := conn.WriteJSON(Message{Type: msgType, Content: content}); err != nil {
		logger.Errorf("failed to send message: %v", err)
	}
}
