package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/gregtusar/pairs/pkg/report"
)

const streamWriteWait = 10 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// StreamMessage is one websocket frame. Type is "point" for each series
// row and "summary" for the closing frame.
type StreamMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	result, ok := s.runs.get(id)
	if !ok {
		s.writeError(w, http.StatusNotFound, fmt.Errorf("backtest %s not found", id))
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.WithError(err).Error("Failed to upgrade websocket")
		return
	}
	defer conn.Close()

	log := s.logger.WithField("id", id)
	for _, point := range result.Series {
		if err := s.writeFrame(conn, StreamMessage{Type: "point", Data: point}); err != nil {
			log.WithError(err).Warn("Stream interrupted")
			return
		}
	}
	if err := s.writeFrame(conn, StreamMessage{Type: "summary", Data: report.NewDocument(id, result)}); err != nil {
		log.WithError(err).Warn("Stream interrupted")
		return
	}

	msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "done")
	if err := conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(streamWriteWait)); err != nil {
		log.WithError(err).Debug("Failed to send close frame")
	}
	log.WithField("points", len(result.Series)).Debug("Streamed backtest series")
}

func (s *Server) writeFrame(conn *websocket.Conn, msg StreamMessage) error {
	if err := conn.SetWriteDeadline(time.Now().Add(streamWriteWait)); err != nil {
		return err
	}
	return conn.WriteJSON(msg)
}
