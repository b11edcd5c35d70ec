package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"tourdesk/internal/realtime"
	"tourdesk/internal/store"

	"github.com/gin-gonic/gin"
)

const replyTimeout = 5 * time.Second

// wsHandler upgrades to a realtime channel that answers username checks
func (s *Server) wsHandler(c *gin.Context) {
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote the error response
		s.logger.Warn("websocket upgrade failed", slog.Any("error", err))
		return
	}

	logger := s.logger.With(slog.String("request_id", c.GetString("request_id")))
	ch := realtime.NewChannel(conn, logger)
	defer ch.Close()

	ch.On(s.cfg.CheckEvent, func(frame realtime.Frame) {
		s.answerCheck(ch, logger, frame)
	})

	logger.Debug("realtime client connected")
	<-ch.Done()
	if err := ch.Err(); err != nil {
		logger.Debug("realtime client gone", slog.Any("error", err))
	}
}

func (s *Server) answerCheck(ch *realtime.Channel, logger *slog.Logger, frame realtime.Frame) {
	ctx, cancel := context.WithTimeout(context.Background(), replyTimeout)
	defer cancel()

	var req realtime.CheckRequest
	if err := json.Unmarshal(frame.Data, &req); err != nil {
		// Some clients send the bare username as a JSON string
		var name string
		if json.Unmarshal(frame.Data, &name) != nil {
			_ = ch.Emit(ctx, s.cfg.ReplyEvent, frame.ID, realtime.Reply{Message: "Invalid request"})
			return
		}
		req.Username = name
	}

	username := strings.TrimSpace(req.Username)
	reply := realtime.Reply{Username: req.Username}

	_, err := s.store.UserByUsername(ctx, username)
	switch {
	case errors.Is(err, store.ErrNotFound):
		available := true
		reply.Available = &available
	case err != nil:
		logger.Error("availability lookup failed", slog.Any("error", err))
		reply.Message = MsgInternalServerError
	default:
		available := false
		reply.Available = &available
	}

	if err := ch.Emit(ctx, s.cfg.ReplyEvent, frame.ID, reply); err != nil {
		logger.Debug("failed to send availability reply", slog.Any("error", err))
	}
}
