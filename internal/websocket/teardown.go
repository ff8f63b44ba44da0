package websocket

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/remasto/remasto/server/domain/entities"
)

// teardownTimeout bounds the report handoff for a dropped connection.
const teardownTimeout = 30 * time.Second

// teardown ends an interview whose connection dropped mid-session. The
// transcript covered so far is frozen and handed to report generation, so
// a browser crash still leaves a stored report behind.
func (c *Client) teardown() {
	c.mutex.Lock()
	session := c.session
	c.session = nil
	c.mutex.Unlock()

	c.recorder.Abort()
	if session == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), teardownTimeout)
	defer cancel()

	if _, err := session.End(ctx); err != nil {
		if errors.Is(err, entities.ErrInterviewTerminal) {
			return
		}
		c.logger.Warn("Failed to end interview on disconnect",
			zap.String("interviewID", session.ID()),
			zap.Error(err))
		return
	}
	c.logger.Info("Interview ended on disconnect",
		zap.String("interviewID", session.ID()))
}
