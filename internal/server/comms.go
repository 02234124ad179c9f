package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	comms "github.com/nats-io/nats.go"

	"github.com/morezero/agent-orchestrator/pkg/commsutil"
	"github.com/morezero/agent-orchestrator/pkg/dispatcher"
)

const commsLogPrefix = "server:comms"

// SubscribeTasks answers task requests on subject. Each message body is a
// TaskRequest and every reply is a TaskResponse, including decode failures.
func SubscribeTasks(ctx context.Context, nc *comms.Conn, subject string, disp *dispatcher.Dispatcher, requestTimeout time.Duration) (*comms.Subscription, error) {
	sub, err := nc.Subscribe(subject, func(msg *comms.Msg) {
		reqCtx, cancel := context.WithTimeout(ctx, requestTimeout)
		defer cancel()

		resp := disp.DispatchRaw(reqCtx, msg.Data)

		data, err := commsutil.EncodePayload(resp)
		if err != nil {
			slog.Error(fmt.Sprintf("%s - failed to encode response: %v", commsLogPrefix, err))
			return
		}
		if msg.Reply == "" {
			slog.Debug(fmt.Sprintf("%s - task message without reply subject", commsLogPrefix), "id", resp.ID)
			return
		}
		if err := msg.Respond(data); err != nil {
			slog.Warn(fmt.Sprintf("%s - failed to respond: %v", commsLogPrefix, err), "id", resp.ID)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("%s - failed to subscribe to %s: %w", commsLogPrefix, subject, err)
	}
	slog.Info(fmt.Sprintf("%s - Subscribed to %s", commsLogPrefix, subject))
	return sub, nil
}
