// Package queue contains the background consumer that listens to the
// account.activated and voter.registered queues and appends an audit line
// per event to logs/activation.log.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

// AuditFile is the file name written below the log directory.
const AuditFile = "activation.log"

// StartActivationConsumer connects to RabbitMQ, declares both event queues
// (durable) and consumes them until ctx is cancelled.  Broken connections
// are redialled with exponential backoff.  A message that cannot be handled
// is rejected without requeue so the consumer keeps running.
func StartActivationConsumer(ctx context.Context, url, logDir string, log *zap.Logger) error {
	log = log.Named("activation-consumer")
	path := filepath.Join(logDir, AuditFile)

	backoff := time.Second
	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		conn, err := amqp.Dial(url)
		if err != nil {
			log.Warn("dial broker failed", zap.Error(err), zap.Duration("retry_in", backoff))
			if !sleep(ctx, backoff) {
				return ctx.Err()
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = consumeLoop(ctx, conn, path, log)
		_ = conn.Close()
		if ctx.Err() != nil {
			return ctx.Err()
		}
		log.Warn("consume loop ended, reconnecting", zap.Error(err))
		if !sleep(ctx, 2*time.Second) {
			return ctx.Err()
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

func consumeLoop(ctx context.Context, conn *amqp.Connection, path string, log *zap.Logger) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		log.Warn("set qos failed", zap.Error(err))
	}

	activated, err := subscribe(ch, AccountActivatedQueue)
	if err != nil {
		return err
	}
	registered, err := subscribe(ch, VoterRegisteredQueue)
	if err != nil {
		return err
	}

	for {
		var (
			d     amqp.Delivery
			ok    bool
			queue string
		)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case d, ok = <-activated:
			queue = AccountActivatedQueue
		case d, ok = <-registered:
			queue = VoterRegisteredQueue
		}
		if !ok {
			return errors.New("deliveries channel closed")
		}
		if err := handleMessage(queue, d.Body, path); err != nil {
			log.Error("handle message failed", zap.String("queue", queue), zap.Error(err))
			_ = d.Nack(false, false)
			continue
		}
		_ = d.Ack(false)
	}
}

func subscribe(ch *amqp.Channel, queue string) (<-chan amqp.Delivery, error) {
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("queue declare %s: %w", queue, err)
	}
	msgs, err := ch.Consume(queue, "", false, false, false, false, nil)
	if err != nil {
		return nil, fmt.Errorf("queue consume %s: %w", queue, err)
	}
	return msgs, nil
}

// formatLine renders one audit line for an event body from queue.
func formatLine(queue string, body []byte) (string, error) {
	switch queue {
	case AccountActivatedQueue:
		var ev AccountActivatedEvent
		if err := json.Unmarshal(body, &ev); err != nil {
			return "", fmt.Errorf("unmarshal: %w", err)
		}
		return fmt.Sprintf("[%s] Account activated | user_id=%d | voter_id=%s | email=%s | branch=\"%s\"\n",
			ev.ActivatedAt, ev.UserID, ev.VoterID, ev.Email, ev.BranchName), nil
	case VoterRegisteredQueue:
		var ev VoterRegisteredEvent
		if err := json.Unmarshal(body, &ev); err != nil {
			return "", fmt.Errorf("unmarshal: %w", err)
		}
		return fmt.Sprintf("[%s] Voter registered | user_id=%d | voter_id=%s | email=%s | branch=\"%s\" | by=%d\n",
			ev.RegisteredAt, ev.UserID, ev.VoterID, ev.Email, ev.BranchName, ev.RegisteredBy), nil
	default:
		return "", fmt.Errorf("unexpected queue %q", queue)
	}
}

func handleMessage(queue string, body []byte, path string) error {
	line, err := formatLine(queue, body)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir logs: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	return nil
}
