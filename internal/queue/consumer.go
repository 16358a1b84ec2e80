package queue

import (
    "context"
    "encoding/json"
    "errors"
    "fmt"
    "os"
    "path/filepath"
    "sync"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
    "github.com/sirupsen/logrus"
    "github.com/tidwall/gjson"
)

// Consumer reads booking events from RabbitMQ and appends one line per
// event to <LogDir>/booking.log.
type Consumer struct {
    URL    string
    Queue  string
    LogDir string

    mu sync.Mutex // serialises writes to the log file
}

// NewConsumer returns a Consumer with the default queue when queue is empty.
func NewConsumer(url, queue, logDir string) *Consumer {
    if queue == "" {
        queue = DefaultQueue
    }
    return &Consumer{URL: url, Queue: queue, LogDir: logDir}
}

// Run connects to the broker, declares the queue (durable) and consumes
// until ctx is cancelled.  Connection failures are retried with
// exponential backoff capped at 30s; a malformed message is rejected
// without requeue so it cannot block the queue.
func (c *Consumer) Run(ctx context.Context) error {
    log := logrus.WithField("component", "booking-consumer")
    backoff := time.Second
    for {
        if ctx.Err() != nil {
            return ctx.Err()
        }
        conn, err := amqp.Dial(c.URL)
        if err != nil {
            log.WithError(err).WithField("retry_in", backoff).Warn("failed to dial broker")
            if !sleep(ctx, backoff) {
                return ctx.Err()
            }
            if backoff < 30*time.Second {
                backoff *= 2
            }
            continue
        }
        backoff = time.Second // reset after successful connect

        err = c.consumeLoop(ctx, conn)
        _ = conn.Close()
        if ctx.Err() != nil {
            return ctx.Err()
        }
        log.WithError(err).Warn("consume loop ended; reconnecting")
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

func (c *Consumer) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
    ch, err := conn.Channel()
    if err != nil {
        return fmt.Errorf("channel open: %w", err)
    }
    defer func() { _ = ch.Close() }()

    if err := ch.Qos(50, 0, false); err != nil {
        logrus.WithError(err).Warn("booking-consumer: set QoS failed")
    }
    if _, err := ch.QueueDeclare(c.Queue, true, false, false, false, nil); err != nil {
        return fmt.Errorf("queue declare: %w", err)
    }
    msgs, err := ch.Consume(c.Queue, "", false, false, false, false, nil)
    if err != nil {
        return fmt.Errorf("queue consume: %w", err)
    }

    for {
        select {
        case <-ctx.Done():
            return ctx.Err()
        case d, ok := <-msgs:
            if !ok {
                return errors.New("deliveries channel closed")
            }
            if err := c.HandleMessage(d.Body); err != nil {
                logrus.WithError(err).WithField("message_id", d.MessageId).Error("booking-consumer: handle message failed")
                _ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
                continue
            }
            _ = d.Ack(false)
        }
    }
}

// HandleMessage validates one event payload and appends it to the log.
func (c *Consumer) HandleMessage(body []byte) error {
    if !gjson.ValidBytes(body) {
        return errors.New("payload is not valid JSON")
    }
    fields := gjson.GetManyBytes(body, "type", "reservation_id", "offering_id")
    switch fields[0].String() {
    case EventBookingConfirmed, EventBookingCancelled:
    default:
        return fmt.Errorf("unknown event type %q", fields[0].String())
    }
    if fields[1].Uint() == 0 || fields[2].Uint() == 0 {
        return errors.New("event is missing reservation_id or offering_id")
    }

    var ev BookingEvent
    if err := json.Unmarshal(body, &ev); err != nil {
        return fmt.Errorf("unmarshal: %w", err)
    }
    return c.appendLine(formatEvent(ev))
}

func formatEvent(ev BookingEvent) string {
    verb := "confirmed"
    if ev.Type == EventBookingCancelled {
        verb = "cancelled"
    }
    return fmt.Sprintf("[%s] Reservation %s | reservation_id=%d | user_id=%d | offering_id=%d | offering=%q | location=%q | slot=%s %s | seat=%q | price=%d cents\n",
        ev.OccurredAt, verb, ev.ReservationID, ev.UserID, ev.OfferingID, ev.OfferingName, ev.Location,
        ev.Date, ev.Time, ev.Seat, ev.PriceCents)
}

func (c *Consumer) appendLine(line string) error {
    c.mu.Lock()
    defer c.mu.Unlock()

    if err := os.MkdirAll(c.LogDir, 0o755); err != nil {
        return fmt.Errorf("mkdir logs: %w", err)
    }
    f, err := os.OpenFile(filepath.Join(c.LogDir, "booking.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
    if err != nil {
        return fmt.Errorf("open log file: %w", err)
    }
    defer f.Close()

    if _, err := f.WriteString(line); err != nil {
        return fmt.Errorf("write log: %w", err)
    }
    return nil
}
