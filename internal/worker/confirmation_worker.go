package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"

	"github.com/pagebound/bookstore-api/internal/model"
	"github.com/pagebound/bookstore-api/internal/repository"
)

const (
	confirmationQueue = "order_confirmations"
	dlxExchange       = "order_confirmations.dlx"
	dlqQueueName      = "order_confirmations.dlq"
	idempotencyTTL    = 24 * time.Hour
)

// Notifier delivers the customer-facing confirmation for a committed order.
type Notifier interface {
	ConfirmOrder(ctx context.Context, order *model.Order) error
}

// LogNotifier records confirmations in the structured log. It stands in for
// a mail or SMS gateway in deployments that have none configured.
type LogNotifier struct {
	log *slog.Logger
}

func NewLogNotifier(log *slog.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) ConfirmOrder(_ context.Context, order *model.Order) error {
	n.log.Info("order confirmation sent",
		"order_code", order.Code,
		"customer_email", order.CustomerEmail,
		"final_amount", order.FinalAmount.String(),
	)
	return nil
}

// ConfirmationWorker consumes committed orders off the confirmation queue
// and hands them to the notifier. Stock was already settled inside the
// checkout transaction; this path only carries the notice.
type ConfirmationWorker struct {
	channel     *amqp.Channel
	orderRepo   repository.OrderRepository
	notifier    Notifier
	redisClient *redis.Client
	log         *slog.Logger
	done        chan struct{}
}

func NewConfirmationWorker(
	ch *amqp.Channel,
	orderRepo repository.OrderRepository,
	notifier Notifier,
	redisClient *redis.Client,
	log *slog.Logger,
) *ConfirmationWorker {
	return &ConfirmationWorker{
		channel:     ch,
		orderRepo:   orderRepo,
		notifier:    notifier,
		redisClient: redisClient,
		log:         log,
		done:        make(chan struct{}),
	}
}

// SetupRabbitMQ declares exchanges, queues, and bindings (DLX/DLQ).
func SetupRabbitMQ(ch *amqp.Channel) error {
	if err := ch.ExchangeDeclare(dlxExchange, "direct", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare DLX: %w", err)
	}
	if _, err := ch.QueueDeclare(dlqQueueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare DLQ: %w", err)
	}
	if err := ch.QueueBind(dlqQueueName, confirmationQueue, dlxExchange, false, nil); err != nil {
		return fmt.Errorf("bind DLQ: %w", err)
	}
	if _, err := ch.QueueDeclare(confirmationQueue, true, false, false, false, amqp.Table{
		"x-dead-letter-exchange":    dlxExchange,
		"x-dead-letter-routing-key": confirmationQueue,
	}); err != nil {
		return fmt.Errorf("declare confirmation queue: %w", err)
	}
	if err := ch.Qos(1, 0, false); err != nil {
		return fmt.Errorf("set QoS: %w", err)
	}
	return nil
}

func (w *ConfirmationWorker) Start(ctx context.Context) error {
	msgs, err := w.channel.Consume(confirmationQueue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	go func() {
		for {
			select {
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				w.processMessage(ctx, msg)
			case <-w.done:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	w.log.Info("confirmation worker started")
	return nil
}

func (w *ConfirmationWorker) Stop() { close(w.done) }

func (w *ConfirmationWorker) processMessage(ctx context.Context, msg amqp.Delivery) {
	var orderMsg model.OrderMessage
	if err := json.Unmarshal(msg.Body, &orderMsg); err != nil {
		w.log.Error("unmarshal order message", "error", err)
		_ = msg.Nack(false, false)
		return
	}

	log := w.log.With("order_id", orderMsg.OrderID, "order_code", orderMsg.OrderCode)

	// Redelivery after a crash must not send the confirmation twice.
	idempotencyKey := "order_confirmed:" + orderMsg.OrderID.String()
	exists, err := w.redisClient.Exists(ctx, idempotencyKey).Result()
	if err != nil {
		log.Error("check idempotency key", "error", err)
		_ = msg.Nack(false, true)
		return
	}
	if exists > 0 {
		log.Info("order already confirmed, skipping")
		_ = msg.Ack(false)
		return
	}

	if err := w.confirmOrder(ctx, orderMsg.OrderID); err != nil {
		log.Error("confirm order failed", "error", err)
		_ = msg.Nack(false, false) // to DLQ
		return
	}

	if err := w.redisClient.Set(ctx, idempotencyKey, "1", idempotencyTTL).Err(); err != nil {
		log.Error("set idempotency key", "error", err)
	}

	_ = msg.Ack(false)
	log.Info("order confirmed")
}

func (w *ConfirmationWorker) confirmOrder(ctx context.Context, orderID uuid.UUID) error {
	order, err := w.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return fmt.Errorf("get order: %w", err)
	}
	if order == nil {
		return fmt.Errorf("order not found: %s", orderID)
	}
	return w.notifier.ConfirmOrder(ctx, order)
}
