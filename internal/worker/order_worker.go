package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"

	"github.com/flicky/go-storefront/internal/model"
	"github.com/flicky/go-storefront/internal/repository"
)

const (
	orderQueueName = "orders.placed"
	dlxExchange    = "orders.dlx"
	dlqQueueName   = "orders.placed.dlq"
	idempotencyTTL = 24 * time.Hour
)

var errOrderMissing = errors.New("order not found")

// SetupRabbitMQ declares exchanges, queues, and bindings (DLX/DLQ).
func SetupRabbitMQ(ch *amqp.Channel) error {
	if err := ch.ExchangeDeclare(dlxExchange, "direct", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare DLX: %w", err)
	}
	if _, err := ch.QueueDeclare(dlqQueueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare DLQ: %w", err)
	}
	if err := ch.QueueBind(dlqQueueName, orderQueueName, dlxExchange, false, nil); err != nil {
		return fmt.Errorf("bind DLQ: %w", err)
	}
	if _, err := ch.QueueDeclare(orderQueueName, true, false, false, false, amqp.Table{
		"x-dead-letter-exchange":    dlxExchange,
		"x-dead-letter-routing-key": orderQueueName,
	}); err != nil {
		return fmt.Errorf("declare order queue: %w", err)
	}
	return nil
}

// Publisher puts placed orders on the queue the worker consumes.
type Publisher struct {
	channel *amqp.Channel
}

func NewPublisher(ch *amqp.Channel) *Publisher {
	return &Publisher{channel: ch}
}

func (p *Publisher) Publish(ctx context.Context, msg model.OrderMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal order message: %w", err)
	}
	err = p.channel.PublishWithContext(ctx, "", orderQueueName, false, false, amqp.Publishing{
		ContentType:  "application/json",
		MessageId:    msg.OrderID.String(),
		Body:         body,
		DeliveryMode: amqp.Persistent,
	})
	if err != nil {
		return fmt.Errorf("publish order message: %w", err)
	}
	return nil
}

// Acknowledger is the part of amqp.Delivery the worker settles messages with.
type Acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

// OrderWorker moves placed orders through processing: it reserves stock for
// every item and marks the order completed, or failed when stock runs out.
type OrderWorker struct {
	channel     *amqp.Channel
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
	redisClient *redis.Client
	log         *slog.Logger
	done        chan struct{}
	stopOnce    sync.Once
}

func NewOrderWorker(
	ch *amqp.Channel,
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	redisClient *redis.Client,
	log *slog.Logger,
) *OrderWorker {
	return &OrderWorker{
		channel:     ch,
		orderRepo:   orderRepo,
		productRepo: productRepo,
		redisClient: redisClient,
		log:         log,
		done:        make(chan struct{}),
	}
}

// Start consumes on the worker's own channel, one unacked delivery at a time.
func (w *OrderWorker) Start(ctx context.Context) error {
	if err := w.channel.Qos(1, 0, false); err != nil {
		return fmt.Errorf("set QoS: %w", err)
	}
	msgs, err := w.channel.Consume(orderQueueName, "", false, false, false, false, nil)
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
				w.handle(ctx, msg.Body, msg)
			case <-w.done:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	w.log.Info("order worker started", "queue", orderQueueName)
	return nil
}

// Stop ends consumption. It is safe to call more than once.
func (w *OrderWorker) Stop() {
	w.stopOnce.Do(func() { close(w.done) })
}

func processedKey(orderID uuid.UUID) string {
	return "order_processed:" + orderID.String()
}

func (w *OrderWorker) handle(ctx context.Context, body []byte, ack Acknowledger) {
	var orderMsg model.OrderMessage
	if err := json.Unmarshal(body, &orderMsg); err != nil {
		w.log.Error("unmarshal order message", "error", err)
		_ = ack.Nack(false, false)
		return
	}

	log := w.log.With("order_id", orderMsg.OrderID, "user_id", orderMsg.UserID)

	key := processedKey(orderMsg.OrderID)
	exists, err := w.redisClient.Exists(ctx, key).Result()
	if err != nil {
		log.Error("check idempotency key", "error", err)
		_ = ack.Nack(false, true)
		return
	}
	if exists > 0 {
		log.Info("order already processed, skipping")
		_ = ack.Ack(false)
		return
	}

	if err := w.processOrder(ctx, orderMsg.OrderID); err != nil {
		log.Error("process order failed", "error", err)
		_ = ack.Nack(false, false) // dead-lettered
		return
	}

	if err := w.redisClient.Set(ctx, key, "1", idempotencyTTL).Err(); err != nil {
		log.Error("set idempotency key", "error", err)
	}

	_ = ack.Ack(false)
	log.Info("order processed successfully")
}

func (w *OrderWorker) processOrder(ctx context.Context, orderID uuid.UUID) error {
	order, err := w.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return fmt.Errorf("get order: %w", err)
	}
	if order == nil {
		return fmt.Errorf("%w: %s", errOrderMissing, orderID)
	}
	if order.Status == model.OrderStatusCompleted || order.Status == model.OrderStatusFailed {
		return nil
	}

	tx, err := w.orderRepo.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := w.orderRepo.UpdateStatus(ctx, tx, orderID, model.OrderStatusProcessing); err != nil {
		return fmt.Errorf("set processing: %w", err)
	}

	for _, item := range order.Items {
		err := w.productRepo.DecrementStock(ctx, tx, item.ProductID, item.Quantity)
		if errors.Is(err, repository.ErrInsufficientStock) {
			_ = tx.Rollback(ctx)
			w.log.Warn("order failed on stock", "order_id", orderID, "product_id", item.ProductID)
			if err := w.orderRepo.UpdateStatus(ctx, nil, orderID, model.OrderStatusFailed); err != nil {
				return fmt.Errorf("set failed: %w", err)
			}
			return nil
		}
		if err != nil {
			return fmt.Errorf("decrement stock: %w", err)
		}
	}

	if err := w.orderRepo.UpdateStatus(ctx, tx, orderID, model.OrderStatusCompleted); err != nil {
		return fmt.Errorf("set completed: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
