package queue

import (
	"context"
	"encoding/json"
	"errors"
	"log"

	"github.com/streadway/amqp"

	"github.com/choreward/backend/storage/cache"
)

// roundRobin assigns producers to published messages.
var roundRobin int

// Mailer sends the welcome email for a processed message.
type Mailer interface {
	SendWelcome(to, locale string) error
}

// WelcomeMessage is the payload queued when a user registers.
type WelcomeMessage struct {
	ID     string `json:"id"`
	To     string `json:"to"`
	Locale string `json:"locale"`
}

// WelcomeProducerFactory builds producers for the welcome queue.
type WelcomeProducerFactory struct{}

// WelcomeConsumerFactory builds consumers for the welcome queue. The cache
// records processed message ids so redelivered messages are not re-sent.
type WelcomeConsumerFactory struct {
	Cache  cache.CacheInterface
	Mailer Mailer
}

// WelcomeProducer publishes welcome messages to the queue.
type WelcomeProducer struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   *amqp.Queue
}

// WelcomeConsumer drains welcome messages, deduplicates against the cache
// and hands them to the mailer.
type WelcomeConsumer struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   *amqp.Queue
	cache   cache.CacheInterface
	mailer  Mailer
}

func (f *WelcomeProducerFactory) CreateProducer(conn *amqp.Connection, ch *amqp.Channel, queue *amqp.Queue) (Producer, error) {
	return &WelcomeProducer{conn: conn, channel: ch, queue: queue}, nil
}

func (f *WelcomeConsumerFactory) CreateConsumer(conn *amqp.Connection, ch *amqp.Channel, queue *amqp.Queue) (Consumer, error) {
	return &WelcomeConsumer{conn: conn, channel: ch, queue: queue, cache: f.Cache, mailer: f.Mailer}, nil
}

// Publish sends one message body to the queue.
func (p *WelcomeProducer) Publish(body []byte) error {
	return p.channel.Publish(
		"",           // exchange
		p.queue.Name, // routing key
		false,        // mandatory
		false,        // immediate
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
		})
}

// Consume reads messages until the context is done. Transient failures are
// nacked for redelivery; processed ids are remembered in the cache.
func (c *WelcomeConsumer) Consume(ctx context.Context) (<-chan amqp.Delivery, error) {
	msgs, err := c.channel.Consume(c.queue.Name, "", false, false, false, false, nil)
	if err != nil {
		return nil, err
	}

	go func() {
		for {
			select {
			case d, ok := <-msgs:
				if !ok {
					return
				}
				message := &WelcomeMessage{}
				if err := json.Unmarshal(d.Body, message); err != nil {
					log.Printf("failed to unmarshal welcome message: %v", err)
					d.Nack(false, false)
					continue
				}

				var processed bool
				err := c.cache.Get(ctx, "welcome_"+message.ID, &processed)
				if err != nil && err != cache.ErrCacheMiss {
					log.Printf("error checking cache: %v", err)
					d.Nack(false, true)
					continue
				}
				if processed {
					d.Ack(false)
					continue
				}

				if err := c.mailer.SendWelcome(message.To, message.Locale); err != nil {
					log.Printf("failed to send welcome email: %v", err)
					d.Nack(false, true)
					continue
				}
				d.Ack(false)
				if err := c.cache.Set(ctx, "welcome_"+message.ID, true); err != nil {
					log.Printf("failed to mark message processed: %v", err)
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	return msgs, nil
}

// BuildWelcomeQueue initializes the welcome queue with the requested number
// of producers and consumers.
func BuildWelcomeQueue(rabbitMQURL string, numProducers, numConsumers int, dedup cache.CacheInterface, mailer Mailer) (*Queue, error) {
	prodFactories := make([]ProducerFactory, numProducers)
	for i := range prodFactories {
		prodFactories[i] = &WelcomeProducerFactory{}
	}
	consFactories := make([]ConsumerFactory, numConsumers)
	for i := range consFactories {
		consFactories[i] = &WelcomeConsumerFactory{Cache: dedup, Mailer: mailer}
	}
	return InitQueue(rabbitMQURL, "welcomeQueue", prodFactories, consFactories)
}

// PublishWelcome serializes the message and hands it to one of the queue's
// producers round-robin.
func PublishWelcome(msg *WelcomeMessage, q *Queue) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return errors.New("failed to marshal welcome message: " + err.Error())
	}
	if len(q.Producers) == 0 {
		return errors.New("no producers available")
	}
	producer := q.Producers[roundRobin%len(q.Producers)]
	roundRobin++
	return producer.Publish(body)
}
