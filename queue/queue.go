// Package queue wraps the RabbitMQ plumbing used for asynchronous
// notifications: a durable queue, a set of producers the handlers publish
// to, and a set of consumers drained by worker goroutines.
package queue

import (
	"context"
	"log"
	"sync"

	"github.com/streadway/amqp"
)

// Producer publishes a message body to the queue.
type Producer interface {
	Publish(body []byte) error
}

// Consumer reads deliveries from the queue and handles them until the
// context is cancelled.
type Consumer interface {
	Consume(ctx context.Context) (<-chan amqp.Delivery, error)
}

// ProducerFactory builds a Producer from an established connection, channel
// and queue.
type ProducerFactory interface {
	CreateProducer(conn *amqp.Connection, ch *amqp.Channel, queue *amqp.Queue) (Producer, error)
}

// ConsumerFactory builds a Consumer from an established connection, channel
// and queue.
type ConsumerFactory interface {
	CreateConsumer(conn *amqp.Connection, ch *amqp.Channel, queue *amqp.Queue) (Consumer, error)
}

// Queue holds the producers and consumers bound to one RabbitMQ queue.
type Queue struct {
	Producers []Producer
	Consumers []Consumer
}

func connect(url string) (*amqp.Connection, *amqp.Channel, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		return nil, nil, err
	}

	if err = ch.Confirm(false); err != nil {
		return nil, nil, err
	}

	notifyClose := make(chan *amqp.Error)
	conn.NotifyClose(notifyClose)

	go func() {
		if err := <-notifyClose; err != nil {
			log.Fatalf("RabbitMQ connection closed: %v", err)
		}
	}()

	return conn, ch, nil
}

// InitQueue connects to RabbitMQ, declares a durable queue and instantiates
// the producers and consumers from the given factories.
func InitQueue(url, queueName string, prodFactories []ProducerFactory, consFactories []ConsumerFactory) (*Queue, error) {
	conn, ch, err := connect(url)
	if err != nil {
		return nil, err
	}

	queue, err := ch.QueueDeclare(
		queueName,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return nil, err
	}

	q := &Queue{}
	for _, f := range prodFactories {
		producer, err := f.CreateProducer(conn, ch, &queue)
		if err != nil {
			return nil, err
		}
		q.Producers = append(q.Producers, producer)
	}
	for _, f := range consFactories {
		consumer, err := f.CreateConsumer(conn, ch, &queue)
		if err != nil {
			return nil, err
		}
		q.Consumers = append(q.Consumers, consumer)
	}
	return q, nil
}

// StartConsumers launches every consumer in its own goroutine. The returned
// WaitGroup completes once the context is cancelled and all consumers have
// returned.
func (q *Queue) StartConsumers(ctx context.Context) *sync.WaitGroup {
	var wg sync.WaitGroup
	for _, consumer := range q.Consumers {
		wg.Add(1)
		go func(c Consumer) {
			defer wg.Done()
			if _, err := c.Consume(ctx); err != nil {
				log.Printf("Error starting consumer: %v", err)
			}
			<-ctx.Done()
		}(consumer)
	}
	return &wg
}
