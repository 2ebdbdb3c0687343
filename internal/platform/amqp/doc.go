// Package amqp publishes worker events to a RabbitMQ topic exchange.
//
// Publisher implements events.EventHandler, so it can be registered on the
// in-memory emitter next to any local handlers. Each event is published as
// JSON with its type as the routing key.
package amqp
