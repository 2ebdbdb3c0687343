// Package events provides an in-process event bus for the worker.
//
// Components emit events without knowing which handlers consume them. The
// reminder dispatcher emits a reminder.sent event after each recorded reminder;
// handlers such as the AMQP publisher forward it to other systems.
//
// The primary components are:
// - Event: a typed envelope with a JSON payload
// - EventHandler: interface for components that consume events
// - InMemoryEventEmitter: fans events out to registered handlers
package events
