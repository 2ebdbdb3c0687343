// Package redis provides a Redis-backed reminder.Claimer.
//
// When several worker replicas share one database, each replica claims a task
// with SET NX before sending. The claim expires after a TTL, so a replica that
// crashes mid-send never blocks a task for longer than that. The reminder
// event appended afterwards remains the durable idempotence marker; claims
// only narrow the window in which two replicas could both send.
package redis
