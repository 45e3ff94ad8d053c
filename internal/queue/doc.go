// Package queue connects audit runs to Redis.
//
// Triggers arrive as JSON on a Redis list and are consumed with BRPOP by a
// Worker. Run events flow back out on a pub/sub channel, one message per
// progress or failure event.
//
// # Redis Key Schema
//
//   - pageaudit:triggers - List of Trigger JSON (LPUSH/BRPOP)
//   - pageaudit:events - Pub/Sub channel of Event JSON
//
// Both names are configurable through RedisOptions.
package queue
