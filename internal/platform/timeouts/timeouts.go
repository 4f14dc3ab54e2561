// Package timeouts defines shared timeout constants used across the keeper
// desk process.
package timeouts

import "time"

// ReadHeader limits how long an HTTP server waits for request headers.
const ReadHeader = 5 * time.Second

// Shutdown limits how long an HTTP server waits for in-flight requests
// during graceful shutdown.
const Shutdown = 5 * time.Second

// StoreWrite caps a single request's durable append or update.
const StoreWrite = 3 * time.Second

// FeedWrite caps one websocket frame write to a live log viewer.
const FeedWrite = 2 * time.Second
