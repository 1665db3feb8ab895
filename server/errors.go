package server

import "errors"

var (
	// ErrQueryServiceRequired is returned when a server is built without a query service.
	ErrQueryServiceRequired = errors.New("query service is required")

	// ErrReviewQueueRequired is returned when a server is built without a review queue.
	ErrReviewQueueRequired = errors.New("review queue is required")

	// ErrMemoryStoreRequired is returned when a server is built without a memory store.
	ErrMemoryStoreRequired = errors.New("memory store is required")
)
