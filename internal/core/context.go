package core

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type contextKey string

const (
	ctxKeyIPAddress contextKey = "client_ip"
	ctxKeyUserAgent contextKey = "client_ua"
	ctxKeyBatch     contextKey = "batch"
)

// Batch identifies one cleaning request. It is created per request and
// travels with the context; nothing about it outlives the request.
type Batch struct {
	ID        uuid.UUID
	IPAddress string
	UserAgent string
	StartedAt time.Time
}

// NewBatch starts a batch using the client metadata stored in ctx.
func NewBatch(ctx context.Context) Batch {
	return Batch{
		ID:        uuid.New(),
		IPAddress: GetIPAddressFromContext(ctx),
		UserAgent: GetUserAgentFromContext(ctx),
		StartedAt: time.Now(),
	}
}

// ContextWithBatch attaches b to ctx.
func ContextWithBatch(ctx context.Context, b Batch) context.Context {
	return context.WithValue(ctx, ctxKeyBatch, b)
}

// BatchFromContext returns the batch attached to ctx, if any.
func BatchFromContext(ctx context.Context) (Batch, bool) {
	b, ok := ctx.Value(ctxKeyBatch).(Batch)
	return b, ok
}

// ContextWithIPAddress adds the client IP address to context.
func ContextWithIPAddress(ctx context.Context, ip string) context.Context {
	return context.WithValue(ctx, ctxKeyIPAddress, ip)
}

// ContextWithUserAgent adds the client User-Agent to context.
func ContextWithUserAgent(ctx context.Context, ua string) context.Context {
	return context.WithValue(ctx, ctxKeyUserAgent, ua)
}

// GetIPAddressFromContext extracts IP address from context.
func GetIPAddressFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyIPAddress).(string); ok {
		return v
	}
	return ""
}

// GetUserAgentFromContext extracts User-Agent from context.
func GetUserAgentFromContext(ctx context.Context) string {
	if v, ok := ctx.Value(ctxKeyUserAgent).(string); ok {
		return v
	}
	return ""
}
