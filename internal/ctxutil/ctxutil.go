package ctxutil

import (
	"context"
	"time"
)

// приватные ключи, чтобы исключить коллизии
type key int

const (
	keyCardID key = iota
	keyOpName
)

// WithCardID /CardID — прокидываем номер карты в контекст (для логов)
func WithCardID(ctx context.Context, cardID string) context.Context {
	return context.WithValue(ctx, keyCardID, cardID)
}

func CardID(ctx context.Context) (string, bool) {
	v := ctx.Value(keyCardID)
	if v == nil {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// WithOp /Op — имя операции (для логов/трейса)
func WithOp(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, keyOpName, name)
}

func Op(ctx context.Context) (string, bool) {
	v := ctx.Value(keyOpName)
	if v == nil {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Таймауты: для локальной БД таймаут не ставим (операции короткие и
// синхронные), для внешних коллабораторов — обязателен.
var (
	DefaultExportTimeout = 30 * time.Second
)

// WithTimeout — удобная обёртка над context.WithTimeout.
func WithTimeout(parent context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return context.WithCancel(parent)
	}
	return context.WithTimeout(parent, d)
}

// WithExportTimeout — стандартный таймаут для выгрузок.
func WithExportTimeout(parent context.Context) (context.Context, context.CancelFunc) {
	if dl, ok := parent.Deadline(); ok {
		remain := time.Until(dl)
		if remain < DefaultExportTimeout {
			return context.WithTimeout(parent, remain)
		}
	}
	return context.WithTimeout(parent, DefaultExportTimeout)
}
