// Package cache provee el store clave-valor compartido que usan la revocación
// de tokens y el contador de intentos de login.
//
// Soporta:
//   - Memory (in-process, para desarrollo/testing)
//   - Redis (distribuido, para producción)
//
// Toda operación de escritura concurrente usa primitivas atómicas del backend
// (INCR + EXPIRE NX, SET NX); nunca read-modify-write.
package cache

import (
	"context"
	"errors"
	"time"
)

// Client define las operaciones del store.
type Client interface {
	// Get obtiene un valor. Retorna ErrNotFound si no existe o expiró.
	Get(ctx context.Context, key string) (string, error)

	// SetNX guarda value con TTL solo si la key no existe.
	// Retorna true si la escribió. ttl <= 0 significa sin expiración.
	SetNX(ctx context.Context, key, value string, ttl time.Duration) (bool, error)

	// Incr incrementa atómicamente el contador. La primera escritura fija el
	// TTL de la ventana; los incrementos siguientes no lo extienden.
	Incr(ctx context.Context, key string, ttl time.Duration) (int64, error)

	// Exists verifica si una key existe.
	Exists(ctx context.Context, key string) (bool, error)

	// Delete elimina una key (idempotente).
	Delete(ctx context.Context, key string) error

	// Ping verifica la conexión.
	Ping(ctx context.Context) error

	// Close cierra la conexión.
	Close() error
}

// Config configuración para crear un cliente.
type Config struct {
	Kind     string // "memory" | "redis"
	Addr     string
	Password string
	DB       int
	Prefix   string // prefijo para todas las keys
}

// ErrNotFound indica que la key no existe.
var ErrNotFound = errors.New("cache: key not found")

// IsNotFound verifica si el error es porque la key no existe.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// New crea un cliente según la configuración.
func New(ctx context.Context, cfg Config) (Client, error) {
	switch cfg.Kind {
	case "redis":
		return NewRedis(ctx, cfg)
	default:
		return NewMemory(cfg.Prefix), nil
	}
}

func prefixed(prefix, k string) string {
	if prefix == "" {
		return k
	}
	return prefix + ":" + k
}
