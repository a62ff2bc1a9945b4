package logger

import (
	"strings"
	"time"

	"go.uber.org/zap"
)

// ─── HTTP ───

func RequestID(v string) zap.Field { return zap.String("request_id", v) }
func Method(v string) zap.Field    { return zap.String("method", v) }
func Path(v string) zap.Field      { return zap.String("path", v) }
func Status(v int) zap.Field       { return zap.Int("status", v) }
func ClientIP(v string) zap.Field  { return zap.String("client_ip", v) }

func DurationMs(v time.Duration) zap.Field {
	return zap.Int64("duration_ms", v.Milliseconds())
}

// ─── Auth ───

// UserID crea un campo para el ID de la identidad.
func UserID(v string) zap.Field { return zap.String("user_id", v) }

// JTI crea un campo para el id del token.
func JTI(v string) zap.Field { return zap.String("jti", v) }

// Strategy crea un campo para la estrategia de autenticación (bearer|local).
func Strategy(v string) zap.Field { return zap.String("strategy", v) }

// Reason crea un campo para el motivo de rechazo.
func Reason(v string) zap.Field { return zap.String("reason", v) }

// Email crea un campo con el email enmascarado (a…@e….com).
func Email(v string) zap.Field { return zap.String("email", MaskEmail(v)) }

// ─── Sistema ───

func Component(v string) zap.Field { return zap.String("component", v) }
func Op(v string) zap.Field        { return zap.String("op", v) }
func Layer(v string) zap.Field     { return zap.String("layer", v) }
func Err(err error) zap.Field      { return zap.Error(err) }

func String(key, v string) zap.Field   { return zap.String(key, v) }
func Int(key string, v int) zap.Field   { return zap.Int(key, v) }
func Bool(key string, v bool) zap.Field { return zap.Bool(key, v) }
func Any(key string, v any) zap.Field   { return zap.Any(key, v) }

// MaskEmail deja visible solo la primera letra del usuario y del dominio.
func MaskEmail(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	i := strings.IndexByte(s, '@')
	if i <= 0 {
		if s == "" {
			return ""
		}
		if len(s) <= 3 {
			return "***"
		}
		return s[:1] + "…" + s[len(s)-1:]
	}
	user, dom := s[:i], s[i+1:]
	if len(user) > 1 {
		user = user[:1] + "…"
	}
	dparts := strings.Split(dom, ".")
	if len(dparts) > 0 && len(dparts[0]) > 1 {
		dparts[0] = dparts[0][:1] + "…"
	}
	return user + "@" + strings.Join(dparts, ".")
}
