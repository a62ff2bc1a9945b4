// Package logger expone un logger Zap singleton con scoping por contexto.
//
// Inicialización (una vez en main.go):
//
//	logger.Init(logger.Config{Env: cfg.App.Env, Level: cfg.Log.Level})
//	defer logger.Sync()
//
// En strategies/controllers:
//
//	log := logger.From(ctx).With(logger.Component("auth.local"), logger.Op("Authenticate"))
//	log.Info("login rejected", logger.Reason("INVALID_CREDENTIALS"), logger.Email(email))
//
// Los emails nunca se loguean en claro: Email() los enmascara.
package logger
