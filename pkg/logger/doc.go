// Package logger builds the service-wide *slog.Logger.
//
// New returns a JSON or text logger whose handler is wrapped by
// LogHandlerDecorator, so attributes stored in the context (request id,
// tenant id, profile id) are attached to every record logged with a
// *Context method:
//
//	log := logger.New(
//		logger.WithEnvironment(cfg.Env, "chatblast"),
//		logger.WithContextExtractors(requestid.LoggerExtractor()),
//	)
//	log.InfoContext(ctx, "session issued", logger.ProfileID(p.ID))
//
// Attribute helpers in attr.go keep key names consistent across packages.
package logger
