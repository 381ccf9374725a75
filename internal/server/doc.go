// Package server provides the HTTP server of the asset agent.
//
// The server is a plain gin engine with two middlewares from gin-contrib/zap:
// request logging (ginzap.Ginzap) and panic recovery (ginzap.RecoveryWithZap),
// both writing to the "http" named logger.
//
// Routes:
//
//	/metrics   prometheus exposition (promhttp)
//	/api/v1/*  registered by the caller through registerHandlerFn
//
// Unknown routes answer 404 with a JSON error body.
//
// In "prod" server mode gin runs in release mode, otherwise in debug mode.
//
//	srv := server.NewServer(cfg, func(router *gin.RouterGroup) {
//	    handlers.RegisterHandlers(router, h)
//	})
//	go func() { _ = srv.Start(ctx) }()
//	<-ctx.Done()
//	srv.Stop(context.Background())
package server
