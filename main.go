package main

import (
	"context"
	"fmt"

	"bitwise74/contacts-api/app"
	"bitwise74/contacts-api/config"
	"bitwise74/contacts-api/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	gin.SetMode(gin.ReleaseMode)

	cfg, err := config.Setup()
	if err != nil {
		panic(err)
	}

	if err := logger.Setup(cfg.App.LogLevel); err != nil {
		panic(err)
	}
	defer func() { _ = zap.L().Sync() }()

	router, err := app.NewRouter(context.Background(), cfg)
	if err != nil {
		zap.L().Fatal("Failed to build router", zap.Error(err))
	}

	zap.L().Info("Server starting", zap.Int("port", cfg.Host.Port))

	if err := router.Run(fmt.Sprintf(":%d", cfg.Host.Port)); err != nil {
		zap.L().Fatal("Server stopped", zap.Error(err))
	}
}
