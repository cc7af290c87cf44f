package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/mattn/go-isatty"
	"go.uber.org/zap"

	"github.com/S0me0neR0man/clinicstash/internal/clinic"
	"github.com/S0me0neR0man/clinicstash/internal/config"
)

func main() {
	cfg, err := config.NewConfig(os.Args[1:])
	if err != nil {
		log.Fatal(err)
	}

	var logger *zap.Logger
	if cfg.Debug {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = logger.Sync() }()
	sugar := logger.Sugar()

	c, err := clinic.Open(cfg, logger)
	if err != nil {
		sugar.Fatalw("open clinic", "error", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)
	defer stop()

	sh := newShell(c, os.Stdout, logger)
	sh.prompt = isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
	sh.run(ctx, os.Stdin)

	if err := c.Save(); err != nil {
		sugar.Errorw("save on exit", "error", err)
		return
	}
	sugar.Infow("clinic saved", "doctors", c.Doctors().Len(), "appointments", c.Appointments().Len())
}
