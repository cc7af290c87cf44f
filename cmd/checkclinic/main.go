// checkclinic compares the saved index files of every collection with the
// data files they describe. It exits with status 1 when any collection differs.
package main

import (
	"fmt"
	"log"
	"os"

	"go.uber.org/zap"

	"github.com/S0me0neR0man/clinicstash/internal/clinic"
	"github.com/S0me0neR0man/clinicstash/internal/config"
)

func main() {
	cfg, err := config.NewConfig(os.Args[1:])
	if err != nil {
		log.Fatal(err)
	}
	// verification reads the files itself
	cfg.Restore = false

	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = logger.Sync() }()

	c, err := clinic.Open(cfg, logger)
	if err != nil {
		logger.Sugar().Fatalw("open clinic", "error", err)
	}

	failed := false
	for _, s := range c.Stashes() {
		r, err := s.Verify()
		if err != nil {
			logger.Sugar().Errorw("verify", "stash", s.Name(), "error", err)
			failed = true
			continue
		}
		fmt.Println(r)
		failed = failed || !r.OK()
	}
	if failed {
		os.Exit(1)
	}
}
