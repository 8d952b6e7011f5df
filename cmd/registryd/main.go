// Command registryd runs the credit-line registry HTTP daemon.
package main

import (
	"net/http"
	"os"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	registry "github.com/cassiscash/registry"
)

func main() {
	cfg, err := registry.LoadConfig(".env")
	if err != nil {
		logrus.Fatalf("load config: %v", err)
	}

	var audit *registry.AuditStore
	if dsn := os.Getenv("AUDIT_DSN"); dsn != "" {
		audit, err = registry.OpenAuditStore(dsn)
		if err != nil {
			logrus.Fatalf("open audit store: %v", err)
		}
	}

	coord, err := registry.StartCoordinator(cfg.StorePath, cfg.SecretKey.Public(), audit)
	if err != nil {
		logrus.Fatalf("start coordinator: %v", err)
	}

	rc := &registryController{coord: coord}
	r := mux.NewRouter()
	registerRoutes(r, rc)

	addr := os.Getenv("REGISTRYD_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	logrus.Infof("registryd listening on %s", addr)
	if err := http.ListenAndServe(addr, r); err != nil {
		logrus.Fatalf("serve: %v", err)
	}
}
