package main

import (
	"log"

	"github.com/kataras/iris/v12"

	"github.com/Miorish-Tech-Team/Backend/internal/config"
	applog "github.com/Miorish-Tech-Team/Backend/internal/log"
	"github.com/Miorish-Tech-Team/Backend/internal/server"
)

func main() {
	cfg, err := config.Load(".")
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	applog.InitLogger()

	app := iris.New()
	server.RegisterRoutes(app, cfg)

	addr := cfg.Server.Addr()
	log.Printf("web server listening on %s", addr)
	if err := app.Run(iris.Addr(addr)); err != nil {
		log.Fatalf("failed to run web server: %v", err)
	}
}
