package main

import (
	"log"
	"net/http"

	"github.com/joho/godotenv"

	"github.com/stackarena/stackarena-backend/config"
	"github.com/stackarena/stackarena-backend/game"
	"github.com/stackarena/stackarena-backend/handlers"
	"github.com/stackarena/stackarena-backend/repository"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file loaded:", err)
	}

	cfg := config.LoadConfig()
	repository.ConnectToPostgreSQL(cfg)
	repository.ConnectMongoDB(cfg)

	store := repository.NewGameStore()
	coordinator := game.NewCoordinator(store, game.Config{
		NimStartObjects: cfg.NimStartObjects,
		MoveTimeout:     cfg.MoveTimeout,
	})

	r := handlers.NewRouter(coordinator, store)

	log.Println("Server running on http://localhost:" + cfg.Port)
	log.Fatal(http.ListenAndServe(":"+cfg.Port, r))
}
