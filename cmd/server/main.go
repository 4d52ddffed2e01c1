package main

import (
	"context"
	"log"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mesafacil/api/internal/config"
	"github.com/mesafacil/api/internal/database"
	"github.com/mesafacil/api/internal/notify"
	"github.com/mesafacil/api/internal/payment/mercadopago"
	"github.com/mesafacil/api/internal/router"
	"github.com/mesafacil/api/internal/session"
	"github.com/mesafacil/api/internal/ws"
)

func main() {
	cfg := config.Load()

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Unable to create connection pool: %v", err)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		log.Fatalf("Unable to ping database: %v", err)
	}
	log.Println("Connected to database")

	hub := ws.NewHub()
	go hub.Run()

	var notifier notify.Publisher
	if cfg.AMQPURL != "" {
		amqpPublisher, err := notify.NewAMQPPublisher(cfg.AMQPURL)
		if err != nil {
			log.Fatalf("Unable to connect to AMQP broker: %v", err)
		}
		defer amqpPublisher.Close()
		notifier = amqpPublisher
		log.Println("Connected to AMQP broker")
	} else {
		notifier = notify.NopPublisher{}
		log.Println("AMQP_URL not set, order confirmations will only be logged")
	}

	mercadopago.RegisterEntrypoint(mercadopago.NewRESTEntrypoint())

	sessions := session.NewStore()
	queries := database.New(pool)
	r := router.New(cfg, queries, pool, sessions, hub, notifier)

	log.Printf("Starting checkout server on :%s", cfg.Port)
	if err := http.ListenAndServe(":"+cfg.Port, r); err != nil {
		log.Fatal(err)
	}
}
