package main

import (
	"log"
	"os"
	"strconv"

	"github.com/container-make/sizer/cloud/api"
	"github.com/container-make/sizer/pkg/docker"
	"github.com/container-make/sizer/pkg/estimate"
)

func main() {
	port := 8080
	if v := os.Getenv("PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil {
			port = p
		}
	}

	config := api.Config{
		Port:           port,
		DatabaseDriver: getEnv("DB_DRIVER", "sqlite"),
		DatabaseURL:    getEnv("DATABASE_URL", ""),
	}

	source, err := docker.NewSource()
	if err != nil {
		log.Fatalf("Failed to connect to Docker: %v", err)
	}
	defer source.Close()

	server, err := api.NewServer(config, estimate.New(source))
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	log.Printf("Sizer control plane running on port %d", config.Port)
	log.Printf("Database: %s", config.DatabaseDriver)

	if err := server.Start(); err != nil {
		log.Fatal(err)
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
