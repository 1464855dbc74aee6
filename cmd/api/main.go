// cmd/api/main.go
package main

import (
	"net/http"
	"net/http/httputil"
	"net/url"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/cors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	godotenv.Load()
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout})

	catalogURL, _ := url.Parse(getenv("CATALOG_SERVICE_URL", "http://localhost:8081"))
	reservationsURL, _ := url.Parse(getenv("RESERVATIONS_SERVICE_URL", "http://localhost:8082"))
	membersURL, _ := url.Parse(getenv("MEMBERS_SERVICE_URL", "http://localhost:8083"))

	mux := http.NewServeMux()
	mux.Handle("/api/v1/catalog/", http.StripPrefix("/api/v1/catalog", httputil.NewSingleHostReverseProxy(catalogURL)))
	mux.Handle("/api/v1/reservations/", http.StripPrefix("/api/v1/reservations", httputil.NewSingleHostReverseProxy(reservationsURL)))
	mux.Handle("/api/v1/members/", http.StripPrefix("/api/v1/members", httputil.NewSingleHostReverseProxy(membersURL)))

	handler := cors.New(cors.Options{
		AllowedOrigins: []string{getenv("CORS_ORIGIN", "*")},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete},
		AllowedHeaders: []string{"Content-Type", "X-Member-ID"},
	}).Handler(mux)

	port := getenv("PORT", "8080")
	log.Info().Str("port", port).Msg("API gateway listening")
	if err := http.ListenAndServe(":"+port, handler); err != nil {
		log.Fatal().Err(err).Msg("gateway stopped")
	}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
