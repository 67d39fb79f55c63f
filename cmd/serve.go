package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/terralab/landcover-cli/internal/config"
	"github.com/terralab/landcover-cli/internal/landcover"
	"github.com/terralab/landcover-cli/internal/legend"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the composition HTTP API",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           newRouter(cfg),
			ReadHeaderTimeout: 10 * time.Second,
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			srv.Shutdown(ctx) //nolint:errcheck
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

// newRouter builds the API routes. Separated from the command so handlers
// can be exercised with httptest.
func newRouter(cfg *config.Config) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Get("/v1/vintages", func(w http.ResponseWriter, _ *http.Request) {
		catalog, err := landcover.DiscoverVintages(cfg.Dataset.Root)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string][]int{"years": catalog.Years})
	})

	r.Get("/v1/legend", func(w http.ResponseWriter, req *http.Request) {
		level := 3
		if raw := req.URL.Query().Get("level"); raw != "" {
			var err error
			if level, err = strconv.Atoi(raw); err != nil {
				writeError(w, http.StatusBadRequest, eris.Errorf("invalid level %q", raw))
				return
			}
		}
		entries, err := legend.Entries(level)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		writeJSON(w, http.StatusOK, entries)
	})

	r.Post("/v1/compositions", func(w http.ResponseWriter, req *http.Request) {
		handleCompositions(cfg, w, req)
	})

	return r
}

type compositionRequest struct {
	Points []struct {
		PointID   string  `json:"point_id"`
		Longitude float64 `json:"longitude"`
		Latitude  float64 `json:"latitude"`
		Year      int     `json:"year"`
	} `json:"points"`
	RadiusMeters float64 `json:"radius_m"`
	Vintage      int     `json:"vintage"` // 0 selects per-point vintages
	Level        int     `json:"level"`   // 0 or 3 keeps full resolution
}

type compositionRow struct {
	PointID    string             `json:"point_id"`
	Vintage    int                `json:"vintage"`
	BufferArea float64            `json:"buffer_area"`
	Shares     map[string]float64 `json:"shares"`
}

type compositionResponse struct {
	Codes []string         `json:"codes"`
	Rows  []compositionRow `json:"rows"`
}

func handleCompositions(cfg *config.Config, w http.ResponseWriter, req *http.Request) {
	var body compositionRequest
	if err := json.NewDecoder(req.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, eris.Wrap(err, "invalid request body"))
		return
	}
	if len(body.Points) == 0 {
		writeError(w, http.StatusBadRequest, eris.New("points are required"))
		return
	}

	points := make([]landcover.Point, 0, len(body.Points))
	for _, p := range body.Points {
		points = append(points, landcover.Point{ID: p.PointID, Lon: p.Longitude, Lat: p.Latitude, Year: p.Year})
	}

	radius := body.RadiusMeters
	if radius == 0 {
		radius = cfg.Extract.RadiusMeters
	}

	catalog, err := landcover.DiscoverVintages(cfg.Dataset.Root)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	ext := landcover.NewExtractor(catalog, landcover.NewProjReprojector(), landcover.LoaderOptions{
		SRID:      cfg.Dataset.SRID,
		CodeField: cfg.Dataset.CodeField,
	}, cfg.Extract.MaxConcurrentVintages)

	table, err := ext.FullCompositions(req.Context(), points, landcover.ExtractOptions{
		RadiusMeters: radius,
		Segments:     cfg.Extract.Segments,
		PointsSRID:   cfg.Extract.PointsSRID,
		Vintage:      body.Vintage,
	})
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}

	if body.Level == 1 || body.Level == 2 {
		if table, err = landcover.AggregateToLevel(table, body.Level); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
	}

	resp := compositionResponse{Codes: table.Codes, Rows: make([]compositionRow, 0, len(table.Rows))}
	for _, row := range table.Rows {
		resp.Rows = append(resp.Rows, compositionRow{
			PointID:    row.PointID,
			Vintage:    row.Vintage,
			BufferArea: row.BufferArea,
			Shares:     row.Shares,
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func writeError(w http.ResponseWriter, status int, err error) {
	zap.L().Warn("request failed", zap.Int("status", status), zap.Error(err))
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
