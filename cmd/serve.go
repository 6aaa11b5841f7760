package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/afb-group/contractor-cli/internal/model"
	"github.com/afb-group/contractor-cli/internal/store"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the review and webhook server",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initPipeline(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		enqueue := func(c model.Contractor) {
			go func() {
				if err := env.Processor.Process(ctx, c); err != nil {
					zap.L().Error("webhook enrichment failed",
						zap.Int64("contractor_id", c.ID),
						zap.Error(err))
				}
			}()
		}
		router := newRouter(env.Store, cfg.Server.AllowedOrigins, enqueue)

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}
		srv := &http.Server{
			Addr:    fmt.Sprintf(":%d", port),
			Handler: router,
		}

		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			_ = srv.Shutdown(context.Background())
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}

// newRouter builds the HTTP API. enqueue schedules asynchronous enrichment
// for webhook requests.
func newRouter(st store.Store, allowedOrigins []string, enqueue func(model.Contractor)) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Get("/stats", func(w http.ResponseWriter, req *http.Request) {
		stats, err := st.Stats(req.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, stats)
	})

	r.Post("/webhook/enrich", func(w http.ResponseWriter, req *http.Request) {
		var body struct {
			ContractorID int64 `json:"contractor_id"`
		}
		if err := json.NewDecoder(req.Body).Decode(&body); err != nil || body.ContractorID == 0 {
			writeError(w, http.StatusBadRequest, eris.New("contractor_id is required"))
			return
		}

		c, err := st.GetContractor(req.Context(), body.ContractorID)
		if err != nil {
			writeError(w, http.StatusNotFound, err)
			return
		}

		enqueue(*c)
		writeJSON(w, http.StatusAccepted, map[string]any{
			"status":        "accepted",
			"contractor_id": c.ID,
		})
	})

	r.Get("/contractors", func(w http.ResponseWriter, req *http.Request) {
		q := req.URL.Query()
		filter := store.ListFilter{
			ProcessingStatus: model.ProcessingStatus(q.Get("processing_status")),
			ReviewStatus:     model.ReviewStatus(q.Get("review_status")),
			City:             q.Get("city"),
		}
		filter.Limit, _ = strconv.Atoi(q.Get("limit"))
		filter.Offset, _ = strconv.Atoi(q.Get("offset"))

		contractors, err := st.ListContractors(req.Context(), filter)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"contractors": contractors,
			"count":       len(contractors),
		})
	})

	r.Get("/contractors/{id}", func(w http.ResponseWriter, req *http.Request) {
		id, err := strconv.ParseInt(chi.URLParam(req, "id"), 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, eris.New("invalid contractor id"))
			return
		}
		c, err := st.GetContractor(req.Context(), id)
		if err != nil {
			writeError(w, http.StatusNotFound, err)
			return
		}
		writeJSON(w, http.StatusOK, c)
	})

	r.Post("/contractors/{id}/review", func(w http.ResponseWriter, req *http.Request) {
		id, err := strconv.ParseInt(chi.URLParam(req, "id"), 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, eris.New("invalid contractor id"))
			return
		}

		var upd store.ReviewUpdate
		if err := json.NewDecoder(req.Body).Decode(&upd); err != nil {
			writeError(w, http.StatusBadRequest, eris.New("invalid request body"))
			return
		}
		switch upd.Status {
		case model.ReviewStatusApprovedDownload, model.ReviewStatusPendingReview, model.ReviewStatusRejected:
		default:
			writeError(w, http.StatusBadRequest, eris.Errorf("invalid review status %q", upd.Status))
			return
		}

		if err := st.ApplyReview(req.Context(), id, upd); err != nil {
			writeError(w, http.StatusNotFound, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"id": id, "review_status": upd.Status})
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
