package cli

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/spf13/cobra"

	"github.com/scorelift/scorelift/pkg/buildinfo"
	scoreerrors "github.com/scorelift/scorelift/pkg/errors"
	"github.com/scorelift/scorelift/pkg/musicxml"
	"github.com/scorelift/scorelift/pkg/pipeline"
	"github.com/scorelift/scorelift/pkg/runs"
	"github.com/scorelift/scorelift/pkg/score"
	"github.com/scorelift/scorelift/pkg/transpose"
)

// newServeCmd creates the serve command, a small HTTP API around the
// in-process core (combine/transpose) and the run store.
func newServeCmd() *cobra.Command {
	var (
		addr   string
		config string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the transposition API over HTTP",
		Long: `Serve the transposition API over HTTP.

Endpoints:
  GET  /healthz                     liveness and version
  POST /v1/transpose                transpose a MusicXML body
  GET  /v1/runs                     list recorded runs
  GET  /v1/runs/{id}                one run record

POST /v1/transpose reads a MusicXML score from the request body and
returns the transposed score. Parameters are query strings:
start_measure (default 20) and interval (default -m2).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := loggerFromContext(ctx)

			cfg, err := pipeline.LoadConfig(config)
			if err != nil {
				return err
			}
			store, err := newRunStore(ctx, cfg)
			if err != nil {
				logger.Warn("run store unavailable", "err", err)
			}
			if store != nil {
				defer store.Close()
			}

			srv := &http.Server{
				Addr:              addr,
				Handler:           newAPIRouter(store),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errCh := make(chan error, 1)
			go func() {
				logger.Info("serving", "addr", addr)
				errCh <- srv.ListenAndServe()
			}()

			select {
			case <-ctx.Done():
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = srv.Shutdown(shutdownCtx)
				return ctx.Err()
			case err := <-errCh:
				if errors.Is(err, http.ErrServerClosed) {
					return nil
				}
				return err
			}
		},
	}

	cmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	cmd.Flags().StringVar(&config, "config", "", "config file (default: scorelift.toml if present)")
	return cmd
}

// newAPIRouter builds the chi router. A nil store disables the runs
// endpoints with 404s rather than failing startup.
func newAPIRouter(store runs.Store) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"status":  "ok",
			"version": buildinfo.Version,
		})
	})

	r.Post("/v1/transpose", handleTranspose)

	if store != nil {
		r.Get("/v1/runs", func(w http.ResponseWriter, req *http.Request) {
			records, err := store.List(req.Context(), 50)
			if err != nil {
				writeError(w, http.StatusInternalServerError, err)
				return
			}
			writeJSON(w, http.StatusOK, records)
		})
		r.Get("/v1/runs/{id}", func(w http.ResponseWriter, req *http.Request) {
			rec, err := store.Get(req.Context(), chi.URLParam(req, "id"))
			if err != nil {
				status := http.StatusInternalServerError
				if errors.Is(err, runs.ErrNotFound) {
					status = http.StatusNotFound
				}
				writeError(w, status, err)
				return
			}
			writeJSON(w, http.StatusOK, rec)
		})
	}

	return r
}

// handleTranspose transposes a MusicXML request body in-process.
func handleTranspose(w http.ResponseWriter, req *http.Request) {
	start := pipeline.DefaultStartMeasure
	if v := req.URL.Query().Get("start_measure"); v != "" {
		n, err := parsePositiveInt(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		start = n
	}
	ivName := req.URL.Query().Get("interval")
	if ivName == "" {
		ivName = pipeline.DefaultInterval
	}
	iv, err := score.ParseInterval(ivName)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	s, err := musicxml.Decode(req.Body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if _, err := transpose.Section(s, start, iv, loggerFromContext(req.Context())); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.recordare.musicxml+xml")
	w.WriteHeader(http.StatusOK)
	_ = s.Encode(w)
}

func parsePositiveInt(s string) (int, error) {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, scoreerrors.New(scoreerrors.ErrCodeInvalidMeasure, "invalid measure number %q", s)
	}
	if err := scoreerrors.ValidateMeasureNumber(n); err != nil {
		return 0, err
	}
	return n, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{
		"error": scoreerrors.UserMessage(err),
		"code":  string(scoreerrors.GetCode(err)),
	})
}
