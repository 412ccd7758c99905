package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"starteritems.gg/internal/persistence/playerdb"
	"starteritems.gg/internal/sim/world"
	"starteritems.gg/internal/starter"
	"starteritems.gg/internal/transport/ws"
)

// playerStore is the read side of playerdb used by the admin endpoints.
type playerStore interface {
	Load(ctx context.Context, id string) (playerdb.Record, bool, error)
	List(ctx context.Context) ([]playerdb.Record, error)
	Grants(ctx context.Context, playerID string, limit int) ([]starter.GrantRecord, error)
}

func newRouter(w *world.World, db playerStore, logger *log.Logger) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		select {
		case <-w.Done():
			http.Error(rw, "world stopped", http.StatusServiceUnavailable)
			return
		default:
		}
		rw.WriteHeader(200)
		_, _ = rw.Write([]byte("ok"))
	}).Methods(http.MethodGet)
	r.HandleFunc("/metrics", metricsHandler(w)).Methods(http.MethodGet)
	r.HandleFunc("/v1/ws", ws.NewServer(w, logger).Handler())

	if envBool("SI_ENABLE_ADMIN_HTTP", defaultEnableAdminHTTP()) {
		// Local-only admin endpoints.
		admin := r.PathPrefix("/admin/v1").Subrouter()
		admin.Use(loopbackOnly)
		admin.HandleFunc("/state", func(rw http.ResponseWriter, r *http.Request) {
			writeJSON(rw, http.StatusOK, map[string]any{
				"world_id": w.Config().ID,
				"tick":     w.CurrentTick(),
				"metrics":  w.Metrics(),
			})
		}).Methods(http.MethodGet)
		admin.HandleFunc("/players", func(rw http.ResponseWriter, r *http.Request) {
			recs, err := db.List(r.Context())
			if err != nil {
				writeJSON(rw, http.StatusInternalServerError, map[string]any{"error": err.Error()})
				return
			}
			out := make([]playerSummary, 0, len(recs))
			for _, rec := range recs {
				out = append(out, summarize(rec))
			}
			writeJSON(rw, http.StatusOK, out)
		}).Methods(http.MethodGet)
		admin.HandleFunc("/players/{id}", func(rw http.ResponseWriter, r *http.Request) {
			id := mux.Vars(r)["id"]
			limit := 50
			if v := r.URL.Query().Get("grants"); v != "" {
				n, err := strconv.Atoi(v)
				if err != nil || n < 0 {
					writeJSON(rw, http.StatusBadRequest, map[string]any{"error": "bad grants limit"})
					return
				}
				limit = n
			}
			rec, ok, err := db.Load(r.Context(), id)
			if err != nil {
				writeJSON(rw, http.StatusInternalServerError, map[string]any{"error": err.Error()})
				return
			}
			if !ok {
				writeJSON(rw, http.StatusNotFound, map[string]any{"error": "unknown player"})
				return
			}
			grants, err := db.Grants(r.Context(), id, limit)
			if err != nil {
				writeJSON(rw, http.StatusInternalServerError, map[string]any{"error": err.Error()})
				return
			}
			writeJSON(rw, http.StatusOK, struct {
				Player playerdb.Record       `json:"player"`
				Joined bool                  `json:"joined"`
				Grants []starter.GrantRecord `json:"grants"`
			}{rec, rec.HasTag(starter.JoinedTag), grants})
		}).Methods(http.MethodGet)
	} else {
		logger.Printf("admin endpoints disabled (SI_ENABLE_ADMIN_HTTP=false)")
	}
	return r
}

func metricsHandler(w *world.World) http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "text/plain; version=0.0.4")

		m := w.Metrics()
		id := w.Config().ID
		tick := w.CurrentTick()
		if m.Tick != 0 {
			tick = m.Tick
		}

		// Minimal Prometheus exposition format.
		fmt.Fprintf(rw, "# HELP starteritems_world_tick Current world tick.\n")
		fmt.Fprintf(rw, "# TYPE starteritems_world_tick gauge\n")
		fmt.Fprintf(rw, "starteritems_world_tick{world=%q} %d\n", id, tick)

		fmt.Fprintf(rw, "# HELP starteritems_world_players Players currently online.\n")
		fmt.Fprintf(rw, "# TYPE starteritems_world_players gauge\n")
		fmt.Fprintf(rw, "starteritems_world_players{world=%q} %d\n", id, m.Players)

		fmt.Fprintf(rw, "# HELP starteritems_world_sessions Open login sessions.\n")
		fmt.Fprintf(rw, "# TYPE starteritems_world_sessions gauge\n")
		fmt.Fprintf(rw, "starteritems_world_sessions{world=%q} %d\n", id, m.Sessions)

		fmt.Fprintf(rw, "# HELP starteritems_world_item_entities Dropped item entities in the world.\n")
		fmt.Fprintf(rw, "# TYPE starteritems_world_item_entities gauge\n")
		fmt.Fprintf(rw, "starteritems_world_item_entities{world=%q} %d\n", id, m.ItemEntities)

		fmt.Fprintf(rw, "# HELP starteritems_world_queue_depth Channel backlog depth.\n")
		fmt.Fprintf(rw, "# TYPE starteritems_world_queue_depth gauge\n")
		fmt.Fprintf(rw, "starteritems_world_queue_depth{world=%q,queue=%q} %d\n", id, "inbox", m.QueueDepths.Inbox)
		fmt.Fprintf(rw, "starteritems_world_queue_depth{world=%q,queue=%q} %d\n", id, "join", m.QueueDepths.Join)
		fmt.Fprintf(rw, "starteritems_world_queue_depth{world=%q,queue=%q} %d\n", id, "leave", m.QueueDepths.Leave)
		fmt.Fprintf(rw, "starteritems_world_queue_depth{world=%q,queue=%q} %d\n", id, "commands", m.QueueDepths.Commands)

		fmt.Fprintf(rw, "# HELP starteritems_world_step_ms Last tick step duration in milliseconds.\n")
		fmt.Fprintf(rw, "# TYPE starteritems_world_step_ms gauge\n")
		fmt.Fprintf(rw, "starteritems_world_step_ms{world=%q} %.3f\n", id, m.StepMS)

		fmt.Fprintf(rw, "# HELP starteritems_world_dropped_messages_total Outbound messages dropped on full client queues.\n")
		fmt.Fprintf(rw, "# TYPE starteritems_world_dropped_messages_total counter\n")
		fmt.Fprintf(rw, "starteritems_world_dropped_messages_total{world=%q} %d\n", id, m.DroppedMessages)

		fmt.Fprintf(rw, "# HELP starteritems_player_saves_total Player saves by result.\n")
		fmt.Fprintf(rw, "# TYPE starteritems_player_saves_total counter\n")
		fmt.Fprintf(rw, "starteritems_player_saves_total{world=%q,result=%q} %d\n", id, "ok", m.Saves)
		fmt.Fprintf(rw, "starteritems_player_saves_total{world=%q,result=%q} %d\n", id, "error", m.SaveErrors)
	}
}

type playerSummary struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Dimension string    `json:"dimension"`
	Joined    bool      `json:"joined"`
	Slots     int       `json:"slots"`
	UpdatedAt time.Time `json:"updated_at"`
}

func summarize(rec playerdb.Record) playerSummary {
	return playerSummary{
		ID:        rec.ID,
		Name:      rec.Name,
		Dimension: rec.Dimension,
		Joined:    rec.HasTag(starter.JoinedTag),
		Slots:     len(rec.Inventory),
		UpdatedAt: rec.UpdatedAt,
	}
}

func writeJSON(rw http.ResponseWriter, status int, v any) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(status)
	_ = json.NewEncoder(rw).Encode(v)
}

func loopbackOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		if !isLoopbackRemote(r.RemoteAddr) {
			http.Error(rw, "forbidden", http.StatusForbidden)
			return
		}
		next.ServeHTTP(rw, r)
	})
}

func isLoopbackRemote(remoteAddr string) bool {
	host := remoteAddr
	if h, _, err := net.SplitHostPort(remoteAddr); err == nil {
		host = h
	}
	host = strings.TrimPrefix(host, "[")
	host = strings.TrimSuffix(host, "]")
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

func defaultEnableAdminHTTP() bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("DEPLOY_ENV"))) {
	case "staging", "production":
		return false
	default:
		return true
	}
}
