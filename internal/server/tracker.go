package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"deadlock-tracker/internal/api"
	"deadlock-tracker/internal/config"
	"deadlock-tracker/internal/constants"
	"deadlock-tracker/internal/domain"
	"deadlock-tracker/internal/ranking"
	"deadlock-tracker/internal/refresh"
	"deadlock-tracker/internal/service"

	"github.com/rs/zerolog"
)

type TrackerServer struct {
	leaderboardSvc *service.LeaderboardService
	playerSvc      *service.PlayerService
	panels         *service.PanelRegistry
	logger         zerolog.Logger
	now            func() time.Time
}

func NewTrackerServer(
	leaderboardSvc *service.LeaderboardService,
	playerSvc *service.PlayerService,
	panels *service.PanelRegistry,
	logger zerolog.Logger,
) *TrackerServer {
	return &TrackerServer{
		leaderboardSvc: leaderboardSvc,
		playerSvc:      playerSvc,
		panels:         panels,
		logger:         logger,
		now:            time.Now,
	}
}

// Register mounts the JSON API on mux.
func (s *TrackerServer) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", s.health)
	mux.HandleFunc("GET /v1/heroes/leaderboard", s.entityLeaderboard(domain.EntityHero))
	mux.HandleFunc("GET /v1/items/leaderboard", s.entityLeaderboard(domain.EntityItem))
	mux.HandleFunc("GET /v1/heroes/overview", s.heroOverview)
	mux.HandleFunc("GET /v1/rank-distribution", s.rankDistribution)
	mux.HandleFunc("GET /v1/leaderboard/{region}", s.playerLeaderboard)
	mux.HandleFunc("GET /v1/players/search", s.searchPlayers)
	mux.HandleFunc("GET /v1/players/lookups", s.recentLookups)
	mux.HandleFunc("GET /v1/players/{accountId}", s.getPlayer)
	mux.HandleFunc("GET /v1/panels", s.listPanels)
	mux.HandleFunc("GET /v1/panels/{key}", s.getPanel)
	mux.HandleFunc("POST /v1/panels/{key}/filters", s.setPanelFilters)
	mux.HandleFunc("POST /v1/panels/{key}/refresh", s.refreshPanel)
}

// badRequest marks caller input errors.
type badRequest struct{ msg string }

func (e *badRequest) Error() string { return e.msg }

func invalid(format string, args ...any) error {
	return &badRequest{msg: fmt.Sprintf(format, args...)}
}

var errUnknownPanel = errors.New("unknown panel")

func (s *TrackerServer) log(r *http.Request) *zerolog.Logger {
	if l := zerolog.Ctx(r.Context()); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &s.logger
}

func (s *TrackerServer) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log(r).Warn().Err(err).Msg("failed to encode response")
	}
}

func (s *TrackerServer) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	msg := "internal error"

	var br *badRequest
	var te *api.TransportError
	switch {
	case errors.As(err, &br):
		status, msg = http.StatusBadRequest, br.msg
	case errors.Is(err, errUnknownPanel):
		status, msg = http.StatusNotFound, err.Error()
	case api.IsNotFound(err):
		status, msg = http.StatusNotFound, "not found"
	case errors.As(err, &te), api.IsValidation(err):
		status, msg = http.StatusBadGateway, "data unavailable"
	case errors.Is(err, context.DeadlineExceeded):
		status, msg = http.StatusGatewayTimeout, "upstream timeout"
	case errors.Is(err, refresh.ErrSessionClosed):
		status, msg = http.StatusServiceUnavailable, "shutting down"
	}

	event := s.log(r).Warn()
	if status >= http.StatusInternalServerError {
		event = s.log(r).Error()
	}
	event.Err(err).Int("status", status).Str("path", r.URL.Path).Msg("request failed")

	s.writeJSON(w, r, status, map[string]string{"error": msg})
}

func parseBound(q string, name string) (*int64, error) {
	if q == "" {
		return nil, nil
	}
	v, err := strconv.ParseInt(q, 10, 64)
	if err != nil {
		return nil, invalid("%s must be a unix timestamp", name)
	}
	return &v, nil
}

func filtersFromQuery(r *http.Request) (domain.DateRange, error) {
	q := r.URL.Query()
	var filters domain.DateRange
	var err error
	if filters.MinUnixTimestamp, err = parseBound(q.Get("min_unix_timestamp"), "min_unix_timestamp"); err != nil {
		return filters, err
	}
	if filters.MaxUnixTimestamp, err = parseBound(q.Get("max_unix_timestamp"), "max_unix_timestamp"); err != nil {
		return filters, err
	}
	return filters, validRange(filters)
}

func validRange(filters domain.DateRange) error {
	if filters.MinUnixTimestamp != nil && filters.MaxUnixTimestamp != nil &&
		*filters.MinUnixTimestamp > *filters.MaxUnixTimestamp {
		return invalid("min_unix_timestamp is after max_unix_timestamp")
	}
	return nil
}

func (s *TrackerServer) health(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *TrackerServer) entityLeaderboard(entity domain.EntityKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filters, err := filtersFromQuery(r)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		q := r.URL.Query()
		mode := ranking.ModeWinrate
		if raw := q.Get("mode"); raw != "" {
			if mode, err = ranking.ParseMode(raw); err != nil {
				s.writeError(w, r, invalid("%v", err))
				return
			}
		}
		limit := 0
		if raw := q.Get("limit"); raw != "" {
			if limit, err = strconv.Atoi(raw); err != nil || limit < 0 {
				s.writeError(w, r, invalid("limit must be a non-negative integer"))
				return
			}
		}

		def := config.PanelDefinition{Entity: string(entity), Mode: string(mode), Limit: limit}
		lb, err := s.leaderboardSvc.Fetch(r.Context(), def, filters)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		s.writeJSON(w, r, http.StatusOK, lb)
	}
}

func (s *TrackerServer) heroOverview(w http.ResponseWriter, r *http.Request) {
	filters, err := filtersFromQuery(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	rows, err := s.leaderboardSvc.HeroOverview(r.Context(), filters)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, map[string]any{"heroes": rows})
}

func (s *TrackerServer) rankDistribution(w http.ResponseWriter, r *http.Request) {
	filters, err := filtersFromQuery(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	buckets, err := s.leaderboardSvc.RankDistribution(r.Context(), filters)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, map[string]any{"buckets": buckets})
}

func (s *TrackerServer) playerLeaderboard(w http.ResponseWriter, r *http.Request) {
	region := strings.TrimSpace(r.PathValue("region"))
	if region == "" {
		region = constants.DefaultRegion
	}
	entries, err := s.playerSvc.PlayerLeaderboard(r.Context(), region)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, map[string]any{"region": region, "entries": entries})
}

func (s *TrackerServer) searchPlayers(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		s.writeJSON(w, r, http.StatusOK, map[string]any{"suggestions": []domain.PlayerSummary{}})
		return
	}
	players, err := s.playerSvc.SearchSuggestions(r.Context(), query)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if players == nil {
		players = []domain.PlayerSummary{}
	}
	s.writeJSON(w, r, http.StatusOK, map[string]any{"suggestions": players})
}

func (s *TrackerServer) recentLookups(w http.ResponseWriter, r *http.Request) {
	lookups, err := s.playerSvc.RecentLookups(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if lookups == nil {
		lookups = []domain.PlayerLookup{}
	}
	s.writeJSON(w, r, http.StatusOK, map[string]any{"lookups": lookups})
}

func (s *TrackerServer) getPlayer(w http.ResponseWriter, r *http.Request) {
	accountID, err := strconv.ParseInt(r.PathValue("accountId"), 10, 64)
	if err != nil || accountID <= 0 {
		s.writeError(w, r, invalid("account id must be a positive integer"))
		return
	}
	profile, err := s.playerSvc.Profile(r.Context(), accountID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, profile)
}

func (s *TrackerServer) session(key string) (*refresh.Session[*service.Leaderboard], error) {
	sess, ok := s.panels.Get(key)
	if !ok {
		return nil, fmt.Errorf("%w %q", errUnknownPanel, key)
	}
	return sess, nil
}

func (s *TrackerServer) listPanels(w http.ResponseWriter, r *http.Request) {
	now := s.now()
	defs := s.panels.Definitions()
	out := make([]map[string]any, 0, len(defs))
	for _, def := range defs {
		sess, _ := s.panels.Get(def.Key)
		out = append(out, map[string]any{"definition": def, "state": sess.Tick(now)})
	}
	s.writeJSON(w, r, http.StatusOK, map[string]any{"panels": out})
}

func (s *TrackerServer) getPanel(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(r.PathValue("key"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusOK, sess.Tick(s.now()))
}

func (s *TrackerServer) setPanelFilters(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(r.PathValue("key"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var filters domain.DateRange
	if err := json.NewDecoder(r.Body).Decode(&filters); err != nil {
		s.writeError(w, r, invalid("invalid filters body: %v", err))
		return
	}
	if err := validRange(filters); err != nil {
		s.writeError(w, r, err)
		return
	}
	changed, err := sess.SetFilters(filters)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.log(r).Info().Str("panel", sess.Key()).Str("filters", filters.Signature()).Bool("changed", changed).Msg("panel filters applied")
	s.writeJSON(w, r, http.StatusAccepted, map[string]any{"changed": changed, "state": sess.Tick(s.now())})
}

func (s *TrackerServer) refreshPanel(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(r.PathValue("key"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := sess.Refresh(); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.writeJSON(w, r, http.StatusAccepted, sess.Tick(s.now()))
}
