// Package http implements the REST surface from spec.md §6 — the "thin
// external glue" spec.md §1 explicitly scopes out of the core engine, kept
// thin here too. Grounded on the teacher's api/server.go nearly verbatim
// in shape: one *mux.Router, one small handler per route, a shared
// respondJSON/respondError pair — but every handler here runs its
// game-touching work inside the game strand (spec.md §5) instead of
// behind the teacher's per-session manager mutex, and method mismatches
// are checked by hand (per spec.md §9's refactor note: the per-request
// template handlers become a table of small handlers, dispatch keyed by
// path) so each one can report its own Allow header.
package http

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/nkazantsev/streetdogs/game/app"
	"github.com/nkazantsev/streetdogs/game/model"
	"github.com/nkazantsev/streetdogs/game/session"
	"github.com/nkazantsev/streetdogs/store"
)

// GameApp is the slice of *app.Application the REST surface calls. Kept
// as an interface, the way the teacher's api.Server depends on
// service.GameService rather than a concrete struct, so handlers can be
// tested against a fake.
type GameApp interface {
	ListMaps() []app.MapSummary
	Map(id string) (*model.Map, bool)
	Join(mapID, userName string) (token string, playerID uint64, err error)
	ListPlayers(token string) (map[uint64]string, error)
	State(token string) (*app.StateSnapshot, error)
	Move(token string, dir model.Direction) error
	Stop(token string) error
	Tick(deltaMs float64)
}

// LeaderboardSource answers the retired-player records query (C9).
type LeaderboardSource interface {
	Records(start, maxItems int) ([]store.Record, error)
}

const maxRecordsPerPage = 100

// WSHub is the slice of *websocket.Hub the REST server needs to upgrade
// a connection. Optional — a nil hub makes /ws answer 404, the way the
// rest of the REST surface behaves with no such endpoint configured.
type WSHub interface {
	ServeWS(w http.ResponseWriter, r *http.Request, token string)
}

// Server is the REST API surface. Every method that touches game state
// posts its work to strand so it never races the tick loop, per spec.md
// §5's "API operations observe only states that are quiescent between
// ticks."
type Server struct {
	app             GameApp
	strand          *session.Strand
	records         LeaderboardSource
	autoTickEnabled bool
	wwwRoot         string
	hub             WSHub

	router *mux.Router
}

// New builds a Server. autoTickEnabled disables the manual POST
// /api/v1/game/tick endpoint (spec.md §6) when a --tick-period flag
// drives ticks automatically.
func New(a GameApp, strand *session.Strand, records LeaderboardSource, autoTickEnabled bool, wwwRoot string) *Server {
	s := &Server{
		app:             a,
		strand:          strand,
		records:         records,
		autoTickEnabled: autoTickEnabled,
		wwwRoot:         wwwRoot,
		router:          mux.NewRouter(),
	}
	s.setupRoutes()
	return s
}

// SetHub wires the optional WebSocket push transport (SPEC_FULL.md's
// real-time push expansion). Call it before serving the first request.
func (s *Server) SetHub(hub WSHub) {
	s.hub = hub
}

func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/v1/maps", s.handleMaps)
	api.HandleFunc("/v1/maps/{id}", s.handleMapByID)
	api.HandleFunc("/v1/game/join", s.handleJoin)
	api.HandleFunc("/v1/game/players", s.handlePlayers)
	api.HandleFunc("/v1/game/state", s.handleState)
	api.HandleFunc("/v1/game/player/action", s.handleAction)
	api.HandleFunc("/v1/game/tick", s.handleTick)
	api.HandleFunc("/v1/game/records", s.handleRecords)
	api.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, badRequest, "unknown API endpoint")
	})

	s.router.HandleFunc("/ws", s.handleWebSocket)
	s.router.PathPrefix("/").HandlerFunc(s.handleStatic)
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	if s.hub == nil {
		respondError(w, fileNotFound, "websocket push not configured")
		return
	}
	token, ok := validTokenShape(r.URL.Query().Get("token"))
	if !ok {
		respondError(w, invalidToken, "missing or malformed token query parameter")
		return
	}
	s.hub.ServeWS(w, r, token)
}

// ServeHTTP implements http.Handler with a compact per-request log line,
// matching the teacher's one-line-per-call style in api/server.go. Each
// request gets a random correlation ID echoed in the log line and in the
// X-Request-Id response header, so a single slow or erroring call can be
// traced through logs without scraping by timestamp alone.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	reqID := uuid.New().String()
	lw := &loggingWriter{ResponseWriter: w, status: http.StatusOK}
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Request-Id", reqID)
	s.router.ServeHTTP(lw, r)
	log.Printf("%s %s %d %s %s", reqID, r.Method, r.URL.Path, lw.status, time.Since(start))
}

type loggingWriter struct {
	http.ResponseWriter
	status int
}

func (w *loggingWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// requireMethod reports whether r.Method is one of allowed; if not, it
// writes an invalidMethod response with the Allow header spec.md §6
// requires and returns false.
func requireMethod(w http.ResponseWriter, r *http.Request, allowed ...string) bool {
	for _, m := range allowed {
		if r.Method == m {
			return true
		}
	}
	w.Header().Set("Allow", strings.Join(allowed, ", "))
	respondError(w, invalidMethod, fmt.Sprintf("method %s not allowed", r.Method))
	return false
}

func respondJSON(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if r.Method == http.MethodHead {
		return
	}
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, kind errorKind, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusFor(kind))
	json.NewEncoder(w).Encode(apiError{Code: kind, Message: message})
}

// requireJSONContentType rejects a POST body whose declared content type
// is not application/json, per SPEC_FULL.md's supplemented validation
// feature (original_source/ sprint4's pre-decode type check).
func requireJSONContentType(w http.ResponseWriter, r *http.Request) bool {
	ct := r.Header.Get("Content-Type")
	if ct != "" && !strings.HasPrefix(ct, "application/json") {
		respondError(w, invalidArg, "Content-Type must be application/json")
		return false
	}
	return true
}

// bearerToken extracts and shape-validates the Authorization header.
// Well-formedness only — whether the token actually resolves to a live
// player is checked by the app.GameApp call that follows.
func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(h, prefix) {
		return "", false
	}
	return validTokenShape(strings.TrimPrefix(h, prefix))
}

// validTokenShape reports whether token is 32 lowercase hex characters —
// the wire shape from spec.md §3, checked before ever asking the
// registry whether it resolves to a live player.
func validTokenShape(token string) (string, bool) {
	if len(token) != 32 {
		return "", false
	}
	for _, c := range token {
		if !isLowerHex(c) {
			return "", false
		}
	}
	return token, true
}

func isLowerHex(c rune) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f')
}

// --- Map handlers ---

type mapSummaryResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func (s *Server) handleMaps(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet, http.MethodHead) {
		return
	}
	summaries := s.app.ListMaps()
	sort.Slice(summaries, func(i, j int) bool { return summaries[i].ID < summaries[j].ID })

	out := make([]mapSummaryResponse, 0, len(summaries))
	for _, m := range summaries {
		out = append(out, mapSummaryResponse{ID: m.ID, Name: m.Name})
	}
	respondJSON(w, r, http.StatusOK, out)
}

func (s *Server) handleMapByID(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet, http.MethodHead) {
		return
	}
	id := mux.Vars(r)["id"]
	m, ok := s.app.Map(id)
	if !ok {
		respondError(w, mapNotFound, fmt.Sprintf("map %q not found", id))
		return
	}
	respondJSON(w, r, http.StatusOK, mapResponseFrom(m))
}

// --- Join ---

type joinRequest struct {
	UserName string `json:"userName"`
	MapID    string `json:"mapId"`
}

type joinResponse struct {
	AuthToken string `json:"authToken"`
	PlayerID  uint64 `json:"playerId"`
}

func (s *Server) handleJoin(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	if !requireJSONContentType(w, r) {
		return
	}

	var req joinRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, invalidArg, "malformed JSON body")
		return
	}
	if req.UserName == "" {
		respondError(w, invalidArg, "userName must not be empty")
		return
	}
	if _, ok := s.app.Map(req.MapID); !ok {
		respondError(w, mapNotFound, fmt.Sprintf("map %q not found", req.MapID))
		return
	}

	var (
		token    string
		playerID uint64
		err      error
	)
	s.strand.Do(func() {
		token, playerID, err = s.app.Join(req.MapID, req.UserName)
	})
	if err != nil {
		respondError(w, invalidArg, err.Error())
		return
	}
	respondJSON(w, r, http.StatusOK, joinResponse{AuthToken: token, PlayerID: playerID})
}

// --- Players ---

func (s *Server) handlePlayers(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet, http.MethodHead) {
		return
	}
	token, ok := bearerToken(r)
	if !ok {
		respondError(w, invalidToken, "missing or malformed bearer token")
		return
	}

	var (
		names map[uint64]string
		err   error
	)
	s.strand.Do(func() {
		names, err = s.app.ListPlayers(token)
	})
	if err != nil {
		respondError(w, unknownToken, "token not registered")
		return
	}

	out := make(map[string][]string, len(names))
	for id, name := range names {
		out[strconv.FormatUint(id, 10)] = []string{"name", name}
	}
	respondJSON(w, r, http.StatusOK, out)
}

// --- State ---

type playerStateResponse struct {
	Pos   [2]float64    `json:"pos"`
	Speed [2]float64    `json:"speed"`
	Dir   string        `json:"dir"`
	Bag   []model.Item  `json:"bag"`
	Score uint64        `json:"score"`
}

type stateResponse struct {
	Players     map[string]playerStateResponse `json:"players"`
	LostObjects map[string]lostObjectResponse   `json:"lostObjects"`
}

type lostObjectResponse struct {
	Type uint32     `json:"type"`
	Pos  [2]float64 `json:"pos"`
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet, http.MethodHead) {
		return
	}
	token, ok := bearerToken(r)
	if !ok {
		respondError(w, invalidToken, "missing or malformed bearer token")
		return
	}

	var (
		snap *app.StateSnapshot
		err  error
	)
	s.strand.Do(func() {
		snap, err = s.app.State(token)
	})
	if err != nil {
		respondError(w, unknownToken, "token not registered")
		return
	}

	resp := stateResponse{
		Players:     make(map[string]playerStateResponse, len(snap.Players)),
		LostObjects: make(map[string]lostObjectResponse, len(snap.LostObjects)),
	}
	for id, p := range snap.Players {
		resp.Players[strconv.FormatUint(id, 10)] = playerStateResponse{
			Pos:   [2]float64{p.Position.X, p.Position.Y},
			Speed: [2]float64{p.Speed.X, p.Speed.Y},
			Dir:   string(p.Direction),
			Bag:   p.Bag,
			Score: p.Score,
		}
	}
	for _, item := range snap.LostObjects {
		resp.LostObjects[strconv.FormatUint(item.ID, 10)] = lostObjectResponse{
			Type: item.Type,
			Pos:  [2]float64{item.Position.X, item.Position.Y},
		}
	}
	respondJSON(w, r, http.StatusOK, resp)
}

// --- Player action (move/stop) ---

type actionRequest struct {
	Move string `json:"move"`
}

func (s *Server) handleAction(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	token, ok := bearerToken(r)
	if !ok {
		respondError(w, invalidToken, "missing or malformed bearer token")
		return
	}
	if !requireJSONContentType(w, r) {
		return
	}

	var req actionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, invalidArg, "malformed JSON body")
		return
	}

	var err error
	if req.Move == "" {
		s.strand.Do(func() { err = s.app.Stop(token) })
	} else {
		dir, ok := model.ParseDirection(req.Move)
		if !ok {
			respondError(w, invalidArg, fmt.Sprintf("invalid move code %q", req.Move))
			return
		}
		s.strand.Do(func() { err = s.app.Move(token, dir) })
	}
	if err != nil {
		respondError(w, unknownToken, "token not registered")
		return
	}
	respondJSON(w, r, http.StatusOK, map[string]any{})
}

// --- Manual tick ---

type tickRequest struct {
	TimeDelta int64 `json:"timeDelta"`
}

func (s *Server) handleTick(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodPost) {
		return
	}
	if s.autoTickEnabled {
		respondError(w, badRequest, "manual tick disabled: server runs an automatic tick loop")
		return
	}
	if !requireJSONContentType(w, r) {
		return
	}

	var req tickRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, invalidArg, "malformed JSON body")
		return
	}
	if req.TimeDelta <= 0 {
		respondError(w, invalidArg, "timeDelta must be > 0")
		return
	}

	s.strand.Do(func() {
		s.app.Tick(float64(req.TimeDelta))
	})
	respondJSON(w, r, http.StatusOK, map[string]any{})
}

// --- Leaderboard records ---

func (s *Server) handleRecords(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet, http.MethodHead) {
		return
	}

	query := r.URL.Query()
	start := 0
	if v := query.Get("start"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			respondError(w, invalidArg, "start must be a non-negative integer")
			return
		}
		start = n
	}

	maxItems := maxRecordsPerPage
	if v := query.Get("maxItems"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			respondError(w, invalidArg, "maxItems must be a positive integer")
			return
		}
		maxItems = n
	}
	if maxItems > maxRecordsPerPage {
		maxItems = maxRecordsPerPage
	}

	records, err := s.records.Records(start, maxItems)
	if err != nil {
		respondError(w, badRequest, "failed to read leaderboard")
		return
	}

	type recordResponse struct {
		Name     string  `json:"name"`
		Score    uint64  `json:"score"`
		Playtime float64 `json:"playTime"`
	}
	out := make([]recordResponse, 0, len(records))
	for _, rec := range records {
		out = append(out, recordResponse{Name: rec.Name, Score: rec.Score, Playtime: rec.Playtime})
	}
	respondJSON(w, r, http.StatusOK, out)
}

// --- Static files ---

// handleStatic serves files from wwwRoot, rejecting any request whose
// cleaned path escapes the root (spec.md §6's path-traversal guard,
// supplemented from original_source/'s request_handler per SPEC_FULL.md).
func (s *Server) handleStatic(w http.ResponseWriter, r *http.Request) {
	if !requireMethod(w, r, http.MethodGet, http.MethodHead) {
		return
	}

	reqPath := r.URL.Path
	if reqPath == "/" {
		reqPath = "/index.html"
	}

	cleaned := filepath.Clean(reqPath)
	if strings.HasPrefix(cleaned, "..") || strings.Contains(cleaned, string(filepath.Separator)+"..") {
		respondError(w, badRequest, "path escapes static root")
		return
	}

	fullPath := filepath.Join(s.wwwRoot, cleaned)
	rel, err := filepath.Rel(s.wwwRoot, fullPath)
	if err != nil || strings.HasPrefix(rel, "..") {
		respondError(w, badRequest, "path escapes static root")
		return
	}

	info, err := os.Stat(fullPath)
	if err != nil || info.IsDir() {
		respondError(w, fileNotFound, fmt.Sprintf("%s not found", reqPath))
		return
	}

	if r.Method == http.MethodHead {
		w.Header().Set("Content-Type", contentTypeFor(fullPath))
		w.WriteHeader(http.StatusOK)
		return
	}
	http.ServeFile(w, r, fullPath)
}

func contentTypeFor(path string) string {
	switch filepath.Ext(path) {
	case ".html":
		return "text/html; charset=utf-8"
	case ".css":
		return "text/css; charset=utf-8"
	case ".js":
		return "application/javascript; charset=utf-8"
	case ".json":
		return "application/json"
	default:
		return "application/octet-stream"
	}
}

// --- Map -> wire representation ---

type roadResponse struct {
	X0 int  `json:"x0"`
	Y0 int  `json:"y0"`
	X1 *int `json:"x1,omitempty"`
	Y1 *int `json:"y1,omitempty"`
}

type buildingResponse struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

type officeResponse struct {
	ID string `json:"id"`
	X  int    `json:"x"`
	Y  int    `json:"y"`
}

type lootTypeResponse struct {
	Value int `json:"value"`
}

type mapResponse struct {
	ID        string             `json:"id"`
	Name      string             `json:"name"`
	Roads     []roadResponse     `json:"roads"`
	Buildings []buildingResponse `json:"buildings"`
	Offices   []officeResponse   `json:"offices"`
	LootTypes []lootTypeResponse `json:"lootTypes"`
}

func mapResponseFrom(m *model.Map) mapResponse {
	resp := mapResponse{ID: m.ID, Name: m.Name}
	for _, road := range m.Roads {
		rr := roadResponse{X0: road.Start.X, Y0: road.Start.Y}
		if road.IsHorizontal() {
			x1 := road.End.X
			rr.X1 = &x1
		} else {
			y1 := road.End.Y
			rr.Y1 = &y1
		}
		resp.Roads = append(resp.Roads, rr)
	}
	for _, b := range m.Buildings {
		resp.Buildings = append(resp.Buildings, buildingResponse{
			X: b.Bounds.Position.X, Y: b.Bounds.Position.Y,
			W: b.Bounds.Size.Width, H: b.Bounds.Size.Height,
		})
	}
	for _, o := range m.Offices {
		resp.Offices = append(resp.Offices, officeResponse{ID: o.ID, X: o.Position.X, Y: o.Position.Y})
	}
	for _, v := range m.LootValues {
		resp.LootTypes = append(resp.LootTypes, lootTypeResponse{Value: v})
	}
	return resp
}
