package server

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/klauspost/compress/gzhttp"

	"devtycoon.app/internal/protocol"
)

const maxBodyBytes = 64 * 1024

type Server struct {
	game *Game
	log  *log.Logger
}

func NewServer(game *Game, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Server{game: game, log: logger}
}

// Handler serves the game API, gzip-compressed when the client accepts
// it.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get(protocol.PathHealth, func(rw http.ResponseWriter, _ *http.Request) {
		rw.WriteHeader(http.StatusOK)
		_, _ = rw.Write([]byte("ok"))
	})
	r.Get(protocol.PathGameState, s.handleState)
	r.Get(protocol.PathDefinitions, s.handleDefinitions)
	r.Post(protocol.PathDoContract, s.handleContract)
	r.Post(protocol.PathBuyItem, s.handleBuy)
	r.Post(protocol.PathResetGame, s.handleReset)

	return gzhttp.GzipHandler(r)
}

func (s *Server) handleState(rw http.ResponseWriter, r *http.Request) {
	st, err := s.game.State(r.Context())
	if err != nil {
		s.fail(rw, "get state", err)
		return
	}
	writeJSON(rw, http.StatusOK, st)
}

func (s *Server) handleDefinitions(rw http.ResponseWriter, r *http.Request) {
	etag := `"` + s.game.Catalog().Digest() + `"`
	rw.Header().Set("ETag", etag)
	if match := r.Header.Get("If-None-Match"); match != "" && strings.Contains(match, etag) {
		rw.WriteHeader(http.StatusNotModified)
		return
	}
	writeJSON(rw, http.StatusOK, s.game.Catalog().Definitions())
}

func (s *Server) handleContract(rw http.ResponseWriter, r *http.Request) {
	var req protocol.ContractReq
	if !decodeBody(rw, r, &req) {
		return
	}
	st, err := s.game.RunContract(r.Context(), req.ContractID)
	s.respond(rw, "do contract", st, err)
}

func (s *Server) handleBuy(rw http.ResponseWriter, r *http.Request) {
	var req protocol.PurchaseReq
	if !decodeBody(rw, r, &req) {
		return
	}
	st, err := s.game.Buy(r.Context(), req.ItemID)
	s.respond(rw, "buy item", st, err)
}

func (s *Server) handleReset(rw http.ResponseWriter, r *http.Request) {
	st, err := s.game.Reset(r.Context())
	s.respond(rw, "reset game", st, err)
}

func (s *Server) respond(rw http.ResponseWriter, op string, st protocol.PlayerState, err error) {
	if err != nil {
		s.fail(rw, op, err)
		return
	}
	writeJSON(rw, http.StatusOK, protocol.ActionResponse{Success: true, NewState: &st})
}

func (s *Server) fail(rw http.ResponseWriter, op string, err error) {
	var re *RuleError
	if errors.As(err, &re) {
		writeJSON(rw, re.Status, protocol.ActionResponse{Error: re.Message, Code: re.Code})
		return
	}
	s.log.Printf("%s: %v", op, err)
	writeJSON(rw, http.StatusInternalServerError, protocol.ActionResponse{Error: "Internal server error", Code: protocol.ErrInternal})
}

func decodeBody(rw http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		writeJSON(rw, http.StatusBadRequest, protocol.ActionResponse{Error: "Invalid request body", Code: protocol.ErrBadRequest})
		return false
	}
	return true
}

func writeJSON(rw http.ResponseWriter, status int, v any) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(status)
	_ = json.NewEncoder(rw).Encode(v)
}
