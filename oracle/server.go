package oracle

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"sync/atomic"

	"github.com/gorilla/mux"

	"github.com/mario-areias/padding-oracle/internal/helpers"
)

// Server exposes a Local oracle over HTTP.
//
//	POST /decrypt    {"ciphertext": "<base64>"} -> 200 valid padding, 422 invalid padding, 400 malformed, 413 too large
//	GET  /challenge  the guarded secret, encrypted, without its IV
//	GET  /healthz
//
// The response never says why a decryption failed beyond the padding bit.
type Server struct {
	oracle    *Local
	challenge []byte
	logger    *helpers.Logger
	router    *mux.Router
	queries   atomic.Int64
}

// maxBodyBytes bounds a decrypt request. Probes are two blocks, this leaves plenty of room.
const maxBodyBytes = 64 << 10

// NewServer encrypts secret with the oracle and serves it as the challenge.
func NewServer(o *Local, secret []byte, logger *helpers.Logger) (*Server, error) {
	challenge, err := o.Encrypt(secret)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = helpers.NewLogger("oracle")
	}

	s := &Server{
		oracle:    o,
		challenge: challenge,
		logger:    logger,
		router:    mux.NewRouter(),
	}
	s.setupRoutes()
	return s, nil
}

func (s *Server) setupRoutes() {
	s.router.HandleFunc("/decrypt", s.handleDecrypt).Methods(http.MethodPost)
	s.router.HandleFunc("/challenge", s.handleChallenge).Methods(http.MethodGet)
	s.router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Queries returns how many decrypt requests were served.
func (s *Server) Queries() int64 {
	return s.queries.Load()
}

func (s *Server) handleDecrypt(w http.ResponseWriter, r *http.Request) {
	s.queries.Add(1)

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req decryptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse{Error: "request too large"})
			return
		}
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid JSON"})
		return
	}

	encrypted, err := base64.StdEncoding.DecodeString(req.Ciphertext)
	if err != nil {
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid ciphertext encoding"})
		return
	}

	valid, err := s.oracle.TryDecrypt(r.Context(), encrypted)
	if err != nil {
		s.logger.Debug("decrypt rejected", err)
		s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: "decryption error"})
		return
	}
	if !valid {
		s.writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: "padding error"})
		return
	}

	s.writeJSON(w, http.StatusOK, decryptResponse{Valid: true})
}

func (s *Server) handleChallenge(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, challengeResponse{
		Ciphertext: base64.StdEncoding.EncodeToString(s.challenge),
		BlockSize:  s.oracle.BlockSize(),
		Cipher:     s.oracle.cipher.Name(),
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to write response", err)
	}
}
