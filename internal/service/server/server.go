// Package server exposes the messaging core over HTTP for presentation
// layers that do not link the Go packages directly. Conversation watching is
// a websocket fed by the same polling loop the terminal client uses.
package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"cryptchat/internal/common"
	"cryptchat/internal/service/conversation"
	"cryptchat/internal/service/credential"
	"cryptchat/internal/service/session"
	"cryptchat/internal/utils/log"
)

type (
	HttpServer struct {
		addr          string
		syncPeriod    time.Duration
		credentials   *credential.Service
		conversations *conversation.Service
		sessions      *session.Service
	}

	credentialsRequest struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}

	sendRequest struct {
		To   string `json:"to"`
		Text string `json:"text"`
	}
)

func NewHttpServer(addr string, syncPeriod time.Duration, credentials *credential.Service,
	conversations *conversation.Service, sessions *session.Service) *HttpServer {
	return &HttpServer{
		addr:          addr,
		syncPeriod:    syncPeriod,
		credentials:   credentials,
		conversations: conversations,
		sessions:      sessions,
	}
}

func (s *HttpServer) Run() error {
	return http.ListenAndServe(s.addr, s.Router())
}

func (s *HttpServer) Router() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/register", s.HandleRegister()).Methods(http.MethodPost)
	r.HandleFunc("/login", s.HandleLogin()).Methods(http.MethodPost)
	r.HandleFunc("/logout", s.HandleLogout()).Methods(http.MethodPost)
	r.HandleFunc("/users", s.HandleListUsers()).Methods(http.MethodGet)
	r.HandleFunc("/messages", s.HandleSend()).Methods(http.MethodPost)
	r.HandleFunc("/conversations/{peer}", s.HandleLoad()).Methods(http.MethodGet)
	r.HandleFunc("/conversations/{peer}/watch", s.HandleWatch()).Methods(http.MethodGet)
	return r
}

func (s *HttpServer) HandleRegister() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req credentialsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		if req.Username == "" || req.Password == "" {
			http.Error(w, "username and password are required", http.StatusBadRequest)
			return
		}

		id, err := s.credentials.Register(r.Context(), req.Username, req.Password)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]string{"id": id.Hex()})
	}
}

func (s *HttpServer) HandleLogin() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req credentialsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}

		user, err := s.credentials.Authenticate(r.Context(), req.Username, req.Password)
		if err != nil {
			writeError(w, err)
			return
		}

		token, err := s.sessions.Create(r.Context(), user.ID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{
			"token":    token,
			"id":       user.ID.Hex(),
			"username": user.Username,
		})
	}
}

func (s *HttpServer) HandleLogout() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			http.Error(w, "missing token", http.StatusUnauthorized)
			return
		}
		if err := s.sessions.Revoke(r.Context(), token); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *HttpServer) HandleListUsers() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := s.authenticate(w, r)
		if !ok {
			return
		}

		users, err := s.credentials.ListOtherUsers(r.Context(), userID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, users)
	}
}

func (s *HttpServer) HandleSend() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := s.authenticate(w, r)
		if !ok {
			return
		}

		var req sendRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}
		receiverID, err := primitive.ObjectIDFromHex(req.To)
		if err != nil {
			http.Error(w, "invalid recipient id", http.StatusBadRequest)
			return
		}

		// the UI only offers existing peers; API callers get a clear 404
		peer, err := s.credentials.GetUser(r.Context(), receiverID)
		if err != nil {
			writeError(w, err)
			return
		}
		if peer == nil {
			http.Error(w, "unknown recipient", http.StatusNotFound)
			return
		}

		if err := s.conversations.Send(r.Context(), userID, receiverID, req.Text); err != nil {
			writeError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (s *HttpServer) HandleLoad() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := s.authenticate(w, r)
		if !ok {
			return
		}

		peerID, err := primitive.ObjectIDFromHex(mux.Vars(r)["peer"])
		if err != nil {
			http.Error(w, "invalid peer id", http.StatusBadRequest)
			return
		}

		entries, err := s.conversations.Load(r.Context(), userID, peerID)
		if err != nil {
			writeError(w, err)
			return
		}
		if entries == nil {
			entries = []conversation.Entry{}
		}
		writeJSON(w, http.StatusOK, entries)
	}
}

// HandleWatch upgrades to a websocket and pushes a conversation snapshot on
// every refresh tick until the client disconnects. The refresh itself is the
// same polling Syncer the terminal client runs; the socket is only delivery.
func (s *HttpServer) HandleWatch() http.HandlerFunc {
	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			return true // Allow all origins
		},
	}

	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := s.authenticate(w, r)
		if !ok {
			return
		}

		peerID, err := primitive.ObjectIDFromHex(mux.Vars(r)["peer"])
		if err != nil {
			http.Error(w, "invalid peer id", http.StatusBadRequest)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			http.Error(w, "Failed to upgrade", http.StatusInternalServerError)
			return
		}

		syncer := s.conversations.StartSync(
			conversation.Pair{A: userID, B: peerID},
			func(entries []conversation.Entry) {
				if err := conn.WriteJSON(entries); err != nil {
					log.Debug("watch socket write failed", zap.Error(err))
				}
			},
			s.syncPeriod,
		)

		// the read loop only exists to notice the client going away
		go func() {
			defer syncer.Stop()
			defer conn.Close()
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					log.Debug("watch socket closed", zap.Error(err))
					return
				}
			}
		}()
	}
}

// authenticate resolves the bearer token (header or ?token= for websocket
// clients) to a user id, writing the 401 itself on failure.
func (s *HttpServer) authenticate(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	token := bearerToken(r)
	if token == "" {
		token = r.URL.Query().Get("token")
	}
	if token == "" {
		http.Error(w, "missing token", http.StatusUnauthorized)
		return primitive.NilObjectID, false
	}

	userID, err := s.sessions.Resolve(r.Context(), token)
	if err != nil {
		if errors.Is(err, common.ErrInvalidToken) {
			http.Error(w, "invalid token", http.StatusUnauthorized)
		} else {
			writeError(w, err)
		}
		return primitive.NilObjectID, false
	}
	return userID, true
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	return ""
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("encoding response failed", zap.Error(err))
	}
}

// writeError maps the error taxonomy onto HTTP statuses. Validation outcomes
// are client errors and are not logged; everything else is a server fault.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, common.ErrDuplicateUsername):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, common.ErrInvalidCredentials):
		http.Error(w, err.Error(), http.StatusUnauthorized)
	case errors.Is(err, common.ErrEmptyMessage):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, common.ErrConversationCorrupted):
		log.Error("request failed", zap.Error(err))
		http.Error(w, "conversation corrupted", http.StatusInternalServerError)
	case errors.Is(err, common.ErrStorageUnavailable):
		log.Error("request failed", zap.Error(err))
		http.Error(w, "storage unavailable", http.StatusServiceUnavailable)
	default:
		log.Error("request failed", zap.Error(err))
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
