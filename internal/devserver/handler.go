package devserver

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/gorilla/websocket"

	"github.com/example/delivery-rider/internal/domain/models"
	"github.com/example/delivery-rider/pkg/logger"
	wrap "github.com/example/delivery-rider/pkg/logger/wrapper"
)

// statusTokenExpired mirrors the production backend's expiry signal: 419 with
// code "expired" in the body. A plain 401 means the token is invalid, not
// refreshable.
const statusTokenExpired = 419

type envelope map[string]any

// Handler carries the dev backend's endpoints.
type Handler struct {
	store  *Store
	tokens *TokenManager
	hub    *Hub
	log    logger.Logger

	upgrader websocket.Upgrader
}

func NewHandler(store *Store, tokens *TokenManager, hub *Hub, log logger.Logger) *Handler {
	return &Handler{
		store:  store,
		tokens: tokens,
		hub:    hub,
		log:    log,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

type registerRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := readJSON(r, &req); err != nil {
		errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Email == "" || req.Password == "" {
		errorResponse(w, http.StatusBadRequest, "email and password are required")
		return
	}

	if err := h.store.CreateUser(req.Name, req.Email, req.Password); err != nil {
		errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, envelope{"data": envelope{"email": req.Email}})
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := readJSON(r, &req); err != nil {
		errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	user, err := h.store.Authenticate(req.Email, req.Password)
	if err != nil {
		errorResponse(w, http.StatusUnauthorized, "invalid email or password")
		return
	}

	access, refresh, err := h.tokens.IssuePair(user)
	if err != nil {
		errorResponse(w, http.StatusInternalServerError, "failed to issue tokens")
		return
	}

	writeJSON(w, http.StatusOK, envelope{"data": envelope{
		"name":         user.Name,
		"email":        user.Email,
		"accessToken":  access,
		"refreshToken": refresh,
	}})
}

// Refresh exchanges a refresh token (presented as bearer) for a new access
// token.
func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	token, err := bearerToken(r)
	if err != nil {
		errorResponse(w, http.StatusUnauthorized, err.Error())
		return
	}

	email, err := h.tokens.Validate(token, models.RefreshToken)
	if err != nil {
		errorResponse(w, http.StatusUnauthorized, "invalid refresh token")
		return
	}

	user, ok := h.store.User(email)
	if !ok {
		errorResponse(w, http.StatusUnauthorized, "unknown user")
		return
	}

	access, err := h.tokens.IssueAccess(user, h.tokens.accessTTL)
	if err != nil {
		errorResponse(w, http.StatusInternalServerError, "failed to issue token")
		return
	}

	writeJSON(w, http.StatusOK, envelope{"data": envelope{"accessToken": access}})
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.authenticated(w, r); !ok {
		return
	}
	// Stateless tokens: nothing to revoke in the dev backend.
	writeJSON(w, http.StatusOK, envelope{"data": "ok"})
}

type orderRequest struct {
	OrderID string `json:"orderId"`
}

func (h *Handler) Accept(w http.ResponseWriter, r *http.Request) {
	user, ok := h.authenticated(w, r)
	if !ok {
		return
	}

	var req orderRequest
	if err := readJSON(r, &req); err != nil {
		errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.store.AcceptOrder(user.Email, req.OrderID); err != nil {
		errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx := wrap.WithOrderID(r.Context(), req.OrderID)
	h.log.Info(ctx, "order accepted", "rider", user.Email)

	// Tell everyone else the order is gone.
	h.hub.Broadcast(ctx, models.OrderEvent{
		Type:    models.EventOrderTaken,
		OrderID: req.OrderID,
	}, user.Email)

	writeJSON(w, http.StatusOK, envelope{"data": "ok"})
}

func (h *Handler) Complete(w http.ResponseWriter, r *http.Request) {
	user, ok := h.authenticated(w, r)
	if !ok {
		return
	}

	var req orderRequest
	if err := readJSON(r, &req); err != nil {
		errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	price, err := h.store.CompleteOrder(user.Email, req.OrderID)
	if err != nil {
		errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	h.log.Info(wrap.WithOrderID(r.Context(), req.OrderID), "delivery completed", "rider", user.Email, "price", price)
	writeJSON(w, http.StatusOK, envelope{"data": "ok"})
}

func (h *Handler) Earnings(w http.ResponseWriter, r *http.Request) {
	user, ok := h.authenticated(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, envelope{"data": h.store.Earnings(user.Email)})
}

// OrderFeed upgrades to a websocket and registers the rider for order pushes.
// The token may come as a bearer header or, for clients that cannot set
// headers on the handshake, a token query parameter.
func (h *Handler) OrderFeed(w http.ResponseWriter, r *http.Request) {
	token, err := bearerToken(r)
	if err != nil {
		if q := r.URL.Query().Get("token"); q != "" {
			token, err = q, nil
		}
	}
	if err != nil {
		errorResponse(w, http.StatusUnauthorized, err.Error())
		return
	}

	email, err := h.tokens.Validate(token, models.AccessToken)
	if err != nil {
		if errors.Is(err, ErrTokenExpired) {
			expiredResponse(w)
			return
		}
		errorResponse(w, http.StatusUnauthorized, "invalid token")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	ctx := r.Context()
	h.hub.Add(email, conn)
	h.log.Info(ctx, "rider feed connected", "email", email)

	// Drain control frames; the feed is write-only from the server side.
	go func() {
		defer func() {
			h.hub.Remove(email, conn)
			conn.Close()
			h.log.Info(ctx, "rider feed disconnected", "email", email)
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// authenticated resolves the bearer access token or writes the appropriate
// error response. Expired tokens get the 419 refresh signal.
func (h *Handler) authenticated(w http.ResponseWriter, r *http.Request) (*models.User, bool) {
	token, err := bearerToken(r)
	if err != nil {
		errorResponse(w, http.StatusUnauthorized, err.Error())
		return nil, false
	}

	email, err := h.tokens.Validate(token, models.AccessToken)
	if err != nil {
		if errors.Is(err, ErrTokenExpired) {
			expiredResponse(w)
			return nil, false
		}
		errorResponse(w, http.StatusUnauthorized, "invalid token")
		return nil, false
	}

	user, ok := h.store.User(email)
	if !ok {
		errorResponse(w, http.StatusUnauthorized, "unknown user")
		return nil, false
	}
	return user, true
}

// --- helpers ---

func bearerToken(r *http.Request) (string, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", errors.New("authorization required")
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
		return "", fmt.Errorf("invalid Authorization header format")
	}
	return parts[1], nil
}

func readJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20))
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid request body")
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, data envelope) {
	js, err := json.Marshal(data)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(js)
}

func errorResponse(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, envelope{"message": message})
}

func expiredResponse(w http.ResponseWriter) {
	writeJSON(w, statusTokenExpired, envelope{"code": "expired", "message": "access token expired"})
}
