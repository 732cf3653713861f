package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/n1k61n/web3-sosial/host"
	"github.com/n1k61n/web3-sosial/ledger"
	"github.com/n1k61n/web3-sosial/logger"
	"github.com/n1k61n/web3-sosial/models"
	"github.com/n1k61n/web3-sosial/social"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// callerHeader carries the authenticated caller account. Wallet signature
// verification happens upstream; by the time a request reaches this process
// the header is trusted.
const callerHeader = "X-Caller-Address"

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "w3social_http_requests_total",
		Help: "Total HTTP requests processed, labeled by status code",
	}, []string{"method", "endpoint", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "w3social_http_request_duration_seconds",
		Help:    "Latency distribution of HTTP requests",
		Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
	}, []string{"method", "endpoint"})
)

// Handler contains the HTTP handlers that translate gateway requests into
// host transactions.
type Handler struct {
	Host *host.Host
}

// NewHandler creates and returns a new Handler instance.
func NewHandler(h *host.Host) *Handler {
	return &Handler{Host: h}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

// Transfer handles POST /ledger/transfers. The debited account is the caller.
func (h *Handler) Transfer(w http.ResponseWriter, r *http.Request) {
	timer := prometheus.NewTimer(httpRequestDuration.WithLabelValues("POST", "/ledger/transfers"))
	defer timer.ObserveDuration()

	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	var req models.TransferRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if err := h.Host.Transfer(caller, req.To, req.Amount); err != nil {
		respondWithBusinessError(w, r, err)
		return
	}
	respondWithJSON(w, r, http.StatusOK, map[string]int64{
		"from_balance": h.Host.BalanceOf(caller),
		"to_balance":   h.Host.BalanceOf(req.To),
	})
}

// Reward handles POST /ledger/rewards.
func (h *Handler) Reward(w http.ResponseWriter, r *http.Request) {
	timer := prometheus.NewTimer(httpRequestDuration.WithLabelValues("POST", "/ledger/rewards"))
	defer timer.ObserveDuration()

	var req models.RewardRequest
	if !decodeBody(w, r, &req) {
		return
	}

	minted, err := h.Host.Reward(req.Account, req.Action)
	if err != nil {
		respondWithBusinessError(w, r, err)
		return
	}
	respondWithJSON(w, r, http.StatusOK, map[string]int64{
		"minted":  minted,
		"balance": h.Host.BalanceOf(req.Account),
	})
}

// GetBalance handles GET /ledger/accounts/{address}/balance. Unreferenced
// accounts report zero rather than 404, matching ledger semantics.
func (h *Handler) GetBalance(w http.ResponseWriter, r *http.Request) {
	address := mux.Vars(r)["address"]
	respondWithJSON(w, r, http.StatusOK, map[string]interface{}{
		"address": address,
		"balance": h.Host.BalanceOf(address),
	})
}

// GetSupply handles GET /ledger/supply.
func (h *Handler) GetSupply(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, r, http.StatusOK, map[string]int64{
		"total_supply": h.Host.TotalSupply(),
		"daily_limit":  h.Host.DailyLimit(),
	})
}

// CreateProfile handles POST /profiles.
func (h *Handler) CreateProfile(w http.ResponseWriter, r *http.Request) {
	timer := prometheus.NewTimer(httpRequestDuration.WithLabelValues("POST", "/profiles"))
	defer timer.ObserveDuration()

	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	var req models.CreateProfileRequest
	if !decodeBody(w, r, &req) {
		return
	}

	profile, err := h.Host.CreateProfile(caller, req.Username, req.AvatarURI)
	if err != nil {
		respondWithBusinessError(w, r, err)
		return
	}
	logger.Logger.Info("profile created",
		zap.String("address", caller), zap.String("username", req.Username))
	respondWithJSON(w, r, http.StatusCreated, profile)
}

// UpdateProfile handles PATCH /profiles.
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	var req models.UpdateProfileRequest
	if !decodeBody(w, r, &req) {
		return
	}

	profile, err := h.Host.UpdateProfile(caller, req.Username, req.Bio, req.AvatarURI)
	if err != nil {
		respondWithBusinessError(w, r, err)
		return
	}
	respondWithJSON(w, r, http.StatusOK, profile)
}

// GetProfile handles GET /profiles/{address}.
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.Host.GetProfile(mux.Vars(r)["address"])
	if err != nil {
		respondWithBusinessError(w, r, err)
		return
	}
	respondWithJSON(w, r, http.StatusOK, profile)
}

// CreatePost handles POST /posts.
func (h *Handler) CreatePost(w http.ResponseWriter, r *http.Request) {
	timer := prometheus.NewTimer(httpRequestDuration.WithLabelValues("POST", "/posts"))
	defer timer.ObserveDuration()

	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	var req models.CreatePostRequest
	if !decodeBody(w, r, &req) {
		return
	}

	post, err := h.Host.CreatePost(caller, req.ContentURI)
	if err != nil {
		respondWithBusinessError(w, r, err)
		return
	}
	respondWithJSON(w, r, http.StatusCreated, post)
}

// GetPost handles GET /posts/{id}.
func (h *Handler) GetPost(w http.ResponseWriter, r *http.Request) {
	id, ok := postID(w, r)
	if !ok {
		return
	}
	post, err := h.Host.GetPost(id)
	if err != nil {
		respondWithBusinessError(w, r, err)
		return
	}
	respondWithJSON(w, r, http.StatusOK, post)
}

// GetPostCount handles GET /posts/count.
func (h *Handler) GetPostCount(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, r, http.StatusOK, map[string]uint64{"post_count": h.Host.PostCount()})
}

// LikePost handles POST /posts/{id}/like.
func (h *Handler) LikePost(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	id, ok := postID(w, r)
	if !ok {
		return
	}
	post, err := h.Host.LikePost(caller, id)
	if err != nil {
		respondWithBusinessError(w, r, err)
		return
	}
	respondWithJSON(w, r, http.StatusOK, post)
}

// UnlikePost handles DELETE /posts/{id}/like.
func (h *Handler) UnlikePost(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	id, ok := postID(w, r)
	if !ok {
		return
	}
	post, err := h.Host.UnlikePost(caller, id)
	if err != nil {
		respondWithBusinessError(w, r, err)
		return
	}
	respondWithJSON(w, r, http.StatusOK, post)
}

// AddComment handles POST /posts/{id}/comments.
func (h *Handler) AddComment(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	id, ok := postID(w, r)
	if !ok {
		return
	}
	var req models.AddCommentRequest
	if !decodeBody(w, r, &req) {
		return
	}

	comment, err := h.Host.AddComment(caller, id, req.ContentURI)
	if err != nil {
		respondWithBusinessError(w, r, err)
		return
	}
	respondWithJSON(w, r, http.StatusCreated, comment)
}

// GetComments handles GET /posts/{id}/comments.
func (h *Handler) GetComments(w http.ResponseWriter, r *http.Request) {
	id, ok := postID(w, r)
	if !ok {
		return
	}
	comments, err := h.Host.GetComments(id)
	if err != nil {
		respondWithBusinessError(w, r, err)
		return
	}
	if comments == nil {
		comments = []*models.Comment{}
	}
	respondWithJSON(w, r, http.StatusOK, comments)
}

// Repost handles POST /posts/{id}/repost.
func (h *Handler) Repost(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	id, ok := postID(w, r)
	if !ok {
		return
	}
	repost, err := h.Host.Repost(caller, id)
	if err != nil {
		respondWithBusinessError(w, r, err)
		return
	}
	respondWithJSON(w, r, http.StatusCreated, repost)
}

// Follow handles POST /follows/{target}.
func (h *Handler) Follow(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	target := mux.Vars(r)["target"]
	if err := h.Host.Follow(caller, target); err != nil {
		respondWithBusinessError(w, r, err)
		return
	}
	respondWithJSON(w, r, http.StatusOK, map[string]string{
		"follower": caller,
		"followee": target,
	})
}

// Unfollow handles DELETE /follows/{target}.
func (h *Handler) Unfollow(w http.ResponseWriter, r *http.Request) {
	caller, ok := requireCaller(w, r)
	if !ok {
		return
	}
	target := mux.Vars(r)["target"]
	if err := h.Host.Unfollow(caller, target); err != nil {
		respondWithBusinessError(w, r, err)
		return
	}
	respondWithJSON(w, r, http.StatusOK, map[string]string{
		"follower": caller,
		"followee": target,
	})
}

// statusForError maps business errors to HTTP statuses: duplicate state is
// 409, missing state is 404, a rejected precondition is 422.
func statusForError(err error) int {
	switch {
	case errors.Is(err, social.ErrAlreadyExists),
		errors.Is(err, social.ErrAlreadyLiked),
		errors.Is(err, social.ErrAlreadyFollowing):
		return http.StatusConflict
	case errors.Is(err, social.ErrNotRegistered),
		errors.Is(err, social.ErrPostNotFound),
		errors.Is(err, social.ErrNotLiked),
		errors.Is(err, social.ErrNotFollowing):
		return http.StatusNotFound
	case errors.Is(err, social.ErrSelfFollow),
		errors.Is(err, ledger.ErrInsufficientBalance),
		errors.Is(err, ledger.ErrDailyLimitExceeded),
		errors.Is(err, ledger.ErrInvalidAmount),
		errors.Is(err, ledger.ErrUnknownAction):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

func respondWithBusinessError(w http.ResponseWriter, r *http.Request, err error) {
	respondWithError(w, r, statusForError(err), err.Error())
}

func respondWithError(w http.ResponseWriter, r *http.Request, code int, message string) {
	respondWithJSON(w, r, code, map[string]string{"error": message})
}

func respondWithJSON(w http.ResponseWriter, r *http.Request, code int, payload interface{}) {
	httpRequestsTotal.WithLabelValues(r.Method, endpointLabel(r), strconv.Itoa(code)).Inc()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Logger.Error("failed to encode response", zap.Error(err))
	}
}

// endpointLabel returns the route template as the metric label, keeping
// addresses and post IDs out of the label space. Paths that matched no route
// fall back to the raw path.
func endpointLabel(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return r.URL.Path
}

// requireCaller extracts the authenticated caller address or rejects the
// request.
func requireCaller(w http.ResponseWriter, r *http.Request) (string, bool) {
	caller := r.Header.Get(callerHeader)
	if caller == "" {
		respondWithError(w, r, http.StatusBadRequest, "Missing "+callerHeader+" header")
		return "", false
	}
	return caller, true
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		logger.Logger.Error("failed to decode request", zap.Error(err))
		respondWithError(w, r, http.StatusBadRequest, "Invalid request payload")
		return false
	}
	return true
}

func postID(w http.ResponseWriter, r *http.Request) (uint64, bool) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		respondWithError(w, r, http.StatusBadRequest, "Invalid post id")
		return 0, false
	}
	return id, true
}
