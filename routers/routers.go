package routers

import (
	"github.com/n1k61n/web3-sosial/handlers"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RegisterRoutes sets up all the HTTP routes of the transaction gateway.
func RegisterRoutes(r *mux.Router, h *handlers.Handler) {

	r.HandleFunc("/health", h.Health).Methods("GET")
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")

	// Token ledger transactions and reads
	r.HandleFunc("/ledger/transfers", h.Transfer).Methods("POST")
	r.HandleFunc("/ledger/rewards", h.Reward).Methods("POST")
	r.HandleFunc("/ledger/accounts/{address}/balance", h.GetBalance).Methods("GET")
	r.HandleFunc("/ledger/supply", h.GetSupply).Methods("GET")

	// Profiles
	r.HandleFunc("/profiles", h.CreateProfile).Methods("POST")
	r.HandleFunc("/profiles", h.UpdateProfile).Methods("PATCH")
	r.HandleFunc("/profiles/{address}", h.GetProfile).Methods("GET")

	// Posts, likes, comments, reposts
	r.HandleFunc("/posts", h.CreatePost).Methods("POST")
	r.HandleFunc("/posts/count", h.GetPostCount).Methods("GET")
	r.HandleFunc("/posts/{id:[0-9]+}", h.GetPost).Methods("GET")
	r.HandleFunc("/posts/{id:[0-9]+}/like", h.LikePost).Methods("POST")
	r.HandleFunc("/posts/{id:[0-9]+}/like", h.UnlikePost).Methods("DELETE")
	r.HandleFunc("/posts/{id:[0-9]+}/comments", h.AddComment).Methods("POST")
	r.HandleFunc("/posts/{id:[0-9]+}/comments", h.GetComments).Methods("GET")
	r.HandleFunc("/posts/{id:[0-9]+}/repost", h.Repost).Methods("POST")

	// Follow edges
	r.HandleFunc("/follows/{target}", h.Follow).Methods("POST")
	r.HandleFunc("/follows/{target}", h.Unfollow).Methods("DELETE")
}
