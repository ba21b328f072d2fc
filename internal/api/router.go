package api

import (
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter builds the HTTP routing table over a handler set.
func NewRouter(h *Handler) *mux.Router {
	r := mux.NewRouter()
	r.Handle("/metrics", promhttp.Handler())
	r.HandleFunc("/health", h.Health).Methods("GET")

	apiV1 := r.PathPrefix("/api/v1").Subrouter()
	apiV1.HandleFunc("/books/{bookID}/borrow", h.Borrow).Methods("POST")
	apiV1.HandleFunc("/books/{bookID}/return", h.Return).Methods("POST")
	apiV1.HandleFunc("/books/{bookID}/extend", h.Extend).Methods("POST")
	apiV1.HandleFunc("/books/{bookID}/reserve", h.Reserve).Methods("POST")
	apiV1.HandleFunc("/transactions", h.Transactions).Methods("GET")
	apiV1.HandleFunc("/fines/{fineID}/pay", h.PayFine).Methods("POST")

	return r
}
