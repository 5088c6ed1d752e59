package handlers

import (
	"net/http"

	"github.com/deepgram/pdfchat/internal/api/v1/handlers/sessions"
	v1ws "github.com/deepgram/pdfchat/internal/api/v1/handlers/websocket"
	v1mware "github.com/deepgram/pdfchat/internal/api/v1/middleware"
	"github.com/deepgram/pdfchat/internal/config"
	"github.com/deepgram/pdfchat/internal/services"
	"github.com/gorilla/mux"
)

func RegisterV1Routes(router *mux.Router, services *services.Services) {
	manager := services.GetSessionManager()
	conns := services.GetConnectionsManager()
	counter := services.GetRateCounter()

	// v1 routes
	v1 := router.PathPrefix("/v1").Subrouter()
	v1.Use(v1mware.RateLimit(config.RateLimitGlobal, counter))

	// Protected v1 session routes
	v1sessionRouter := v1.PathPrefix("/sessions").Subrouter()
	v1sessionRouter.Use(v1mware.RequireAuth())
	v1sessionRouter.Use(v1mware.RequireScope(config.ScopeChatWrite))

	v1sessionRouter.HandleFunc("", func(w http.ResponseWriter, r *http.Request) {
		sessions.HandleCreate(manager, w, r)
	}).Methods("POST")
	v1sessionRouter.HandleFunc("/{id}", func(w http.ResponseWriter, r *http.Request) {
		sessions.HandleGet(manager, w, r)
	}).Methods("GET")
	v1sessionRouter.HandleFunc("/{id}", func(w http.ResponseWriter, r *http.Request) {
		sessions.HandleDelete(manager, conns, w, r)
	}).Methods("DELETE")
	v1sessionRouter.HandleFunc("/{id}/input", func(w http.ResponseWriter, r *http.Request) {
		sessions.HandleUpdateInput(manager, w, r)
	}).Methods("PUT")
	v1sessionRouter.Handle("/{id}/messages", v1mware.RateLimit(config.RateLimitSubmit, counter)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sessions.HandleSubmit(manager, w, r)
	}))).Methods("POST")
	v1sessionRouter.HandleFunc("/{id}/stream", func(w http.ResponseWriter, r *http.Request) {
		v1ws.HandleStream(manager, conns, w, r)
	}).Methods("GET")
}
