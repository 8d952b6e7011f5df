package main

import "github.com/gorilla/mux"

func registerRoutes(r *mux.Router, rc *registryController) {
	r.Use(loggingMiddleware)
	r.HandleFunc("/append", rc.Append).Methods("POST")
	r.HandleFunc("/log", rc.Log).Methods("GET")
	r.HandleFunc("/idx/{pubkey}", rc.Idx).Methods("GET")
	r.HandleFunc("/lines", rc.Lines).Methods("GET")
}
