package handler

import "net/http"

// Register wires the addon routes onto mux.
func (a *Addon) Register(mux *http.ServeMux) {
	mux.HandleFunc("/{$}", a.HandlerConfigure)
	mux.HandleFunc("GET /configure", a.HandlerConfigure)
	mux.HandleFunc("GET /{config}/configure", a.HandlerConfigure)
	mux.HandleFunc("GET /{config}/manifest.json", a.HandlerManifest)
	mux.HandleFunc("GET /{config}/stream/{type}/{id}", a.HandlerStream)
	mux.HandleFunc("GET /{config}/resolve/{service}/{hash}", a.HandlerResolve)
}
