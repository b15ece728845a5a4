package main

import (
	"net/http"

	"github.com/matchday/backend/internal/handlers"
)

// RegisterV1Routes adds the game and balance endpoints to the mux.
// These are the operations the external chat layer calls; there is no
// auth middleware here, the caller owns that concern.
func RegisterV1Routes(mux *http.ServeMux, gh *handlers.GameHandler, wh *handlers.WorkspaceHandler) {
	mux.HandleFunc("POST /v1/workspaces", wh.Create)
	mux.HandleFunc("GET /v1/workspaces/{workspace}", wh.Get)
	mux.HandleFunc("GET /v1/workspaces/{workspace}/chats/{chat}/game", gh.ActiveGame)
	mux.HandleFunc("POST /v1/games", gh.CreateGame)
	mux.HandleFunc("POST /v1/games/{id}/join", gh.Join)
	mux.HandleFunc("POST /v1/games/{id}/guests", gh.AddGuest)
	mux.HandleFunc("POST /v1/games/{id}/leave", gh.Leave)
	mux.HandleFunc("POST /v1/games/{id}/optout", gh.OptOut)
	mux.HandleFunc("POST /v1/games/{id}/slots/{slot}/pay", gh.Pay)
	mux.HandleFunc("POST /v1/games/{id}/slots/{slot}/unpay", gh.Unpay)
	mux.HandleFunc("POST /v1/games/{id}/close", gh.Close)
	mux.HandleFunc("POST /v1/games/{id}/cancel", gh.Cancel)
	mux.HandleFunc("GET /v1/games/{id}/roster", gh.Roster)
	mux.HandleFunc("GET /v1/balances/{workspace}/{owner}", gh.Balance)
}
