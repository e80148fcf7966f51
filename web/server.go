package web

import (
	"log"
	"net/http"
	"os"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/mogaika/mdl_tools/config"
	"github.com/mogaika/mdl_tools/status"
	"github.com/mogaika/mdl_tools/vfs"
)

var ServerDirectory vfs.Directory
var ServerProfile *config.Profile

func NewRouter() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/json/models", HandlerAjaxModels).Methods("GET")
	r.HandleFunc("/json/model/{file}", HandlerAjaxModel).Methods("GET")
	r.HandleFunc("/dump/model/{file}", HandlerDumpModel).Methods("GET")
	r.HandleFunc("/raw/model/{file}", HandlerRawModel).Methods("GET")
	r.HandleFunc("/export/model/{file}/{format}", HandlerExportModel).Methods("GET")
	r.HandleFunc("/upload/model/{file}", HandlerUploadModel).Methods("POST")
	r.Handle("/ws/status", status.DefaultHub)
	return r
}

func StartServer(addr string, d vfs.Directory, profile *config.Profile) error {
	ServerDirectory = d
	ServerProfile = profile

	h := handlers.RecoveryHandler(handlers.PrintRecoveryStack(true))(NewRouter())
	h = handlers.LoggingHandler(os.Stdout, h)

	log.Printf("[web] Starting server %v", addr)

	return http.ListenAndServe(addr, h)
}
