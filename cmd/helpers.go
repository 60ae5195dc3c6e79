package main

import (
	"encoding/json"
	"net/http"
	"runtime/debug"
)

func (app *application) serverError(w http.ResponseWriter, err error) {
	app.errorLog.Printf("%s\n%s", err.Error(), debug.Stack())
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

func (app *application) healthcheck(w http.ResponseWriter, r *http.Request) {
	status := "ok"
	code := http.StatusOK
	if err := app.db.PingContext(r.Context()); err != nil {
		app.errorLog.Printf("healthcheck db ping: %v", err)
		status = "degraded"
		code = http.StatusServiceUnavailable
	}
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": status})
}
