package handler

import (
	"net/http"

	"sala/config"
	"sala/di"
	"sala/shared/logger"
)

func Handler(w http.ResponseWriter, r *http.Request) {
	r.RequestURI = r.URL.String()

	cfg := config.Get()

	logger.InitLogger()

	logger.SetLogLevel(cfg)

	app := di.InitializeService()
	app.Adaptor()(w, r)
}
