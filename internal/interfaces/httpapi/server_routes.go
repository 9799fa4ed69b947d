package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
}

func registerRegistrationRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("POST /register", handler.Register)
	mux.HandleFunc("GET /register/list", handler.ListTeams)
}

func registerAdminRoutes(mux *http.ServeMux, handler *Handler, adminToken string) {
	mux.Handle("POST /register/admin/rename", RequireAdminToken(adminToken, http.HandlerFunc(handler.RenameTeam)))
}

func registerPaymentRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("POST /cashfree/create-order", handler.CreateOrder)
	mux.HandleFunc("POST /cashfree/webhook", handler.Webhook)
}
