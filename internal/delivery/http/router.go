package http

import (
	"net/http"

	"clinic-appointment-service/internal/delivery/http/handler"
	"clinic-appointment-service/internal/delivery/http/middleware"

	"github.com/gorilla/mux"
)

type Router struct {
	router              *mux.Router
	authHandler         *handler.AuthHandler
	appointmentHandler  *handler.AppointmentHandler
	availabilityHandler *handler.AvailabilityHandler
	doctorHandler       *handler.DoctorHandler
	patientHandler      *handler.PatientHandler
	auditLogHandler     *handler.AuditLogHandler
	authMiddleware      *middleware.AuthMiddleware
	corsMiddleware      *middleware.CORSMiddleware
}

func NewRouter(
	authHandler *handler.AuthHandler,
	appointmentHandler *handler.AppointmentHandler,
	availabilityHandler *handler.AvailabilityHandler,
	doctorHandler *handler.DoctorHandler,
	patientHandler *handler.PatientHandler,
	auditLogHandler *handler.AuditLogHandler,
	authMiddleware *middleware.AuthMiddleware,
	corsMiddleware *middleware.CORSMiddleware,
) *Router {
	return &Router{
		router:              mux.NewRouter(),
		authHandler:         authHandler,
		appointmentHandler:  appointmentHandler,
		availabilityHandler: availabilityHandler,
		doctorHandler:       doctorHandler,
		patientHandler:      patientHandler,
		auditLogHandler:     auditLogHandler,
		authMiddleware:      authMiddleware,
		corsMiddleware:      corsMiddleware,
	}
}

func (r *Router) Setup() *mux.Router {
	// API versioning
	api := r.router.PathPrefix("/api/v1").Subrouter()

	// Health check
	api.HandleFunc("/health", r.healthCheck).Methods(http.MethodGet)

	// Auth routes (public)
	auth := api.PathPrefix("/auth").Subrouter()
	auth.HandleFunc("/register/patient", r.authHandler.RegisterPatient).Methods(http.MethodPost)
	auth.HandleFunc("/register/doctor", r.authHandler.RegisterDoctor).Methods(http.MethodPost)
	auth.HandleFunc("/login", r.authHandler.Login).Methods(http.MethodPost)
	auth.HandleFunc("/refresh-token", r.authHandler.RefreshToken).Methods(http.MethodPost)

	// Auth routes (protected)
	authProtected := api.PathPrefix("/auth").Subrouter()
	authProtected.Use(r.authMiddleware.Authenticate)
	authProtected.HandleFunc("/logout", r.authHandler.Logout).Methods(http.MethodPost)
	authProtected.HandleFunc("/me", r.authHandler.GetCurrentUser).Methods(http.MethodGet)

	// Doctor directory (any authenticated user)
	doctors := api.PathPrefix("/doctors").Subrouter()
	doctors.Use(r.authMiddleware.Authenticate)
	doctors.HandleFunc("", r.doctorHandler.GetAllDoctors).Methods(http.MethodGet)
	doctors.HandleFunc("/{id}", r.doctorHandler.GetDoctor).Methods(http.MethodGet)
	doctors.HandleFunc("/{id}/availability", r.availabilityHandler.GetDoctorWindows).Methods(http.MethodGet)

	// Appointment routes (doctors and patients, ownership enforced per record)
	appointments := api.PathPrefix("/appointments").Subrouter()
	appointments.Use(r.authMiddleware.Authenticate)
	appointments.Use(middleware.RequireDoctorOrPatient)
	appointments.HandleFunc("/check-availability", r.appointmentHandler.CheckAvailability).Methods(http.MethodPost)
	appointments.HandleFunc("", r.appointmentHandler.GetAppointments).Methods(http.MethodGet)
	appointments.HandleFunc("/{id}", r.appointmentHandler.GetAppointment).Methods(http.MethodGet)
	appointments.HandleFunc("/{id}", r.appointmentHandler.UpdateAppointment).Methods(http.MethodPut)
	appointments.HandleFunc("/{id}/status", r.appointmentHandler.ChangeStatus).Methods(http.MethodPatch)

	// Booking is patient-only
	booking := api.PathPrefix("/appointments").Subrouter()
	booking.Use(r.authMiddleware.Authenticate)
	booking.Use(middleware.RequirePatient)
	booking.HandleFunc("", r.appointmentHandler.CreateAppointment).Methods(http.MethodPost)

	// Patient profile routes
	patients := api.PathPrefix("/patients").Subrouter()
	patients.Use(r.authMiddleware.Authenticate)
	patients.Use(middleware.RequirePatient)
	patients.HandleFunc("/me", r.patientHandler.GetMyProfile).Methods(http.MethodGet)
	patients.HandleFunc("/me", r.patientHandler.UpdateMyProfile).Methods(http.MethodPut)

	// Doctor self-service routes (profile + weekly availability)
	doctorSelf := api.PathPrefix("/doctor").Subrouter()
	doctorSelf.Use(r.authMiddleware.Authenticate)
	doctorSelf.Use(middleware.RequireDoctor)
	doctorSelf.HandleFunc("/profile", r.doctorHandler.UpdateMyProfile).Methods(http.MethodPut)
	doctorSelf.HandleFunc("/availability", r.availabilityHandler.GetMyWindows).Methods(http.MethodGet)
	doctorSelf.HandleFunc("/availability", r.availabilityHandler.CreateWindow).Methods(http.MethodPost)
	doctorSelf.HandleFunc("/availability/{id}", r.availabilityHandler.UpdateWindow).Methods(http.MethodPut)
	doctorSelf.HandleFunc("/availability/{id}", r.availabilityHandler.DeleteWindow).Methods(http.MethodDelete)

	// Admin routes (audit trail)
	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(r.authMiddleware.Authenticate)
	admin.Use(middleware.RequireAdmin)
	admin.HandleFunc("/audit-logs", r.auditLogHandler.GetAllAuditLogs).Methods(http.MethodGet)
	admin.HandleFunc("/audit-logs/{id}", r.auditLogHandler.GetAuditLog).Methods(http.MethodGet)

	// Add CORS middleware
	r.router.Use(r.corsMiddleware.Handle)

	return r.router
}

func (r *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status": "ok"}`))
}
