package http

import (
	"net/http"

	"clinic-orchestrator/internal/delivery/http/handler"
	"clinic-orchestrator/internal/delivery/http/middleware"

	"github.com/gorilla/mux"
)

type Router struct {
	router               *mux.Router
	appointmentHandler   *handler.AppointmentHandler
	labRequestHandler    *handler.LabRequestHandler
	videoHandler         *handler.VideoHandler
	doctorHandler        *handler.DoctorHandler
	clinicServiceHandler *handler.ClinicServiceHandler
	doctorShiftHandler   *handler.DoctorShiftHandler
	auditLogHandler      *handler.AuditLogHandler
	eventHandler         *handler.EventHandler
	authMiddleware       *middleware.AuthMiddleware
	corsMiddleware       *middleware.CORSMiddleware
	requestLogger        *middleware.RequestLoggerMiddleware
}

// Handlers groups the HTTP handlers the router mounts.
type Handlers struct {
	Appointment   *handler.AppointmentHandler
	LabRequest    *handler.LabRequestHandler
	Video         *handler.VideoHandler
	Doctor        *handler.DoctorHandler
	ClinicService *handler.ClinicServiceHandler
	DoctorShift   *handler.DoctorShiftHandler
	AuditLog      *handler.AuditLogHandler
	Event         *handler.EventHandler
}

func NewRouter(
	handlers Handlers,
	authMiddleware *middleware.AuthMiddleware,
	corsMiddleware *middleware.CORSMiddleware,
	requestLogger *middleware.RequestLoggerMiddleware,
) *Router {
	return &Router{
		router:               mux.NewRouter(),
		appointmentHandler:   handlers.Appointment,
		labRequestHandler:    handlers.LabRequest,
		videoHandler:         handlers.Video,
		doctorHandler:        handlers.Doctor,
		clinicServiceHandler: handlers.ClinicService,
		doctorShiftHandler:   handlers.DoctorShift,
		auditLogHandler:      handlers.AuditLog,
		eventHandler:         handlers.Event,
		authMiddleware:       authMiddleware,
		corsMiddleware:       corsMiddleware,
		requestLogger:        requestLogger,
	}
}

func (r *Router) Setup() *mux.Router {
	// API versioning
	api := r.router.PathPrefix("/api/v1").Subrouter()

	// Health check
	api.HandleFunc("/health", r.healthCheck).Methods(http.MethodGet)

	// Catalogue (public)
	api.HandleFunc("/services", r.clinicServiceHandler.GetActiveServices).Methods(http.MethodGet)
	api.HandleFunc("/services/{id}", r.clinicServiceHandler.GetService).Methods(http.MethodGet)
	api.HandleFunc("/doctors", r.doctorHandler.GetAllDoctors).Methods(http.MethodGet)
	api.HandleFunc("/doctors/{id}", r.doctorHandler.GetDoctor).Methods(http.MethodGet)
	api.HandleFunc("/doctors/{id}/slots", r.doctorHandler.GetSlots).Methods(http.MethodGet)

	// Appointments (protected, participant checks in usecase)
	appointments := api.PathPrefix("/appointments").Subrouter()
	appointments.Use(r.authMiddleware.Authenticate)
	appointments.Handle("", middleware.RequirePatient(http.HandlerFunc(r.appointmentHandler.Book))).Methods(http.MethodPost)
	appointments.Handle("/mine", middleware.RequirePatient(http.HandlerFunc(r.appointmentHandler.GetMyAppointments))).Methods(http.MethodGet)
	appointments.HandleFunc("/{id}", r.appointmentHandler.GetAppointment).Methods(http.MethodGet)
	appointments.HandleFunc("/{id}/cancel", r.appointmentHandler.Cancel).Methods(http.MethodPost)
	appointments.HandleFunc("/{id}/check-in", r.appointmentHandler.CheckIn).Methods(http.MethodPost)
	appointments.HandleFunc("/{id}/review", r.appointmentHandler.Review).Methods(http.MethodPost)
	appointments.HandleFunc("/{id}/complete", r.appointmentHandler.Complete).Methods(http.MethodPost)
	appointments.HandleFunc("/{id}/lab-request", r.labRequestHandler.GetForAppointment).Methods(http.MethodGet)
	appointments.Handle("/{id}/confirm", middleware.RequireOperator(http.HandlerFunc(r.appointmentHandler.Confirm))).Methods(http.MethodPost)
	appointments.Handle("/{id}/no-show", middleware.RequireOperator(http.HandlerFunc(r.appointmentHandler.MarkNoShow))).Methods(http.MethodPost)
	appointments.Handle("/{id}/pay", middleware.RequireOperator(http.HandlerFunc(r.appointmentHandler.MarkPaid))).Methods(http.MethodPost)

	// Video consultation
	appointments.HandleFunc("/{id}/video/credential", r.videoHandler.IssueCredential).Methods(http.MethodPost)
	appointments.HandleFunc("/{id}/video/renew", r.videoHandler.Renew).Methods(http.MethodPost)
	appointments.HandleFunc("/{id}/video/end", r.videoHandler.EndSession).Methods(http.MethodPost)

	// Doctor work list
	doctor := api.PathPrefix("/doctor").Subrouter()
	doctor.Use(r.authMiddleware.Authenticate)
	doctor.Use(middleware.RequireDoctor)
	doctor.HandleFunc("/appointments", r.appointmentHandler.GetDoctorAppointments).Methods(http.MethodGet)

	// Lab queue
	lab := api.PathPrefix("/lab-requests").Subrouter()
	lab.Use(r.authMiddleware.Authenticate)
	lab.Handle("/pending", middleware.RequireStaff(http.HandlerFunc(r.labRequestHandler.GetPending))).Methods(http.MethodGet)
	lab.Handle("/mine", middleware.RequireStaff(http.HandlerFunc(r.labRequestHandler.GetMine))).Methods(http.MethodGet)
	lab.HandleFunc("/{id}", r.labRequestHandler.GetLabRequest).Methods(http.MethodGet)
	lab.Handle("/{id}/claim", middleware.RequireStaff(http.HandlerFunc(r.labRequestHandler.Claim))).Methods(http.MethodPost)
	lab.Handle("/{id}/results", middleware.RequireStaff(http.HandlerFunc(r.labRequestHandler.SubmitResults))).Methods(http.MethodPost)
	lab.Handle("/{id}/reject", middleware.RequireDoctor(http.HandlerFunc(r.labRequestHandler.Reject))).Methods(http.MethodPost)
	lab.HandleFunc("/{id}/reactivate", r.labRequestHandler.Reactivate).Methods(http.MethodPost)
	lab.HandleFunc("/{id}/previous-results", r.labRequestHandler.GetPreviousResults).Methods(http.MethodGet)

	// Event stream
	events := api.PathPrefix("/events").Subrouter()
	events.Use(r.authMiddleware.Authenticate)
	events.HandleFunc("/ws", r.eventHandler.Stream).Methods(http.MethodGet)

	// Admin routes (protected - admin only)
	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(r.authMiddleware.Authenticate)
	admin.Use(middleware.RequireAdmin)

	// Service catalogue management (admin)
	admin.HandleFunc("/services", r.clinicServiceHandler.CreateService).Methods(http.MethodPost)
	admin.HandleFunc("/services", r.clinicServiceHandler.GetAllServices).Methods(http.MethodGet)
	admin.HandleFunc("/services/{id}", r.clinicServiceHandler.UpdateService).Methods(http.MethodPut)
	admin.HandleFunc("/services/{id}", r.clinicServiceHandler.DeactivateService).Methods(http.MethodDelete)

	// Shift management (admin)
	admin.HandleFunc("/shifts", r.doctorShiftHandler.CreateShift).Methods(http.MethodPost)
	admin.HandleFunc("/shifts", r.doctorShiftHandler.GetAllShifts).Methods(http.MethodGet)
	admin.HandleFunc("/shifts/{id}", r.doctorShiftHandler.GetShift).Methods(http.MethodGet)
	admin.HandleFunc("/shifts/{id}", r.doctorShiftHandler.UpdateShift).Methods(http.MethodPut)
	admin.HandleFunc("/shifts/{id}", r.doctorShiftHandler.DeleteShift).Methods(http.MethodDelete)
	admin.HandleFunc("/doctors/{doctorId}/shifts", r.doctorShiftHandler.GetShiftsByDoctor).Methods(http.MethodGet)

	// Audit trail (admin)
	admin.HandleFunc("/audit-logs", r.auditLogHandler.GetAllAuditLogs).Methods(http.MethodGet)
	admin.HandleFunc("/audit-logs/{id}", r.auditLogHandler.GetAuditLog).Methods(http.MethodGet)

	// Request logging wraps everything so auth can tag the entry with the user
	r.router.Use(r.requestLogger.Handle)
	r.router.Use(r.corsMiddleware.Handle)

	return r.router
}

func (r *Router) healthCheck(w http.ResponseWriter, req *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status": "ok"}`))
}
