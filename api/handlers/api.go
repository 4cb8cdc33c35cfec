package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/patient-tracker/adherence-api/adherence"
	"github.com/patient-tracker/adherence-api/api"
	"github.com/patient-tracker/adherence-api/api/scheduler"
	"github.com/patient-tracker/adherence-api/config"
	"github.com/patient-tracker/adherence-api/databases"
	"github.com/patient-tracker/adherence-api/notification"
	"github.com/patient-tracker/adherence-api/tokens"
)

// App stores the router, the services behind it and the db connection, so
// they can be reused
type App struct {
	Router    *mux.Router
	Config    config.Config
	Service   *adherence.Service
	Gate      *adherence.ReminderGate
	Hub       *notification.Hub
	Auth      *api.MiddlewareDB
	Scheduler *scheduler.Scheduler

	client   databases.ClientHelper
	dbHelper databases.DatabaseHelper
}

// Initialize is invoked by main to connect with the database, wire the
// services and create a router
func (a *App) Initialize(ctx context.Context) error {
	client, err := databases.NewClient(&a.Config)
	if err != nil {
		zap.S().Errorw("failed to create new client", "error", err)
		return err
	}
	if err := client.Connect(ctx); err != nil {
		zap.S().Errorw("failed to connect to database", "error", err)
		return err
	}
	a.client = client
	a.dbHelper = databases.NewDatabase(&a.Config, client)
	zap.S().Infow("adherence-api has connected to the database", "database", a.Config.DatabaseName)

	if err := a.Wire(ctx, a.dbHelper); err != nil {
		return err
	}
	a.Router = a.New()
	return nil
}

// Wire builds the stores and services over db
func (a *App) Wire(ctx context.Context, db databases.DatabaseHelper) error {
	prescriptions := databases.NewPrescriptionDatabase(db)
	ledger := databases.NewAdherenceDatabase(db)
	users := databases.NewUserDatabase(db)

	indexed := map[string]interface {
		EnsureIndexes(context.Context) error
	}{
		"prescriptions":      prescriptions,
		"medicine_adherence": ledger,
		"users":              users,
	}
	for name, store := range indexed {
		if err := store.EnsureIndexes(ctx); err != nil {
			return fmt.Errorf("ensure indexes on %s: %w", name, err)
		}
	}

	issuer, err := tokens.NewIssuer(a.Config.JWTSecret, a.Config.TokenTTL)
	if err != nil {
		return err
	}

	a.Hub = notification.NewHub()
	mailer := notification.NewSendGridMailer(a.Config.SendGridAPIKey, a.Config.EmailFrom, a.Config.EmailFromName)
	if a.Config.SendGridAPIKey == "" {
		zap.S().Warn("SENDGRID_API_KEY is not set, reminder emails will fail")
	}
	a.Service = adherence.NewService(prescriptions, ledger, users, a.Hub, mailer)
	a.Gate = adherence.NewReminderGate(a.Config.ReminderCooldown, a.Service.GateDispatch)
	a.Auth = &api.MiddlewareDB{DB: users, Tokens: issuer}
	a.Auth.SetupGoGuardian()
	a.Scheduler = scheduler.NewScheduler(databases.NewSchedulerLockDatabase(db))
	return nil
}

// New creates a new mux router and all the routes
func (a *App) New() *mux.Router {
	r := mux.NewRouter()
	r.Use(api.MetricsMiddleware)

	p := Prescription{Service: a.Service}
	med := Medication{Service: a.Service}
	doc := Doctor{Service: a.Service}
	adm := Admin{Service: a.Service}
	n := Notifications{Hub: a.Hub, Auth: a.Auth, Service: a.Service}

	// healthchex
	r.HandleFunc("/health", api.HealthCheckHandler).Methods("GET")
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")
	r.HandleFunc("/ws/notifications", n.WebsocketHandler).Methods("GET")

	v1 := r.PathPrefix("/api/v1").Subrouter()
	v1.Use(api.ReminderTrigger(a.Gate, func() time.Time { return a.Gate.Now() }))
	if a.Config.RequestTimeout > 0 {
		v1.Use(api.TimeoutMiddleware(a.Config.RequestTimeout))
	}
	protect := func(h http.HandlerFunc) http.Handler {
		return a.Auth.Middleware(api.MissedDoseCheck(a.Service)(h))
	}

	v1.Handle("/auth/token", a.Auth.Middleware(http.HandlerFunc(a.Auth.CreateToken))).Methods("POST")

	v1.Handle("/doctor/patients", protect(doc.AssignPatientHandler)).Methods("POST")
	v1.Handle("/doctor/prescription", protect(p.CreatePrescriptionHandler)).Methods("POST")
	v1.Handle("/doctor/prescription/{prescriptionId}", protect(p.DeletePrescriptionHandler)).Methods("DELETE")
	v1.Handle("/doctor/prescriptions/{patientId}", protect(p.PrescriptionsHandler)).Methods("GET")
	v1.Handle("/doctor/patient-medications/today/{patientId}", protect(med.TodayHandler)).Methods("GET")

	v1.Handle("/patient/prescriptions/{patientId}", protect(p.PrescriptionsHandler)).Methods("GET")
	v1.Handle("/patient/medications/today/{patientId}", protect(med.TodayHandler)).Methods("GET")
	v1.Handle("/patient/medications/update-status", protect(med.UpdateStatusHandler)).Methods("POST")
	v1.Handle("/patient/medications/history/{patientId}", protect(med.HistoryHandler)).Methods("GET")
	v1.Handle("/patient/medications/adherence-stats/{patientId}", protect(med.StatsHandler)).Methods("GET")

	v1.Handle("/admin/send-medication-reminders", protect(adm.SendRemindersHandler)).Methods("POST")

	return r
}

// StartScheduler registers the background jobs and starts the cron loop
func (a *App) StartScheduler() error {
	if err := a.Scheduler.Register(scheduler.AdherenceJobs(a.Service, a.Gate, &a.Config)...); err != nil {
		return err
	}
	a.Scheduler.After(scheduler.InitialSweepDelay, scheduler.InitialSweep(a.Service))
	a.Scheduler.Start()
	return nil
}

// Close stops background work and disconnects from the database
func (a *App) Close(ctx context.Context) {
	if a.Scheduler != nil {
		a.Scheduler.Stop()
	}
	if a.Gate != nil {
		a.Gate.Wait()
	}
	if a.client != nil {
		if err := a.client.Disconnect(ctx); err != nil {
			zap.S().Warnw("failed to disconnect from database", "error", err)
		}
	}
}

// Database returns the connected database, for tools built on the app
func (a *App) Database() databases.DatabaseHelper {
	return a.dbHelper
}
