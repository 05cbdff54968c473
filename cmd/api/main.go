package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/clinicore/scheduling-api/internal/config"
	"github.com/clinicore/scheduling-api/internal/email"
	appointmentHandler "github.com/clinicore/scheduling-api/internal/handler/appointment"
	auditHandler "github.com/clinicore/scheduling-api/internal/handler/audit"
	healthHandler "github.com/clinicore/scheduling-api/internal/handler/health"
	"github.com/clinicore/scheduling-api/internal/middleware"
	"github.com/clinicore/scheduling-api/internal/repository/postgres"
	"github.com/clinicore/scheduling-api/internal/router"
	"github.com/clinicore/scheduling-api/internal/service/audit"
	"github.com/clinicore/scheduling-api/internal/service/notification"
	"github.com/clinicore/scheduling-api/internal/service/scheduling"
	"github.com/clinicore/scheduling-api/pkg/logger"
	"github.com/clinicore/scheduling-api/pkg/metrics"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	logger.Setup(cfg.Log.Level, cfg.Log.Pretty)

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	repos := scheduling.Repositories{
		Appointments:  postgres.NewAppointmentRepository(db),
		Patients:      postgres.NewPatientRepository(db),
		Professionals: postgres.NewProfessionalRepository(db),
		ServiceTypes:  postgres.NewServiceTypeRepository(db),
		Clinics:       postgres.NewClinicRepository(db),
	}

	auditSvc := audit.NewService(postgres.NewAuditRepository(db))

	var notifier *notification.Service
	if cfg.SMTP.Enabled {
		sender := email.NewSMTPSender(email.SMTPConfig{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
		})
		notifier = notification.NewService(sender)
	}

	registry := prometheus.NewRegistry()
	m := metrics.New("scheduling_api")
	m.Register(registry)

	schedulingSvc := scheduling.NewService(repos, auditSvc, notifier, m, scheduling.Config{
		SlotStep:            cfg.Scheduling.SlotStep(),
		DefaultSlotDuration: cfg.Scheduling.DefaultDuration(),
		ScheduleCacheTTL:    cfg.Scheduling.ScheduleCacheTTL(),
	})

	r := router.NewRouter(
		router.Config{
			RateLimit:  rate.Limit(cfg.Server.RateLimitRPS),
			RateBurst:  cfg.Server.RateLimitBurst,
			Timeout:    time.Duration(cfg.Server.TimeoutSeconds) * time.Second,
			CORSConfig: middleware.DefaultCORSConfig(),
			Registry:   registry,
		},
		appointmentHandler.NewHandler(schedulingSvc),
		auditHandler.NewHandler(auditSvc),
		healthHandler.NewHandler(db, nil),
	)
	r.Setup()

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: r.Engine(),
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("starting scheduling API")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited properly")
}
