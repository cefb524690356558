package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/ANTO-REMY/remy-care-connect-sub000/common/database"
	"github.com/ANTO-REMY/remy-care-connect-sub000/common/logger"
	"github.com/ANTO-REMY/remy-care-connect-sub000/common/mqtt"
	"github.com/ANTO-REMY/remy-care-connect-sub000/common/redisutil"
	"github.com/ANTO-REMY/remy-care-connect-sub000/internal/config"
	"github.com/ANTO-REMY/remy-care-connect-sub000/internal/dispatcher"
	"github.com/ANTO-REMY/remy-care-connect-sub000/internal/domain"
	"github.com/ANTO-REMY/remy-care-connect-sub000/internal/httpapi"
	"github.com/ANTO-REMY/remy-care-connect-sub000/internal/identity"
	"github.com/ANTO-REMY/remy-care-connect-sub000/internal/ingest"
	"github.com/ANTO-REMY/remy-care-connect-sub000/internal/repository"
	"github.com/ANTO-REMY/remy-care-connect-sub000/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, "careconnect-sync")
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	// Stores: postgres in production, in-memory when DB is disabled or
	// unreachable (local dev and demos keep working without infra).
	var (
		db           *sql.DB
		escalations  repository.EscalationsRepository
		appointments repository.AppointmentsRepository
		assignments  repository.AssignmentsRepository
		checkins     repository.CheckInsRepository
		events       repository.EventsRepository
	)
	if cfg.DBEnabled {
		if d, err := database.NewPostgresDB(&cfg.Database); err == nil {
			db = d
			log.Info("DB enabled for careconnect-sync")
		} else {
			log.Warn("DB enabled but connection failed, falling back to memory stores", zap.Error(err))
		}
	}
	if db != nil {
		escalations = repository.NewPostgresEscalationsRepository(db)
		appointments = repository.NewPostgresAppointmentsRepository(db)
		assignments = repository.NewPostgresAssignmentsRepository(db)
		checkins = repository.NewPostgresCheckInsRepository(db)
		events = repository.NewPostgresEventsRepository(db)
	} else {
		eventLog := repository.NewMemoryEventLog()
		escalations = repository.NewMemoryEscalationsRepository(eventLog)
		appointments = repository.NewMemoryAppointmentsRepository(eventLog)
		assignments = repository.NewMemoryAssignmentsRepository()
		checkins = repository.NewMemoryCheckInsRepository(eventLog)
		events = eventLog
	}

	roster := service.NewRosterCache(assignments, time.Duration(cfg.Sync.RosterTTL)*time.Second, log)
	hub := dispatcher.NewHub(roster, cfg.Sync.SubscriberBuffer, log)

	var redisClient *redisutil.Client
	if cfg.RedisEnabled {
		redisClient = redisutil.NewRedisClient(&cfg.Redis)
		pingCtx, pingCancel := context.WithTimeout(context.Background(), 3*time.Second)
		if err := redisutil.Ping(pingCtx, redisClient); err != nil {
			log.Warn("redis unreachable, events will fan out locally only", zap.Error(err))
			_ = redisutil.Close(redisClient)
			redisClient = nil
		}
		pingCancel()
	}
	disp := dispatcher.New(redisClient, hub, log)

	// Identity: external auth service when configured, else the seeded dev
	// token store.
	var resolver identity.Resolver
	if cfg.Auth.URL != "" {
		resolver = identity.NewClient(cfg.Auth.URL, log)
	} else {
		store := identity.NewStore()
		seedDevTokens(store, log)
		resolver = store
	}

	escalationSvc := service.NewEscalationService(escalations, checkins, roster, disp, log)
	appointmentSvc := service.NewAppointmentService(appointments, assignments, disp, log)
	checkinSvc := service.NewCheckInService(checkins, roster, disp, log)
	assignmentSvc := service.NewAssignmentService(assignments, roster, log)
	syncSvc := service.NewSyncService(events, roster)

	auth := httpapi.NewAuthMiddleware(resolver, log)
	router := httpapi.NewRouter(log)
	router.RegisterSyncRoutes(
		auth,
		httpapi.NewEscalationHandler(escalationSvc, log),
		httpapi.NewExportHandler(escalationSvc, log),
		httpapi.NewAppointmentHandler(appointmentSvc, log),
		httpapi.NewCheckInHandler(checkinSvc, log),
		httpapi.NewSyncHandler(syncSvc, hub, log),
		httpapi.NewRosterHandler(assignmentSvc, log),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if redisClient != nil {
		hostname, _ := os.Hostname()
		consumer := dispatcher.NewStreamConsumer(redisClient, hub, hostname, log)
		go func() {
			if err := consumer.Start(ctx); err != nil && ctx.Err() == nil {
				log.Error("sync stream consumer stopped", zap.Error(err))
			}
		}()
	}

	var mqttClient *mqtt.Client
	if cfg.Ingest.Enabled {
		mc, err := mqtt.NewClient(&cfg.Ingest.MQTT)
		if err != nil {
			log.Warn("MQTT broker unreachable, gateway ingest disabled", zap.Error(err))
		} else {
			mqttClient = mc
			consumer := ingest.NewCheckInConsumer(mqttClient, checkinSvc, cfg.Ingest.Topic, cfg.Ingest.MQTT.QoS, log)
			if err := consumer.Start(); err != nil {
				log.Error("gateway ingest start failed", zap.Error(err))
			}
		}
	}

	srv := service.NewServer(cfg.HTTP.Addr, router, log)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigCh:
		cancel()
	case <-errCh:
		cancel()
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = srv.Stop(shutdownCtx)
	disp.Close()
	if mqttClient != nil {
		mqttClient.Disconnect()
	}
	if redisClient != nil {
		_ = redisutil.Close(redisClient)
	}
	if db != nil {
		_ = db.Close()
	}
}

// seedDevTokens registers deterministic bearer tokens for local testing when
// no auth service is configured.
func seedDevTokens(store *identity.Store, log *zap.Logger) {
	if os.Getenv("SEED_DEV_TOKENS") == "false" {
		return
	}
	store.Register("dev-mother", domain.Actor{ID: "mother-1", Role: domain.RoleMother, Name: "Dev Mother"})
	store.Register("dev-chw", domain.Actor{ID: "chw-1", Role: domain.RoleCHW, Name: "Dev CHW"})
	store.Register("dev-nurse", domain.Actor{ID: "nurse-1", Role: domain.RoleNurse, Name: "Dev Nurse"})
	log.Info("dev tokens seeded: dev-mother, dev-chw, dev-nurse")
}
