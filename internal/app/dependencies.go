package app

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/klokku/expensesheets/internal/config"
	"github.com/klokku/expensesheets/internal/event_bus"
	"github.com/klokku/expensesheets/internal/utils"
	"github.com/klokku/expensesheets/pkg/expense"
	"github.com/klokku/expensesheets/pkg/google"
	"github.com/klokku/expensesheets/pkg/sheets"
	"github.com/klokku/expensesheets/pkg/store"
	"github.com/klokku/expensesheets/pkg/user"
)

// Dependencies holds all services and handlers for the application.
type Dependencies struct {
	Clock    utils.Clock
	EventBus *event_bus.EventBus

	UserService user.Service
	UserHandler *user.Handler

	GoogleRepo  google.Repository
	Credentials *google.CredentialManager
	Sessions    *google.SessionService
	GoogleAuth  *google.GoogleAuth

	Gateway       sheets.Gateway
	SheetsHandler *sheets.Handler
	LoginLogger   *sheets.LoginLogger

	StoreService *store.ServiceImpl
	StoreHandler *store.Handler

	ExpenseService *expense.ServiceImpl
	ExpenseHandler *expense.Handler
}

// BuildDependencies initializes and wires all application services and handlers.
func BuildDependencies(db *pgxpool.Pool, cfg config.Application) *Dependencies {
	deps := &Dependencies{}

	deps.Clock = utils.SystemClock{}
	deps.EventBus = event_bus.NewEventBus()

	deps.UserService = user.NewUserService(user.NewUserRepo(db))
	deps.UserHandler = user.NewHandler(deps.UserService)

	oauthConfig := google.NewOAuthConfig(cfg)
	deps.GoogleRepo = google.NewRepository(db)
	deps.Credentials = google.NewCredentialManager(deps.GoogleRepo, oauthConfig, deps.Clock)
	deps.Sessions = google.NewSessionService(deps.GoogleRepo, deps.Clock, cfg.Session.TTL)
	deps.GoogleAuth = google.NewGoogleAuth(
		deps.GoogleRepo,
		deps.Credentials,
		deps.Sessions,
		deps.UserService,
		deps.EventBus,
		oauthConfig,
		cfg,
	)

	deps.Gateway = sheets.NewGoogleGateway(deps.Credentials)
	deps.SheetsHandler = sheets.NewHandler(deps.Gateway, deps.EventBus)
	deps.LoginLogger = sheets.NewLoginLogger(deps.Gateway, cfg.LogSheet, deps.Clock)
	deps.LoginLogger.Subscribe(deps.EventBus)

	deps.StoreService = store.NewService(store.NewRepository(db), deps.Gateway, deps.EventBus, deps.Clock)
	deps.StoreService.Subscribe(deps.EventBus)
	deps.StoreHandler = store.NewHandler(deps.StoreService)

	deps.ExpenseService = expense.NewService(deps.Gateway, cfg.Dashboard.Range, deps.Clock)
	deps.ExpenseHandler = expense.NewHandler(deps.ExpenseService, cfg.Dashboard.RefreshInterval)

	return deps
}
