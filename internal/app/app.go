// Package app assembles the study tracker from configuration. Both the HTTP
// server and the terminal UI start from here.
package app

import (
	"database/sql"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"

	"studytracker/internal/accrual"
	"studytracker/internal/binder"
	"studytracker/internal/catalog"
	"studytracker/internal/config"
	"studytracker/internal/db"
	"studytracker/internal/model"
	"studytracker/internal/notify"
	"studytracker/internal/repository"
	"studytracker/internal/service"
	"studytracker/internal/store"
	"studytracker/internal/timer"
)

// Options override runtime collaborators, mostly for tests.
type Options struct {
	Clock  timer.Clock
	Player notify.Player
}

type App struct {
	Config       config.Config
	DB           *sql.DB
	Store        *store.SessionStore
	Catalog      *catalog.Catalog
	Engine       *timer.Engine
	Synchronizer *accrual.Synchronizer
	Emitter      *notify.Emitter
	Service      *service.StudyService

	logger *log.Logger
}

func New(cfg config.Config, logger *log.Logger, opts Options) (*App, error) {
	if logger == nil {
		logger = log.Default()
	}

	database, err := db.OpenSQLite(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	applied, err := db.RunMigrations(database, cfg.MigrationsDir)
	if err != nil {
		_ = database.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	for _, name := range applied {
		logger.Info("applied migration", "name", name)
	}

	sessionStore := store.NewSessionStore(repository.NewKVRepository(database), logger)

	cat := catalog.New()
	var doc catalog.Document
	if sessionStore.LoadCatalog(&doc) {
		cat.Load(doc)
	}
	cat.OnChange(func() {
		sessionStore.SyncCatalog(func() any { return cat.Document() })
	})

	prefs, err := config.LoadPreferences(cfg.PreferencesPath)
	if err != nil {
		logger.Warn("using default preferences", "path", cfg.PreferencesPath, "err", err)
	}

	player := opts.Player
	if player == nil {
		player = notify.NewBellPlayer(os.Stderr)
	}
	emitter := notify.NewEmitter(player, cfg.SoundEnabled && prefs.SoundEnabled, logger)

	clock := opts.Clock
	if clock == nil {
		clock = timer.SystemClock()
	}

	synchronizer := accrual.NewSynchronizer(cat, sessionStore, clock.Now, logger)
	synchronizer.OnTimeUpdate(func(credit model.Credit) {
		logger.Info("study time credited", "subject", credit.SubjectID, "topic", credit.ModuleID, "minutes", credit.Minutes)
	})
	initial := sessionStore.LoadSnapshot(model.NewTimerState(prefs.WorkDurationMinutes, prefs.BreakDurationMinutes))
	engine := timer.New(initial, sessionStore, synchronizer, emitter, timer.Options{
		TickInterval: cfg.TickInterval,
		Clock:        clock,
		Logger:       logger,
	})

	selectionBinder := binder.New(engine, cat)
	cat.OnChange(selectionBinder.Sync)
	// The catalog may have changed since the snapshot was written.
	selectionBinder.Sync()
	engine.Recover()

	svc := service.NewStudyService(service.Dependencies{
		Engine:          engine,
		Catalog:         cat,
		History:         sessionStore,
		Sound:           emitter,
		Preferences:     prefs,
		PreferencesPath: cfg.PreferencesPath,
		Logger:          logger,
		Now:             clock.Now,
		Location:        time.Local,
	})

	return &App{
		Config:       cfg,
		DB:           database,
		Store:        sessionStore,
		Catalog:      cat,
		Engine:       engine,
		Synchronizer: synchronizer,
		Emitter:      emitter,
		Service:      svc,
		logger:       logger,
	}, nil
}

// Close stops the engine, keeping the snapshot for the next start, waits
// for pending sound cues and closes the database.
func (a *App) Close() error {
	a.Engine.Close()
	a.Emitter.Close()
	if err := a.DB.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}
