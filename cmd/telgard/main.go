// Command telgard runs the game server: it loads the catalog and map files,
// connects the database, starts one actor per map plus the world
// coordinator, and serves the client protocol over TCP.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/telgard/server/internal/config"
	"github.com/telgard/server/internal/gamemap"
	"github.com/telgard/server/internal/handler"
	"github.com/telgard/server/internal/lang"
	"github.com/telgard/server/internal/net"
	"github.com/telgard/server/internal/persist"
	"github.com/telgard/server/internal/player"
	"github.com/telgard/server/internal/protocol"
	"github.com/telgard/server/internal/pub"
	"github.com/telgard/server/internal/scripting"
	"github.com/telgard/server/internal/world"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	configPath := flag.String("config", "config.toml", "path to config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	log, err := buildLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer log.Sync()

	log.Info("伺服器啟動中", zap.String("name", cfg.Server.Name))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tables, err := pub.Load(cfg.Server.PubDir)
	if err != nil {
		return fmt.Errorf("load pub files: %w", err)
	}
	mapFiles, err := pub.LoadMaps(cfg.Server.MapDir)
	if err != nil {
		return fmt.Errorf("load map files: %w", err)
	}
	log.Info("資料檔載入完成",
		zap.Int("items", len(tables.Items)),
		zap.Int("npcs", len(tables.Npcs)),
		zap.Int("maps", len(mapFiles)),
	)

	langT, err := lang.Load(cfg.Server.LangDir, cfg.Server.Language)
	if err != nil {
		return fmt.Errorf("load lang table: %w", err)
	}

	formulas, err := scripting.NewEngine(cfg.Server.ScriptsDir, log)
	if err != nil {
		return fmt.Errorf("load formula scripts: %w", err)
	}
	defer formulas.Close()

	db, err := persist.NewDB(ctx, cfg.Database, log)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()
	if err := persist.RunMigrations(ctx, db.Pool); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	accounts := persist.NewAccountRepo(db)
	characters := persist.NewCharacterRepo(db)
	guilds := persist.NewGuildRepo(db)

	// The warp transit map hosts characters mid-warp; it has no file on
	// disk and no client ever sees it.
	mapFiles[gamemap.NirvanaID] = pub.EmptyMap(gamemap.NirvanaID, 10, 10)

	maps := make(map[int]*gamemap.Map, len(mapFiles))
	for id, file := range mapFiles {
		m := gamemap.New(file, cfg, tables, formulas, log)
		maps[id] = m
		go m.Run()
	}

	w := world.New(cfg, langT, maps, characters, log)
	go w.Run()
	go w.Ticker(ctx)

	reg := protocol.NewRegistry(log.Named("registry"))
	handler.RegisterAll(reg, &handler.Deps{
		Cfg:        cfg,
		Log:        log.Named("handler"),
		World:      w,
		Tables:     tables,
		Maps:       mapFiles,
		Lang:       langT,
		Accounts:   accounts,
		Characters: characters,
		Guilds:     guilds,
	})

	srv := net.NewServer(cfg, log, func(sess *net.Session) {
		p := player.New(sess, cfg, reg, w, log.Named("player"))
		w.AddPlayer(p)
	})

	err = srv.ListenAndServe(ctx)
	log.Info("伺服器關機中")
	w.Shutdown()
	return err
}

func buildLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	zc := zap.NewProductionConfig()
	if cfg.Format == "console" {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)
	return zc.Build()
}
