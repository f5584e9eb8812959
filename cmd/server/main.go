package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ironrose/server/internal/config"
	"github.com/ironrose/server/internal/core/ecs"
	coresys "github.com/ironrose/server/internal/core/system"
	"github.com/ironrose/server/internal/data"
	"github.com/ironrose/server/internal/netio"
	"github.com/ironrose/server/internal/resources"
	"github.com/ironrose/server/internal/scripting"
	"github.com/ironrose/server/internal/spawner"
	"github.com/ironrose/server/internal/stage"
	"github.com/ironrose/server/internal/storage"
	"github.com/ironrose/server/internal/worldmap"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"
)

// Exit codes per spec.md §6.
const (
	exitOK         = 0
	exitConfigErr  = 1
	exitBindFailed = 2
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		configPath = flag.String("config", "config/server.toml", "path to server.toml")
		hostLogin  = flag.Bool("login", false, "host the login tier")
		hostWorld  = flag.Bool("world", false, "host the world tier")
		hostGame   = flag.Bool("game", false, "host the game tier")
	)
	flag.Parse()

	if !*hostLogin && !*hostWorld && !*hostGame {
		fmt.Fprintln(os.Stderr, "fatal: at least one of --login, --world, --game is required")
		return exitConfigErr
	}

	cfg, err := config.Load(config.Path(*configPath))
	if err != nil {
		fmt.Fprintf(os.Stderr, "fatal: load config: %v\n", err)
		return exitConfigErr
	}

	log, err := newLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "fatal: init logger: %v\n", err)
		return exitConfigErr
	}
	defer log.Sync()

	gameData, err := data.Load(cfg.Storage.DataDir)
	if err != nil {
		log.Error("load game data", zap.Error(err))
		return exitConfigErr
	}

	engine, err := scripting.NewEngine(cfg.Scripting.ScriptsDir, log)
	if err != nil {
		log.Error("init scripting engine", zap.Error(err))
		return exitConfigErr
	}
	defer engine.Close()
	gameData.DropTable = scripting.NewDropTable(engine)

	world := ecs.NewWorld()
	stores := stage.NewStores()
	stores.Register(world.Registry())

	ctx := &stage.Context{
		World:        world,
		Stores:       stores,
		ServerList:   resources.NewServerList(),
		LoginTokens:  resources.NewLoginTokens(),
		ClientEntIDs: resources.NewClientEntityIdList(),
		Messages:     resources.NewServerMessages(),
		WorldTime:    resources.NewWorldTime(),
		GameData:     gameData,
		Accounts:     storage.NewAccountStorage(cfg.Storage.RealmDir),
		Characters:   storage.NewCharacterStorage(cfg.Storage.RealmDir),
		AI:           scripting.NewAI(engine),
		DropTable:    gameData.DropTable,
		Visibility:   worldmap.NewVisibility(),
		Grid:         worldmap.NewGrid(),
		Conns:        make(map[ecs.EntityID]*stage.Conn),
		Log:          log,
	}
	ctx.Spawner = spawner.Bootstrap(gameData, world, stores.ForSpawner(ctx.ClientEntIDs))

	var tierServers []stage.TierServer
	type hostedServer struct {
		tier   stage.Tier
		name   string
		server *netio.Server
	}
	var hosted []hostedServer

	for _, want := range []struct {
		enabled bool
		tier    stage.Tier
		name    string
		addr    string
	}{
		{*hostLogin, stage.TierLogin, "login", cfg.Login.BindAddress},
		{*hostWorld, stage.TierWorld, "world", cfg.World.BindAddress},
		{*hostGame, stage.TierGame, "game", cfg.Game.BindAddress},
	} {
		if !want.enabled {
			continue
		}
		srv, err := netio.NewServer(want.addr, cfg.Network.InQueueSize, cfg.Network.OutQueueSize, log)
		if err != nil {
			log.Error("bind failed", zap.String("tier", want.name), zap.String("addr", want.addr), zap.Error(err))
			return exitBindFailed
		}
		hosted = append(hosted, hostedServer{tier: want.tier, name: want.name, server: srv})
		tierServers = append(tierServers, stage.TierServer{Tier: want.tier, Server: srv})
	}

	runner := coresys.NewRunner(world)
	runner.Register(stage.NewControlServer(ctx, tierServers))
	runner.Register(stage.NewLoginServerAuthentication(ctx))
	runner.Register(stage.NewLoginServer(ctx))
	runner.Register(stage.NewWorldServerAuthentication(ctx))
	runner.Register(stage.NewWorldServer(ctx))
	runner.Register(stage.NewGameServerAuthentication(ctx))
	runner.Register(stage.NewGameServerJoin(ctx))
	runner.Register(stage.NewGameServerMove(ctx))
	runner.Register(stage.NewCommand(ctx))
	runner.Register(stage.NewUpdatePosition(ctx))
	runner.Register(stage.NewClientEntityVisibility(ctx))
	runner.Register(stage.NewMonsterSpawn(ctx))
	runner.Register(stage.NewNpcAI(ctx))
	runner.Register(stage.NewBotAI())
	runner.Register(stage.NewApplyDamage(ctx))
	runner.Register(stage.NewApplyPendingXP())
	runner.Register(stage.NewStatusEffect())
	runner.Register(stage.NewExpireTime(ctx))
	runner.Register(stage.NewWeight())
	runner.Register(stage.NewSave(ctx, uint64(30*time.Second/cfg.Network.TickRate)))
	runner.Register(stage.NewServerMessagesSender(ctx))
	runner.Register(stage.NewCleanupUnreadMessages(ctx))

	var group errgroup.Group
	for _, h := range hosted {
		h := h
		group.Go(func() error {
			h.server.AcceptLoop()
			return nil
		})
		log.Info("tier hosted", zap.String("tier", h.name), zap.String("addr", h.server.Addr().String()))
	}

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	ticker := time.NewTicker(cfg.Network.TickRate)
	defer ticker.Stop()

	log.Info("simulation started", zap.Duration("tick_rate", cfg.Network.TickRate))

	for {
		select {
		case <-ticker.C:
			ctx.WorldTime.Advance(cfg.Network.TickRate)
			ctx.ClientEntIDs.Tick()
			ctx.LoginTokens.Sweep(ctx.WorldTime.Now())
			runner.Tick(cfg.Network.TickRate)
		case sig := <-shutdownCh:
			log.Info("shutdown signal received", zap.String("signal", sig.String()))
			for _, h := range hosted {
				h.server.Shutdown()
			}
			_ = group.Wait()
			log.Info("clean shutdown")
			return exitOK
		}
	}
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
