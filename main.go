// Command embermoor runs the pulse-driven telnet MUD server: it loads
// configuration and area data, then starts the login listener and the
// single-threaded pulse loop side by side.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"embermoor/commands"
	"embermoor/internal/area"
	"embermoor/internal/config"
	"embermoor/internal/login"
	"embermoor/internal/pulse"
	"embermoor/internal/record"
	"embermoor/internal/world"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to the server configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "embermoor: %v\n", err)
		os.Exit(1)
	}

	log := newLogger(cfg.LogFormat)
	log.Info("configuration loaded", "listen_address", cfg.ListenAddress, "area_dir", cfg.AreaDir, "player_dir", cfg.PlayerDir)

	loaded, err := area.LoadDir(cfg.AreaDir)
	if err != nil {
		log.Error("failed to load area data", "err", err)
		os.Exit(1)
	}
	w := world.New(loaded.Rooms)
	spawnAreaContent(w, loaded)

	records, err := record.NewStore(cfg.PlayerDir)
	if err != nil {
		log.Error("failed to open player record store", "err", err)
		os.Exit(1)
	}

	ln, err := net.Listen("tcp", cfg.ListenAddress)
	if err != nil {
		log.Error("failed to listen", "addr", cfg.ListenAddress, "err", err)
		os.Exit(1)
	}
	log.Info("listening", "addr", cfg.ListenAddress)

	handoffs := make(chan login.Handoff, cfg.MaxConcurrentLogins)
	pipeline := login.NewPipeline(records, handoffs, log, int64(cfg.MaxConcurrentLogins))

	registry := commands.Default()
	period := time.Duration(cfg.PulseRateMS) * time.Millisecond
	loop := pulse.New(w, records, registry, handoffs, period, log)
	loop.AdminAccount = cfg.AdminAccount

	stop := make(chan struct{})
	ctx, cancel := context.WithCancel(context.Background())

	go acceptLoop(ctx, ln, pipeline, log)
	go loop.Run(stop)

	waitForShutdown(loop, log)

	cancel()
	close(stop)
	ln.Close()
}

// acceptLoop accepts connections until ctx is cancelled, handing each one
// to its own login task. Login tasks never touch the world directly.
func acceptLoop(ctx context.Context, ln net.Listener, pipeline *login.Pipeline, log *slog.Logger) {
	for {
		conn, err := ln.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return
			default:
			}
			log.Warn("accept failed", "err", err)
			continue
		}
		connID := uuid.NewString()
		log.Info("connection accepted", "conn_id", connID, "remote", conn.RemoteAddr())
		go pipeline.Accept(ctx, conn)
	}
}

// waitForShutdown blocks until SIGINT/SIGTERM arrives or the admin shutdown
// command has run its drain-and-persist sequence, whichever comes first.
func waitForShutdown(loop *pulse.Loop, log *slog.Logger) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)
	select {
	case sig := <-sigs:
		log.Info("shutdown signal received", "signal", sig)
	case <-loop.ShutdownRequested():
		log.Info("shutdown requested by admin command")
	}
}

// spawnAreaContent places every area's load-time objects and NPCs into the
// world, run once at startup before any connection is accepted.
func spawnAreaContent(w *world.World, loaded *area.Loaded) {
	for id, room := range loaded.Rooms {
		for _, defID := range room.LoadObjects {
			def, ok := loaded.Objects[defID]
			if !ok {
				continue
			}
			w.SpawnObjectInRoom(world.Object{
				Keywords:        def.Keywords,
				Name:            def.Name,
				RoomDescription: def.RoomDescription,
				Description:     def.Description,
			}, id)
		}
	}
	for _, def := range loaded.Characters {
		home := def.Home
		if _, ok := loaded.Rooms[home]; !ok {
			home = world.StartingRoom
		}
		w.SpawnCharacter(world.Character{
			DefID:           def.ID,
			Keywords:        def.Keywords,
			FormalName:      def.FormalName,
			Description:     def.Description,
			RoomDescription: def.RoomDescription,
			Pronoun:         def.Pronoun,
			Room:            home,
			IsPlayer:        false,
		})
	}
}

func newLogger(format string) *slog.Logger {
	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(os.Stderr, nil)
	} else {
		handler = slog.NewTextHandler(os.Stderr, nil)
	}
	return slog.New(handler)
}
