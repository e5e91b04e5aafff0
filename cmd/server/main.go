package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/floorwave/relay/internal/config"
	"github.com/floorwave/relay/internal/core"
	"github.com/floorwave/relay/internal/httpapi"
	"github.com/floorwave/relay/internal/media"
	"github.com/floorwave/relay/internal/reaper"
	"github.com/floorwave/relay/internal/signaling"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	// Human-friendly output for terminal; in production you may want JSON only.
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load(os.Args[1:])
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	users := core.NewUserRegistry()
	channels := core.NewChannelRegistry()
	endpoints := core.NewEndpointRegistry(channels)
	floors := core.NewFloorManager(channels,
		time.Duration(cfg.FloorMaxTakenMs)*time.Millisecond,
		time.Duration(cfg.FloorPingTimeoutMs)*time.Millisecond,
	)

	advertiseIP := cfg.AdvertiseIP
	if advertiseIP == "" {
		advertiseIP = detectLocalIP()
	}

	cert, err := media.GenerateServerCert()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to generate dtls certificate")
	}

	ctrl := &signaling.Controller{
		Cfg:       cfg,
		Users:     users,
		Channels:  channels,
		Floors:    floors,
		Endpoints: endpoints,
		SDP: &signaling.SDPBuilder{
			AdvertiseIP: advertiseIP,
			UDPPort:     cfg.UDPPort,
			Fingerprint: cert.Fingerprint,
		},
		NowMs: nowMs,
		MessageLimiter: signaling.NewRateLimiter(cfg.MessageRateLimit, time.Duration(cfg.MessageRateIntervalMs)*time.Millisecond),
		FloorLimiter:   signaling.NewRateLimiter(cfg.FloorRequestRateLimit, time.Duration(cfg.FloorRequestRateIntervalMs)*time.Millisecond),
	}

	udpAddr := &net.UDPAddr{Port: cfg.UDPPort}
	socket, err := net.ListenUDP("udp", udpAddr)
	if err != nil {
		log.Fatal().Err(err).Int("udp_port", cfg.UDPPort).Msg("failed to bind udp media socket")
	}
	defer socket.Close()

	relay := media.NewRelay(socket, endpoints, cert, log.Logger, nowMs)
	go func() {
		log.Info().Str("module", "main").Int("udp_port", cfg.UDPPort).Msg("media relay listening")
		if err := relay.Serve(cfg.DTLSHandshakeTimeoutMs); err != nil {
			log.Error().Err(err).Msg("media relay stopped")
		}
	}()

	ctrl.HandshakesInFlight = relay.HandshakesInFlight

	rp := &reaper.Reaper{
		Users:           users,
		Channels:        channels,
		Endpoints:       endpoints,
		Floors:          floors,
		ZombieTimeoutMs: cfg.ZombieTimeoutMs,
		Interval:        time.Duration(cfg.ReaperIntervalMs) * time.Millisecond,
		NowMs:           nowMs,
		Dispatch:        ctrl.DispatchFloorEvents,
		Log:             log.Logger,
	}
	go rp.Run(ctx)

	r := httpapi.SetupRouter(ctx, cfg, ctrl)
	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		log.Info().Str("module", "main").Str("addr", addr).Msg("floorwave relay started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("http server error")
		}
	}()

	<-ctx.Done()
	log.Info().Str("module", "main").Msg("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http server forced to shutdown")
	}
	log.Info().Str("module", "main").Msg("exited gracefully")
}

func nowMs() int64 { return time.Now().UnixMilli() }

// detectLocalIP opens a UDP socket toward a public address without
// sending any packet, then reads back which local interface the kernel
// picked — the standard trick for finding the outbound IP on a
// multi-homed host.
func detectLocalIP() string {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		log.Warn().Str("module", "main").Err(err).Msg("local ip detection failed, falling back to loopback")
		return "127.0.0.1"
	}
	defer conn.Close()
	return conn.LocalAddr().(*net.UDPAddr).IP.String()
}
