// Interpreter API reads the meter, decodes every message and broadcasts the
// readings.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/NotCoffee418/amshan_reader/pkg/api"
	"github.com/NotCoffee418/amshan_reader/pkg/autodecoder"
	"github.com/NotCoffee418/amshan_reader/pkg/config"
	"github.com/NotCoffee418/amshan_reader/pkg/logging"
	"github.com/NotCoffee418/amshan_reader/pkg/measurequeue"
	"github.com/NotCoffee418/amshan_reader/pkg/metrics"
	"github.com/NotCoffee418/amshan_reader/pkg/mqttsource"
	"github.com/NotCoffee418/amshan_reader/pkg/port_reader"
	"github.com/NotCoffee418/amshan_reader/pkg/processor"
	"github.com/NotCoffee418/amshan_reader/pkg/types"
	"github.com/rs/zerolog/log"
)

func main() {
	logging.InitLogger("interpreter_api", "")

	if err := config.LoadInterpreterAPIConfig(); err != nil {
		log.Fatal().Err(err).Msg("failed to load interpreter API config")
	}
	cfg := config.ActiveInterpreterAPIConfig
	logging.InitLogger("interpreter_api", cfg.LogLevel)
	metrics.RegisterMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	queue, err := cfg.Queue.NewQueue()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid queue config")
	}

	closeSource, err := startSource(ctx, cfg.Connection, queue)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to start meter connection")
	}

	server := api.NewServer()
	proc := processor.New(queue, autodecoder.New(nil), server.Dispatch,
		processor.WithScaleFactor(cfg.ScaleFactor))
	processorDone := make(chan struct{})
	go func() {
		defer close(processorDone)
		if err := proc.Run(context.Background()); err != nil {
			log.Error().Err(err).Msg("processor stopped")
		}
	}()

	listener := fmt.Sprintf("%s:%d", cfg.ListenAddress, cfg.ListenPort)
	httpServer := &http.Server{
		Addr:              listener,
		Handler:           server.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Info().Str("listen", listener).Str("connection", cfg.Connection.InferType()).Msg("starting AMS/HAN interpreter API")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	if err := closeSource(); err != nil {
		log.Warn().Err(err).Msg("error closing meter connection")
	}
	if err := queue.Put(context.Background(), types.StopMessage{}); err != nil {
		log.Warn().Err(err).Msg("failed to stop processor")
	}
	select {
	case <-processorDone:
	case <-time.After(5 * time.Second):
		log.Warn().Msg("processor did not stop in time")
	}

	server.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Warn().Err(err).Msg("http shutdown failed")
	}
}

// startSource starts feeding queue from the configured connection and
// returns a func that stops it.
func startSource(ctx context.Context, conn config.ConnectionConfig, queue *measurequeue.Queue) (func() error, error) {
	if conn.InferType() == config.ConnectionMQTT {
		subscriber, err := mqttsource.Connect(ctx, conn.MQTTOptions(), queue)
		if err != nil {
			return nil, err
		}
		log.Info().Strs("topics", subscriber.Topics()).Msg("subscribed to meter topics")
		return subscriber.Close, nil
	}

	factory, err := conn.ConnectionFactory()
	if err != nil {
		return nil, err
	}
	manager := port_reader.NewConnectionManager(factory, queue)
	go func() {
		if err := manager.ConnectLoop(ctx); err != nil {
			log.Error().Err(err).Msg("connection loop stopped")
		}
	}()
	return manager.Close, nil
}
