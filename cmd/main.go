package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ukydev/fleetsheet/internal/config"
	"github.com/ukydev/fleetsheet/internal/db"
	"github.com/ukydev/fleetsheet/internal/delivery"
	"github.com/ukydev/fleetsheet/internal/events"
	"github.com/ukydev/fleetsheet/internal/telemetry"
)

const serviceName = "fleetsheet-api"

func newRootCmd() *cobra.Command {
	var envFile string

	rootCmd := &cobra.Command{
		Use:           "fleetsheet",
		Short:         "Timesheets, vehicle reviews and review reports for small fleets",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), loadConfig(envFile))
		},
	}
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "dotenv file to load before the environment")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), loadConfig(envFile))
		},
	}

	indexesCmd := &cobra.Command{
		Use:   "indexes",
		Short: "Create the MongoDB indexes and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig(envFile)
			client, err := db.ConnectMongo(cmd.Context(), cfg.MongoURI)
			if err != nil {
				return err
			}
			defer client.Disconnect(context.Background())
			if err := db.EnsureIndexes(cmd.Context(), client.Database(cfg.MongoDB)); err != nil {
				return err
			}
			log.WithField("database", cfg.MongoDB).Info("Indexes ensured")
			return nil
		},
	}

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(indexesCmd)
	return rootCmd
}

func loadConfig(envFile string) config.Config {
	var cfg config.Config
	if envFile != "" {
		cfg = config.Load(envFile)
	} else {
		cfg = config.Load()
	}
	cfg.ConfigureLogging()
	return cfg
}

func serve(ctx context.Context, cfg config.Config) error {
	shutdownTracing := telemetry.Setup(serviceName, cfg.OTLPEndpoint)
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			log.WithError(err).Warn("Tracer shutdown failed")
		}
	}()

	client, err := db.ConnectMongo(ctx, cfg.MongoURI)
	if err != nil {
		return err
	}
	defer client.Disconnect(context.Background())
	log.Info("Connected to MongoDB")

	database := client.Database(cfg.MongoDB)
	if err := db.EnsureIndexes(ctx, database); err != nil {
		log.WithError(err).Warn("Failed to ensure indexes")
	}

	publisher, closePublisher := newPublisher(cfg)
	defer closePublisher()

	handler, err := buildHandler(cfg, db.NewCollections(database), publisher, newMailer(cfg), func(ctx context.Context) error {
		return client.Ping(ctx, nil)
	})
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.WithField("addr", server.Addr).Info("HTTP server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		log.WithField("signal", sig.String()).Info("Shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// newPublisher connects to the MQTT broker when one is configured. Events are
// advisory, so a broker that cannot be reached falls back to a no-op publisher.
func newPublisher(cfg config.Config) (events.Publisher, func()) {
	if cfg.MQTTBrokerURL == "" {
		return events.NopPublisher{}, func() {}
	}
	publisher, err := events.NewMQTTPublisher(events.MQTTConfig{
		BrokerURL:   cfg.MQTTBrokerURL,
		ClientID:    cfg.MQTTClientID,
		Username:    cfg.MQTTUsername,
		Password:    cfg.MQTTPassword,
		TopicPrefix: cfg.MQTTTopicPrefix,
	})
	if err != nil {
		log.WithError(err).Warn("MQTT unavailable, events disabled")
		return events.NopPublisher{}, func() {}
	}
	log.WithField("broker", cfg.MQTTBrokerURL).Info("Publishing events over MQTT")
	return publisher, publisher.Close
}

func newMailer(cfg config.Config) delivery.Mailer {
	if cfg.SMTPHost == "" {
		log.Warn("SMTP_HOST not set, report emails are logged instead of sent")
		return delivery.LogMailer{}
	}
	return delivery.NewSMTPMailer(delivery.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
	})
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		log.WithError(err).Fatal("fleetsheet exited")
	}
}
