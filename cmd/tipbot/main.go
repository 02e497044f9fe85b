package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rraallvv/Nimiq-Twitter-Tip/internal/bot"
	"github.com/rraallvv/Nimiq-Twitter-Tip/internal/config"
	"github.com/rraallvv/Nimiq-Twitter-Tip/internal/directory"
	"github.com/rraallvv/Nimiq-Twitter-Tip/internal/metrics"
	"github.com/rraallvv/Nimiq-Twitter-Tip/internal/notify"
	"github.com/rraallvv/Nimiq-Twitter-Tip/internal/rpc"
	"github.com/rraallvv/Nimiq-Twitter-Tip/internal/stream"
	"github.com/rraallvv/Nimiq-Twitter-Tip/internal/wallet"
)

var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	configPath := flag.String("config", "twitter.yml", "path to the settings file")
	envPath := flag.String("env", "", "path to a dotenv file with credentials (optional)")
	metricsAddr := flag.String("metrics-addr", "", "prometheus listen address (optional)")
	flag.Parse()
	if *showVersion {
		fmt.Printf("tipbot version=%s commit=%s build_date=%s\n", version, commit, buildDate)
		return
	}

	log := slog.New(slog.NewJSONHandler(os.Stderr, nil))

	if *envPath != "" {
		if err := godotenv.Load(*envPath); err != nil {
			log.Error("could not load env file", "path", *envPath, "error", err)
			os.Exit(1)
		}
	} else {
		_ = godotenv.Load()
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("could not load configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, *metricsAddr, log); err != nil {
		log.Error("tipbot failed", "error", err)
		os.Exit(1)
	}
	log.Info("tipbot stopped")
}

func run(ctx context.Context, cfg config.Config, metricsAddr string, log *slog.Logger) error {
	client := rpc.NewClient(cfg.RPC.Host, cfg.RPC.Port, cfg.RPC.Username, cfg.RPC.Password)

	// Startup health check: an unreachable daemon is fatal.
	log.Info("connecting to RPC API", "coin", cfg.Coin.FullName, "host", cfg.RPC.Host, "port", cfg.RPC.Port)
	height, err := client.BlockNumber(ctx)
	if err != nil {
		return fmt.Errorf("could not connect to %s RPC API: %w", cfg.Coin.FullName, err)
	}
	log.Info("connected to RPC API", "coin", cfg.Coin.FullName, "height", height)

	conv := wallet.NewConverter(cfg.Coin.InvPrecision)
	settings, err := buildSettings(cfg, conv)
	if err != nil {
		return err
	}

	store, closeStore, err := openStore(ctx, cfg.Directory)
	if err != nil {
		return fmt.Errorf("could not open identity store: %w", err)
	}
	defer closeStore()

	decoder, err := bot.NewDecoder(cfg.Handle, cfg.Coin.FullName, cfg.Coin.AddressPattern, conv)
	if err != nil {
		return fmt.Errorf("could not compile command patterns: %w", err)
	}

	responder := stream.NewKafkaResponder(cfg.Stream.Brokers, cfg.Stream.OutboundTopic)
	defer responder.Close()
	source := stream.NewKafkaSource(cfg.Stream.Brokers, cfg.Stream.InboundTopic, cfg.Stream.GroupID, log)
	defer source.Close()

	var notifier bot.Notifier
	if cfg.Notify.SMTPHost != "" {
		notifier = notify.NewSMTP(cfg.Notify.SMTPHost, cfg.Notify.SMTPPort,
			cfg.Notify.Username, cfg.Notify.Password, cfg.Notify.From, cfg.Notify.Recipient)
	} else {
		notifier = notify.LogNotifier{Log: log}
	}

	dispatcher := bot.NewDispatcher(settings, conv, decoder, bot.Deps{
		Directory: directory.New(store, client),
		Balances:  wallet.NewResolver(client),
		Ledger:    client,
		Responder: responder,
		Notifier:  notifier,
		Limiter:   bot.NewSenderLimiter(cfg.RateLimit.PerSenderRPS, cfg.RateLimit.Burst),
		Metrics:   metrics.New(prometheus.DefaultRegisterer),
		Log:       log,
	})

	if metricsAddr != "" {
		go func() {
			if err := http.ListenAndServe(metricsAddr, promhttp.Handler()); err != nil {
				log.Error("metrics listener failed", "error", err)
			}
		}()
	}

	log.Info("tipbot started", "handle", cfg.Handle)
	return source.Run(ctx, func(ctx context.Context, msg stream.Message) {
		go dispatcher.HandleMessage(ctx, msg)
	})
}

func buildSettings(cfg config.Config, conv wallet.Converter) (bot.Settings, error) {
	fee, err := conv.Parse(cfg.Coin.MinerFee)
	if err != nil {
		return bot.Settings{}, fmt.Errorf("coin.minerFee: %w", err)
	}
	minTip, err := conv.Parse(cfg.Coin.MinTip)
	if err != nil {
		return bot.Settings{}, fmt.Errorf("coin.minTip: %w", err)
	}
	minWithdraw, err := conv.Parse(cfg.Coin.MinWithdraw)
	if err != nil {
		return bot.Settings{}, fmt.Errorf("coin.minWithdraw: %w", err)
	}
	return bot.Settings{
		Handle:           cfg.Handle,
		FullName:         cfg.Coin.FullName,
		ShortName:        cfg.Coin.ShortName,
		Fee:              fee,
		MinTip:           minTip,
		MinWithdraw:      minWithdraw,
		MinConfirmations: wallet.Depth(cfg.Coin.MinConfirmations),
		TokenPrefix:      cfg.Coin.TokenPrefix,
		TokenLength:      cfg.Coin.TokenLength,
	}, nil
}

func openStore(ctx context.Context, cfg config.DirectoryConfig) (directory.Store, func(), error) {
	switch cfg.Backend {
	case "postgres":
		store, err := directory.OpenPostgres(ctx, cfg.DSN)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { store.Close() }, nil
	default:
		store, err := directory.OpenFile(cfg.Path, cfg.Passphrase)
		if err != nil {
			return nil, nil, err
		}
		return store, func() {}, nil
	}
}
