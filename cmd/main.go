package main

import (
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gorilla/mux"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/n1k61n/web3-sosial/db"
	"github.com/n1k61n/web3-sosial/handlers"
	"github.com/n1k61n/web3-sosial/host"
	"github.com/n1k61n/web3-sosial/ledger"
	"github.com/n1k61n/web3-sosial/logger"
	"github.com/n1k61n/web3-sosial/notifier"
	"github.com/n1k61n/web3-sosial/repository"
	"github.com/n1k61n/web3-sosial/routers"
	"github.com/n1k61n/web3-sosial/social"
)

func main() {
	// Load config
	viper.SetConfigFile("config/config.yaml")
	if err := viper.ReadInConfig(); err != nil {
		fmt.Println("Config file error:", err)
		os.Exit(1)
	}
	viper.SetDefault("ledger.initial_supply", 1000000)
	viper.SetDefault("ledger.daily_limit", ledger.DefaultDailyLimit)
	viper.SetDefault("rewards.post", ledger.DefaultPostReward)
	viper.SetDefault("rewards.like", ledger.DefaultLikeReward)
	viper.SetDefault("rewards.comment", ledger.DefaultCommentReward)
	viper.SetDefault("mirror.snapshot_every", 100)

	if err := logger.InitLogger(viper.GetString("log.app_log_file"), viper.GetString("log.level")); err != nil {
		fmt.Println("Failed to initialize logger:", err)
		os.Exit(1)
	}

	logger.Logger.Info("Starting w3social core...")

	// Open the mirror store
	ldb, err := db.NewLevelDB(viper.GetString("leveldb.path"))
	if err != nil {
		logger.Logger.Fatal("Failed to open leveldb", zap.Error(err))
	}
	defer ldb.Close()
	mirror := repository.NewLevelDBMirror(ldb)

	// Build the core: policy, ledger, graph, host
	policy := ledger.NewPolicy(map[string]int64{
		ledger.ActionPost:    viper.GetInt64("rewards.post"),
		ledger.ActionLike:    viper.GetInt64("rewards.like"),
		ledger.ActionComment: viper.GetInt64("rewards.comment"),
	}, viper.GetInt64("ledger.daily_limit"))

	tokenLedger := ledger.New(
		viper.GetString("ledger.owner"),
		viper.GetInt64("ledger.initial_supply"),
		policy,
		ledger.SystemClock,
	)
	graph := social.NewGraph(tokenLedger, ledger.SystemClock)

	h := host.New(tokenLedger, graph, mirror, notifier.NewLogNotifier(),
		ledger.SystemClock, viper.GetUint64("mirror.snapshot_every"))

	// Resume from the latest checkpoint, if one exists
	if err := h.RestoreLatest(); err != nil {
		logger.Logger.Fatal("Failed to restore checkpoint", zap.Error(err))
	}

	// HTTP gateway
	router := mux.NewRouter()
	routers.RegisterRoutes(router, handlers.NewHandler(h))

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", viper.GetInt("server.port")),
		Handler: router,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil {
			logger.Logger.Info("Server stopped", zap.Error(err))
		}
	}()

	logger.Logger.Info("Server running on port", zap.Int("port", viper.GetInt("server.port")))

	// Graceful shutdown with a final checkpoint
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	<-sigCh
	logger.Logger.Info("Shutdown signal received, exiting...")
	if err := h.Checkpoint(); err != nil {
		logger.Logger.Error("Final checkpoint failed", zap.Error(err))
	}
	srv.Close()
}
