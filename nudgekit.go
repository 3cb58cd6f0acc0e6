// Package nudgekit runs the proactive conversation daemon: it polls a Redis
// conversation store for quiet private sessions and asks an LLM whether, and
// about what, to re-engage each one.
package nudgekit

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nudgekit-dev/nudgekit/internal/analyze"
	"github.com/nudgekit-dev/nudgekit/internal/delivery"
	"github.com/nudgekit-dev/nudgekit/internal/discovery"
	"github.com/nudgekit-dev/nudgekit/internal/history"
	"github.com/nudgekit-dev/nudgekit/internal/interval"
	tracing "github.com/nudgekit-dev/nudgekit/internal/observability"
	"github.com/nudgekit-dev/nudgekit/internal/oracle"
	"github.com/nudgekit-dev/nudgekit/internal/poll"
	"github.com/nudgekit-dev/nudgekit/internal/store"
	"github.com/nudgekit-dev/nudgekit/pkg/config"
	"github.com/nudgekit-dev/nudgekit/pkg/observability"
)

// Run loads the configuration, wires the daemon together, and blocks until
// SIGINT or SIGTERM. The nil sink falls back to log-only delivery.
func Run(configPath string, sink delivery.Sink) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	if err := tracing.InitFromEnv(); err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}

	st, err := store.NewRedisStore(store.RedisConfig{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		Prefix:   cfg.Redis.Prefix,
	})
	if err != nil {
		return fmt.Errorf("connect store: %w", err)
	}

	observability.GetHealthChecker().RegisterCheck(&observability.HealthCheck{
		Name:      "redis",
		CheckFunc: st.Ping,
	})

	prov, err := buildOracle(cfg.Oracle)
	if err != nil {
		return err
	}
	decider := oracle.NewDecisionClient(prov)

	pipeline := analyze.New(st, decider, analyze.Options{
		IdleThreshold: interval.ParseIdleThreshold(cfg.NoMessageThreshold),
		Window: history.WindowConfig{
			MaxExchangePairs: cfg.History.MaxExchangePairs,
			TrimFromHead:     cfg.History.TrimFromHead,
		},
		Frequency:   cfg.ReplyFrequency,
		IncludeTime: cfg.EnableTimeCheck,
	})

	if sink == nil {
		sink = delivery.LogSink{}
	}

	poller := poll.New(discovery.New(st), pipeline, sink, poll.Options{
		Interval: interval.ParsePoll(cfg.PollInterval),
		Discovery: discovery.Options{
			AdminOnly: cfg.AdminOnly,
			AdminIDs:  cfg.AdminIDs,
		},
		MaxConcurrent: cfg.Runtime.MaxConcurrentSessions,
	})

	if err := poller.Start(); err != nil {
		return err
	}

	if cfg.DebugTriggerOnStart {
		poller.TriggerNow()
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down daemon...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := poller.Stop(ctx); err != nil {
		log.Printf("Poller shutdown error: %v", err)
	}
	if err := st.Close(); err != nil {
		log.Printf("Store close error: %v", err)
	}
	if err := tracing.Shutdown(ctx); err != nil {
		log.Printf("Tracing shutdown error: %v", err)
	}

	log.Println("Daemon stopped")
	return nil
}

func buildOracle(cfg config.OracleConfig) (oracle.Oracle, error) {
	if !oracle.Has("openai") {
		o, err := oracle.NewOpenAIOracle(cfg)
		if err != nil {
			return nil, fmt.Errorf("build oracle: %w", err)
		}
		oracle.Register("openai", o)
	}

	prov, err := oracle.Get(cfg.Provider)
	if err != nil {
		return nil, fmt.Errorf("build oracle: %w", err)
	}
	return prov, nil
}
