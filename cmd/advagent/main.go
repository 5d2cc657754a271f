package main

import (
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/advagent/advagent/internal/agent"
	"github.com/advagent/advagent/internal/budget"
	"github.com/advagent/advagent/internal/config"
	"github.com/advagent/advagent/internal/plugin"
	"github.com/advagent/advagent/internal/telemetry"
	"github.com/advagent/advagent/internal/watchdog"
	"github.com/advagent/advagent/internal/web"
)

const watchdogInterval = 30 * time.Second

func main() {
	var (
		configPath = flag.String("config", "", "Path to YAML config file (optional)")
		watchFlag  = flag.Bool("watch", false, "Reload the config file on change")
		execLog    = flag.String("exec-log", "", "Path to markdown execution log (optional)")
		oneShot    = flag.Bool("report", false, "Print an execution report and exit")
	)
	flag.Parse()

	// Load .env file, then layer: defaults → config file → environment.
	config.LoadEnv()
	cfg := config.Default()
	if *configPath != "" {
		if err := cfg.LoadFile(*configPath); err != nil {
			log.Fatalf("❌ Failed to load config file: %v", err)
		}
	}
	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("❌ Invalid configuration: %v", err)
	}

	b, err := budget.NewWithThresholds(cfg.TokenBudget, cfg.WarningThreshold, cfg.CriticalThreshold)
	if err != nil {
		log.Fatalf("❌ Failed to create token budget: %v", err)
	}
	a := agent.NewWithLimits(b, cfg.MaxValidationErrors, cfg.MaxRetryAttempts)

	if *oneShot {
		fmt.Print(a.GenerateReport())
		return
	}

	fmt.Println(`  advagent — token budget & task lifecycle tracker`)
	fmt.Printf("💰 Token budget: %d (warn %.0f%%, critical %.0f%%)\n",
		cfg.TokenBudget, cfg.WarningThreshold*100, cfg.CriticalThreshold*100)

	if *execLog != "" {
		l, err := agent.NewExecLogger(*execLog)
		if err != nil {
			log.Fatalf("❌ Failed to create exec log: %v", err)
		}
		defer l.Close()
		l.StartSession("")
		a.SetExecLog(l)
		fmt.Printf("📝 Execution log: %s\n", *execLog)
	}

	collector := telemetry.NewCollector(0)
	collector.SetGauge("token_budget_total", float64(cfg.TokenBudget))

	wd := watchdog.New(watchdogInterval)
	wd.RegisterCheck("token_budget", func() bool {
		return b.Status() != budget.StatusCritical
	})
	wd.RegisterCheck("validation_errors", func() bool {
		count, max := a.ValidationErrors()
		return count < max
	})
	wd.Start()
	defer wd.Close()

	plugins := plugin.NewManager()
	defer plugins.DisableAll()

	if *watchFlag && *configPath != "" {
		// The budget total and ceilings are fixed for the agent's lifetime;
		// a reload updates the observable gauges and logs the rest.
		w, err := config.NewWatcher(*configPath, config.FromEnv(), func(next config.Config) {
			collector.SetGauge("token_budget_total", float64(next.TokenBudget))
			if next.TokenBudget != cfg.TokenBudget {
				log.Printf("[Main] token_budget changed to %d; applies on next start", next.TokenBudget)
			}
		})
		if err != nil {
			log.Fatalf("❌ Failed to watch config: %v", err)
		}
		defer w.Close()
		fmt.Printf("👀 Watching config: %s\n", *configPath)
	}

	server := web.NewServer(a, wd, collector, cfg.WebPort)
	if err := server.Start(); err != nil {
		log.Fatalf("❌ Server error: %v", err)
	}
}
