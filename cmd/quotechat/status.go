package main

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/seenimoa/quotechat/internal/config"
	"github.com/seenimoa/quotechat/internal/provider"
	"github.com/seenimoa/quotechat/pkg/models"
	"github.com/seenimoa/quotechat/pkg/utils"
)

// probeInstruments is the instrument each class is probed with.
var probeInstruments = map[models.AssetClass]models.Instrument{
	models.ClassCrypto: {Base: "BTC", Quote: "USDT", Class: models.ClassCrypto},
	models.ClassForex:  {Base: "EUR", Quote: "USD", Class: models.ClassForex},
	models.ClassMetal:  {Base: "XAU", Quote: "USD", Class: models.ClassMetal},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show system status and configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := buildApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		fmt.Println("═══════════════════════════════════════")
		fmt.Println("  quotechat — System Status")
		fmt.Println("═══════════════════════════════════════")
		fmt.Printf("  Version:       %s (%s)\n", version, commit)
		fmt.Printf("  Time (UTC):    %s\n", utils.FormatAsOf(utils.NowUTC()))
		fmt.Println()

		fmt.Println("  Configuration:")
		fmt.Printf("    LLM Provider:  %s (model: %s)\n", cfg.LLM.Primary, cfg.LLM.Model)
		if a.model != nil {
			fmt.Printf("    LLM Chain:     %v\n", a.model.ProviderNames())
		}
		fmt.Printf("    Prefs Store:   %s\n", cfg.Prefs.Driver)
		fmt.Printf("    News:          %v\n", cfg.News.Enabled)
		fmt.Printf("    API Server:    %s\n", cfg.API.Addr())
		fmt.Println()

		fmt.Println("  Provider Chains:")
		chains := a.registry.Chains()
		classes := make([]string, 0, len(chains))
		for class := range chains {
			classes = append(classes, string(class))
		}
		sort.Strings(classes)
		for _, class := range classes {
			fmt.Printf("    %-8s %v\n", class+":", chains[models.AssetClass(class)])
		}
		if missing := a.registry.Missing(); len(missing) > 0 {
			fmt.Printf("    (not registered: %v)\n", missing)
		}
		fmt.Println()

		fmt.Println("  API Keys:")
		for _, k := range config.CheckAPIKeys(cfg) {
			status := "❌ not set"
			if k.IsSet {
				status = fmt.Sprintf("✅ set (%s: %s)", k.Source, k.Masked)
			}
			fmt.Printf("    %-25s %s\n", k.Name+":", status)
		}

		if probe, _ := cmd.Flags().GetBool("probe"); probe {
			fmt.Println()
			fmt.Println("  Probes:")
			for _, line := range probeAdapters(cmd.Context(), a.registry, cfg.Providers.Timeout) {
				fmt.Println("    " + line)
			}
			if a.model != nil {
				for name, err := range a.model.HealthCheck(cmd.Context()) {
					fmt.Printf("    %-16s %s\n", "llm/"+name, okOrErr(err))
				}
			}
		}

		fmt.Println("═══════════════════════════════════════")
		return nil
	},
}

func init() {
	statusCmd.Flags().Bool("probe", false, "fetch a live quote from every adapter and ping the language models")
}

// probeAdapters fetches one quote from every registered adapter
// concurrently and returns one result line per adapter, sorted by name.
func probeAdapters(ctx context.Context, reg *provider.Registry, timeout time.Duration) []string {
	var (
		mu    sync.Mutex
		lines []string
	)
	var g errgroup.Group
	for _, info := range reg.List() {
		adapter, err := reg.Get(info.Name)
		if err != nil {
			continue
		}
		g.Go(func() error {
			line := probeOne(ctx, adapter, timeout)
			mu.Lock()
			lines = append(lines, line)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	sort.Strings(lines)
	return lines
}

func probeOne(ctx context.Context, a provider.Adapter, timeout time.Duration) string {
	info := a.Info()
	var inst models.Instrument
	for _, class := range info.Classes {
		if i, ok := probeInstruments[class]; ok && a.Supports(i) {
			inst = i
			break
		}
	}
	if inst.IsZero() {
		return fmt.Sprintf("%-16s skipped (no probe instrument)", info.Name)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	start := time.Now()
	q, err := a.Fetch(ctx, inst)
	if err != nil {
		return fmt.Sprintf("%-16s %s %s", info.Name, inst.Symbol(), okOrErr(err))
	}
	return fmt.Sprintf("%-16s %s ✅ %s (%s)", info.Name, inst.Symbol(), q.Price.String(), time.Since(start).Round(time.Millisecond))
}

func okOrErr(err error) string {
	if err == nil {
		return "✅ ok"
	}
	return "❌ " + utils.Truncate(err.Error(), 80)
}
