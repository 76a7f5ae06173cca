package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/seenimoa/quotechat/internal/intent"
	"github.com/seenimoa/quotechat/internal/resolver"
	"github.com/seenimoa/quotechat/pkg/utils"
)

// --- Quote Command ---

var quoteCmd = &cobra.Command{
	Use:   "quote [pair]",
	Short: "Resolve a live quote without the language model",
	Long: `Resolve a live quote through the configured provider chain.

Examples:
  quotechat quote BTC/USDT
  quotechat quote eurusd
  quotechat quote XAU-USD --json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		inst, err := intent.ParseInstrument(args[0])
		if err != nil {
			return err
		}
		a, err := buildApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.Close()

		q, err := a.resolver.Resolve(cmd.Context(), inst)
		if err != nil {
			var noData *resolver.NoDataError
			if errors.As(err, &noData) {
				fmt.Printf("❌ No data for %s (tried: %s)\n", inst.Symbol(), strings.Join(noData.Providers(), ", "))
				for _, at := range noData.Attempts {
					fmt.Printf("   %-16s %-12s %v\n", at.Provider, at.Kind, at.Err)
				}
			}
			return err
		}

		if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(q)
		}
		fmt.Printf("%s  %s  %s\n", q.Instrument.Symbol(), q.DisplayPrice, utils.FormatPct(q.ChangePercent24h))
		fmt.Printf("   %s · source: %s · as of %s\n", q.Instrument.DisplayName(), q.Source, utils.FormatAsOf(q.AsOf))
		return nil
	},
}

func init() {
	quoteCmd.Flags().Bool("json", false, "print the quote as JSON")
}

// --- Classify Command ---

var classifyCmd = &cobra.Command{
	Use:   "classify [text]",
	Short: "Show how a message would be classified",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		res := intent.Classify(strings.Join(args, " "))
		fmt.Printf("%s  (rule: %s)\n", res, res.Rule)
		return nil
	},
}
