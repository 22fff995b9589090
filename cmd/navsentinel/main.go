package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	configPath string
	fromDate   string
	toDate     string
	aumAsText  bool
)

var rootCmd = &cobra.Command{
	Use:   "navsentinel",
	Short: "Mutual fund NAV cache, index comparison and forecast",
	Long: `NavSentinel caches mutual fund NAV and NIFTY 50 history fetched from
AMFI and Yahoo Finance, compares a fund against the index and forecasts
the next 14 days of NAV.`,
	SilenceUsage: true,
}

func init() {
	defaultConfig := "configs/config.yaml"
	if v := os.Getenv("CONFIG_PATH"); v != "" {
		defaultConfig = v
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", defaultConfig, "Path to the YAML config file")

	for _, c := range []*cobra.Command{seriesCmd, indexCmd, compareCmd, predictCmd} {
		c.Flags().StringVar(&fromDate, "from", "", "Start date, DD-Mon-YYYY")
		c.Flags().StringVar(&toDate, "to", "", "End date, DD-Mon-YYYY")
		_ = c.MarkFlagRequired("from")
		_ = c.MarkFlagRequired("to")
	}
	aumCmd.Flags().BoolVar(&aumAsText, "text", false, "Print the amount formatted in rupees")

	rootCmd.AddCommand(serveCmd, fundsCmd, seriesCmd, indexCmd, compareCmd, predictCmd, aumCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
