package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var fundsCmd = &cobra.Command{
	Use:   "funds",
	Short: "List the registered funds",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(background(cmd))
		if err != nil {
			return err
		}
		defer a.Close()
		return printJSON(cmd.OutOrStdout(), a.svc.ListFunds())
	},
}

var seriesCmd = &cobra.Command{
	Use:   "series <fund name>",
	Short: "Print a fund's NAV history and summary statistics",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := background(cmd)
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()
		res, err := a.svc.GetSeries(ctx, args[0], fromDate, toDate)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), map[string]any{"nav_data": res.Series, "stats": res.Stats})
	},
}

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Print NIFTY 50 closes and summary statistics",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := background(cmd)
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()
		res, err := a.svc.GetIndex(ctx, fromDate, toDate)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), map[string]any{"nifty_data": res.Series, "stats": res.Stats})
	},
}

var compareCmd = &cobra.Command{
	Use:   "compare <fund name>",
	Short: "Align a fund with NIFTY 50 and report the correlation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := background(cmd)
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()
		res, err := a.svc.Compare(ctx, args[0], fromDate, toDate)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), map[string]any{"data": res.Points, "correlation": res.Correlation})
	},
}

var predictCmd = &cobra.Command{
	Use:   "predict <fund name>",
	Short: "Forecast the next 14 days of NAV from the given history window",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := background(cmd)
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()
		res, err := a.svc.Predict(ctx, args[0], fromDate, toDate)
		if err != nil {
			return err
		}
		return printJSON(cmd.OutOrStdout(), res)
	},
}

var aumCmd = &cobra.Command{
	Use:   "aum <fund name> <year quarter>",
	Short: `Look up quarterly average AUM, e.g. aum "ITI Dynamic Bond Fund - Direct plan" "January - March 2025"`,
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := background(cmd)
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()
		rec, err := a.svc.GetAum(ctx, args[0], args[1])
		if err != nil {
			return err
		}
		if aumAsText {
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "%s (%s): %s\n", rec.Fund, rec.YearQuarter, formatLakhs(rec.AumLakhs))
			return err
		}
		return printJSON(cmd.OutOrStdout(), rec)
	},
}

// formatLakhs renders an amount in lakhs as rupees.
func formatLakhs(lakhs decimal.Decimal) string {
	paise := lakhs.Mul(decimal.NewFromInt(100_000 * 100)).Round(0).IntPart()
	return money.New(paise, money.INR).Display()
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
