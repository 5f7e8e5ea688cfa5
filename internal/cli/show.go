package cli

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/WagnerMushayija/momo-summative/internal/app"
	"github.com/WagnerMushayija/momo-summative/internal/storage"
	"github.com/WagnerMushayija/momo-summative/internal/transaction"
)

var (
	showLimit    int
	showCategory string
	showFrom     string
	showTo       string
	showMin      string
	showMax      string
	showSearch   string
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "List stored transactions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if showLimit <= 0 {
			return fmt.Errorf("--limit must be greater than zero")
		}

		filter := storage.Filter{Limit: showLimit, Search: showSearch}

		if showCategory != "" {
			category, err := transaction.ParseCategory(showCategory)
			if err != nil {
				return fmt.Errorf("invalid --category value: %w", err)
			}
			filter.Category = category
		}

		var err error
		if filter.From, err = parseDay(showFrom); err != nil {
			return fmt.Errorf("invalid --from value: %w", err)
		}
		if filter.To, err = parseDay(showTo); err != nil {
			return fmt.Errorf("invalid --to value: %w", err)
		}
		if !filter.From.IsZero() && !filter.To.IsZero() && !filter.From.Before(filter.To) {
			return fmt.Errorf("--from must be before --to")
		}

		if filter.MinAmount, err = parseAmount(showMin); err != nil {
			return fmt.Errorf("invalid --min value: %w", err)
		}
		if filter.MaxAmount, err = parseAmount(showMax); err != nil {
			return fmt.Errorf("invalid --max value: %w", err)
		}

		return getApp().Show(cmd.Context(), app.ShowOptions{Filter: filter})
	},
}

func init() {
	showCmd.Flags().IntVar(&showLimit, "limit", 20, "Number of transactions to display")
	showCmd.Flags().StringVar(&showCategory, "category", "", "Only this category (label or slug)")
	showCmd.Flags().StringVar(&showFrom, "from", "", "Start (RFC3339 or YYYY-MM-DD, inclusive)")
	showCmd.Flags().StringVar(&showTo, "to", "", "End (RFC3339 or YYYY-MM-DD, exclusive)")
	showCmd.Flags().StringVar(&showMin, "min", "", "Minimum amount")
	showCmd.Flags().StringVar(&showMax, "max", "", "Maximum amount")
	showCmd.Flags().StringVar(&showSearch, "search", "", "Case-insensitive text search over parties, category and message")
}

func parseDay(v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", v)
}

func parseAmount(v string) (*decimal.Decimal, error) {
	if v == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
