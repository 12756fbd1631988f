// Command budgetwise is a terminal client for a BudgetWise API: it syncs the
// signed-in owner's ledger and prints totals, budgets and trends in the
// chosen display currency.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/shopspring/decimal"

	"budgetwise/internal/backend"
	"budgetwise/internal/client"
	"budgetwise/internal/config"
	"budgetwise/internal/currency"
	"budgetwise/internal/finance"
	"budgetwise/internal/localstate"
	"budgetwise/internal/logger"
	"budgetwise/internal/middleware"
	"budgetwise/internal/models"
	"budgetwise/internal/syncer"
)

const usageText = `usage: budgetwise [flags] <command> [args]

commands:
  summary                       print the dashboard (default)
  watch                         keep syncing and redraw on every change
  add <income|expense> <amount> <category> [description]
  budget <category> <limit> [monthly|yearly]
  invest <type> <name> <amount> [symbol]
  delete <transaction-id>
  reset                         delete every transaction
  currency [code]               show or set the display currency
  export <file.xlsx>            download the ledger as a workbook
`

func main() {
	logger.Init(envOr("ENV", "development"))
	defer logger.Sync()

	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "budgetwise:", err)
		os.Exit(1)
	}
}

type options struct {
	currency string
	from     string
	to       string
	date     string
	recent   int
}

func run(args []string) error {
	fs := flag.NewFlagSet("budgetwise", flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprint(fs.Output(), usageText, "\nflags:\n")
		fs.PrintDefaults()
	}
	var opts options
	fs.StringVar(&opts.currency, "currency", "", "display currency for this run (overrides CURRENCY and the saved choice)")
	fs.StringVar(&opts.from, "from", "", "only sync transactions on or after this date (YYYY-MM-DD)")
	fs.StringVar(&opts.to, "to", "", "only sync transactions on or before this date (YYYY-MM-DD)")
	fs.StringVar(&opts.date, "date", "", "date for add (YYYY-MM-DD, default today)")
	fs.IntVar(&opts.recent, "recent", 10, "number of recent transactions to show")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if cfg.OwnerID == "" {
		return errors.New("OWNER_ID is not set")
	}

	state := localstate.NewFileStore(cfg.StateFile)
	pref := currency.NewPreference(state, currency.DefaultRates)

	api := client.New(cfg.APIURL, tokenSource(cfg), &http.Client{Timeout: cfg.RequestTimeout})
	changed := make(chan struct{}, 1)
	tracker := finance.New(api, pref, finance.Options{
		Interval: cfg.PollInterval,
		OnChange: func() {
			select {
			case changed <- struct{}{}:
			default:
			}
		},
		OnNotice: func(n finance.Notice) {
			if n.Kind == finance.NoticeFailure {
				fmt.Fprintln(os.Stderr, spendStyle.Render(n.Message))
			}
		},
	})
	defer tracker.Close()

	override := opts.currency
	if override == "" {
		override = cfg.Currency
	}
	if override != "" {
		if err := tracker.SetCurrency(override); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	from, err := parseDay(opts.from)
	if err != nil {
		return err
	}
	to, err := parseDay(opts.to)
	if err != nil {
		return err
	}
	if err := tracker.SetDateRange(from, to); err != nil && !errors.Is(err, syncer.ErrIdle) {
		return err
	}
	if err := tracker.SignIn(ctx, cfg.OwnerID); err != nil {
		return fmt.Errorf("loading data: %w", err)
	}

	cmd, rest := "summary", []string(nil)
	if fs.NArg() > 0 {
		cmd, rest = fs.Arg(0), fs.Args()[1:]
	}

	switch cmd {
	case "summary":
		render(os.Stdout, collect(tracker, pref.Table(), opts.recent))
		return nil
	case "watch":
		return watch(ctx, tracker, changed, pref.Table(), opts.recent)
	case "add":
		return add(ctx, tracker, rest, opts.date)
	case "budget":
		return saveBudget(ctx, tracker, rest)
	case "invest":
		return invest(ctx, tracker, rest)
	case "delete":
		if len(rest) != 1 {
			return errors.New("usage: delete <transaction-id>")
		}
		return tracker.DeleteTransaction(ctx, rest[0])
	case "reset":
		n, err := tracker.ResetLedger(ctx)
		if err != nil {
			return err
		}
		fmt.Printf("Deleted %d transactions\n", n)
		return nil
	case "currency":
		if len(rest) == 0 {
			sel := tracker.Currency()
			fmt.Printf("%s (%s)  available: %s\n", sel.Code, sel.Symbol, strings.Join(currency.DefaultRates.Codes(), ", "))
			return nil
		}
		return tracker.SetCurrency(rest[0])
	case "export":
		if len(rest) != 1 {
			return errors.New("usage: export <file.xlsx>")
		}
		return exportTo(ctx, api, cfg.OwnerID, from, to, rest[0])
	default:
		fs.Usage()
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func tokenSource(cfg *config.Config) client.TokenSource {
	if cfg.APIToken != "" {
		return client.StaticToken(cfg.APIToken)
	}
	// Development fallback: mint with the shared secret.
	return func(ownerID string) (string, error) {
		return middleware.GenerateAccessToken(ownerID, cfg.JWTSecret, cfg.JWTExpirationDur)
	}
}

func watch(ctx context.Context, t *finance.Tracker, changed <-chan struct{}, table currency.RateTable, recent int) error {
	redraw := func() {
		fmt.Print("\033[H\033[2J")
		render(os.Stdout, collect(t, table, recent))
		fmt.Println(labelStyle.Render(fmt.Sprintf("\n%s · %s · Ctrl-C to quit", t.State(), time.Now().Format("15:04:05"))))
	}
	redraw()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-changed:
			redraw()
		}
	}
}

func add(ctx context.Context, t *finance.Tracker, args []string, date string) error {
	if len(args) < 3 {
		return errors.New("usage: add <income|expense> <amount> <category> [description]")
	}
	amount, err := decimal.NewFromString(args[1])
	if err != nil {
		return fmt.Errorf("invalid amount %q", args[1])
	}
	day, err := parseDay(date)
	if err != nil {
		return err
	}
	tx, err := t.AddTransaction(ctx, models.TransactionInput{
		Kind:        models.TransactionKind(strings.ToLower(args[0])),
		Amount:      amount,
		Category:    args[2],
		Description: strings.Join(args[3:], " "),
		Date:        day,
	})
	if err != nil {
		return err
	}
	fmt.Println("Added", tx.ID)
	return nil
}

func saveBudget(ctx context.Context, t *finance.Tracker, args []string) error {
	if len(args) < 2 {
		return errors.New("usage: budget <category> <limit> [monthly|yearly]")
	}
	limit, err := decimal.NewFromString(args[1])
	if err != nil {
		return fmt.Errorf("invalid limit %q", args[1])
	}
	period := models.BudgetPeriodMonthly
	if len(args) > 2 {
		period = models.BudgetPeriod(strings.ToLower(args[2]))
	}

	input := models.BudgetInput{Category: args[0], Limit: limit, Period: period}
	for _, b := range t.Budgets() {
		if strings.EqualFold(b.Category, args[0]) {
			input.ID = b.ID
			break
		}
	}
	b, err := t.SaveBudget(ctx, input)
	if err != nil {
		return err
	}
	fmt.Println("Saved budget", b.ID)
	return nil
}

func invest(ctx context.Context, t *finance.Tracker, args []string) error {
	if len(args) < 3 {
		return errors.New("usage: invest <sip|stock|mutual_fund|crypto|other> <name> <amount> [symbol]")
	}
	amount, err := decimal.NewFromString(args[2])
	if err != nil {
		return fmt.Errorf("invalid amount %q", args[2])
	}
	input := models.InvestmentInput{
		Type:   models.InvestmentType(strings.ToLower(args[0])),
		Name:   args[1],
		Amount: amount,
	}
	if len(args) > 3 {
		input.Symbol = args[3]
	}
	inv, _, err := t.RecordInvestment(ctx, input)
	if err != nil {
		return err
	}
	fmt.Println("Recorded investment", inv.ID)
	return nil
}

func exportTo(ctx context.Context, api *client.Client, ownerID string, from, to time.Time, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	var r *backend.DateRange
	if !from.IsZero() || !to.IsZero() {
		r = &backend.DateRange{From: from, To: to}
	}
	if err := api.ExportTransactions(ctx, ownerID, r, f); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Println("Wrote", path)
	return nil
}

func parseDay(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: use YYYY-MM-DD", raw)
	}
	return t, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
