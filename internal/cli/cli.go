// internal/cli/cli.go
package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/google/subcommands"

	"money-tracker/internal/config"
	"money-tracker/internal/domain"
	"money-tracker/internal/service"
	"money-tracker/pkg/db"
)

// Env is handed to every command through subcommands' Execute arguments.
type Env struct {
	Config  *config.AppConfig
	Service service.LedgerService
	Out     io.Writer
}

// Commands lists every ledgerctl subcommand.
var Commands = []subcommands.Command{
	&migrateCmd{},
	&balanceCmd{},
	&listCmd{},
	&addCmd{},
	&rmCmd{},
	&settingsCmd{},
}

func envFrom(args []interface{}) *Env {
	for _, a := range args {
		if env, ok := a.(*Env); ok {
			if env.Out == nil {
				env.Out = os.Stdout
			}
			return env
		}
	}
	return nil
}

func fail(err error) subcommands.ExitStatus {
	fmt.Fprintln(os.Stderr, err)
	return subcommands.ExitFailure
}

// currencyOf picks the ledger currency, falling back to the configured default.
func currencyOf(env *Env, settings *domain.Settings) string {
	if settings != nil && settings.CurrencyCode != nil {
		return *settings.CurrencyCode
	}
	if env.Config != nil {
		return env.Config.Ledger.DefaultCurrency
	}
	return ""
}

type migrateCmd struct{}

func (*migrateCmd) Name() string           { return "migrate" }
func (*migrateCmd) Synopsis() string       { return "apply pending database migrations" }
func (*migrateCmd) Usage() string          { return "ledgerctl migrate\n" }
func (*migrateCmd) SetFlags(*flag.FlagSet) {}

func (*migrateCmd) Execute(_ context.Context, _ *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	env := envFrom(args)
	if env == nil || env.Config == nil {
		return subcommands.ExitUsageError
	}
	if err := db.RunMigrations(env.Config.DB); err != nil {
		return fail(err)
	}
	fmt.Fprintln(env.Out, "migrations applied")
	return subcommands.ExitSuccess
}

type balanceCmd struct{}

func (*balanceCmd) Name() string           { return "balance" }
func (*balanceCmd) Synopsis() string       { return "show the current balance and totals" }
func (*balanceCmd) Usage() string          { return "ledgerctl balance\n" }
func (*balanceCmd) SetFlags(*flag.FlagSet) {}

func (*balanceCmd) Execute(ctx context.Context, _ *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	env := envFrom(args)
	if env == nil {
		return subcommands.ExitUsageError
	}
	snapshot, err := env.Service.GetBalanceView(ctx)
	if err != nil {
		return fail(err)
	}
	settings, err := env.Service.GetSettings(ctx)
	if err != nil {
		return fail(err)
	}
	cur := currencyOf(env, settings)

	w := tabwriter.NewWriter(env.Out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(w, "Starting balance\t%s\n", FormatAmount(snapshot.StartingBalance, cur))
	fmt.Fprintf(w, "Income\t%s\n", FormatAmount(snapshot.TotalIncome, cur))
	fmt.Fprintf(w, "Expenses\t%s\n", FormatAmount(snapshot.TotalExpenses, cur))
	fmt.Fprintf(w, "Current balance\t%s\n", FormatAmount(snapshot.CurrentBalance, cur))
	fmt.Fprintf(w, "Transactions\t%d\n", snapshot.TransactionCount)
	if !settings.Initialized() {
		fmt.Fprintln(w, "(starting balance not set)")
	}
	if err := w.Flush(); err != nil {
		return fail(err)
	}
	return subcommands.ExitSuccess
}

type listCmd struct{}

func (*listCmd) Name() string           { return "list" }
func (*listCmd) Synopsis() string       { return "list transactions, newest first" }
func (*listCmd) Usage() string          { return "ledgerctl list\n" }
func (*listCmd) SetFlags(*flag.FlagSet) {}

func (*listCmd) Execute(ctx context.Context, _ *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	env := envFrom(args)
	if env == nil {
		return subcommands.ExitUsageError
	}
	transactions, err := env.Service.ListTransactions(ctx)
	if err != nil {
		return fail(err)
	}
	settings, err := env.Service.GetSettings(ctx)
	if err != nil {
		return fail(err)
	}
	cur := currencyOf(env, settings)

	w := tabwriter.NewWriter(env.Out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tDATE\tKIND\tAMOUNT\tTAG\tDESCRIPTION")
	for _, t := range transactions {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
			t.ID, t.OccurredAt.Format("2006-01-02 15:04"), t.Kind, FormatAmount(t.Amount, cur), t.UsageTag, t.Description)
	}
	if err := w.Flush(); err != nil {
		return fail(err)
	}
	return subcommands.ExitSuccess
}

type addCmd struct {
	kind        string
	amount      string
	description string
	tag         string
	at          string
}

func (*addCmd) Name() string     { return "add" }
func (*addCmd) Synopsis() string { return "record an income or expense" }
func (*addCmd) Usage() string {
	return `ledgerctl add -kind <income|expense> -amount <decimal> -desc <text> -tag <text> [-at <YYYY-MM-DD[THH:MM]>]
`
}

func (c *addCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.kind, "kind", "expense", "income or expense")
	f.StringVar(&c.amount, "amount", "", "non-negative decimal amount")
	f.StringVar(&c.description, "desc", "", "description")
	f.StringVar(&c.tag, "tag", "", "usage tag")
	f.StringVar(&c.at, "at", "", "when it happened (defaults to now)")
}

func (c *addCmd) Execute(ctx context.Context, _ *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	env := envFrom(args)
	if env == nil {
		return subcommands.ExitUsageError
	}
	occurredAt := time.Now().UTC()
	if c.at != "" {
		var err error
		if occurredAt, err = parseDate(c.at); err != nil {
			return fail(err)
		}
	}

	transaction, err := env.Service.RecordTransaction(ctx, service.RecordTransactionInput{
		Kind:        c.kind,
		Amount:      c.amount,
		Description: c.description,
		UsageTag:    c.tag,
		OccurredAt:  occurredAt,
	})
	if err != nil {
		return fail(err)
	}
	fmt.Fprintf(env.Out, "recorded transaction %d\n", transaction.ID)
	return subcommands.ExitSuccess
}

type rmCmd struct{}

func (*rmCmd) Name() string           { return "rm" }
func (*rmCmd) Synopsis() string       { return "delete a transaction by id" }
func (*rmCmd) Usage() string          { return "ledgerctl rm <id>\n" }
func (*rmCmd) SetFlags(*flag.FlagSet) {}

func (*rmCmd) Execute(ctx context.Context, f *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	env := envFrom(args)
	if env == nil || f.NArg() != 1 {
		return subcommands.ExitUsageError
	}
	id, err := strconv.ParseInt(f.Arg(0), 10, 64)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid id %q\n", f.Arg(0))
		return subcommands.ExitUsageError
	}
	if err := env.Service.RemoveTransaction(ctx, id); err != nil {
		return fail(err)
	}
	fmt.Fprintf(env.Out, "removed transaction %d\n", id)
	return subcommands.ExitSuccess
}

type settingsCmd struct {
	balance  string
	currency string
}

func (*settingsCmd) Name() string     { return "settings" }
func (*settingsCmd) Synopsis() string { return "show or set the starting balance" }
func (*settingsCmd) Usage() string {
	return `ledgerctl settings [-balance <decimal>] [-currency <ISO code>]

  Without -balance the current settings are printed. The starting balance
  can only be set once.
`
}

func (c *settingsCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.balance, "balance", "", "starting balance")
	f.StringVar(&c.currency, "currency", "", "ISO 4217 currency code")
}

func (c *settingsCmd) Execute(ctx context.Context, _ *flag.FlagSet, args ...interface{}) subcommands.ExitStatus {
	env := envFrom(args)
	if env == nil {
		return subcommands.ExitUsageError
	}

	if c.balance != "" {
		input := service.UpdateSettingsInput{StartingBalance: c.balance}
		if c.currency != "" {
			input.CurrencyCode = &c.currency
		}
		if _, err := env.Service.InitializeOrUpdateStartingBalance(ctx, input); err != nil {
			return fail(err)
		}
	}

	settings, err := env.Service.GetSettings(ctx)
	if err != nil {
		return fail(err)
	}
	if !settings.Initialized() {
		fmt.Fprintln(env.Out, "starting balance not set")
		return subcommands.ExitSuccess
	}
	fmt.Fprintf(env.Out, "starting balance: %s\n", FormatAmount(settings.StartingBalance, currencyOf(env, settings)))
	return subcommands.ExitSuccess
}

func parseDate(raw string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04", "2006-01-02"} {
		if t, err := time.Parse(layout, strings.TrimSpace(raw)); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q", raw)
}
