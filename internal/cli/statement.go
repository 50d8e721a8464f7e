package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/yurawu27/splittie/internal/calculator"
	"github.com/yurawu27/splittie/internal/models"
	"github.com/yurawu27/splittie/internal/money"
	"github.com/yurawu27/splittie/internal/storage"
)

// StatementOptions holds flags for the statement command.
type StatementOptions struct {
	*RootOptions
	Raw      bool
	WordWrap int
}

// NewStatementCommand creates the statement command.
func NewStatementCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &StatementOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "statement <username>",
		Short: "Print an account's bills and balances",
		Long: `Print every bill the account pays for or splits, with its share of each,
followed by net balances and who owes whom.

Example:
  splittie statement squidward
  splittie statement squidward --raw > statement.md`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, opts.Config)
			if err != nil {
				return err
			}
			defer a.Close()

			account, err := a.store.GetAccountByUsername(ctx, args[0])
			if errors.Is(err, storage.ErrNotFound) {
				return NewExitError(ExitCommandError, fmt.Sprintf("account %s not found", args[0]))
			}
			if err != nil {
				return WrapExitError(ExitFailure, "failed to load account", err)
			}

			bills, err := a.manager.List(ctx, account.ID)
			if err != nil {
				return WrapExitError(ExitFailure, "failed to list bills", err)
			}
			balances, debts := calculator.CalculateBalances(bills)

			doc := buildStatement(account, bills, balances, debts, a.formatter)
			if !opts.Raw {
				renderer, err := glamour.NewTermRenderer(
					glamour.WithAutoStyle(),
					glamour.WithWordWrap(opts.WordWrap),
				)
				if err != nil {
					return WrapExitError(ExitFailure, "failed to create renderer", err)
				}
				if doc, err = renderer.Render(doc); err != nil {
					return WrapExitError(ExitFailure, "failed to render statement", err)
				}
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), doc)
			return err
		},
	}

	cmd.Flags().BoolVar(&opts.Raw, "raw", false, "print markdown without terminal styling")
	cmd.Flags().IntVar(&opts.WordWrap, "wrap", 100, "word wrap width for styled output")
	return cmd
}

// buildStatement renders the account's view of its bills as markdown.
func buildStatement(account *models.Account, bills []*models.Bill,
	balances []calculator.MemberBalance, debts []calculator.DebtEdge, f *money.Formatter) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Statement for %s\n\n", cell(account.Username))

	b.WriteString("## Bills\n\n")
	if len(bills) == 0 {
		b.WriteString("No bills yet.\n\n")
	} else {
		b.WriteString("| Bill | Payer | Total | Share | Status |\n")
		b.WriteString("|------|-------|------:|------:|--------|\n")
		for _, bill := range bills {
			share, status := "-", "payer"
			for _, sp := range bill.Splitters {
				if sp.AccountID != account.ID {
					continue
				}
				share = f.Display(sp.TotalOwed)
				status = "unpaid"
				if sp.Paid || sp.AccountID == bill.PayerID {
					status = "paid"
				}
				break
			}
			if bill.Complete {
				status = "complete"
			}
			fmt.Fprintf(&b, "| %s | %s | %s | %s | %s |\n",
				cell(bill.Title), cell(bill.PayerUsername), f.Display(bill.Total), share, status)
		}
		b.WriteString("\n")
	}

	b.WriteString("## Balances\n\n")
	if len(balances) == 0 {
		b.WriteString("Everyone is settled up.\n")
		return b.String()
	}
	b.WriteString("| Member | Owed | Owes | Net |\n")
	b.WriteString("|--------|-----:|-----:|----:|\n")
	for _, bal := range balances {
		fmt.Fprintf(&b, "| %s | %s | %s | %s |\n",
			cell(bal.Username), f.Display(bal.Owed), f.Display(bal.Owes), f.Display(bal.NetBalance))
	}

	if len(debts) > 0 {
		b.WriteString("\n## Who owes whom\n\n")
		for _, d := range debts {
			fmt.Fprintf(&b, "- **%s** owes **%s** %s\n", cell(d.FromUsername), cell(d.ToUsername), f.Display(d.Amount))
		}
	}
	return b.String()
}

// cell escapes text for a markdown table cell.
func cell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}
