package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/carelink/clk/internal/api"
)

var (
	financeJSON bool

	financeBankName      string
	financeAccountName   string
	financeAccountNumber string
	financeBranch        string
	financeCurrency      string
)

var financeCmd = &cobra.Command{
	Use:   "finance",
	Short: "Facility finance",
	Long: `Facility finance: the bank accounts used for settlements.

Examples:
  clk finance accounts
  clk finance add-account --bank "GCB Bank" --name "Korle Bu Teaching Hospital" --number 1011234567890
  clk finance deactivate-account b-4`,
}

var financeAccountsCmd = &cobra.Command{
	Use:   "accounts",
	Short: "List bank accounts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _, err := newClient()
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), apiTimeout)
		defer cancel()

		resp, err := client.ListBankAccounts(ctx)
		if err != nil {
			return fmt.Errorf("listing bank accounts: %w", err)
		}
		if financeJSON {
			fmt.Print(marshalJSONOrFallback(resp))
			return nil
		}
		if len(resp.Accounts) == 0 {
			fmt.Println("No bank accounts.")
			return nil
		}
		for _, a := range resp.Accounts {
			line := fmt.Sprintf("%s  %s  %s  %s", a.ID, a.BankName, a.AccountName, a.AccountNumber)
			if a.Currency != "" {
				line += "  " + a.Currency
			}
			if !a.Active {
				line += "  (inactive)"
			}
			fmt.Println(line)
		}
		return nil
	},
}

var financeAddAccountCmd = &cobra.Command{
	Use:   "add-account",
	Short: "Register a bank account",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if financeBankName == "" || financeAccountName == "" || financeAccountNumber == "" {
			return fmt.Errorf("--bank, --name, and --number are required")
		}

		client, _, err := newClient()
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), apiTimeout)
		defer cancel()

		resp, err := client.AddBankAccount(ctx, &api.AddBankAccountRequest{
			BankName:      financeBankName,
			AccountName:   financeAccountName,
			AccountNumber: financeAccountNumber,
			Branch:        financeBranch,
			Currency:      financeCurrency,
		})
		if err != nil {
			return fmt.Errorf("adding bank account: %w", err)
		}
		if financeJSON {
			fmt.Print(marshalJSONOrFallback(resp))
			return nil
		}
		fmt.Printf("Added %s account %s (ID %s)\n",
			resp.Account.BankName, resp.Account.AccountNumber, resp.Account.ID)
		return nil
	},
}

var financeDeactivateAccountCmd = &cobra.Command{
	Use:   "deactivate-account <account-id>",
	Short: "Deactivate a bank account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client, _, err := newClient()
		if err != nil {
			return err
		}
		ctx, cancel := context.WithTimeout(cmd.Context(), apiTimeout)
		defer cancel()

		resp, err := client.DeactivateBankAccount(ctx, args[0])
		if err != nil {
			return fmt.Errorf("deactivating bank account: %w", err)
		}
		if resp == nil {
			fmt.Printf("Account %s is already gone.\n", args[0])
			return nil
		}
		if financeJSON {
			fmt.Print(marshalJSONOrFallback(resp))
			return nil
		}
		fmt.Printf("Deactivated account %s.\n", resp.Account.ID)
		return nil
	},
}

func init() {
	financeCmd.PersistentFlags().BoolVar(&financeJSON, "json", false, "Output as JSON")

	financeAddAccountCmd.Flags().StringVar(&financeBankName, "bank", "", "Bank name (required)")
	financeAddAccountCmd.Flags().StringVar(&financeAccountName, "name", "", "Account name (required)")
	financeAddAccountCmd.Flags().StringVar(&financeAccountNumber, "number", "", "Account number (required)")
	financeAddAccountCmd.Flags().StringVar(&financeBranch, "branch", "", "Branch")
	financeAddAccountCmd.Flags().StringVar(&financeCurrency, "currency", "", "Currency (default GHS)")

	financeCmd.AddCommand(financeAccountsCmd)
	financeCmd.AddCommand(financeAddAccountCmd)
	financeCmd.AddCommand(financeDeactivateAccountCmd)
}
