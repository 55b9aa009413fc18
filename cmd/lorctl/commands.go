package main

import (
	"fmt"
	"os"
	"strconv"

	"lor-chain/go-backend/internal/wallet"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/spf13/cobra"
)

var keygenKeystore string

func init() {
	rootCmd.AddCommand(statusCmd, connectCmd, retryCmd, resetCmd)
	rootCmd.AddCommand(addCmd, requestCmd, approveCmd, letterCmd, getCmd, countCmd)
	rootCmd.AddCommand(walletCmd, keygenCmd)
	walletCmd.AddCommand(walletPromptCmd, walletApproveCmd, walletRejectCmd)

	keygenCmd.Flags().StringVar(&keygenKeystore, "keystore", "", "write the mnemonic encrypted with LOR_STORAGE_PASSPHRASE to this path")
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the chain connection state",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return callAndPrint(cmd, "connection.status", nil, false)
	},
}

var connectCmd = &cobra.Command{
	Use:   "connect",
	Short: "Start connecting to the chain and wallet",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return callAndPrint(cmd, "connection.connect", nil, false)
	},
}

var retryCmd = &cobra.Command{
	Use:   "retry",
	Short: "Retry a failed connection",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return callAndPrint(cmd, "connection.retry", nil, false)
	},
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Drop the connection and return to disconnected",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return callAndPrint(cmd, "connection.reset", nil, false)
	},
}

var addCmd = &cobra.Command{
	Use:   "add NAME COURSE EMAIL",
	Short: "Register a student",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		return callAndPrint(cmd, "ledger.add_student", args, true)
	},
}

var letterCmd = &cobra.Command{
	Use:   "letter NAME COURSE EMAIL",
	Short: "Register a student and request their recommendation in one step",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		return callAndPrint(cmd, "ledger.request_letter", args, true)
	},
}

var requestCmd = &cobra.Command{
	Use:   "request ID",
	Short: "Request a recommendation for a student",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return callWithID(cmd, "ledger.request_recommendation", args[0], true)
	},
}

var approveCmd = &cobra.Command{
	Use:   "approve ID",
	Short: "Approve a requested recommendation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return callWithID(cmd, "ledger.approve_recommendation", args[0], true)
	},
}

var getCmd = &cobra.Command{
	Use:   "get ID",
	Short: "Show a student record",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return callWithID(cmd, "ledger.get_student", args[0], false)
	},
}

var countCmd = &cobra.Command{
	Use:   "count",
	Short: "Show the number of registered students",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return callAndPrint(cmd, "ledger.student_count", nil, false)
	},
}

var walletCmd = &cobra.Command{
	Use:   "wallet",
	Short: "Answer prompts from the local wallet",
}

var walletPromptCmd = &cobra.Command{
	Use:   "prompt",
	Short: "Show the pending wallet prompt",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return callAndPrint(cmd, "wallet.prompt", nil, false)
	},
}

var walletApproveCmd = &cobra.Command{
	Use:   "approve [PROMPT_ID]",
	Short: "Grant the pending account access request",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return callAndPrint(cmd, "wallet.approve", promptParams(args), false)
	},
}

var walletRejectCmd = &cobra.Command{
	Use:   "reject [PROMPT_ID]",
	Short: "Refuse the pending account access request",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return callAndPrint(cmd, "wallet.reject", promptParams(args), false)
	},
}

var keygenCmd = &cobra.Command{
	Use:   "keygen",
	Short: "Generate a wallet mnemonic and print its account",
	Long: `Generate a BIP-39 mnemonic for the simulated chain wallet.

Without --keystore the mnemonic is printed. With --keystore it is written
encrypted with LOR_STORAGE_PASSPHRASE and only the account is printed.`,
	Args: cobra.NoArgs,
	RunE: runKeygen,
}

func runKeygen(cmd *cobra.Command, _ []string) error {
	mnemonic, err := wallet.NewMnemonic()
	if err != nil {
		return err
	}
	key, err := wallet.DeriveKey(mnemonic, "")
	if err != nil {
		return err
	}
	account := crypto.PubkeyToAddress(key.PublicKey).Hex()
	out := cmd.OutOrStdout()
	if keygenKeystore == "" {
		fmt.Fprintf(out, "account:  %s\nmnemonic: %s\n", account, mnemonic)
		return nil
	}
	secret := os.Getenv("LOR_STORAGE_PASSPHRASE")
	if secret == "" {
		return fmt.Errorf("LOR_STORAGE_PASSPHRASE is required with --keystore")
	}
	if err := wallet.SaveMnemonic(keygenKeystore, secret, mnemonic); err != nil {
		return err
	}
	fmt.Fprintf(out, "account:  %s\nkeystore: %s\n", account, keygenKeystore)
	return nil
}

func callWithID(cmd *cobra.Command, method, rawID string, mutating bool) error {
	id, err := strconv.ParseUint(rawID, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid student id %q", rawID)
	}
	return callAndPrint(cmd, method, []uint64{id}, mutating)
}

func promptParams(args []string) any {
	if len(args) == 0 {
		return nil
	}
	return []string{args[0]}
}
