// Package main implements lorctl, a command-line client for the lord daemon.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	serverURL  string
	rpcToken   string
	rpcTimeout time.Duration
	version    = "dev"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "lorctl",
	Short: "CLI for the recommendation-letter ledger daemon",
	Long: `lorctl talks JSON-RPC to a running lord daemon.
It manages the chain connection, answers wallet prompts and reads or writes the ledger.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://127.0.0.1:8787", "lord server URL")
	rootCmd.PersistentFlags().StringVar(&rpcToken, "token", os.Getenv("LOR_RPC_TOKEN"), "RPC token (defaults to LOR_RPC_TOKEN)")
	rootCmd.PersistentFlags().DurationVar(&rpcTimeout, "timeout", 30*time.Second, "request timeout")
}

func client() *rpcClient {
	return newRPCClient(serverURL, rpcToken, rpcTimeout)
}

// callAndPrint runs one RPC and writes its result as indented JSON.
func callAndPrint(cmd *cobra.Command, method string, params any, mutating bool) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), rpcTimeout)
	defer cancel()
	result, err := client().call(ctx, method, params, mutating)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), result)
}

func printJSON(w io.Writer, raw json.RawMessage) error {
	if len(raw) == 0 {
		_, err := fmt.Fprintln(w, "null")
		return err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		_, werr := fmt.Fprintln(w, string(raw))
		return werr
	}
	buf.WriteByte('\n')
	_, err := buf.WriteTo(w)
	return err
}
