package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/varlog/logsift/pkg/rpc"
)

var rpcCmd = &cobra.Command{
	Use:   "rpc",
	Short: "Serve the gate over JSON-RPC on stdin/stdout",
	Long: `Serve classify, scan, policy.get, and policy.update over line-delimited
JSON-RPC, for the workspace UI or other tooling to drive the gate.`,
	Args: cobra.NoArgs,
	RunE: runRPC,
}

func init() {
	rootCmd.AddCommand(rpcCmd)
}

func runRPC(cmd *cobra.Command, args []string) error {
	store, filter, scanner, err := openGate()
	if err != nil {
		return err
	}
	defer store.Close()

	handler := rpc.NewHandler(filter, scanner, store, os.Stdin, os.Stdout)
	return handler.Run(cmd.Context())
}
