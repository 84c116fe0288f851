package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/varlog/logsift/pkg/api"
)

var policyCmd = &cobra.Command{
	Use:   "policy",
	Short: "Inspect or edit the extension policy",
}

var policyShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the active whitelist, blacklist, and default verdict",
	Args:  cobra.NoArgs,
	RunE:  runPolicyShow,
}

var policySetCmd = &cobra.Command{
	Use:   "set",
	Short: "Replace the extension policy",
	Long: `Replace the whole extension policy. The whitelist and blacklist must be
disjoint; an overlapping update is rejected and the previous policy
stays in force.`,
	Example: `  logsift policy set --whitelist log,txt,csv --blacklist exe,dll --default accept`,
	Args:    cobra.NoArgs,
	RunE:    runPolicySet,
}

func init() {
	policySetCmd.Flags().StringSlice("whitelist", nil, "Extensions to always accept")
	policySetCmd.Flags().StringSlice("blacklist", nil, "Extensions to always reject")
	policySetCmd.Flags().String("default", string(api.DecisionAccept), "Verdict when no list matches (accept or reject)")

	policyCmd.AddCommand(policyShowCmd)
	policyCmd.AddCommand(policySetCmd)
	rootCmd.AddCommand(policyCmd)
}

func runPolicyShow(cmd *cobra.Command, args []string) error {
	store, _, _, err := openGate()
	if err != nil {
		return err
	}
	defer store.Close()

	out, err := json.MarshalIndent(store.Snapshot().Config(), "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func runPolicySet(cmd *cobra.Command, args []string) error {
	whitelist, _ := cmd.Flags().GetStringSlice("whitelist")
	blacklist, _ := cmd.Flags().GetStringSlice("blacklist")
	defaultVerdict, _ := cmd.Flags().GetString("default")

	decision, err := api.ParseDecision(defaultVerdict)
	if err != nil {
		return fmt.Errorf("%w: %q", err, defaultVerdict)
	}

	store, _, _, err := openGate()
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Update(api.PolicyConfig{
		Whitelist:      whitelist,
		Blacklist:      blacklist,
		DefaultVerdict: decision,
	}); err != nil {
		return err
	}

	fmt.Println("policy updated")
	return nil
}
