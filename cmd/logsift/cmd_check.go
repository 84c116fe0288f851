package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/varlog/logsift/internal/errx"
	"github.com/varlog/logsift/pkg/api"
)

var checkCmd = &cobra.Command{
	Use:   "check <file>",
	Short: "Classify a single file",
	Long: `Classify a single candidate file and print the verdict with the layer
and reason that produced it. Exit code 0 means accepted, 2 rejected.`,
	Example: `  logsift check /var/log/syslog
  logsift check --json build/output.bin`,
	Args: cobra.ExactArgs(1),
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().Bool("json", false, "Print the verdict as JSON")
	viper.BindPFlag("check.json", checkCmd.Flags().Lookup("json"))

	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	asJSON, _ := cmd.Flags().GetBool("json")

	store, filter, _, err := openGate()
	if err != nil {
		return err
	}
	defer store.Close()

	path := args[0]
	sample, err := readSample(path, api.DefaultSampleSize)
	if err != nil {
		return errx.With(ErrReadFile, ": %s: %w", path, err)
	}

	verdict := filter.Classify(path, sample)

	if asJSON {
		out, err := json.MarshalIndent(verdict, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
	} else {
		fmt.Printf("%s: %s (%s: %s)\n", path, verdict.Decision, verdict.Layer, verdict.Reason)
	}

	if !verdict.Accepted() {
		return commandExit(2)
	}
	return nil
}

func readSample(path string, n int) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	buf := make([]byte, n)
	read, err := io.ReadFull(f, buf)
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		err = nil
	}
	if err != nil {
		return nil, err
	}
	return buf[:read], nil
}
