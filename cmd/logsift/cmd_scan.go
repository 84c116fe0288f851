package main

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/term"

	"github.com/varlog/logsift/pkg/admission"
	"github.com/varlog/logsift/pkg/audit"
)

var scanCmd = &cobra.Command{
	Use:   "scan <dir>",
	Short: "Classify every file under a directory",
	Long: `Walk a directory tree and classify every regular file. Files the gate
rejects are listed with the layer and reason so the decision can be
audited. With --audit the verdicts are also appended to a trail file.`,
	Example: `  logsift scan /var/log
  logsift scan --rejected-only --audit run.audit ./testdata`,
	Args: cobra.ExactArgs(1),
	RunE: runScan,
}

func init() {
	scanCmd.Flags().Bool("json", false, "Print the full report as JSON")
	scanCmd.Flags().Bool("rejected-only", false, "Only list rejected files")
	scanCmd.Flags().String("audit", "", "Append verdicts to this audit trail file")
	viper.BindPFlag("scan.json", scanCmd.Flags().Lookup("json"))
	viper.BindPFlag("scan.audit", scanCmd.Flags().Lookup("audit"))

	rootCmd.AddCommand(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
	asJSON, _ := cmd.Flags().GetBool("json")
	rejectedOnly, _ := cmd.Flags().GetBool("rejected-only")
	auditPath, _ := cmd.Flags().GetString("audit")

	store, _, scanner, err := openGate()
	if err != nil {
		return err
	}
	defer store.Close()

	report, err := scanner.Scan(cmd.Context(), args[0])
	if err != nil {
		return err
	}

	if auditPath != "" {
		if err := writeAudit(auditPath, report); err != nil {
			return err
		}
	}

	if asJSON {
		out, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	}

	printReport(report, rejectedOnly)
	return nil
}

func writeAudit(path string, report *admission.Report) error {
	w, err := audit.OpenWriter(path)
	if err != nil {
		return err
	}
	defer w.Close()

	for _, res := range report.Results {
		if res.Err != nil {
			continue
		}
		if err := w.Append(audit.Record{
			ScanID:   report.ScanID,
			Path:     res.Path,
			Decision: res.Verdict.Decision,
			Layer:    res.Verdict.Layer,
			Reason:   res.Verdict.Reason,
		}); err != nil {
			return err
		}
	}
	return nil
}

func printReport(report *admission.Report, rejectedOnly bool) {
	if term.IsTerminal(int(os.Stdout.Fd())) {
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "DECISION\tLAYER\tPATH\tREASON")
		for _, res := range report.Results {
			if res.Err != nil {
				fmt.Fprintf(w, "error\t-\t%s\t%v\n", res.Path, res.Err)
				continue
			}
			if rejectedOnly && res.Verdict.Accepted() {
				continue
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
				res.Verdict.Decision, res.Verdict.Layer, res.Path, res.Verdict.Reason)
		}
		w.Flush()
	} else {
		for _, res := range report.Results {
			if res.Err != nil {
				fmt.Printf("error %s %v\n", res.Path, res.Err)
				continue
			}
			if rejectedOnly && res.Verdict.Accepted() {
				continue
			}
			fmt.Printf("%s %s %s\n", res.Verdict.Decision, res.Verdict.Layer, res.Path)
		}
	}

	fmt.Printf("\n%d accepted, %d rejected, %d errored (scan %s)\n",
		report.Accepted, report.Rejected, report.Errored, report.ScanID)
}
