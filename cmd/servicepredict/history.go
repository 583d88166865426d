package main

import (
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"servicepredict/internal/common"
	"servicepredict/internal/storage"
	"servicepredict/internal/vehicle"
)

var errNoJournal = errors.New("no journal configured, set JOURNAL_PATH")

func (a *app) historyCmd() *cobra.Command {
	var (
		variant string
		limit   int
	)
	cmd := &cobra.Command{
		Use:   "history [--variant <mileage|days>] [--limit n]",
		Short: "List recent prediction outcomes from the journal",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.history(variant, limit)
		},
	}
	cmd.Flags().StringVar(&variant, "variant", "", "only show this variant")
	cmd.Flags().IntVar(&limit, "limit", common.DefaultHistoryLimit, "maximum number of entries")
	return cmd
}

func (a *app) history(variant string, limit int) error {
	if variant != "" {
		v, err := vehicle.ParseVariant(variant)
		if err != nil {
			return fmt.Errorf("%w: %v", errUsage, err)
		}
		variant = v.String()
	}
	if a.settings.JournalPath == "" {
		return errNoJournal
	}

	j, err := storage.Open(a.settings.JournalPath)
	if err != nil {
		return fmt.Errorf("open journal %s: %w", a.settings.JournalPath, err)
	}
	defer j.Close()

	records, err := j.Recent(variant, limit)
	if err != nil {
		return fmt.Errorf("read journal: %w", err)
	}

	tw := tabwriter.NewWriter(a.stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tVARIANT\tVALUE\tSOURCE\tREASON\tARTIFACT")
	for _, r := range records {
		fmt.Fprintf(tw, "%s\t%s\t%g\t%s\t%s\t%s\n",
			r.Timestamp.Format(time.RFC3339), r.Variant, r.Value, r.Source, dash(r.Kind), dash(r.ArtifactVersion))
	}
	return tw.Flush()
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
