package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/GiGurra/boa/pkg/boa"
	"github.com/gigurra/deck/cmd/common"
	"github.com/gigurra/deck/cmd/rtos"
	"github.com/gigurra/deck/cmd/tasksync"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

type SyncParams struct {
	Rounds    int    `short:"n" help:"Messages per producer." default:"5"`
	TickRate  int    `short:"t" help:"Scheduler ticks per second." default:"100"`
	QueueSize int    `short:"q" help:"Capacity of the shared queue." default:"4"`
	LogLevel  string `short:"l" help:"Log level: debug, info, warn or error." default:"warn"`
	Quiet     bool   `help:"Only print the report." optional:"true"`
}

func SyncCmd() *cobra.Command {
	return boa.CmdT[SyncParams]{
		Use:         "sync",
		Short:       "Run the mailbox, flag and queue synchronization exercise",
		ParamEnrich: defaultParamEnricher(),
		RunFunc: func(params *SyncParams, cmd *cobra.Command, args []string) {
			if err := runSync(params); err != nil {
				fmt.Fprintf(os.Stderr, "deck sync: %v\n", err)
				os.Exit(1)
			}
		},
	}.ToCobra()
}

func runSync(params *SyncParams) error {
	log := common.SetupLogger(params.LogLevel, os.Stderr)

	kernel, err := rtos.NewKernel(params.TickRate, log)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	opts := tasksync.Options{
		Rounds:    params.Rounds,
		QueueSize: params.QueueSize,
		Out:       os.Stdout,
		Logger:    log,
	}
	if params.Quiet {
		opts.Out = nil
	}
	report, err := tasksync.Run(ctx, kernel, opts)
	if err != nil {
		return err
	}

	printReport(report)
	if problems := report.Problems(); len(problems) > 0 {
		for _, p := range problems {
			fmt.Fprintf(os.Stderr, "**ERROR: %s\n", p)
		}
		return fmt.Errorf("%d checks failed", len(problems))
	}
	return nil
}

func printReport(r tasksync.Report) {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetStyle(table.StyleLight)
	t.SetTitle("Mailboxes")
	t.AppendHeader(table.Row{"Consumer", "Received", "Errors"})
	for _, name := range []string{"RxA", "RxB"} {
		c := r.Mailbox[name]
		t.AppendRow(table.Row{name, c.Received, c.Errors})
	}
	barrier := "in sync"
	if r.OutOfSyncAt > 0 {
		barrier = fmt.Sprintf("out of sync at %d", r.OutOfSyncAt)
	}
	t.AppendFooter(table.Row{"Barrier", barrier, ""})
	t.Render()

	q := table.NewWriter()
	q.SetOutputMirror(os.Stdout)
	q.SetStyle(table.StyleLight)
	q.SetTitle("Queue")
	q.AppendHeader(table.Row{"Message", "Received"})
	msgs := make([]string, 0, len(r.QueueCounts))
	for m := range r.QueueCounts {
		msgs = append(msgs, m)
	}
	sort.Strings(msgs)
	for _, m := range msgs {
		q.AppendRow(table.Row{m, r.QueueCounts[m]})
	}
	q.AppendFooter(table.Row{"Timeouts", r.QueueTimeouts})
	q.Render()
}
