package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/GriffinCanCode/workerview/internal/foreground"
	"github.com/GriffinCanCode/workerview/internal/infrastructure/logging"
	"github.com/GriffinCanCode/workerview/internal/transport"
)

var errNoSnapshot = errors.New("no snapshot received")

func addForegroundFlags(cmd *cobra.Command) {
	cmd.Flags().Bool("print", false, "Print the first snapshot as JSON and exit")
	cmd.Flags().Duration("wait", 5*time.Second, "How long --print waits for a snapshot")
	cmd.Flags().String("log-file", "", "Write logs to this file")
}

// runForeground shows the background's snapshots until the user quits, or
// prints the first one when --print is set
func runForeground(ctx context.Context, cmd *cobra.Command, port transport.Port, log *logging.Logger) error {
	client := foreground.NewClient(port, log)
	defer func() { _ = client.Close() }()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	runErr := make(chan error, 1)
	go func() { runErr <- client.Run(ctx) }()

	if printOnly, _ := cmd.Flags().GetBool("print"); printOnly {
		wait, _ := cmd.Flags().GetDuration("wait")
		return printFirst(ctx, cmd.OutOrStdout(), client, wait, runErr)
	}

	if err := foreground.RunTUI(ctx, client); err != nil {
		return err
	}
	cancel()
	return nil
}

func printFirst(ctx context.Context, out io.Writer, client *foreground.Client, wait time.Duration, runErr <-chan error) error {
	timer := time.NewTimer(wait)
	defer timer.Stop()
	emit := func() error {
		data, err := client.LatestJSON()
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, string(data))
		return err
	}
	for {
		if _, ok := client.Latest(); ok {
			return emit()
		}
		select {
		case <-client.Changed():
		case err := <-runErr:
			if _, ok := client.Latest(); ok {
				return emit()
			}
			if err != nil {
				return err
			}
			return errNoSnapshot
		case <-timer.C:
			return errNoSnapshot
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
