package main

import (
	"context"
	"fmt"

	"github.com/tchaleu/saetrack/core/reminder"
)

// sendDue runs one manual reminder pass for the given threshold.
func (cli *commandLine) sendDue(days int) error {
	stats, err := cli.scheduler.SendImmediate(context.Background(), days, reminder.TemplateForDelay(days))
	if err != nil {
		return err
	}
	fmt.Printf("%d due, %d sent, %d failed, %d skipped\n", stats.Total, stats.Sent, stats.Failed, stats.Skipped)
	return nil
}
