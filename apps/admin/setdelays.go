package main

import (
	"context"
	"fmt"
)

func (cli *commandLine) setDelays(delays []int) error {
	ctx := context.Background()
	if err := cli.tracker.SetDelays(ctx, delays); err != nil {
		return err
	}
	fmt.Printf("delays set to %v\n", cli.tracker.Delays(ctx))
	return nil
}
