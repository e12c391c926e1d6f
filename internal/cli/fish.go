package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pondside/pondside/internal/server"
)

func newFishCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "fish",
		Short: "Cast a line and wait for the result",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFish()
		},
	}
}

func runFish() error {
	c, _, err := connect()
	if err != nil {
		return err
	}
	defer func() { _ = c.Close() }()

	if err := c.Send(server.KindStartFishing, nil); err != nil {
		return err
	}

	if _, err := c.WaitFor(replyTimeout, server.KindFishingStarted); err != nil {
		return err
	}
	fmt.Println("cast... waiting for a bite")

	env, err := c.WaitFor(castTimeout, server.KindFishingResult)
	if err != nil {
		return err
	}

	var result server.FishingResultPayload
	if err := json.Unmarshal(env.Payload, &result); err != nil {
		return err
	}
	if cfg.JSON {
		return printJSON(result)
	}

	if !result.Success || result.Fish == nil {
		fmt.Println("nothing's biting.")
		return nil
	}

	fmt.Printf("caught a %s! (%s, worth %dg)\n", result.Fish.Name, result.Fish.Rarity, result.Fish.Value)
	if result.Item != nil {
		fmt.Printf("  item id: %s\n", result.Item.ID)
	}
	return nil
}
