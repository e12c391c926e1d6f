package cli

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/pondside/pondside/internal/model"
	"github.com/pondside/pondside/internal/server"
)

func newMoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "move <up|down|left|right> [count]",
		Short: "Walk one or more tiles",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := model.Direction(args[0])
			if !dir.Valid() {
				return fmt.Errorf("invalid direction %q", args[0])
			}
			count := 1
			if len(args) == 2 {
				n, err := strconv.Atoi(args[1])
				if err != nil || n < 1 {
					return fmt.Errorf("invalid count %q", args[1])
				}
				count = n
			}
			return runMove(dir, count)
		},
	}
}

func runMove(dir model.Direction, count int) error {
	c, welcome, err := connect()
	if err != nil {
		return err
	}
	defer func() { _ = c.Close() }()

	// The server only echoes movement to peers, so track our own position
	// with the same walkability rule it applies.
	pos := welcome.Player.LastPosition
	if welcome.Area != nil && !welcome.Area.CanMoveTo(pos) {
		pos = welcome.Area.SpawnPoint
	}

	for i := 0; i < count; i++ {
		proposed := pos.Step(dir)
		if err := c.Send(server.KindMove, server.MovePayload{Position: proposed, Direction: dir}); err != nil {
			return err
		}
		if welcome.Area != nil && welcome.Area.CanMoveTo(proposed) {
			pos = proposed
		}
	}

	fmt.Printf("now at (%d, %d) facing %s\n", pos.X, pos.Y, dir)
	return nil
}

func newGotoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "goto <area>",
		Short: "Travel to another area",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGoto(model.AreaID(args[0]))
		},
	}
}

func runGoto(area model.AreaID) error {
	c, _, err := connect()
	if err != nil {
		return err
	}
	defer func() { _ = c.Close() }()

	if err := c.Send(server.KindChangeArea, server.ChangeAreaPayload{Area: area}); err != nil {
		return err
	}

	env, err := c.WaitFor(replyTimeout, server.KindAreaState)
	if err != nil {
		return err
	}

	var state server.AreaStatePayload
	if err := json.Unmarshal(env.Payload, &state); err != nil {
		return err
	}
	if cfg.JSON {
		return printJSON(state)
	}

	fmt.Printf("arrived in %s\n", state.Area)
	if len(state.Players) > 0 {
		fmt.Println("also here:")
		for _, peer := range state.Players {
			fmt.Printf("  %s at (%d, %d)\n", peer.Name, peer.Position.X, peer.Position.Y)
		}
	}
	return nil
}
