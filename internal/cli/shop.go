package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pondside/pondside/internal/server"
)

func newShopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "shop",
		Short: "Browse the rod shop (you must be standing near one)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShop()
		},
	}
}

func runShop() error {
	c, _, err := connect()
	if err != nil {
		return err
	}
	defer func() { _ = c.Close() }()

	if err := c.Send(server.KindOpenShop, nil); err != nil {
		return err
	}

	env, err := c.WaitFor(replyTimeout, server.KindShopOpened)
	if err != nil {
		return err
	}

	var shop server.ShopOpenedPayload
	if err := json.Unmarshal(env.Payload, &shop); err != nil {
		return err
	}
	if cfg.JSON {
		return printJSON(shop)
	}

	fmt.Printf("gold: %d\n", shop.Gold)
	fmt.Printf("current rod: %s (tier %d)\n", shop.Rod.Name, shop.Rod.Level)
	if shop.Next == nil {
		fmt.Println("you own the best rod money can buy.")
		return nil
	}
	fmt.Printf("next upgrade: %s — %dg\n", shop.Next.Name, shop.Next.Price)
	fmt.Printf("  %s\n", shop.Next.Description)
	if shop.Affordable {
		fmt.Println("you can afford it! run 'pondside buy'")
	}
	return nil
}

func newBuyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "buy",
		Short: "Buy the next rod upgrade",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuy()
		},
	}
}

func runBuy() error {
	c, _, err := connect()
	if err != nil {
		return err
	}
	defer func() { _ = c.Close() }()

	if err := c.Send(server.KindBuyUpgrade, nil); err != nil {
		return err
	}

	env, err := c.WaitFor(replyTimeout, server.KindPurchaseConfirmed)
	if err != nil {
		return err
	}

	var confirmed server.PurchaseConfirmedPayload
	if err := json.Unmarshal(env.Payload, &confirmed); err != nil {
		return err
	}
	if cfg.JSON {
		return printJSON(confirmed)
	}

	fmt.Printf("bought %s! gold left: %d\n", confirmed.Rod.Name, confirmed.Gold)
	return nil
}

func newSellCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "sell [itemId]",
		Short: "Sell a caught fish (or everything with --all)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if all {
				return runSellAll()
			}
			if len(args) != 1 {
				return fmt.Errorf("provide an item id or --all")
			}
			return runSell(args[0])
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Sell the whole inventory")

	return cmd
}

func runSell(itemID string) error {
	c, _, err := connect()
	if err != nil {
		return err
	}
	defer func() { _ = c.Close() }()

	inv, err := sellOne(c, itemID)
	if err != nil {
		return err
	}
	if cfg.JSON {
		return printJSON(inv)
	}

	fmt.Printf("sold. gold: %d\n", inv.Gold)
	printInventory(inv.Inventory)
	return nil
}

func runSellAll() error {
	c, welcome, err := connect()
	if err != nil {
		return err
	}
	defer func() { _ = c.Close() }()

	if len(welcome.Player.Inventory) == 0 {
		fmt.Println("nothing to sell.")
		return nil
	}

	var last *server.InventoryChangedPayload
	for _, item := range welcome.Player.Inventory {
		inv, err := sellOne(c, item.ID)
		if err != nil {
			return err
		}
		last = inv
	}
	if cfg.JSON {
		return printJSON(last)
	}

	fmt.Printf("sold %d fish. gold: %d\n", len(welcome.Player.Inventory), last.Gold)
	return nil
}

func sellOne(c *Client, itemID string) (*server.InventoryChangedPayload, error) {
	if err := c.Send(server.KindSellItem, server.SellItemPayload{ItemID: itemID}); err != nil {
		return nil, err
	}
	env, err := c.WaitFor(replyTimeout, server.KindInventoryChanged)
	if err != nil {
		return nil, err
	}
	var inv server.InventoryChangedPayload
	if err := json.Unmarshal(env.Payload, &inv); err != nil {
		return nil, err
	}
	return &inv, nil
}
