package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/pondside/pondside/internal/model"
	"github.com/pondside/pondside/internal/server"
)

// printJSON writes v as indented JSON to stdout
func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printWelcome(w *server.WelcomePayload) {
	fmt.Printf("Welcome, %s!\n", w.Player.Name)
	if w.Area != nil {
		fmt.Printf("  area: %s (%s)\n", w.Area.Name, w.Area.ID)
	}
	fmt.Printf("  gold: %d  rod tier: %d  fish in bag: %d\n",
		w.Player.Gold, w.Player.RodTier, len(w.Player.Inventory))
}

func printInventory(items []model.InventoryItem) {
	if len(items) == 0 {
		fmt.Println("  (empty)")
		return
	}
	for _, item := range items {
		fmt.Printf("  %s  %-20s %-9s %4dg  caught in %s\n",
			item.ID, item.Fish.Name, item.Fish.Rarity, item.Fish.Value, item.CaughtIn)
	}
}

func printEvent(env *server.Envelope) {
	switch env.Kind {
	case server.KindChatMessage:
		var msg model.ChatMessage
		if err := json.Unmarshal(env.Payload, &msg); err == nil {
			fmt.Printf("[chat] %s: %s\n", msg.Author, msg.Text)
			return
		}
	case server.KindPeerJoined:
		var p server.PeerJoinedPayload
		if err := json.Unmarshal(env.Payload, &p); err == nil {
			fmt.Printf("[area] %s arrived\n", p.Player.Name)
			return
		}
	case server.KindPeerLeft:
		var p server.PeerLeftPayload
		if err := json.Unmarshal(env.Payload, &p); err == nil {
			fmt.Printf("[area] %s left\n", p.Name)
			return
		}
	case server.KindPeerUpdate:
		var p server.PeerUpdatePayload
		if err := json.Unmarshal(env.Payload, &p); err == nil {
			status := ""
			if p.Player.Fishing {
				status = " (fishing)"
			}
			fmt.Printf("[area] %s at (%d, %d) facing %s%s\n",
				p.Player.Name, p.Player.Position.X, p.Player.Position.Y, p.Player.Direction, status)
			return
		}
	case server.KindFishingStarted:
		var p server.FishingStartedPayload
		if err := json.Unmarshal(env.Payload, &p); err == nil {
			fmt.Printf("[area] %s cast a line\n", p.Name)
			return
		}
	}
	fmt.Printf("[%s] %s\n", env.Kind, string(env.Payload))
}
