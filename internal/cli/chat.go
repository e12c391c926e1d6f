package cli

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pondside/pondside/internal/server"
)

func newChatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "chat <message>...",
		Short: "Say something to your area",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(strings.Join(args, " "))
		},
	}
}

func runChat(text string) error {
	c, _, err := connect()
	if err != nil {
		return err
	}
	defer func() { _ = c.Close() }()

	if err := c.Send(server.KindChat, server.ChatPayload{Text: text}); err != nil {
		return err
	}

	// The broadcast includes the sender, so seeing our own line back
	// confirms delivery.
	env, err := c.WaitFor(replyTimeout, server.KindChatMessage)
	if err != nil {
		return err
	}
	printEvent(env)
	return nil
}

func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Stay connected and stream area events",
		Long: `Connect, restore the saved session, and print everything that
happens in the area: arrivals, departures, movement, casts, and chat.

Press Ctrl+C to disconnect.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch()
		},
	}
}

func runWatch() error {
	c, welcome, err := connect()
	if err != nil {
		return err
	}
	defer func() { _ = c.Close() }()

	if !cfg.JSON {
		printWelcome(welcome)
		fmt.Println("watching... press Ctrl+C to stop")
	}

	// Closing the socket on interrupt unblocks the read loop.
	interrupted := make(chan struct{})
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		close(interrupted)
		_ = c.Close()
	}()

	for {
		env, err := c.Next(watchReadTimeout)
		if err != nil {
			select {
			case <-interrupted:
				fmt.Println("\ndisconnected.")
				return nil
			default:
				return err
			}
		}

		if cfg.JSON {
			_ = printJSON(env)
			continue
		}
		printEvent(env)
	}
}
