package cli

import (
	"os"

	"github.com/spf13/cobra"
)

var cfg *Config

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	cfg = DefaultConfig()

	rootCmd := &cobra.Command{
		Use:   "pondside",
		Short: "CLI client for the pondside fishing game",
		Long: `pondside is a command-line client for the pondside game server.

It connects over websocket, so each command plays a short session:
join once to save a token, then move, fish, sell, shop, and chat.
Use 'pondside watch' to stay connected and stream area events.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return cfg.LoadToken()
		},
		SilenceUsage: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfg.ServerURL, "server", cfg.ServerURL, "Server URL (env: PONDSIDE_SERVER)")
	rootCmd.PersistentFlags().StringVar(&cfg.Token, "token", cfg.Token, "Session token (env: PONDSIDE_TOKEN)")
	rootCmd.PersistentFlags().StringVar(&cfg.TokenFile, "token-file", cfg.TokenFile, "Token file path (env: PONDSIDE_TOKEN_FILE)")
	rootCmd.PersistentFlags().BoolVar(&cfg.JSON, "json", cfg.JSON, "Output raw JSON")

	// Add subcommands
	rootCmd.AddCommand(newJoinCmd())
	rootCmd.AddCommand(newMoveCmd())
	rootCmd.AddCommand(newGotoCmd())
	rootCmd.AddCommand(newFishCmd())
	rootCmd.AddCommand(newShopCmd())
	rootCmd.AddCommand(newBuyCmd())
	rootCmd.AddCommand(newSellCmd())
	rootCmd.AddCommand(newChatCmd())
	rootCmd.AddCommand(newWatchCmd())
	rootCmd.AddCommand(newHealthCmd())

	return rootCmd
}

// Execute runs the root command
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
