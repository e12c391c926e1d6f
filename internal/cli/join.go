package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pondside/pondside/internal/server"
)

func newJoinCmd() *cobra.Command {
	var password string
	var register bool

	cmd := &cobra.Command{
		Use:   "join <name>",
		Short: "Sign in (or register) and save a session token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runJoin(args[0], password, register)
		},
	}

	cmd.Flags().StringVarP(&password, "password", "p", "", "Account password")
	cmd.Flags().BoolVar(&register, "register", false, "Create a new account")
	_ = cmd.MarkFlagRequired("password")

	return cmd
}

func runJoin(name, password string, register bool) error {
	c, err := Dial(cfg.ServerURL)
	if err != nil {
		return err
	}
	defer func() { _ = c.Close() }()

	if err := c.Send(server.KindJoin, server.JoinPayload{
		Name:          name,
		Password:      password,
		IsRegistering: register,
	}); err != nil {
		return err
	}

	env, err := c.WaitFor(replyTimeout, server.KindSessionIssued)
	if err != nil {
		return err
	}
	var issued server.SessionIssuedPayload
	if err := json.Unmarshal(env.Payload, &issued); err != nil {
		return err
	}
	if err := cfg.SaveToken(issued.Token); err != nil {
		return fmt.Errorf("failed to save token: %w", err)
	}

	env, err = c.WaitFor(replyTimeout, server.KindWelcome)
	if err != nil {
		return err
	}
	var welcome server.WelcomePayload
	if err := json.Unmarshal(env.Payload, &welcome); err != nil {
		return err
	}

	if cfg.JSON {
		return printJSON(welcome)
	}
	printWelcome(&welcome)
	fmt.Printf("session saved to %s\n", cfg.TokenFile)
	return nil
}
