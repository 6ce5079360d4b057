package main

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"todochat/internal/apperr"
	"todochat/internal/credential"
)

var askToken string

var askCmd = &cobra.Command{
	Use:   "ask [message]",
	Short: "Send one chat message and print the answer",
	Example: `  todochat ask --token "$TODO_TOKEN" "add a task to buy groceries"
  TODOCHAT_TOKEN=... todochat ask "what is on my list?"`,
	Args: cobra.MinimumNArgs(1),
	RunE: ask,
}

func init() {
	askCmd.Flags().StringVar(&askToken, "token", "", "session token for the todo API (default $TODOCHAT_TOKEN)")
}

func ask(cmd *cobra.Command, args []string) error {
	token := askToken
	if token == "" {
		token = os.Getenv("TODOCHAT_TOKEN")
	}
	cred, err := credential.FromString(token)
	if err != nil {
		return errors.New("a session token is required: pass --token or set TODOCHAT_TOKEN")
	}

	message := strings.TrimSpace(strings.Join(args, " "))
	if message == "" {
		return errors.New("message cannot be empty")
	}

	rt, err := newRuntime(cmd.Context())
	if err != nil {
		return err
	}

	out, err := rt.Run(cmd.Context(), message, cred)
	if err != nil {
		p := apperr.PayloadFor(err)
		return fmt.Errorf("%d %s: %s", p.StatusCode, p.Error, p.Message)
	}

	fmt.Fprintln(cmd.OutOrStdout(), out.Response)
	if len(out.ToolsUsed) > 0 {
		fmt.Fprintf(cmd.ErrOrStderr(), "tools used: %s\n", strings.Join(out.ToolsUsed, ", "))
	}
	return nil
}
