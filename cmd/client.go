package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"marker-sync/core/middleware/auth"

	"github.com/gofiber/fiber/v2"
	"github.com/spf13/cobra"
)

// clientTimeout bounds a call to the running daemon.
const clientTimeout = 2 * time.Minute

// commandResponse is the answer of the reload and toggle endpoints.
type commandResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

// reloadCmd asks the running daemon to reload its configuration.
var reloadCmd = &cobra.Command{
	Use:   "reload",
	Short: "Reload the configuration of the running daemon",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return callDaemon(cmd, "/markers/reload")
	},
}

// toggleCmd flips one marker type on the running daemon.
var toggleCmd = &cobra.Command{
	Use:       "toggle <spawn|firstspawn|warp>",
	Short:     "Toggle a marker type on the running daemon",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{"spawn", "firstspawn", "warp"},
	RunE: func(cmd *cobra.Command, args []string) error {
		return callDaemon(cmd, "/markers/toggle/"+args[0])
	},
}

func init() {
	RootCmd.AddCommand(reloadCmd)
	RootCmd.AddCommand(toggleCmd)
}

// callDaemon posts to the daemon's admin API and prints its message.
func callDaemon(cmd *cobra.Command, path string) error {
	store, l, err := loadStore()
	if err != nil {
		return err
	}
	defer l.Sync()
	cfg := store.Snapshot()

	agent := fiber.Post(cfg.Server.URL() + path).Timeout(clientTimeout)
	if cfg.Server.ApiKey != "" {
		agent.Set(auth.HeaderName, cfg.Server.ApiKey)
	}

	code, body, errs := agent.Bytes()
	if len(errs) > 0 {
		return fmt.Errorf("failed to reach daemon at %s: %w", cfg.Server.URL(), errors.Join(errs...))
	}

	var resp commandResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return fmt.Errorf("unexpected answer from daemon (status %d): %s", code, body)
	}
	if code != fiber.StatusOK {
		switch {
		case resp.Message != "":
			return errors.New(resp.Message)
		case resp.Error != "":
			return fmt.Errorf("%s (status %d)", resp.Error, code)
		default:
			return fmt.Errorf("daemon answered status %d", code)
		}
	}

	fmt.Fprintln(cmd.OutOrStdout(), resp.Message)
	return nil
}
