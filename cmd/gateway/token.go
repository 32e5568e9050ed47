package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"genui-gateway/internal/adapter/auth"
	"genui-gateway/internal/infra/config"
)

func runToken(args []string) error {
	cfg, err := config.Load(configPath())
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	store := auth.NewTokenStore(cfg.Auth, slog.New(slog.NewTextHandler(io.Discard, nil)))
	return tokenCommand(store, args, os.Stdout)
}

// tokenCommand runs one token subcommand against store, writing to out.
func tokenCommand(store *auth.TokenStore, args []string, out io.Writer) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: genui-gateway token <status|set|delete>")
	}

	switch args[0] {
	case "status":
		st := store.Status()
		if st.Source == auth.SourceNone {
			fmt.Fprintln(out, "No credential stored.")
			return nil
		}
		fmt.Fprintf(out, "Credential: %s (%s, from %s)\n", st.Preview, st.Kind, st.Source)
		if !st.Authenticated {
			fmt.Fprintln(out, "Warning: credential does not look valid.")
		}
		return nil

	case "set":
		if len(args) < 2 {
			return fmt.Errorf("usage: genui-gateway token set <token> [profile]")
		}
		profile := ""
		if len(args) > 2 {
			profile = args[2]
		}
		if err := store.Save(args[1], profile); err != nil {
			return err
		}
		fmt.Fprintf(out, "Saved %s\n", auth.Preview(strings.TrimSpace(args[1])))
		return nil

	case "delete":
		existed, err := store.Delete()
		if err != nil {
			return err
		}
		if existed {
			fmt.Fprintln(out, "Stored credential deleted.")
		} else {
			fmt.Fprintln(out, "No stored credential.")
		}
		return nil

	default:
		return fmt.Errorf("unknown token subcommand: %s", args[0])
	}
}
