package cli

import (
	"github.com/spf13/cobra"

	"scriptbench/internal/store"
)

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change ~/.scriptbench/config.json",
	}

	cmd.AddCommand(newConfigShowCmd(app))
	cmd.AddCommand(newConfigGetCmd(app))
	cmd.AddCommand(newConfigSetCmd(app))
	cmd.AddCommand(newConfigPathCmd(app))

	return cmd
}

type configValue struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type configValues []configValue

func (v configValues) Text() string {
	out := ""
	for _, kv := range v {
		out += kv.Key + "=" + kv.Value + "\n"
	}
	return out
}

func newConfigShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "List every key with its effective value",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := store.LoadConfig()
			if err != nil {
				return writeErr(cmd, err)
			}
			var out configValues
			for _, kv := range cfg.ConfigValues() {
				out = append(out, configValue{Key: kv[0], Value: kv[1]})
			}
			return writeOut(cmd, app, out)
		},
	}
}

func newConfigGetCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Print one value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := store.LoadConfig()
			if err != nil {
				return writeErr(cmd, err)
			}
			v, err := cfg.Get(args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, configValue{Key: args[0], Value: v})
		},
	}
}

func newConfigSetCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Change one value (an empty value restores the default)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := store.LoadConfig()
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := cfg.Set(args[0], args[1]); err != nil {
				return writeErr(cmd, err)
			}
			if err := store.SaveConfig(cfg); err != nil {
				return writeErr(cmd, err)
			}
			v, _ := cfg.Get(args[0])
			return writeOut(cmd, app, configValue{Key: args[0], Value: v})
		},
	}
}

func newConfigPathCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the config and session file locations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgPath, err := store.ConfigPath()
			if err != nil {
				return writeErr(cmd, err)
			}
			sessPath, err := store.SessionPath()
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]string{"config": cfgPath, "session": sessPath})
		},
	}
}
