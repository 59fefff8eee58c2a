package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"github.com/woozymasta/toktx/internal/config"
	"gopkg.in/yaml.v3"
)

func newConfigCmd(g *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
		Long: `Manage the toktx configuration file (~/.toktx/config.yaml).

Examples:
  toktx config init
  toktx config show
  toktx config set encode.format astc
  toktx config set output.container edds`,
	}

	cmd.AddCommand(
		newConfigShowCmd(g),
		newConfigInitCmd(g),
		newConfigSetCmd(g),
		newConfigPathCmd(g),
	)

	return cmd
}

func newConfigShowCmd(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the configuration without expanding ${VAR} references",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			loader, err := newLoader(g)
			if err != nil {
				return err
			}

			cfg, err := loader.LoadRaw()
			if err != nil {
				return err
			}

			data, err := yaml.Marshal(cfg)
			if err != nil {
				return fmt.Errorf("failed to marshal config: %w", err)
			}

			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}
}

func newConfigInitCmd(g *globalOptions) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			loader, err := newLoader(g)
			if err != nil {
				return err
			}

			if force {
				err = loader.Save(config.DefaultConfig())
			} else {
				err = loader.Init()
			}
			if err != nil {
				return err
			}

			newReporter(cmd, g).infof("Config written to %s", loader.ConfigPath())
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")

	return cmd
}

func newConfigSetCmd(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Long: `Set a configuration value.

Keys:
  mipmaps, encode.format, encode.block, encode.threads, encode.quality,
  encode.linear, output.container, output.compression, output.dir`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			loader, err := newLoader(g)
			if err != nil {
				return err
			}

			cfg, err := loader.LoadRaw()
			if err != nil {
				return err
			}

			if err := setConfigValue(cfg, args[0], args[1]); err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			if err := loader.Save(cfg); err != nil {
				return err
			}

			newReporter(cmd, g).infof("Set %s = %s", args[0], args[1])
			return nil
		},
	}
}

func newConfigPathCmd(g *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the configuration file path",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			loader, err := newLoader(g)
			if err != nil {
				return err
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), loader.ConfigPath())
			return err
		},
	}
}

func setConfigValue(cfg *config.Config, key, value string) error {
	switch strings.ToLower(key) {
	case "mipmaps":
		return parseBool(&cfg.Mipmaps, key, value)
	case "encode.format":
		cfg.Encode.Format = value
	case "encode.block":
		cfg.Encode.Block = value
	case "encode.threads":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%w: %s: %v", config.ErrInvalidConfig, key, err)
		}
		cfg.Encode.Threads = n
	case "encode.quality":
		cfg.Encode.Quality = value
	case "encode.linear":
		return parseBool(&cfg.Encode.Linear, key, value)
	case "output.container":
		cfg.Output.Container = value
	case "output.compression":
		cfg.Output.Compression = value
	case "output.dir":
		cfg.Output.Dir = value
	default:
		return fmt.Errorf("%w: unknown key %q", config.ErrInvalidConfig, key)
	}

	return nil
}

func parseBool(dst *bool, key, value string) error {
	v, err := strconv.ParseBool(value)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", config.ErrInvalidConfig, key, err)
	}
	*dst = v

	return nil
}
