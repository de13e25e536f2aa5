package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dshills/papyrusini/internal/ini/address"
	"github.com/dshills/papyrusini/internal/ini/value"
)

func newGetCmd(opts *rootOptions) *cobra.Command {
	var kindName, def string

	cmd := &cobra.Command{
		Use:   "get FILE KEY:SECTION",
		Short: "Print a setting",
		Long: `Print the value of a setting, or the default when the setting is
missing or doesn't parse as the requested kind.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, setting := args[0], args[1]

			kind, err := value.ParseKind(kindName)
			if err != nil {
				return err
			}
			defValue := value.Zero(kind)
			if cmd.Flags().Changed("default") {
				if defValue, err = parseValue(kind, def); err != nil {
					return err
				}
			}
			if _, err := address.Parse(setting); err != nil {
				return err
			}

			application, err := opts.newApp(cmd, false)
			if err != nil {
				return err
			}
			defer func() { _ = application.Shutdown(context.Background()) }()

			v := application.Store().ReadSetting(file, setting, defValue, false)
			fmt.Fprintln(cmd.OutOrStdout(), v.String())
			return nil
		},
	}

	cmd.Flags().StringVarP(&kindName, "kind", "k", "string", "Setting kind (int, float, bool, string)")
	cmd.Flags().StringVar(&def, "default", "", "Value printed when the setting is missing")
	return cmd
}

func newSetCmd(opts *rootOptions) *cobra.Command {
	var kindName string

	cmd := &cobra.Command{
		Use:   "set FILE KEY:SECTION VALUE",
		Short: "Write a setting",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			file, setting, text := args[0], args[1], args[2]

			kind, err := value.ParseKind(kindName)
			if err != nil {
				return err
			}
			v, err := parseValue(kind, text)
			if err != nil {
				return err
			}
			if _, err := address.Parse(setting); err != nil {
				return err
			}

			application, err := opts.newApp(cmd, false)
			if err != nil {
				return err
			}

			application.Store().WriteSetting(file, setting, v, false)
			return application.Shutdown(context.Background())
		},
	}

	cmd.Flags().StringVarP(&kindName, "kind", "k", "string", "Setting kind (int, float, bool, string)")
	return cmd
}

var errBadValue = errors.New("invalid value")

func parseValue(kind value.Kind, text string) (value.Value, error) {
	v, ok := value.For(kind).Decode(text, value.Zero(kind))
	if !ok {
		return value.Value{}, fmt.Errorf("%w: %q is not a valid %s", errBadValue, text, kind)
	}
	return v, nil
}
