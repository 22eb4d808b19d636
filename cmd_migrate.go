package main

import (
	"fmt"
	"slices"
	"strings"

	"otasync/internal/config"
	"otasync/internal/store"

	"github.com/spf13/cobra"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "migrate [" + strings.Join(store.MigrateActions, "|") + "]",
		Short:     "Apply or roll back the database schema",
		Args:      cobra.ExactArgs(1),
		ValidArgs: store.MigrateActions,
		RunE: func(_ *cobra.Command, args []string) error {
			action := args[0]
			if !slices.Contains(store.MigrateActions, action) {
				return fmt.Errorf("invalid migrate action: %s", action)
			}

			return store.Migrate(config.Get(), action)
		},
	}
}
