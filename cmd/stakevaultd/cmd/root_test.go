package cmd

import (
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/require"
)

func subcommand(t *testing.T, parent *cobra.Command, name string) *cobra.Command {
	t.Helper()
	for _, c := range parent.Commands() {
		if c.Name() == name {
			return c
		}
	}
	return nil
}

func TestRootCommandSurface(t *testing.T) {
	root := NewRootCmd()

	query := subcommand(t, root, "query")
	require.NotNil(t, query)
	for _, module := range []string{"tokens", "stakevault", "access"} {
		require.NotNil(t, subcommand(t, query, module), "query %s", module)
	}

	// ledger writes go through the API server; the chain routes no ledger msgs
	tx := subcommand(t, root, "tx")
	require.NotNil(t, tx)
	for _, module := range []string{"tokens", "stakevault", "access"} {
		require.Nil(t, subcommand(t, tx, module), "tx %s", module)
	}
	require.NotNil(t, subcommand(t, tx, "sign"))

	require.NotNil(t, subcommand(t, root, "export"))
}

func TestAppConfigTemplate(t *testing.T) {
	template, cfg := initAppConfig()
	require.Contains(t, template, "[stakevault]")
	require.Contains(t, template, "bootstrap-admin")
	require.Contains(t, template, "invariant-check-period")
	require.NotNil(t, cfg)
}
