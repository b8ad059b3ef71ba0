package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cosmos/cosmos-sdk/client"
	"github.com/cosmos/cosmos-sdk/client/flags"

	"github.com/openalpha/stakevault/x/tokens/keeper"
	"github.com/openalpha/stakevault/x/tokens/types"
)

// GetQueryCmd returns the cli query commands for the tokens module
func GetQueryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:                        types.ModuleName,
		Short:                      "Querying commands for the tokens module",
		DisableFlagParsing:         true,
		SuggestionsMinimumDistance: 2,
		RunE:                       client.ValidateCmd,
	}

	cmd.AddCommand(
		CmdQueryAccount(),
		CmdQueryAssociated(),
	)

	return cmd
}

// CmdQueryAccount returns the command to query a token account by address
func CmdQueryAccount() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account [address]",
		Short: "Query a token account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			clientCtx, err := client.GetClientQueryContext(cmd)
			if err != nil {
				return err
			}
			return printAccount(clientCtx, args[0])
		},
	}

	flags.AddQueryFlagsToCmd(cmd)
	return cmd
}

// CmdQueryAssociated returns the command to query an owner's associated account
func CmdQueryAssociated() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "associated [owner] [denom]",
		Short: "Query the associated token account of an owner for a denom",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			clientCtx, err := client.GetClientQueryContext(cmd)
			if err != nil {
				return err
			}
			addr, err := keeper.AssociatedAddress(args[0], args[1])
			if err != nil {
				return err
			}
			return printAccount(clientCtx, addr.String())
		},
	}

	flags.AddQueryFlagsToCmd(cmd)
	return cmd
}

func printAccount(clientCtx client.Context, address string) error {
	bz, _, err := clientCtx.QueryStore(types.AccountKey(address), types.StoreKey)
	if err != nil {
		return err
	}
	if len(bz) == 0 {
		return fmt.Errorf("token account not found: %s", address)
	}

	var acc types.TokenAccount
	if err := json.Unmarshal(bz, &acc); err != nil {
		return err
	}
	output, _ := json.MarshalIndent(acc, "", "  ")
	fmt.Println(string(output))
	return nil
}
