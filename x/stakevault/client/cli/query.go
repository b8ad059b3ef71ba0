package cli

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/cosmos/cosmos-sdk/client"
	"github.com/cosmos/cosmos-sdk/client/flags"

	"github.com/openalpha/stakevault/x/stakevault/keeper"
	"github.com/openalpha/stakevault/x/stakevault/types"
)

// GetQueryCmd returns the cli query commands for the stakevault module
func GetQueryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:                        types.ModuleName,
		Short:                      "Querying commands for the stakevault module",
		DisableFlagParsing:         true,
		SuggestionsMinimumDistance: 2,
		RunE:                       client.ValidateCmd,
	}

	cmd.AddCommand(
		CmdQueryConfig(),
		CmdQueryVault(),
		CmdQueryStake(),
		CmdQueryAudit(),
	)

	return cmd
}

func queryRaw(clientCtx client.Context, storeName string, key []byte) ([]byte, error) {
	bz, _, err := clientCtx.QueryStore(key, storeName)
	if err != nil {
		return nil, err
	}
	return bz, nil
}

func printJSON(v interface{}) error {
	output, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(output))
	return nil
}

// CmdQueryConfig returns the command to query the global config
func CmdQueryConfig() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Query the staking config",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			clientCtx, err := client.GetClientQueryContext(cmd)
			if err != nil {
				return err
			}

			bz, err := queryRaw(clientCtx, types.StoreKey, types.ConfigKey)
			if err != nil {
				return err
			}
			if len(bz) == 0 {
				return types.ErrNotInitialized
			}
			var config types.GlobalConfig
			if err := json.Unmarshal(bz, &config); err != nil {
				return err
			}
			return printJSON(config)
		},
	}

	flags.AddQueryFlagsToCmd(cmd)
	return cmd
}

// CmdQueryVault returns the command to query the vault of a denom
func CmdQueryVault() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "vault [denom]",
		Short: "Query the vault of a denom",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			clientCtx, err := client.GetClientQueryContext(cmd)
			if err != nil {
				return err
			}

			bz, err := queryRaw(clientCtx, types.StoreKey, types.VaultKey(args[0]))
			if err != nil {
				return err
			}
			if len(bz) == 0 {
				return fmt.Errorf("vault not found: %s", args[0])
			}
			var vault types.Vault
			if err := json.Unmarshal(bz, &vault); err != nil {
				return err
			}
			return printJSON(vault)
		},
	}

	flags.AddQueryFlagsToCmd(cmd)
	return cmd
}

// CmdQueryStake returns the command to query a staker's record
func CmdQueryStake() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stake [staker]",
		Short: "Query the stake record of a staker",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			clientCtx, err := client.GetClientQueryContext(cmd)
			if err != nil {
				return err
			}

			key, err := keeper.StakeRecordKey(args[0])
			if err != nil {
				return err
			}
			bz, err := queryRaw(clientCtx, types.StoreKey, key)
			if err != nil {
				return err
			}
			record := types.StakeRecord{Staker: args[0]}
			if len(bz) > 0 {
				if err := json.Unmarshal(bz, &record); err != nil {
					return err
				}
			}
			return printJSON(record)
		},
	}

	flags.AddQueryFlagsToCmd(cmd)
	return cmd
}

// CmdQueryAudit returns the command to read one audit log entry
func CmdQueryAudit() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit [sequence]",
		Short: "Query an audit log entry by sequence",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			clientCtx, err := client.GetClientQueryContext(cmd)
			if err != nil {
				return err
			}

			seq, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid sequence: %v", err)
			}
			bz, err := queryRaw(clientCtx, types.AuditStoreKey, types.AuditEntryKey(seq))
			if err != nil {
				return err
			}
			if len(bz) == 0 {
				return fmt.Errorf("audit entry %d not found", seq)
			}
			var entry types.AuditEntry
			if err := json.Unmarshal(bz, &entry); err != nil {
				return err
			}
			return printJSON(entry)
		},
	}

	flags.AddQueryFlagsToCmd(cmd)
	return cmd
}
