package app

import (
	"encoding/json"

	cmtproto "github.com/cometbft/cometbft/proto/tendermint/types"
	servertypes "github.com/cosmos/cosmos-sdk/server/types"
)

// ExportAppStateAndValidators exports the application state as a genesis
// document. SDK modules are exported with their default genesis; the
// custom modules with their current state.
func (app *App) ExportAppStateAndValidators(modulesToExport []string) (servertypes.ExportedApp, error) {
	height := app.LastBlockHeight() + 1
	ctx := app.NewContextLegacy(true, cmtproto.Header{Height: app.LastBlockHeight()})

	genState := app.DefaultGenesis()
	for name, bz := range app.ExportModuleGenesis(ctx) {
		genState[name] = bz
	}
	if len(modulesToExport) > 0 {
		keep := make(map[string]bool, len(modulesToExport))
		for _, m := range modulesToExport {
			keep[m] = true
		}
		for name := range genState {
			if !keep[name] {
				delete(genState, name)
			}
		}
	}

	appState, err := json.MarshalIndent(genState, "", "  ")
	if err != nil {
		return servertypes.ExportedApp{}, err
	}

	return servertypes.ExportedApp{
		AppState:        appState,
		Height:          height,
		ConsensusParams: app.BaseApp.GetConsensusParams(ctx),
	}, nil
}
