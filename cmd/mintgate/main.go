package main

import (
	"fmt"
	"os"

	"github.com/blocto/solana-go-sdk/types"
	"github.com/nbd-wtf/go-nostr"
	"github.com/spf13/viper"
	"mintgate/engine/actors"
	"mintgate/engine/library"
	"mintgate/engine/runtime"
	"mintgate/messaging/receipts"
	"mintgate/programs/builtin"
	"mintgate/state/accounts"
	"mintgate/state/replay"
)

func main() {
	// Various aspect of this application require global and local settings. To keep things
	// clean and tidy we put these settings in a Viper configuration.
	conf := viper.New()
	actors.InitConfig(conf)
	actors.SetConfig(conf)

	terminateChan := make(chan struct{})
	actors.SetTerminateChan(terminateChan)

	persist := conf.GetBool("persistLedger")
	ledger := accounts.New()
	processed := replay.New()
	ready := make(chan struct{})
	go ledger.Start(ready, persist)
	<-ready
	ready = make(chan struct{})
	go processed.Start(ready, persist)
	<-ready
	library.LogCLI(fmt.Sprintf("ledger restored: %d accounts, %d transactions", ledger.Len(), len(processed.GetMap())), 4)

	rt := builtin.NewRuntime(ledger, processed)
	var publish chan nostr.Event
	if relays := conf.GetStringSlice("relays"); len(relays) > 0 {
		publish = actors.StartRelaysForPublishing(relays)
	}
	recorder := receipts.NewRecorder(actors.MyWallet(), publish)
	rt.AddObserver(recorder)

	payer, err := fundPayer(rt, conf.GetString("rootDir")+conf.GetString("payerKeyFile"), conf.GetUint64("airdropLamports"))
	if err != nil {
		library.LogCLI(err.Error(), 0)
		os.Exit(1)
	}
	fmt.Printf("Payer: %s\nOperator: %s\n", payer.PublicKey.ToBase58(), actors.MyWallet().Account)

	interrupt := make(chan struct{})
	go cliListener(interrupt, &console{rt: rt, payer: payer, recorder: recorder})
	<-interrupt
	close(terminateChan)
	actors.GetWaitGroup().Wait()
	fmt.Println("bye")
}

// fundPayer loads the payer keypair and airdrops to it while it is empty.
func fundPayer(rt *runtime.Runtime, path string, lamports uint64) (types.Account, error) {
	payer, err := actors.LoadOrCreateKeypair(path)
	if err != nil {
		return types.Account{}, err
	}
	if rt.Account(payer.PublicKey).Lamports == 0 {
		if _, err = rt.Airdrop(payer.PublicKey, lamports); err != nil {
			return payer, err
		}
	}
	return payer, nil
}
