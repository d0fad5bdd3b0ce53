package main

import (
	"fmt"

	"github.com/blocto/solana-go-sdk/types"
	"github.com/eiannone/keyboard"
	"mintgate/engine/actors"
	"mintgate/engine/library"
	"mintgate/engine/pda"
	"mintgate/engine/runtime"
	"mintgate/messaging/receipts"
	"mintgate/programs/metadata"
	"mintgate/programs/paymentgate"
)

type console struct {
	rt       *runtime.Runtime
	payer    types.Account
	recorder *receipts.Recorder
}

// cliListener is a cheap and nasty way to drive the engine by hand. It listens for keypresses and executes commands.
func cliListener(interrupt chan struct{}, c *console) {
	fmt.Println("COMMANDS:\nn: mint the next asset\nb: balances\nm: minted assets\nr: receipts\nc: engine config\nq: to quit\nSee cliListener.go for more")
	for {
		r, k, err := keyboard.GetSingleKey()
		if err != nil {
			panic(err)
		}
		str := string(r)
		switch str {
		default:
			if k == keyboard.KeyEnter {
				fmt.Println("\n-----------------------------------")
				break
			}
			if r == 0 {
				break
			}
			fmt.Println("Key " + str + " is not bound to any command. See main.cliListener for more details.")
		case "n":
			id, result, err := c.mintNext()
			if err != nil {
				library.LogCLI(err.Error(), 2)
				break
			}
			fmt.Printf("minted asset %d in slot %d, transaction %s\n", id, result.Slot, result.ID)
		case "b":
			treasury, _, err := pda.Treasury()
			if err != nil {
				library.LogCLI(err.Error(), 1)
				break
			}
			fmt.Printf("Payer %s: %s\n", c.payer.PublicKey.ToBase58(), library.FormatLamports(c.rt.Account(c.payer.PublicKey).Lamports))
			fmt.Printf("Treasury %s: %s\n", treasury.ToBase58(), library.FormatLamports(c.rt.Account(treasury).Lamports))
		case "m":
			for _, addr := range c.rt.Ledger().Addresses(actors.MetadataProgramID) {
				meta, err := metadata.DecodeMetadata(c.rt.Account(addr).Data)
				if err != nil {
					continue
				}
				fmt.Printf("\nMint: %s\nName: %s Symbol: %s\nURI: %s\n", meta.Mint.ToBase58(), meta.Data.Name, meta.Data.Symbol, meta.Data.Uri)
			}
		case "r":
			for _, e := range c.recorder.Receipts() {
				fmt.Printf("\nID: %s Kind: %d Signed By: %s\nTags: %#v\nContent: %s\n", e.ID, e.Kind, e.PubKey, e.Tags, e.Content)
			}
		case "c":
			fmt.Println("CURRENT CONFIG")
			for k, v := range actors.MakeOrGetConfig().AllSettings() {
				fmt.Printf("\nKey: %s; Value: %v\n", k, v)
			}
		case "q":
			close(interrupt)
			return
		}
	}
}

// nextID is the lowest id whose asset mint has not been created yet. Stray
// lamports at a mint address do not count as created.
func (c *console) nextID() (uint64, error) {
	for id := uint64(1); ; id++ {
		mint, _, err := pda.AssetMint(id)
		if err != nil {
			return 0, err
		}
		if c.rt.Account(mint).Owner != actors.TokenProgramID {
			return id, nil
		}
	}
}

func (c *console) mintNext() (uint64, runtime.Result, error) {
	id, err := c.nextID()
	if err != nil {
		return 0, runtime.Result{}, err
	}
	ix, err := paymentgate.NewInvokeCreateNFTInstruction(paymentgate.InvokeCreateNFTParam{
		Payer: c.payer.PublicKey,
		InvokeCreateNFTArgs: paymentgate.InvokeCreateNFTArgs{
			ID:     id,
			Name:   fmt.Sprintf("Asset #%d", id),
			Symbol: "MGT",
			URI:    fmt.Sprintf("ipfs://mintgate/%d", id),
			Amount: actors.MakeOrGetConfig().GetUint64("mintAmount"),
		},
	})
	if err != nil {
		return id, runtime.Result{}, err
	}
	tx, err := runtime.NewTransaction([]types.Account{c.payer}, ix)
	if err != nil {
		return id, runtime.Result{}, err
	}
	result, err := c.rt.Process(tx)
	return id, result, err
}
