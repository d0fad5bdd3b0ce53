// Package receipts turns every committed paid mint into a signed nostr event.
package receipts

import (
	"encoding/json"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/blocto/solana-go-sdk/common"
	"github.com/nbd-wtf/go-nostr"
	"mintgate/engine/actors"
	"mintgate/engine/library"
	"mintgate/engine/runtime"
	"mintgate/programs/paymentgate"
)

// Kind is the nostr event kind of a mint receipt.
const Kind = 641100

// Content is the JSON body of a receipt.
type Content struct {
	Name   string `json:"name"`
	Symbol string `json:"symbol"`
	URI    string `json:"uri"`
}

// Recorder is a runtime observer. Receipts are queued in first to last order
// and, if a publish channel was given, sent to relays.
type Recorder struct {
	wallet    library.Wallet
	stack     *library.Stack
	publish   chan nostr.Event
	terminate chan struct{}
	sending   sync.WaitGroup
}

func NewRecorder(wallet library.Wallet, publish chan nostr.Event) *Recorder {
	return &Recorder{
		wallet:    wallet,
		stack:     library.NewEventStack(16),
		publish:   publish,
		terminate: actors.GetTerminateChan(),
	}
}

var _ runtime.Observer = &Recorder{}

func (r *Recorder) Committed(tx *runtime.Transaction, result runtime.Result) {
	for _, ix := range tx.Instructions {
		if ix.ProgramID != actors.PaymentGateProgramID || len(ix.Accounts) < 3 {
			continue
		}
		args, err := paymentgate.DecodeInvokeCreateNFT(ix.Data)
		if err != nil {
			continue
		}
		e, err := Build(r.wallet, result.ID, args, ix.Accounts[2].PubKey, ix.Accounts[1].PubKey)
		if err != nil {
			library.LogCLI(err.Error(), 1)
			continue
		}
		r.stack.Push(&e)
		library.LogCLI(fmt.Sprintf("receipt %s for asset %d", e.ID, args.ID), 4)
		if r.publish != nil {
			r.sending.Add(1)
			go r.send(e)
		}
	}
}

// send hands e to the relay publisher, giving up once the engine terminates.
func (r *Recorder) send(e nostr.Event) {
	defer r.sending.Done()
	select {
	case r.publish <- e:
	case <-r.terminate:
	}
}

// Receipts returns every receipt recorded so far, oldest first.
func (r *Recorder) Receipts() []nostr.Event {
	return r.stack.Peek()
}

// Build creates and signs the receipt for one paid mint.
func Build(wallet library.Wallet, txID string, args paymentgate.InvokeCreateNFTArgs, mint, payer common.PublicKey) (nostr.Event, error) {
	content, err := json.Marshal(Content{Name: args.Name, Symbol: args.Symbol, URI: args.URI})
	if err != nil {
		return nostr.Event{}, err
	}
	e := nostr.Event{
		PubKey:    wallet.Account,
		CreatedAt: nostr.Timestamp(time.Now().Unix()),
		Kind:      Kind,
		Tags: nostr.Tags{
			nostr.Tag{"tx", txID},
			nostr.Tag{"id", strconv.FormatUint(args.ID, 10)},
			nostr.Tag{"mint", mint.ToBase58()},
			nostr.Tag{"payer", payer.ToBase58()},
			nostr.Tag{"amount", strconv.FormatUint(args.Amount, 10)},
		},
		Content: string(content),
	}
	e.ID = e.GetID()
	if err = e.Sign(wallet.PrivateKey); err != nil {
		return nostr.Event{}, err
	}
	return e, nil
}
