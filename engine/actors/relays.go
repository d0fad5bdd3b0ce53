package actors

import (
	"context"
	"fmt"
	"time"

	"github.com/nbd-wtf/go-nostr"
	"mintgate/engine/library"
)

// StartRelaysForPublishing connects to every relay and returns a channel; each
// event sent on it is published to all connected relays. Relays that cannot be
// reached are skipped. Publishing stops when the terminate channel closes.
func StartRelaysForPublishing(relays []string) chan nostr.Event {
	sendChan := make(chan nostr.Event)
	var connected []*nostr.Relay
	for _, s := range relays {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		relay, err := nostr.RelayConnect(ctx, s)
		cancel()
		if err != nil {
			library.LogCLI(fmt.Sprintf("relay %s: %s", s, err.Error()), 2)
			continue
		}
		connected = append(connected, relay)
	}
	terminate := GetTerminateChan()
	GetWaitGroup().Add(1)
	go func() {
		defer GetWaitGroup().Done()
		for {
			select {
			case e := <-sendChan:
				for _, relay := range connected {
					ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
					if _, err := relay.Publish(ctx, e); err != nil {
						library.LogCLI(err.Error(), 2)
					}
					cancel()
				}
			case <-terminate:
				for _, relay := range connected {
					relay.Close()
				}
				return
			}
		}
	}()
	return sendChan
}
