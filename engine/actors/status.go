package actors

import (
	"sync"
)

var terminateChan = make(chan struct{})
var waitGroup = &sync.WaitGroup{}

func SetTerminateChan(term chan struct{}) {
	terminateChan = term
}

func GetTerminateChan() chan struct{} {
	return terminateChan
}

// GetWaitGroup tracks minds and publishers that must flush before the process exits.
func GetWaitGroup() *sync.WaitGroup {
	return waitGroup
}
