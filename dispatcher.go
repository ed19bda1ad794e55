package dali

import (
	"sync"
	"time"
)

// coalesceWindow is how long the dispatcher waits after the first pending
// request for a command name before flushing that command's batch, per §4.5.
const coalesceWindow = 100 * time.Millisecond

// discoverTimeout bounds getVersion/discoverDevices/discoverGroups/
// discoverScenes waits.
const discoverTimeout = 30 * time.Second

// identifyTimeout bounds the shorter identify-device correlation wait.
const identifyTimeout = 5 * time.Second

type waiterKey string

const (
	waiterVersion waiterKey = "version"
	waiterDevices waiterKey = "devices"
	waiterGroups  waiterKey = "groups"
	waiterScenes  waiterKey = "scenes"
)

// publishFunc is how the dispatcher hands a flushed batch (or any other
// outbound payload) to the session's MQTT client.
type publishFunc func(payload any) error

// pendingBatch holds one cmd's coalesced device payloads, tracking
// insertion order alongside the by-key map so a later overwrite of an
// already-pending device updates its data in place without moving it to
// the end of the batch.
type pendingBatch struct {
	order []string
	data  map[string]deviceCommandData
}

// Dispatcher coalesces per-device readDev/writeDev commands into 100ms
// batches and correlates request/response exchanges that have no natural
// per-message identifier (getVersion, searchDev, getGroup, getScene).
//
// AddRequest is safe to call from any goroutine; the actual publish of a
// flushed batch always happens on the goroutine that calls Flush, which
// the owning Session drives from its single event loop so that publish
// ordering stays deterministic relative to other session state changes.
type Dispatcher struct {
	gwSN    string
	publish publishFunc

	mu      sync.Mutex
	pending map[string]*pendingBatch
	timers  map[string]*time.Timer
	flushCh chan string

	waitMu  sync.Mutex
	waiters map[waiterKey]chan any
}

// NewDispatcher constructs a Dispatcher for one gateway session.
func NewDispatcher(gwSN string, publish publishFunc) *Dispatcher {
	return &Dispatcher{
		gwSN:    gwSN,
		publish: publish,
		pending: make(map[string]*pendingBatch),
		timers:  make(map[string]*time.Timer),
		flushCh: make(chan string, 8),
		waiters: make(map[waiterKey]chan any),
	}
}

// FlushNotifications returns the channel of command names whose coalescing
// window has elapsed and are ready to be flushed. The owning session reads
// from this in its run loop and calls Flush.
func (d *Dispatcher) FlushNotifications() <-chan string {
	return d.flushCh
}

// AddRequest enqueues one device's payload under cmd ("readDev" or
// "writeDev"), arming a coalesce-window timer the first time cmd has a
// pending entry. A second AddRequest for the same device before the
// window elapses overwrites the earlier payload rather than appending to
// it: only the most recent write for a given device makes it into the
// batch.
func (d *Dispatcher) AddRequest(cmd, devType string, channel, address int, data deviceCommandData) {
	d.mu.Lock()
	defer d.mu.Unlock()

	batch := d.pending[cmd]
	if batch == nil {
		batch = &pendingBatch{data: make(map[string]deviceCommandData)}
		d.pending[cmd] = batch
	}
	key := deviceKey(devType, channel, address)
	if _, exists := batch.data[key]; !exists {
		batch.order = append(batch.order, key)
	}
	batch.data[key] = data

	if _, armed := d.timers[cmd]; !armed {
		cmdCopy := cmd
		d.timers[cmd] = time.AfterFunc(coalesceWindow, func() {
			d.flushCh <- cmdCopy
		})
	}
}

// Flush publishes and clears the pending batch for cmd, if any, and
// reports how many devices were in it. Calling Flush for a cmd with no
// pending entries (e.g. a stale timer fired after a manual flush) is a
// no-op and reports a size of 0.
func (d *Dispatcher) Flush(cmd string) (int, error) {
	d.mu.Lock()
	batch := d.pending[cmd]
	delete(d.pending, cmd)
	delete(d.timers, cmd)
	d.mu.Unlock()

	if batch == nil || len(batch.order) == 0 {
		return 0, nil
	}

	data := make([]deviceCommandData, 0, len(batch.order))
	for _, key := range batch.order {
		data = append(data, batch.data[key])
	}

	cmdBatch := batchCommand{Cmd: cmd, MsgID: newMsgID(), GwSN: d.gwSN, Data: data}
	if err := d.publish(cmdBatch); err != nil {
		return len(data), err
	}
	return len(data), nil
}

// register arms a fresh waiter for key, replacing and abandoning any
// waiter already registered under it (the last caller to register wins,
// matching the single-event-per-kind semantics this is ported from).
func (d *Dispatcher) register(key waiterKey) chan any {
	ch := make(chan any, 1)
	d.waitMu.Lock()
	d.waiters[key] = ch
	d.waitMu.Unlock()
	return ch
}

// complete delivers value to the currently registered waiter for key, if
// any. It never blocks: a waiter channel is always buffered by one.
func (d *Dispatcher) complete(key waiterKey, value any) {
	d.waitMu.Lock()
	ch, ok := d.waiters[key]
	if ok {
		delete(d.waiters, key)
	}
	d.waitMu.Unlock()

	if ok {
		ch <- value
	}
}

// Close stops all pending coalescing timers without flushing them. Call
// when the owning session disconnects so commands queued just before
// disconnect don't fire into a closed connection.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, t := range d.timers {
		t.Stop()
	}
	d.pending = make(map[string]*pendingBatch)
	d.timers = make(map[string]*time.Timer)
}
