package nonblocking

import "time"

type Poller struct {
	interval time.Duration
}

//infer:mainthread
func (p *Poller) Tick() {
	p.fastPath()
	p.slowPath() // want `starvation: Tick runs on the main thread \(marked //infer:mainthread\) and may block calling time\.Sleep`
}

// fastPath sleeps too, but the directive strips blocking events from
// its summary before callers see it.
//
//infer:nonblocking
func (p *Poller) fastPath() {
	time.Sleep(p.interval)
}

func (p *Poller) slowPath() {
	time.Sleep(p.interval) // want `starvation: slowPath runs on the main thread \(called from Tick\) and may block calling time\.Sleep`
}
