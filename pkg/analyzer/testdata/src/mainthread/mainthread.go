package mainthread

import (
	"net"
	"sync"
	"time"
)

type App struct {
	mu    sync.Mutex
	state map[string]string
	conn  net.Conn
}

func NewApp() *App {
	time.Sleep(10 * time.Millisecond)
	return &App{state: make(map[string]string)}
}

// Boot blocks through the constructor it calls, and the constructor
// itself stays quiet.
//
//infer:mainthread
func (a *App) Boot() {
	fresh := NewApp() // want `starvation: Boot runs on the main thread \(marked //infer:mainthread\) and may block calling time\.Sleep`
	a.state = fresh.state
}

//infer:mainthread
func (a *App) Render() {
	a.mu.Lock() // want `starvation: Render runs on the main thread \(marked //infer:mainthread\) and takes App\.mu, which Refresh holds while blocking on time\.Sleep`
	defer a.mu.Unlock()
	_ = a.state["title"]
}

//infer:mainthread
func (a *App) Slow() {
	time.Sleep(time.Second) // want `starvation: Slow runs on the main thread \(marked //infer:mainthread\) and may block calling time\.Sleep`
}

//infer:mainthread
func (a *App) Startup() {
	a.warm() // want `starvation: Startup runs on the main thread \(marked //infer:mainthread\) and may block calling net\.Dial`
}

// Refresh runs off the main thread, so its own sleep is fine; it only
// shows up as the contending side of Render's report.
func (a *App) Refresh() {
	a.mu.Lock()
	defer a.mu.Unlock()
	time.Sleep(50 * time.Millisecond)
	a.state["title"] = "ready"
}

func (a *App) warm() {
	conn, err := net.Dial("tcp", "localhost:8080") // want `starvation: warm runs on the main thread \(called from Startup\) and may block calling net\.Dial`
	if err != nil {
		return
	}
	a.conn = conn
}
