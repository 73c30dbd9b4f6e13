package analyzer

import (
	"strings"

	"github.com/pravinparker/infer/pkg/config"
	"github.com/pravinparker/infer/pkg/ir"
	"github.com/pravinparker/infer/pkg/starvation"
)

// blockModel is one entry of the may-block table.
type blockModel struct {
	sev  starvation.Severity
	desc string
}

// callModels classifies calls by qualified callee name: the built-in
// tables below cover the sync package, common blocking calls from the
// standard library, and the file system surface flagged under strict
// mode. A config file extends every table. The maps are read-only
// after construction, so lookups are safe from concurrent summary
// workers.
type callModels struct {
	lock     map[string]bool
	unlock   map[string]bool
	tryLock  map[string]bool
	wrapped  map[string]bool
	ui       map[string]bool
	strict   map[string]string
	blocking map[string]blockModel
	skip     map[string]bool
}

func newCallModels(cfg *config.Config) (*callModels, error) {
	m := &callModels{
		lock: map[string]bool{
			"(*sync.Mutex).Lock":    true,
			"(*sync.RWMutex).Lock":  true,
			"(*sync.RWMutex).RLock": true,
			"(sync.Locker).Lock":    true,
		},
		unlock: map[string]bool{
			"(*sync.Mutex).Unlock":    true,
			"(*sync.RWMutex).Unlock":  true,
			"(*sync.RWMutex).RUnlock": true,
			"(sync.Locker).Unlock":    true,
		},
		tryLock: map[string]bool{
			"(*sync.Mutex).TryLock":    true,
			"(*sync.RWMutex).TryLock":  true,
			"(*sync.RWMutex).TryRLock": true,
		},
		wrapped: map[string]bool{
			"(*sync.Map).Load":             true,
			"(*sync.Map).Store":            true,
			"(*sync.Map).Delete":           true,
			"(*sync.Map).LoadOrStore":      true,
			"(*sync.Map).LoadAndDelete":    true,
			"(*sync.Map).Swap":             true,
			"(*sync.Map).CompareAndSwap":   true,
			"(*sync.Map).CompareAndDelete": true,
			"(*sync.Map).Range":            true,
			"(*sync.Once).Do":              true,
			"(*log.Logger).Print":          true,
			"(*log.Logger).Printf":         true,
			"(*log.Logger).Println":        true,
		},
		ui: map[string]bool{
			"runtime.LockOSThread": true,
		},
		strict: map[string]string{
			"os.Open":      "os.Open (file system)",
			"os.OpenFile":  "os.OpenFile (file system)",
			"os.Create":    "os.Create (file system)",
			"os.ReadFile":  "os.ReadFile (file system)",
			"os.WriteFile": "os.WriteFile (file system)",
			"os.Remove":    "os.Remove (file system)",
			"os.RemoveAll": "os.RemoveAll (file system)",
			"os.Rename":    "os.Rename (file system)",
			"os.Stat":      "os.Stat (file system)",
			"os.ReadDir":   "os.ReadDir (file system)",
			"os.Mkdir":     "os.Mkdir (file system)",
			"os.MkdirAll":  "os.MkdirAll (file system)",
		},
		blocking: map[string]blockModel{
			"time.Sleep":                    {starvation.SevHigh, "time.Sleep"},
			"(*sync.WaitGroup).Wait":        {starvation.SevHigh, "sync.WaitGroup.Wait"},
			"(*sync.Cond).Wait":             {starvation.SevHigh, "sync.Cond.Wait"},
			"net.Dial":                      {starvation.SevHigh, "net.Dial"},
			"net.DialTimeout":               {starvation.SevHigh, "net.DialTimeout"},
			"net.Listen":                    {starvation.SevHigh, "net.Listen"},
			"net/http.Get":                  {starvation.SevHigh, "http.Get"},
			"net/http.Post":                 {starvation.SevHigh, "http.Post"},
			"net/http.PostForm":             {starvation.SevHigh, "http.PostForm"},
			"(*net/http.Client).Do":         {starvation.SevHigh, "http.Client.Do"},
			"(*net/http.Client).Get":        {starvation.SevHigh, "http.Client.Get"},
			"(*net/http.Client).Post":       {starvation.SevHigh, "http.Client.Post"},
			"(*os/exec.Cmd).Run":            {starvation.SevHigh, "exec.Cmd.Run"},
			"(*os/exec.Cmd).Wait":           {starvation.SevHigh, "exec.Cmd.Wait"},
			"(*os/exec.Cmd).Output":         {starvation.SevHigh, "exec.Cmd.Output"},
			"(*os/exec.Cmd).CombinedOutput": {starvation.SevHigh, "exec.Cmd.CombinedOutput"},
			"io.ReadAll":                    {starvation.SevMedium, "io.ReadAll"},
			"(*database/sql.DB).Query":      {starvation.SevMedium, "sql.DB.Query"},
			"(*database/sql.DB).QueryRow":   {starvation.SevMedium, "sql.DB.QueryRow"},
			"(*database/sql.DB).Exec":       {starvation.SevMedium, "sql.DB.Exec"},
			"(*database/sql.DB).Ping":       {starvation.SevMedium, "sql.DB.Ping"},
		},
		skip: make(map[string]bool),
	}
	for _, name := range cfg.UIThread {
		m.ui[name] = true
	}
	for _, name := range cfg.Skip {
		m.skip[name] = true
	}
	for _, name := range cfg.Strict {
		m.strict[name] = name
	}
	for _, b := range cfg.Blocking {
		sev, err := config.ParseSeverity(b.Severity)
		if err != nil {
			return nil, err
		}
		desc := b.Description
		if desc == "" {
			desc = b.Name
		}
		m.blocking[b.Name] = blockModel{sev: sev, desc: desc}
	}
	return m, nil
}

func (m *callModels) Classify(callee ir.ProcName, args []ir.Exp) starvation.Effect {
	q := callee.Qualified
	switch {
	case m.lock[q]:
		return starvation.Effect{Kind: starvation.EffectLock, Exps: receiverOf(args)}
	case m.unlock[q]:
		return starvation.Effect{Kind: starvation.EffectUnlock, Exps: receiverOf(args)}
	case m.tryLock[q]:
		return starvation.Effect{Kind: starvation.EffectLockedIfTrue, Exps: receiverOf(args)}
	}
	return starvation.Effect{}
}

func (m *callModels) Skip(callee ir.ProcName) bool {
	return m.skip[callee.Qualified] || strings.HasPrefix(callee.Qualified, "fmt.")
}

func (m *callModels) Synchronized(callee ir.ProcName) bool {
	return m.wrapped[callee.Qualified]
}

func (m *callModels) BindsUIThread(callee ir.ProcName) bool {
	return m.ui[callee.Qualified]
}

func (m *callModels) Strict(callee ir.ProcName) (string, bool) {
	desc, ok := m.strict[callee.Qualified]
	return desc, ok
}

func (m *callModels) Blocks(callee ir.ProcName) (starvation.Severity, string, bool) {
	b, ok := m.blocking[callee.Qualified]
	if !ok {
		return 0, "", false
	}
	return b.sev, b.desc, true
}

// lockFamily reports membership in any mutex table. Lowering uses it
// to drop deferred lock operations.
func (m *callModels) lockFamily(qualified string) bool {
	return m.lock[qualified] || m.unlock[qualified] || m.tryLock[qualified]
}

func receiverOf(args []ir.Exp) []ir.Exp {
	if len(args) == 0 {
		return nil
	}
	return args[:1]
}
