package strict

import "os"

type Settings struct {
	path string
	raw  []byte
}

//infer:mainthread
func (s *Settings) Reload() error {
	data, err := os.ReadFile(s.path) // want `strict mode violation: Reload runs on the main thread \(marked //infer:mainthread\) and calls os\.ReadFile \(file system\)`
	if err != nil {
		return err
	}
	s.raw = data
	return nil
}

// Persist touches the file system off the main thread, which strict
// mode permits.
func (s *Settings) Persist() error {
	return os.WriteFile(s.path, s.raw, 0o644)
}
