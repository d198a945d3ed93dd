package connstate

import "time"

// Run is one worker's completion-drain loop (spec.md §5): block in
// get_completion up to timeout, dispatch whatever arrives, repeat until
// a shutdown sentinel is seen.
func (m *Machine) Run(timeout time.Duration) {
	if timeout <= 0 {
		timeout = time.Second
	}
	for {
		c, ok := m.Reactor.GetCompletion(timeout)
		if !ok {
			continue
		}
		if m.HandleCompletion(c) {
			return
		}
	}
}
