//go:build !unix

package input

// WatchResize is a no-op on platforms without SIGWINCH: it emits no
// ActionResize, so the terminal size read at startup stays in effect.
func (p *Producer) WatchResize(stop <-chan struct{}) {
	<-stop
}
