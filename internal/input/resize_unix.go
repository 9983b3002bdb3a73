//go:build unix

package input

import (
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/term"
)

// WatchResize blocks, forwarding one ActionResize per SIGWINCH until
// stop is closed. It runs on its own goroutine alongside Run.
func (p *Producer) WatchResize(stop <-chan struct{}) {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGWINCH)
	defer signal.Stop(sig)

	for {
		select {
		case <-stop:
			return
		case <-sig:
			w, h, err := term.GetSize(int(os.Stdin.Fd()))
			if err != nil {
				continue
			}
			p.send(Action{Kind: ActionResize, Width: w, Height: h})
		}
	}
}
