// Package render draws reassembled CSI/TA data. The live pipeline and the
// replay loader both go through the same Renderer entry point, so a replayed
// session produces the same sequence of draws as the live one did.
package render

import "github.com/inss-lab/udp-5g-csi-plot/internal/window"

// Renderer draws one snapshot of the reassembly window. Implementations
// must treat the snapshot's CSI vectors as read-only.
type Renderer interface {
	Draw(snap window.Snapshot)
}

// Func adapts a function to the Renderer interface.
type Func func(snap window.Snapshot)

// Draw implements Renderer.
func (f Func) Draw(snap window.Snapshot) {
	f(snap)
}
