package dom

import (
	"github.com/trickstertwo/xpubsub"
)

// hop is one node of an event path and the target as seen from that node.
type hop struct {
	node   *Node
	target *Node
}

// eventPath walks from n to the root. Shadow roots end the path unless the
// event is composed, in which case the walk continues at the host and the
// target is retargeted to it.
func (n *Node) eventPath(composed bool) []hop {
	var path []hop
	target := n
	for cur := n; cur != nil; {
		path = append(path, hop{node: cur, target: target})

		cur.mu.RLock()
		parent, host := cur.parent, cur.host
		cur.mu.RUnlock()

		if host != nil {
			if !composed {
				break
			}
			target = host
			cur = host
			continue
		}
		cur = parent
	}
	return path
}

// DispatchEvent runs the capture, target and bubble phases synchronously.
// The first listener error aborts dispatch and is returned. The bool result is
// false when a listener cancelled the event.
func (n *Node) DispatchEvent(ev *xpubsub.Event) (bool, error) {
	path := n.eventPath(ev.Composed)
	err := n.propagate(ev, path)

	ev.Phase = xpubsub.PhaseNone
	ev.CurrentTarget = nil
	ev.Target = n
	return !ev.DefaultPrevented(), err
}

func (n *Node) propagate(ev *xpubsub.Event, path []hop) error {
	for i := len(path) - 1; i >= 0; i-- {
		h := path[i]
		phase := xpubsub.PhaseCapturing
		if h.node == h.target {
			phase = xpubsub.PhaseAtTarget
		}
		if err := h.node.invoke(ev, h, phase, true); err != nil {
			return err
		}
		if ev.PropagationStopped() {
			return nil
		}
	}

	for _, h := range path {
		phase := xpubsub.PhaseBubbling
		if h.node == h.target {
			phase = xpubsub.PhaseAtTarget
		} else if !ev.Bubbles {
			continue
		}
		if err := h.node.invoke(ev, h, phase, false); err != nil {
			return err
		}
		if ev.PropagationStopped() {
			return nil
		}
	}
	return nil
}

// invoke runs the listeners of one node registered for the given phase kind.
// The listener list is snapshotted first, so registrations made while
// dispatching apply to later events.
func (n *Node) invoke(ev *xpubsub.Event, h hop, phase xpubsub.EventPhase, capture bool) error {
	n.mu.RLock()
	regs := n.listeners[ev.Type]
	snapshot := make([]registration, 0, len(regs))
	for _, r := range regs {
		if r.capture == capture {
			snapshot = append(snapshot, r)
		}
	}
	n.mu.RUnlock()

	if len(snapshot) == 0 {
		return nil
	}

	ev.Target = h.target
	ev.CurrentTarget = n
	ev.Phase = phase
	for _, r := range snapshot {
		if ev.ImmediatePropagationStopped() {
			return nil
		}
		if err := r.listener.HandleEvent(ev); err != nil {
			return err
		}
	}
	return nil
}
