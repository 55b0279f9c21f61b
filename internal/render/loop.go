package render

// Loop gates redraws on a dirty flag. The host calls Frame once per
// animation frame; the flag is cleared only after a draw succeeds.
type Loop struct {
	dirty   bool
	stopped bool
	frames  int
}

// NewLoop returns a loop that draws on its first frame.
func NewLoop() *Loop {
	return &Loop{dirty: true}
}

func (l *Loop) Invalidate() { l.dirty = true }

func (l *Loop) Dirty() bool { return l.dirty }

// Stop ends the loop between frames. Later Frame calls do nothing.
func (l *Loop) Stop() { l.stopped = true }

func (l *Loop) Stopped() bool { return l.stopped }

// Frames counts completed draws.
func (l *Loop) Frames() int { return l.frames }

// Frame runs draw when the scene is dirty and reports whether it drew.
func (l *Loop) Frame(draw func() error) (bool, error) {
	if l.stopped || !l.dirty {
		return false, nil
	}
	if err := draw(); err != nil {
		return false, err
	}
	l.dirty = false
	l.frames++
	return true, nil
}
