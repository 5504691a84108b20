package kinetic

// Commit pushes a snapshot of the current stored state onto the past stack.
// Any redo branch is invalidated: the future stack is cleared. When the past
// stack exceeds the runtime's history capacity the oldest entry is evicted.
func (in *Instance) Commit() error {
	if err := in.guard("commit"); err != nil {
		return err
	}
	snap := in.snapshot()

	in.histMu.Lock()
	in.past = append(in.past, snap)
	if len(in.past) > in.rt.historyCap {
		in.past = in.past[1:]
	}
	in.future = nil
	in.histMu.Unlock()

	in.rt.metrics.recordSnapshot()
	return nil
}

// Undo restores the most recent past snapshot, stashing the current state on
// the future stack. Reports false without changing anything when there is
// nothing to undo.
func (in *Instance) Undo() (bool, error) {
	if err := in.guard("undo"); err != nil {
		return false, err
	}

	in.histMu.Lock()
	if len(in.past) == 0 {
		in.histMu.Unlock()
		return false, nil
	}
	snap := in.past[len(in.past)-1]
	in.past = in.past[:len(in.past)-1]
	in.future = append(in.future, in.snapshot())
	if len(in.future) > in.rt.historyCap {
		in.future = in.future[1:]
	}
	in.histMu.Unlock()

	in.applySnapshot(snap)
	return true, nil
}

// Redo is the inverse of Undo. Reports false when the future stack is empty,
// which is always the case right after a Commit.
func (in *Instance) Redo() (bool, error) {
	if err := in.guard("redo"); err != nil {
		return false, err
	}

	in.histMu.Lock()
	if len(in.future) == 0 {
		in.histMu.Unlock()
		return false, nil
	}
	snap := in.future[len(in.future)-1]
	in.future = in.future[:len(in.future)-1]
	in.past = append(in.past, in.snapshot())
	if len(in.past) > in.rt.historyCap {
		in.past = in.past[1:]
	}
	in.histMu.Unlock()

	in.applySnapshot(snap)
	return true, nil
}

// HistoryDepth reports the sizes of the past and future stacks.
func (in *Instance) HistoryDepth() (past, future int) {
	in.histMu.Lock()
	defer in.histMu.Unlock()
	return len(in.past), len(in.future)
}

// applySnapshot overwrites stored fields from snap. Listeners, jobs,
// children and connections are untouched.
func (in *Instance) applySnapshot(snap map[string]any) {
	in.mu.Lock()
	in.fields = make(map[string]any, len(snap))
	for k, v := range snap {
		in.fields[k] = deepCopy(v)
	}
	in.mu.Unlock()

	in.touch()
	in.emitInternal(EventRestored)
}
