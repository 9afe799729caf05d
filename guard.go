package goSpace

// Guard chain. Each check implies the previous one and short-circuits
// outward-in, so a caller only ever sees the most fundamental failure.

func (e *Engine) requireLoaded(op, caller string) error {
	if e.loaded.Load() {
		return nil
	}
	e.metricInc(MetricGuardNotLoaded)
	e.logger.Error("goSpace: not loaded", "op", op, "caller", caller)
	return ErrNotLoaded
}

func (e *Engine) requireEnabled(op, caller string) error {
	if err := e.requireLoaded(op, caller); err != nil {
		return err
	}
	step := e.Step()
	if step == StepAuthenticated {
		return nil
	}
	e.metricInc(MetricGuardNotAuthenticated)
	e.logger.Error("goSpace: not connected/authenticated", "op", op, "caller", caller, "step", step.String())
	return ErrNotAuthenticated
}

// requireSpaceOpened returns the opened space of the caller.
func (e *Engine) requireSpaceOpened(op, caller string) (StoreSpace, error) {
	if err := e.requireEnabled(op, caller); err != nil {
		return nil, err
	}
	if err := e.validateCaller(caller); err != nil {
		return nil, err
	}

	key := e.NamespaceKey(caller)
	e.mu.RLock()
	space, ok := e.spaces[key]
	e.mu.RUnlock()
	if ok {
		return space, nil
	}

	e.metricInc(MetricGuardNamespaceNotOpen)
	e.logger.Error("goSpace: namespace not open", "op", op, "caller", caller, "namespace", key)
	return nil, ErrNamespaceNotOpen
}
