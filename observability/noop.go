package observability

// NoOpObserver discards every observation.
type NoOpObserver struct{}

// ObserveOperation does nothing.
func (n *NoOpObserver) ObserveOperation(ctx OperationContext) {}

// NewNoOpObserver creates a new NoOpObserver.
func NewNoOpObserver() Observer {
	return &NoOpObserver{}
}

// Multi fans an observation out to several observers. Nil entries are
// skipped and a single non-nil observer is returned as is.
func Multi(observers ...Observer) Observer {
	var list []Observer
	for _, o := range observers {
		if o != nil {
			list = append(list, o)
		}
	}
	switch len(list) {
	case 0:
		return NewNoOpObserver()
	case 1:
		return list[0]
	}
	return multiObserver(list)
}

type multiObserver []Observer

func (m multiObserver) ObserveOperation(ctx OperationContext) {
	for _, o := range m {
		o.ObserveOperation(ctx)
	}
}

// Observe calls o when it is non-nil. Packages use it so that an absent
// observer needs no checks at the call site.
func Observe(o Observer, ctx OperationContext) {
	if o != nil {
		o.ObserveOperation(ctx)
	}
}
