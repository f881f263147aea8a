/*
Package resilience provides a circuit breaker for work that can fail
repeatedly, such as building a root from a broken script.

# States

	Closed --[ReadyToTrip]-> Open --[Cooldown]-> Half-Open --[MaxProbes successes]-> Closed
	                                                  |
	                                              [failure]
	                                                  v
	                                                 Open

# Usage

	breaker := resilience.New("factory", resilience.Settings{
		Cooldown: 10 * time.Second,
		OnStateChange: func(name string, from, to resilience.State) {
			log.Warn("breaker changed state", zap.Stringer("from", from), zap.Stringer("to", to))
		},
	})

	node, err := resilience.Do(breaker, factory.New)
	if errors.Is(err, resilience.ErrCircuitOpen) {
		// fail fast
	}
*/
package resilience
