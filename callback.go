package ice

// Callback receives the outcome of a command.
type Callback interface {
	Invoke(Result)
	Invokable() bool
}

// CallbackFunc adapts a function to Callback. A nil CallbackFunc is not invokable.
type CallbackFunc func(Result)

func (f CallbackFunc) Invoke(r Result) {
	f(r)
}

func (f CallbackFunc) Invokable() bool {
	return f != nil
}

func invokable(cb Callback) bool {
	return cb != nil && cb.Invokable()
}
