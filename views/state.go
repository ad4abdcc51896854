package views

// Dispatch is a custom vaxis event carrying a callback onto the event loop.
// Timer and socket goroutines post it via PostEvent so that page state is
// only ever touched from the loop.
type Dispatch struct {
	Fn func()
}

// NotifierStopped is posted when the hot-reload notifier returns.
type NotifierStopped struct {
	Err error
}
