package brewsvc

import "github.com/rs/zerolog"

// Notifier shows blocking error notifications to the user.
//
// Alert is called from the engine loop. Implementations must return
// promptly; a surface that wants a modal dialog should queue it.
type Notifier interface {
	Alert(title, detail string)
}

// NotifierFunc adapts a function to the Notifier interface
type NotifierFunc func(title, detail string)

// Alert calls f
func (f NotifierFunc) Alert(title, detail string) {
	f(title, detail)
}

// logNotifier is the fallback when no surface can show alerts
type logNotifier struct {
	log zerolog.Logger
}

func (n logNotifier) Alert(title, detail string) {
	n.log.Error().Str("detail", detail).Msg(title)
}
