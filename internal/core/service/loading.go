package service

import "sync"

// loadingScope is a reference count of in-flight operations. The flag is
// published true when the count leaves zero and false when it returns to it.
type loadingScope struct {
	mu      sync.Mutex
	n       int
	publish func(bool)
}

// acquire enters the scope. The returned release must be called exactly
// once, normally with defer; extra calls are ignored.
func (l *loadingScope) acquire() (release func()) {
	l.mu.Lock()
	l.n++
	if l.n == 1 {
		l.publish(true)
	}
	l.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			defer l.mu.Unlock()
			l.n--
			if l.n == 0 {
				l.publish(false)
			}
		})
	}
}
