// Package observable provides mutable values that notify subscribers on change.
package observable

import "sync"

// ReadOnly is the read side of a Prop.
type ReadOnly[T any] interface {
	Get() T
	Subscribe(fn func(T)) (cancel func())
}

// Prop holds a value of type T. Subscribers are called synchronously after
// every Set, outside the lock, in registration order.
type Prop[T any] struct {
	mu   sync.RWMutex
	val  T
	subs []subscriber[T]
	next int
}

type subscriber[T any] struct {
	id int
	fn func(T)
}

// NewProp creates a Prop holding initial.
func NewProp[T any](initial T) *Prop[T] {
	return &Prop[T]{val: initial}
}

// Get returns the current value.
func (p *Prop[T]) Get() T {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.val
}

// Set stores v and notifies subscribers.
func (p *Prop[T]) Set(v T) {
	p.mu.Lock()
	p.val = v
	subs := make([]subscriber[T], len(p.subs))
	copy(subs, p.subs)
	p.mu.Unlock()

	for _, s := range subs {
		s.fn(v)
	}
}

// Subscribe registers fn and returns a function that removes it.
func (p *Prop[T]) Subscribe(fn func(T)) (cancel func()) {
	p.mu.Lock()
	id := p.next
	p.next++
	p.subs = append(p.subs, subscriber[T]{id: id, fn: fn})
	p.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			p.mu.Lock()
			defer p.mu.Unlock()
			for i, s := range p.subs {
				if s.id == id {
					p.subs = append(p.subs[:i:i], p.subs[i+1:]...)
					return
				}
			}
		})
	}
}
