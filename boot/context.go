package boot

import (
	"fmt"
	"sync"
)

// Context stores arbitrary key/value pairs shared between phases.
type Context struct {
	mu    sync.RWMutex
	store map[string]any
}

// NewContext creates an empty context.
func NewContext() *Context {
	return &Context{
		store: make(map[string]any),
	}
}

// Set assigns a value under the provided key.
func (c *Context) Set(key string, value any) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.store == nil {
		c.store = make(map[string]any)
	}
	c.store[key] = value
}

// Get retrieves a value, returning false when the key is not present.
func (c *Context) Get(key string) (any, bool) {
	if c == nil {
		return nil, false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	val, ok := c.store[key]
	return val, ok
}

// Delete removes a key, if present.
func (c *Context) Delete(key string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.store, key)
}

// SetValue stores a typed value in the run state's shared context.
func SetValue[T any](st *State, key string, value T) {
	if st == nil {
		return
	}
	st.Values.Set(key, value)
}

// Value retrieves a typed value from the run state's shared context.
func Value[T any](st *State, key string) (T, bool) {
	var zero T
	if st == nil {
		return zero, false
	}
	val, ok := st.Values.Get(key)
	if !ok {
		return zero, false
	}
	casted, ok := val.(T)
	if !ok {
		return zero, false
	}
	return casted, true
}

func inputKey(phaseIndex int, inputID string) string {
	return fmt.Sprintf("phase:%d:input:%s", phaseIndex, inputID)
}

// SetInput stores an operator-provided input value for a given phase.
func SetInput(st *State, phaseIndex int, inputID string, value any) {
	if st == nil {
		return
	}
	st.Values.Set(inputKey(phaseIndex, inputID), value)
}

// GetInput retrieves an operator-provided input value for a given phase.
func GetInput(st *State, phaseIndex int, inputID string) (any, bool) {
	if st == nil {
		return nil, false
	}
	return st.Values.Get(inputKey(phaseIndex, inputID))
}
