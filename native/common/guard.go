package common

import (
	"errors"
	"sync"
)

var ErrModulePaused = errors.New("module paused")

type PauseView interface {
	IsPaused(module string) bool
}

func Guard(p PauseView, module string) error {
	if p == nil || module == "" {
		return nil
	}
	if p.IsPaused(module) {
		return ErrModulePaused
	}
	return nil
}

// Switch is a concrete PauseView whose flags can be flipped at runtime.
// Engines hold the switch and gate their own admin operations around it.
type Switch struct {
	mu      sync.RWMutex
	modules map[string]bool
}

// NewSwitch creates a switch with the supplied modules initially paused.
func NewSwitch(paused ...string) *Switch {
	s := &Switch{modules: make(map[string]bool, len(paused))}
	for _, module := range paused {
		if module == "" {
			continue
		}
		s.modules[module] = true
	}
	return s
}

// IsPaused implements the PauseView interface.
func (s *Switch) IsPaused(module string) bool {
	if s == nil {
		return false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.modules[module]
}

// SetPaused flips the flag for the supplied module. Setting an already-set
// flag is a no-op.
func (s *Switch) SetPaused(module string, paused bool) {
	if s == nil || module == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if paused {
		if s.modules == nil {
			s.modules = make(map[string]bool)
		}
		s.modules[module] = true
		return
	}
	delete(s.modules, module)
}
