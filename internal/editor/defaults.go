package editor

import "sync"

// Defaults is the global configuration applied to editors created after it
// changes. It plays the role of the widget's default code cell options.
type Defaults struct {
	mu      sync.RWMutex
	options map[string]any
}

// NewDefaults returns an empty default option set.
func NewDefaults() *Defaults {
	return &Defaults{options: make(map[string]any)}
}

// Set sets a default option.
func (d *Defaults) Set(name string, value any) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.options[name] = value
}

// Get returns a default option or nil.
func (d *Defaults) Get(name string) any {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.options[name]
}

// Mode returns the default mode name, or "" when none is set.
func (d *Defaults) Mode() string {
	s, _ := d.Get(OptionMode).(string)
	return s
}

// Apply copies every default option onto ed.
func (d *Defaults) Apply(ed Editor) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for k, v := range d.options {
		ed.SetOption(k, v)
	}
}

// MemoryFactory creates Buffers that inherit the current defaults.
type MemoryFactory struct {
	Defaults *Defaults
}

// New creates a Buffer holding text.
func (f MemoryFactory) New(text string) Editor {
	b := NewBuffer(text)
	if f.Defaults != nil {
		f.Defaults.Apply(b)
	}
	return b
}
