// Package uistate holds the dashboard's shared selection state.
package uistate

import "sync"

// Selection is the observable UI state. SelectedDeviceID is nil when no
// device is selected.
type Selection struct {
	SidebarCollapsed bool    `json:"sidebarCollapsed"`
	InspectorOpen    bool    `json:"inspectorOpen"`
	SelectedDeviceID *string `json:"selectedDeviceId"`
	DeviceFilter     string  `json:"deviceFilter"`
}

type Listener func(Selection)

// Store is the single owner of a Selection. Subscribers are notified
// synchronously, in subscription order, after every mutation.
type Store struct {
	mu        sync.Mutex
	state     Selection
	nextID    uint64
	listeners map[uint64]Listener
	order     []uint64

	// notifyMu serializes notification rounds so subscribers observe
	// mutations in the order they were applied.
	notifyMu sync.Mutex
}

func NewStore() *Store {
	return &Store{listeners: make(map[uint64]Listener)}
}

func (s *Store) ToggleSidebar() {
	s.update(func(sel *Selection) {
		sel.SidebarCollapsed = !sel.SidebarCollapsed
	})
}

// OpenInspector selects deviceID and opens the inspector.
func (s *Store) OpenInspector(deviceID string) {
	s.update(func(sel *Selection) {
		id := deviceID
		sel.SelectedDeviceID = &id
		sel.InspectorOpen = true
	})
}

// CloseInspector closes the inspector and clears the selection.
func (s *Store) CloseInspector() {
	s.update(func(sel *Selection) {
		sel.InspectorOpen = false
		sel.SelectedDeviceID = nil
	})
}

func (s *Store) SetDeviceFilter(text string) {
	s.update(func(sel *Selection) {
		sel.DeviceFilter = text
	})
}

func (s *Store) Snapshot() Selection {
	s.mu.Lock()
	defer s.mu.Unlock()
	return copySelection(s.state)
}

// Subscribe registers fn and returns a function that removes it. Calling
// the returned function more than once is a no-op.
func (s *Store) Subscribe(fn Listener) (unsubscribe func()) {
	if fn == nil {
		return func() {}
	}

	s.mu.Lock()
	s.nextID++
	id := s.nextID
	s.listeners[id] = fn
	s.order = append(s.order, id)
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			delete(s.listeners, id)
			for i, v := range s.order {
				if v == id {
					s.order = append(s.order[:i:i], s.order[i+1:]...)
					break
				}
			}
		})
	}
}

// Watch subscribes fn and hands it the current selection first. No
// mutation can land between that first call and the subscription, so the
// last value fn receives is always the current state.
func (s *Store) Watch(fn Listener) (unsubscribe func()) {
	if fn == nil {
		return func() {}
	}

	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	unsubscribe = s.Subscribe(fn)
	fn(s.Snapshot())
	return unsubscribe
}

func (s *Store) update(fn func(*Selection)) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	fn(&s.state)
	snapshot := copySelection(s.state)
	listeners := make([]Listener, 0, len(s.order))
	for _, id := range s.order {
		listeners = append(listeners, s.listeners[id])
	}
	s.mu.Unlock()

	for _, l := range listeners {
		l(copySelection(snapshot))
	}
}

func copySelection(sel Selection) Selection {
	if sel.SelectedDeviceID != nil {
		id := *sel.SelectedDeviceID
		sel.SelectedDeviceID = &id
	}
	return sel
}
