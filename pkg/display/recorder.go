package display

import "sync"

// Recorder remembers what was shown and counts updates.
type Recorder struct {
	lock    sync.Mutex
	status  bool
	mode    string
	id      string
	updates int
	modes   []string
}

// ShowStatus implements Display. Every call counts as one update.
func (r *Recorder) ShowStatus(on bool) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.status = on
	r.updates++
}

// ShowMode implements Display.
func (r *Recorder) ShowMode(text string) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.mode = text
	r.modes = append(r.modes, text)
}

// ShowID implements Display.
func (r *Recorder) ShowID(text string) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.id = text
}

// Status returns the last status shown.
func (r *Recorder) Status() bool {
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.status
}

// Mode returns the last mode shown.
func (r *Recorder) Mode() string {
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.mode
}

// ID returns the last id shown.
func (r *Recorder) ID() string {
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.id
}

// Updates returns the number of status updates.
func (r *Recorder) Updates() int {
	r.lock.Lock()
	defer r.lock.Unlock()
	return r.updates
}

// Modes returns every mode shown, in order.
func (r *Recorder) Modes() []string {
	r.lock.Lock()
	defer r.lock.Unlock()
	return append([]string(nil), r.modes...)
}
