package telegram

import (
	"sync"
	"time"
)

// dialogTTL bounds how long an abandoned admin dialog keeps capturing messages
const dialogTTL = 15 * time.Minute

type step int

const (
	stepVideoTitle step = iota + 1
	stepVideo
	stepPremiumUser
	stepPremiumMonths
)

// dialog is the pending step of a multi-message admin command
type dialog struct {
	step     step
	title    string // collected before stepVideo
	targetID int64  // user receiving premium in stepPremiumMonths
	expires  time.Time
}

// dialogs tracks at most one dialog per admin
type dialogs struct {
	mu  sync.Mutex
	m   map[int64]dialog
	now func() time.Time
}

func newDialogs() *dialogs {
	return &dialogs{
		m:   make(map[int64]dialog),
		now: time.Now,
	}
}

// start replaces any dialog of userID
func (d *dialogs) start(userID int64, dl dialog) {
	d.mu.Lock()
	defer d.mu.Unlock()

	dl.expires = d.now().Add(dialogTTL)
	d.m[userID] = dl
}

// get returns the live dialog of userID; expired dialogs are dropped
func (d *dialogs) get(userID int64) (dialog, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()

	dl, ok := d.m[userID]
	if !ok {
		return dialog{}, false
	}
	if !d.now().Before(dl.expires) {
		delete(d.m, userID)
		return dialog{}, false
	}
	return dl, true
}

// clear ends the dialog of userID and reports whether a live one existed
func (d *dialogs) clear(userID int64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	dl, ok := d.m[userID]
	delete(d.m, userID)
	return ok && d.now().Before(dl.expires)
}
