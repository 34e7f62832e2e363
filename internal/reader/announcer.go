package reader

import "time"

// MinAnnouncementHold is the shortest time an announcement stays visible.
const MinAnnouncementHold = time.Second

// RepeatGap is how long the region stays blank before an identical message
// is written again. It spans at least one rendered frame.
const RepeatGap = 100 * time.Millisecond

// Region is a live text region read by assistive technology.
type Region interface {
	SetText(text string)
}

// Announcer writes status messages to a live region and clears them after
// a hold period so an identical message is detected as new next time.
type Announcer struct {
	region  Region
	sched   Scheduler
	hold    time.Duration
	current string
	gen     uint64
	clear   Timer
	show    Timer
}

func NewAnnouncer(region Region, sched Scheduler, hold time.Duration) *Announcer {
	if hold < MinAnnouncementHold {
		hold = MinAnnouncementHold
	}
	return &Announcer{region: region, sched: sched, hold: hold}
}

func (a *Announcer) Announce(msg string) {
	if msg == "" {
		return
	}
	a.cancelPending()

	a.gen++
	gen := a.gen
	if a.current == msg {
		a.region.SetText("")
		a.show = a.sched.After(RepeatGap, func() {
			if a.gen != gen {
				return
			}
			a.show = nil
			a.region.SetText(msg)
		})
	} else {
		a.region.SetText(msg)
	}
	a.current = msg

	a.clear = a.sched.After(a.hold, func() {
		if a.gen != gen {
			return
		}
		a.clear = nil
		a.current = ""
		a.region.SetText("")
	})
}

// Current returns the text shown in the region, empty once cleared.
func (a *Announcer) Current() string {
	return a.current
}

func (a *Announcer) cancelPending() {
	a.gen++
	for _, t := range []*Timer{&a.clear, &a.show} {
		if *t != nil {
			(*t).Stop()
			*t = nil
		}
	}
}
