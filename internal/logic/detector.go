package logic

import "time"

// Detector compares successive polls and reports machine transitions.
// Both machines start OFF, so the detector does too.
type Detector struct {
	alarm         State
	heat          State
	startTime     time.Time
	eventCounts   EventCounts
	lastHeartbeat time.Time
}

// NewDetector creates a detector. The startTime is used for calculating
// uptime in heartbeat events.
func NewDetector(startTime time.Time) *Detector {
	return &Detector{
		alarm:         StateOff,
		heat:          StateOff,
		startTime:     startTime,
		lastHeartbeat: startTime,
	}
}

// Process takes a poll and returns the transitions since the previous one.
// When both machines changed, the alarm event comes first.
func (d *Detector) Process(input Input) []Event {
	alarm := boolToState(input.Alarm)
	heat := boolToState(input.Heating)

	var types []EventType
	if alarm != d.alarm {
		d.alarm = alarm
		types = append(types, eventTypeFor(alarm, EventAlarmOn, EventAlarmOff))
	}
	if heat != d.heat {
		d.heat = heat
		types = append(types, eventTypeFor(heat, EventHeatOn, EventHeatOff))
	}

	if len(types) == 0 {
		return nil
	}

	events := make([]Event, 0, len(types))
	for _, t := range types {
		d.count(t)
		events = append(events, Event{
			Timestamp:  input.Time,
			Millis:     input.Millis,
			Type:       t,
			AlarmState: d.alarm,
			HeatState:  d.heat,
			Celsius:    input.Celsius,
		})
	}

	return events
}

func (d *Detector) count(t EventType) {
	switch t {
	case EventAlarmOn:
		d.eventCounts.AlarmOn++
	case EventAlarmOff:
		d.eventCounts.AlarmOff++
	case EventHeatOn:
		d.eventCounts.HeatOn++
	case EventHeatOff:
		d.eventCounts.HeatOff++
	}
}

func boolToState(b bool) State {
	if b {
		return StateOn
	}
	return StateOff
}

func eventTypeFor(s State, on, off EventType) EventType {
	if s == StateOn {
		return on
	}
	return off
}

// CurrentState returns the last observed states.
func (d *Detector) CurrentState() (alarm, heat State) {
	return d.alarm, d.heat
}

// EventCounts returns the counts since startup.
func (d *Detector) EventCounts() EventCounts {
	return d.eventCounts
}

// CheckHeartbeat returns heartbeat data if the interval has elapsed since the
// last heartbeat (or startup). Returns nil if the interval has not elapsed,
// or if interval is <= 0 (disabled).
func (d *Detector) CheckHeartbeat(now time.Time, interval time.Duration) *HeartbeatData {
	if interval <= 0 {
		return nil
	}

	if now.Sub(d.lastHeartbeat) < interval {
		return nil
	}

	d.lastHeartbeat = now
	return &HeartbeatData{
		Timestamp: now,
		Uptime:    now.Sub(d.startTime),
		Counts:    d.eventCounts,
	}
}
