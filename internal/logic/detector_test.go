package logic

import (
	"testing"
	"time"
)

var t0 = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

func TestNewDetector(t *testing.T) {
	d := NewDetector(t0)
	if d == nil {
		t.Fatal("NewDetector returned nil")
	}
	alarm, heat := d.CurrentState()
	if alarm != StateOff || heat != StateOff {
		t.Errorf("expected OFF/OFF, got %s/%s", alarm, heat)
	}
	if !d.lastHeartbeat.Equal(t0) {
		t.Errorf("expected lastHeartbeat %v, got %v", t0, d.lastHeartbeat)
	}
}

func TestNoEventsForStableState(t *testing.T) {
	d := NewDetector(t0)

	for i := 0; i < 10; i++ {
		events := d.Process(Input{Time: t0.Add(time.Duration(i) * 10 * time.Millisecond)})
		if len(events) != 0 {
			t.Fatalf("iteration %d: expected no events, got %v", i, events)
		}
	}
}

func TestSingleTransitions(t *testing.T) {
	tests := []struct {
		name   string
		first  Input
		second Input
		want   EventType
	}{
		{"alarm on", Input{}, Input{Alarm: true}, EventAlarmOn},
		{"alarm off", Input{Alarm: true}, Input{}, EventAlarmOff},
		{"heat on", Input{}, Input{Heating: true}, EventHeatOn},
		{"heat off", Input{Heating: true}, Input{}, EventHeatOff},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := NewDetector(t0)
			d.Process(tt.first)

			events := d.Process(tt.second)
			if len(events) != 1 {
				t.Fatalf("expected 1 event, got %d", len(events))
			}
			if events[0].Type != tt.want {
				t.Errorf("expected %s, got %s", tt.want, events[0].Type)
			}
		})
	}
}

func TestFirstPollReportsInitialTransition(t *testing.T) {
	d := NewDetector(t0)

	// The thermostat switches on at the first poll when the sensor still
	// holds its initial reading.
	events := d.Process(Input{Heating: true, Celsius: 1.0, Millis: 10, Time: t0})
	if len(events) != 1 || events[0].Type != EventHeatOn {
		t.Fatalf("expected HEAT_ON, got %v", events)
	}
}

func TestSimultaneousTransitionsAlarmFirst(t *testing.T) {
	d := NewDetector(t0)

	events := d.Process(Input{Alarm: true, Heating: true, Time: t0})
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].Type != EventAlarmOn || events[1].Type != EventHeatOn {
		t.Errorf("unexpected order: %s, %s", events[0].Type, events[1].Type)
	}
	for _, e := range events {
		if e.AlarmState != StateOn || e.HeatState != StateOn {
			t.Errorf("%s: expected both states ON, got %s/%s", e.Type, e.AlarmState, e.HeatState)
		}
	}
}

func TestEventCarriesPollData(t *testing.T) {
	d := NewDetector(t0)
	ts := t0.Add(3 * time.Second)

	events := d.Process(Input{Heating: true, Celsius: 18.25, Millis: 3000, Time: ts})
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	e := events[0]
	if !e.Timestamp.Equal(ts) {
		t.Errorf("timestamp: got %v", e.Timestamp)
	}
	if e.Millis != 3000 {
		t.Errorf("millis: got %d", e.Millis)
	}
	if e.Celsius != 18.25 {
		t.Errorf("celsius: got %v", e.Celsius)
	}
	if e.AlarmState != StateOff || e.HeatState != StateOn {
		t.Errorf("states: got %s/%s", e.AlarmState, e.HeatState)
	}
}

func TestEventCountsIncrementOnTransition(t *testing.T) {
	d := NewDetector(t0)

	inputs := []Input{
		{Alarm: true},
		{Alarm: true, Heating: true},
		{Heating: true},
		{},
		{Heating: true},
		{Heating: true},
	}
	for _, in := range inputs {
		d.Process(in)
	}

	got := d.EventCounts()
	want := EventCounts{AlarmOn: 1, AlarmOff: 1, HeatOn: 2, HeatOff: 1}
	if got != want {
		t.Errorf("expected %+v, got %+v", want, got)
	}
}

func TestCheckHeartbeatDisabledWithZeroInterval(t *testing.T) {
	d := NewDetector(t0)

	if hb := d.CheckHeartbeat(t0.Add(time.Hour), 0); hb != nil {
		t.Error("expected nil heartbeat with zero interval")
	}
	if hb := d.CheckHeartbeat(t0.Add(time.Hour), -time.Minute); hb != nil {
		t.Error("expected nil heartbeat with negative interval")
	}
}

func TestCheckHeartbeatBeforeInterval(t *testing.T) {
	d := NewDetector(t0)

	if hb := d.CheckHeartbeat(t0.Add(14*time.Minute), 15*time.Minute); hb != nil {
		t.Error("expected nil heartbeat before interval")
	}
}

func TestCheckHeartbeatAtInterval(t *testing.T) {
	d := NewDetector(t0)
	at := t0.Add(15 * time.Minute)

	hb := d.CheckHeartbeat(at, 15*time.Minute)
	if hb == nil {
		t.Fatal("expected heartbeat at interval")
	}
	if !hb.Timestamp.Equal(at) {
		t.Errorf("expected timestamp %v, got %v", at, hb.Timestamp)
	}
	if hb.Uptime != 15*time.Minute {
		t.Errorf("expected uptime 15m, got %v", hb.Uptime)
	}
}

func TestCheckHeartbeatUpdatesLastTime(t *testing.T) {
	d := NewDetector(t0)
	interval := 15 * time.Minute

	if d.CheckHeartbeat(t0.Add(interval), interval) == nil {
		t.Fatal("expected first heartbeat")
	}
	if d.CheckHeartbeat(t0.Add(interval+time.Minute), interval) != nil {
		t.Error("expected no heartbeat one minute after the previous")
	}
	hb := d.CheckHeartbeat(t0.Add(2*interval), interval)
	if hb == nil {
		t.Fatal("expected second heartbeat")
	}
	if hb.Uptime != 2*interval {
		t.Errorf("expected uptime %v, got %v", 2*interval, hb.Uptime)
	}
}

func TestHeartbeatContainsEventCounts(t *testing.T) {
	d := NewDetector(t0)
	d.Process(Input{Alarm: true})
	d.Process(Input{})

	hb := d.CheckHeartbeat(t0.Add(time.Minute), time.Minute)
	if hb == nil {
		t.Fatal("expected heartbeat")
	}
	want := EventCounts{AlarmOn: 1, AlarmOff: 1}
	if hb.Counts != want {
		t.Errorf("expected %+v, got %+v", want, hb.Counts)
	}
}
