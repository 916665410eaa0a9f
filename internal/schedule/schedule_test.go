package schedule

import (
	"testing"
	"time"
)

func TestManualFiresInDeadlineOrder(t *testing.T) {
	m := NewManual()
	var got []string
	m.AfterFunc(300*time.Millisecond, func() { got = append(got, "late") })
	m.AfterFunc(100*time.Millisecond, func() { got = append(got, "early") })
	m.AfterFunc(100*time.Millisecond, func() { got = append(got, "early2") })

	m.Advance(99 * time.Millisecond)
	if len(got) != 0 {
		t.Fatalf("fired too early: %v", got)
	}
	m.Advance(time.Millisecond)
	if len(got) != 2 || got[0] != "early" || got[1] != "early2" {
		t.Fatalf("got %v", got)
	}
	m.Advance(time.Second)
	if len(got) != 3 || got[2] != "late" {
		t.Fatalf("got %v", got)
	}
	if m.Pending() != 0 {
		t.Fatalf("pending = %d", m.Pending())
	}
}

func TestManualStop(t *testing.T) {
	m := NewManual()
	fired := false
	task := m.AfterFunc(time.Second, func() { fired = true })
	if !task.Stop() {
		t.Fatalf("first Stop should report cancellation")
	}
	if task.Stop() {
		t.Fatalf("second Stop should report false")
	}
	m.Advance(2 * time.Second)
	if fired {
		t.Fatalf("stopped task fired")
	}
}

func TestManualCallbackMaySchedule(t *testing.T) {
	m := NewManual()
	count := 0
	var tick func()
	tick = func() {
		count++
		if count < 3 {
			m.AfterFunc(time.Second, tick)
		}
	}
	m.AfterFunc(time.Second, tick)
	m.Advance(time.Second)
	m.Advance(time.Second)
	m.Advance(time.Second)
	if count != 3 {
		t.Fatalf("count = %d, want 3", count)
	}
}

func TestRealStop(t *testing.T) {
	task := Real{}.AfterFunc(time.Hour, func() { t.Errorf("should not fire") })
	if !task.Stop() {
		t.Fatalf("Stop on pending timer should return true")
	}
}
