package main

import (
	"path/filepath"
	"testing"
	"time"
)

func TestTimedAlarmFiresOncePerDay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "alarm.conf")
	cfg := defaultAlarmConfig()
	cfg.Active = true
	cfg.Hour = "7"
	cfg.Minute = "30"
	cfg.TriggeredSnow = "5"
	saveAlarmCfg(path, cfg)

	anthem := newAnthemPlayer(noopBeeper{})
	defer anthem.Stop()

	at := time.Date(2026, 1, 15, 7, 30, 10, 0, time.Local)

	if checkAndTriggerAlarm(path, anthem, 3, at) {
		t.Error("snow below the trigger should not fire")
	}
	if !checkAndTriggerAlarm(path, anthem, 10, at) {
		t.Error("matching time with enough snow should fire")
	}
	if checkAndTriggerAlarm(path, anthem, 10, at.Add(30*time.Second)) {
		t.Error("a second match the same day should not fire again")
	}
	if checkAndTriggerAlarm(path, anthem, 10, time.Date(2026, 1, 15, 8, 30, 0, 0, time.Local)) {
		t.Error("wrong time should not fire")
	}

	// Next day the daily state rolls over and it can fire again.
	if !checkAndTriggerAlarm(path, anthem, 10, at.Add(24*time.Hour)) {
		t.Error("next day should fire again")
	}
}

func TestAnytimeAlarmStepsThreshold(t *testing.T) {
	path := filepath.Join(t.TempDir(), "alarm.conf")
	cfg := defaultAlarmConfig()
	cfg.ActiveAnytime = true
	cfg.TriggeredSnow = "4"
	cfg.IncrementalSnow = "2"
	saveAlarmCfg(path, cfg)

	anthem := newAnthemPlayer(noopBeeper{})
	defer anthem.Stop()

	at := time.Date(2026, 1, 15, 12, 0, 0, 0, time.Local)

	if checkAndTriggerAlarm(path, anthem, 3, at) {
		t.Error("3cm is under the 4cm trigger")
	}
	if !checkAndTriggerAlarm(path, anthem, 9, at) {
		t.Error("9cm should fire through thresholds 4, 6 and 8")
	}

	got := loadAlarmCfg(path)
	if got.State.NextThreshold == nil || *got.State.NextThreshold != 10 {
		t.Fatalf("next threshold should persist as 10, got %v", got.State.NextThreshold)
	}

	if checkAndTriggerAlarm(path, anthem, 9, at.Add(time.Minute)) {
		t.Error("unchanged snow should not fire again")
	}
	if !checkAndTriggerAlarm(path, anthem, 11, at.Add(2*time.Minute)) {
		t.Error("crossing the stepped threshold should fire")
	}
}

func TestAnytimeAlarmNeedsIncrement(t *testing.T) {
	path := filepath.Join(t.TempDir(), "alarm.conf")
	cfg := defaultAlarmConfig()
	cfg.ActiveAnytime = true
	cfg.TriggeredSnow = "4"
	cfg.IncrementalSnow = "0"
	saveAlarmCfg(path, cfg)

	anthem := newAnthemPlayer(noopBeeper{})
	defer anthem.Stop()

	// A zero increment would loop forever; the check refuses to fire instead.
	if checkAndTriggerAlarm(path, anthem, 50, time.Date(2026, 1, 15, 12, 0, 0, 0, time.Local)) {
		t.Error("zero increment must not fire")
	}
}

func TestResetStateIfNewDay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "alarm.conf")
	cfg := defaultAlarmConfig()
	cfg.ActiveAnytime = true
	cfg.TriggeredSnow = "4"
	cfg.State = AlarmState{Day: "2026-01-14", TriggeredToday: true}

	now := time.Date(2026, 1, 15, 6, 0, 0, 0, time.Local)
	resetStateIfNewDay(path, &cfg, now)

	if cfg.State.Day != "2026-01-15" {
		t.Errorf("day should roll to 2026-01-15, got %s", cfg.State.Day)
	}
	if cfg.State.TriggeredToday {
		t.Error("new day should clear the triggered flag")
	}
	if cfg.State.NextThreshold == nil || *cfg.State.NextThreshold != 4 {
		t.Errorf("anytime mode should rearm at the base trigger, got %v", cfg.State.NextThreshold)
	}

	// Same day again is a no-op.
	cfg.State.TriggeredToday = true
	resetStateIfNewDay(path, &cfg, now)
	if !cfg.State.TriggeredToday {
		t.Error("same-day reset should not touch the state")
	}
}

func TestAlarmConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "alarm.conf")
	cfg := defaultAlarmConfig()
	cfg.Active = true
	cfg.Hour = "6"
	cfg.Minute = "45"
	cfg.TriggeredSnow = "12"
	saveAlarmCfg(path, cfg)

	got := loadAlarmCfg(path)
	if !got.Active || got.Hour != "6" || got.Minute != "45" || got.TriggeredSnow != "12" {
		t.Errorf("round trip mismatch: %+v", got)
	}

	// Missing file yields defaults.
	def := loadAlarmCfg(filepath.Join(t.TempDir(), "missing.conf"))
	if def.Active || def.Hour != "0" {
		t.Errorf("missing file should yield defaults, got %+v", def)
	}
}

func TestAnthemPlayerLifecycle(t *testing.T) {
	p := newAnthemPlayer(noopBeeper{})

	p.Start()
	if !p.Playing() {
		t.Error("Start should mark the anthem as playing")
	}
	p.Start() // idempotent while running
	if !p.Playing() {
		t.Error("second Start should keep it playing")
	}

	p.Stop()
	if p.Playing() {
		t.Error("Stop should mark the anthem as stopped")
	}
	p.Stop() // no-op when already stopped
}

func TestAnthemDurationCoversRepeats(t *testing.T) {
	var chorus time.Duration
	for _, n := range anthemChorus {
		chorus += n.dur
	}
	if anthemDuration() != chorus*anthemRepeats {
		t.Errorf("anthem duration %v should be %d choruses of %v", anthemDuration(), anthemRepeats, chorus)
	}
}
