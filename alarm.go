package main

import (
	"encoding/json"
	"log"
	"os"
	"strconv"
	"sync"
	"time"
)

// AlarmState tracks what already fired today.
type AlarmState struct {
	Day            string `json:"day"`
	TriggeredToday bool   `json:"triggered_today"`
	NextThreshold  *int   `json:"next_threshold"`
}

// AlarmConfig mirrors conf/alarm.conf. Hour/minute/snow fields are kept as
// strings because the keyboard edits them as text.
type AlarmConfig struct {
	Active          bool       `json:"active"`
	ActiveAnytime   bool       `json:"active_anytime"`
	Hour            string     `json:"hour"`
	Minute          string     `json:"minute"`
	TriggeredSnow   string     `json:"triggered_snow"`
	IncrementalSnow string     `json:"incremental_snow"`
	State           AlarmState `json:"state"`
}

func defaultAlarmConfig() AlarmConfig {
	return AlarmConfig{
		Hour:            "0",
		Minute:          "0",
		TriggeredSnow:   "0",
		IncrementalSnow: "0",
		State:           AlarmState{Day: todayStr()},
	}
}

func loadAlarmCfg(path string) AlarmConfig {
	cfg := defaultAlarmConfig()
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg
	}
	if err := json.Unmarshal(raw, &cfg); err != nil {
		log.Printf("[Alarm] loadAlarmCfg error: %v", err)
		return defaultAlarmConfig()
	}
	return cfg
}

func saveAlarmCfg(path string, cfg AlarmConfig) {
	data, err := json.Marshal(cfg)
	if err != nil {
		log.Printf("[Alarm] saveAlarmCfg error: %v", err)
		return
	}
	if err := writeFileAtomic(path, data); err != nil {
		log.Printf("[Alarm] saveAlarmCfg error: %v", err)
		return
	}
	log.Println("[Alarm] alarm.conf saved")
}

// resetStateIfNewDay rolls the daily state over and persists when the day
// changed.
func resetStateIfNewDay(path string, cfg *AlarmConfig, now time.Time) {
	today := now.Format("2006-01-02")
	if cfg.State.Day == today {
		return
	}
	cfg.State.Day = today
	cfg.State.TriggeredToday = false
	base := safeInt(cfg.TriggeredSnow)
	if cfg.ActiveAnytime {
		cfg.State.NextThreshold = &base
	} else {
		cfg.State.NextThreshold = nil
	}
	saveAlarmCfg(path, *cfg)
}

// checkAndTriggerAlarm runs both alarm modes against the current snowfall:
// timed mode fires once per day at HH:MM when snow meets the trigger; anytime
// mode fires at the trigger and again at each +increment, resetting daily.
// Returns whether anything fired.
func checkAndTriggerAlarm(path string, anthem *AnthemPlayer, currentSnowCm int, now time.Time) bool {
	cfg := loadAlarmCfg(path)
	resetStateIfNewDay(path, &cfg, now)

	hr, _ := strconv.Atoi(cfg.Hour)
	mn, _ := strconv.Atoi(cfg.Minute)
	trig := safeInt(cfg.TriggeredSnow)
	inc := safeInt(cfg.IncrementalSnow)

	matchesTime := now.Hour() == hr && now.Minute() == mn

	if cfg.Active && !cfg.ActiveAnytime {
		if !cfg.State.TriggeredToday && matchesTime && currentSnowCm >= trig {
			log.Printf("[Alarm] timed trigger %02d:%02d | %d >= %d", hr, mn, currentSnowCm, trig)
			anthem.Start()
			time.AfterFunc(anthemDuration(), anthem.Stop)
			cfg.State.TriggeredToday = true
			saveAlarmCfg(path, cfg)
			return true
		}
		return false
	}

	if cfg.ActiveAnytime {
		if cfg.State.NextThreshold == nil {
			cfg.State.NextThreshold = &trig
		}
		fired := false
		for inc > 0 && currentSnowCm >= *cfg.State.NextThreshold {
			log.Printf("[Alarm] anytime trigger | %d >= %d (step %d)", currentSnowCm, *cfg.State.NextThreshold, inc)
			anthem.Start()
			time.AfterFunc(anthemDuration(), anthem.Stop)
			next := *cfg.State.NextThreshold + inc
			cfg.State.NextThreshold = &next
			fired = true
		}
		if fired {
			saveAlarmCfg(path, cfg)
		}
		return fired
	}

	return false
}

// ----- powder day anthem -----

// Beeper is the audio contract. The real device is a PWM buzzer driven
// outside this process's scope; a no-op keeps dev boxes silent.
type Beeper interface {
	Tone(freqHz int)
	Off()
}

type noopBeeper struct{}

func (noopBeeper) Tone(int) {}
func (noopBeeper) Off()     {}

var noteFreq = map[string]int{
	"C4": 262, "D4": 294, "E4": 330, "F4": 349, "G4": 392, "A4": 440, "B4": 494,
	"C5": 523, "D5": 587, "E5": 659, "F5": 698, "G5": 784, "A5": 880,
	"REST": 0,
}

type note struct {
	name string
	dur  time.Duration
}

var anthemChorus = []note{
	{"G4", 200 * time.Millisecond},
	{"E4", 200 * time.Millisecond},
	{"C4", 200 * time.Millisecond},
	{"G4", 200 * time.Millisecond},
	{"E4", 200 * time.Millisecond},
	{"C4", 200 * time.Millisecond},
	{"F4", 200 * time.Millisecond},
	{"G4", 200 * time.Millisecond},
	{"E4", 200 * time.Millisecond},
	{"D4", 700 * time.Millisecond},
	{"G4", 200 * time.Millisecond},
	{"E4", 200 * time.Millisecond},
	{"C4", 200 * time.Millisecond},
	{"G4", 200 * time.Millisecond},
	{"E4", 200 * time.Millisecond},
	{"C4", 200 * time.Millisecond},
	{"C5", 200 * time.Millisecond},
	{"B4", 200 * time.Millisecond},
	{"G4", 600 * time.Millisecond},
}

const anthemRepeats = 5

func anthemDuration() time.Duration {
	var d time.Duration
	for _, n := range anthemChorus {
		d += n.dur
	}
	return d * anthemRepeats
}

// AnthemPlayer plays the powder day anthem on its own worker. Start is
// idempotent while a playback is running; Stop joins with a bounded timeout.
type AnthemPlayer struct {
	beeper Beeper

	mu   sync.Mutex
	stop chan struct{}
	done chan struct{}
}

func newAnthemPlayer(beeper Beeper) *AnthemPlayer {
	return &AnthemPlayer{beeper: beeper}
}

func (p *AnthemPlayer) Start() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.stop != nil {
		return
	}
	p.stop = make(chan struct{})
	p.done = make(chan struct{})
	go p.playLoop(p.stop, p.done)
}

func (p *AnthemPlayer) Stop() {
	p.mu.Lock()
	stop, done := p.stop, p.done
	p.stop, p.done = nil, nil
	p.mu.Unlock()

	if stop == nil {
		return
	}
	close(stop)
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		log.Println("[Alarm] anthem worker slow to stop, abandoning")
	}
}

func (p *AnthemPlayer) Playing() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stop != nil
}

// playLoop repeats the chorus with a pause between loops until stopped.
// Every sleep is cancellable so Stop returns promptly.
func (p *AnthemPlayer) playLoop(stop, done chan struct{}) {
	defer close(done)
	defer p.beeper.Off()

	const pauseBetweenLoops = 6 * time.Second
	for {
		for i := 0; i < anthemRepeats; i++ {
			for _, n := range anthemChorus {
				freq := noteFreq[n.name]
				if freq <= 0 {
					p.beeper.Off()
				} else {
					p.beeper.Tone(freq)
				}
				select {
				case <-stop:
					return
				case <-time.After(n.dur):
				}
			}
		}
		p.beeper.Off()
		select {
		case <-stop:
			return
		case <-time.After(pauseBetweenLoops):
		}
	}
}
