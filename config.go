package main

import (
	"encoding/json"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	RESORT_CONF_FILE     = "conf/skihill.conf"
	ALARM_CONF_FILE      = "conf/alarm.conf"
	BRIGHTNESS_CONF_FILE = "conf/brightness.conf"
	CALIBRATION_FILE     = "conf/touch_calibration.json"
	SNOW_LOG_FILE        = "logs/snow_log.json"
	VERSION_FILE         = "VERSION"

	snowHistoryCap = 365
)

// SnowSource supplies fresh readings for a hill. Fetching and parsing the
// report sites lives outside the kiosk; the engine only consumes integers.
type SnowSource func(h *SkiHill) error

// SkiHill is the currently selected resort and its latest readings (cm).
type SkiHill struct {
	Name     string `json:"name"`
	URL      string `json:"url"`
	NewSnow  int    `json:"newSnow"`
	WeekSnow int    `json:"weekSnow"`
	BaseSnow int    `json:"baseSnow"`

	source SnowSource
}

// Refresh pulls new readings through the bound source.
func (h *SkiHill) Refresh() error {
	if h.source == nil {
		return nil
	}
	return h.source(h)
}

// stubSnowSource keeps the kiosk functional with fixed values when no real
// source is wired in.
func stubSnowSource(h *SkiHill) error {
	h.NewSnow = 1
	h.WeekSnow = 3
	h.BaseSnow = 120
	return nil
}

var resortNames = []string{
	"Sun Peaks",
	"Silver Star",
	"Big White",
	"Whistler",
	"Revelstoke",
	"Kicking Horse",
	"Lake Louise",
	"Banff Sunshine",
	"Red Mountain",
	"White Water",
}

var resortURLs = map[string]string{
	"Sun Peaks":      "https://www.sunpeaksresort.com/snow-report",
	"Silver Star":    "https://www.skisilverstar.com/conditions/",
	"Big White":      "https://www.bigwhite.com/conditions/snow-report",
	"Whistler":       "https://www.whistlerblackcomb.com/the-mountain/mountain-conditions/snow-and-weather-report.aspx",
	"Revelstoke":     "https://www.revelstokemountainresort.com/mountain-report",
	"Kicking Horse":  "https://kickinghorseresort.com/conditions/snow-report/",
	"Lake Louise":    "https://www.skilouise.com/conditions-and-weather/",
	"Banff Sunshine": "https://www.skibanff.com/conditions",
	"Red Mountain":   "https://api.redresort.com/snowreport",
	"White Water":    "https://skiwhitewater.com/snow-report/",
}

// readSelectedResortIndex reads the persisted index, falling back to 0.
func readSelectedResortIndex(path string) int {
	raw, err := os.ReadFile(path)
	if err != nil {
		log.Printf("[SelectResort] could not read %s: %v, using 0", path, err)
		return 0
	}
	idx, err := strconv.Atoi(strings.TrimSpace(string(raw)))
	if err != nil || idx < 0 {
		log.Printf("[SelectResort] bad index in %s, using 0", path)
		return 0
	}
	return idx
}

func saveSelectedResortIndex(path string, idx int) error {
	return writeFileAtomic(path, []byte(strconv.Itoa(idx)))
}

// createSelectedHill builds the hill named by the persisted index.
func createSelectedHill(source SnowSource) *SkiHill {
	idx := readSelectedResortIndex(RESORT_CONF_FILE)
	if idx > len(resortNames)-1 {
		idx = len(resortNames) - 1
	}
	name := resortNames[idx]
	return &SkiHill{Name: name, URL: resortURLs[name], source: source}
}

// ----- snow history log -----

// SnowReading is one day's numbers for a hill.
type SnowReading struct {
	Date     string `json:"date"`
	NewSnow  int    `json:"newSnow"`
	WeekSnow int    `json:"weekSnow"`
	BaseSnow int    `json:"baseSnow"`
}

type hillLog struct {
	Current SnowReading   `json:"current"`
	History []SnowReading `json:"history"`
}

// logSnowData records the hill's current reading and appends to its daily
// history, one entry per day, capped to a year.
func logSnowData(path string, h *SkiHill) error {
	logData := map[string]*hillLog{}
	if raw, err := os.ReadFile(path); err == nil {
		if err := json.Unmarshal(raw, &logData); err != nil {
			log.Printf("[SnowLog] error reading log: %v", err)
			logData = map[string]*hillLog{}
		}
	}

	entry, ok := logData[h.Name]
	if !ok || entry == nil {
		entry = &hillLog{}
		logData[h.Name] = entry
	}

	reading := SnowReading{
		Date:     todayStr(),
		NewSnow:  h.NewSnow,
		WeekSnow: h.WeekSnow,
		BaseSnow: h.BaseSnow,
	}
	entry.Current = reading

	if n := len(entry.History); n == 0 || entry.History[n-1].Date != reading.Date {
		entry.History = append(entry.History, reading)
		if len(entry.History) > snowHistoryCap {
			entry.History = entry.History[len(entry.History)-snowHistoryCap:]
		}
	}

	data, err := json.MarshalIndent(logData, "", "  ")
	if err != nil {
		return err
	}
	if err := writeFileAtomic(path, data); err != nil {
		return err
	}
	log.Printf("[SnowLog] logged data for %s", h.Name)
	return nil
}

// loadSnowHistory returns the recorded daily history for one hill.
func loadSnowHistory(path, name string) []SnowReading {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	logData := map[string]*hillLog{}
	if err := json.Unmarshal(raw, &logData); err != nil {
		log.Printf("[SnowLog] error reading log: %v", err)
		return nil
	}
	entry := logData[name]
	if entry == nil {
		return nil
	}
	return entry.History
}

// ----- brightness profiles -----

// BrightnessProfile dims both the panel and the LED strip.
type BrightnessProfile struct {
	Name  string
	Scale float64
}

var brightnessProfiles = []BrightnessProfile{
	{Name: "Day", Scale: 1.0},
	{Name: "Dusk", Scale: 0.6},
	{Name: "Night", Scale: 0.3},
}

func loadBrightnessIndex(path string) int {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0
	}
	idx, err := strconv.Atoi(strings.TrimSpace(string(raw)))
	if err != nil || idx < 0 || idx >= len(brightnessProfiles) {
		return 0
	}
	return idx
}

func saveBrightnessIndex(path string, idx int) error {
	return writeFileAtomic(path, []byte(strconv.Itoa(idx)))
}

// ----- small helpers -----

func todayStr() string {
	return time.Now().Format("2006-01-02")
}

// safeInt extracts the integer from strings like "12 cm"; failures yield 0.
func safeInt(s string) int {
	var digits strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	if digits.Len() == 0 {
		return 0
	}
	v, err := strconv.Atoi(digits.String())
	if err != nil {
		return 0
	}
	return v
}

// writeFileAtomic writes via a temp file in the target directory then renames.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".write-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}
