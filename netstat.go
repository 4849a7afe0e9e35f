package main

import (
	"log"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/go-ping/ping"
)

const (
	netProbeHost     = "1.1.1.1"
	netProbeInterval = 20 * time.Second
)

// NetStatus tracks connectivity for the HUD: latency from a periodic ICMP
// probe and link quality from /proc/net/wireless.
type NetStatus struct {
	mu        sync.Mutex
	online    bool
	latencyMs int64
	strength  float64 // 0..1
}

func (n *NetStatus) Online() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.online
}

func (n *NetStatus) LatencyMs() int64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.latencyMs
}

func (n *NetStatus) Strength() float64 {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.strength
}

// worker probes until the process exits.
func (n *NetStatus) worker() {
	for {
		latency, err := pingICMP(netProbeHost)
		strength := readWirelessQuality()

		n.mu.Lock()
		n.online = err == nil
		if err == nil {
			n.latencyMs = latency
		}
		n.strength = strength
		n.mu.Unlock()

		time.Sleep(netProbeInterval)
	}
}

// pingICMP performs one ICMP ping and returns the average round-trip time in
// milliseconds. Raw ICMP usually requires root; the kiosk runs privileged.
func pingICMP(host string) (int64, error) {
	pinger, err := ping.NewPinger(host)
	if err != nil {
		return 0, err
	}
	pinger.SetPrivileged(true)
	pinger.Count = 1
	pinger.Timeout = 2 * time.Second

	if err := pinger.Run(); err != nil {
		return 0, err
	}
	stats := pinger.Statistics()
	return int64(stats.AvgRtt / time.Millisecond), nil
}

// readWirelessQuality parses the link quality column of /proc/net/wireless
// for the first interface and normalizes it to 0..1 (the kernel reports
// quality out of 70).
func readWirelessQuality() float64 {
	raw, err := os.ReadFile("/proc/net/wireless")
	if err != nil {
		return 0
	}
	lines := strings.Split(string(raw), "\n")
	if len(lines) < 3 {
		return 0
	}
	fields := strings.Fields(lines[2])
	if len(fields) < 3 {
		return 0
	}
	quality, err := strconv.ParseFloat(strings.TrimSuffix(fields[2], "."), 64)
	if err != nil {
		return 0
	}
	q := quality / 70.0
	if q < 0 {
		q = 0
	}
	if q > 1 {
		q = 1
	}
	return q
}

// getAvailableSSIDs lists scan results from wpa_cli. An empty list means the
// scan failed or nothing is in range.
func getAvailableSSIDs() []string {
	out, err := exec.Command("wpa_cli", "-i", "wlan0", "scan_results").Output()
	if err != nil {
		log.Printf("[WiFi] error running wpa_cli: %v", err)
		return nil
	}
	var ssids []string
	lines := strings.Split(string(out), "\n")
	for _, line := range lines[1:] {
		parts := strings.Split(line, "\t")
		if len(parts) >= 5 {
			if ssid := strings.TrimSpace(parts[4]); ssid != "" {
				ssids = append(ssids, ssid)
			}
		}
	}
	return ssids
}
