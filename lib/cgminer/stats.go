package cgminer

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ErrNoDNA indicates a stats reply without a parseable DNA field.
var ErrNoDNA = errors.New("device stats carry no DNA")

// Work mode identifiers reported in WORKMODE.
const (
	ModeHeater = 0
	ModeMining = 1
	ModeNight  = 2
)

// ModeName maps a work mode to its display name.
func ModeName(mode int) string {
	switch mode {
	case ModeHeater:
		return "Heater"
	case ModeMining:
		return "Mining"
	case ModeNight:
		return "Night"
	default:
		return "?"
	}
}

// ModeAbbrev maps a work mode to its single-letter fleet-view form.
func ModeAbbrev(mode int) string {
	switch mode {
	case ModeHeater:
		return "H"
	case ModeMining:
		return "M"
	case ModeNight:
		return "N"
	default:
		return "?"
	}
}

// VersionInfo is the VERSION reply section.
type VersionInfo struct {
	Product   string `json:"PROD"`
	DNA       string `json:"DNA"`
	MAC       string `json:"MAC"`
	Firmware  string `json:"LVERSION"`
	CGMiner   string `json:"CGMiner"`
	API       string `json:"API"`
	UpAPIVer  string `json:"UPAPIVERSION"`
	Model     string `json:"MODEL"`
	HWType    string `json:"HWTYPE"`
	SWType    string `json:"SWTYPE"`
	VersionID string `json:"VERSION"`
}

// PoolInfo is one entry of the POOLS reply section.
type PoolInfo struct {
	ID            int    `json:"POOL"`
	URL           string `json:"URL"`
	Status        string `json:"Status"`
	Priority      int    `json:"Priority"`
	User          string `json:"User"`
	Accepted      int64  `json:"Accepted"`
	Rejected      int64  `json:"Rejected"`
	StratumActive bool   `json:"Stratum Active"`
}

// statsEntry is one entry of the STATS reply section; only the MM ID0
// payload matters, the rest of the entry varies by firmware.
type statsEntry struct {
	MMID0 string `json:"MM ID0"`
}

// DeviceStats is the normalized metric set extracted from the MM ID0 stats
// payload.
type DeviceStats struct {
	HashrateTHs    float64 // HashrateTHs is the average submitted-work hashrate.
	HashrateMaxTHs float64 // HashrateMaxTHs is the theoretical chip hashrate.
	UptimeSec      int64
	TempC          int
	TempMaxC       int
	FanRPM         int
	FanPct         int
	FreqMHz        int
	VoltageMV      int
	PowerInW       int
	PowerOutW      int
	WorkMode       int
	WorkLevel      int
	HWErrors       int64
	DHRatePct      float64
	DNA            string
}

// Efficiency returns power draw per terahash, or 0 when unknown.
func (s DeviceStats) Efficiency() float64 {
	if s.HashrateTHs <= 0 || s.PowerInW <= 0 {
		return 0
	}

	return float64(s.PowerInW) / s.HashrateTHs
}

var (
	mmFieldRe  = regexp.MustCompile(`([A-Za-z0-9]+)\[([^\]]*)\]`)
	numberRe   = regexp.MustCompile(`-?\d+(?:\.\d+)?`)
	intFieldRe = regexp.MustCompile(`-?\d+`)
)

// ParseMMStats normalizes an MM ID0 payload. Firmware revisions disagree on
// which fields they populate, so several metrics fall through a preference
// list before giving up with a zero value.
func ParseMMStats(mm string) DeviceStats {
	fields := make(map[string]string)
	for _, m := range mmFieldRe.FindAllStringSubmatch(mm, -1) {
		// First occurrence wins; later MM sections repeat keys.
		if _, ok := fields[m[1]]; !ok {
			fields[m[1]] = m[2]
		}
	}

	stats := DeviceStats{
		HashrateTHs:    parseFloat(fields["GHSavg"]) / 1000,
		HashrateMaxTHs: parseFloat(fields["GHSmm"]) / 1000,
		UptimeSec:      int64(parseFloat(fields["Elapsed"])),
		FanRPM:         parseInt(fields["Fan1"]),
		FanPct:         parseInt(fields["FanR"]),
		HWErrors:       int64(parseFloat(fields["HW"])),
		DHRatePct:      parseFloat(strings.TrimSuffix(fields["DH"], "%")),
		WorkMode:       ModeMining,
		DNA:            strings.ToLower(fields["DNA"]),
	}

	if v, ok := fields["WORKMODE"]; ok {
		stats.WorkMode = parseInt(v)
	}

	stats.WorkLevel = parseInt(fields["WORKLVL"])
	if stats.WorkLevel == 0 {
		stats.WorkLevel = parseInt(fields["WORKLEVEL"])
	}

	stats.TempC = selectTemp(fields, "HBTemp", "OTemp", "TAvg", "MTavg", "TarT", "ITemp")
	stats.TempMaxC = selectTemp(fields, "TMax", "MTmax")

	// PS[a b c d e ...]: field 1 is input power, field 4 is output power.
	if ps := intFieldRe.FindAllString(fields["PS"], -1); len(ps) > 4 {
		stats.PowerInW = atoi(ps[1])
		stats.PowerOutW = atoi(ps[4])
	}

	// SF0[600 618 639 660] carries the actual base frequency; Freq is the
	// fallback for firmwares that omit it.
	if sf0 := strings.Fields(fields["SF0"]); len(sf0) > 0 {
		stats.FreqMHz = int(parseFloat(sf0[0]))
	}
	if stats.FreqMHz == 0 {
		stats.FreqMHz = parseInt(fields["Freq"])
	}

	// ATA1[power-temp-voltage-freq-...]: the third dash field is voltage.
	if ata := strings.Split(fields["ATA1"], "-"); len(ata) >= 3 {
		stats.VoltageMV = int(parseFloat(ata[2]))
	}

	return stats
}

// selectTemp returns the first key whose value parses to a plausible
// temperature, in preference order.
func selectTemp(fields map[string]string, keys ...string) int {
	for _, key := range keys {
		raw, ok := fields[key]
		if !ok {
			continue
		}

		m := numberRe.FindString(raw)
		if m == "" {
			continue
		}

		v, err := strconv.ParseFloat(m, 64)
		if err != nil {
			continue
		}

		if v >= -40 && v <= 200 {
			return int(v)
		}
	}

	return 0
}

func parseFloat(raw string) float64 {
	m := numberRe.FindString(raw)
	if m == "" {
		return 0
	}

	v, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0
	}

	return v
}

func parseInt(raw string) int {
	return int(parseFloat(raw))
}

func atoi(s string) int {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}

	return v
}

// Version fetches the VERSION section.
func (c *Client) Version(ctx context.Context) (*VersionInfo, error) {
	reply, err := c.Command(ctx, "version", "")
	if err != nil {
		return nil, err
	}

	var versions []VersionInfo
	if err := reply.Section("VERSION", &versions); err != nil {
		return nil, err
	}

	if len(versions) == 0 {
		return nil, fmt.Errorf("%w: empty VERSION section", ErrNoResponse)
	}

	return &versions[0], nil
}

// Pools fetches the POOLS section.
func (c *Client) Pools(ctx context.Context) ([]PoolInfo, error) {
	reply, err := c.Command(ctx, "pools", "")
	if err != nil {
		return nil, err
	}

	var pools []PoolInfo
	if err := reply.Section("POOLS", &pools); err != nil {
		return nil, err
	}

	return pools, nil
}

// Stats fetches and normalizes the device's MM ID0 stats.
func (c *Client) Stats(ctx context.Context) (DeviceStats, error) {
	reply, err := c.Command(ctx, "stats", "")
	if err != nil {
		return DeviceStats{}, err
	}

	var entries []statsEntry
	if err := reply.Section("STATS", &entries); err != nil {
		return DeviceStats{}, err
	}

	for _, entry := range entries {
		if entry.MMID0 != "" {
			return ParseMMStats(entry.MMID0), nil
		}
	}

	return DeviceStats{}, fmt.Errorf("%w: no MM ID0 entry", ErrNoResponse)
}

// DNA fetches the board DNA from the device stats.
func (c *Client) DNA(ctx context.Context) (string, error) {
	stats, err := c.Stats(ctx)
	if err != nil {
		return "", err
	}

	if stats.DNA == "" {
		return "", ErrNoDNA
	}

	return stats.DNA, nil
}
