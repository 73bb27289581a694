// Package display provides output and logging functions for avalonctl.
// Search lifecycle events go through the structured logger; device status
// and credential blocks are rendered directly for the terminal.
package display

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/avalontools/avalonctl/lib/auth"
	"github.com/avalontools/avalonctl/lib/cgminer"
	"github.com/avalontools/avalonctl/lib/engine"
	"github.com/avalontools/avalonctl/lib/progress"
	"github.com/avalontools/avalonctl/shared"
)

// SearchStarting logs the search parameters and, for finite keyspaces, a
// rough time estimate from the per-core rate the oracle sustains.
func SearchStarting(label, target, dna string, total uint64, workers int) {
	shared.Logger.Info("Starting recovery search", "strategy", label, "target", target, "dna", dna, "workers", workers)

	if total > 0 {
		const perWorkerRate = 1_700_000 // observed single-core oracle throughput

		eta := time.Duration(float64(total)/float64(workers*perWorkerRate)) * time.Second
		shared.Logger.Info("Keyspace computed",
			"keyspace", humanize.Comma(int64(total)), //nolint:gosec // Display only
			"estimate", formatDuration(eta))
	}
}

// SearchProgress logs a periodic progress snapshot.
func SearchProgress(p engine.Progress) {
	rate := float64(0)
	if p.Elapsed > 0 {
		rate = float64(p.Tried) / p.Elapsed.Seconds()
	}

	if p.Total > 0 {
		shared.Logger.Info("Search progress",
			"progress", progress.CalculatePercentage(float64(p.Tried), float64(p.Total)),
			"tried", humanize.Comma(int64(p.Tried)), //nolint:gosec // Display only
			"rate", humanize.SI(rate, "H/s"))

		return
	}

	shared.Logger.Info("Search progress",
		"tried", humanize.Comma(int64(p.Tried)), //nolint:gosec // Display only
		"rate", humanize.SI(rate, "H/s"))
}

// SearchResult logs the terminal state of a search with its statistics.
func SearchResult(result engine.Result) {
	stats := []any{
		"tried", humanize.Comma(int64(result.Tried)), //nolint:gosec // Display only
		"elapsed", formatDuration(result.Elapsed),
		"rate", humanize.SI(result.Rate(), "H/s"),
	}

	switch result.Outcome {
	case engine.OutcomeFound:
		shared.Logger.Info("Password found", append([]any{"password", result.Password}, stats...)...)
	case engine.OutcomeExhausted:
		shared.Logger.Warn("Password not found, keyspace exhausted", stats...)
	case engine.OutcomeCancelled:
		shared.Logger.Warn("Search cancelled", stats...)
	}
}

// Credentials renders the full credential block for a recovered password,
// including the CGMiner API authentication one-liner.
func Credentials(password string, creds auth.Credentials, host string) {
	fmt.Println()
	fmt.Println(strings.Repeat("=", 60))
	fmt.Println("CREDENTIALS")
	fmt.Println(strings.Repeat("=", 60))
	fmt.Printf("Password: %s\n", password)
	fmt.Printf("Auth:     %s\n", creds.Auth)
	fmt.Printf("Code:     %s\n", creds.Code)
	fmt.Printf("Verify:   %s\n", creds.Verify)
	fmt.Printf("Cookie:   %s\n", creds.Cookie)
	fmt.Println()

	if host == "" {
		host = "<IP>"
	}
	fmt.Println("To authenticate via CGMiner API:")
	fmt.Printf("  echo '{\"command\":\"ascset\",\"parameter\":\"0,qr_auth,%s,%s\"}' | nc %s 4028\n",
		creds.Auth, creds.Verify, host)
	fmt.Println()
}

// DeviceStatus renders the full status block for one device.
func DeviceStatus(host string, ver *cgminer.VersionInfo, stats cgminer.DeviceStats, haveStats bool) {
	product := ver.Product
	if product == "" {
		product = "Avalon Miner"
	}

	fmt.Printf("\n  %s @ %s\n", product, host)
	fmt.Printf("  DNA: %s  MAC: %s\n", orNA(ver.DNA), orNA(ver.MAC))
	fmt.Printf("  FW: %s  CGMiner: %s\n", orNA(ver.Firmware), orNA(ver.CGMiner))

	if haveStats {
		fmt.Println()
		fmt.Printf("  Hashrate   %.2f TH/s (max %.2f)\n", stats.HashrateTHs, stats.HashrateMaxTHs)
		fmt.Printf("  Errors     %.1f%% reject, %d HW\n", stats.DHRatePct, stats.HWErrors)
		fmt.Printf("  Temp       %dC (max %dC)\n", stats.TempC, stats.TempMaxC)
		fmt.Printf("  Fan        %d RPM (%d%%)\n", stats.FanRPM, stats.FanPct)
		fmt.Printf("  Power      %dW in, %dW out (%s)\n", stats.PowerInW, stats.PowerOutW, efficiencyString(stats))
		fmt.Printf("  Freq       %d MHz @ %d mV\n", stats.FreqMHz, stats.VoltageMV)
		fmt.Printf("  Mode       %s (level %d)\n", cgminer.ModeName(stats.WorkMode), stats.WorkLevel)
		fmt.Printf("  Uptime     %s\n", FormatUptime(stats.UptimeSec))
	}
	fmt.Println()
}

// FleetHeader renders the fleet status table header.
func FleetHeader() {
	fmt.Printf("\n%-16s %10s  %4s  %4s  %5s  %2s  UPTIME\n", "HOST", "HASHRATE", "TEMP", "FAN", "POWER", "M")
	fmt.Println(strings.Repeat("-", 70))
}

// FleetStatusLine formats a single-host line for the fleet view.
func FleetStatusLine(host string, stats cgminer.DeviceStats) string {
	return fmt.Sprintf("%-16s %6.1f TH/s  %3dC  %3d%%  %4dW  %s  %s",
		host, stats.HashrateTHs, stats.TempC, stats.FanPct, stats.PowerInW,
		cgminer.ModeAbbrev(stats.WorkMode), FormatUptime(stats.UptimeSec))
}

// FleetOffline formats the fleet line for an unreachable host.
func FleetOffline(host string) string {
	return fmt.Sprintf("%-16s OFFLINE", host)
}

// Pools renders the pool table for one device.
func Pools(pools []cgminer.PoolInfo) {
	fmt.Printf("\n%-3s %-10s %-7s %-10s URL\n", "ID", "Status", "Active", "Accepted")
	fmt.Println(strings.Repeat("-", 70))

	for _, p := range pools {
		active := ""
		if p.StratumActive {
			active = "*"
		}

		fmt.Printf("%-3d %-10s %-7s %-10d %s\n", p.ID, p.Status, active, p.Accepted, p.URL)
		fmt.Printf("    Worker: %s\n", p.User)
	}
	fmt.Println()
}

// WatchLine renders one live-monitor line, overwriting the previous one.
func WatchLine(stats cgminer.DeviceStats) {
	fmt.Printf("\r[%s] %.1f TH/s | %dC | Fan %d%% | %dW | Mode %s | Up %s",
		time.Now().Format("15:04:05"), stats.HashrateTHs, stats.TempC, stats.FanPct,
		stats.PowerInW, cgminer.ModeAbbrev(stats.WorkMode), FormatUptime(stats.UptimeSec))
}

// FormatUptime formats seconds as "1d 2h 3m", omitting zero units.
func FormatUptime(seconds int64) string {
	days := seconds / 86400
	hours := (seconds % 86400) / 3600
	minutes := (seconds % 3600) / 60

	var parts []string
	if days > 0 {
		parts = append(parts, fmt.Sprintf("%dd", days))
	}
	if hours > 0 {
		parts = append(parts, fmt.Sprintf("%dh", hours))
	}
	if minutes > 0 {
		parts = append(parts, fmt.Sprintf("%dm", minutes))
	}

	if len(parts) == 0 {
		return "0m"
	}

	return strings.Join(parts, " ")
}

// formatDuration renders a duration in the largest sensible unit.
func formatDuration(d time.Duration) string {
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%.1f seconds", d.Seconds())
	case d < time.Hour:
		return fmt.Sprintf("%.1f minutes", d.Minutes())
	case d < 24*time.Hour:
		return fmt.Sprintf("%.1f hours", d.Hours())
	default:
		return fmt.Sprintf("%.1f days", d.Hours()/24)
	}
}

// efficiencyString formats J/TH or N/A when hashrate or power is unknown.
func efficiencyString(stats cgminer.DeviceStats) string {
	if eff := stats.Efficiency(); eff > 0 {
		return fmt.Sprintf("%.1f J/TH", eff)
	}

	return "N/A"
}

// orNA substitutes N/A for empty values in status output.
func orNA(v string) string {
	if v == "" {
		return "N/A"
	}

	return v
}
