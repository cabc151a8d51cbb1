package fuel

import (
	"encoding/csv"
	"fmt"
	"io"
)

// csvHeader defines the ledger's column order. Rates carry four decimals
// because per-km consumption is a small number; liters carry two.
var csvHeader = []string{"stage", "kind", "odometer_from", "odometer_to", "distance_km", "rate_l_per_km", "fuel_liters"}

// WriteCSV writes the allocation rows as a flat delimited ledger, followed by
// a totals line carrying the allocated and refilled sums.
func WriteCSV(w io.Writer, result *Result) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write ledger header: %w", err)
	}

	for _, row := range result.Rows {
		record := []string{
			row.StageLabel,
			string(row.Kind),
			fmt.Sprintf("%.1f", row.OdometerFrom),
			fmt.Sprintf("%.1f", row.OdometerTo),
			fmt.Sprintf("%.1f", row.Distance),
			fmt.Sprintf("%.4f", row.Rate),
			fmt.Sprintf("%.2f", row.FuelUsage),
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write ledger row %s: %w", row.StageLabel, err)
		}
	}

	totals := []string{"total", "", "", "", "", fmt.Sprintf("refilled=%.2f", result.TotalRefilled), fmt.Sprintf("%.2f", result.TotalAllocated)}
	if err := cw.Write(totals); err != nil {
		return fmt.Errorf("write ledger totals: %w", err)
	}

	cw.Flush()
	return cw.Error()
}
