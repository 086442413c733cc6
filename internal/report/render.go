package report

import (
	"fmt"
	"io"
	"strings"

	"chargingcosts/internal/models"
)

// Render writes one block per cost row, separated by a dashed line.
func Render(w io.Writer, rows []models.CostRow) {
	separator := strings.Repeat("-", 40)
	for _, row := range rows {
		fmt.Fprintf(w, "Name: %s\n", row.ChargerName)
		fmt.Fprintf(w, "Charges: %d\n", row.ChargesCount)
		fmt.Fprintf(w, "Total energy: %.3f kWh\n", row.TotalEnergy)
		fmt.Fprintf(w, "Total cost: %.2f SEK\n", row.TotalCost)
		if row.TotalEnergy > 0 {
			fmt.Fprintf(w, "Average price: %.2f SEK/kWh\n", row.AveragePrice)
		} else {
			fmt.Fprintln(w, "Average price: n/a")
		}
		if row.Warning != "" {
			fmt.Fprintf(w, "Warning: %s\n", row.Warning)
		}
		fmt.Fprintln(w, separator)
	}
}
