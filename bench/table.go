package bench

import (
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
)

// WriteTable renders summaries as a text table for people to read.
func WriteTable(w io.Writer, summaries []Summary) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Op", "Bits", "Exp", "Success", "Avg (µs)", "Min (µs)", "Max (µs)", "Stddev (µs)"})
	table.SetAlignment(tablewriter.ALIGN_RIGHT)
	for _, s := range summaries {
		table.Append([]string{
			s.Op,
			strconv.Itoa(s.Bits),
			s.Label,
			fmt.Sprintf("%d/%d", s.Successes, s.Iterations),
			fmt.Sprintf("%.2f", s.Stats.Mean()),
			strconv.FormatUint(s.Stats.Min(), 10),
			strconv.FormatUint(s.Stats.Max(), 10),
			fmt.Sprintf("%.2f", s.Stats.StdDev()),
		})
	}
	table.Render()
}
