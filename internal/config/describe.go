package config

import (
	"fmt"
	"strings"
)

// Describe renders a human-readable summary of regions, barcodes, and
// plugin selection, used by the validate CLI subcommand. Ported from
// describe_experiment (_config.py), condensed to what this port's
// Condition actually carries.
func (c *Conf) Describe() string {
	var b strings.Builder

	fmt.Fprintf(&b, "caller: %s\n", c.CallerSettings.Name)
	fmt.Fprintf(&b, "aligner: %s\n", c.MapperSettings.Name)
	fmt.Fprintf(&b, "channels: %d (split axis %d, %d region(s))\n", c.Channels, c.SplitAxis, len(c.Regions))
	b.WriteString(drawFlowcellSplit(c.Channels, len(c.Regions)))

	for i, cond := range c.Regions {
		fmt.Fprintf(&b, "region[%d] %s\n", i, describeCondition(cond))
	}
	for _, name := range []string{"classified", "unclassified"} {
		if cond, ok := c.Barcodes[name]; ok {
			fmt.Fprintf(&b, "barcode %q %s\n", name, describeCondition(cond))
		}
	}
	for name, cond := range c.Barcodes {
		if name == "classified" || name == "unclassified" {
			continue
		}
		fmt.Fprintf(&b, "barcode %q %s\n", name, describeCondition(cond))
	}

	return b.String()
}

func describeCondition(cond Condition) string {
	control := ""
	if cond.Control {
		control = " (control)"
	}
	return fmt.Sprintf("%q%s min=%d max=%d contigs=%v",
		cond.Name, control, cond.MinChunks, cond.MaxChunks, contigsOf(cond))
}

func contigsOf(cond Condition) []string {
	if cond.Targets == nil {
		return nil
	}
	return cond.Targets.IterContigs()
}

// drawFlowcellSplit is a condensed ASCII visualization of how many
// channels fall in each of N contiguous groups, adapted from
// draw_flowcell_split (_utils.py) — a single row holding one run of
// marker characters per region rather than a full 2D grid, since this port does not reproduce
// vendor channel layouts (spec's "do not guess" open question).
func drawFlowcellSplit(channels, regions int) string {
	if regions == 0 {
		return ""
	}
	markers := "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	groupSize := channels / regions
	var b strings.Builder
	b.WriteString("  ")
	for r := 0; r < regions; r++ {
		marker := byte('?')
		if r < len(markers) {
			marker = markers[r]
		}
		b.WriteString(strings.Repeat(string(marker), groupSize/8+1))
	}
	b.WriteString("\n")
	return b.String()
}
