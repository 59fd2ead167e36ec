package commands

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"git.home.luguber.info/inful/zephyrforge/internal/board"
)

// BoardsCmd implements the 'boards' command.
type BoardsCmd struct{}

func (b *BoardsCmd) Run() error {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "BOARD\tUPLOAD\tHARDWARE I2C\tSPI\tOPENTHREAD")
	for _, name := range board.Default().Names() {
		d, err := board.Lookup(name)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%t\n",
			d.Name, d.Uploader, strings.Join(d.HardwareI2C, ","), d.SPIDevice, d.SupportsOpenThread())
	}
	return w.Flush()
}
