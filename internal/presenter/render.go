package presenter

import (
	"fmt"
	"io"
	"text/tabwriter"
)

// Render writes a view as a plain-text table.
func Render(w io.Writer, view View) error {
	switch view.Status {
	case StatusError:
		_, err := fmt.Fprintf(w, "error: %s\n", view.Error)
		return err
	case StatusEmpty:
		_, err := fmt.Fprintln(w, view.Message)
		return err
	}

	if view.Loading {
		if _, err := fmt.Fprintln(w, "loading..."); err != nil {
			return err
		}
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	if _, err := fmt.Fprintln(tw, "DATE\tTIME\tTYPE\tCOUNTERPARTY\tAMOUNT\tSYMBOL"); err != nil {
		return err
	}
	for _, row := range view.Rows {
		counterparty := row.Counterparty
		if row.ContactName != "" {
			counterparty = fmt.Sprintf("%s (%s)", row.ContactName, row.Counterparty)
		}
		if _, err := fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", row.Date, row.Time, row.Title, counterparty, row.Amount, row.Symbol); err != nil {
			return err
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if p := view.Pagination; p != nil {
		_, err := fmt.Fprintf(w, "page %d (%d events)  prev:%s  next:%s\n",
			p.Index+1, view.TotalCount, cursorLabel(p.Prev), cursorLabel(p.Next))
		return err
	}
	return nil
}

func cursorLabel(c Control) string {
	if !c.Enabled {
		return "-"
	}
	return string(c.Cursor)
}
