// Command analyze extracts an order record from one note and prints it as JSON.
//
//	analyze -text "项目编号A123，开发费500，4月15日前，张老师"
//	echo "B77 300元 四月下旬" | analyze -today 2025-03-10
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/joseph-ayodele/orders-tracker/internal/analyzer"
	"github.com/joseph-ayodele/orders-tracker/internal/common"
)

func main() {
	var (
		text     = flag.String("text", "", "order note; read from stdin when empty")
		contacts = flag.String("contacts", "", "comma-separated known contact names")
		today    = flag.String("today", "", "analyze as of YYYY-MM-DD instead of the current date")
		tz       = flag.String("tz", "", "IANA time zone for the current date (default local)")
		trace    = flag.Bool("trace", false, "print which rule matched each field to stderr")
	)
	flag.Parse()

	if err := run(*text, *contacts, *today, *tz, *trace, os.Stdin, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "analyze: %v\n", err)
		os.Exit(1)
	}
}

func run(text, contacts, today, tz string, trace bool, stdin io.Reader, stdout, stderr io.Writer) error {
	var loc *time.Location
	if tz != "" {
		l, err := time.LoadLocation(tz)
		if err != nil {
			return fmt.Errorf("invalid -tz: %w", err)
		}
		loc = l
	}

	clock := analyzer.ClockIn(loc)
	if today != "" {
		d, err := analyzer.ParseDate(today, loc)
		if err != nil {
			return fmt.Errorf("invalid -today, use YYYY-MM-DD: %w", err)
		}
		clock = analyzer.FixedClock{T: d}
	}

	if text == "" {
		b, err := io.ReadAll(stdin)
		if err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
		text = string(b)
	}

	rec, tr := analyzer.New(analyzer.WithClock(clock)).Explain(text, common.SplitList(contacts))
	if rec != nil {
		if err := analyzer.ValidateRecord(rec); err != nil {
			return err
		}
	}
	if trace {
		fmt.Fprintf(stderr, "normalized=%q id=%s date=%s fee=%s contact=%s\n",
			tr.Normalized, tr.IDRule, tr.DateRule, tr.FeeRule, tr.ContactRule)
	}

	enc := json.NewEncoder(stdout)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(rec)
}
