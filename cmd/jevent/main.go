// Command jevent provides CLI tools for converting, validating and
// pretty-printing JEVENT documents and iCalendar data.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/en"
	"github.com/spf13/cobra"

	"github.com/mailcore/jevent"
	"github.com/mailcore/jevent/convert/ical"
	"github.com/mailcore/jevent/internal/config"
	"github.com/mailcore/jevent/internal/obslog"
)

const version = "0.3.0"

var (
	fromFormat string
	toFormat   string
	sinceText  string
	verbose    bool
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:     "jevent",
		Short:   "Convert, validate and format JEVENT calendar documents",
		Version: version,
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "emit structured diagnostics to stderr")

	root.AddCommand(newConvertCmd())
	root.AddCommand(newValidateCmd())
	root.AddCommand(newFormatCmd())
	return root
}

func newLogger() *obslog.Logger {
	if !verbose {
		return obslog.Nop()
	}
	l, err := obslog.New()
	if err != nil {
		return obslog.Nop()
	}
	return l
}

func newConverter() (*ical.Converter, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return &ical.Converter{ProdID: cfg.ProdID, Log: newLogger()}, nil
}

func newConvertCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "convert [input] [output]",
		Short: "Convert between iCalendar and JEVENT, auto-detecting format by extension or content",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(args[0], args[1])
		},
	}
	cmd.Flags().StringVarP(&fromFormat, "from", "f", "", "source format (ical|json), auto-detected if omitted")
	cmd.Flags().StringVarP(&toFormat, "to", "t", "", "target format (ical|json), auto-detected if omitted")
	return cmd
}

func runConvert(inputFile, outputFile string) error {
	inputData, err := readFile(inputFile)
	if err != nil {
		return fmt.Errorf("reading input file: %w", err)
	}

	from := fromFormat
	if from == "" {
		from = detectFormat(inputData, filepath.Ext(inputFile))
	}
	to := toFormat
	if to == "" {
		to = detectFormat(nil, filepath.Ext(outputFile))
	}

	outputData, err := convertBytes(inputData, from, to)
	if err != nil {
		return fmt.Errorf("converting: %w", err)
	}

	if err := writeFile(outputFile, outputData); err != nil {
		return fmt.Errorf("writing output file: %w", err)
	}

	fmt.Printf("converted %s (%s) to %s (%s)\n", inputFile, from, outputFile, to)
	return nil
}

func newValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <file>...",
		Short: "Validate JEVENT documents",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(args)
		},
	}
	cmd.Flags().StringVar(&sinceText, "since", "", "only report events starting after this natural-language time, e.g. \"tomorrow\"")
	return cmd
}

func runValidate(files []string) error {
	var since *time.Time
	if sinceText != "" {
		t, err := parseNaturalTime(sinceText)
		if err != nil {
			return err
		}
		since = &t
	}

	hasErrors := false
	for _, filename := range files {
		data, err := readFile(filename)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: reading: %v\n", filename, err)
			hasErrors = true
			continue
		}

		events, err := parseJEVENT(data)
		if err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", filename, err)
			hasErrors = true
			continue
		}

		for i, event := range events {
			if since != nil && event.Start != nil && event.Start.Time().Before(*since) {
				continue
			}
			if err := event.Validate(); err != nil {
				fmt.Fprintf(os.Stderr, "%s: event %d (%s): %v\n", filename, i, event.UID, err)
				hasErrors = true
				continue
			}
			fmt.Printf("%s: event %d (%s): valid\n", filename, i, event.UID)
		}
	}

	if hasErrors {
		return fmt.Errorf("one or more documents failed validation")
	}
	return nil
}

func newFormatCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "format <file>...",
		Short: "Pretty-print JEVENT documents",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, filename := range args {
				if err := formatFile(filename); err != nil {
					return fmt.Errorf("formatting %s: %w", filename, err)
				}
			}
			return nil
		},
	}
}

// parseNaturalTime resolves a human phrase like "tomorrow" or "next monday"
// into an absolute instant, grounded on the same olebedev/when usage the
// rest of the ecosystem's calendar CLIs reach for.
func parseNaturalTime(text string) (time.Time, error) {
	w := when.New(nil)
	w.Add(en.All...)
	res, err := w.Parse(text, time.Now())
	if err != nil || res == nil {
		return time.Time{}, fmt.Errorf("could not understand %q as a date/time", text)
	}
	return res.Time, nil
}

func convertBytes(inputData []byte, fromFormat, toFormat string) ([]byte, error) {
	converter, err := newConverter()
	if err != nil {
		return nil, err
	}

	var events []*jevent.Event
	switch strings.ToLower(fromFormat) {
	case "ical", "icalendar", "ics":
		events, err = converter.ParseAll(inputData)
		if err != nil {
			return nil, fmt.Errorf("parsing iCalendar: %w", err)
		}
	case "json", "jevent":
		events, err = parseJEVENT(inputData)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported input format: %s", fromFormat)
	}

	switch strings.ToLower(toFormat) {
	case "ical", "icalendar", "ics":
		return converter.FormatAll(events)
	case "json", "jevent":
		if len(events) == 1 {
			return events[0].PrettyJSON()
		}
		return json.MarshalIndent(events, "", "  ")
	default:
		return nil, fmt.Errorf("unsupported output format: %s", toFormat)
	}
}

func parseJEVENT(data []byte) ([]*jevent.Event, error) {
	if event, err := jevent.ParseEvent(data); err == nil {
		return []*jevent.Event{event}, nil
	}
	events, err := jevent.ParseAllEvents(data)
	if err != nil {
		return nil, fmt.Errorf("parsing JEVENT: %w", err)
	}
	return events, nil
}

func detectFormat(data []byte, fileExt string) string {
	switch strings.ToLower(fileExt) {
	case ".ics", ".ical":
		return "ical"
	case ".json":
		return "json"
	}

	if len(data) > 0 {
		trimmed := strings.TrimSpace(string(data))
		if strings.HasPrefix(trimmed, "BEGIN:VCALENDAR") || strings.Contains(trimmed, "BEGIN:VEVENT") {
			return "ical"
		}
		if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
			return "json"
		}
	}
	return "json"
}

func formatFile(filename string) error {
	data, err := readFile(filename)
	if err != nil {
		return fmt.Errorf("reading file: %w", err)
	}

	if event, err := jevent.ParseEvent(data); err == nil {
		formatted, err := event.PrettyJSON()
		if err != nil {
			return fmt.Errorf("formatting JSON: %w", err)
		}
		fmt.Println(string(formatted))
		return nil
	}

	events, err := jevent.ParseAllEvents(data)
	if err != nil {
		return fmt.Errorf("parsing JEVENT: %w", err)
	}

	formatted, err := json.MarshalIndent(events, "", "  ")
	if err != nil {
		return fmt.Errorf("formatting JSON: %w", err)
	}
	fmt.Println(string(formatted))
	return nil
}

func readFile(filename string) ([]byte, error) {
	if filename == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(filename)
}

func writeFile(filename string, data []byte) error {
	if filename == "-" {
		_, err := os.Stdout.Write(data)
		return err
	}
	return os.WriteFile(filename, data, 0644)
}
