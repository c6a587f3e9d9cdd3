package inspect

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/odvcencio/scribe/pkg/replay/codec"
	"github.com/odvcencio/scribe/pkg/replay/eventlog"
)

// Options controls Dump output.
type Options struct {
	// Color enables ANSI styling. Callers decide based on the destination.
	Color bool
	// Queries includes environment query records. Defaults to false.
	Queries bool
}

type styles struct {
	index  lipgloss.Style
	offset lipgloss.Style
	kind   lipgloss.Style
	query  lipgloss.Style
	err    lipgloss.Style
}

func newStyles(w io.Writer, color bool) styles {
	r := lipgloss.NewRenderer(w)
	if !color {
		r.SetColorProfile(termenv.Ascii)
		plain := r.NewStyle()
		return styles{index: plain, offset: plain, kind: plain, query: plain, err: plain}
	}
	r.SetColorProfile(termenv.ANSI256)
	return styles{
		index:  r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#666666", Dark: "#888888"}),
		offset: r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#666666", Dark: "#888888"}),
		kind:   r.NewStyle().Bold(true),
		query:  r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#0066CC", Dark: "#5599FF"}),
		err:    r.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#D00000", Dark: "#FF5555"}).Bold(true),
	}
}

// Dump writes one line per event. A damaged log is listed up to the damage
// and the decode error is written last and returned.
func Dump(log *eventlog.Log, w io.Writer, opts Options) error {
	st := newStyles(w, opts.Color)
	entries, decodeErr := log.Entries()

	for i, e := range entries {
		if e.Event.Kind().IsQuery() && !opts.Queries {
			continue
		}
		desc := Describe(e.Event)
		name, rest, _ := strings.Cut(desc, " ")
		style := st.kind
		if e.Event.Kind().IsQuery() {
			style = st.query
		}
		line := fmt.Sprintf("%s %s %s",
			st.index.Render(fmt.Sprintf("#%d", i)),
			st.offset.Render(fmt.Sprintf("@%d", e.Offset)),
			style.Render(name))
		if rest != "" {
			line += " " + rest
		}
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	if decodeErr != nil {
		fmt.Fprintln(w, st.err.Render("error: "+decodeErr.Error()))
		return decodeErr
	}
	return nil
}

// Lines returns Describe output for every event in order.
func Lines(log *eventlog.Log) ([]string, error) {
	entries, err := log.Entries()
	lines := make([]string, len(entries))
	for i, e := range entries {
		lines[i] = Describe(e.Event)
	}
	return lines, err
}

// Diff returns a unified diff of two logs' event listings. Offsets are left
// out so an inserted event shows as one added line. Empty means identical.
func Diff(a, b *eventlog.Log) (string, error) {
	la, err := Lines(a)
	if err != nil {
		return "", err
	}
	lb, err := Lines(b)
	if err != nil {
		return "", err
	}
	diff := difflib.UnifiedDiff{
		A:        difflib.SplitLines(strings.Join(la, "\n") + "\n"),
		B:        difflib.SplitLines(strings.Join(lb, "\n") + "\n"),
		FromFile: name(a, "a"),
		ToFile:   name(b, "b"),
		Context:  3,
	}
	return difflib.GetUnifiedDiffString(diff)
}

func name(log *eventlog.Log, fallback string) string {
	if p := log.Path(); p != "" {
		return p
	}
	return fallback
}

// Summary counts a log's events.
type Summary struct {
	Bytes   int
	Events  int
	Queries int
	Kinds   map[codec.Kind]int
	Targets map[uint8]int
}

// Summarize decodes the whole log and counts events per kind and target.
func Summarize(log *eventlog.Log) (Summary, error) {
	s := Summary{
		Bytes:   log.Size(),
		Kinds:   make(map[codec.Kind]int),
		Targets: make(map[uint8]int),
	}
	entries, err := log.Entries()
	for _, e := range entries {
		s.Events++
		k := e.Event.Kind()
		s.Kinds[k]++
		if k.IsQuery() {
			s.Queries++
		}
		if t, ok := e.Event.(codec.Targeted); ok {
			s.Targets[uint8(t.TargetID())]++
		}
	}
	return s, err
}

// WriteTo prints the summary as an aligned table in kind order.
func (s Summary) WriteTo(w io.Writer) (int64, error) {
	var b strings.Builder
	fmt.Fprintf(&b, "%d events (%d queries), %d bytes\n", s.Events, s.Queries, s.Bytes)
	for _, k := range codec.Kinds() {
		if n := s.Kinds[k]; n > 0 {
			fmt.Fprintf(&b, "  %-24s %d\n", k, n)
		}
	}
	ids := make([]int, 0, len(s.Targets))
	for id := range s.Targets {
		ids = append(ids, int(id))
	}
	sort.Ints(ids)
	for _, id := range ids {
		fmt.Fprintf(&b, "  controller %-13d %d\n", id, s.Targets[uint8(id)])
	}
	n, err := io.WriteString(w, b.String())
	return int64(n), err
}
