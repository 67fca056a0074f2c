package bkp9151

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// Reply is one line returned by the instrument with trailing whitespace
// removed. The zero value means no data was returned, which is distinct
// from a present but empty value.
type Reply struct {
	text    string
	present bool
}

func newReply(line string) Reply {
	text := trimLine(line)
	if text == "" {
		return Reply{}
	}
	return Reply{text: text, present: true}
}

func trimLine(line string) string {
	return strings.TrimRightFunc(line, unicode.IsSpace)
}

// Present reports whether the instrument returned data.
func (r Reply) Present() bool { return r.present }

// Value returns the reply text and whether it was present.
func (r Reply) Value() (string, bool) { return r.text, r.present }

// String returns the reply text, or "" when absent.
func (r Reply) String() string { return r.text }

// Int parses the reply as a decimal integer, e.g. a status register.
func (r Reply) Int() (int, error) {
	if !r.present {
		return 0, ErrNoReply
	}
	v, err := strconv.Atoi(strings.TrimSpace(r.text))
	if err != nil {
		return 0, fmt.Errorf("parse %q as integer: %w", r.text, err)
	}
	return v, nil
}

// Float parses the reply as a number. A trailing unit suffix (V, A, W) is
// ignored.
func (r Reply) Float() (float64, error) {
	if !r.present {
		return 0, ErrNoReply
	}
	num := strings.TrimSpace(strings.TrimRightFunc(r.text, unicode.IsLetter))
	v, err := strconv.ParseFloat(num, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %q as number: %w", r.text, err)
	}
	return v, nil
}

// ErrorReport is the instrument's error queue head as returned by
// SYSTem:ERRor?. Raw is always set; Code and Message are filled when the
// reply follows the usual <code>,"<message>" form.
type ErrorReport struct {
	Raw     string
	Code    int
	Message string
	Parsed  bool
}

// OK reports whether the error queue was empty. An absent or unparsable
// report is not considered OK.
func (e ErrorReport) OK() bool {
	return e.Parsed && e.Code == 0
}

func (e ErrorReport) String() string {
	if !e.Parsed {
		return e.Raw
	}
	return fmt.Sprintf("%d, %s", e.Code, e.Message)
}

var errorQueueLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Int", Pattern: `[-+]?[0-9]+`},
	{Name: "String", Pattern: `"(?:[^"]|"")*"`},
	{Name: "Comma", Pattern: `,`},
	{Name: "Whitespace", Pattern: `[ \t\r\n]+`},
})

type errorQueueEntry struct {
	Code    int    `parser:"@Int \",\""`
	Message string `parser:"@String"`
}

var errorQueueParser = participle.MustBuild[errorQueueEntry](
	participle.Lexer(errorQueueLexer),
	participle.Elide("Whitespace"),
)

// ParseErrorReport parses a SYSTem:ERRor? reply such as
// `-222,"Data out of range"`. The returned report always carries Raw, even
// when err is non-nil.
func ParseErrorReport(raw string) (ErrorReport, error) {
	report := ErrorReport{Raw: trimLine(raw)}
	if report.Raw == "" {
		return report, ErrNoReply
	}

	entry, err := errorQueueParser.ParseString("", report.Raw)
	if err != nil {
		return report, fmt.Errorf("parse error report %q: %w", report.Raw, err)
	}

	report.Code = entry.Code
	report.Message = unquoteSCPI(entry.Message)
	report.Parsed = true
	return report, nil
}

// unquoteSCPI strips the outer quotes and collapses doubled quotes.
func unquoteSCPI(s string) string {
	s = strings.TrimPrefix(s, `"`)
	s = strings.TrimSuffix(s, `"`)
	return strings.ReplaceAll(s, `""`, `"`)
}
