package pattern

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// rleLineWidth is the maximum body line length EncodeRLE writes.
const rleLineWidth = 70

// textReader strips a UTF-8 BOM and decodes UTF-16 input announced by a BOM.
func textReader(r io.Reader) *bufio.Reader {
	dec := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	return bufio.NewReader(transform.NewReader(r, dec))
}

func syntaxErr(line int, format string, args ...any) error {
	return fmt.Errorf("%w: line %d: %s", ErrSyntax, line, fmt.Sprintf(format, args...))
}

// DecodeRLE reads a pattern in run-length encoded format.
func DecodeRLE(r io.Reader) (*Pattern, error) {
	br := textReader(r)
	p := &Pattern{}
	lineNo := 0

	var header string
	for {
		line, err := br.ReadString('\n')
		if line == "" && err != nil {
			if err == io.EOF {
				return nil, syntaxErr(lineNo, "missing x = , y = header")
			}
			return nil, err
		}
		lineNo++
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if line[0] != '#' {
			header = line
			break
		}
		if err := p.rleComment(line, lineNo); err != nil {
			return nil, err
		}
	}

	width, height, err := parseRLEHeader(header, lineNo)
	if err != nil {
		return nil, err
	}
	if p.Cells, err = newCells(height, width); err != nil {
		return nil, syntaxErr(lineNo, "board %dx%d: %v", width, height, err)
	}
	if err := p.rleBody(br, lineNo); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Pattern) rleComment(line string, lineNo int) error {
	if len(line) < 2 {
		return nil
	}
	text := strings.TrimSpace(line[2:])
	switch line[1] {
	case 'N':
		p.Name = text
	case 'O':
		p.Author = text
	case 'C', 'c':
		p.Comments = append(p.Comments, text)
	case 'R', 'P':
		f := strings.Fields(text)
		if len(f) != 2 {
			return syntaxErr(lineNo, "#%c wants two coordinates", line[1])
		}
		x, errX := strconv.Atoi(f[0])
		y, errY := strconv.Atoi(f[1])
		if errX != nil || errY != nil {
			return syntaxErr(lineNo, "bad #%c coordinates %q", line[1], text)
		}
		if x < -MaxCells || x > MaxCells || y < -MaxCells || y > MaxCells {
			return syntaxErr(lineNo, "#%c offset %q out of range", line[1], text)
		}
		p.X, p.Y = x, y
	}
	return nil
}

// parseRLEHeader parses "x = 3, y = 4, rule = B3/S23". The rule is optional.
func parseRLEHeader(line string, lineNo int) (width, height int, err error) {
	width, height = -1, -1
	for _, field := range strings.Split(line, ",") {
		key, val, ok := strings.Cut(field, "=")
		if !ok {
			return 0, 0, syntaxErr(lineNo, "bad header field %q", field)
		}
		key, val = strings.TrimSpace(key), strings.TrimSpace(val)
		switch key {
		case "x", "y":
			n, err := strconv.Atoi(val)
			if err != nil || n < 0 {
				return 0, 0, syntaxErr(lineNo, "bad %s extent %q", key, val)
			}
			if key == "x" {
				width = n
			} else {
				height = n
			}
		case "rule":
			if !isConwayRule(val) {
				return 0, 0, fmt.Errorf("%w: %q (only %s)", ErrUnsupportedRule, val, Rule)
			}
		default:
			return 0, 0, syntaxErr(lineNo, "unknown header key %q", key)
		}
	}
	if width < 0 || height < 0 {
		return 0, 0, syntaxErr(lineNo, "header needs both x and y")
	}
	return width, height, nil
}

func isConwayRule(s string) bool {
	switch strings.ToUpper(strings.ReplaceAll(s, " ", "")) {
	case "B3/S23", "S23/B3", "23/3":
		return true
	}
	return false
}

// rleBody decodes run tokens until '!' or end of input. Text after '!' is
// ignored.
func (p *Pattern) rleBody(br *bufio.Reader, lineNo int) error {
	lineNo++
	row, col, count := 0, 0, 0
	for {
		c, err := br.ReadByte()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		switch {
		case c >= '0' && c <= '9':
			count = count*10 + int(c-'0')
			if count > 1<<24 {
				return syntaxErr(lineNo, "run count too large")
			}
			continue
		case c == '\n':
			lineNo++
			continue
		case c == ' ' || c == '\t' || c == '\r':
			continue
		}

		n := max(count, 1)
		count = 0
		switch c {
		case 'b', '.':
			col += n
		case 'o', 'A':
			if row >= p.Height() || col+n > p.Width() {
				return syntaxErr(lineNo, "live run at row %d columns %d..%d outside %dx%d", row, col, col+n-1, p.Width(), p.Height())
			}
			for k := 0; k < n; k++ {
				p.Cells.Set(row, col+k, 1)
			}
			col += n
		case '$':
			row += n
			col = 0
		case '!':
			return nil
		default:
			return syntaxErr(lineNo, "unexpected %q", c)
		}
	}
}

// EncodeRLE writes the pattern trimmed to its live cells. The offset line
// records where the trimmed cells sit on the board.
func EncodeRLE(w io.Writer, p *Pattern) error {
	t := p.Trim()
	bw := bufio.NewWriter(w)

	if t.Name != "" {
		fmt.Fprintf(bw, "#N %s\n", t.Name)
	}
	if t.Author != "" {
		fmt.Fprintf(bw, "#O %s\n", t.Author)
	}
	for _, c := range t.Comments {
		fmt.Fprintf(bw, "#C %s\n", c)
	}
	fmt.Fprintf(bw, "#R %d %d\n", t.X, t.Y)
	fmt.Fprintf(bw, "x = %d, y = %d, rule = %s\n", t.Width(), t.Height(), Rule)

	lw := &lineWrapper{w: bw}
	pendingRows := 0
	for i := 0; i < t.Height(); i++ {
		row := t.Cells.Row(i)
		end := len(row)
		for end > 0 && row[end-1] == 0 {
			end--
		}
		if end == 0 {
			pendingRows++
			continue
		}
		if i > 0 {
			lw.token(pendingRows+1, '$')
		}
		pendingRows = 0
		for j := 0; j < end; {
			k := j
			for k < end && (row[k] != 0) == (row[j] != 0) {
				k++
			}
			tag := byte('b')
			if row[j] != 0 {
				tag = 'o'
			}
			lw.token(k-j, tag)
			j = k
		}
	}
	lw.token(1, '!')
	bw.WriteByte('\n')
	return bw.Flush()
}

// lineWrapper writes run tokens, breaking lines before they exceed
// rleLineWidth. Tokens are never split.
type lineWrapper struct {
	w   *bufio.Writer
	col int
}

func (l *lineWrapper) token(n int, tag byte) {
	s := string(tag)
	if n > 1 {
		s = strconv.Itoa(n) + s
	}
	if l.col+len(s) > rleLineWidth {
		l.w.WriteByte('\n')
		l.col = 0
	}
	l.w.WriteString(s)
	l.col += len(s)
}
