// Package encoding normalises uploaded bill sheets to UTF-8.
package encoding

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	xenc "golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const sniffLen = 4096

// Charset names reported by Detect.
const (
	UTF8        = "UTF-8"
	UTF8BOM     = "UTF-8-BOM"
	UTF16LE     = "UTF-16LE"
	UTF16BE     = "UTF-16BE"
	Windows1252 = "windows-1252"
	ISO88599    = "ISO-8859-9"
)

var boms = []struct {
	prefix  []byte
	charset string
}{
	{[]byte{0xEF, 0xBB, 0xBF}, UTF8BOM},
	{[]byte{0xFF, 0xFE}, UTF16LE},
	{[]byte{0xFE, 0xFF}, UTF16BE},
}

// Detect names the charset of a sheet from its first bytes. A byte order
// mark wins; valid UTF-8 is taken as is; otherwise chardet guesses between
// the Latin charsets spreadsheet tools export, defaulting to windows-1252.
func Detect(sample []byte) string {
	for _, bom := range boms {
		if bytes.HasPrefix(sample, bom.prefix) {
			return bom.charset
		}
	}

	if utf8.Valid(sample) {
		return UTF8
	}

	result, err := chardet.NewTextDetector().DetectBest(sample)
	if err != nil {
		return Windows1252
	}

	switch result.Charset {
	case "UTF-8":
		return UTF8
	case "ISO-8859-9":
		return ISO88599
	}

	return Windows1252
}

func decoder(charset string) xenc.Encoding {
	switch charset {
	case UTF16LE:
		return unicode.UTF16(unicode.LittleEndian, unicode.UseBOM)
	case UTF16BE:
		return unicode.UTF16(unicode.BigEndian, unicode.UseBOM)
	case ISO88599:
		return charmap.ISO8859_9
	case Windows1252:
		return charmap.Windows1252
	}

	return nil
}

// NewUTF8Reader returns a reader yielding r decoded to UTF-8, with any
// UTF-8 byte order mark stripped.
func NewUTF8Reader(r io.Reader) (io.Reader, error) {
	br := bufio.NewReaderSize(r, sniffLen)

	sample, err := br.Peek(sniffLen)
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return nil, fmt.Errorf("peek: %w", err)
	}

	charset := Detect(sample)
	slog.Debug("detected sheet encoding", "charset", charset)

	switch charset {
	case UTF8:
		return br, nil
	case UTF8BOM:
		_, _ = br.Discard(len(boms[0].prefix))
		return br, nil
	}

	return transform.NewReader(br, decoder(charset).NewDecoder()), nil
}
