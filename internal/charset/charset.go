// Package charset converts IDE artifacts written in the Windows ANSI code
// page to UTF-8.
package charset

import (
	"bytes"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/gogs/chardet"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/html/charset"
	"golang.org/x/text/transform"
)

// UTF8BOM is the utf-8 byte-order marker
var UTF8BOM = []byte{'\xef', '\xbb', '\xbf'}

// ConvertOpts controls how content of an unknown encoding is decoded.
type ConvertOpts struct {
	// AnsiCharset is the code page the IDE writes in, e.g. gbk. When set it
	// is used for every non UTF-8 content instead of chardet's guess.
	AnsiCharset string
}

// labels maps chardet names that are not WHATWG labels.
var labels = map[string]string{
	"GB-18030": "gb18030",
}

// detectedCharsetScore breaks ties between results of equal confidence.
// Lower wins. Code pages µVision installs commonly use come first.
var detectedCharsetScore = map[string]int{
	"utf-8":        0,
	"gb-18030":     1,
	"big5":         2,
	"shift_jis":    3,
	"euc-kr":       4,
	"euc-jp":       5,
	"windows-1252": 6,
	"iso-8859-1":   7,
}

// minDetectLen is how long content is made by repetition before detection,
// since chardet is unreliable on short input.
const minDetectLen = 1024

// Valid reports whether label names an encoding that can be decoded.
func Valid(label string) bool {
	enc, _ := charset.Lookup(label)
	return enc != nil
}

// DetectEncoding returns the charset label of content, "UTF-8" when content
// is valid UTF-8.
func DetectEncoding(content []byte, opts ConvertOpts) (string, error) {
	if utf8.Valid(content) {
		return "UTF-8", nil
	}

	textDetector := chardet.NewTextDetector()
	detectContent := content
	if len(content) < minDetectLen {
		times := minDetectLen / len(content)
		detectContent = bytes.Repeat(content, times)
	}

	results, err := textDetector.DetectAll(detectContent)
	if err != nil {
		if errors.Is(err, chardet.NotDetectedError) && opts.AnsiCharset != "" {
			log.Debug().Str("charset", opts.AnsiCharset).Msg("using ansi charset")
			return opts.AnsiCharset, nil
		}
		return "", err
	}

	top := results[0]
	priority, has := detectedCharsetScore[strings.ToLower(top.Charset)]
	for _, result := range results {
		// results are sorted by confidence
		if result.Confidence != results[0].Confidence {
			break
		}
		p, ok := detectedCharsetScore[strings.ToLower(result.Charset)]
		if ok && (!has || p < priority) {
			top, priority, has = result, p, true
		}
	}

	if top.Charset != "UTF-8" && opts.AnsiCharset != "" {
		log.Debug().Str("charset", opts.AnsiCharset).Str("detected", top.Charset).Msg("using ansi charset")
		return opts.AnsiCharset, nil
	}
	log.Debug().Str("charset", top.Charset).Int("confidence", top.Confidence).Msg("detected encoding")
	if label, ok := labels[top.Charset]; ok {
		return label, nil
	}
	return top.Charset, nil
}

// ToUTF8 returns content decoded to UTF-8 without a BOM. Content in an
// unknown encoding, or one that fails to decode, is returned as is.
func ToUTF8(content []byte, opts ConvertOpts) []byte {
	content = bytes.TrimPrefix(content, UTF8BOM)
	label, err := DetectEncoding(content, opts)
	if err != nil || label == "UTF-8" {
		return content
	}
	enc, _ := charset.Lookup(label)
	if enc == nil {
		log.Warn().Str("charset", label).Msg("unknown encoding, content left undecoded")
		return content
	}
	decoded, _, err := transform.Bytes(enc.NewDecoder(), content)
	if err != nil {
		return content
	}
	return decoded
}
