// Package maiota parses the ampersand-delimited frames published by MAIoTA
// greenhouse nodes, e.g.
//
//	Payload=CIoTA-D1=2603&D2=5411&D3=2542&D4=43&D5=580&D6=103&D7=1&
package maiota

import (
	"math"
	"strconv"
	"strings"

	"github.com/sguter90/fieldmaestro/pkg/parser"
	"github.com/sirupsen/logrus"
)

const (
	// Format is the registry identifier of this parser
	Format = "maiota"

	headerMarker = "Payload="
)

// Glyphs some firmware versions append to values. The second is the UTF-8
// down arrow decoded as Windows-1252.
var valueNoise = strings.NewReplacer("↓", "", "â†“", "", "%", "")

// Parser implements parser.Parser for MAIoTA frames
type Parser struct {
	fields parser.FieldMap
	logger logrus.FieldLogger
}

// NewParser creates a parser. A nil field map selects DefaultFields.
func NewParser(fields parser.FieldMap, logger logrus.FieldLogger) *Parser {
	if fields == nil {
		fields = DefaultFields()
	}
	return &Parser{
		fields: fields,
		logger: logger.WithField("parser", Format),
	}
}

// Format returns the frame format identifier
func (p *Parser) Format() string {
	return Format
}

// Fields returns the active field table
func (p *Parser) Fields() parser.FieldMap {
	return p.fields
}

// Parse converts a frame into field values. Unknown keys are ignored and
// unparseable values are logged and dropped. Later duplicates win.
func (p *Parser) Parse(frame string) map[string]float64 {
	results := make(map[string]float64)

	if idx := strings.Index(frame, headerMarker); idx >= 0 {
		frame = frame[idx+len(headerMarker):]
	}

	frame = strings.TrimSpace(frame)
	frame = strings.TrimSuffix(frame, "&")
	if frame == "" {
		return results
	}

	for _, segment := range strings.Split(frame, "&") {
		key, raw, ok := strings.Cut(segment, "=")
		if !ok {
			continue
		}

		cleaned := strings.TrimSpace(valueNoise.Replace(raw))
		value, err := strconv.ParseFloat(cleaned, 64)
		if err != nil || math.IsNaN(value) || math.IsInf(value, 0) {
			p.logger.WithFields(logrus.Fields{
				"key":   key,
				"value": raw,
			}).Debug("Dropping unparseable frame value")
			continue
		}

		spec, known := p.fields[normaliseKey(key)]
		if !known {
			continue
		}

		results[spec.Field] = value / spec.Divisor
	}

	return results
}

// normaliseKey keeps the suffix after the last '-', so "CIoTA-D1" becomes "D1"
func normaliseKey(key string) string {
	if idx := strings.LastIndex(key, "-"); idx >= 0 {
		key = key[idx+1:]
	}
	return strings.TrimSpace(key)
}
