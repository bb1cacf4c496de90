package plugin

import (
	"strconv"
	"strings"
	"unicode"
)

func init() {
	Register("wordcount", &wordCount{})
}

// wordCount splits its input on runs of non-letter characters and emits
// each resulting word with value "1"; Reduce counts how many values it was
// handed.
type wordCount struct{}

func (wordCount) Map(_ string, contents string) []KeyValue {
	fields := strings.FieldsFunc(contents, func(r rune) bool {
		return !unicode.IsLetter(r)
	})
	kva := make([]KeyValue, 0, len(fields))
	for _, w := range fields {
		kva = append(kva, KeyValue{Key: w, Value: "1"})
	}
	return kva
}

func (wordCount) Reduce(_ string, values []string) string {
	return strconv.Itoa(len(values))
}
