package stream

import (
	"fmt"
	"strings"
)

// Summary is a structural view of an encoded stream, without type knowledge
type Summary struct {
	Version     int
	Flags       Flags
	StringTable []string
	Payload     []string
}

// Inspect parses the header and string table of encoded and returns the raw
// payload tokens. It applies the same validation as Reader.PrepareToRead.
func Inspect(encoded string) (*Summary, error) {
	r := NewReader(nil)
	if err := r.prepareHeader(encoded); err != nil {
		return nil, err
	}
	return &Summary{
		Version:     r.version,
		Flags:       r.flags,
		StringTable: r.stringTable,
		Payload:     r.tokens[r.pos:],
	}, nil
}

// String renders the summary in a human readable form
func (s *Summary) String() string {
	var sb strings.Builder

	addSection := func(title string) {
		sb.WriteString("\n")
		sb.WriteString(fmt.Sprintf("%s\n", strings.ToUpper(title)))
	}

	addField := func(name, value string) {
		sb.WriteString(fmt.Sprintf("  %-22s: %s\n", name, value))
	}

	addSection("Header")
	addField("Version", fmt.Sprintf("%d", s.Version))
	addField("Flags", fmt.Sprintf("%#x", int(s.Flags)))
	addField("Elide Type Names", fmt.Sprintf("%t", s.Flags&FlagElideTypeNames != 0))
	addField("RPC Token Included", fmt.Sprintf("%t", s.Flags&FlagRPCTokenIncluded != 0))

	addSection("String Table")
	for i, str := range s.StringTable {
		addField(fmt.Sprintf("%d", i+1), fmt.Sprintf("%q", str))
	}

	addSection("Payload")
	sb.WriteString("  ")
	sb.WriteString(strings.Join(s.Payload, " "))
	sb.WriteString("\n")

	return sb.String()
}
