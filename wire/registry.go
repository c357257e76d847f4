package wire

// Tag is the numeric map key a protocol field is transmitted under
type Tag uint8

// The fixed tag registry
const (
	TagSAM Tag = iota
	TagSAI
	TagCAI
	TagE
	TagK
	TagTS
	TagL
	TagG
	TagF
	TagV
	TagA
	TagD
	TagN
	TagUA
	TagS
	TagUH
)

var tagNames = map[Tag]string{
	TagSAM: "SAM",
	TagSAI: "SAI",
	TagCAI: "CAI",
	TagE:   "E",
	TagK:   "K",
	TagTS:  "TS",
	TagL:   "L",
	TagG:   "G",
	TagF:   "F",
	TagV:   "V",
	TagA:   "A",
	TagD:   "D",
	TagN:   "N",
	TagUA:  "UA",
	TagS:   "S",
	TagUH:  "UH",
}

var namedTags map[string]Tag

func init() {
	namedTags = make(map[string]Tag, len(tagNames))
	for tag, name := range tagNames {
		namedTags[name] = tag
	}
}

// TagName returns the semantic name of a tag
func TagName(tag Tag) (string, bool) {
	name, ok := tagNames[tag]
	return name, ok
}

// TagFor returns the tag for a semantic name
func TagFor(name string) (Tag, bool) {
	tag, ok := namedTags[name]
	return tag, ok
}

// String implements the fmt.Stringer interface
func (t Tag) String() string {
	if name, ok := tagNames[t]; ok {
		return name
	}
	return "?"
}
