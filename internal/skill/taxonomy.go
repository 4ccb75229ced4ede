package skill

// Domain is a top-level skill grouping.
type Domain string

// Category is a skill grouping within a domain.
type Category string

// the screener currently only covers early literacy, but the
// storage model allows further domains to be added here.
const (
	LanguageAndLiteracy Domain = "language_and_literacy"
)

const (
	PhonologicalAwareness Category = "phonological_awareness"
	PrintKnowledge        Category = "print_knowledge"
	AlphabetKnowledge     Category = "alphabet_knowledge"
	Comprehension         Category = "comprehension"
	TextStructure         Category = "text_structure"
	Writing               Category = "writing"
	TestSkillCategory     Category = "test_skill_category"
)

//
// fixed taxonomy tables, keyed by the alphabetic prefix of a
// screener skill code. these are a closed set - the screener tool
// and the storage schema both depend on them, so they are not
// configurable at runtime.
//
var skillNameToCategory = map[string]Category{
	"phaw":   PhonologicalAwareness,
	"prkn":   PrintKnowledge,
	"ak":     AlphabetKnowledge,
	"co":     Comprehension,
	"ts":     TextStructure,
	"wr":     Writing,
	"tskill": TestSkillCategory,
}

var skillNameToDomain = map[string]Domain{
	"phaw":   LanguageAndLiteracy,
	"prkn":   LanguageAndLiteracy,
	"ak":     LanguageAndLiteracy,
	"co":     LanguageAndLiteracy,
	"ts":     LanguageAndLiteracy,
	"wr":     LanguageAndLiteracy,
	"tskill": LanguageAndLiteracy,
}

// stable numeric identifiers for each category, used by the
// storage layer.
var categoryIDs = map[Category]int{
	PhonologicalAwareness: 1,
	PrintKnowledge:        2,
	AlphabetKnowledge:     3,
	Comprehension:         4,
	TextStructure:         5,
	Writing:               6,
	TestSkillCategory:     7,
}

// display forms of the skill-name prefixes as they appear in the
// backing store.
var skillNameDisplay = map[string]string{
	"phaw":   "PhAw",
	"prkn":   "PrKn",
	"ak":     "AK",
	"co":     "CO",
	"ts":     "TS",
	"wr":     "WR",
	"tskill": "TSkill",
}

//
// CategoryID returns the stable numeric identifier used for a
// category in the backing store.
//
func CategoryID(category Category) (int, bool) {
	id, ok := categoryIDs[category]
	return id, ok
}
