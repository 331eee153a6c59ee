package labels

// FallbackBehavior is substituted when the behavior model activates no label.
const FallbackBehavior = "balanced_contributor"

// BehaviorLabels is the fixed output order of the behavior classifier.
var BehaviorLabels = []string{
	"maintainer",
	"team_player",
	"innovator",
	"learner",
}

// SkillLabels is the canonical skill universe, ordered by frequency across
// the training corpus. The order is part of the model contract and must not
// change between training and decoding.
var SkillLabels = []string{
	"JavaScript",
	"Python",
	"Java",
	"TypeScript",
	"C++",
	"C",
	"PHP",
	"C#",
	"Shell",
	"Ruby",
	"Go",
	"Rust",
	"Kotlin",
	"Swift",
	"Scala",
	"Dart",
	"R",
	"Objective-C",
	"Perl",
	"Haskell",
	"Lua",
	"Elixir",
	"Clojure",
	"Julia",
	"HTML",
	"CSS",
	"SQL",
	"MATLAB",
	"Assembly",
	"Other",
}

// BehaviorDescription is the rendered form of one behavior label.
type BehaviorDescription struct {
	Title       string
	Description string
	Traits      []string
}

// BehaviorDescriptions maps each behavior label, including the fallback, to
// its rendered description.
var BehaviorDescriptions = map[string]BehaviorDescription{
	"maintainer": {
		Title:       "Maintainer",
		Description: "Actively maintains and improves existing projects",
		Traits:      []string{"Consistent contributor", "Long-term commitment", "Quality-focused"},
	},
	"team_player": {
		Title:       "Team Player",
		Description: "Collaborates well with others through reviews and contributions",
		Traits:      []string{"Collaborative", "Code reviewer", "Community-engaged"},
	},
	"innovator": {
		Title:       "Innovator",
		Description: "Creates new projects and explores new technologies",
		Traits:      []string{"Creative", "Experimental", "Technology explorer"},
	},
	"learner": {
		Title:       "Learner",
		Description: "Continuously learning and expanding technical skills",
		Traits:      []string{"Growth-oriented", "Technology diversity", "Skill builder"},
	},
	FallbackBehavior: {
		Title:       "Balanced Contributor",
		Description: "Contributes across projects without a single dominant pattern",
		Traits:      []string{"Versatile", "Adaptive", "Well-rounded"},
	},
}

// Describe looks up a behavior description, falling back to the balanced
// contributor entry for unknown labels.
func Describe(behavior string) BehaviorDescription {
	if d, ok := BehaviorDescriptions[behavior]; ok {
		return d
	}
	return BehaviorDescriptions[FallbackBehavior]
}
