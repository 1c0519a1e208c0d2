package dish

import "strings"

// DefaultEmoji is shown when no keyword matches.
const DefaultEmoji = "🍽️"

// maxEmoji caps how many glyphs a single dish carries.
const maxEmoji = 3

type emojiRule struct {
	glyph    string
	keywords []string
}

// Ordered so that DetectEmoji is deterministic.
var emojiRules = []emojiRule{
	{"🍔", []string{"hamburger", "burger"}},
	{"🍣", []string{"sushi", "nigiri", "maki"}},
	{"🌯", []string{"burrito"}},
	{"🍕", []string{"pizza", "focaccia", "flammkuchen"}},
	{"🍝", []string{"pasta", "spaghetti"}},
	{"🥙", []string{"falafel", "shawarma", "shoarma", "doner"}},
	{"🥗", []string{"salad", "salade"}},
	{"🥔", []string{"potato", "aardappel", "stamppot", "rösti", "latke"}},
	{"🍟", []string{"fries", "friet", "patat", "frites"}},
	{"🥩", []string{"beef", "pork", "vlees", "steak", "biefstuk"}},
	{"🐟", []string{"fish", "vis", "zalm", "salmon"}},
	{"🌶️", []string{"chilli", "chili"}},
	{"🌭", []string{"hotdog", "sausage", "worst"}},
	{"🍗", []string{"chicken", "kip"}},
	{"🥘", []string{"stew", "stoof", "goulash", "paella"}},
	{"🍚", []string{"rice", "rijst"}},
	{"🍲", []string{"soup", "soep", "reshteh", "bibimbap"}},
	{"🥓", []string{"bacon", "spek", "carbonara"}},
	{"🫓", []string{"flat bread", "platbrood"}},
	{"🌮", []string{"taco", "quesadilla"}},
	{"🍛", []string{"curry"}},
	{"🍤", []string{"shrimp", "garnaal"}},
	{"🫘", []string{"bean", "bonen"}},
	{"🧑‍🍳", []string{"restaurant", "uiteten"}},
	{"🥬", []string{"kale", "kool"}},
	{"🍆", []string{"aubergine", "melanzane", "eggplant"}},
	{"🥦", []string{"broccoli", "broccollini"}},
	{"🫑", []string{"bell peper", "paprika"}},
	{"🥑", []string{"avocado", "guacamole"}},
	{"🥥", []string{"coconut", "kokos"}},
	{"🍅", []string{"tomato", "tomaat", "tomaten"}},
	{"🧅", []string{"onions", "uien"}},
	{"🥕", []string{"carrot", "wortel"}},
	{"🧀", []string{"cheese", "kaas", "paneer", "mozzarella"}},
	{"🌽", []string{"corn", "mais", "polenta"}},
	{"🥟", []string{"gyoza", "dumpling", "pierogi", "gnocchi"}},
	{"🥞", []string{"pancakes", "pannenkoeken", "poffertjes"}},
	{"🧇", []string{"waffles", "wavels"}},
	{"🥧", []string{"pie", "quiche"}},
	{"🔥", []string{"bbq", "barbeque", "teppanyaki", "gourmet"}},
	{"🍄‍🟫", []string{"mushroom", "paddestoel", "champignons", "zwammen"}},
	{"🧈", []string{"butter", "boter"}},
	{"🌱", []string{"basil", "herbs", "kruiden"}},
	{"🍞", []string{"bread"}},
	{"🥠", []string{"samosa"}},
	{"🥯", []string{"buns", "bagel"}},
	{"🍖", []string{"ribs"}},
	{"🍜", []string{"ramen"}},
	{"🍥", []string{"chashu"}},
	{"🍱", []string{"bento"}},
}

// DetectEmoji returns up to three glyphs whose keywords occur in the
// lowercased name, joined by a space, or DefaultEmoji.
func DetectEmoji(name string) string {
	lower := strings.ToLower(name)
	var matched []string
	for _, rule := range emojiRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				matched = append(matched, rule.glyph)
				break
			}
		}
		if len(matched) == maxEmoji {
			break
		}
	}
	if len(matched) == 0 {
		return DefaultEmoji
	}
	return strings.Join(matched, " ")
}
