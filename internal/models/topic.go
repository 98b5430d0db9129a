package models

// Topic is an entry of the fixed topic catalogue.
type Topic struct {
	Slug        string `json:"slug"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	Color       string `json:"color"`
}

// Topics is the topic catalogue in display order.
var Topics = []Topic{
	{
		Slug:        "systems",
		Title:       "Systems Thinking",
		Description: "Understanding how components interact, identifying leverage points for change, and seeing the whole rather than just the parts.",
		Icon:        "◎",
		Color:       "#D4A574",
	},
	{
		Slug:        "hospitality",
		Title:       "Restaurant & Hospitality",
		Description: "Lessons from running restaurants, point-of-sale systems, and building hospitality operations that scale.",
		Icon:        "◇",
		Color:       "#C4725B",
	},
	{
		Slug:        "horticulture",
		Title:       "Growing Things",
		Description: "The science and art of helping things grow, from cultivation to botanical systems.",
		Icon:        "❋",
		Color:       "#7D8B75",
	},
	{
		Slug:        "ai",
		Title:       "AI & Technology",
		Description: "Orchestrating AI systems, building with agents, and exploring what becomes possible when humans and machines collaborate.",
		Icon:        "⬡",
		Color:       "#6B9BD2",
	},
	{
		Slug:        "play",
		Title:       "Play & Analysis",
		Description: "Sports analysis, game theory, and the serious business of understanding competitive systems.",
		Icon:        "◈",
		Color:       "#9B8BD2",
	},
	{
		Slug:        "meta",
		Title:       "Meta",
		Description: "Notes about the garden itself: how it works, why it exists, and the philosophy behind digital gardens.",
		Icon:        "✦",
		Color:       "#A0A0A0",
	},
}

// TopicSlugs returns the slug of every catalogue topic.
func TopicSlugs() []string {
	out := make([]string, len(Topics))
	for i, t := range Topics {
		out[i] = t.Slug
	}
	return out
}
