package licensing

// Feature is a named capability a license can grant
type Feature struct {
	Name        string
	Description string
}

// Known client features. The grants table is free-form - these are the
// features the demo seed and the shipped client understand.
var (
	FeatureLike = Feature{
		Name:        "like",
		Description: "Like posts",
	}

	FeatureComment = Feature{
		Name:        "comment",
		Description: "Write comments",
	}

	FeatureReply = Feature{
		Name:        "reply",
		Description: "Reply to comments",
	}

	FeatureAIComment = Feature{
		Name:        "ai_comment",
		Description: "AI-generated comment drafts",
	}

	FeatureAddNeighbor = Feature{
		Name:        "add_neighbor",
		Description: "Send neighbor requests",
	}
)

// ProFeatures returns the full feature set of the highest tier
func ProFeatures() []Feature {
	return []Feature{
		FeatureLike,
		FeatureComment,
		FeatureReply,
		FeatureAIComment,
		FeatureAddNeighbor,
	}
}

// ProFeatureNames returns just the names, in grant order
func ProFeatureNames() []string {
	features := ProFeatures()
	names := make([]string, 0, len(features))
	for _, f := range features {
		names = append(names, f.Name)
	}
	return names
}
