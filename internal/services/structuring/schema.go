package structuring

// sourceSchema describes one provenance record
var sourceSchema = map[string]interface{}{
	"type": "object",
	"properties": map[string]interface{}{
		"postId":    map[string]interface{}{"type": "string"},
		"postTitle": map[string]interface{}{"type": "string"},
		"subreddit": map[string]interface{}{"type": "string"},
		"url":       map[string]interface{}{"type": "string"},
		"excerpt":   map[string]interface{}{"type": "string", "description": "Relevant quote from the source"},
	},
	"required":         []string{"postId", "postTitle", "subreddit", "url", "excerpt"},
	"propertyOrdering": []string{"postId", "postTitle", "subreddit", "url", "excerpt"},
}

// resultSchema builds the AnalysisResult schema with the complaint count bounds
func resultSchema(minComplaints, maxComplaints int) map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"product":            map[string]interface{}{"type": "string"},
			"totalPostsAnalyzed": map[string]interface{}{"type": "integer", "minimum": 0},
			"complaints": map[string]interface{}{
				"type":     "array",
				"minItems": minComplaints,
				"maxItems": maxComplaints,
				"items": map[string]interface{}{
					"type": "object",
					"properties": map[string]interface{}{
						"issue":    map[string]interface{}{"type": "string", "description": "The core complaint or issue"},
						"category": map[string]interface{}{"type": "string", "description": "Category of the complaint (e.g., UX, Performance, Security, etc.)"},
						"sources":  map[string]interface{}{"type": "array", "items": sourceSchema},
					},
					"required":         []string{"issue", "category", "sources"},
					"propertyOrdering": []string{"issue", "category", "sources"},
				},
			},
			"summary": map[string]interface{}{"type": "string", "description": "Executive summary of main pain points"},
		},
		"required":         []string{"product", "totalPostsAnalyzed", "complaints", "summary"},
		"propertyOrdering": []string{"product", "totalPostsAnalyzed", "complaints", "summary"},
	}
}
