package genai

// Declared output schemas for structured generation. The service is asked for
// strictly-typed JSON; anything that does not decode and validate against
// these shapes is treated as a failure.

func topicListSchema() map[string]any {
	return map[string]any{
		"type": "ARRAY",
		"items": map[string]any{
			"type": "OBJECT",
			"properties": map[string]any{
				"id":               map[string]any{"type": "INTEGER"},
				"title":            map[string]any{"type": "STRING", "description": "Topic title in Traditional Chinese + (Pinyin)"},
				"vietnamese_title": map[string]any{"type": "STRING", "description": "Topic title translated to Vietnamese"},
				"description":      map[string]any{"type": "STRING", "description": "Short context description"},
			},
			"required": []string{"id", "title", "vietnamese_title", "description"},
		},
	}
}

func vocabularySchema() map[string]any {
	return map[string]any{
		"type": "ARRAY",
		"items": map[string]any{
			"type": "OBJECT",
			"properties": map[string]any{
				"chinese":         map[string]any{"type": "STRING", "description": "Traditional Chinese characters"},
				"pinyin":          map[string]any{"type": "STRING", "description": "Full pinyin with tones"},
				"vietnamese":      map[string]any{"type": "STRING", "description": "Vietnamese meaning"},
				"example":         map[string]any{"type": "STRING", "description": "A complete example sentence using this word in Taiwanese context"},
				"example_pinyin":  map[string]any{"type": "STRING", "description": "Pinyin for the example sentence"},
				"example_meaning": map[string]any{"type": "STRING", "description": "Vietnamese meaning of the example sentence"},
			},
			"required": []string{"chinese", "pinyin", "vietnamese", "example", "example_pinyin", "example_meaning"},
		},
	}
}

func chatTurnSchema() map[string]any {
	return map[string]any{
		"type": "OBJECT",
		"properties": map[string]any{
			"feedback":    map[string]any{"type": "STRING", "description": "Correction of user's grammar (in Vietnamese/Pinyin). If correct, simply say 'Hao bang!'."},
			"script":      map[string]any{"type": "STRING", "description": "The AI's response in Traditional Chinese. Conversational, natural flow."},
			"pinyin":      map[string]any{"type": "STRING", "description": "Full Pinyin for the AI's response."},
			"translation": map[string]any{"type": "STRING", "description": "Full Vietnamese translation of the AI's response."},
			"segments": map[string]any{
				"type":        "ARRAY",
				"description": "Break down the 'script' into individual words/phrases for interactive learning.",
				"items": map[string]any{
					"type": "OBJECT",
					"properties": map[string]any{
						"text":    map[string]any{"type": "STRING", "description": "The specific Chinese word or phrase"},
						"pinyin":  map[string]any{"type": "STRING", "description": "Pinyin for this specific segment"},
						"meaning": map[string]any{"type": "STRING", "description": "Vietnamese meaning for this specific segment"},
					},
					"required": []string{"text", "pinyin", "meaning"},
				},
			},
			"suggestion": map[string]any{"type": "STRING", "description": "A short suggested response for the user to say next (optional)."},
		},
		"required": []string{"feedback", "script", "pinyin", "translation", "segments"},
	}
}
