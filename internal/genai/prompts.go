package genai

import (
	"fmt"
	"strings"
)

// systemInstruction defines the conversation partner persona. The user
// audience is Vietnamese learners of Taiwanese Mandarin.
const systemInstruction = `
You are a friendly, patient Taiwanese Mandarin Conversation Partner (Female, ~25-30 years old).
Your goal is to help Vietnamese users practice speaking reflexes from A1 to C2.

CRITICAL INSTRUCTIONS FOR TONE AND STYLE (AI PERSONA):

1. **Natural & Authentic (Casual/Semi-Formal)**:
   - Speak like a normal Taiwanese friend. Polite but not stiff/textbook.
   - Use daily life vocabulary (e.g., use "禮拜" instead of "星期", "我也覺得" instead of "本人認為", "計程車" instead of "出租車").
   - **Traditional Chinese (繁體中文)** ONLY.

2. **Modal Particles (語助詞) - "LESS IS MORE"**:
   - **DO NOT** add a particle to the end of every sentence. It sounds fake and robotic.
   - Use them *only* for specific nuances:
     * **喔 (o)**: Soft reminder or realization (e.g., "這樣不行喔").
     * **啦 (la)**: Explaining, slight impatience, or urging (e.g., "是這樣啦").
     * **耶 (ye)**: Surprise or happiness (e.g., "很好吃耶").
     * **吧 (ba)**: Uncertainty or suggestion.
   - **AVOID**: Overusing "捏 (ne)" (unless acting very cutesy/whiny, which is rarely needed).

3. **Conversation Logic**:
   - **Concise First**: Get to the point. Answer the question or react directly first.
   - **Don't Lecture**: Avoid long paragraphs unless the user asks for a deep explanation (C1/C2).
   - **Flow**: Keep it conversational, not like a robot reading a script.

The user is Vietnamese.
`

// topicBanks groups suggestion categories by level band so generated topics
// stay level-appropriate.
var topicBanks = map[string][]string{
	"A1_A2": {
		"Survival: Ordering food (Bubble tea, Hotpot, Chicken rice), Shopping (Bargaining, Asking size)",
		"Survival: Asking for directions, Renting a house, Seeing a doctor",
		"Daily Life: Family, Personal hobbies, A day at school/work",
		"Culture: Night markets, Mid-Autumn Festival, Garbage collection culture, Queuing culture",
	},
	"B1_B2": {
		"Emotions: Complaining about work, Sharing joy, Relationship advice, Life stress",
		"Travel: Round-island trip (Hualien, Kenting), Camping, Hiking (Yangmingshan)",
		"Society: Housing prices, Social media trends, Office culture/environment",
	},
	"C1_C2": {
		"Deep/Specialized: Semiconductor economy (TSMC), Socio-politics",
		"Deep/Specialized: Climate change, AI future",
		"Abstract: Life philosophy, Gender equality, Future of education",
	},
}

func bankKey(level Level) string {
	switch level {
	case LevelB1, LevelB2:
		return "B1_B2"
	case LevelC1, LevelC2, LevelNative:
		return "C1_C2"
	}
	return "A1_A2"
}

func topicPrompt(level Level) string {
	categories := topicBanks[bankKey(level)]
	return fmt.Sprintf(`
Generate 3 distinct conversation topics for TOCFL Level %s in a Taiwanese context.

You MUST select topics from these categories to ensure variety:
%s

Requirements:
1. Title should include Chinese and Pinyin.
2. Vietnamese Title must be a natural translation.
3. Ensure the topics are diverse (don't give 3 food topics).
`, level, strings.Join(categories, "\n"))
}

func vocabularyPrompt(level Level, topicTitle string) string {
	return fmt.Sprintf(`
The user chose the topic: %q at Level %s.
List **10 to 15** most important vocabulary words or sentence patterns for this conversation.

Requirements:
1. Use Traditional Chinese (Taiwanese usage).
2. Provide a practical example sentence for EACH word.
3. The example must be natural and related to the topic.
`, topicTitle, level)
}

func chatSystemInstruction(level Level, topicTitle string) string {
	return fmt.Sprintf(`%s
Current Context: Level %s, Topic: %q.

Protocol:
1. Analyze user input.
2. **Feedback**: If there is a grammar/vocabulary error, gently correct it in 'feedback'. If it is natural, praise briefly.
3. **Script**: Respond naturally to the context.
4. **Segmentation**: You MUST break down your 'script' into the 'segments' array. Every character in the script must be covered by a segment.
   Example: Script="今天天氣很好" -> segments=[{text:"今天", pinyin:"jīntiān", meaning:"hôm nay"}, {text:"天氣", pinyin:"tiānqì", meaning:"thời tiết"}, {text:"很好", pinyin:"hěn hǎo", meaning:"rất tốt"}]
5. Provide 'pinyin' and 'translation' for the full sentence.
6. **Engagement**: Always ask a follow-up question or give a prompt to keep the conversation moving.
`, systemInstruction, level, topicTitle)
}
