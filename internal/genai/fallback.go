package genai

// FallbackTopics is the static suggestion list used when topic generation
// fails. It keeps the topic screen usable offline.
func FallbackTopics() []Topic {
	return []Topic{
		{ID: 1, Title: "買珍珠奶茶 (Mǎi zhēnzhū nǎichá)", VietnameseTitle: "Mua trà sữa trân châu", Description: "Ordering typical Taiwanese drinks."},
		{ID: 2, Title: "逛夜市 (Guàng yèshì)", VietnameseTitle: "Đi dạo chợ đêm", Description: "Talking about street food and games."},
		{ID: 3, Title: "問路 (Wèn lù)", VietnameseTitle: "Hỏi đường đi MRT", Description: "Asking for directions in Taipei."},
	}
}

// CannedTurn is the pre-segmented apology reply substituted for a failed chat
// turn. Its feedback value signals a connectivity problem; everything else
// looks like a genuine assistant turn.
func CannedTurn() ChatTurnResult {
	return ChatTurnResult{
		Feedback:    "Lỗi kết nối",
		Script:      "哎呀，網絡好像有點卡住耶，再試一次好嗎？",
		Pinyin:      "Āiyā, wǎngluò hǎoxiàng yǒu diǎn kǎ zhù ye, zài shì yīcì hǎo ma?",
		Translation: "Ui da, mạng có vẻ hơi lag nè, thử lại lần nữa được không?",
		Segments: []Segment{
			{Text: "哎呀", Pinyin: "Āiyā", Meaning: "Ui da"},
			{Text: "，", Pinyin: "", Meaning: ""},
			{Text: "網絡", Pinyin: "wǎngluò", Meaning: "mạng"},
			{Text: "好像", Pinyin: "hǎoxiàng", Meaning: "có vẻ"},
			{Text: "有點", Pinyin: "yǒu diǎn", Meaning: "hơi"},
			{Text: "卡住", Pinyin: "kǎ zhù", Meaning: "bị kẹt/lag"},
			{Text: "耶", Pinyin: "ye", Meaning: "nè"},
			{Text: "，", Pinyin: "", Meaning: ""},
			{Text: "再", Pinyin: "zài", Meaning: "lại"},
			{Text: "試", Pinyin: "shì", Meaning: "thử"},
			{Text: "一次", Pinyin: "yīcì", Meaning: "một lần"},
			{Text: "好嗎", Pinyin: "hǎo ma", Meaning: "được không"},
			{Text: "？", Pinyin: "", Meaning: ""},
		},
	}
}
