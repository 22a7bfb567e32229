package render

import "regexp"

var emphasisPattern = regexp.MustCompile(`(?i)<em>(.*?)</em>`)

// stageDirections maps emphasized stage directions to emoji.
var stageDirections = map[string]string{
	"thoughtful look":              "🤔",
	"curious tone":                 "🔍",
	"informative tone":             "💡",
	"excited expression":           "😃",
	"surprised expression":         "😯",
	"skeptical expression":         "🤨",
	"confused expression":          "😕",
	"relieved expression":          "😌",
	"puzzled look":                 "🧩",
	"inspired look":                "💭",
	"serious tone":                 "💼",
	"playful tone":                 "🎉",
	"friendly tone":                "👋",
	"encouraging tone":             "👍",
	"motivational tone":            "🌟",
	"calm demeanor":                "😌",
	"anxious demeanor":             "😬",
	"hopeful expression":           "🙏",
	"reflective mood":              "🤔💭",
	"optimistic outlook":           "😊",
	"dreamy look":                  "😍",
	"courageous tone":              "🦸‍♂️",
	"determined expression":        "💪",
	"joyful expression":            "😄",
	"bemused expression":           "😶",
	"affectionate tone":            "😊❤️",
	"baffled expression":           "😵",
	"enlightened expression":       "🌟",
	"suspicious look":              "🕵️‍♂️",
	"relaxed demeanor":             "😎",
	"eager anticipation":           "😬👀",
	"sincere expression":           "🙏😊",
	"inquiring look":               "🤨🧐",
	"introspective mood":           "🤔💭",
	"restless demeanor":            "😬🤯",
	"reminiscent mood":             "🔙👀",
	"insightful expression":        "🤔💡",
	"engaged expression":           "🤓",
	"contented expression":         "😊💤",
	"sympathetic demeanor":         "🥺",
	"compassionate tone":           "🙏❤️",
	"intrigued expression":         "🤨🤔",
	"doubtful expression":          "🤔❓",
	"determined demeanor":          "💪👊",
	"optimistic demeanor":          "😊🤞",
	"pensive expression":           "🤔😔",
	"amused expression":            "😄😆",
	"inquisitive expression":       "🤔❓",
	"inspiring tone":               "🌟🙌",
	"contemplative mood":           "🤔🌌",
	"ambitious demeanor":           "💼💪",
	"thought-provoking tone":       "🤔💭",
	"encouraging expression":       "👍🙌",
	"inspiring expression":         "🌟🤩",
	"reassuring tone":              "🙏😊",
	"encouraging demeanor":         "👍🤗",
	"compassionate demeanor":       "🥰😌",
	"enthusiastic expression":      "😃🎉",
	"reflective expression":        "🤔💭",
	"uplifting tone":               "🌞🙌",
	"thoughtful demeanor":          "🤔👌",
	"engaged demeanor":             "🤓📚",
	"introspective expression":     "🤔💬",
	"inspirational tone":           "🌟🤞",
	"supportive expression":        "🙌😊",
	"hopeful demeanor":             "🤞😊",
	"optimistic expression":        "😊👍",
	"cheerful demeanor":            "😊🥳",
	"insightful demeanor":          "🤔🧠",
	"compassionate expression":     "🥰❤️",
	"thought-provoking expression": "🤔💭",
	"reassuring demeanor":          "😌🙏",
	"motivating expression":        "🌟💪",
	"uplifting demeanor":           "🙌🌞",
	"inspirational demeanor":       "🌟👏",
	"supportive demeanor":          "🤗🙏",
	"cheerful expression":          "😄🎉",
	"reassuring expression":        "🤗😊",
	"motivating demeanor":          "💪🌟",
	"uplifting expression":         "🙌😃",
	"thought-provoking demeanor":   "🤔🤔",
	"inspirational expression":     "🌟😊",
}

// ReplaceStageDirections swaps <em>phrase</em> for its emoji. Unknown phrases
// are left untouched.
func ReplaceStageDirections(s string) string {
	return emphasisPattern.ReplaceAllStringFunc(s, func(match string) string {
		phrase := emphasisPattern.FindStringSubmatch(match)[1]
		if emoji, ok := stageDirections[phrase]; ok {
			return emoji
		}
		return match
	})
}
