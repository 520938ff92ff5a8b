package model

import "strings"

// Languages accepted by the judge, keyed by the name clients send.
var judgeLanguageIDs = map[string]int{
	"python": 71,
	"cpp":    54,
	"java":   62,
	"c":      50,
}

// JudgeLanguageID returns the judge's numeric id for a language name.
func JudgeLanguageID(language string) (int, bool) {
	id, ok := judgeLanguageIDs[strings.ToLower(strings.TrimSpace(language))]
	return id, ok
}

func SupportedLanguages() []string {
	return []string{"c", "cpp", "java", "python"}
}
