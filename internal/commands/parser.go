package commands

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

type wordSet map[string]struct{}

func newWordSet(words ...string) wordSet {
	s := make(wordSet, len(words))
	for _, w := range words {
		s[w] = struct{}{}
	}
	return s
}

func (s wordSet) has(w string) bool {
	_, ok := s[strings.ToLower(w)]
	return ok
}

// anyIn reports whether any of words is in the set.
func (s wordSet) anyIn(words []string) bool {
	for _, w := range words {
		if s.has(w) {
			return true
		}
	}
	return false
}

var (
	createVerbs   = newWordSet("create", "make", "build")
	roomNouns     = newWordSet("room", "space", "place", "area")
	addVerbs      = newWordSet("add", "place", "put", "remember")
	objectNouns   = newWordSet("object", "item", "thing", "memory")
	navigateVerbs = newWordSet("go", "move", "navigate", "travel")
	doorNouns     = newWordSet("door", "entrance", "exit", "connection")
	listVerbs     = newWordSet("list", "show", "tell")
	roomWords     = newWordSet("room", "rooms")
	describeWords = newWordSet("describe", "what", "where")
	deleteVerbs   = newWordSet("delete", "remove", "destroy", "erase", "forget")

	// Words that end a name and start its description.
	connectorWords = newWordSet("that", "with", "which", "who", "containing", "about", "like")
	fillerWords    = newWordSet("the", "a", "an", "this", "my", "room", "rooms", "object", "item", "thing", "memory")
)

var (
	roomBodyRe    = regexp.MustCompile(`(?i)(?:room|space|area)\s+(?:like|with|of|that)\s+(.+?)(?:\.|$)`)
	objectBodyRe  = regexp.MustCompile(`(?i)(?:object|item|thing|memory)\s+(?:like|with|of|that)\s+(.+?)(?:\.|$)`)
	doorBodyRe    = regexp.MustCompile(`(?i)(?:door|entrance)\s+(?:to|leading|that)\s+(.+?)(?:\.|$)`)
	quotedRe      = regexp.MustCompile(`["“]([^"”]+)["”]`)
	calledRe      = regexp.MustCompile(`(?i)(?:called|named)\s+([a-zA-Z\s]+)`)
	navTargetRe   = regexp.MustCompile(`(?i)\b(?:to|into|through)\s+([a-zA-Z0-9\s]+)`)
	deleteTailRe  = regexp.MustCompile(`(?i)\b(?:delete|remove|destroy|erase|forget)\b\s*(.*)`)
	leadingVerbRe = regexp.MustCompile(`(?i)^\s*(?:please\s+)?(?:create|make|build|add|place|put|remember)\s+`)
	leadingToRe   = regexp.MustCompile(`(?i)^(?:leading\s+)?to\s+`)
	oneWayRe      = regexp.MustCompile(`(?i)\bone[\s-]way\b`)
)

// Confidence of each rule. Chat is the fallback and deliberately low.
const (
	confidenceCreateRoom = 0.9
	confidenceAddObject  = 0.85
	confidenceNavigate   = 0.8
	confidenceCreateDoor = 0.8
	confidenceList       = 0.9
	confidenceDescribe   = 0.7
	confidenceDelete     = 0.85
	confidenceChat       = 0.5
)

type rule struct {
	match func(words []string) bool
	build func(input string, words []string) Command
}

// rules are tried in order and the first match wins. Later rules share
// vocabulary with earlier ones, so the order is part of the behaviour.
var rules = []rule{
	{
		match: func(w []string) bool { return createVerbs.anyIn(w) && roomNouns.anyIn(w) },
		build: buildCreateRoom,
	},
	{
		match: func(w []string) bool { return addVerbs.anyIn(w) && objectNouns.anyIn(w) },
		build: buildAddObject,
	},
	{
		match: navigateVerbs.anyIn,
		build: buildNavigate,
	},
	{
		match: func(w []string) bool {
			return deleteVerbs.anyIn(w) && doorNouns.anyIn(w) && !roomWords.anyIn(w)
		},
		build: buildDeleteDoor,
	},
	{
		match: func(w []string) bool { return doorNouns.anyIn(w) && !deleteVerbs.anyIn(w) },
		build: buildCreateDoor,
	},
	{
		match: listVerbs.anyIn,
		build: func(_ string, w []string) Command {
			if roomWords.anyIn(w) {
				return Command{Action: ActionListRooms, Confidence: confidenceList}
			}
			return Command{Action: ActionListObjects, Confidence: confidenceList}
		},
	},
	{
		match: describeWords.anyIn,
		build: func(string, []string) Command {
			return Command{Action: ActionDescribe, Confidence: confidenceDescribe}
		},
	},
	{
		match: deleteVerbs.anyIn,
		build: buildDelete,
	},
}

// Parse classifies free text into a command. Input matching no rule becomes
// a low-confidence chat.
func Parse(input string) Command {
	input = strings.TrimSpace(input)
	words := tokenize(input)

	for _, r := range rules {
		if r.match(words) {
			return r.build(input, words)
		}
	}

	return Command{
		Action:     ActionChat,
		Parameters: Parameters{Message: input},
		Confidence: confidenceChat,
		Fallback:   true,
	}
}

func tokenize(input string) []string {
	return strings.FieldsFunc(strings.ToLower(input), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func buildCreateRoom(input string, _ []string) Command {
	name, rest := extractName(input)
	return Command{
		Action: ActionCreateRoom,
		Parameters: Parameters{
			Name:        name,
			Description: extractBody(input, rest, roomBodyRe),
		},
		Confidence: confidenceCreateRoom,
	}
}

func buildAddObject(input string, _ []string) Command {
	name, rest := extractName(input)
	return Command{
		Action: ActionAddObject,
		Parameters: Parameters{
			Name:        name,
			Information: extractBody(input, rest, objectBodyRe),
		},
		Confidence: confidenceAddObject,
	}
}

func buildNavigate(input string, _ []string) Command {
	name, _ := extractName(input)
	if name == "" {
		if m := navTargetRe.FindStringSubmatch(input); m != nil {
			name, _ = cutAtConnector(m[1])
		}
	}

	return Command{
		Action:     ActionNavigate,
		Parameters: Parameters{RoomName: stripFiller(name)},
		Confidence: confidenceNavigate,
	}
}

func buildCreateDoor(input string, _ []string) Command {
	var desc string
	if m := doorBodyRe.FindStringSubmatch(input); m != nil {
		desc = trimBody(leadingToRe.ReplaceAllString(m[1], ""))
	}

	name, _ := extractName(input)
	if name == "" && desc != "" {
		// A short destination like "the garden" doubles as the new room's name.
		if short := stripFiller(desc); short != "" && len(strings.Fields(short)) <= 3 {
			name = titleCase(short)
		}
	}

	return Command{
		Action: ActionCreateDoor,
		Parameters: Parameters{
			Name:        name,
			Description: desc,
			OneWay:      oneWayRe.MatchString(input),
		},
		Confidence: confidenceCreateDoor,
	}
}

func buildDelete(input string, words []string) Command {
	action := ActionDeleteObject
	if roomWords.anyIn(words) {
		action = ActionDeleteRoom
	}

	name, _ := extractName(input)
	if name == "" {
		if m := deleteTailRe.FindStringSubmatch(input); m != nil {
			name = stripFiller(trimBody(m[1]))
		}
	}

	return Command{
		Action:     action,
		Parameters: Parameters{Name: name},
		Confidence: confidenceDelete,
	}
}

func buildDeleteDoor(input string, _ []string) Command {
	var name string
	if m := doorBodyRe.FindStringSubmatch(input); m != nil {
		name = stripFiller(trimBody(leadingToRe.ReplaceAllString(m[1], "")))
	} else if m := deleteTailRe.FindStringSubmatch(input); m != nil {
		var kept []string
		for _, w := range strings.Fields(stripFiller(trimBody(m[1]))) {
			if !doorNouns.has(w) {
				kept = append(kept, w)
			}
		}
		name = strings.Join(kept, " ")
	}

	return Command{
		Action:     ActionDeleteDoor,
		Parameters: Parameters{Name: name},
		Confidence: confidenceDelete,
	}
}

// extractName returns a quoted or called/named name and the input that
// follows it.
func extractName(input string) (name, rest string) {
	if m := quotedRe.FindStringSubmatchIndex(input); m != nil {
		return strings.TrimSpace(input[m[2]:m[3]]), input[m[1]:]
	}
	if m := calledRe.FindStringSubmatchIndex(input); m != nil {
		name, tail := cutAtConnector(input[m[2]:m[3]])
		return titleCase(name), tail + input[m[3]:]
	}
	return "", ""
}

// extractBody finds the description or information of a new entity: the
// pattern's capture, else whatever followed the name, else the whole input
// without its leading verb.
func extractBody(input, afterName string, pattern *regexp.Regexp) string {
	if m := pattern.FindStringSubmatch(input); m != nil {
		if body := trimBody(m[1]); body != "" {
			return body
		}
	}

	words := strings.Fields(strings.TrimLeft(afterName, " \t,;:-"))
	if len(words) > 0 && connectorWords.has(words[0]) {
		words = words[1:]
	}
	if body := trimBody(strings.Join(words, " ")); body != "" {
		return body
	}

	return trimBody(leadingVerbRe.ReplaceAllString(input, ""))
}

// cutAtConnector splits s before its first connector word.
func cutAtConnector(s string) (name, tail string) {
	words := strings.Fields(s)
	for i, w := range words {
		if connectorWords.has(w) {
			return strings.Join(words[:i], " "), " " + strings.Join(words[i:], " ")
		}
	}
	return strings.Join(words, " "), ""
}

// stripFiller drops articles and entity nouns so "the kitchen room" finds
// the room named Kitchen. A noun followed by a number is kept, since that is
// how default names look ("Room 2").
func stripFiller(s string) string {
	words := strings.Fields(s)
	var kept []string
	for i, w := range words {
		numbered := i+1 < len(words) && isNumber(words[i+1])
		if !fillerWords.has(w) || numbered {
			kept = append(kept, w)
		}
	}
	return strings.Join(kept, " ")
}

func isNumber(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return s != ""
}

func trimBody(s string) string {
	return strings.TrimSpace(strings.TrimRight(strings.TrimSpace(s), ".!?"))
}

func titleCase(s string) string {
	return cases.Title(language.English, cases.NoLower).String(s)
}
