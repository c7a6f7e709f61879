package repl

import (
	"sort"
	"strings"

	"github.com/sahilm/fuzzy"
)

// Command 表示内置斜杠命令的标识符。
type Command string

const (
	CommandBye     Command = "bye"
	CommandHelp    Command = "help"
	CommandHistory Command = "history"
	CommandReset   Command = "reset"
	CommandSession Command = "session"
	CommandCopy    Command = "copy"
)

// Item 是一条内置命令及其说明。
type Item struct {
	Command     Command
	Aliases     []string
	Description string
}

// DisplayName 返回带前缀斜杠的展示名称。
func (i Item) DisplayName() string {
	return "/" + string(i.Command)
}

var builtinItems = []Item{
	{Command: CommandBye, Aliases: []string{"quit", "exit"}, Description: "end the chat"},
	{Command: CommandHelp, Description: "list commands"},
	{Command: CommandHistory, Description: "show this session's messages"},
	{Command: CommandReset, Description: "start over with an empty conversation"},
	{Command: CommandSession, Description: "print the session id"},
	{Command: CommandCopy, Description: "copy the last answer to the clipboard"},
}

// Items 返回内置命令列表。
func Items() []Item {
	return append([]Item(nil), builtinItems...)
}

// ActionKind 描述输入的解析结果。
type ActionKind int

const (
	ActionNone ActionKind = iota
	ActionSubmitCommand
	ActionError
)

// Action 汇总 slash 解析结果。
type Action struct {
	Kind    ActionKind
	Command Command
	Args    string
	Message string
}

// ResolveSlashAction parses one input line. Lines not starting with "/" resolve to ActionNone.
func ResolveSlashAction(input string) Action {
	text := strings.TrimSpace(input)
	if !strings.HasPrefix(text, "/") {
		return Action{Kind: ActionNone}
	}
	token, args, _ := strings.Cut(strings.TrimPrefix(text, "/"), " ")
	token = strings.ToLower(strings.TrimSpace(token))
	if token == "" {
		return Action{Kind: ActionError, Message: "type /help to see the commands"}
	}
	if item, ok := findExactItem(token); ok {
		return Action{Kind: ActionSubmitCommand, Command: item.Command, Args: strings.TrimSpace(args)}
	}
	msg := "unknown command /" + token
	if suggestions := Suggest(token); len(suggestions) > 0 {
		msg += ", did you mean " + suggestions[0].DisplayName() + "?"
	} else {
		msg += ", type /help to see the commands"
	}
	return Action{Kind: ActionError, Message: msg}
}

func findExactItem(token string) (Item, bool) {
	for _, item := range builtinItems {
		if string(item.Command) == token {
			return item, true
		}
		for _, alias := range item.Aliases {
			if alias == token {
				return item, true
			}
		}
	}
	return Item{}, false
}

type candidate struct {
	itemIdx int
	key     string
}

// Suggest fuzzy-matches query against command names and aliases, best match first.
func Suggest(query string) []Item {
	trimmed := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(query, "/")))
	if trimmed == "" {
		return Items()
	}
	candidates := make([]candidate, 0, len(builtinItems)*2)
	keys := make([]string, 0, len(builtinItems)*2)
	for idx, item := range builtinItems {
		candidates = append(candidates, candidate{itemIdx: idx, key: string(item.Command)})
		keys = append(keys, string(item.Command))
		for _, alias := range item.Aliases {
			candidates = append(candidates, candidate{itemIdx: idx, key: alias})
			keys = append(keys, alias)
		}
	}

	type scored struct {
		item  Item
		score int
	}
	results := fuzzy.Find(trimmed, keys)
	seen := map[int]bool{}
	matches := make([]scored, 0, len(results))
	for _, res := range results {
		cand := candidates[res.Index]
		if seen[cand.itemIdx] {
			continue
		}
		seen[cand.itemIdx] = true
		matches = append(matches, scored{item: builtinItems[cand.itemIdx], score: res.Score})
	}
	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].score == matches[j].score {
			return matches[i].item.Command < matches[j].item.Command
		}
		return matches[i].score > matches[j].score
	})
	out := make([]Item, 0, len(matches))
	for _, m := range matches {
		out = append(out, m.item)
	}
	return out
}
