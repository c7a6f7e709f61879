package main

import (
	"flag"
	"fmt"
	"io"
	"strings"

	"search-chat/internal/config"
)

type rootArgs struct {
	overrides []string
}

// parseRootArgs 只解析子命令之前的全局 -c/-store；其余参数原样交给子命令。
func parseRootArgs(args []string) (rootArgs, []string, error) {
	var overrides []string
	rest := args
	for len(rest) > 0 {
		name, value, consumed, ok := splitRootFlag(rest)
		if !ok {
			break
		}
		switch name {
		case "c":
			overrides = append(overrides, value)
		case "store":
			override, err := storeOverride(value)
			if err != nil {
				return rootArgs{}, nil, err
			}
			overrides = append(overrides, override)
		}
		rest = rest[consumed:]
	}
	return rootArgs{overrides: overrides}, rest, nil
}

// splitRootFlag 识别 -c v、-c=v、--store v 等形式。
func splitRootFlag(args []string) (name, value string, consumed int, ok bool) {
	arg := args[0]
	if !strings.HasPrefix(arg, "-") {
		return "", "", 0, false
	}
	trimmed := strings.TrimLeft(arg, "-")
	key, val, hasValue := strings.Cut(trimmed, "=")
	if key != "c" && key != "store" {
		return "", "", 0, false
	}
	if hasValue {
		return key, val, 1, true
	}
	if len(args) < 2 {
		return "", "", 0, false
	}
	return key, args[1], 2, true
}

func storeOverride(backend string) (string, error) {
	backend = strings.ToLower(strings.TrimSpace(backend))
	switch backend {
	case config.BackendFile, config.BackendSQLite, config.BackendMemory:
		return "session.backend=" + backend, nil
	default:
		return "", fmt.Errorf("unknown store %q (want file, sqlite or memory)", backend)
	}
}

func prependOverrides(root []string, overrides []string) []string {
	merged := append([]string{}, root...)
	return append(merged, overrides...)
}

// commonArgs 是各入口共享的参数。
type commonArgs struct {
	cfgPath         string
	modelOverride   string
	store           string
	configOverrides stringSlice
}

func newCommonFlagSet(name string) (*flag.FlagSet, *commonArgs) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	args := &commonArgs{}
	fs.StringVar(&args.cfgPath, "config", "", "Path to config file (default ~/.search-chat/config.toml)")
	fs.StringVar(&args.modelOverride, "model", "", "Model override")
	fs.StringVar(&args.modelOverride, "m", "", "Alias for --model")
	fs.StringVar(&args.store, "store", "", "Session store backend (file|sqlite|memory)")
	fs.Var(&args.configOverrides, "c", "Override config value key=value (repeatable)")
	return fs, args
}

// overrides 合并全局与子命令覆盖项，-model/-store 最后生效。
func (c *commonArgs) overrides(root rootArgs) ([]string, error) {
	merged := prependOverrides(root.overrides, []string(c.configOverrides))
	if strings.TrimSpace(c.store) != "" {
		override, err := storeOverride(c.store)
		if err != nil {
			return nil, err
		}
		merged = append(merged, override)
	}
	if model := strings.TrimSpace(c.modelOverride); model != "" {
		merged = append(merged, "model="+model)
	}
	return merged, nil
}
