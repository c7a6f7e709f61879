package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"search-chat/internal/agent"
	"search-chat/internal/conversation"
	"search-chat/internal/execution"
	"search-chat/internal/history"
	"search-chat/internal/logger"
	"search-chat/internal/repl"
	"search-chat/internal/session"
	"search-chat/internal/tools"

	"golang.org/x/term"
)

const (
	binaryName   = "search-chat"
	historySeed  = 200
	defaultWidth = 80
)

var log = logger.Named("cli")

func main() {
	logger.Configure()
	if logFile, _, err := logger.SetupFile(logger.DefaultLogPath); err != nil {
		log.Warnf("failed to initialize log file: %v", err)
	} else {
		defer logFile.Close()
	}
	if toolsCloser, _, err := tools.SetupToolsLog(tools.DefaultToolsLogPath); err != nil {
		log.Warnf("failed to initialize tools log (%s): %v", tools.DefaultToolsLogPath, err)
	} else if toolsCloser != nil {
		defer toolsCloser.Close()
	}
	if llmCloser, _, err := logger.SetupLLMFile(logger.DefaultLLMLogPath); err != nil {
		log.Warnf("failed to initialize llm log (%s): %v", logger.DefaultLLMLogPath, err)
	} else if llmCloser != nil {
		defer llmCloser.Close()
	}
	defer execution.CloseErrorLog()

	root, rest, err := parseRootArgs(os.Args[1:])
	if err != nil {
		exitf("parse args: %v", err)
	}
	if len(rest) > 0 {
		switch rest[0] {
		case "resume":
			resumeMain(root, rest[1:])
			return
		case "sessions":
			sessionsMain(root, rest[1:])
			return
		case "ask":
			askMain(root, rest[1:])
			return
		case "ping":
			pingMain(root, rest[1:])
			return
		case "login":
			loginMain(root, rest[1:])
			return
		case "logout":
			logoutMain(root, rest[1:])
			return
		}
	}
	chatMain(root, rest)
}

// exitf 记录日志并把错误写到 stderr，以状态码 1 退出。
func exitf(format string, args ...any) {
	log.Errorf(format, args...)
	fmt.Fprintf(os.Stderr, "%s: %s\n", binaryName, fmt.Sprintf(format, args...))
	os.Exit(1)
}

func chatMain(root rootArgs, args []string) {
	fs, cli := newCommonFlagSet(binaryName)
	var sessionID string
	fs.StringVar(&sessionID, "session", "", "Session id to use (resumes it when it already exists)")
	if err := fs.Parse(args); err != nil {
		exitf("parse args: %v", err)
	}
	if fs.NArg() > 0 {
		exitf("unexpected argument %q (use `%s ask` for one-shot questions)", fs.Arg(0), binaryName)
	}
	overrides, err := cli.overrides(root)
	if err != nil {
		exitf("%v", err)
	}
	sessionID, err = sessionIDArg(sessionID)
	if err != nil {
		exitf("%v", err)
	}
	if err := runChat(cli.cfgPath, overrides, sessionID, false); err != nil {
		exitf("%v", err)
	}
}

// sessionIDArg 校验 -session 参数，为空时生成新 id。
func sessionIDArg(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return session.NewID(), nil
	}
	if err := session.CheckID(id); err != nil {
		return "", fmt.Errorf("-session: %w", err)
	}
	return id, nil
}

// runChat 启动交互循环，resumed 为 true 时要求会话已存在。
func runChat(cfgPath string, overrides []string, sessionID string, resumed bool) error {
	cfg, err := loadConfig(cfgPath, overrides)
	if err != nil {
		return err
	}
	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	greeting := fmt.Sprintf("%s · %s · session %s\ntype /help for commands, /bye to quit", binaryName, cfg.Model, sessionID)
	if resumed {
		n, err := a.engine.Resume(sessionID)
		if err != nil {
			return fmt.Errorf("resume %s: %w", sessionID, err)
		}
		greeting += fmt.Sprintf("\nresumed %d messages", n)
	}
	if a.echo {
		greeting += "\nno API token configured: answers are echoed back (set GROQ_API_KEY or run `" + binaryName + " login`)"
	}

	var seed []string
	hist, err := history.NewDefault()
	if err != nil {
		log.Warnf("prompt history disabled: %v", err)
	} else if seed, err = hist.LoadTexts(historySeed); err != nil {
		log.Warnf("load prompt history: %v", err)
	}

	reader := repl.NewLinerReader(seed)
	width, interactive := terminalWidth()
	opts := repl.Options{
		Engine:    a.engine,
		SessionID: sessionID,
		Reader:    reader,
		Writer:    os.Stdout,
		Bus:       a.bus,
		Markdown:  interactive,
		Width:     width,
		Greeting:  greeting,
	}
	if hist != nil {
		opts.History = hist
	}
	_, runErr := repl.Run(context.Background(), opts)
	if err := reader.Close(); err != nil {
		log.Warnf("close line reader: %v", err)
	}
	if runErr != nil {
		return runErr
	}
	printExitSummary(os.Stdout, sessionID, a.engine.History(sessionID))
	return nil
}

func terminalWidth() (int, bool) {
	fd := int(os.Stdout.Fd())
	if !term.IsTerminal(fd) {
		return defaultWidth, false
	}
	width, _, err := term.GetSize(fd)
	if err != nil || width <= 0 {
		return defaultWidth, true
	}
	return width, true
}

func printExitSummary(out io.Writer, sessionID string, msgs []agent.Message) {
	if sessionID == "" || len(msgs) == 0 {
		return
	}
	if usage := conversation.EstimateUsage(msgs); usage.Total() > 0 {
		fmt.Fprintf(out, "Token usage (approx): total=%d input=%d output=%d\n", usage.Total(), usage.Input, usage.Output)
	}
	fmt.Fprintf(out, "To continue this session, run %s resume %s\n", binaryName, sessionID)
}

func resumeMain(root rootArgs, args []string) {
	fs, cli := newCommonFlagSet("resume")
	var sessionID string
	var resumeLast bool
	fs.StringVar(&sessionID, "session", "", "Session id to resume")
	fs.BoolVar(&resumeLast, "last", false, "Resume most recent session")
	if err := fs.Parse(args); err != nil {
		exitf("parse resume args: %v", err)
	}
	if sessionID == "" && fs.NArg() > 0 {
		sessionID = fs.Arg(0)
	}
	overrides, err := cli.overrides(root)
	if err != nil {
		exitf("%v", err)
	}
	if sessionID == "" && !resumeLast {
		exitf("resume needs a session id or --last (see `%s sessions`)", binaryName)
	}
	if !resumeLast {
		if err := session.CheckID(sessionID); err != nil {
			exitf("resume: %v", err)
		}
	}
	if resumeLast {
		cfg, err := loadConfig(cli.cfgPath, overrides)
		if err != nil {
			exitf("%v", err)
		}
		sessionID, err = lastSessionID(cfg)
		if err != nil {
			exitf("%v", err)
		}
	}
	if err := runChat(cli.cfgPath, overrides, sessionID, true); err != nil {
		exitf("%v", err)
	}
}

func sessionsMain(root rootArgs, args []string) {
	if err := runSessions(root, args, os.Stdout); err != nil {
		exitf("%v", err)
	}
}

func askMain(root rootArgs, args []string) {
	if err := runAsk(context.Background(), root, args, os.Stdout); err != nil {
		exitf("%v", err)
	}
}

func pingMain(root rootArgs, args []string) {
	if err := runPing(root, args, os.Stdout); err != nil {
		exitf("ping failed: %v", err)
	}
}

var errNoSessions = errors.New("no saved sessions")
