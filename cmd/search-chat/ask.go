package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
)

// runAsk 执行一次非交互回合并输出答案，会话照常保存。
func runAsk(ctx context.Context, root rootArgs, args []string, out io.Writer) error {
	fs, cli := newCommonFlagSet("ask")
	var sessionID string
	fs.StringVar(&sessionID, "session", "", "Session id to continue (default: a new session)")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parse ask args: %w", err)
	}
	question := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if question == "" || question == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
		question = strings.TrimSpace(string(data))
	}
	if question == "" {
		return errors.New("ask needs a question (argument or stdin)")
	}
	overrides, err := cli.overrides(root)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(cli.cfgPath, overrides)
	if err != nil {
		return err
	}
	sessionID, err = sessionIDArg(sessionID)
	if err != nil {
		return err
	}
	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()
	answer, err := a.engine.ProcessTurn(ctx, sessionID, question)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, answer)
	log.WithField("session_id", sessionID).Info("ask completed")
	return nil
}
