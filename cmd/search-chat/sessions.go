package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"search-chat/internal/config"
	"search-chat/internal/session"

	"github.com/mattn/go-runewidth"
)

const previewWidth = 48

func runSessions(root rootArgs, args []string, out io.Writer) error {
	fs, cli := newCommonFlagSet("sessions")
	var limit int
	fs.IntVar(&limit, "n", 20, "Number of sessions to list (0 = all)")
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("parse sessions args: %w", err)
	}
	overrides, err := cli.overrides(root)
	if err != nil {
		return err
	}
	cfg, err := loadConfig(cli.cfgPath, overrides)
	if err != nil {
		return err
	}
	store, closer, err := buildStore(cfg)
	if err != nil {
		return err
	}
	if closer != nil {
		defer closer.Close()
	}
	records, err := store.List()
	if err != nil {
		return fmt.Errorf("list sessions: %w", err)
	}
	if len(records) == 0 {
		fmt.Fprintln(out, "no saved sessions")
		return nil
	}
	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}
	for _, rec := range records {
		fmt.Fprintln(out, formatSessionLine(rec))
	}
	return nil
}

func formatSessionLine(rec session.Record) string {
	preview := strings.ReplaceAll(rec.Preview(), "\n", " ")
	if preview == "" {
		preview = "(empty)"
	}
	return fmt.Sprintf("%s  %s  %3d msgs  %s",
		rec.ID,
		rec.Updated.Local().Format("2006-01-02 15:04"),
		len(rec.Messages),
		runewidth.Truncate(preview, previewWidth, "…"),
	)
}

func lastSessionID(cfg config.Config) (string, error) {
	store, closer, err := buildStore(cfg)
	if err != nil {
		return "", err
	}
	if closer != nil {
		defer closer.Close()
	}
	rec, err := session.Last(store)
	if errors.Is(err, session.ErrNotFound) {
		return "", errNoSessions
	}
	if err != nil {
		return "", err
	}
	return rec.ID, nil
}
