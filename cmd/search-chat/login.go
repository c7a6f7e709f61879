package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"search-chat/internal/config"

	"golang.org/x/term"
)

// loginMain 把 token 写入配置文件；--search 写入 Tavily key。
func loginMain(root rootArgs, args []string) {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	var cfgPath string
	var withAPIKey bool
	var search bool
	fs.StringVar(&cfgPath, "config", "", "Path to config file (default ~/.search-chat/config.toml)")
	fs.BoolVar(&withAPIKey, "with-api-key", false, "Read the key from stdin")
	fs.BoolVar(&search, "search", false, "Store the Tavily search key instead of the model token")
	if err := fs.Parse(args); err != nil {
		exitf("parse login args: %v", err)
	}
	if len(fs.Args()) > 0 && fs.Arg(0) == "status" {
		cfg, err := config.Load(cfgPath)
		if err != nil {
			exitf("load config: %v", err)
		}
		fmt.Println(loginStatus(cfg))
		return
	}

	var key string
	if withAPIKey {
		key = readKey(os.Stdin)
	} else {
		key = promptKey(search)
	}
	if key == "" {
		exitf("empty key")
	}
	if err := storeKey(cfgPath, key, search); err != nil {
		exitf("save key: %v", err)
	}
	fmt.Println("Key saved.")
}

func logoutMain(root rootArgs, args []string) {
	fs := flag.NewFlagSet("logout", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	var cfgPath string
	fs.StringVar(&cfgPath, "config", "", "Path to config file (default ~/.search-chat/config.toml)")
	if err := fs.Parse(args); err != nil {
		exitf("parse logout args: %v", err)
	}
	if err := clearKeys(cfgPath); err != nil {
		exitf("clear keys: %v", err)
	}
	fmt.Println("Logged out and cleared stored keys.")
}

func storeKey(cfgPath, key string, search bool) error {
	cfg, err := config.LoadFile(cfgPath)
	if err != nil {
		return err
	}
	if search {
		cfg.Search.APIKey = key
	} else {
		cfg.Token = key
	}
	return config.Save(cfg.Source, cfg)
}

func clearKeys(cfgPath string) error {
	cfg, err := config.LoadFile(cfgPath)
	if err != nil {
		return err
	}
	cfg.Token = ""
	cfg.Search.APIKey = ""
	return config.Save(cfg.Source, cfg)
}

func loginStatus(cfg config.Config) string {
	model := "no model token"
	if strings.TrimSpace(cfg.Token) != "" {
		model = "model token configured (" + cfg.Provider + ")"
	}
	search := "no search key"
	if strings.TrimSpace(cfg.Search.APIKey) != "" {
		search = "search key configured"
	}
	return model + ", " + search
}

func readKey(r io.Reader) string {
	scanner := bufio.NewScanner(r)
	if scanner.Scan() {
		return strings.TrimSpace(scanner.Text())
	}
	return ""
}

func promptKey(search bool) string {
	label := "Model API key: "
	if search {
		label = "Tavily API key: "
	}
	fmt.Print(label)
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return readKey(os.Stdin)
	}
	data, err := term.ReadPassword(fd)
	fmt.Println()
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}
