package main

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

func runConfigCommand(args []string) error {
	subCmd := "show"
	if len(args) > 0 {
		subCmd = args[0]
	}

	switch subCmd {
	case "check":
		if _, err := loadConfig(); err != nil {
			return err
		}
		fmt.Fprintln(stdout, "configuration ok")
		return nil
	case "show":
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return err
		}
		_, err = stdout.Write(data)
		return err
	case "path":
		return runConfigPath()
	default:
		return usageError(fmt.Sprintf("unknown config command: %s (use check, show, or path)", subCmd))
	}
}

func runConfigPath() error {
	candidates := []string{}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".scribe", "config.yaml"))
	}
	candidates = append(candidates, filepath.Join(".", ".scribe", "config.yaml"))
	if globals.configPath != "" {
		candidates = append(candidates, globals.configPath)
	}
	for _, p := range candidates {
		state := "missing"
		if _, err := os.Stat(p); err == nil {
			state = "found"
		}
		fmt.Fprintf(stdout, "%-8s %s\n", state, p)
	}
	return nil
}
