package main

import (
	"strings"

	"github.com/matsen/papyrus/internal/config"
	"github.com/spf13/cobra"
)

func init() {
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show, get or set repository configuration",
	Long: `Show, get or set repository configuration (.papyrus/config.json).

Usage:
  pap config                        # Show all config
  pap config get doc_add            # Get one value
  pap config set doc_add copy       # Set one value

Keys:
  doc_add             Document placement for add and import (copy, move, link)
  pdf_reader          Viewer for open (system, skim, zathura, evince, okular)
  editor              Editor for add without a source (default $VISUAL, $EDITOR)
  git_autocommit      Commit changes to git after each command (true, false)
  raw_embedded_paths  Use file field paths exactly as written (true, false)
  contact_email       Email sent with DOI/ISBN lookups`,
	Args: cobra.NoArgs,
	RunE: runConfigShow,
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a configuration value",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigGet,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE:  runConfigSet,
}

// normalizeKey accepts dashed spellings such as pdf-reader.
func normalizeKey(key string) string {
	return strings.ReplaceAll(strings.ToLower(key), "-", "_")
}

// mustLoadConfig loads configuration, exits on error.
func mustLoadConfig(root string) *config.Config {
	cfg, err := config.Load(root)
	if err != nil {
		exitWithError(ExitConfigError, "loading config: %v", err)
	}
	return cfg
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig(mustFindRepository())

	values := make(map[string]string)
	for _, key := range config.Keys() {
		v, err := cfg.Get(key)
		if err != nil {
			return err
		}
		values[key] = v
	}

	if humanOutput {
		for _, key := range config.Keys() {
			outputHuman("%-19s %s\n", key+":", values[key])
		}
		return nil
	}
	return outputJSON(values)
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig(mustFindRepository())

	key := normalizeKey(args[0])
	v, err := cfg.Get(key)
	if err != nil {
		return err
	}
	if humanOutput {
		outputHuman("%s\n", v)
		return nil
	}
	return outputJSON(map[string]string{key: v})
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	root := mustFindRepository()
	cfg := mustLoadConfig(root)

	key := normalizeKey(args[0])
	if err := cfg.Set(key, args[1]); err != nil {
		return err
	}
	if err := cfg.Save(root); err != nil {
		return err
	}

	if humanOutput {
		outputHuman("Set %s = %s\n", key, args[1])
		return nil
	}
	return outputJSON(map[string]string{"status": "updated", "key": key, "value": args[1]})
}
