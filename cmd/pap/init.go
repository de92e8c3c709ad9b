package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/matsen/papyrus/internal/config"
	"github.com/matsen/papyrus/internal/git"
	"github.com/matsen/papyrus/internal/repository"
	"github.com/spf13/cobra"
)

var (
	initGit    bool
	initDocAdd string
)

func init() {
	initCmd.Flags().BoolVar(&initGit, "git", false, "Track the repository with git and commit changes automatically")
	initCmd.Flags().StringVarP(&initDocAdd, "doc-add", "M", config.DocAddLink, "Default document placement (copy, move, link)")
	rootCmd.AddCommand(initCmd)
}

var initCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Create a new papyrus repository",
	Long: `Create a new papyrus repository in path (default: current directory).

Examples:
  pap init
  pap init ~/papers --git -M copy`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

func runInit(cmd *cobra.Command, args []string) error {
	root := "."
	if len(args) == 1 {
		root = config.ExpandPath(args[0])
	}
	root, err := filepath.Abs(root)
	if err != nil {
		return fmt.Errorf("resolving path: %w", err)
	}
	if err := config.ValidateDocAdd(initDocAdd); err != nil {
		return err
	}

	cfg := config.Default()
	cfg.DocAdd = initDocAdd
	cfg.GitAutocommit = initGit

	if err := os.MkdirAll(root, 0755); err != nil {
		return fmt.Errorf("creating %s: %w", root, err)
	}
	if initGit && !git.IsGitRepo(root) {
		if err := git.Init(root); err != nil {
			return err
		}
	}
	if err := repository.Init(root, cfg); err != nil {
		return err
	}

	if humanOutput {
		outputHuman("Initialized papyrus repository in %s\n", root)
		return nil
	}
	return outputJSON(StatusResponse{Status: "initialized", Path: root})
}
