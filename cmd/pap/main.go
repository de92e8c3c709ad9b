// Package main provides the pap CLI entry point.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/matsen/papyrus/internal/config"
	"github.com/matsen/papyrus/internal/repository"
	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags
var Version = "dev"

// humanOutput controls whether to use human-readable output
var humanOutput bool

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		exitWithError(exitCodeFor(err), "%v", err)
	}
}

var rootCmd = &cobra.Command{
	Use:   "pap",
	Short: "Personal bibliography manager",
	Long: `pap keeps a bibliography as plain files: one BibTeX entry and one
metadata file per paper, plus the attached documents.

Papers are added from a BibTeX file, a DOI, an ISBN or an editor session.
A SQLite index over the files serves list and search and can be rebuilt
at any time. All commands output JSON by default.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	// .env may set PAPYRUS_ROOT or PAPYRUS_CONTACT_EMAIL
	_ = godotenv.Load()

	rootCmd.PersistentFlags().BoolVar(&humanOutput, "human", false, "Use human-readable output instead of JSON")
	rootCmd.Version = Version
}

// mustFindRepository resolves the repository root, exits on error.
func mustFindRepository() string {
	cwd, err := os.Getwd()
	if err != nil {
		exitWithError(ExitError, "getting current directory: %v", err)
	}
	root, err := config.ResolveRoot(cwd)
	if err != nil {
		exitWithError(ExitConfigError, "%v\n  Hint: run 'pap init' or set %s", err, config.EnvRoot)
	}
	return root
}

// mustOpenRepository opens and locks the repository, exits on error.
// The caller is responsible for calling Close() on the returned repository.
func mustOpenRepository() *repository.Repository {
	repo, err := repository.Open(mustFindRepository())
	if err != nil {
		exitWithError(exitCodeFor(err), "opening repository: %v", err)
	}
	return repo
}

// closeRepository closes repo and folds the close error into err.
func closeRepository(repo *repository.Repository, err *error) {
	if cerr := repo.Close(); cerr != nil && *err == nil {
		*err = fmt.Errorf("closing repository: %w", cerr)
	}
}
