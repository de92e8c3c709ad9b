package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

func init() {
	// +tag/-tag arguments after the citekey must not parse as flags
	tagCmd.Flags().SetInterspersed(false)
	rootCmd.AddCommand(tagCmd)
}

var tagCmd = &cobra.Command{
	Use:   "tag <citekey> [+tag|-tag...]",
	Short: "Show, add or remove a paper's tags",
	Long: `Show, add or remove a paper's tags.

Arguments starting with + add a tag and arguments starting with - remove
one. A bare argument adds a tag. With no tag arguments the current tags
are shown.

Examples:
  pap tag Doe2021
  pap tag Doe2021 +ml +reading
  pap tag Doe2021 -reading`,
	Args: cobra.MinimumNArgs(1),
	RunE: runTag,
}

// TagResponse is the response for the tag command.
type TagResponse struct {
	Citekey string   `json:"citekey"`
	Tags    []string `json:"tags"`
}

// parseTagArgs splits +tag/-tag arguments into tags to add and remove.
func parseTagArgs(args []string) (added, removed []string, err error) {
	for _, arg := range args {
		var tag string
		switch {
		case strings.HasPrefix(arg, "+"):
			tag = strings.TrimSpace(arg[1:])
			added = append(added, tag)
		case strings.HasPrefix(arg, "-"):
			tag = strings.TrimSpace(arg[1:])
			removed = append(removed, tag)
		default:
			tag = strings.TrimSpace(arg)
			added = append(added, tag)
		}
		if tag == "" {
			return nil, nil, fmt.Errorf("empty tag in %q", arg)
		}
	}
	return added, removed, nil
}

func runTag(cmd *cobra.Command, args []string) (err error) {
	added, removed, err := parseTagArgs(args[1:])
	if err != nil {
		return err
	}

	repo := mustOpenRepository()
	defer closeRepository(repo, &err)

	p, err := repo.Paper(args[0])
	if err != nil {
		return err
	}
	if len(added)+len(removed) > 0 {
		p.AddTags(added...)
		p.RemoveTags(removed...)
		if err := repo.UpdatePaper(p); err != nil {
			return fmt.Errorf("saving %s: %w", p.Citekey, err)
		}
	}

	resp := TagResponse{Citekey: p.Citekey, Tags: p.Metadata.Tags.Sorted()}
	if humanOutput {
		outputHuman("%s: %s\n", resp.Citekey, joinTags(resp.Tags))
		return nil
	}
	return outputJSON(resp)
}
