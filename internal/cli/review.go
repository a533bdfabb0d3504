package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/Paul-Clue/code-review-agent/internal/cache"
	"github.com/Paul-Clue/code-review-agent/internal/config"
	"github.com/Paul-Clue/code-review-agent/internal/gitctx"
	"github.com/Paul-Clue/code-review-agent/internal/github"
	"github.com/Paul-Clue/code-review-agent/internal/llm"
	"github.com/Paul-Clue/code-review-agent/internal/output"
	"github.com/Paul-Clue/code-review-agent/internal/review"
	"github.com/Paul-Clue/code-review-agent/internal/syntax"
)

// Shared review flags
var (
	flagProvider    string
	flagModel       string
	flagFixModel    string
	flagFormat      string
	flagOut         string
	flagTokenBudget int
	flagNoFixes     bool
	flagNoRedact    bool
	flagNoCache     bool
)

func addReviewFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&flagProvider, "provider", "", "LLM provider (anthropic, openai, ollama)")
	cmd.Flags().StringVar(&flagModel, "model", "", "Model name")
	cmd.Flags().StringVar(&flagFixModel, "fix-model", "", "Model name for inline fix generation")
	cmd.Flags().StringVar(&flagFormat, "format", "", "Output format (text, json, markdown)")
	cmd.Flags().StringVar(&flagOut, "out", "", "Output file path (default: stdout)")
	cmd.Flags().IntVar(&flagTokenBudget, "token-budget", 0, "Conversation token budget per model call")
	cmd.Flags().BoolVar(&flagNoFixes, "no-fixes", false, "Disable inline fix generation")
	cmd.Flags().BoolVar(&flagNoRedact, "no-redact", false, "Disable secret redaction (use with caution)")
	cmd.Flags().BoolVar(&flagNoCache, "no-cache", false, "Bypass the response cache")
}

func buildOverrides() map[string]string {
	m := make(map[string]string)
	if flagProvider != "" {
		m["provider"] = flagProvider
	}
	if flagModel != "" {
		m["model"] = flagModel
	}
	if flagFixModel != "" {
		m["fixModel"] = flagFixModel
	}
	if flagFormat != "" {
		m["format"] = flagFormat
	}
	if flagTokenBudget > 0 {
		m["tokenBudget"] = fmt.Sprintf("%d", flagTokenBudget)
	}
	if flagNoFixes {
		m["inlineFixes"] = "false"
	}
	return m
}

// buildOptions assembles engine options from config: model clients, response
// cache, and the syntax scope lookup. The returned cleanup closes resources.
func buildOptions(cfg config.Config) (review.Options, func(), error) {
	client, err := llm.New(cfg.Provider, cfg.Model)
	if err != nil {
		return review.Options{}, nil, err
	}

	fixClient := client
	if cfg.FixModel != "" && cfg.FixModel != cfg.Model {
		fixClient, err = llm.New(cfg.Provider, cfg.FixModel)
		if err != nil {
			return review.Options{}, nil, err
		}
	}

	cacheEnabled := cfg.Cache.Enabled && !flagNoCache
	respCache, err := cache.Open(cacheEnabled, cfg.Cache.Path, cfg.Cache.TTLSeconds)
	if err != nil {
		return review.Options{}, nil, fmt.Errorf("opening cache: %w", err)
	}

	var scope review.ScopeLookup
	lookup, err := syntax.NewLookup()
	if err != nil {
		slog.Warn("syntax lookup unavailable, falling back to line windows", "error", err)
	} else {
		scope = lookup
	}

	cleanup := func() {
		_ = respCache.Close()
		if lookup != nil {
			lookup.Close()
		}
	}

	opts := review.Options{
		Client:        client,
		FixClient:     fixClient,
		Budget:        cfg.TokenBudget,
		MaxLinkLength: cfg.MaxLinkLength,
		InlineFixes:   cfg.InlineFixes,
		RedactSecrets: cfg.Privacy.RedactSecrets && !flagNoRedact,
		RedactPaths:   cfg.Privacy.RedactPaths,
		Cache:         respCache,
		Scope:         scope,
		Logger:        slog.Default(),
	}
	return opts, cleanup, nil
}

func runReview(files []*review.ChangedFile, cfg config.Config) *review.Result {
	if flagNoRedact {
		fmt.Fprintln(os.Stderr, "WARNING: secret redaction is disabled")
	}

	opts, cleanup, err := buildOptions(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		exitCode = ExitRuntimeError
		return nil
	}
	defer cleanup()

	ctx := context.Background()
	result, err := review.Run(ctx, files, opts)
	if err != nil {
		if llm.IsAuthError(err) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitCode = ExitAuthError
			return nil
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		exitCode = ExitRuntimeError
		return nil
	}

	if err := output.WriteResult(result, cfg.Format, flagOut); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing output: %v\n", err)
		exitCode = ExitRuntimeError
		return nil
	}

	if !result.Empty() {
		exitCode = ExitFindings
	}
	return result
}

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Review code changes",
	Long:  "Review code changes with an LLM provider. Use subcommands to specify what to review.",
}

var reviewUnstagedCmd = &cobra.Command{
	Use:   "unstaged",
	Short: "Review unstaged changes (working tree vs index)",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(buildOverrides())
		if err != nil {
			return err
		}
		files, err := gitctx.Unstaged()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitCode = ExitRuntimeError
			return nil
		}
		runReview(files, cfg)
		return nil
	},
}

var reviewStagedCmd = &cobra.Command{
	Use:   "staged",
	Short: "Review staged changes (index vs HEAD)",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(buildOverrides())
		if err != nil {
			return err
		}
		files, err := gitctx.Staged()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitCode = ExitRuntimeError
			return nil
		}
		runReview(files, cfg)
		return nil
	},
}

var reviewCommitCmd = &cobra.Command{
	Use:   "commit <sha>",
	Short: "Review a specific commit",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(buildOverrides())
		if err != nil {
			return err
		}
		files, err := gitctx.Commit(args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitCode = ExitRuntimeError
			return nil
		}
		runReview(files, cfg)
		return nil
	},
}

var (
	flagPROwner  string
	flagPRRepo   string
	flagPRDryRun bool
)

var reviewPRCmd = &cobra.Command{
	Use:   "pr <pr-number>",
	Short: "Review a GitHub pull request",
	Long:  "Fetch the changed files of a PR from GitHub, run review, and post the result back as a PR review with inline fix suggestions.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		prNumber, err := strconv.Atoi(args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: invalid PR number %q\n", args[0])
			exitCode = ExitUsageError
			return nil
		}

		cfg, err := config.Load(buildOverrides())
		if err != nil {
			return err
		}

		owner, repo := flagPROwner, flagPRRepo
		if owner == "" || repo == "" {
			detectedOwner, detectedRepo, err := github.DetectRepo()
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\nUse --owner and --repo flags to specify manually.\n", err)
				exitCode = ExitRuntimeError
				return nil
			}
			if owner == "" {
				owner = detectedOwner
			}
			if repo == "" {
				repo = detectedRepo
			}
		}

		ghClient, err := github.NewClient()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitCode = ExitAuthError
			return nil
		}

		ctx := context.Background()

		fmt.Fprintf(os.Stderr, "Fetching PR #%d from %s/%s...\n", prNumber, owner, repo)
		files, err := ghClient.GetPRFiles(ctx, owner, repo, prNumber)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			exitCode = ExitRuntimeError
			return nil
		}
		if len(files) == 0 {
			fmt.Fprintln(os.Stdout, "PR has no changed files — nothing to review.")
			return nil
		}

		result := runReview(files, cfg)
		if result == nil {
			return nil
		}

		if flagPRDryRun {
			fmt.Fprintf(os.Stderr, "Dry run: %d fix(es) proposed, not posting to GitHub.\n", len(result.Fixes))
			return nil
		}
		if result.Empty() {
			fmt.Fprintln(os.Stderr, "Nothing to post.")
			return nil
		}

		ghReview := github.BuildReviewRequest(result)
		fmt.Fprintf(os.Stderr, "Posting review (%d inline suggestions)...\n", len(ghReview.Comments))
		if err := ghClient.PostReview(ctx, owner, repo, prNumber, ghReview); err != nil {
			fmt.Fprintf(os.Stderr, "Error posting review: %v\n", err)
			exitCode = ExitRuntimeError
			return nil
		}
		fmt.Fprintf(os.Stderr, "Review posted to PR #%d.\n", prNumber)
		return nil
	},
}

func init() {
	reviewCmd.AddCommand(reviewUnstagedCmd)
	reviewCmd.AddCommand(reviewStagedCmd)
	reviewCmd.AddCommand(reviewCommitCmd)
	reviewCmd.AddCommand(reviewPRCmd)

	for _, cmd := range []*cobra.Command{
		reviewUnstagedCmd,
		reviewStagedCmd,
		reviewCommitCmd,
		reviewPRCmd,
	} {
		addReviewFlags(cmd)
	}

	reviewPRCmd.Flags().StringVar(&flagPROwner, "owner", "", "GitHub repository owner (auto-detected if omitted)")
	reviewPRCmd.Flags().StringVar(&flagPRRepo, "repo", "", "GitHub repository name (auto-detected if omitted)")
	reviewPRCmd.Flags().BoolVar(&flagPRDryRun, "dry-run", false, "Run review but don't post to GitHub")
}
