package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"flowd/internal/domain/funnel"
	"flowd/internal/domain/task"
)

func triageCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "triage",
		Short: "Run the four-stage inbox funnel",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(func(a *app) error {
				sess, err := a.funnel.Start(cmd.Context())
				if err != nil {
					return err
				}
				if sess.Len() == 0 {
					fmt.Println("inbox is empty, nothing to triage")
					return nil
				}
				fmt.Printf("triaging %d items\n", sess.Len())

				in := bufio.NewScanner(os.Stdin)
				if err := runDedupStage(cmd.Context(), sess, in); err != nil {
					return err
				}
				if err := runClusterStage(cmd.Context(), sess, in); err != nil {
					return err
				}
				if err := runQuickWinStage(cmd.Context(), sess, in); err != nil {
					return err
				}
				return runCoachStage(cmd.Context(), sess, in, a)
			})
		},
	}
}

func prompt(in *bufio.Scanner, text string) string {
	fmt.Print(text)
	if !in.Scan() {
		return ""
	}
	return strings.TrimSpace(in.Text())
}

func runDedupStage(ctx context.Context, sess *funnel.Session, in *bufio.Scanner) error {
	fmt.Println("\n-- duplicates --")
	for {
		pair := sess.DedupPair(ctx)
		if pair == nil {
			return nil
		}
		fmt.Printf("A: %s\nB: %s\n", pair.A.Title, pair.B.Title)
		if pair.Judged && pair.LikelyDuplicate {
			fmt.Println("(these look like duplicates)")
		}
		switch prompt(in, "[m]erge into A, [b]oth stay, [q]uit stage: ") {
		case "m":
			if err := sess.DedupMerge(ctx, pair.A.ID, pair.B.ID); err != nil {
				return err
			}
		case "q":
			return nil
		default:
			sess.DedupKeepBoth()
		}
	}
}

func runClusterStage(ctx context.Context, sess *funnel.Session, in *bufio.Scanner) error {
	clusters := sess.ClusterSuggestions(ctx)
	if len(clusters) == 0 {
		return nil
	}
	fmt.Println("\n-- project suggestions --")
	for _, c := range clusters {
		fmt.Printf("%s (%d items)\n", c.Name, len(c.ItemIDs))
		if prompt(in, "[a]ccept, [s]kip: ") != "a" {
			continue
		}
		proj, err := sess.AcceptCluster(ctx, c)
		if err != nil {
			return err
		}
		fmt.Printf("created project %s\n", proj.ID)
	}
	return nil
}

func runQuickWinStage(ctx context.Context, sess *funnel.Session, in *bufio.Scanner) error {
	fmt.Println("\n-- quick wins --")
	for {
		cur := sess.TwoMinuteCurrent()
		if cur == nil {
			return nil
		}
		fmt.Printf("task: %s\n", cur.Title)
		switch prompt(in, "[d]one now, [x] delete, [w]aiting, [l]ater date, [s]kip, [q]uit stage: ") {
		case "d":
			if err := sess.TwoMinuteDoNow(ctx); err != nil {
				return err
			}
		case "x":
			if err := sess.TwoMinuteDelete(ctx); err != nil {
				return err
			}
		case "w":
			if err := sess.TwoMinuteDefer(ctx, task.DeferWaiting, nil); err != nil {
				return err
			}
		case "l":
			raw := prompt(in, "until (tomorrow, next week, YYYY-MM-DD): ")
			until, ok := task.ParseDeferInput(raw, time.Now())
			if !ok {
				fmt.Println("cannot parse that, skipping")
				sess.TwoMinuteAdvance()
				continue
			}
			if err := sess.TwoMinuteDefer(ctx, task.DeferUntil, &until); err != nil {
				return err
			}
		case "q":
			return nil
		default:
			sess.TwoMinuteAdvance()
		}
	}
}

func runCoachStage(ctx context.Context, sess *funnel.Session, in *bufio.Scanner, a *app) error {
	fmt.Println("\n-- next-action coaching --")
	for {
		cur := sess.CoachCurrent()
		if cur == nil {
			fmt.Println("\ntriage complete")
			return nil
		}
		fmt.Printf("task: %s\n", cur.Title)
		suggestion := ""
		if a.hasLLM {
			suggestion = sess.CoachSuggest(ctx)
		}
		if suggestion != "" {
			fmt.Printf("suggested: %s\n", suggestion)
		}
		switch prompt(in, "[a]ccept suggestion, [e]dit, [k]eep as is, [q]uit: ") {
		case "a":
			if suggestion == "" {
				sess.CoachAdvance()
				continue
			}
			if err := sess.CoachApplySuggestion(ctx, cur.ID, suggestion); err != nil {
				return err
			}
		case "e":
			phrase := prompt(in, "new title: ")
			if err := sess.CoachApplySuggestion(ctx, cur.ID, phrase); err != nil {
				fmt.Println("title cannot be empty")
				continue
			}
		case "q":
			return nil
		default:
			sess.CoachAdvance()
		}
	}
}
