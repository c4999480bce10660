// Command sideline is the operator CLI.
//
// Usage:
//
//	sideline scrape --team 5f2c...
//	sideline scrape-org --org 9a41...
//	sideline reconcile lives [--team 5f2c...]
//	sideline reconcile replays
//	sideline permanent-live --team 5f2c...
//	sideline match --camera cam-1 --start 2025-12-05T18:55:00Z
//	sideline encrypt-password --sniffer s1 --username coach --password-stdin
//	sideline gen-key
//	sideline video channels --sniffer s1
//	sideline video rename --sniffer s1 --video 8c1e... --name "..."
package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/albapepper/sideline/internal/app"
	"github.com/albapepper/sideline/internal/config"
	"github.com/albapepper/sideline/internal/matcher"
	"github.com/albapepper/sideline/internal/model"
	"github.com/albapepper/sideline/internal/secret"
	"github.com/albapepper/sideline/internal/store"
	"github.com/albapepper/sideline/internal/video"
)

var (
	logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	memory bool
)

func main() {
	// Load .env if present
	_ = godotenv.Load(".env")

	root := &cobra.Command{
		Use:           "sideline",
		Short:         "Sideline operator CLI",
		SilenceUsage:  true,
	}
	root.PersistentFlags().BoolVar(&memory, "memory", false, "use the in-memory store instead of Postgres")

	root.AddCommand(scrapeCmd())
	root.AddCommand(scrapeOrgCmd())
	root.AddCommand(reconcileCmd())
	root.AddCommand(permanentLiveCmd())
	root.AddCommand(matchCmd())
	root.AddCommand(encryptPasswordCmd())
	root.AddCommand(genKeyCmd())
	root.AddCommand(videoCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// --------------------------------------------------------------------------
// scrape commands
// --------------------------------------------------------------------------

func scrapeCmd() *cobra.Command {
	var teamID, caller string
	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Refresh one team's schedule from the schedule provider",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(func(ctx context.Context, a *app.App) error {
				sched, err := a.Scraper.RefreshTeam(ctx, caller, teamID)
				if err != nil {
					return err
				}
				for _, g := range sched.Games {
					logger.Info("Game",
						"id", g.ID,
						"start", g.StartTime.Format(time.RFC3339),
						"home_away", g.HomeAway,
						"title", g.Title,
						"played", g.Played())
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&teamID, "team", "", "Team id")
	cmd.Flags().StringVar(&caller, "caller", "", "Caller key charged for the requests (empty for internal)")
	_ = cmd.MarkFlagRequired("team")
	return cmd
}

func scrapeOrgCmd() *cobra.Command {
	var orgID string
	cmd := &cobra.Command{
		Use:   "scrape-org",
		Short: "Refresh every team on an organization's roster",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(func(ctx context.Context, a *app.App) error {
				start := time.Now()
				result, err := a.Scraper.RefreshOrganization(ctx, "", orgID)
				if err != nil {
					return err
				}
				logger.Info("Organization refresh finished",
					"duration", time.Since(start).Round(time.Second), "summary", result.Summary())
				for _, e := range result.Errors {
					logger.Error("refresh error", "error", e)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&orgID, "org", "", "Organization id")
	_ = cmd.MarkFlagRequired("org")
	return cmd
}

// --------------------------------------------------------------------------
// reconcile commands
// --------------------------------------------------------------------------

func reconcileCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Reconcile video platform state with cached schedules",
	}
	cmd.AddCommand(reconcileLivesCmd())
	cmd.AddCommand(reconcileReplaysCmd())
	return cmd
}

func reconcileLivesCmd() *cobra.Command {
	var teamID string
	cmd := &cobra.Command{
		Use:   "lives",
		Short: "Create scheduled lives for upcoming home games",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(func(ctx context.Context, a *app.App) error {
				if teamID != "" {
					t, err := a.Lives.RunTeam(ctx, teamID)
					if err != nil {
						return err
					}
					logger.Info("Team reconciled",
						"team", t.TeamID, "status", t.Status, "reason", t.Reason,
						"created", t.Created, "existing", t.Existing, "repaired", t.Repaired,
						"skipped", t.Skipped(), "failed", t.Failed)
					for _, e := range t.Errors {
						logger.Error("reconcile error", "error", e)
					}
					return nil
				}
				result, err := a.Lives.Run(ctx)
				if err != nil {
					return err
				}
				for _, t := range result.Teams {
					for _, e := range t.Errors {
						logger.Error("reconcile error", "team", t.TeamID, "error", e)
					}
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&teamID, "team", "", "Reconcile only this team")
	return cmd
}

func reconcileReplaysCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "replays",
		Short: "File recent replays into season playlists",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(func(ctx context.Context, a *app.App) error {
				result, err := a.Replays.Run(ctx)
				if err != nil {
					return err
				}
				for _, t := range result.Teams {
					for _, e := range t.Errors {
						logger.Error("replay error", "team", t.TeamID, "error", e)
					}
				}
				return nil
			})
		},
	}
}

func permanentLiveCmd() *cobra.Command {
	var teamID string
	cmd := &cobra.Command{
		Use:   "permanent-live",
		Short: "Create or verify a team's permanent live and season playlist",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(func(ctx context.Context, a *app.App) error {
				live, err := a.Permanent.Ensure(ctx, teamID)
				if err != nil {
					return err
				}
				logger.Info("Permanent live ready",
					"team", live.TeamID,
					"video", live.VideoID,
					"created", live.Created,
					"rtmp_url", live.RTMPURL,
					"playlist", live.PlaylistID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&teamID, "team", "", "Team id")
	_ = cmd.MarkFlagRequired("team")
	return cmd
}

// --------------------------------------------------------------------------
// match command
// --------------------------------------------------------------------------

func matchCmd() *cobra.Command {
	var cameraID, start, caller string
	var window time.Duration
	cmd := &cobra.Command{
		Use:   "match",
		Short: "Match a recording start time to a cached game",
		RunE: func(cmd *cobra.Command, args []string) error {
			at, err := time.Parse(time.RFC3339, start)
			if err != nil {
				return fmt.Errorf("parse --start: %w", err)
			}
			return run(func(ctx context.Context, a *app.App) error {
				m := a.Matcher
				if window > 0 {
					m = matcher.New(a.Store, a.Scraper, window, logger)
				}
				res, err := m.MatchRecording(ctx, caller, cameraID, at)
				if err != nil {
					return err
				}
				if !res.Matched() {
					logger.Info("No match",
						"fallback", res.Fallback,
						"refreshed", res.Refreshed,
						"out_of_season", res.OutOfSeason,
						"reason", res.Reason)
					for _, e := range res.Errors {
						logger.Error("refresh error", "error", e)
					}
					return nil
				}
				logger.Info("Matched",
					"team", res.Hit.TeamID,
					"game", res.Hit.Game.ID,
					"title", res.Hit.Game.Title,
					"delta", res.Hit.Delta,
					"fallback", res.Fallback)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&cameraID, "camera", "", "Camera id")
	cmd.Flags().StringVar(&start, "start", "", "Recording start (RFC3339)")
	cmd.Flags().StringVar(&caller, "caller", "", "Sniffer charged for fallback refreshes")
	cmd.Flags().DurationVar(&window, "window", 0, "Match tolerance (default MATCH_WINDOW_MINUTES)")
	_ = cmd.MarkFlagRequired("camera")
	_ = cmd.MarkFlagRequired("start")
	return cmd
}

// --------------------------------------------------------------------------
// credential commands
// --------------------------------------------------------------------------

func encryptPasswordCmd() *cobra.Command {
	var snifferID, username, password string
	var fromStdin bool
	cmd := &cobra.Command{
		Use:   "encrypt-password",
		Short: "Store a sniffer's video platform password, encrypted",
		RunE: func(cmd *cobra.Command, args []string) error {
			if fromStdin {
				line, err := bufio.NewReader(os.Stdin).ReadString('\n')
				if err != nil && line == "" {
					return fmt.Errorf("read password: %w", err)
				}
				password = strings.TrimRight(line, "\r\n")
			}
			if password == "" {
				return errors.New("a password is required (--password or --password-stdin)")
			}
			return run(func(ctx context.Context, a *app.App) error {
				if a.Box == nil {
					return secret.ErrKeyMissing
				}
				sealed, err := a.Box.Encrypt(password)
				if err != nil {
					return err
				}

				cred, err := a.Store.GetCredential(ctx, snifferID)
				switch {
				case errors.Is(err, store.ErrNotFound):
					cred = &model.SnifferCredential{SnifferID: snifferID}
				case err != nil:
					return err
				}
				if username != "" {
					cred.PlatformUsername = username
				}
				if cred.PlatformUsername == "" {
					return errors.New("--username is required for a new sniffer")
				}
				cred.EncryptedPassword = sealed
				cred.AccessToken = ""

				if err := a.Store.PutCredential(ctx, cred); err != nil {
					return err
				}
				logger.Info("Credential stored", "sniffer", snifferID, "username", cred.PlatformUsername)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&snifferID, "sniffer", "", "Sniffer id")
	cmd.Flags().StringVar(&username, "username", "", "Video platform username")
	cmd.Flags().StringVar(&password, "password", "", "Video platform password")
	cmd.Flags().BoolVar(&fromStdin, "password-stdin", false, "Read the password from stdin")
	_ = cmd.MarkFlagRequired("sniffer")
	return cmd
}

func genKeyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "gen-key",
		Short: "Print a new random CREDENTIAL_KEY",
		RunE: func(cmd *cobra.Command, args []string) error {
			key, err := secret.GenerateKey()
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), key)
			return nil
		},
	}
}

// --------------------------------------------------------------------------
// video platform commands
// --------------------------------------------------------------------------

func videoCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "video",
		Short: "Inspect and edit video platform resources",
	}
	cmd.AddCommand(videoChannelsCmd())
	cmd.AddCommand(videoLookupCmd("categories", "List video categories", func(ctx context.Context, a *app.App) (map[string]string, error) {
		return a.Video.Categories(ctx)
	}))
	cmd.AddCommand(videoLookupCmd("privacies", "List privacy levels", func(ctx context.Context, a *app.App) (map[string]string, error) {
		return a.Video.Privacies(ctx)
	}))
	cmd.AddCommand(videoRenameCmd())
	cmd.AddCommand(videoDeleteCmd())
	return cmd
}

func videoChannelsCmd() *cobra.Command {
	var snifferID string
	cmd := &cobra.Command{
		Use:   "channels",
		Short: "List the channels a sniffer's account owns",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(func(ctx context.Context, a *app.App) error {
				channels, err := a.Video.ListChannels(ctx, snifferID)
				if err != nil {
					return err
				}
				for _, c := range channels {
					logger.Info("Channel", "id", c.ID, "handle", c.Name, "name", c.DisplayName)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&snifferID, "sniffer", "", "Sniffer id")
	_ = cmd.MarkFlagRequired("sniffer")
	return cmd
}

func videoLookupCmd(use, short string, fetch func(ctx context.Context, a *app.App) (map[string]string, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(func(ctx context.Context, a *app.App) error {
				values, err := fetch(ctx, a)
				if err != nil {
					return err
				}
				keys := make([]string, 0, len(values))
				for k := range values {
					keys = append(keys, k)
				}
				sort.Strings(keys)
				for _, k := range keys {
					fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", k, values[k])
				}
				return nil
			})
		},
	}
}

func videoRenameCmd() *cobra.Command {
	var snifferID, videoID, name string
	var privacy int
	cmd := &cobra.Command{
		Use:   "rename",
		Short: "Change a video's title and, optionally, its privacy",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(func(ctx context.Context, a *app.App) error {
				upd := video.VideoUpdate{Name: &name}
				if cmd.Flags().Changed("privacy") {
					upd.Privacy = &privacy
				}
				if err := a.Video.UpdateVideo(ctx, snifferID, videoID, upd); err != nil {
					return err
				}
				logger.Info("Video updated", "video", videoID, "name", name)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&snifferID, "sniffer", "", "Sniffer id")
	cmd.Flags().StringVar(&videoID, "video", "", "Video id")
	cmd.Flags().StringVar(&name, "name", "", "New title")
	cmd.Flags().IntVar(&privacy, "privacy", video.PrivacyPublic, "Privacy level")
	_ = cmd.MarkFlagRequired("sniffer")
	_ = cmd.MarkFlagRequired("video")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func videoDeleteCmd() *cobra.Command {
	var snifferID, videoID string
	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete a video or live",
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(func(ctx context.Context, a *app.App) error {
				if err := a.Video.DeleteVideo(ctx, snifferID, videoID); err != nil {
					return err
				}
				logger.Info("Video deleted", "video", videoID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&snifferID, "sniffer", "", "Sniffer id")
	cmd.Flags().StringVar(&videoID, "video", "", "Video id")
	_ = cmd.MarkFlagRequired("sniffer")
	_ = cmd.MarkFlagRequired("video")
	return cmd
}

// --------------------------------------------------------------------------
// helpers
// --------------------------------------------------------------------------

func run(fn func(ctx context.Context, a *app.App) error) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	var cfg *config.Config
	if memory {
		cfg = config.LoadWithoutDatabase()
	} else {
		var err error
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
	}
	logger = slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))

	a, err := app.New(ctx, cfg, memory, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	return fn(ctx, a)
}
