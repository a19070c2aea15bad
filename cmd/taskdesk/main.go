package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"taskdesk/internal/config"
	"taskdesk/internal/db"
	"taskdesk/internal/domain"
	"taskdesk/internal/engine"
	"taskdesk/internal/logger"
	"taskdesk/internal/migrate"
	"taskdesk/internal/repo"
	"taskdesk/internal/server"
)

var rootCmd = &cobra.Command{
	Use:   "taskdesk",
	Short: "Taskdesk CLI",
	Long: `Taskdesk administers office tasks through a guarded lifecycle.
Tasks flow new -> accepted -> in_progress -> pending_approval and end in
completed or loop back through needs_rework; a creator can cancel any
non-terminal task. Every committed change writes an audit entry and, where
someone else should hear about it, a notification.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		workspace := viper.GetString("workspace")
		if _, err := db.EnsureWorkspace(workspace); err != nil {
			return err
		}
		return nil
	},
}

func main() {
	cobra.OnInitialize(initConfig)
	addPersistentFlags()
	registerCommands()
	if err := rootCmd.Execute(); err != nil {
		fmt.Println("error:", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetEnvPrefix("TASKDESK")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func addPersistentFlags() {
	rootCmd.PersistentFlags().StringP("workspace", "w", ".", "workspace directory")
	rootCmd.PersistentFlags().Bool("json", false, "output JSON")
	rootCmd.PersistentFlags().Int64("actor", 0, "acting actor id")
	rootCmd.PersistentFlags().String("config", "taskdesk.yml", "config file path")
	_ = viper.BindPFlag("workspace", rootCmd.PersistentFlags().Lookup("workspace"))
	_ = viper.BindPFlag("json", rootCmd.PersistentFlags().Lookup("json"))
	_ = viper.BindPFlag("actor", rootCmd.PersistentFlags().Lookup("actor"))
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
}

func registerCommands() {
	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(statusCmd())
	rootCmd.AddCommand(taskCmd())
	rootCmd.AddCommand(actorCmd())
	rootCmd.AddCommand(notificationCmd())
	rootCmd.AddCommand(auditCmd())
}

func serveCmd() *cobra.Command {
	var addr, basePath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start HTTP API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(viper.GetString("config"))
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("addr") {
				cfg.Server.Addr = addr
			}
			if cmd.Flags().Changed("base-path") {
				cfg.Server.BasePath = basePath
			}
			if secret := os.Getenv("TASKDESK_JWT_SECRET"); secret != "" {
				cfg.Auth.JWTSecret = secret
			}
			if cfg.Auth.JWTSecret == "" && !cfg.Auth.AllowLegacyActorHeader {
				return fmt.Errorf("auth.jwt_secret (or TASKDESK_JWT_SECRET) is required for bearer auth")
			}
			log := logger.New(cfg.Logging.Level)

			conn, err := db.Open(db.Config{Workspace: viper.GetString("workspace")})
			if err != nil {
				return err
			}
			defer conn.Close()
			if err := migrate.Migrate(conn); err != nil {
				return err
			}
			e := engine.New(conn, log)
			handler, err := server.New(server.Config{
				Engine:   e,
				BasePath: cfg.Server.BasePath,
				Auth: server.AuthConfig{
					JWTSecret:              cfg.Auth.JWTSecret,
					AllowLegacyActorHeader: cfg.Auth.AllowLegacyActorHeader,
					Logger:                 log,
				},
			})
			if err != nil {
				return err
			}
			srv := &http.Server{Addr: cfg.Server.Addr, Handler: handler}
			go func() {
				<-cmd.Context().Done()
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				srv.Shutdown(ctx)
			}()
			log.Info("serving taskdesk api", "addr", cfg.Server.Addr, "base_path", cfg.Server.BasePath)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":8484", "listen address")
	cmd.Flags().StringVar(&basePath, "base-path", "/v1", "API base path")
	return cmd
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			conn, err := db.Open(db.Config{Workspace: viper.GetString("workspace")})
			if err != nil {
				return err
			}
			defer conn.Close()
			if err := migrate.Migrate(conn); err != nil {
				return err
			}
			fmt.Println("migrations applied:", db.Path(viper.GetString("workspace")))
			return nil
		},
	}
}

func statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Task counts by status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				counts, err := r.CountTasksByStatus(ctx)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(counts)
				}
				for _, s := range domain.Statuses {
					fmt.Printf("  %-18s %s: %d\n", s, s.Label(), counts[s])
				}
				return nil
			})
		},
	}
}

func taskCmd() *cobra.Command {
	task := &cobra.Command{
		Use:   "task",
		Short: "Manage tasks",
	}
	task.AddCommand(taskCreateCmd())
	task.AddCommand(taskListCmd())
	task.AddCommand(taskShowCmd())
	task.AddCommand(taskTransitionCmd())
	task.AddCommand(taskEditCmd())
	task.AddCommand(taskDeleteCmd())
	task.AddCommand(taskRestoreCmd())
	task.AddCommand(taskPurgeCmd())
	task.AddCommand(taskKPICmd())
	task.AddCommand(taskCommentCmd())
	task.AddCommand(taskAuditCmd())
	return task
}

func taskCreateCmd() *cobra.Command {
	var opts engine.CreateOptions
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a task",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd.Context(), func(ctx context.Context, e *engine.Engine) error {
				actor, err := requireActor(ctx, e.Repo)
				if err != nil {
					return err
				}
				t, err := e.Create(ctx, opts, actor)
				if err != nil {
					return err
				}
				return printJSONOrTask(t)
			})
		},
	}
	cmd.Flags().StringVar(&opts.Title, "title", "", "title")
	cmd.Flags().StringVar(&opts.Description, "description", "", "description")
	cmd.Flags().StringVar(&opts.Priority, "priority", "", "priority (low, normal, high)")
	cmd.Flags().StringVar(&opts.DueDate, "due", "", "due date (RFC 3339)")
	cmd.Flags().Int64Var(&opts.AssigneeID, "assignee", 0, "assignee actor id")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func taskListCmd() *cobra.Command {
	var status string
	var assignee, creator int64
	var limit int
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				tasks, err := r.ListTasks(ctx, repo.TaskFilters{
					Status:     domain.Status(status),
					AssigneeID: assignee,
					CreatorID:  creator,
					Limit:      limit,
				})
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(tasks)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Title", "Status", "Assignee", "Due", "KPI"})
				for _, t := range tasks {
					assignee := "-"
					if t.AssigneeID != nil {
						assignee = fmt.Sprintf("#%d", *t.AssigneeID)
					}
					due := "-"
					if t.DueDate != nil {
						due = *t.DueDate
					}
					kpi := "-"
					if t.KPIScore != nil {
						kpi = fmt.Sprintf("%d/3", *t.KPIScore)
					}
					tw.AppendRow(table.Row{t.ID, t.Title, t.Status.Label(), assignee, due, kpi})
				}
				tw.Render()
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "status filter")
	cmd.Flags().Int64Var(&assignee, "assignee", 0, "assignee filter")
	cmd.Flags().Int64Var(&creator, "creator", 0, "creator filter")
	cmd.Flags().IntVar(&limit, "limit", 50, "max rows")
	return cmd
}

func taskShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				t, err := r.GetTask(ctx, id)
				if err != nil {
					return err
				}
				return printJSONOrTask(t)
			})
		},
	}
	return cmd
}

func taskTransitionCmd() *cobra.Command {
	var details string
	cmd := &cobra.Command{
		Use:   "transition <id> <status>",
		Short: "Move a task to a new status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e *engine.Engine) error {
				actor, err := requireActor(ctx, e.Repo)
				if err != nil {
					return err
				}
				t, err := e.Transition(ctx, id, domain.Status(args[1]), actor, details)
				if err != nil {
					return err
				}
				return printJSONOrTask(t)
			})
		},
	}
	cmd.Flags().StringVar(&details, "details", "", "note appended to the audit entry")
	return cmd
}

func taskEditCmd() *cobra.Command {
	var title, description, priority, due string
	var assignee int64
	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit task fields",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			opts := engine.EditOptions{ID: id}
			if cmd.Flags().Changed("title") {
				opts.Title = &title
			}
			if cmd.Flags().Changed("description") {
				opts.Description = &description
			}
			if cmd.Flags().Changed("priority") {
				opts.Priority = &priority
			}
			if cmd.Flags().Changed("due") {
				opts.DueDate = &due
			}
			if cmd.Flags().Changed("assignee") {
				opts.AssigneeID = &assignee
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e *engine.Engine) error {
				actor, err := requireActor(ctx, e.Repo)
				if err != nil {
					return err
				}
				t, err := e.Edit(ctx, opts, actor)
				if err != nil {
					return err
				}
				return printJSONOrTask(t)
			})
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "new title")
	cmd.Flags().StringVar(&description, "description", "", "new description")
	cmd.Flags().StringVar(&priority, "priority", "", "new priority")
	cmd.Flags().StringVar(&due, "due", "", "new due date (empty clears)")
	cmd.Flags().Int64Var(&assignee, "assignee", 0, "new assignee id (0 clears)")
	return cmd
}

func taskDeleteCmd() *cobra.Command {
	var reason string
	cmd := &cobra.Command{
		Use:   "delete <id>",
		Short: "Cancel a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e *engine.Engine) error {
				actor, err := requireActor(ctx, e.Repo)
				if err != nil {
					return err
				}
				t, err := e.Delete(ctx, id, actor, reason)
				if err != nil {
					return err
				}
				return printJSONOrTask(t)
			})
		},
	}
	cmd.Flags().StringVar(&reason, "reason", "", "cancellation reason")
	return cmd
}

func taskRestoreCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "restore <id>",
		Short: "Restore a cancelled task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e *engine.Engine) error {
				actor, err := requireActor(ctx, e.Repo)
				if err != nil {
					return err
				}
				t, err := e.Restore(ctx, id, actor)
				if err != nil {
					return err
				}
				return printJSONOrTask(t)
			})
		},
	}
}

func taskPurgeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "purge <id>",
		Short: "Permanently delete a cancelled task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			password, err := promptPassword("Confirm your password: ")
			if err != nil {
				return err
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e *engine.Engine) error {
				actor, err := requireActor(ctx, e.Repo)
				if err != nil {
					return err
				}
				if err := e.PermanentlyDelete(ctx, id, actor, password); err != nil {
					return err
				}
				fmt.Printf("task #%d permanently deleted\n", id)
				return nil
			})
		},
	}
}

func taskKPICmd() *cobra.Command {
	var score int
	cmd := &cobra.Command{
		Use:   "kpi <id>",
		Short: "Score a completed task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e *engine.Engine) error {
				actor, err := requireActor(ctx, e.Repo)
				if err != nil {
					return err
				}
				t, err := e.ScoreKPI(ctx, id, score, actor)
				if err != nil {
					return err
				}
				return printJSONOrTask(t)
			})
		},
	}
	cmd.Flags().IntVar(&score, "score", 0, "score (1-3)")
	_ = cmd.MarkFlagRequired("score")
	return cmd
}

func taskCommentCmd() *cobra.Command {
	var body string
	cmd := &cobra.Command{
		Use:   "comment <id>",
		Short: "Comment on a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withEngine(cmd.Context(), func(ctx context.Context, e *engine.Engine) error {
				if body == "" {
					cs, err := e.Repo.ListComments(ctx, id)
					if err != nil {
						return err
					}
					return printJSON(cs)
				}
				actor, err := requireActor(ctx, e.Repo)
				if err != nil {
					return err
				}
				c, err := e.AddComment(ctx, id, body, actor)
				if err != nil {
					return err
				}
				return printJSON(c)
			})
		},
	}
	cmd.Flags().StringVar(&body, "body", "", "comment text (omit to list)")
	return cmd
}

func taskAuditCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "audit <id>",
		Short: "Show a task's audit trail",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				entries, err := r.ListAuditEntries(ctx, repo.AuditFilters{TaskID: id, Limit: limit})
				if err != nil {
					return err
				}
				return printAudit(entries)
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 50, "max rows")
	return cmd
}

func actorCmd() *cobra.Command {
	actor := &cobra.Command{
		Use:   "actor",
		Short: "Manage actors and their capabilities",
	}
	actor.AddCommand(actorCreateCmd())
	actor.AddCommand(actorListCmd())
	actor.AddCommand(actorGrantCmd())
	actor.AddCommand(actorRevokeCmd())
	actor.AddCommand(actorPasswordCmd())
	actor.AddCommand(actorAPIKeyCmd())
	return actor
}

func actorCreateCmd() *cobra.Command {
	var name string
	var superadmin bool
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an actor",
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := promptPassword("Password: ")
			if err != nil {
				return err
			}
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				id, err := r.InsertActor(ctx, name, repo.HashSecret(password), superadmin)
				if err != nil {
					return err
				}
				a, err := r.GetActor(ctx, id)
				if err != nil {
					return err
				}
				return printJSON(a)
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "actor name")
	cmd.Flags().BoolVar(&superadmin, "superadmin", false, "grant every capability implicitly")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func actorListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List actors",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				actors, err := r.ListActors(ctx)
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(actors)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Name", "Superadmin", "Capabilities"})
				for _, a := range actors {
					tw.AppendRow(table.Row{a.ID, a.Name, a.Superadmin, strings.Join(a.Capabilities.Names(), ", ")})
				}
				tw.Render()
				return nil
			})
		},
	}
}

func actorGrantCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "grant <id> <capability>",
		Short: "Grant a capability",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				return r.GrantCapability(ctx, id, domain.Capability(args[1]))
			})
		},
	}
	return cmd
}

func actorRevokeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "revoke <id> <capability>",
		Short: "Revoke a capability",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				return r.RevokeCapability(ctx, id, domain.Capability(args[1]))
			})
		},
	}
	return cmd
}

func actorPasswordCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set-password <id>",
		Short: "Set an actor's password",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			password, err := promptPassword("New password: ")
			if err != nil {
				return err
			}
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				return r.SetActorPassword(ctx, id, password)
			})
		},
	}
	return cmd
}

func actorAPIKeyCmd() *cobra.Command {
	key := &cobra.Command{Use: "apikey", Short: "Manage API keys"}
	key.AddCommand(apiKeyCreateCmd())
	key.AddCommand(apiKeyListCmd())
	key.AddCommand(apiKeyDeleteCmd())
	return key
}

func apiKeyCreateCmd() *cobra.Command {
	var name string
	var actorID int64
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create an API key",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				secret := "tk_" + newKeySecret()
				k := domain.APIKey{
					ID:      newKeyID(),
					ActorID: actorID,
					Name:    name,
					KeyHash: repo.HashSecret(secret),
				}
				if err := r.InsertAPIKey(ctx, k); err != nil {
					return err
				}
				// The raw secret is shown once and never stored.
				fmt.Printf("api key %s created\n%s\n", k.ID, secret)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "key label")
	cmd.Flags().Int64Var(&actorID, "actor-id", 0, "actor the key acts as")
	_ = cmd.MarkFlagRequired("actor-id")
	return cmd
}

func apiKeyListCmd() *cobra.Command {
	var actorID int64
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List API keys",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				keys, err := r.ListAPIKeys(ctx, actorID)
				if err != nil {
					return err
				}
				for i := range keys {
					keys[i].KeyHash = "" // never print hashes
				}
				return printJSON(keys)
			})
		},
	}
	cmd.Flags().Int64Var(&actorID, "actor-id", 0, "filter by actor")
	return cmd
}

func apiKeyDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an API key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				return r.DeleteAPIKey(ctx, args[0])
			})
		},
	}
}

func notificationCmd() *cobra.Command {
	n := &cobra.Command{Use: "notification", Short: "My notifications"}
	n.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List notifications for the acting actor",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				actorID := viper.GetInt64("actor")
				if actorID == 0 {
					return fmt.Errorf("--actor is required")
				}
				items, err := r.ListNotifications(ctx, repo.NotificationFilters{RecipientID: actorID})
				if err != nil {
					return err
				}
				if viper.GetBool("json") {
					return printJSON(items)
				}
				tw := table.NewWriter()
				tw.SetOutputMirror(os.Stdout)
				tw.AppendHeader(table.Row{"ID", "Read", "Message", "Link"})
				for _, it := range items {
					mark := " "
					if !it.Read {
						mark = "*"
					}
					tw.AppendRow(table.Row{it.ID, mark, it.Message, it.Link})
				}
				tw.Render()
				return nil
			})
		},
	})
	n.AddCommand(&cobra.Command{
		Use:   "read <id>",
		Short: "Mark a notification read",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				actorID := viper.GetInt64("actor")
				if actorID == 0 {
					return fmt.Errorf("--actor is required")
				}
				return r.MarkNotificationRead(ctx, id, actorID)
			})
		},
	})
	return n
}

func auditCmd() *cobra.Command {
	var actorID int64
	var limit int
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Show the audit trail",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRepo(cmd.Context(), func(ctx context.Context, r repo.Repo) error {
				entries, err := r.ListAuditEntries(ctx, repo.AuditFilters{ActorID: actorID, Limit: limit})
				if err != nil {
					return err
				}
				return printAudit(entries)
			})
		},
	}
	cmd.Flags().Int64Var(&actorID, "actor-id", 0, "filter by actor")
	cmd.Flags().IntVar(&limit, "limit", 50, "max rows")
	return cmd
}

// --- helpers ---

func withEngine(ctx context.Context, fn func(context.Context, *engine.Engine) error) error {
	conn, err := db.Open(db.Config{Workspace: viper.GetString("workspace")})
	if err != nil {
		return err
	}
	defer conn.Close()
	if err := migrate.Migrate(conn); err != nil {
		return err
	}
	cfg, err := config.Load(viper.GetString("config"))
	if err != nil {
		return err
	}
	return fn(ctx, engine.New(conn, logger.New(cfg.Logging.Level)))
}

func withRepo(ctx context.Context, fn func(context.Context, repo.Repo) error) error {
	conn, err := db.Open(db.Config{Workspace: viper.GetString("workspace")})
	if err != nil {
		return err
	}
	defer conn.Close()
	if err := migrate.Migrate(conn); err != nil {
		return err
	}
	return fn(ctx, repo.Repo{DB: conn})
}

func requireActor(ctx context.Context, r repo.Repo) (domain.Actor, error) {
	actorID := viper.GetInt64("actor")
	if actorID == 0 {
		return domain.Actor{}, fmt.Errorf("--actor is required")
	}
	return r.GetActor(ctx, actorID)
}

func parseID(s string) (int64, error) {
	var id int64
	if _, err := fmt.Sscanf(s, "%d", &id); err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid task id %q", s)
	}
	return id, nil
}

func promptPassword(prompt string) (string, error) {
	fmt.Print(prompt)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func printJSONOrTask(t domain.Task) error {
	if viper.GetBool("json") {
		return printJSON(t)
	}
	fmt.Printf("#%d %s [%s]\n", t.ID, t.Title, t.Status.Label())
	if t.Description != "" {
		fmt.Println(t.Description)
	}
	if t.AssigneeID != nil {
		fmt.Printf("assignee: #%d\n", *t.AssigneeID)
	}
	if t.DueDate != nil {
		fmt.Printf("due: %s\n", *t.DueDate)
	}
	if t.CompletedAt != nil {
		fmt.Printf("completed: %s\n", *t.CompletedAt)
	}
	if t.KPIScore != nil {
		fmt.Printf("kpi: %d/3\n", *t.KPIScore)
	}
	return nil
}

func printAudit(entries []domain.AuditEntry) error {
	if viper.GetBool("json") {
		return printJSON(entries)
	}
	tw := table.NewWriter()
	tw.SetOutputMirror(os.Stdout)
	tw.AppendHeader(table.Row{"ID", "When", "Actor", "Action", "Details"})
	for _, e := range entries {
		tw.AppendRow(table.Row{e.ID, e.CreatedAt, e.ActorID, e.Action, e.Details})
	}
	tw.Render()
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newKeyID() string {
	return "key_" + uuid.New().String()
}

func newKeySecret() string {
	return strings.ReplaceAll(uuid.New().String()+uuid.New().String(), "-", "")
}
